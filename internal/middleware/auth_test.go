package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Lixing-Zhang/storefront/internal/auth"
	"github.com/Lixing-Zhang/storefront/pkg/logger"
)

type stubVerifier map[string]auth.Claims

func (s stubVerifier) VerifyToken(token string) (auth.Claims, error) {
	claims, ok := s[token]
	if !ok {
		return auth.Claims{}, errors.New("bad token")
	}
	return claims, nil
}

func TestBearerAuth(t *testing.T) {
	verifier := stubVerifier{
		"good-token":  {UserID: "user-1", Email: "ada@example.com", Role: "customer"},
		"admin-token": {UserID: "user-2", Email: "boss@example.com", Role: "admin"},
	}

	// Create a test handler that echoes the caller
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			t.Error("claims missing from context")
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(claims.UserID))
	})

	// Wrap with auth middleware
	authHandler := BearerAuth(verifier, logger.Discard())(testHandler)

	tests := []struct {
		name           string
		header         string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "valid token",
			header:         "Bearer good-token",
			expectedStatus: http.StatusOK,
			expectedBody:   "user-1",
		},
		{
			name:           "lowercase scheme",
			header:         "bearer admin-token",
			expectedStatus: http.StatusOK,
			expectedBody:   "user-2",
		},
		{
			name:           "missing header",
			header:         "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "scheme without token",
			header:         "Bearer",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "wrong scheme",
			header:         "Basic Zm9vOmJhcg==",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "invalid token",
			header:         "Bearer wrong",
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			w := httptest.NewRecorder()
			authHandler.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.expectedStatus)
			}

			if tt.expectedStatus == http.StatusOK {
				if w.Body.String() != tt.expectedBody {
					t.Errorf("body = %s, want %s", w.Body.String(), tt.expectedBody)
				}
			} else if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %s, want application/json", ct)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name           string
		enforce        bool
		claims         *auth.Claims
		expectedStatus int
	}{
		{name: "not enforced", enforce: false, claims: &auth.Claims{UserID: "u", Role: "customer"}, expectedStatus: http.StatusNoContent},
		{name: "admin", enforce: true, claims: &auth.Claims{UserID: "u", Role: "admin"}, expectedStatus: http.StatusNoContent},
		{name: "customer", enforce: true, claims: &auth.Claims{UserID: "u", Role: "customer"}, expectedStatus: http.StatusForbidden},
		{name: "no claims", enforce: true, expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/api/admin/products/1", nil)
			if tt.claims != nil {
				req = req.WithContext(WithClaims(req.Context(), *tt.claims))
			}

			w := httptest.NewRecorder()
			RequireAdmin(tt.enforce)(ok).ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.expectedStatus)
			}
		})
	}
}
