package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Lixing-Zhang/storefront/internal/auth"
	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/payment"
	"github.com/Lixing-Zhang/storefront/internal/repository"
	"github.com/Lixing-Zhang/storefront/internal/service"
	"github.com/Lixing-Zhang/storefront/pkg/logger"
)

type testServer struct {
	handler http.Handler
	store   *repository.SnapshotStore
	tokens  *auth.TokenManager
}

type serverOption func(*Deps)

func withRequireAdmin() serverOption {
	return func(d *Deps) { d.RequireAdmin = true }
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()
	log := logger.Discard()
	store := repository.NewInMemoryStore()

	hasher, err := auth.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := auth.NewTokenManager("handler-test-secret", time.Hour)
	require.NoError(t, err)

	deps := Deps{
		Auth: service.NewAuthService(store.Users(), hasher, tokens, service.AuthOptions{
			AdminEmails: []string{"admin@example.com"},
			Logger:      log,
		}),
		Products: service.NewProductService(store, log),
		Orders: service.NewOrderService(store, payment.NewSimulator("usd"), service.OrderOptions{
			Logger: log,
		}),
		Logger: log,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	return &testServer{
		handler: NewRouter(deps),
		store:   store,
		tokens:  tokens,
	}
}

// do sends body, JSON encoded unless it is rawJSON, and returns the recorder.
func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case rawJSON:
		buf.WriteString(string(b))
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

// register creates an account and returns its token.
func (s *testServer) register(t *testing.T, name, email string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/auth/register", "", models.RegisterRequest{
		Name:     name,
		Email:    email,
		Password: "correct horse",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp models.AuthResponse
	decode(t, w, &resp)
	return resp.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(w.Body).Decode(v), "body: %s", w.Body.String())
}

func messageOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp MessageResponse
	decode(t, w, &resp)
	return resp.Message
}

// rawJSON is sent verbatim by testServer.do.
type rawJSON string

func decodeReader(r io.Reader, v any) error {
	return json.NewDecoder(r).Decode(v)
}
