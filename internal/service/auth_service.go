package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Lixing-Zhang/storefront/internal/apperrors"
	"github.com/Lixing-Zhang/storefront/internal/auth"
	"github.com/Lixing-Zhang/storefront/internal/metrics"
	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/repository"
)

// AuthService handles registration, login and token verification
type AuthService struct {
	users       repository.UserRepository
	hasher      *auth.PasswordHasher
	tokens      *auth.TokenManager
	adminEmails map[string]bool
	metrics     metrics.Recorder
	logger      *slog.Logger
	now         func() time.Time
}

// AuthOptions configures an AuthService.
type AuthOptions struct {
	// AdminEmails register with the admin role.
	AdminEmails []string
	Metrics     metrics.Recorder
	Logger      *slog.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(users repository.UserRepository, hasher *auth.PasswordHasher, tokens *auth.TokenManager, opts AuthOptions) *AuthService {
	admins := make(map[string]bool, len(opts.AdminEmails))
	for _, email := range opts.AdminEmails {
		if email = NormalizeEmail(email); email != "" {
			admins[email] = true
		}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &AuthService{
		users:       users,
		hasher:      hasher,
		tokens:      tokens,
		adminEmails: admins,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
		now:         time.Now,
	}
}

// NormalizeEmail trims and lowercases an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and returns it with a fresh token.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	name := strings.TrimSpace(req.Name)
	email := NormalizeEmail(req.Email)
	if name == "" || email == "" || req.Password == "" {
		return nil, apperrors.Validation("All fields are required")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, &apperrors.Error{Kind: apperrors.KindInternal, Message: "Error registering user", Cause: err}
	}

	role := models.RoleCustomer
	if s.adminEmails[email] {
		role = models.RoleAdmin
	}

	user := models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, apperrors.Conflict("User already exists")
		}
		return nil, apperrors.Store("Error registering user", err)
	}

	token, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, &apperrors.Error{Kind: apperrors.KindInternal, Message: "Error registering user", Cause: err}
	}

	s.metrics.RecordRegistration()
	s.logger.Info("user registered", "user_id", user.ID, "role", user.Role)

	return &models.AuthResponse{
		Message: "User registered successfully",
		User:    user.Public(),
		Token:   token,
	}, nil
}

// Login verifies credentials and returns a fresh token. Unknown emails and
// wrong passwords fail with the same error after the same amount of work.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	email := NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, apperrors.Validation("Email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.hasher.CompareDummy(req.Password)
			s.metrics.RecordLogin(false)
			return nil, apperrors.Auth("Invalid credentials")
		}
		return nil, apperrors.Store("Error logging in", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		s.metrics.RecordLogin(false)
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, apperrors.Auth("Invalid credentials")
		}
		s.logger.Error("stored password hash unreadable", "user_id", user.ID, "error", err)
		return nil, apperrors.Auth("Invalid credentials")
	}

	token, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, &apperrors.Error{Kind: apperrors.KindInternal, Message: "Error logging in", Cause: err}
	}

	s.metrics.RecordLogin(true)
	return &models.AuthResponse{
		Message: "Login successful",
		User:    user.Public(),
		Token:   token,
	}, nil
}

// VerifyToken returns the identity carried by token.
func (s *AuthService) VerifyToken(token string) (auth.Claims, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return auth.Claims{}, &apperrors.Error{
			Kind:    apperrors.KindForbidden,
			Message: "Invalid or expired token",
			Cause:   err,
		}
	}
	return claims, nil
}

// Profile returns the public profile of userID, including createdAt.
func (s *AuthService) Profile(ctx context.Context, userID string) (*models.PublicUser, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.NotFound("User not found")
		}
		return nil, apperrors.Store("Error fetching user profile", err)
	}
	profile := user.Profile()
	return &profile, nil
}
