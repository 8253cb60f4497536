package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"contactbook/internal/model"
	"contactbook/internal/users"
	"contactbook/internal/validator"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Metrics receives registration outcomes. A nil Metrics disables recording.
type Metrics interface {
	RecordUserRegistration(ctx context.Context, email string, success bool)
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password_strength"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Service implements the credential flow: registration, login, refresh and
// logout. Session state lives entirely inside the signed tokens; the only
// server-side bookkeeping is the refresh token revocation list.
type Service struct {
	users     *users.Service
	tokens    *TokenManager
	revoked   RevocationList
	limiter   RateLimiter
	validator *validator.Validator
	metrics   Metrics
}

func NewService(users *users.Service, tokens *TokenManager, revoked RevocationList, limiter RateLimiter, v *validator.Validator, metrics Metrics) *Service {
	return &Service{
		users:     users,
		tokens:    tokens,
		revoked:   revoked,
		limiter:   limiter,
		validator: v,
		metrics:   metrics,
	}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*model.User, TokenPair, error) {
	if err := s.validator.CheckStruct(ctx, req); err != nil {
		return nil, TokenPair{}, err
	}
	if err := s.limiter.CheckRegister(ctx, req.Email); err != nil {
		return nil, TokenPair{}, err
	}

	user, err := s.users.Register(ctx, users.CreateParams{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	}, nil)
	if s.metrics != nil {
		s.metrics.RecordUserRegistration(ctx, req.Email, err == nil)
	}
	if err != nil {
		return nil, TokenPair{}, err
	}

	pair, err := s.tokens.Issue(user)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return user, pair, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*model.User, TokenPair, error) {
	if err := s.validator.CheckStruct(ctx, req); err != nil {
		return nil, TokenPair{}, err
	}
	if err := s.limiter.CheckLogin(ctx, req.Email); err != nil {
		return nil, TokenPair{}, err
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, TokenPair{}, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, TokenPair{}, ErrInvalidCredentials
	}

	if err := s.limiter.ResetAttempts(ctx, req.Email, "login"); err != nil {
		return nil, TokenPair{}, fmt.Errorf("failed to reset login attempts: %w", err)
	}

	pair, err := s.tokens.Issue(user)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return user, pair, nil
}

// Refresh exchanges a valid, non-revoked refresh token for a fresh token
// pair. The user must still exist; tokens for deleted accounts are rejected.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return TokenPair{}, ErrInvalidToken
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to check revocation: %w", err)
	}
	if revoked {
		return TokenPair{}, ErrInvalidToken
	}

	user, err := s.userFromClaims(ctx, claims)
	if err != nil {
		return TokenPair{}, err
	}
	return s.tokens.Issue(user)
}

// Logout revokes the refresh token for the remainder of its lifetime.
// Tokens that are already expired or malformed have nothing left to revoke.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	return s.revoked.Revoke(ctx, claims.ID, ttl)
}

func (s *Service) userFromClaims(ctx context.Context, claims *Claims) (*model.User, error) {
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := s.users.FindModelByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidToken
	}
	return user, nil
}
