package auth

import (
	"context"
	"testing"
	"time"

	"contactbook/internal/config"
	"contactbook/internal/crud"
	"contactbook/internal/repository"
	"contactbook/internal/users"
	"contactbook/internal/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLimiter struct {
	loginErr    error
	registerErr error
	resets      []string
}

func (f *fakeLimiter) CheckLogin(_ context.Context, _ string) error    { return f.loginErr }
func (f *fakeLimiter) CheckRegister(_ context.Context, _ string) error { return f.registerErr }
func (f *fakeLimiter) ResetAttempts(_ context.Context, email, operation string) error {
	f.resets = append(f.resets, operation+":"+email)
	return nil
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	}
}

func newAuthService(limiter RateLimiter) (*Service, *TokenManager) {
	v := validator.New()
	usersService := users.NewService(repository.NewMemoryUserRepository(), v)
	tokens := NewTokenManager(testAuthConfig())
	return NewService(usersService, tokens, NewMemoryRevocationList(), limiter, v, nil), tokens
}

func registerRequest() RegisterRequest {
	return RegisterRequest{
		Username: "testuser",
		Email:    "test@example.com",
		Password: "TestPassword123",
	}
}

func TestRegister_IssuesTokenPair(t *testing.T) {
	svc, tokens := newAuthService(&fakeLimiter{})

	user, pair, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)
	require.NotNil(t, user)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims, err := tokens.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.Subject)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, user.Role, claims.Role)
}

func TestRegister_ValidatesBeforeRateLimiting(t *testing.T) {
	svc, _ := newAuthService(&fakeLimiter{registerErr: ErrTooManyAttempts})

	_, _, err := svc.Register(context.Background(), RegisterRequest{Email: "not-an-email"})
	var verr *crud.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, _, err = svc.Register(context.Background(), registerRequest())
	assert.ErrorIs(t, err, ErrTooManyAttempts)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newAuthService(&fakeLimiter{})

	_, _, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	_, _, err = svc.Register(context.Background(), registerRequest())
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
}

func TestLogin(t *testing.T) {
	limiter := &fakeLimiter{}
	svc, _ := newAuthService(limiter)
	registered, _, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	tests := []struct {
		name          string
		request       LoginRequest
		expectedError error
	}{
		{
			name:    "successful_login",
			request: LoginRequest{Email: "test@example.com", Password: "TestPassword123"},
		},
		{
			name:          "wrong_password",
			request:       LoginRequest{Email: "test@example.com", Password: "WrongPassword1"},
			expectedError: ErrInvalidCredentials,
		},
		{
			name:          "unknown_email",
			request:       LoginRequest{Email: "nobody@example.com", Password: "TestPassword123"},
			expectedError: ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, pair, err := svc.Login(context.Background(), tt.request)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, registered.ID, user.ID)
			assert.NotEmpty(t, pair.AccessToken)
			assert.Contains(t, limiter.resets, "login:test@example.com")
		})
	}
}

func TestLogin_RateLimited(t *testing.T) {
	svc, _ := newAuthService(&fakeLimiter{loginErr: ErrTooManyAttempts})

	_, _, err := svc.Login(context.Background(), LoginRequest{Email: "test@example.com", Password: "TestPassword123"})
	assert.ErrorIs(t, err, ErrTooManyAttempts)
}

func TestRefresh_IssuesNewPair(t *testing.T) {
	svc, tokens := newAuthService(&fakeLimiter{})
	user, pair, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	next, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, next.AccessToken)

	claims, err := tokens.ParseAccess(next.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.Subject)
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	svc, _ := newAuthService(&fakeLimiter{})
	_, pair, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	// The token families are not interchangeable.
	_, err = svc.Refresh(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefresh_RejectsDeletedUser(t *testing.T) {
	v := validator.New()
	userRepo := repository.NewMemoryUserRepository()
	usersService := users.NewService(userRepo, v)
	tokens := NewTokenManager(testAuthConfig())
	svc := NewService(usersService, tokens, NewMemoryRevocationList(), &fakeLimiter{}, v, nil)

	user, pair, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	_, err = userRepo.Delete(context.Background(), user.ID)
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogout_RevokesRefreshToken(t *testing.T) {
	svc, _ := newAuthService(&fakeLimiter{})
	_, pair, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), pair.RefreshToken))

	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogout_MalformedTokenIsNoop(t *testing.T) {
	svc, _ := newAuthService(&fakeLimiter{})
	assert.NoError(t, svc.Logout(context.Background(), "garbage"))
}

func TestTokenManager_RejectsWrongSecret(t *testing.T) {
	cfg := testAuthConfig()
	manager := NewTokenManager(cfg)

	other := cfg
	other.AccessSecret = "some-other-secret"
	forged := NewTokenManager(other)

	svc, _ := newAuthService(&fakeLimiter{})
	_, pair, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	_, err = manager.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	_, err = forged.ParseAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
