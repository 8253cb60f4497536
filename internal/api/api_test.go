package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"contactbook/internal/auth"
	"contactbook/internal/config"
	"contactbook/internal/contacts"
	"contactbook/internal/repository"
	"contactbook/internal/users"
	"contactbook/internal/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp() *fiber.App {
	v := validator.New()
	userRepo := repository.NewMemoryUserRepository()
	usersService := users.NewService(userRepo, v)
	contactsService := contacts.NewService(
		repository.NewMemoryContactRepository(),
		repository.NewMemoryShareRepository(),
		userRepo,
		v,
		nil,
	)

	tokens := auth.NewTokenManager(config.AuthConfig{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	})
	authService := auth.NewService(
		usersService, tokens, auth.NewMemoryRevocationList(), auth.NoopRateLimiter{}, v, nil)

	app := fiber.New()
	RegisterRoutes(app, Handlers{
		Auth:     NewAuthHandler(authService, usersService),
		Users:    NewUserHandler(usersService),
		Contacts: NewContactHandler(contactsService),
		Health:   NewHealthHandler(nil, nil),
	}, tokens)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	}
	return resp.StatusCode, decoded
}

func signUp(t *testing.T, app *fiber.App, email string) (string, string) {
	t.Helper()
	status, body := doJSON(t, app, http.MethodPost, "/auth/register", "", map[string]any{
		"username": "testuser",
		"email":    email,
		"password": "TestPassword123",
	})
	require.Equal(t, http.StatusCreated, status)
	token := body["access_token"].(string)
	userID := body["user"].(map[string]any)["id"].(string)
	return token, userID
}

func TestRegisterAndLogin(t *testing.T) {
	app := newTestApp()

	status, body := doJSON(t, app, http.MethodPost, "/auth/register", "", map[string]any{
		"username": "testuser",
		"email":    "test@example.com",
		"password": "TestPassword123",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.NotEmpty(t, body["access_token"])
	assert.NotEmpty(t, body["refresh_token"])

	status, body = doJSON(t, app, http.MethodPost, "/auth/login", "", map[string]any{
		"email":    "test@example.com",
		"password": "TestPassword123",
	})
	assert.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["access_token"])

	status, body = doJSON(t, app, http.MethodPost, "/auth/login", "", map[string]any{
		"email":    "test@example.com",
		"password": "WrongPassword1",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.NotNil(t, body["error"])
}

func TestRegister_ValidationErrorShape(t *testing.T) {
	app := newTestApp()

	status, body := doJSON(t, app, http.MethodPost, "/auth/register", "", map[string]any{
		"email": "not-an-email",
	})
	require.Equal(t, http.StatusBadRequest, status)

	errObj := body["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_FAILED", errObj["code"])
	assert.NotEmpty(t, errObj["fields"])
}

func TestRegister_DuplicateEmailConflict(t *testing.T) {
	app := newTestApp()
	signUp(t, app, "test@example.com")

	status, _ := doJSON(t, app, http.MethodPost, "/auth/register", "", map[string]any{
		"username": "other",
		"email":    "test@example.com",
		"password": "TestPassword123",
	})
	assert.Equal(t, http.StatusConflict, status)
}

func TestAuthMe(t *testing.T) {
	app := newTestApp()
	token, userID := signUp(t, app, "test@example.com")

	status, body := doJSON(t, app, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, userID, body["id"])

	status, _ = doJSON(t, app, http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRefreshAndLogout(t *testing.T) {
	app := newTestApp()

	status, body := doJSON(t, app, http.MethodPost, "/auth/register", "", map[string]any{
		"username": "testuser",
		"email":    "test@example.com",
		"password": "TestPassword123",
	})
	require.Equal(t, http.StatusCreated, status)
	refresh := body["refresh_token"].(string)

	status, body = doJSON(t, app, http.MethodPost, "/auth/refresh", "", map[string]any{"refresh_token": refresh})
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["access_token"])

	status, _ = doJSON(t, app, http.MethodPost, "/auth/logout", "", map[string]any{"refresh_token": refresh})
	require.Equal(t, http.StatusNoContent, status)

	status, _ = doJSON(t, app, http.MethodPost, "/auth/refresh", "", map[string]any{"refresh_token": refresh})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestContacts_RequireAuthentication(t *testing.T) {
	app := newTestApp()

	status, _ := doJSON(t, app, http.MethodGet, "/contacts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doJSON(t, app, http.MethodGet, "/contacts", "Bearer not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestContacts_CRUDRoundTrip(t *testing.T) {
	app := newTestApp()
	ownerToken, ownerID := signUp(t, app, "owner@example.com")
	readerToken, readerID := signUp(t, app, "reader@example.com")

	status, created := doJSON(t, app, http.MethodPost, "/contacts", ownerToken, map[string]any{
		"first_name":  "Ada",
		"last_name":   "Lovelace",
		"shared_with": []string{readerID},
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, ownerID, created["owner"])
	assert.Equal(t, []any{readerID}, created["shared_with"])
	contactID := created["id"].(string)

	// Visible to both the owner and the shared user.
	status, got := doJSON(t, app, http.MethodGet, "/contacts/"+contactID, readerToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Ada", got["first_name"])

	// Writes are owner-only.
	status, _ = doJSON(t, app, http.MethodPatch, "/contacts/"+contactID, readerToken, map[string]any{"first_name": "Grace"})
	assert.Equal(t, http.StatusForbidden, status)

	status, updated := doJSON(t, app, http.MethodPatch, "/contacts/"+contactID, ownerToken, map[string]any{"first_name": "Grace"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Grace", updated["first_name"])
	assert.Equal(t, "Lovelace", updated["last_name"])

	status, _ = doJSON(t, app, http.MethodDelete, "/contacts/"+contactID, ownerToken, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = doJSON(t, app, http.MethodGet, "/contacts/"+contactID, ownerToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestContacts_ListVisibility(t *testing.T) {
	app := newTestApp()
	aliceToken, _ := signUp(t, app, "alice@example.com")
	bobToken, bobID := signUp(t, app, "bob@example.com")

	doJSON(t, app, http.MethodPost, "/contacts", aliceToken, map[string]any{
		"first_name": "Private", "last_name": "One",
	})
	doJSON(t, app, http.MethodPost, "/contacts", aliceToken, map[string]any{
		"first_name": "Shared", "last_name": "One", "shared_with": []string{bobID},
	})

	req, err := http.NewRequest(http.MethodGet, "/contacts", nil)
	require.NoError(t, err)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+bobToken)
	resp, err := fetchContactList(app, req)
	require.NoError(t, err)
	require.Len(t, resp, 1)
	assert.Equal(t, "Shared", resp[0]["first_name"])
}

func fetchContactList(app *fiber.App, req *http.Request) ([]map[string]any, error) {
	resp, err := app.Test(req, -1)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var out []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func TestContacts_UnknownIDIs404(t *testing.T) {
	app := newTestApp()
	token, _ := signUp(t, app, "owner@example.com")

	status, _ := doJSON(t, app, http.MethodGet, "/contacts/e1b9f726-0000-0000-0000-000000000000", token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = doJSON(t, app, http.MethodGet, "/contacts/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestUsers_PolicyBoundaries(t *testing.T) {
	app := newTestApp()
	aliceToken, aliceID := signUp(t, app, "alice@example.com")
	_, bobID := signUp(t, app, "bob@example.com")

	// Non-admins cannot enumerate users.
	status, _ := doJSON(t, app, http.MethodGet, "/users", aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	// Reading someone else's record is denied, own record allowed.
	status, _ = doJSON(t, app, http.MethodGet, "/users/"+bobID, aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body := doJSON(t, app, http.MethodGet, "/users/"+aliceID, aliceToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alice@example.com", body["email"])
	_, hasHash := body["password_hash"]
	assert.False(t, hasHash)
}
