// ABOUTME: Tests for the HTTP API surface.
// ABOUTME: Covers accounts, contacts, history, and the admin endpoints.

package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatsapp/relay/internal/auth"
	"github.com/chatsapp/relay/internal/store"
)

var testSecret = []byte("httpapi-test-secret-meets-32-byte")

type fakePresence struct {
	online []string
}

func (f *fakePresence) Online() []string {
	return f.online
}

type testAPI struct {
	server   *httptest.Server
	mock     *store.MockStore
	verifier *auth.JWTVerifier
	presence *fakePresence
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	verifier, err := auth.NewJWTVerifier(testSecret)
	require.NoError(t, err)

	mock := store.NewMockStore()
	presence := &fakePresence{}
	api := New(mock, verifier, presence, time.Hour, nil)
	server := httptest.NewServer(api.Routes(nil))
	t.Cleanup(server.Close)

	return &testAPI{server: server, mock: mock, verifier: verifier, presence: presence}
}

func (ta *testAPI) do(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, ta.server.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

// register creates an account through the API and returns a login token.
func (ta *testAPI) register(t *testing.T, username string) (token, userID string) {
	t.Helper()

	resp, _ := ta.do(t, http.MethodPost, "/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password-" + username,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := ta.do(t, http.MethodPost, "/login", "", map[string]string{
		"email":    username + "@example.com",
		"password": "password-" + username,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ = body["token"].(string)
	userID, _ = body["userId"].(string)
	require.NotEmpty(t, token)
	require.NotEmpty(t, userID)
	return token, userID
}

// adminToken mints a token for a seeded admin account.
func (ta *testAPI) adminToken(t *testing.T) string {
	t.Helper()

	admin := &store.User{
		ID:           "admin-1",
		Username:     "root",
		Email:        "root@example.com",
		PasswordHash: "unused",
		Admin:        true,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, ta.mock.CreateUser(context.Background(), admin))

	token, err := ta.verifier.Generate(&auth.Claims{
		UserID:   admin.ID,
		Username: admin.Username,
		Admin:    true,
	}, time.Hour)
	require.NoError(t, err)
	return token
}

func TestRegister(t *testing.T) {
	ta := newTestAPI(t)

	resp, body := ta.do(t, http.MethodPost, "/register", "", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "alice", body["username"])

	// Stored hash must verify and must not be the plaintext.
	user, err := ta.mock.GetUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", user.PasswordHash)
	assert.False(t, user.Admin)
}

func TestRegister_MissingFields(t *testing.T) {
	ta := newTestAPI(t)

	resp, body := ta.do(t, http.MethodPost, "/register", "", map[string]string{
		"username": "alice",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "all fields are required", body["message"])
}

func TestRegister_Duplicate(t *testing.T) {
	ta := newTestAPI(t)
	ta.register(t, "alice")

	resp, body := ta.do(t, http.MethodPost, "/register", "", map[string]string{
		"username": "alice",
		"email":    "other@example.com",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "username or email already exists", body["message"])
}

func TestLogin(t *testing.T) {
	ta := newTestAPI(t)
	ta.register(t, "alice")

	resp, body := ta.do(t, http.MethodPost, "/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "password-alice",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, false, body["isAdmin"])

	// The minted token must verify with the same claims.
	claims, err := ta.verifier.Verify(body["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.False(t, claims.Admin)
}

func TestLogin_BadCredentials(t *testing.T) {
	ta := newTestAPI(t)
	ta.register(t, "alice")

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "alice@example.com", "wrong"},
		{"unknown email", "ghost@example.com", "password-alice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := ta.do(t, http.MethodPost, "/login", "", map[string]string{
				"email":    tt.email,
				"password": tt.password,
			})
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "invalid credentials", body["message"])
		})
	}
}

func TestValidateToken(t *testing.T) {
	ta := newTestAPI(t)
	token, _ := ta.register(t, "alice")

	resp, body := ta.do(t, http.MethodGet, "/validate-token", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["valid"])
	assert.Equal(t, "alice", body["username"])

	resp, _ = ta.do(t, http.MethodGet, "/validate-token", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestContactsLifecycle(t *testing.T) {
	ta := newTestAPI(t)
	aliceToken, _ := ta.register(t, "alice")
	ta.register(t, "bob")

	// Empty list to start
	resp, body := ta.do(t, http.MethodGet, "/contacts", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["contacts"])

	resp, body = ta.do(t, http.MethodPost, "/add-contact", aliceToken, map[string]string{
		"contactUsername": "bob",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "bob", body["contact"])

	resp, _ = ta.do(t, http.MethodPost, "/add-contact", aliceToken, map[string]string{
		"contactUsername": "bob",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = ta.do(t, http.MethodGet, "/contacts", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{"bob"}, body["contacts"])

	resp, _ = ta.do(t, http.MethodDelete, "/contacts/bob", aliceToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = ta.do(t, http.MethodDelete, "/contacts/bob", aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAddContact_Validation(t *testing.T) {
	ta := newTestAPI(t)
	aliceToken, _ := ta.register(t, "alice")

	resp, body := ta.do(t, http.MethodPost, "/add-contact", aliceToken, map[string]string{
		"contactUsername": "  ",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "username is required", body["message"])

	resp, body = ta.do(t, http.MethodPost, "/add-contact", aliceToken, map[string]string{
		"contactUsername": "alice",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "cannot add yourself", body["message"])

	resp, body = ta.do(t, http.MethodPost, "/add-contact", aliceToken, map[string]string{
		"contactUsername": "ghost",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "user not found", body["message"])
}

func TestConversationHistory(t *testing.T) {
	ta := newTestAPI(t)
	aliceToken, _ := ta.register(t, "alice")

	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)
	for _, m := range []*store.Message{
		{ID: "m2", From: "bob", To: "alice", Text: "second", Timestamp: base.Add(2 * time.Second)},
		{ID: "m1", From: "alice", To: "bob", Text: "first", Timestamp: base.Add(1 * time.Second)},
		{ID: "m3", From: "alice", To: "carol", Text: "other pair", Timestamp: base.Add(3 * time.Second)},
	} {
		require.NoError(t, ta.mock.SaveMessage(ctx, m))
	}

	resp, body := ta.do(t, http.MethodGet, "/messages/bob", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	first := messages[0].(map[string]any)
	second := messages[1].(map[string]any)
	assert.Equal(t, "m1", first["id"])
	assert.Equal(t, "m2", second["id"])
}

func TestAdmin_RequiresAdminClaim(t *testing.T) {
	ta := newTestAPI(t)
	aliceToken, _ := ta.register(t, "alice")

	resp, _ := ta.do(t, http.MethodGet, "/admin/users", aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = ta.do(t, http.MethodGet, "/admin/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminListUsers(t *testing.T) {
	ta := newTestAPI(t)
	ta.register(t, "alice")
	token := ta.adminToken(t)

	resp, body := ta.do(t, http.MethodGet, "/admin/users", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	users, ok := body["users"].([]any)
	require.True(t, ok)
	require.Len(t, users, 2)
	for _, u := range users {
		view := u.(map[string]any)
		assert.NotContains(t, view, "passwordHash")
		assert.NotContains(t, view, "password")
	}
}

func TestAdminDeleteUser(t *testing.T) {
	ta := newTestAPI(t)
	_, aliceID := ta.register(t, "alice")
	token := ta.adminToken(t)

	ctx := context.Background()
	require.NoError(t, ta.mock.SaveMessage(ctx, &store.Message{
		ID: "m1", From: "alice", To: "bob", Text: "hi", Timestamp: time.Now().UTC(),
	}))

	resp, _ := ta.do(t, http.MethodDelete, "/admin/users/"+aliceID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, err := ta.mock.GetUserByID(ctx, aliceID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, 0, ta.mock.MessageCount(), "user deletion must cascade to messages")
}

func TestAdminDeleteUser_RefusesAdmins(t *testing.T) {
	ta := newTestAPI(t)
	token := ta.adminToken(t)

	resp, body := ta.do(t, http.MethodDelete, "/admin/users/admin-1", token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "cannot delete admin user", body["message"])
}

func TestAdminDeleteUser_NotFound(t *testing.T) {
	ta := newTestAPI(t)
	token := ta.adminToken(t)

	resp, _ := ta.do(t, http.MethodDelete, "/admin/users/ghost", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminUserMessages(t *testing.T) {
	ta := newTestAPI(t)
	_, aliceID := ta.register(t, "alice")
	token := ta.adminToken(t)

	ctx := context.Background()
	require.NoError(t, ta.mock.SaveMessage(ctx, &store.Message{
		ID: "m1", From: "alice", To: "bob", Text: "hi", Timestamp: time.Now().UTC(),
	}))

	resp, body := ta.do(t, http.MethodGet, "/admin/messages/"+aliceID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, messages, 1)
}

func TestAdminOnline(t *testing.T) {
	ta := newTestAPI(t)
	ta.presence.online = []string{"alice", "bob"}
	token := ta.adminToken(t)

	resp, body := ta.do(t, http.MethodGet, "/admin/online", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{"alice", "bob"}, body["online"])
}

func TestHealth(t *testing.T) {
	ta := newTestAPI(t)

	resp, body := ta.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}
