// ABOUTME: Tests for the websocket handler and client pumps.
// ABOUTME: Covers handshake auth, event round-trips, and malformed frames.

package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatsapp/relay/internal/auth"
	"github.com/chatsapp/relay/internal/presence"
	"github.com/chatsapp/relay/internal/relay"
	"github.com/chatsapp/relay/internal/store"
)

var testSecret = []byte("websocket-test-secret-32-bytes!!")

type testServer struct {
	server   *httptest.Server
	verifier *auth.JWTVerifier
	mock     *store.MockStore
	registry *presence.Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	verifier, err := auth.NewJWTVerifier(testSecret)
	require.NoError(t, err)

	mock := store.NewMockStore()
	registry := presence.NewRegistry(nil)
	engine := relay.New(mock, registry, nil)

	opts := Options{
		MaxMessageSize: 64 * 1024,
		WriteTimeout:   5 * time.Second,
		PongTimeout:    30 * time.Second,
	}
	handler := NewHandler(verifier, engine, opts, nil)
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return &testServer{server: server, verifier: verifier, mock: mock, registry: registry}
}

func (ts *testServer) wsURL() string {
	return "ws" + strings.TrimPrefix(ts.server.URL, "http")
}

func (ts *testServer) token(t *testing.T, username string) string {
	t.Helper()
	token, err := ts.verifier.Generate(&auth.Claims{
		UserID:   "id-" + username,
		Username: username,
	}, time.Hour)
	require.NoError(t, err)
	return token
}

// dial connects an authenticated client and registers its presence.
func (ts *testServer) dial(t *testing.T, username string) *websocket.Conn {
	t.Helper()

	header := http.Header{"Authorization": []string{"Bearer " + ts.token(t, username)}}
	conn, resp, err := websocket.DefaultDialer.Dial(ts.wsURL(), header)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, conn.WriteJSON(map[string]any{"event": "register-user"}))

	// Wait for the registration to land before the test proceeds.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := ts.registry.Lookup(username); ok {
			return conn
		}
		if time.Now().After(deadline) {
			t.Fatalf("user %s never appeared in the registry", username)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) (string, json.RawMessage) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&env))
	return env.Event, env.Data
}

func TestHandler_RejectsMissingToken(t *testing.T) {
	ts := newTestServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(ts.wsURL(), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandler_RejectsInvalidToken(t *testing.T) {
	ts := newTestServer(t)

	header := http.Header{"Authorization": []string{"Bearer not-a-token"}}
	_, resp, err := websocket.DefaultDialer.Dial(ts.wsURL(), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandler_AcceptsQueryParamToken(t *testing.T) {
	ts := newTestServer(t)

	url := ts.wsURL() + "?token=" + ts.token(t, "alice")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	conn.Close()
}

func TestSendMessageRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.dial(t, "alice")
	bob := ts.dial(t, "bob")

	require.NoError(t, alice.WriteJSON(map[string]any{
		"event": "send-message",
		"data":  map[string]any{"to": "bob", "text": "hello bob"},
	}))

	// Sender echo
	name, data := readEvent(t, alice)
	assert.Equal(t, "message-received", name)
	var echoed store.Message
	require.NoError(t, json.Unmarshal(data, &echoed))
	assert.Equal(t, "alice", echoed.From)
	assert.Equal(t, "hello bob", echoed.Text)
	assert.NotEmpty(t, echoed.ID)

	// Recipient delivery
	name, data = readEvent(t, bob)
	assert.Equal(t, "message-received", name)
	var received store.Message
	require.NoError(t, json.Unmarshal(data, &received))
	assert.Equal(t, echoed.ID, received.ID)

	assert.Equal(t, 1, ts.mock.MessageCount())
}

func TestMalformedEnvelopeProducesErrorEvent(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.dial(t, "alice")

	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte("not json")))

	name, data := readEvent(t, alice)
	assert.Equal(t, "error", name)
	var payload struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Equal(t, "malformed event envelope", payload.Message)
}

func TestUnknownEventProducesErrorEvent(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.dial(t, "alice")

	require.NoError(t, alice.WriteJSON(map[string]any{"event": "self-destruct"}))

	name, data := readEvent(t, alice)
	assert.Equal(t, "error", name)
	var payload struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Contains(t, payload.Message, "unknown event")
}

func TestDisconnectRemovesPresence(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.dial(t, "alice")

	require.NoError(t, alice.Close())

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := ts.registry.Lookup("alice"); !ok {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("alice still registered after disconnect")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestTypingForwardedToRecipientOnly(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.dial(t, "alice")
	bob := ts.dial(t, "bob")

	require.NoError(t, alice.WriteJSON(map[string]any{
		"event": "typing",
		"data":  map[string]any{"to": "bob"},
	}))

	name, data := readEvent(t, bob)
	assert.Equal(t, "typing", name)
	var payload struct {
		From string `json:"from"`
	}
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Equal(t, "alice", payload.From)

	// The sender must not receive a typing echo.
	require.NoError(t, alice.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	var env map[string]any
	err := alice.ReadJSON(&env)
	assert.Error(t, err, "expected read timeout, got event %v", env)
}
