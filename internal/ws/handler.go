// ABOUTME: HTTP handler upgrading authenticated requests to websocket sessions
// ABOUTME: Verifies the token before any upgrade or state change happens

package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/chatsapp/relay/internal/auth"
	"github.com/chatsapp/relay/internal/relay"
)

// Options carries the connection tuning knobs from config.
type Options struct {
	MaxMessageSize int64
	WriteTimeout   time.Duration
	PongTimeout    time.Duration
}

// Handler upgrades GET requests on the chat endpoint into websocket
// sessions. A request that fails token verification is rejected with 401
// before the upgrade, so unauthenticated clients never touch the relay.
type Handler struct {
	verifier auth.TokenVerifier
	relay    *relay.Relay
	opts     Options
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a websocket Handler. Pass nil logger for default.
func NewHandler(verifier auth.TokenVerifier, r *relay.Relay, opts Options, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		verifier: verifier,
		relay:    r,
		opts:     opts,
		logger:   logger.With("component", "ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	token := h.extractToken(r)
	if token == "" {
		writeAuthError(w, "missing authentication token")
		return
	}

	claims, err := h.verifier.Verify(token)
	if err != nil {
		h.logger.Warn("websocket auth rejected", "remote", r.RemoteAddr, "error", err)
		writeAuthError(w, "invalid or expired token")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	h.logger.Info("websocket connected", "user", claims.Username, "remote", r.RemoteAddr)

	client := newClient(conn, claims, h.relay, h.opts, h.logger)
	go client.writePump()
	client.readPump(r.Context())
}

// extractToken takes the bearer token from the Authorization header, or
// from the token query parameter for browser clients that cannot set
// headers on a websocket dial.
func (h *Handler) extractToken(r *http.Request) string {
	if token, errMsg := auth.ExtractBearerToken(r.Header.Get("Authorization")); errMsg == "" {
		return token
	}
	return r.URL.Query().Get("token")
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
