// ABOUTME: HTTP API surface: account issuance, contacts, history, and admin
// ABOUTME: Wires routes, auth middleware, and shared JSON response helpers

package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/chatsapp/relay/internal/auth"
	"github.com/chatsapp/relay/internal/store"
)

// PresenceSnapshot is the read-only view of the registry the admin
// surface needs.
type PresenceSnapshot interface {
	Online() []string
}

// API serves the collaborator HTTP endpoints around the chat relay:
// registration and login, contact management, conversation history, and
// the admin surface.
type API struct {
	store    store.Store
	verifier *auth.JWTVerifier
	presence PresenceSnapshot
	tokenTTL time.Duration
	logger   *slog.Logger
}

// New creates the API. Pass nil logger for default.
func New(st store.Store, verifier *auth.JWTVerifier, presence PresenceSnapshot, tokenTTL time.Duration, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		store:    st,
		verifier: verifier,
		presence: presence,
		tokenTTL: tokenTTL,
		logger:   logger.With("component", "httpapi"),
	}
}

// Routes builds the full route table. The websocket handler is mounted
// alongside the REST endpoints so one server carries both surfaces.
func (a *API) Routes(ws http.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	authed := auth.Middleware(a.verifier)
	admin := auth.RequireAdmin()

	mux.HandleFunc("POST /register", a.handleRegister)
	mux.HandleFunc("POST /login", a.handleLogin)
	mux.Handle("GET /validate-token", authed(http.HandlerFunc(a.handleValidateToken)))

	mux.Handle("GET /contacts", authed(http.HandlerFunc(a.handleListContacts)))
	mux.Handle("POST /add-contact", authed(http.HandlerFunc(a.handleAddContact)))
	mux.Handle("DELETE /contacts/{username}", authed(http.HandlerFunc(a.handleRemoveContact)))

	mux.Handle("GET /messages/{contact}", authed(http.HandlerFunc(a.handleConversation)))

	mux.Handle("GET /admin/users", authed(admin(http.HandlerFunc(a.handleAdminListUsers))))
	mux.Handle("DELETE /admin/users/{id}", authed(admin(http.HandlerFunc(a.handleAdminDeleteUser))))
	mux.Handle("GET /admin/messages/{id}", authed(admin(http.HandlerFunc(a.handleAdminUserMessages))))
	mux.Handle("GET /admin/online", authed(admin(http.HandlerFunc(a.handleAdminOnline))))

	mux.HandleFunc("GET /health", a.handleHealth)

	if ws != nil {
		mux.Handle("GET /ws", ws)
	}

	return mux
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError sends the {"message": ...} error shape used across the API.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
