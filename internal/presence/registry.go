// ABOUTME: Process-wide registry mapping online usernames to live sessions
// ABOUTME: Last registration wins; unregistration requires an exact session match

package presence

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/chatsapp/relay/internal/relay"
)

// Registry tracks which session, if any, currently serves each username.
// At most one session per username: a new registration displaces the old
// one rather than fanning out to multiple devices.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]relay.Session
	logger   *slog.Logger
}

// NewRegistry creates a Registry. Pass nil logger for default.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		sessions: make(map[string]relay.Session),
		logger:   logger.With("component", "presence"),
	}
}

// Register binds a username to a session, displacing any prior binding.
func (r *Registry) Register(username string, sess relay.Session) {
	r.mu.Lock()
	prev, displaced := r.sessions[username]
	r.sessions[username] = sess
	total := len(r.sessions)
	r.mu.Unlock()

	if displaced && prev != sess {
		r.logger.Info("session displaced", "user", username, "online", total)
	} else {
		r.logger.Info("user online", "user", username, "online", total)
	}
}

// Lookup returns the session currently serving a username. Never blocks.
func (r *Registry) Lookup(username string) (relay.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[username]
	return sess, ok
}

// Unregister removes the binding only if the stored session is the one
// given. A displaced connection disconnecting late is a no-op and cannot
// evict the session that replaced it.
func (r *Registry) Unregister(username string, sess relay.Session) {
	r.mu.Lock()
	current, ok := r.sessions[username]
	if ok && current == sess {
		delete(r.sessions, username)
		total := len(r.sessions)
		r.mu.Unlock()
		r.logger.Info("user offline", "user", username, "online", total)
		return
	}
	r.mu.Unlock()
}

// Online returns the currently reachable usernames, sorted.
func (r *Registry) Online() []string {
	r.mu.RLock()
	users := make([]string, 0, len(r.sessions))
	for username := range r.sessions {
		users = append(users, username)
	}
	r.mu.RUnlock()

	sort.Strings(users)
	return users
}

var _ relay.Presence = (*Registry)(nil)
