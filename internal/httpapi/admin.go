// ABOUTME: Admin endpoints: user listing, deletion with cascade, and audit views
// ABOUTME: All routes sit behind the RequireAdmin middleware

package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/chatsapp/relay/internal/store"
)

// userView is the admin-facing user shape; the password hash never
// leaves the store layer.
type userView struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
}

func (a *API) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.store.ListUsers(r.Context())
	if err != nil {
		a.logger.Error("user listing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, userView{
			ID:        u.ID,
			Username:  u.Username,
			Email:     u.Email,
			IsAdmin:   u.Admin,
			CreatedAt: u.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"users": views})
}

func (a *API) handleAdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	user, err := a.store.GetUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		a.logger.Error("user lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	if user.Admin {
		writeError(w, http.StatusForbidden, "cannot delete admin user")
		return
	}

	// Removes the account and every message the user sent or received.
	if err := a.store.DeleteUser(r.Context(), id); err != nil {
		a.logger.Error("user deletion failed", "user_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	a.logger.Info("user deleted", "user", user.Username, "user_id", id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "user deleted successfully"})
}

func (a *API) handleAdminUserMessages(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	user, err := a.store.GetUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		a.logger.Error("user lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	messages, err := a.store.ListMessagesForUser(r.Context(), user.Username)
	if err != nil {
		a.logger.Error("message listing failed", "user", user.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if messages == nil {
		messages = []*store.Message{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (a *API) handleAdminOnline(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"online": a.presence.Online()})
}
