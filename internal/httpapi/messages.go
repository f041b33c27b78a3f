// ABOUTME: Conversation history endpoint for the authenticated user
// ABOUTME: Returns both directions of a pair, ascending by timestamp

package httpapi

import (
	"net/http"

	"github.com/chatsapp/relay/internal/auth"
	"github.com/chatsapp/relay/internal/store"
)

func (a *API) handleConversation(w http.ResponseWriter, r *http.Request) {
	claims := auth.MustFromContext(r.Context())
	contact := r.PathValue("contact")

	messages, err := a.store.ListConversation(r.Context(), claims.Username, contact)
	if err != nil {
		a.logger.Error("conversation fetch failed",
			"user", claims.Username,
			"contact", contact,
			"error", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if messages == nil {
		messages = []*store.Message{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}
