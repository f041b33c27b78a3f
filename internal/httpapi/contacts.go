// ABOUTME: Contact list endpoints for the authenticated user
// ABOUTME: Listing, adding by username, and removing an entry

package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/chatsapp/relay/internal/auth"
	"github.com/chatsapp/relay/internal/store"
)

type addContactRequest struct {
	ContactUsername string `json:"contactUsername"`
}

func (a *API) handleListContacts(w http.ResponseWriter, r *http.Request) {
	claims := auth.MustFromContext(r.Context())

	contacts, err := a.store.ListContacts(r.Context(), claims.UserID)
	if err != nil {
		a.logger.Error("contact listing failed", "user", claims.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if contacts == nil {
		contacts = []string{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"contacts": contacts})
}

func (a *API) handleAddContact(w http.ResponseWriter, r *http.Request) {
	claims := auth.MustFromContext(r.Context())

	var req addContactRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	contactUsername := strings.TrimSpace(req.ContactUsername)
	if contactUsername == "" {
		writeError(w, http.StatusBadRequest, "username is required")
		return
	}
	if contactUsername == claims.Username {
		writeError(w, http.StatusBadRequest, "cannot add yourself")
		return
	}

	contact, err := a.store.GetUserByUsername(r.Context(), contactUsername)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		a.logger.Error("contact lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	if err := a.store.AddContact(r.Context(), claims.UserID, contact.Username); err != nil {
		if errors.Is(err, store.ErrDuplicateContact) {
			writeError(w, http.StatusBadRequest, "contact already exists")
			return
		}
		a.logger.Error("contact insert failed", "error", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "contact added successfully",
		"contact": contact.Username,
	})
}

func (a *API) handleRemoveContact(w http.ResponseWriter, r *http.Request) {
	claims := auth.MustFromContext(r.Context())
	contactUsername := r.PathValue("username")

	if err := a.store.RemoveContact(r.Context(), claims.UserID, contactUsername); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "contact not found")
			return
		}
		a.logger.Error("contact removal failed", "error", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "contact deleted successfully"})
}
