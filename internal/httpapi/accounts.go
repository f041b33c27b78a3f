// ABOUTME: Account endpoints: registration, login, and token validation
// ABOUTME: Passwords are bcrypt hashed; logins mint HS256 bearer tokens

package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/chatsapp/relay/internal/auth"
	"github.com/chatsapp/relay/internal/store"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "all fields are required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		a.logger.Error("password hashing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "server error during registration")
		return
	}

	user := &store.User{
		ID:           uuid.New().String(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := a.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicateUser) {
			writeError(w, http.StatusBadRequest, "username or email already exists")
			return
		}
		a.logger.Error("user creation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "server error during registration")
		return
	}

	a.logger.Info("user registered", "user", req.Username)
	writeJSON(w, http.StatusCreated, map[string]string{
		"message":  "user registered successfully",
		"username": req.Username,
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password required")
		return
	}

	user, err := a.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "invalid credentials")
			return
		}
		a.logger.Error("login lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "server error during login")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusBadRequest, "invalid credentials")
		return
	}

	token, err := a.verifier.Generate(&auth.Claims{
		UserID:   user.ID,
		Username: user.Username,
		Admin:    user.Admin,
	}, a.tokenTTL)
	if err != nil {
		a.logger.Error("token generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "server error during login")
		return
	}

	a.logger.Info("user logged in", "user", user.Username)
	writeJSON(w, http.StatusOK, map[string]any{
		"token":    token,
		"username": user.Username,
		"userId":   user.ID,
		"isAdmin":  user.Admin,
	})
}

func (a *API) handleValidateToken(w http.ResponseWriter, r *http.Request) {
	claims := auth.MustFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"valid":    true,
		"username": claims.Username,
	})
}
