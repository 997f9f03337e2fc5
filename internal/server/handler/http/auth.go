package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atarasenko/userd/internal/service"
)

// AuthHandler handles HTTP requests for credential-based login.
type AuthHandler struct {
	// Service performs the underlying account operations.
	Service AccountService
}

// LoginRequest represents the JSON payload for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login requests. It verifies the password
// against the stored digest and responds with an access token bound to the
// account's id. Unknown usernames and wrong passwords get the same answer.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Missing information. Try again!")
		return
	}

	_, token, err := h.Service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Incorrect username or password")
			return
		}
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"message":     "Logged in successfully",
		"accessToken": token,
	})
}
