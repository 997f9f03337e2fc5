// Package http provides the HTTP handlers for the user account API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/atarasenko/userd/internal/middleware"
	"github.com/atarasenko/userd/internal/models"
	"github.com/atarasenko/userd/internal/service"
)

// AccountService defines the interface for account operations required by the HTTP handlers.
type AccountService interface {
	// Create validates and persists a new account, returning it with a fresh token.
	Create(ctx context.Context, req service.CreateRequest) (*models.User, string, error)
	// List returns stored accounts; limit <= 0 means unbounded.
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	// Update applies a partial update to the account with the given id.
	Update(ctx context.Context, id string, req service.UpdateRequest) (*models.User, error)
	// Delete removes the account with the given id and returns it.
	Delete(ctx context.Context, id string) (*models.User, error)
	// Login verifies credentials and returns the account with a fresh token.
	Login(ctx context.Context, username, password string) (*models.User, string, error)
}

// UserHandler handles HTTP requests for user account CRUD.
type UserHandler struct {
	// Service performs the underlying account operations.
	Service AccountService
	// DefaultLimit caps listings when the caller supplies no limit; 0 means unbounded.
	DefaultLimit int
}

// CreateUserRequest represents the JSON payload for account creation.
type CreateUserRequest struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	RecoveryMail string `json:"recovery_mail"`
	ActiveDay    string `json:"active_day"`
}

// UpdateUserRequest represents the JSON payload for a partial account update.
// Absent fields keep their stored values.
type UpdateUserRequest struct {
	Type         *string `json:"type"`
	Username     *string `json:"username"`
	Password     *string `json:"password"`
	RecoveryMail *string `json:"recovery_mail"`
	ActiveDay    *string `json:"active_day"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}

// List handles GET /api/user requests. Optional limit and offset query
// parameters bound the listing; without a limit the configured default applies.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	// Non-positive caller limits fall back to the configured cap so a
	// crafted ?limit=0 cannot bypass it.
	limit := h.DefaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			offset = n
		}
	}

	users, err := h.Service.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if users == nil {
		users = []models.User{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "users": users})
}

// Create handles POST /api/user requests. On success it responds with the
// created record and an access token bound to its id.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Missing information. Try again!")
		return
	}

	user, token, err := h.Service.Create(r.Context(), service.CreateRequest{
		ID:           req.ID,
		Type:         req.Type,
		Username:     req.Username,
		Password:     req.Password,
		RecoveryMail: req.RecoveryMail,
		ActiveDay:    req.ActiveDay,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields):
			writeError(w, http.StatusBadRequest, "Missing information. Try again!")
		case errors.Is(err, service.ErrUsernameTaken):
			writeError(w, http.StatusConflict, "Username already taken")
		default:
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":     true,
		"message":     "User created successfully",
		"newUser":     user,
		"accessToken": token,
	})
}

// Update handles PUT /api/user/{id} requests. The bearer token's subject must
// match the target id; other identities get 401 regardless of payload.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if middleware.GetUserIDFromContext(r.Context()) != id {
		writeError(w, http.StatusUnauthorized, "Not allowed to modify another user")
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Missing information. Try again!")
		return
	}

	updated, err := h.Service.Update(r.Context(), id, service.UpdateRequest{
		Type:         req.Type,
		Username:     req.Username,
		Password:     req.Password,
		RecoveryMail: req.RecoveryMail,
		ActiveDay:    req.ActiveDay,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameTaken):
			writeError(w, http.StatusConflict, "New user name has been taken already. Please choose another one.")
		case errors.Is(err, service.ErrNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		default:
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"message":     "Excellent progress!",
		"UpdatedUser": updated,
	})
}

// Delete handles DELETE /api/user/{id} requests, subject to the same identity
// check as Update.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if middleware.GetUserIDFromContext(r.Context()) != id {
		writeError(w, http.StatusUnauthorized, "Not allowed to modify another user")
		return
	}

	deleted, err := h.Service.Delete(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		default:
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"DeletedUser": deleted,
	})
}
