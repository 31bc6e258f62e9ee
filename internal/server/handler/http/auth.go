// Package http provides the REST handlers and router of the
// document-sharing API.
package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/atinyakov/unidocs/internal/apperr"
	"github.com/atinyakov/unidocs/internal/middleware"
	"github.com/atinyakov/unidocs/internal/models"
	"github.com/atinyakov/unidocs/internal/server/response"
)

// AuthService defines the interface for authentication operations
// required by the HTTP handlers.
type AuthService interface {
	// Register creates an account and returns a token for it.
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	// Login exchanges credentials for a token.
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	// Me returns the user behind an authenticated request.
	Me(ctx context.Context, userID int64) (*models.User, error)
}

// AuthHandler handles HTTP requests for registration, login and identity.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Wrap(err, apperr.ErrValidation, "invalid request")
	}
	return nil
}

// Register handles POST /api/auth/register and answers 201 with
// {token, user}.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	resp, err := h.AuthService.Register(r.Context(), req)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, resp)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	resp, err := h.AuthService.Login(r.Context(), req)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, resp)
}

// Me handles GET /api/auth/me. It must run behind BearerAuth.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		response.Error(w, apperr.ErrUnauthorized)
		return
	}
	user, err := h.AuthService.Me(r.Context(), claims.UserID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, user)
}
