// Package http provides the JSON HTTP API of the Scrollie service.
package http

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/scrollie/internal/middleware"
	"github.com/atinyakov/scrollie/internal/models"
	"github.com/atinyakov/scrollie/internal/service"
)

// AuthService defines the account operations required by AuthHandler.
type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	Logout(ctx context.Context) error
	Current(ctx context.Context) (*models.User, error)
}

// PlanService defines the subscription operations required by AuthHandler.
type PlanService interface {
	ChangePlan(ctx context.Context, plan models.Plan) (*models.User, error)
}

// AuthHandler handles registration, login and the current user's profile.
type AuthHandler struct {
	// AuthService performs the underlying account operations.
	AuthService AuthService
	// PlanService switches subscription tiers.
	PlanService PlanService
	Logger      *zap.Logger
}

// LoginRequest represents the JSON payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PlanRequest represents the JSON payload for a plan change.
type PlanRequest struct {
	Plan models.Plan `json:"plan"`
}

// Register creates an account. It responds 201 with the new user; the client
// still has to log in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	u, err := h.AuthService.Register(r.Context(), req)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// Login checks the credentials and makes the account the active user.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	u, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// Logout clears the active user.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.AuthService.Logout(r.Context()); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the active user with its plan, usage and limits.
// It serves GET /api/me and reuses the user loaded by RequireUser.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	if u, ok := middleware.UserFromContext(r.Context()); ok {
		writeJSON(w, http.StatusOK, u)
		return
	}
	u, err := h.AuthService.Current(r.Context())
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// ChangePlan switches the active user to another plan.
func (h *AuthHandler) ChangePlan(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	u, err := h.PlanService.ChangePlan(r.Context(), req.Plan)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
