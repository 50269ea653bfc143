package handlers

import (
	"net/http"

	"nfl-pickem/logging"
	"nfl-pickem/middleware"
	"nfl-pickem/services"
)

// UserHandler lets admins manage league accounts
type UserHandler struct {
	userService *services.UserService
	logger      *logging.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logging.WithPrefix("UserHandler"),
	}
}

// CreateUser handles POST /api/admin/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetUserFromContext(r)
	var cmd services.CreateUserCommand
	if err := decodeJSON(w, r, &cmd); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.userService.CreateUser(r.Context(), admin.ID, cmd)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// ListUsers handles GET /api/admin/users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListUsers(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}
