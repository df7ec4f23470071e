package handler

import (
	"net/http"

	"github.com/concesionario/backoffice-api/internal/domain"
	"github.com/concesionario/backoffice-api/internal/service"
	"go.uber.org/zap"
)

// UserHandler serves the administrator user management endpoints
type UserHandler struct {
	userService *service.UserService
	logger      *zap.Logger
}

func NewUserHandler(userService *service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// List godoc
// @Summary List users
// @Tags Users
// @Produce json
// @Param search query string false "Username or email contains"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(25)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.UserDTO}
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /users [get]
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	result, err := h.userService.List(r.Context(), actor, r.URL.Query().Get("search"), pageFromQuery(r))
	if err != nil {
		handleServiceError(w, h.logger, err, "list users")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Create godoc
// @Summary Create a user
// @Tags Users
// @Accept json
// @Produce json
// @Param request body domain.CreateUserRequest true "User data"
// @Success 201 {object} domain.UserDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /users [post]
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req domain.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.userService.Create(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create user")
		return
	}
	w.Header().Set("Location", "/api/v1/users/"+user.ID.String())
	respondJSON(w, http.StatusCreated, user)
}

// Get godoc
// @Summary Get a user
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} domain.UserDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /users/{id} [get]
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	user, err := h.userService.Get(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get user")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// Update godoc
// @Summary Update a user profile
// @Description Edits profile fields; the role may change under the same rules as the role endpoint
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body domain.UpdateProfileRequest true "Profile data"
// @Success 200 {object} domain.UserDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /users/{id} [put]
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}
	var req domain.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), actor, id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "update user")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// Delete godoc
// @Summary Delete a user
// @Description Owned clients, leads and events become unassigned; audit entries keep their text
// @Tags Users
// @Param id path string true "User ID"
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	if err := h.userService.Delete(r.Context(), actor, id); err != nil {
		handleServiceError(w, h.logger, err, "delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetRole godoc
// @Summary Change a user's role
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body domain.SetRoleRequest true "New role"
// @Success 200 {object} domain.UserDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /users/{id}/role [put]
func (h *UserHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}
	var req domain.SetRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.userService.SetRole(r.Context(), actor, id, req.Role)
	if err != nil {
		handleServiceError(w, h.logger, err, "set role")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// ToggleStaff godoc
// @Summary Toggle a user's staff flag
// @Description Granting staff makes the user an admin; revoking it restores the default role
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} domain.UserDTO
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /users/{id}/toggle-staff [post]
func (h *UserHandler) ToggleStaff(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	user, err := h.userService.ToggleStaff(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, h.logger, err, "toggle staff")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// ResetPassword godoc
// @Summary Reset a user's password
// @Tags Users
// @Accept json
// @Param id path string true "User ID"
// @Param request body domain.ResetPasswordRequest true "New password"
// @Success 204
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /users/{id}/password [post]
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}
	var req domain.ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.userService.ResetPassword(r.Context(), actor, id, &req); err != nil {
		handleServiceError(w, h.logger, err, "reset password")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
