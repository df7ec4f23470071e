package handler

import (
	"net/http"

	"github.com/concesionario/backoffice-api/internal/domain"
	"github.com/concesionario/backoffice-api/internal/service"
	"go.uber.org/zap"
)

// ProfileHandler serves the authenticated user's own profile and theme
type ProfileHandler struct {
	userService  *service.UserService
	themeService *service.ThemeService
	logger       *zap.Logger
}

func NewProfileHandler(userService *service.UserService, themeService *service.ThemeService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		userService:  userService,
		themeService: themeService,
		logger:       logger,
	}
}

// Get godoc
// @Summary Get own profile
// @Tags Profile
// @Produce json
// @Success 200 {object} domain.UserDTO
// @Security BearerAuth
// @Router /me/profile [get]
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	user, err := h.userService.Get(r.Context(), actor, actor.UserID)
	if err != nil {
		handleServiceError(w, h.logger, err, "get profile")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// Update godoc
// @Summary Update own profile
// @Description The role cannot be changed through this endpoint
// @Tags Profile
// @Accept json
// @Produce json
// @Param request body domain.UpdateProfileRequest true "Profile data"
// @Success 200 {object} domain.UserDTO
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /me/profile [put]
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req domain.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), actor, actor.UserID, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "update profile")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// GetTheme godoc
// @Summary Get own UI theme
// @Tags Profile
// @Produce json
// @Success 200 {object} domain.ThemeDTO
// @Security BearerAuth
// @Router /me/theme [get]
func (h *ProfileHandler) GetTheme(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	theme, err := h.themeService.Get(r.Context(), actor)
	if err != nil {
		handleServiceError(w, h.logger, err, "get theme")
		return
	}
	respondJSON(w, http.StatusOK, theme)
}

// ToggleTheme godoc
// @Summary Switch between light and dark theme
// @Tags Profile
// @Produce json
// @Success 200 {object} domain.ThemeDTO
// @Security BearerAuth
// @Router /me/theme/toggle [post]
func (h *ProfileHandler) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	theme, err := h.themeService.Toggle(r.Context(), actor)
	if err != nil {
		handleServiceError(w, h.logger, err, "toggle theme")
		return
	}
	respondJSON(w, http.StatusOK, theme)
}

