package handler

import (
	"net/http"
	"time"

	"github.com/concesionario/backoffice-api/internal/domain"
	"github.com/concesionario/backoffice-api/internal/service"
	"go.uber.org/zap"
)

// EventHandler serves the calendar
type EventHandler struct {
	eventService *service.EventService
	logger       *zap.Logger
}

func NewEventHandler(eventService *service.EventService, logger *zap.Logger) *EventHandler {
	return &EventHandler{
		eventService: eventService,
		logger:       logger,
	}
}

// parseTimeQuery accepts RFC3339 timestamps or YYYY-MM-DD dates (UTC midnight).
// A missing parameter yields the zero time.
func parseTimeQuery(r *http.Request, key string) (time.Time, bool) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return time.Time{}, true
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse("2006-01-02", val); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// List godoc
// @Summary List calendar events
// @Description Events visible to the caller starting in [from, to), earliest first
// @Tags Events
// @Produce json
// @Param from query string false "Start bound (RFC3339 or YYYY-MM-DD)"
// @Param to query string false "Exclusive end bound (RFC3339 or YYYY-MM-DD)"
// @Success 200 {array} domain.EventDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /events [get]
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	from, ok := parseTimeQuery(r, "from")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid 'from' parameter")
		return
	}
	to, ok := parseTimeQuery(r, "to")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid 'to' parameter")
		return
	}

	events, err := h.eventService.List(r.Context(), actor, from, to)
	if err != nil {
		handleServiceError(w, h.logger, err, "list events")
		return
	}
	respondJSON(w, http.StatusOK, events)
}

// Create godoc
// @Summary Schedule an event
// @Description The event must reference exactly one client or lead visible to the caller
// @Tags Events
// @Accept json
// @Produce json
// @Param request body domain.EventRequest true "Event data"
// @Success 201 {object} domain.EventDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /events [post]
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req domain.EventRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	event, err := h.eventService.Create(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create event")
		return
	}
	respondJSON(w, http.StatusCreated, event)
}

// Update godoc
// @Summary Update an event
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param request body domain.EventRequest true "Event data"
// @Success 200 {object} domain.EventDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /events/{id} [put]
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}
	var req domain.EventRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	event, err := h.eventService.Update(r.Context(), actor, id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "update event")
		return
	}
	respondJSON(w, http.StatusOK, event)
}

// Delete godoc
// @Summary Delete an event
// @Tags Events
// @Param id path string true "Event ID"
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /events/{id} [delete]
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	if err := h.eventService.Delete(r.Context(), actor, id); err != nil {
		handleServiceError(w, h.logger, err, "delete event")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
