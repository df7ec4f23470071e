package handler

import (
	"net/http"

	"github.com/concesionario/backoffice-api/internal/domain"
	"github.com/concesionario/backoffice-api/internal/service"
	"go.uber.org/zap"
)

type LeadHandler struct {
	leadService *service.LeadService
	logger      *zap.Logger
}

func NewLeadHandler(leadService *service.LeadService, logger *zap.Logger) *LeadHandler {
	return &LeadHandler{
		leadService: leadService,
		logger:      logger,
	}
}

// List godoc
// @Summary List leads
// @Tags Leads
// @Produce json
// @Param search query string false "Name, email or phone contains"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(25)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.LeadDTO}
// @Security BearerAuth
// @Router /leads [get]
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	result, err := h.leadService.List(r.Context(), actor, r.URL.Query().Get("search"), pageFromQuery(r))
	if err != nil {
		handleServiceError(w, h.logger, err, "list leads")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Create godoc
// @Summary Create a lead
// @Tags Leads
// @Accept json
// @Produce json
// @Param request body domain.LeadRequest true "Lead data"
// @Success 201 {object} domain.LeadDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /leads [post]
func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req domain.LeadRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	lead, err := h.leadService.Create(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create lead")
		return
	}
	respondJSON(w, http.StatusCreated, lead)
}

// Get godoc
// @Summary Get a lead
// @Tags Leads
// @Produce json
// @Param id path string true "Lead ID"
// @Success 200 {object} domain.LeadDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /leads/{id} [get]
func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	lead, err := h.leadService.Get(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get lead")
		return
	}
	respondJSON(w, http.StatusOK, lead)
}

// Delete godoc
// @Summary Delete a lead
// @Description Removes the lead with its events and notes
// @Tags Leads
// @Param id path string true "Lead ID"
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /leads/{id} [delete]
func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	if err := h.leadService.Delete(r.Context(), actor, id); err != nil {
		handleServiceError(w, h.logger, err, "delete lead")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListNotes godoc
// @Summary List lead notes
// @Tags Leads
// @Produce json
// @Param id path string true "Lead ID"
// @Success 200 {array} domain.NoteDTO
// @Security BearerAuth
// @Router /leads/{id}/notes [get]
func (h *LeadHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	notes, err := h.leadService.ListNotes(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, h.logger, err, "list lead notes")
		return
	}
	respondJSON(w, http.StatusOK, notes)
}

// AddNote godoc
// @Summary Add a lead note
// @Tags Leads
// @Accept json
// @Produce json
// @Param id path string true "Lead ID"
// @Param request body domain.CreateNoteRequest true "Note"
// @Success 201 {object} domain.NoteDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /leads/{id}/notes [post]
func (h *LeadHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}
	var req domain.CreateNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	note, err := h.leadService.AddNote(r.Context(), actor, id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "add lead note")
		return
	}
	respondJSON(w, http.StatusCreated, note)
}

// ScheduleInterview godoc
// @Summary Schedule an interview with a lead
// @Description Creates an interview event attached to the lead; clientId, leadId and kind in the body are ignored
// @Tags Leads
// @Accept json
// @Produce json
// @Param id path string true "Lead ID"
// @Param request body domain.EventRequest true "Interview data"
// @Success 201 {object} domain.EventDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /leads/{id}/interview [post]
func (h *LeadHandler) ScheduleInterview(w http.ResponseWriter, r *http.Request) {
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

	event, err := h.leadService.ScheduleInterview(r.Context(), actor, id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "schedule interview")
		return
	}
	respondJSON(w, http.StatusCreated, event)
}
