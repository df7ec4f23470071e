package handler

import (
	"net/http"

	"github.com/concesionario/backoffice-api/internal/domain"
	"github.com/concesionario/backoffice-api/internal/repository"
	"github.com/concesionario/backoffice-api/internal/service"
	"go.uber.org/zap"
)

type ClientHandler struct {
	clientService *service.ClientService
	logger        *zap.Logger
}

func NewClientHandler(clientService *service.ClientService, logger *zap.Logger) *ClientHandler {
	return &ClientHandler{
		clientService: clientService,
		logger:        logger,
	}
}

// List godoc
// @Summary List clients
// @Description Clients visible to the caller. Limited roles only see their own clients.
// @Tags Clients
// @Produce json
// @Param search query string false "Company, last name, first name or CUIT contains"
// @Param sortBy query string false "Sort field" Enums(lastName, companyName, cuit, createdAt, updatedAt)
// @Param sortOrder query string false "Sort order" Enums(asc, desc) default(desc)
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(25)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.ClientDTO}
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Router /clients [get]
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := repository.ClientFilter{
		Search: q.Get("search"),
		Sort: repository.SortConfig{
			Field: q.Get("sortBy"),
			Order: repository.ParseSortOrder(q.Get("sortOrder")),
		},
	}

	result, err := h.clientService.List(r.Context(), actor, filter, pageFromQuery(r))
	if err != nil {
		handleServiceError(w, h.logger, err, "list clients")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Create godoc
// @Summary Create a client
// @Description Validates every field, including the CUIT check digit, before anything is stored
// @Tags Clients
// @Accept json
// @Produce json
// @Param request body domain.ClientRequest true "Client data"
// @Success 201 {object} domain.ClientDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /clients [post]
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req domain.ClientRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	client, err := h.clientService.Create(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create client")
		return
	}
	w.Header().Set("Location", "/api/v1/clients/"+client.ID.String())
	respondJSON(w, http.StatusCreated, client)
}

// Get godoc
// @Summary Get a client
// @Tags Clients
// @Produce json
// @Param id path string true "Client ID"
// @Success 200 {object} domain.ClientDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /clients/{id} [get]
func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	client, err := h.clientService.Get(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get client")
		return
	}
	respondJSON(w, http.StatusOK, client)
}

// Update godoc
// @Summary Update a client
// @Description Replaces the client. An empty coHolder object removes the co-holder.
// @Tags Clients
// @Accept json
// @Produce json
// @Param id path string true "Client ID"
// @Param request body domain.ClientRequest true "Client data"
// @Success 200 {object} domain.ClientDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /clients/{id} [put]
func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}
	var req domain.ClientRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	client, err := h.clientService.Update(r.Context(), actor, id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "update client")
		return
	}
	respondJSON(w, http.StatusOK, client)
}

// Delete godoc
// @Summary Delete a client
// @Tags Clients
// @Param id path string true "Client ID"
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /clients/{id} [delete]
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	if err := h.clientService.Delete(r.Context(), actor, id); err != nil {
		handleServiceError(w, h.logger, err, "delete client")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AssignOwner godoc
// @Summary Reassign a client
// @Description Sets the responsible user; a null ownerId leaves the client unassigned
// @Tags Clients
// @Accept json
// @Produce json
// @Param id path string true "Client ID"
// @Param request body domain.AssignOwnerRequest true "New owner"
// @Success 200 {object} domain.ClientDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /clients/{id}/owner [put]
func (h *ClientHandler) AssignOwner(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}
	var req domain.AssignOwnerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	client, err := h.clientService.AssignOwner(r.Context(), actor, id, req.OwnerID)
	if err != nil {
		handleServiceError(w, h.logger, err, "assign client owner")
		return
	}
	respondJSON(w, http.StatusOK, client)
}

// ListNotes godoc
// @Summary List client notes
// @Tags Clients
// @Produce json
// @Param id path string true "Client ID"
// @Success 200 {array} domain.NoteDTO
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /clients/{id}/notes [get]
func (h *ClientHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	notes, err := h.clientService.ListNotes(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, h.logger, err, "list client notes")
		return
	}
	respondJSON(w, http.StatusOK, notes)
}

// AddNote godoc
// @Summary Add a client note
// @Tags Clients
// @Accept json
// @Produce json
// @Param id path string true "Client ID"
// @Param request body domain.CreateNoteRequest true "Note"
// @Success 201 {object} domain.NoteDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /clients/{id}/notes [post]
func (h *ClientHandler) AddNote(w http.ResponseWriter, r *http.Request) {
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

	note, err := h.clientService.AddNote(r.Context(), actor, id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "add client note")
		return
	}
	respondJSON(w, http.StatusCreated, note)
}
