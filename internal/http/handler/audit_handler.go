package handler

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/concesionario/backoffice-api/internal/domain"
	"github.com/concesionario/backoffice-api/internal/mapper"
	"github.com/concesionario/backoffice-api/internal/repository"
	"github.com/concesionario/backoffice-api/internal/service"
	"go.uber.org/zap"
)

// AuditHandler handles audit log related HTTP requests
type AuditHandler struct {
	auditService *service.AuditLogService
	logger       *zap.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(auditService *service.AuditLogService, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
		logger:       logger,
	}
}

// auditFilterFromQuery reads actor, action, date_from and date_to. Dates are
// YYYY-MM-DD and date_to includes the whole day.
func auditFilterFromQuery(w http.ResponseWriter, r *http.Request) (repository.AuditLogFilter, bool) {
	q := r.URL.Query()
	filter := repository.AuditLogFilter{
		ActorUsername: q.Get("actor"),
		Action:        q.Get("action"),
	}

	if v := q.Get("date_from"); v != "" {
		from, err := time.Parse("2006-01-02", v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid date_from, expected YYYY-MM-DD")
			return filter, false
		}
		filter.From = &from
	}
	if v := q.Get("date_to"); v != "" {
		to, err := time.Parse("2006-01-02", v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid date_to, expected YYYY-MM-DD")
			return filter, false
		}
		to = to.AddDate(0, 0, 1)
		filter.To = &to
	}
	return filter, true
}

// List godoc
// @Summary List audit log entries
// @Description Newest first, capped at the configured list limit
// @Tags Audit
// @Produce json
// @Param actor query string false "Actor username contains"
// @Param action query string false "Action id contains"
// @Param date_from query string false "First day (YYYY-MM-DD)"
// @Param date_to query string false "Last day, inclusive (YYYY-MM-DD)"
// @Success 200 {array} domain.AuditLogDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /audit [get]
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	filter, ok := auditFilterFromQuery(w, r)
	if !ok {
		return
	}

	logs, err := h.auditService.List(r.Context(), actor, filter)
	if err != nil {
		handleServiceError(w, h.logger, err, "list audit logs")
		return
	}

	dtos := make([]domain.AuditLogDTO, len(logs))
	for i := range logs {
		dtos[i] = mapper.ToAuditLogDTO(&logs[i])
	}
	respondJSON(w, http.StatusOK, dtos)
}

// Export godoc
// @Summary Export audit log as CSV
// @Description UTF-8 CSV with BOM using the same filters as the list endpoint
// @Tags Audit
// @Produce text/csv
// @Param actor query string false "Actor username contains"
// @Param action query string false "Action id contains"
// @Param date_from query string false "First day (YYYY-MM-DD)"
// @Param date_to query string false "Last day, inclusive (YYYY-MM-DD)"
// @Success 200 {file} file
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /audit/export [get]
func (h *AuditHandler) Export(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	filter, ok := auditFilterFromQuery(w, r)
	if !ok {
		return
	}

	// Buffered so a failure can still be reported as JSON
	var buf bytes.Buffer
	rows, err := h.auditService.ExportCSV(r.Context(), actor, filter, &buf)
	if err != nil {
		handleServiceError(w, h.logger, err, "export audit logs")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="audit_log.csv"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Total-Count", strconv.Itoa(rows))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("failed to write audit export", zap.Error(err))
	}
}

// Purge godoc
// @Summary Purge old audit log entries
// @Description Deletes entries older than the cutoff, archiving them first when enabled. Superuser only.
// @Tags Audit
// @Produce json
// @Param before query string true "Cutoff (RFC3339 or YYYY-MM-DD)"
// @Success 200 {object} domain.PurgeResponse
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /audit [delete]
func (h *AuditHandler) Purge(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if r.URL.Query().Get("before") == "" {
		respondWithError(w, http.StatusBadRequest, "Missing 'before' parameter")
		return
	}
	before, ok := parseTimeQuery(r, "before")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid 'before' parameter")
		return
	}

	result, err := h.auditService.Purge(r.Context(), actor, before)
	if err != nil {
		handleServiceError(w, h.logger, err, "purge audit logs")
		return
	}
	respondJSON(w, http.StatusOK, domain.PurgeResponse{
		Deleted:     result.Deleted,
		ArchivePath: result.ArchivePath,
	})
}
