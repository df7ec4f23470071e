package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/concesionario/backoffice-api/internal/auth"
	"github.com/concesionario/backoffice-api/internal/config"
	"github.com/concesionario/backoffice-api/internal/domain"
	"github.com/concesionario/backoffice-api/internal/repository"
	"github.com/concesionario/backoffice-api/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	csvTimestampLayout = "2006-01-02 15:04:05"
	csvUserAgentMax    = 50
	utf8BOM            = "\ufeff"
)

var csvHeader = []string{"Fecha/Hora", "Actor", "Acción", "Objetivo", "Detalles", "IP", "User Agent"}

// AuditEntry is one privileged action to record. The timestamp is not part
// of the entry; the recorder assigns it.
type AuditEntry struct {
	ActorID      *uuid.UUID
	Action       domain.AuditAction
	TargetUserID *uuid.UUID
	Details      string
	// Meta defaults to the request metadata stored in the context
	Meta *RequestMeta
}

// PurgeResult reports an audit purge
type PurgeResult struct {
	Deleted     int64
	ArchivePath string
}

// AuditLogService records and reads the audit trail
type AuditLogService struct {
	auditRepo *repository.AuditLogRepository
	store     storage.Storage
	cfg       config.AuditConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewAuditLogService creates a new audit log service. store may be nil when
// purge archiving is disabled.
func NewAuditLogService(auditRepo *repository.AuditLogRepository, store storage.Storage, cfg config.AuditConfig, logger *zap.Logger) *AuditLogService {
	return &AuditLogService{
		auditRepo: auditRepo,
		store:     store,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock replaces the clock used to timestamp entries
func (s *AuditLogService) WithClock(now func() time.Time) *AuditLogService {
	s.now = now
	return s
}

// Record appends one entry. It never fails the caller: write errors and
// unknown actions are logged and the entry is dropped.
func (s *AuditLogService) Record(ctx context.Context, entry AuditEntry) {
	if !entry.Action.IsValid() {
		s.logger.Error("dropping audit entry with unknown action",
			zap.String("action", string(entry.Action)),
		)
		return
	}

	meta := RequestMetaFromContext(ctx)
	if entry.Meta != nil {
		meta = *entry.Meta
	}

	log := &domain.AuditLog{
		ActorID:      entry.ActorID,
		Action:       entry.Action,
		TargetUserID: entry.TargetUserID,
		Details:      entry.Details,
		IPAddress:    meta.IP,
		UserAgent:    meta.UserAgent,
		Timestamp:    s.now().UTC(),
	}

	// The primary write has committed; a cancelled request must not lose the entry
	if err := s.auditRepo.Create(context.WithoutCancel(ctx), log); err != nil {
		fields := []zap.Field{
			zap.String("action", string(entry.Action)),
			zap.String("details", entry.Details),
			zap.Error(err),
		}
		if entry.ActorID != nil {
			fields = append(fields, zap.String("actor_id", entry.ActorID.String()))
		}
		s.logger.Error("failed to write audit log", fields...)
	}
}

// List returns the newest entries matching filter
func (s *AuditLogService) List(ctx context.Context, actor auth.Actor, filter repository.AuditLogFilter) ([]domain.AuditLog, error) {
	if !actor.CanAdminister() {
		return nil, ErrForbidden
	}
	logs, err := s.auditRepo.List(ctx, &filter, s.cfg.ListLimit)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, nil
}

// ExportCSV writes the entries matching filter as CSV and returns the row count
func (s *AuditLogService) ExportCSV(ctx context.Context, actor auth.Actor, filter repository.AuditLogFilter, w io.Writer) (int, error) {
	if !actor.CanAdminister() {
		return 0, ErrForbidden
	}
	logs, err := s.auditRepo.List(ctx, &filter, s.cfg.ExportLimit)
	if err != nil {
		return 0, fmt.Errorf("export audit logs: %w", err)
	}
	if err := WriteAuditCSV(w, logs); err != nil {
		return 0, err
	}
	return len(logs), nil
}

// Purge deletes every entry older than before. Only superusers may purge.
// When archiving is enabled the rows are written to storage first and the
// purge is aborted if the archive cannot be stored.
func (s *AuditLogService) Purge(ctx context.Context, actor auth.Actor, before time.Time) (*PurgeResult, error) {
	if !actor.IsSuperuser {
		return nil, ErrForbidden
	}
	if before.IsZero() || before.After(s.now()) {
		return nil, fmt.Errorf("%w: purge cutoff must be in the past", ErrInvalidInput)
	}

	result := &PurgeResult{}

	if s.cfg.ArchiveOnPurge && s.store != nil {
		logs, err := s.auditRepo.ListBefore(ctx, before)
		if err != nil {
			return nil, fmt.Errorf("load audit logs for archive: %w", err)
		}
		if len(logs) == 0 {
			return result, nil
		}

		var buf bytes.Buffer
		if err := WriteAuditCSV(&buf, logs); err != nil {
			return nil, err
		}
		name := fmt.Sprintf("audit/%s-%s.csv", s.now().UTC().Format("20060102T150405Z"), uuid.NewString()[:8])
		if _, err := s.store.Put(ctx, name, "text/csv; charset=utf-8", &buf); err != nil {
			return nil, fmt.Errorf("archive audit logs: %w", err)
		}
		result.ArchivePath = name
	}

	deleted, err := s.auditRepo.DeleteBefore(ctx, before)
	if err != nil {
		if result.ArchivePath != "" {
			if rmErr := s.store.Remove(context.WithoutCancel(ctx), result.ArchivePath); rmErr != nil {
				s.logger.Warn("failed to remove orphaned audit archive",
					zap.String("archive", result.ArchivePath),
					zap.Error(rmErr),
				)
			}
		}
		return nil, fmt.Errorf("purge audit logs: %w", err)
	}
	result.Deleted = deleted

	s.logger.Info("audit log purged",
		zap.String("actor_id", actor.UserID.String()),
		zap.Time("before", before),
		zap.Int64("deleted", deleted),
		zap.String("archive", result.ArchivePath),
	)
	return result, nil
}

// WriteAuditCSV writes logs in the export layout: UTF-8 with BOM, one header
// row and the user agent cut to 50 characters.
func WriteAuditCSV(w io.Writer, logs []domain.AuditLog) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}

	for i := range logs {
		log := &logs[i]
		actor, target := "", ""
		if log.Actor != nil {
			actor = log.Actor.Username
		}
		if log.TargetUser != nil {
			target = log.TargetUser.Username
		}
		if err := cw.Write([]string{
			log.Timestamp.UTC().Format(csvTimestampLayout),
			actor,
			log.Action.Label(),
			target,
			log.Details,
			log.IPAddress,
			truncateRunes(log.UserAgent, csvUserAgentMax),
		}); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
