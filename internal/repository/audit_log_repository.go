package repository

import (
	"context"
	"time"

	"github.com/concesionario/backoffice-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AuditLogFilter represents filter options for querying audit logs
type AuditLogFilter struct {
	// ActorUsername matches actors whose username contains the value
	ActorUsername string
	// Action matches action ids containing the value
	Action string
	// From is inclusive
	From *time.Time
	// To is exclusive
	To *time.Time
}

// AuditLogRepository handles audit log data access. Rows are never updated.
type AuditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) WithTx(tx *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: tx}
}

// Create inserts a new audit log entry (append-only - no updates allowed)
func (r *AuditLogRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(log).Error
}

// List returns at most limit entries matching filter, newest first, with
// actor and target preloaded
func (r *AuditLogRepository) List(ctx context.Context, filter *AuditLogFilter, limit int) ([]domain.AuditLog, error) {
	var logs []domain.AuditLog

	query := r.applyFilters(r.db.WithContext(ctx).Model(&domain.AuditLog{}), filter)
	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.
		Preload("Actor").
		Preload("TargetUser").
		Order("audit_logs.timestamp DESC").
		Find(&logs).Error
	return logs, err
}

// ListBefore returns every entry older than before, oldest first
func (r *AuditLogRepository) ListBefore(ctx context.Context, before time.Time) ([]domain.AuditLog, error) {
	var logs []domain.AuditLog
	err := r.db.WithContext(ctx).
		Preload("Actor").
		Preload("TargetUser").
		Where("audit_logs.timestamp < ?", before).
		Order("audit_logs.timestamp ASC").
		Find(&logs).Error
	return logs, err
}

// DeleteBefore removes entries older than before. Only the superuser purge
// calls this.
func (r *AuditLogRepository) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("audit_logs.timestamp < ?", before).
		Delete(&domain.AuditLog{})
	return result.RowsAffected, result.Error
}

// ClearUser nulls the actor and target references to a user being deleted
func (r *AuditLogRepository) ClearUser(ctx context.Context, userID uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Model(&domain.AuditLog{}).Where("actor_id = ?", userID).Update("actor_id", nil).Error; err != nil {
		return err
	}
	return db.Model(&domain.AuditLog{}).Where("target_user_id = ?", userID).Update("target_user_id", nil).Error
}

// applyFilters applies optional filters to the query
func (r *AuditLogRepository) applyFilters(query *gorm.DB, filter *AuditLogFilter) *gorm.DB {
	if filter == nil {
		return query
	}

	if filter.ActorUsername != "" {
		query = query.
			Joins("JOIN users AS actor_filter ON actor_filter.id = audit_logs.actor_id").
			Where("LOWER(actor_filter.username) LIKE ? ESCAPE '\\'", containsPattern(filter.ActorUsername))
	}

	if filter.Action != "" {
		query = query.Where("audit_logs.action LIKE ? ESCAPE '\\'", containsPattern(filter.Action))
	}

	if filter.From != nil {
		query = query.Where("audit_logs.timestamp >= ?", *filter.From)
	}

	if filter.To != nil {
		query = query.Where("audit_logs.timestamp < ?", *filter.To)
	}

	return query
}
