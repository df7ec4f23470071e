package repository

import (
	"context"
	"time"

	"github.com/concesionario/backoffice-api/internal/auth"
	"github.com/concesionario/backoffice-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) WithTx(tx *gorm.DB) *EventRepository {
	return &EventRepository{db: tx}
}

func (r *EventRepository) Create(ctx context.Context, event *domain.ClientEvent) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(event).Error
}

func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ClientEvent, error) {
	var event domain.ClientEvent
	err := r.db.WithContext(ctx).First(&event, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *EventRepository) Update(ctx context.Context, event *domain.ClientEvent) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(event).Error
}

func (r *EventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.ClientEvent{}, "id = ?", id).Error
}

// ListRange returns the events visible under scope that start in [from, to),
// ordered by start time. A zero bound is open.
func (r *EventRepository) ListRange(ctx context.Context, scope auth.Scope, from, to time.Time) ([]domain.ClientEvent, error) {
	var events []domain.ClientEvent

	query := r.db.WithContext(ctx).Model(&domain.ClientEvent{})
	query = ApplyScope(query, scope, "owner_id")

	if !from.IsZero() {
		query = query.Where("starts_at >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("starts_at < ?", to)
	}

	err := query.Preload("Client").Preload("Lead").Order("starts_at ASC").Find(&events).Error
	return events, err
}

// DeleteByLead removes every event attached to a lead
func (r *EventRepository) DeleteByLead(ctx context.Context, leadID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("lead_id = ?", leadID).Delete(&domain.ClientEvent{}).Error
}

// ClearOwner unassigns every event owned by userID
func (r *EventRepository) ClearOwner(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&domain.ClientEvent{}).
		Where("owner_id = ?", userID).
		Update("owner_id", nil).Error
}
