package repository

import (
	"context"

	"github.com/concesionario/backoffice-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NoteRepository stores append-only notes; there is no update
type NoteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) WithTx(tx *gorm.DB) *NoteRepository {
	return &NoteRepository{db: tx}
}

func (r *NoteRepository) Create(ctx context.Context, note *domain.ClientNote) error {
	return r.db.WithContext(ctx).Omit("Author").Create(note).Error
}

// ListByClient returns the notes of a client, newest first
func (r *NoteRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]domain.ClientNote, error) {
	return r.list(ctx, "client_id = ?", clientID)
}

// ListByLead returns the notes of a lead, newest first
func (r *NoteRepository) ListByLead(ctx context.Context, leadID uuid.UUID) ([]domain.ClientNote, error) {
	return r.list(ctx, "lead_id = ?", leadID)
}

func (r *NoteRepository) list(ctx context.Context, cond string, id uuid.UUID) ([]domain.ClientNote, error) {
	var notes []domain.ClientNote
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where(cond, id).
		Order("created_at DESC").
		Find(&notes).Error
	return notes, err
}

// DeleteByLead removes the notes of a lead being deleted
func (r *NoteRepository) DeleteByLead(ctx context.Context, leadID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("lead_id = ?", leadID).Delete(&domain.ClientNote{}).Error
}

// ClearAuthor turns the notes of a deleted user into system notes
func (r *NoteRepository) ClearAuthor(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&domain.ClientNote{}).
		Where("author_id = ?", userID).
		Update("author_id", nil).Error
}
