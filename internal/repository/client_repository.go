package repository

import (
	"context"
	"errors"

	"github.com/concesionario/backoffice-api/internal/auth"
	"github.com/concesionario/backoffice-api/internal/cuit"
	"github.com/concesionario/backoffice-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// clientSortFields maps API sort fields to columns
var clientSortFields = map[string]string{
	"lastName":    "last_name",
	"companyName": "company_name",
	"cuit":        "cuit",
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
}

// ClientFilter holds list options for clients
type ClientFilter struct {
	Search string
	Sort   SortConfig
}

type ClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) WithTx(tx *gorm.DB) *ClientRepository {
	return &ClientRepository{db: tx}
}

// Create inserts the client row only; the co-holder is written separately
func (r *ClientRepository) Create(ctx context.Context, client *domain.Client) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(client).Error
}

// GetByID loads a live client with owner and co-holder. Visibility is
// checked by the caller.
func (r *ClientRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	var client domain.Client
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Preload("CoHolder").
		First(&client, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *ClientRepository) Update(ctx context.Context, client *domain.Client) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(client).Error
}

// Delete soft-deletes a client
func (r *ClientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Client{}, "id = ?", id).Error
}

// SetOwner reassigns a client; nil leaves it unowned
func (r *ClientRepository) SetOwner(ctx context.Context, id uuid.UUID, ownerID *uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&domain.Client{}).Where("id = ?", id).Update("owner_id", ownerID).Error
}

// ClearOwner unassigns every client owned by userID, including soft-deleted ones
func (r *ClientRepository) ClearOwner(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Unscoped().Model(&domain.Client{}).
		Where("owner_id = ?", userID).
		Update("owner_id", nil).Error
}

// List returns the clients visible under scope. Search matches company,
// last or first name and CUIT, case-insensitively.
func (r *ClientRepository) List(ctx context.Context, scope auth.Scope, filter ClientFilter, page Page) ([]domain.Client, int64, error) {
	var clients []domain.Client
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Client{})
	query = ApplyScope(query, scope, "owner_id")

	if filter.Search != "" {
		pattern := containsPattern(filter.Search)
		cond := r.db.Where("LOWER(company_name) LIKE ? ESCAPE '\\'", pattern).
			Or("LOWER(last_name) LIKE ? ESCAPE '\\'", pattern).
			Or("LOWER(first_name) LIKE ? ESCAPE '\\'", pattern).
			Or("cuit LIKE ? ESCAPE '\\'", pattern)
		if digits := cuit.Normalize(filter.Search); digits != "" {
			cond = cond.Or("cuit LIKE ? ESCAPE '\\'", "%"+digits+"%")
		}
		query = query.Where(cond)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := BuildOrderClause(filter.Sort, clientSortFields, "created_at")
	err := query.Preload("Owner").
		Order(order).
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&clients).Error
	return clients, total, err
}

// SaveCoHolder creates or replaces the co-holder of a client
func (r *ClientRepository) SaveCoHolder(ctx context.Context, holder *domain.CoHolder) error {
	var existing domain.CoHolder
	err := r.db.WithContext(ctx).Where("client_id = ?", holder.ClientID).First(&existing).Error
	switch {
	case err == nil:
		holder.ID = existing.ID
		holder.CreatedAt = existing.CreatedAt
		return r.db.WithContext(ctx).Save(holder).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		return r.db.WithContext(ctx).Create(holder).Error
	default:
		return err
	}
}

// DeleteCoHolder removes the co-holder of a client, if any
func (r *ClientRepository) DeleteCoHolder(ctx context.Context, clientID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("client_id = ?", clientID).Delete(&domain.CoHolder{}).Error
}
