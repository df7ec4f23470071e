package repository

import (
	"context"

	"github.com/concesionario/backoffice-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ThemeRepository struct {
	db *gorm.DB
}

func NewThemeRepository(db *gorm.DB) *ThemeRepository {
	return &ThemeRepository{db: db}
}

func (r *ThemeRepository) WithTx(tx *gorm.DB) *ThemeRepository {
	return &ThemeRepository{db: tx}
}

func (r *ThemeRepository) Create(ctx context.Context, pref *domain.ThemePreference) error {
	return r.db.WithContext(ctx).Create(pref).Error
}

func (r *ThemeRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.ThemePreference, error) {
	var pref domain.ThemePreference
	err := r.db.WithContext(ctx).First(&pref, "user_id = ?", userID).Error
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

func (r *ThemeRepository) Update(ctx context.Context, pref *domain.ThemePreference) error {
	return r.db.WithContext(ctx).Save(pref).Error
}

func (r *ThemeRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.ThemePreference{}).Error
}
