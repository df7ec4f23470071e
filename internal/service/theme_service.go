package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/concesionario/backoffice-api/internal/auth"
	"github.com/concesionario/backoffice-api/internal/domain"
	"github.com/concesionario/backoffice-api/internal/repository"
	"gorm.io/gorm"
)

// ThemeService reads and toggles the actor's theme preference
type ThemeService struct {
	themeRepo *repository.ThemeRepository
}

func NewThemeService(themeRepo *repository.ThemeRepository) *ThemeService {
	return &ThemeService{themeRepo: themeRepo}
}

// Get returns the actor's theme. Users created before preferences existed
// get one on first access.
func (s *ThemeService) Get(ctx context.Context, actor auth.Actor) (*domain.ThemeDTO, error) {
	pref, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}
	return &domain.ThemeDTO{Theme: pref.Theme}, nil
}

// Toggle switches between light and dark
func (s *ThemeService) Toggle(ctx context.Context, actor auth.Actor) (*domain.ThemeDTO, error) {
	pref, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}
	pref.Toggle()
	if err := s.themeRepo.Update(ctx, pref); err != nil {
		return nil, fmt.Errorf("toggle theme: %w", err)
	}
	return &domain.ThemeDTO{Theme: pref.Theme}, nil
}

func (s *ThemeService) load(ctx context.Context, actor auth.Actor) (*domain.ThemePreference, error) {
	pref, err := s.themeRepo.GetByUserID(ctx, actor.UserID)
	if err == nil {
		return pref, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load theme: %w", err)
	}

	pref = &domain.ThemePreference{UserID: actor.UserID, Theme: domain.ThemeLight}
	if err := s.themeRepo.Create(ctx, pref); err != nil {
		return nil, fmt.Errorf("create theme: %w", err)
	}
	return pref, nil
}
