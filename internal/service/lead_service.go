package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/concesionario/backoffice-api/internal/auth"
	"github.com/concesionario/backoffice-api/internal/domain"
	"github.com/concesionario/backoffice-api/internal/mapper"
	"github.com/concesionario/backoffice-api/internal/repository"
	"github.com/concesionario/backoffice-api/internal/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LeadService manages prospective clients
type LeadService struct {
	db        *gorm.DB
	leadRepo  *repository.LeadRepository
	eventRepo *repository.EventRepository
	noteRepo  *repository.NoteRepository
	events    *EventService
	logger    *zap.Logger
}

func NewLeadService(
	db *gorm.DB,
	leadRepo *repository.LeadRepository,
	eventRepo *repository.EventRepository,
	noteRepo *repository.NoteRepository,
	events *EventService,
	logger *zap.Logger,
) *LeadService {
	return &LeadService{
		db:        db,
		leadRepo:  leadRepo,
		eventRepo: eventRepo,
		noteRepo:  noteRepo,
		events:    events,
		logger:    logger,
	}
}

// Create stores a lead owned by the actor
func (s *LeadService) Create(ctx context.Context, actor auth.Actor, req *domain.LeadRequest) (*domain.LeadDTO, error) {
	if !actor.CanManageClients() {
		return nil, ErrForbidden
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	lead := &domain.Lead{
		OwnerID:  &actor.UserID,
		FullName: strings.TrimSpace(req.FullName),
		Phone:    strings.TrimSpace(req.Phone),
		Email:    strings.TrimSpace(req.Email),
		Interest: strings.TrimSpace(req.Interest),
	}
	if err := s.leadRepo.Create(ctx, lead); err != nil {
		return nil, fmt.Errorf("create lead: %w", err)
	}

	dto := mapper.ToLeadDTO(lead)
	return &dto, nil
}

func (s *LeadService) Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*domain.LeadDTO, error) {
	lead, err := s.loadVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToLeadDTO(lead)
	return &dto, nil
}

// List returns the leads in the actor's scope, newest first
func (s *LeadService) List(ctx context.Context, actor auth.Actor, search string, page repository.Page) (*domain.PaginatedResponse, error) {
	if !actor.CanManageClients() {
		return nil, ErrForbidden
	}
	leads, total, err := s.leadRepo.List(ctx, actor.Scope(), search, page)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}

	dtos := make([]domain.LeadDTO, len(leads))
	for i := range leads {
		dtos[i] = mapper.ToLeadDTO(&leads[i])
	}
	resp := mapper.ToPaginatedResponse(dtos, total, page.Number, page.Size)
	return &resp, nil
}

// Delete removes a lead with its events and notes
func (s *LeadService) Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	if _, err := s.loadVisible(ctx, actor, id); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.eventRepo.WithTx(tx).DeleteByLead(ctx, id); err != nil {
			return fmt.Errorf("delete lead events: %w", err)
		}
		if err := s.noteRepo.WithTx(tx).DeleteByLead(ctx, id); err != nil {
			return fmt.Errorf("delete lead notes: %w", err)
		}
		if err := s.leadRepo.WithTx(tx).Delete(ctx, id); err != nil {
			return fmt.Errorf("delete lead: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("lead deleted",
		zap.String("lead_id", id.String()),
		zap.String("actor_id", actor.UserID.String()),
	)
	return nil
}

func (s *LeadService) ListNotes(ctx context.Context, actor auth.Actor, leadID uuid.UUID) ([]domain.NoteDTO, error) {
	if _, err := s.loadVisible(ctx, actor, leadID); err != nil {
		return nil, err
	}
	notes, err := s.noteRepo.ListByLead(ctx, leadID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return toNoteDTOs(notes), nil
}

func (s *LeadService) AddNote(ctx context.Context, actor auth.Actor, leadID uuid.UUID, req *domain.CreateNoteRequest) (*domain.NoteDTO, error) {
	if _, err := s.loadVisible(ctx, actor, leadID); err != nil {
		return nil, err
	}
	req.Body = strings.TrimSpace(req.Body)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	note := &domain.ClientNote{
		LeadID:   &leadID,
		AuthorID: &actor.UserID,
		Body:     req.Body,
	}
	if err := s.noteRepo.Create(ctx, note); err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	note.Author = &domain.User{Username: actor.Username}

	dto := mapper.ToNoteDTO(note)
	return &dto, nil
}

// ScheduleInterview books an interview event for a lead
func (s *LeadService) ScheduleInterview(ctx context.Context, actor auth.Actor, leadID uuid.UUID, req *domain.EventRequest) (*domain.EventDTO, error) {
	if _, err := s.loadVisible(ctx, actor, leadID); err != nil {
		return nil, err
	}

	interview := *req
	interview.ClientID = nil
	interview.LeadID = &leadID
	interview.Kind = domain.EventKindInterview
	if strings.TrimSpace(interview.Title) == "" {
		interview.Title = "Entrevista"
	}
	return s.events.Create(ctx, actor, &interview)
}

func (s *LeadService) loadVisible(ctx context.Context, actor auth.Actor, id uuid.UUID) (*domain.Lead, error) {
	if !actor.CanManageClients() {
		return nil, ErrForbidden
	}
	lead, err := s.leadRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrLeadNotFound, "load lead")
	}
	if !actor.Scope().Allows(lead.OwnerID) {
		return nil, ErrForbidden
	}
	return lead, nil
}
