package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/concesionario/backoffice-api/internal/auth"
	"github.com/concesionario/backoffice-api/internal/domain"
	"github.com/concesionario/backoffice-api/internal/mapper"
	"github.com/concesionario/backoffice-api/internal/repository"
	"github.com/concesionario/backoffice-api/internal/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventService schedules calendar events for clients and leads
type EventService struct {
	eventRepo  *repository.EventRepository
	clientRepo *repository.ClientRepository
	leadRepo   *repository.LeadRepository
	logger     *zap.Logger
}

func NewEventService(
	eventRepo *repository.EventRepository,
	clientRepo *repository.ClientRepository,
	leadRepo *repository.LeadRepository,
	logger *zap.Logger,
) *EventService {
	return &EventService{
		eventRepo:  eventRepo,
		clientRepo: clientRepo,
		leadRepo:   leadRepo,
		logger:     logger,
	}
}

// List returns the events in the actor's scope that start within [from, to),
// earliest first
func (s *EventService) List(ctx context.Context, actor auth.Actor, from, to time.Time) ([]domain.EventDTO, error) {
	if !actor.CanManageClients() {
		return nil, ErrForbidden
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, validation.Field("to", "Must not be before from")
	}

	events, err := s.eventRepo.ListRange(ctx, actor.Scope(), from, to)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	dtos := make([]domain.EventDTO, len(events))
	for i := range events {
		dtos[i] = mapper.ToEventDTO(&events[i])
	}
	return dtos, nil
}

// Create schedules an event owned by the actor. The event must reference
// exactly one client or lead that the actor can see.
func (s *EventService) Create(ctx context.Context, actor auth.Actor, req *domain.EventRequest) (*domain.EventDTO, error) {
	if !actor.CanManageClients() {
		return nil, ErrForbidden
	}
	if err := validateEvent(req); err != nil {
		return nil, err
	}
	if err := s.checkAttachment(ctx, actor, req); err != nil {
		return nil, err
	}

	event := &domain.ClientEvent{OwnerID: &actor.UserID}
	applyEvent(event, req)

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	dto := mapper.ToEventDTO(event)
	return &dto, nil
}

// Update edits an event in the actor's scope
func (s *EventService) Update(ctx context.Context, actor auth.Actor, id uuid.UUID, req *domain.EventRequest) (*domain.EventDTO, error) {
	event, err := s.loadVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := validateEvent(req); err != nil {
		return nil, err
	}
	if err := s.checkAttachment(ctx, actor, req); err != nil {
		return nil, err
	}

	applyEvent(event, req)
	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}

	dto := mapper.ToEventDTO(event)
	return &dto, nil
}

// Delete removes an event in the actor's scope
func (s *EventService) Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	if _, err := s.loadVisible(ctx, actor, id); err != nil {
		return err
	}
	if err := s.eventRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

func (s *EventService) loadVisible(ctx context.Context, actor auth.Actor, id uuid.UUID) (*domain.ClientEvent, error) {
	if !actor.CanManageClients() {
		return nil, ErrForbidden
	}
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrEventNotFound, "load event")
	}
	if !actor.Scope().Allows(event.OwnerID) {
		return nil, ErrForbidden
	}
	return event, nil
}

// checkAttachment verifies the referenced client or lead exists and is
// visible to the actor
func (s *EventService) checkAttachment(ctx context.Context, actor auth.Actor, req *domain.EventRequest) error {
	scope := actor.Scope()
	if req.ClientID != nil {
		client, err := s.clientRepo.GetByID(ctx, *req.ClientID)
		if err != nil {
			return notFound(err, ErrClientNotFound, "load client")
		}
		if !scope.Allows(client.OwnerID) {
			return ErrForbidden
		}
		return nil
	}
	lead, err := s.leadRepo.GetByID(ctx, *req.LeadID)
	if err != nil {
		return notFound(err, ErrLeadNotFound, "load lead")
	}
	if !scope.Allows(lead.OwnerID) {
		return ErrForbidden
	}
	return nil
}

func validateEvent(req *domain.EventRequest) error {
	errs := validation.Errors{}
	if err := validation.Struct(req); err != nil {
		fieldErrs, ok := validation.As(err)
		if !ok {
			return err
		}
		errs = fieldErrs
	}

	switch {
	case req.ClientID == nil && req.LeadID == nil:
		errs.Add("clientId", "An event needs a client or a lead")
	case req.ClientID != nil && req.LeadID != nil:
		errs.Add("clientId", "An event belongs to a client or a lead, not both")
	}
	if req.EndsAt != nil && req.EndsAt.Before(req.StartsAt) {
		errs.Add("endsAt", "Must not be before startsAt")
	}
	return errs.Err()
}

func applyEvent(event *domain.ClientEvent, req *domain.EventRequest) {
	kind := req.Kind
	if kind == "" {
		kind = domain.EventKindMeeting
	}
	event.ClientID = req.ClientID
	event.LeadID = req.LeadID
	event.Kind = kind
	event.Title = strings.TrimSpace(req.Title)
	event.Description = req.Description
	event.Location = strings.TrimSpace(req.Location)
	event.StartsAt = req.StartsAt.UTC()
	event.EndsAt = nil
	if req.EndsAt != nil {
		ends := req.EndsAt.UTC()
		event.EndsAt = &ends
	}
}
