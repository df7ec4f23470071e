package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/concesionario/backoffice-api/internal/auth"
	"github.com/concesionario/backoffice-api/internal/cuit"
	"github.com/concesionario/backoffice-api/internal/domain"
	"github.com/concesionario/backoffice-api/internal/mapper"
	"github.com/concesionario/backoffice-api/internal/repository"
	"github.com/concesionario/backoffice-api/internal/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const nameRuleMessage = "Either first and last name, or a company name, is required"

// ClientService manages client records within the actor's visibility scope
type ClientService struct {
	db         *gorm.DB
	clientRepo *repository.ClientRepository
	userRepo   *repository.UserRepository
	noteRepo   *repository.NoteRepository
	audit      *AuditLogService
	logger     *zap.Logger
}

func NewClientService(
	db *gorm.DB,
	clientRepo *repository.ClientRepository,
	userRepo *repository.UserRepository,
	noteRepo *repository.NoteRepository,
	audit *AuditLogService,
	logger *zap.Logger,
) *ClientService {
	return &ClientService{
		db:         db,
		clientRepo: clientRepo,
		userRepo:   userRepo,
		noteRepo:   noteRepo,
		audit:      audit,
		logger:     logger,
	}
}

// Create validates and stores a client together with its co-holder. Without
// an explicit owner the client belongs to the actor; only administrators
// may assign another owner.
func (s *ClientService) Create(ctx context.Context, actor auth.Actor, req *domain.ClientRequest) (*domain.ClientDTO, error) {
	if !actor.CanManageClients() {
		return nil, ErrForbidden
	}

	client, holder, err := buildClient(req)
	if err != nil {
		return nil, err
	}

	ownerID, err := s.resolveOwner(ctx, actor, req.OwnerID, nil)
	if err != nil {
		return nil, err
	}
	client.OwnerID = ownerID

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		clients := s.clientRepo.WithTx(tx)
		if err := clients.Create(ctx, client); err != nil {
			return fmt.Errorf("create client: %w", err)
		}
		if holder != nil {
			holder.ClientID = client.ID
			if err := clients.SaveCoHolder(ctx, holder); err != nil {
				return fmt.Errorf("create co-holder: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	client.CoHolder = holder

	s.audit.Record(ctx, AuditEntry{
		ActorID: &actor.UserID,
		Action:  domain.AuditActionCreateClient,
		Details: fmt.Sprintf("Cliente creado: %s (CUIT: %s)", client.DisplayName(), cuit.Format(client.CUIT)),
	})

	s.logger.Info("client created",
		zap.String("client_id", client.ID.String()),
		zap.String("actor_id", actor.UserID.String()),
	)

	dto := mapper.ToClientDTO(client)
	return &dto, nil
}

// Get returns a client with its co-holder. Clients outside the actor's
// scope are denied, not hidden.
func (s *ClientService) Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*domain.ClientDTO, error) {
	client, err := s.loadVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToClientDTO(client)
	return &dto, nil
}

// List returns the clients in the actor's scope
func (s *ClientService) List(ctx context.Context, actor auth.Actor, filter repository.ClientFilter, page repository.Page) (*domain.PaginatedResponse, error) {
	if !actor.CanManageClients() {
		return nil, ErrForbidden
	}

	clients, total, err := s.clientRepo.List(ctx, actor.Scope(), filter, page)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}

	dtos := make([]domain.ClientDTO, len(clients))
	for i := range clients {
		dtos[i] = mapper.ToClientDTO(&clients[i])
	}
	resp := mapper.ToPaginatedResponse(dtos, total, page.Number, page.Size)
	return &resp, nil
}

// Update replaces the client fields. An empty co-holder payload removes the
// existing co-holder.
func (s *ClientService) Update(ctx context.Context, actor auth.Actor, id uuid.UUID, req *domain.ClientRequest) (*domain.ClientDTO, error) {
	existing, err := s.loadVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	client, holder, err := buildClient(req)
	if err != nil {
		return nil, err
	}

	ownerID := existing.OwnerID
	if req.OwnerID != nil {
		ownerID, err = s.resolveOwner(ctx, actor, req.OwnerID, existing.OwnerID)
		if err != nil {
			return nil, err
		}
	}

	client.ID = existing.ID
	client.CreatedAt = existing.CreatedAt
	client.OwnerID = ownerID

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		clients := s.clientRepo.WithTx(tx)
		if err := clients.Update(ctx, client); err != nil {
			return fmt.Errorf("update client: %w", err)
		}
		if holder == nil {
			if err := clients.DeleteCoHolder(ctx, client.ID); err != nil {
				return fmt.Errorf("delete co-holder: %w", err)
			}
			return nil
		}
		holder.ClientID = client.ID
		if err := clients.SaveCoHolder(ctx, holder); err != nil {
			return fmt.Errorf("save co-holder: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	client.CoHolder = holder

	s.audit.Record(ctx, AuditEntry{
		ActorID: &actor.UserID,
		Action:  domain.AuditActionUpdateClient,
		Details: fmt.Sprintf("Cliente actualizado: %s (CUIT: %s)", client.DisplayName(), cuit.Format(client.CUIT)),
	})

	updated, err := s.clientRepo.GetByID(ctx, client.ID)
	if err != nil {
		return nil, notFound(err, ErrClientNotFound, "reload client")
	}
	dto := mapper.ToClientDTO(updated)
	return &dto, nil
}

// Delete soft-deletes a client. Only administrators may delete.
func (s *ClientService) Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	if !actor.CanAdminister() {
		return ErrForbidden
	}
	client, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if err := s.clientRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete client: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		ActorID: &actor.UserID,
		Action:  domain.AuditActionDeleteClient,
		Details: fmt.Sprintf("Cliente eliminado: %s (CUIT: %s)", client.DisplayName(), cuit.Format(client.CUIT)),
	})
	return nil
}

// AssignOwner reassigns a client to ownerID, or leaves it unowned when
// ownerID is nil. Only administrators may reassign.
func (s *ClientService) AssignOwner(ctx context.Context, actor auth.Actor, id uuid.UUID, ownerID *uuid.UUID) (*domain.ClientDTO, error) {
	if !actor.CanAdminister() {
		return nil, ErrForbidden
	}
	client, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	ownerName := "sin asignar"
	var target *uuid.UUID
	if ownerID != nil {
		owner, err := s.userRepo.GetByID(ctx, *ownerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, validation.Field("ownerId", "Owner does not exist")
			}
			return nil, fmt.Errorf("load owner: %w", err)
		}
		ownerName = owner.Username
		target = &owner.ID
	}

	if err := s.clientRepo.SetOwner(ctx, id, ownerID); err != nil {
		return nil, fmt.Errorf("assign owner: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		ActorID:      &actor.UserID,
		Action:       domain.AuditActionUpdateClient,
		TargetUserID: target,
		Details:      fmt.Sprintf("Cliente reasignado: %s (responsable: %s)", client.DisplayName(), ownerName),
	})

	updated, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrClientNotFound, "reload client")
	}
	dto := mapper.ToClientDTO(updated)
	return &dto, nil
}

// ListNotes returns the notes of a visible client, newest first
func (s *ClientService) ListNotes(ctx context.Context, actor auth.Actor, clientID uuid.UUID) ([]domain.NoteDTO, error) {
	if _, err := s.loadVisible(ctx, actor, clientID); err != nil {
		return nil, err
	}
	notes, err := s.noteRepo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return toNoteDTOs(notes), nil
}

// AddNote appends a note to a visible client
func (s *ClientService) AddNote(ctx context.Context, actor auth.Actor, clientID uuid.UUID, req *domain.CreateNoteRequest) (*domain.NoteDTO, error) {
	if _, err := s.loadVisible(ctx, actor, clientID); err != nil {
		return nil, err
	}
	req.Body = strings.TrimSpace(req.Body)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	note := &domain.ClientNote{
		ClientID: &clientID,
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

func (s *ClientService) load(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrClientNotFound, "load client")
	}
	return client, nil
}

// loadVisible loads a client and denies access when it lies outside the
// actor's scope
func (s *ClientService) loadVisible(ctx context.Context, actor auth.Actor, id uuid.UUID) (*domain.Client, error) {
	if !actor.CanManageClients() {
		return nil, ErrForbidden
	}
	client, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Scope().Allows(client.OwnerID) {
		return nil, ErrForbidden
	}
	return client, nil
}

// resolveOwner decides the owner of a created or updated client. Limited
// users may only name themselves; administrators may name any existing user.
func (s *ClientService) resolveOwner(ctx context.Context, actor auth.Actor, requested, current *uuid.UUID) (*uuid.UUID, error) {
	if requested == nil {
		if current != nil {
			return current, nil
		}
		id := actor.UserID
		return &id, nil
	}
	if current != nil && *requested == *current {
		return current, nil
	}
	if !actor.CanAdminister() && *requested != actor.UserID {
		return nil, fmt.Errorf("%w: only administrators can assign clients to other users", ErrForbidden)
	}
	if _, err := s.userRepo.GetByID(ctx, *requested); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validation.Field("ownerId", "Owner does not exist")
		}
		return nil, fmt.Errorf("load owner: %w", err)
	}
	id := *requested
	return &id, nil
}

// buildClient validates req and converts it into models. The co-holder is
// nil when the payload carries no co-holder data.
func buildClient(req *domain.ClientRequest) (*domain.Client, *domain.CoHolder, error) {
	if req.CoHolder.IsEmpty() {
		req.CoHolder = nil
	}

	errs := validation.Errors{}
	if err := validation.Struct(req); err != nil {
		fieldErrs, ok := validation.As(err)
		if !ok {
			return nil, nil, err
		}
		errs = fieldErrs
	}

	first := strings.TrimSpace(req.FirstName)
	last := strings.TrimSpace(req.LastName)
	company := strings.TrimSpace(req.CompanyName)
	if company == "" && (first == "" || last == "") {
		errs.Add("firstName", nameRuleMessage)
		errs.Add("lastName", nameRuleMessage)
		errs.Add("companyName", nameRuleMessage)
	}

	birthDate := parseDate(errs, "birthDate", req.BirthDate)

	var holder *domain.CoHolder
	if req.CoHolder != nil {
		holder = &domain.CoHolder{
			FullName:    strings.TrimSpace(req.CoHolder.FullName),
			Sex:         domain.Sex(req.CoHolder.Sex),
			DNI:         req.CoHolder.DNI,
			BirthDate:   parseDate(errs, "coHolder.birthDate", req.CoHolder.BirthDate),
			Nationality: domain.Nationality(req.CoHolder.Nationality),
			Phone:       strings.TrimSpace(req.CoHolder.Phone),
			Email:       strings.TrimSpace(req.CoHolder.Email),
		}
	}

	if err := errs.Err(); err != nil {
		return nil, nil, err
	}

	client := &domain.Client{
		FirstName:     first,
		LastName:      last,
		CompanyName:   company,
		DocType:       domain.DocType(req.DocType),
		DocNumber:     req.DocNumber,
		BirthDate:     birthDate,
		Sex:           domain.Sex(req.Sex),
		MaritalStatus: domain.MaritalStatus(req.MaritalStatus),
		Nationality:   domain.Nationality(req.Nationality),
		TaxCondition:  domain.TaxCondition(req.TaxCondition),
		CUIT:          cuit.Normalize(req.CUIT),
		Street:        strings.TrimSpace(req.Street),
		StreetNumber:  req.StreetNumber,
		Floor:         strings.TrimSpace(req.Floor),
		Apartment:     strings.TrimSpace(req.Apartment),
		PostalCode:    strings.TrimSpace(req.PostalCode),
		City:          strings.TrimSpace(req.City),
		Province:      strings.TrimSpace(req.Province),
		Phone:         strings.TrimSpace(req.Phone),
		Email:         strings.TrimSpace(req.Email),
	}
	return client, holder, nil
}

// parseDate parses a YYYY-MM-DD value, recording a field error when the
// field has none yet
func parseDate(errs validation.Errors, field, value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		errs.Add(field, domain.GetValidationMessage("datetime"))
		return time.Time{}
	}
	return t
}

func toNoteDTOs(notes []domain.ClientNote) []domain.NoteDTO {
	dtos := make([]domain.NoteDTO, len(notes))
	for i := range notes {
		dtos[i] = mapper.ToNoteDTO(&notes[i])
	}
	return dtos
}
