package mapper

import (
	"time"

	"github.com/concesionario/backoffice-api/internal/domain"
)

const (
	timestampLayout = "2006-01-02T15:04:05Z"
	dateLayout      = "2006-01-02"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// ToUserDTO converts User to UserDTO
func ToUserDTO(user *domain.User) domain.UserDTO {
	dto := domain.UserDTO{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		FullName:    user.FullName(),
		Role:        user.Role,
		RoleLabel:   user.Role.Label(),
		IsStaff:     user.IsStaff,
		IsSuperuser: user.IsSuperuser,
		IsActive:    user.IsActive,
		Phone:       user.Phone,
		Address:     user.Address,
		Notes:       user.Notes,
		LastLoginAt: formatOptionalTime(user.LastLoginAt),
		CreatedAt:   formatTime(user.CreatedAt),
	}
	if user.Birthdate != nil {
		dto.Birthdate = formatDate(*user.Birthdate)
	}
	return dto
}

// ToClientDTO converts Client to ClientDTO, including the co-holder when loaded
func ToClientDTO(client *domain.Client) domain.ClientDTO {
	dto := domain.ClientDTO{
		ID:            client.ID,
		OwnerID:       client.OwnerID,
		DisplayName:   client.DisplayName(),
		FirstName:     client.FirstName,
		LastName:      client.LastName,
		CompanyName:   client.CompanyName,
		DocType:       client.DocType,
		DocNumber:     client.DocNumber,
		BirthDate:     formatDate(client.BirthDate),
		Sex:           client.Sex,
		MaritalStatus: client.MaritalStatus,
		Nationality:   client.Nationality,
		TaxCondition:  client.TaxCondition,
		CUIT:          client.CUIT,
		Street:        client.Street,
		StreetNumber:  client.StreetNumber,
		Floor:         client.Floor,
		Apartment:     client.Apartment,
		PostalCode:    client.PostalCode,
		City:          client.City,
		Province:      client.Province,
		Phone:         client.Phone,
		Email:         client.Email,
		CreatedAt:     formatTime(client.CreatedAt),
		UpdatedAt:     formatTime(client.UpdatedAt),
	}
	if client.Owner != nil {
		dto.OwnerName = client.Owner.FullName()
	}
	if client.CoHolder != nil {
		holder := ToCoHolderDTO(client.CoHolder)
		dto.CoHolder = &holder
	}
	return dto
}

// ToCoHolderDTO converts CoHolder to CoHolderDTO
func ToCoHolderDTO(holder *domain.CoHolder) domain.CoHolderDTO {
	return domain.CoHolderDTO{
		ID:          holder.ID,
		FullName:    holder.FullName,
		Sex:         holder.Sex,
		DNI:         holder.DNI,
		BirthDate:   formatDate(holder.BirthDate),
		Nationality: holder.Nationality,
		Phone:       holder.Phone,
		Email:       holder.Email,
	}
}

// ToLeadDTO converts Lead to LeadDTO
func ToLeadDTO(lead *domain.Lead) domain.LeadDTO {
	return domain.LeadDTO{
		ID:        lead.ID,
		OwnerID:   lead.OwnerID,
		FullName:  lead.FullName,
		Phone:     lead.Phone,
		Email:     lead.Email,
		Interest:  lead.Interest,
		CreatedAt: formatTime(lead.CreatedAt),
	}
}

// ToEventDTO converts ClientEvent to EventDTO
func ToEventDTO(event *domain.ClientEvent) domain.EventDTO {
	return domain.EventDTO{
		ID:          event.ID,
		OwnerID:     event.OwnerID,
		ClientID:    event.ClientID,
		LeadID:      event.LeadID,
		Kind:        event.Kind,
		Title:       event.Title,
		Description: event.Description,
		Location:    event.Location,
		StartsAt:    formatTime(event.StartsAt),
		EndsAt:      formatOptionalTime(event.EndsAt),
	}
}

// ToNoteDTO converts ClientNote to NoteDTO. Notes without an author are
// system notes.
func ToNoteDTO(note *domain.ClientNote) domain.NoteDTO {
	dto := domain.NoteDTO{
		ID:         note.ID,
		AuthorID:   note.AuthorID,
		AuthorName: "Sistema",
		Body:       note.Body,
		CreatedAt:  formatTime(note.CreatedAt),
	}
	if note.Author != nil {
		dto.AuthorName = note.Author.FullName()
	}
	return dto
}

// ToAuditLogDTO converts AuditLog to AuditLogDTO
func ToAuditLogDTO(log *domain.AuditLog) domain.AuditLogDTO {
	dto := domain.AuditLogDTO{
		ID:          log.ID,
		ActorID:     log.ActorID,
		Action:      log.Action,
		ActionLabel: log.Action.Label(),
		TargetID:    log.TargetUserID,
		Details:     log.Details,
		IPAddress:   log.IPAddress,
		UserAgent:   log.UserAgent,
		Timestamp:   formatTime(log.Timestamp),
	}
	if log.Actor != nil {
		dto.Actor = log.Actor.Username
	}
	if log.TargetUser != nil {
		dto.Target = log.TargetUser.Username
	}
	return dto
}

// ToPaginatedResponse wraps a page of items
func ToPaginatedResponse(data interface{}, total int64, page, pageSize int) domain.PaginatedResponse {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return domain.PaginatedResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
