package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DTOs for API responses

type UserDTO struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	FirstName   string    `json:"firstName,omitempty"`
	LastName    string    `json:"lastName,omitempty"`
	FullName    string    `json:"fullName"`
	Role        Role      `json:"role"`
	RoleLabel   string    `json:"roleLabel"`
	IsStaff     bool      `json:"isStaff"`
	IsSuperuser bool      `json:"isSuperuser"`
	IsActive    bool      `json:"isActive"`
	Phone       string    `json:"phone,omitempty"`
	Birthdate   string    `json:"birthdate,omitempty"` // YYYY-MM-DD
	Address     string    `json:"address,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	LastLoginAt string    `json:"lastLoginAt,omitempty"` // ISO 8601
	CreatedAt   string    `json:"createdAt"`             // ISO 8601
}

type CoHolderDTO struct {
	ID          uuid.UUID   `json:"id"`
	FullName    string      `json:"fullName"`
	Sex         Sex         `json:"sex"`
	DNI         string      `json:"dni"`
	BirthDate   string      `json:"birthDate"`
	Nationality Nationality `json:"nationality"`
	Phone       string      `json:"phone"`
	Email       string      `json:"email"`
}

type ClientDTO struct {
	ID            uuid.UUID     `json:"id"`
	OwnerID       *uuid.UUID    `json:"ownerId,omitempty"`
	OwnerName     string        `json:"ownerName,omitempty"`
	DisplayName   string        `json:"displayName"`
	FirstName     string        `json:"firstName,omitempty"`
	LastName      string        `json:"lastName,omitempty"`
	CompanyName   string        `json:"companyName,omitempty"`
	DocType       DocType       `json:"docType"`
	DocNumber     string        `json:"docNumber"`
	BirthDate     string        `json:"birthDate"`
	Sex           Sex           `json:"sex"`
	MaritalStatus MaritalStatus `json:"maritalStatus"`
	Nationality   Nationality   `json:"nationality"`
	TaxCondition  TaxCondition  `json:"taxCondition"`
	CUIT          string        `json:"cuit"`
	Street        string        `json:"street"`
	StreetNumber  string        `json:"streetNumber"`
	Floor         string        `json:"floor,omitempty"`
	Apartment     string        `json:"apartment,omitempty"`
	PostalCode    string        `json:"postalCode"`
	City          string        `json:"city"`
	Province      string        `json:"province"`
	Phone         string        `json:"phone"`
	Email         string        `json:"email"`
	CoHolder      *CoHolderDTO  `json:"coHolder,omitempty"`
	CreatedAt     string        `json:"createdAt"`
	UpdatedAt     string        `json:"updatedAt"`
}

type LeadDTO struct {
	ID        uuid.UUID  `json:"id"`
	OwnerID   *uuid.UUID `json:"ownerId,omitempty"`
	FullName  string     `json:"fullName"`
	Phone     string     `json:"phone,omitempty"`
	Email     string     `json:"email,omitempty"`
	Interest  string     `json:"interest,omitempty"`
	CreatedAt string     `json:"createdAt"`
}

type EventDTO struct {
	ID          uuid.UUID  `json:"id"`
	OwnerID     *uuid.UUID `json:"ownerId,omitempty"`
	ClientID    *uuid.UUID `json:"clientId,omitempty"`
	LeadID      *uuid.UUID `json:"leadId,omitempty"`
	Kind        EventKind  `json:"kind"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	StartsAt    string     `json:"startsAt"`
	EndsAt      string     `json:"endsAt,omitempty"`
}

type NoteDTO struct {
	ID         uuid.UUID  `json:"id"`
	AuthorID   *uuid.UUID `json:"authorId,omitempty"`
	AuthorName string     `json:"authorName"`
	Body       string     `json:"body"`
	CreatedAt  string     `json:"createdAt"`
}

type ThemeDTO struct {
	Theme Theme `json:"theme"`
}

type AuditLogDTO struct {
	ID          uuid.UUID   `json:"id"`
	ActorID     *uuid.UUID  `json:"actorId,omitempty"`
	Actor       string      `json:"actor,omitempty"`
	Action      AuditAction `json:"action"`
	ActionLabel string      `json:"actionLabel"`
	TargetID    *uuid.UUID  `json:"targetId,omitempty"`
	Target      string      `json:"target,omitempty"`
	Details     string      `json:"details,omitempty"`
	IPAddress   string      `json:"ipAddress,omitempty"`
	UserAgent   string      `json:"userAgent,omitempty"`
	Timestamp   string      `json:"timestamp"`
}

type LoginResponse struct {
	AccessToken string  `json:"accessToken"`
	TokenType   string  `json:"tokenType"`
	ExpiresAt   string  `json:"expiresAt"`
	User        UserDTO `json:"user"`
}

type PurgeResponse struct {
	Deleted     int64  `json:"deleted"`
	ArchivePath string `json:"archivePath,omitempty"`
}

// Paginated response
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// Request DTOs

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Username        string `json:"username" validate:"required,max=150"`
	Email           string `json:"email" validate:"required,email,max=254"`
	FirstName       string `json:"firstName,omitempty" validate:"max=150"`
	LastName        string `json:"lastName,omitempty" validate:"max=150"`
	Password        string `json:"password" validate:"required,min=8,max=128"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

type CreateUserRequest struct {
	Username        string `json:"username" validate:"required,max=150"`
	Email           string `json:"email" validate:"required,email,max=254"`
	FirstName       string `json:"firstName,omitempty" validate:"max=150"`
	LastName        string `json:"lastName,omitempty" validate:"max=150"`
	Password        string `json:"password" validate:"required,min=8,max=128"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
	Role            Role   `json:"role,omitempty" validate:"omitempty,role"`
	IsStaff         bool   `json:"isStaff,omitempty"`
}

// UpdateProfileRequest edits profile fields. Role is only honored when an
// administrator edits another user.
type UpdateProfileRequest struct {
	FirstName string `json:"firstName" validate:"max=150"`
	LastName  string `json:"lastName" validate:"max=150"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Phone     string `json:"phone,omitempty" validate:"omitempty,phone,max=20"`
	Birthdate string `json:"birthdate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Address   string `json:"address,omitempty" validate:"max=255"`
	Notes     string `json:"notes,omitempty" validate:"max=2000"`
	Role      *Role  `json:"role,omitempty" validate:"omitempty,role"`
}

type SetRoleRequest struct {
	Role Role `json:"role" validate:"required,role"`
}

type ResetPasswordRequest struct {
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

type CoHolderRequest struct {
	FullName    string `json:"fullName" validate:"required,max=150"`
	Sex         string `json:"sex" validate:"required,oneof=M F"`
	DNI         string `json:"dni" validate:"required,number,max=15"`
	BirthDate   string `json:"birthDate" validate:"required,datetime=2006-01-02"`
	Nationality string `json:"nationality" validate:"required,oneof=argentino naturalizado extranjero"`
	Phone       string `json:"phone" validate:"required,max=30"`
	Email       string `json:"email" validate:"required,email,max=254"`
}

// IsEmpty reports whether no co-holder field carries data
func (r *CoHolderRequest) IsEmpty() bool {
	if r == nil {
		return true
	}
	for _, v := range []string{r.FullName, r.Sex, r.DNI, r.BirthDate, r.Nationality, r.Phone, r.Email} {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ClientRequest is used for both create and update. Name fields are checked
// together: either first and last name, or a company name.
type ClientRequest struct {
	OwnerID       *uuid.UUID       `json:"ownerId,omitempty"`
	FirstName     string           `json:"firstName,omitempty" validate:"max=100"`
	LastName      string           `json:"lastName,omitempty" validate:"max=100"`
	CompanyName   string           `json:"companyName,omitempty" validate:"max=150"`
	DocType       string           `json:"docType" validate:"required,oneof=LE LC DNI"`
	DocNumber     string           `json:"docNumber" validate:"required,number,max=20"`
	BirthDate     string           `json:"birthDate" validate:"required,datetime=2006-01-02"`
	Sex           string           `json:"sex" validate:"required,oneof=M F"`
	MaritalStatus string           `json:"maritalStatus" validate:"required,oneof=casado soltero divorciado"`
	Nationality   string           `json:"nationality" validate:"required,oneof=argentino naturalizado extranjero"`
	TaxCondition  string           `json:"taxCondition" validate:"required,oneof=cf ri rm exento"`
	CUIT          string           `json:"cuit" validate:"required,cuit"`
	Street        string           `json:"street" validate:"required,max=150"`
	StreetNumber  string           `json:"streetNumber" validate:"required,number,max=10"`
	Floor         string           `json:"floor,omitempty" validate:"max=10"`
	Apartment     string           `json:"apartment,omitempty" validate:"max=10"`
	PostalCode    string           `json:"postalCode" validate:"required,max=10"`
	City          string           `json:"city" validate:"required,max=100"`
	Province      string           `json:"province" validate:"required,max=100"`
	Phone         string           `json:"phone" validate:"required,max=30"`
	Email         string           `json:"email" validate:"required,email,max=254"`
	CoHolder      *CoHolderRequest `json:"coHolder,omitempty"`
}

type AssignOwnerRequest struct {
	OwnerID *uuid.UUID `json:"ownerId"`
}

type CreateNoteRequest struct {
	Body string `json:"body" validate:"required,max=5000"`
}

type LeadRequest struct {
	FullName string `json:"fullName" validate:"required,max=150"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,phone,max=30"`
	Email    string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Interest string `json:"interest,omitempty" validate:"max=255"`
}

// EventRequest schedules a calendar entry for exactly one client or lead
type EventRequest struct {
	ClientID    *uuid.UUID `json:"clientId,omitempty"`
	LeadID      *uuid.UUID `json:"leadId,omitempty"`
	Kind        EventKind  `json:"kind,omitempty" validate:"omitempty,oneof=meeting interview follow_up"`
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description,omitempty" validate:"max=5000"`
	Location    string     `json:"location,omitempty" validate:"max=200"`
	StartsAt    time.Time  `json:"startsAt" validate:"required"`
	EndsAt      *time.Time `json:"endsAt,omitempty"`
}
