package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns an ID when the caller did not provide one
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Role is the business role held by a user. Values are stored and sent on the wire as-is.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleVendor     Role = "vendedor"
	RoleNegotiator Role = "negociador"
	RoleSupervisor Role = "supervisor"
	RoleManager    Role = "gestor"
	RoleAccountant Role = "contable"
	RoleMarketing  Role = "marqueting"
)

// DefaultRole is assigned on user creation and when staff status is revoked
const DefaultRole = RoleVendor

var roleLabels = map[Role]string{
	RoleAdmin:      "Administrador",
	RoleVendor:     "Vendedor",
	RoleNegotiator: "Negociador",
	RoleSupervisor: "Supervisor",
	RoleManager:    "Gestor",
	RoleAccountant: "Contable",
	RoleMarketing:  "Marketing",
}

// AllRoles returns every role in display order
func AllRoles() []Role {
	return []Role{RoleAdmin, RoleSupervisor, RoleVendor, RoleNegotiator, RoleManager, RoleAccountant, RoleMarketing}
}

// IsValid checks if the role is one of the known values
func (r Role) IsValid() bool {
	_, ok := roleLabels[r]
	return ok
}

// Label returns the human readable name of the role
func (r Role) Label() string {
	if label, ok := roleLabels[r]; ok {
		return label
	}
	return string(r)
}

// User is an authenticated back-office account. Profile fields live on the
// same row so a user can never exist without a role.
type User struct {
	BaseModel
	Username     string     `gorm:"type:varchar(150);not null;uniqueIndex"`
	Email        string     `gorm:"type:varchar(254);not null;uniqueIndex"`
	PasswordHash string     `gorm:"type:varchar(255);not null;column:password_hash"`
	FirstName    string     `gorm:"type:varchar(150)"`
	LastName     string     `gorm:"type:varchar(150)"`
	Role         Role       `gorm:"type:varchar(20);not null;default:'vendedor'"`
	IsStaff      bool       `gorm:"not null;default:false"`
	IsSuperuser  bool       `gorm:"not null;default:false"`
	IsActive     bool       `gorm:"not null"`
	Phone        string     `gorm:"type:varchar(20)"`
	Birthdate    *time.Time `gorm:"type:date"`
	Address      string     `gorm:"type:varchar(255)"`
	Notes        string     `gorm:"type:text"`
	LastLoginAt  *time.Time
}

// FullName returns the user's name, falling back to the username
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// SetStaff changes the staff flag and keeps the role in sync with it:
// staff and superusers are always admins, and revoking staff drops the
// user back to the default role.
func (u *User) SetStaff(staff bool) {
	wasStaff := u.IsStaff
	u.IsStaff = staff
	switch {
	case u.IsStaff || u.IsSuperuser:
		u.Role = RoleAdmin
	case wasStaff:
		u.Role = DefaultRole
	}
}

// DocType is the kind of national identity document
type DocType string

const (
	DocTypeLE  DocType = "LE"
	DocTypeLC  DocType = "LC"
	DocTypeDNI DocType = "DNI"
)

// Sex as recorded on identity documents
type Sex string

const (
	SexMale   Sex = "M"
	SexFemale Sex = "F"
)

type MaritalStatus string

const (
	MaritalStatusMarried  MaritalStatus = "casado"
	MaritalStatusSingle   MaritalStatus = "soltero"
	MaritalStatusDivorced MaritalStatus = "divorciado"
)

type Nationality string

const (
	NationalityArgentine   Nationality = "argentino"
	NationalityNaturalized Nationality = "naturalizado"
	NationalityForeign     Nationality = "extranjero"
)

// TaxCondition is the client's standing with the tax authority
type TaxCondition string

const (
	TaxConditionFinalConsumer TaxCondition = "cf"
	TaxConditionRegistered    TaxCondition = "ri"
	TaxConditionMonotributo   TaxCondition = "rm"
	TaxConditionExempt        TaxCondition = "exento"
)

// Client is a customer record. OwnerID is nil for unassigned clients.
type Client struct {
	BaseModel
	OwnerID       *uuid.UUID     `gorm:"type:uuid;index"`
	Owner         *User          `gorm:"foreignKey:OwnerID"`
	FirstName     string         `gorm:"type:varchar(100)"`
	LastName      string         `gorm:"type:varchar(100)"`
	CompanyName   string         `gorm:"type:varchar(150)"`
	DocType       DocType        `gorm:"type:varchar(3);not null"`
	DocNumber     string         `gorm:"type:varchar(20);not null"`
	BirthDate     time.Time      `gorm:"type:date;not null"`
	Sex           Sex            `gorm:"type:varchar(1);not null"`
	MaritalStatus MaritalStatus  `gorm:"type:varchar(10);not null"`
	Nationality   Nationality    `gorm:"type:varchar(20);not null"`
	TaxCondition  TaxCondition   `gorm:"type:varchar(10);not null"`
	CUIT          string         `gorm:"column:cuit;type:varchar(11);not null;index"`
	Street        string         `gorm:"type:varchar(150);not null"`
	StreetNumber  string         `gorm:"type:varchar(10);not null"`
	Floor         string         `gorm:"type:varchar(10)"`
	Apartment     string         `gorm:"type:varchar(10)"`
	PostalCode    string         `gorm:"type:varchar(10);not null"`
	City          string         `gorm:"type:varchar(100);not null"`
	Province      string         `gorm:"type:varchar(100);not null"`
	Phone         string         `gorm:"type:varchar(30);not null"`
	Email         string         `gorm:"type:varchar(254);not null"`
	CoHolder      *CoHolder      `gorm:"foreignKey:ClientID"`
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

// DisplayName returns the company name, or the person's name for individuals
func (c *Client) DisplayName() string {
	if c.CompanyName != "" {
		return c.CompanyName
	}
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// CoHolder is the optional co-signer of a client
type CoHolder struct {
	BaseModel
	ClientID    uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex"`
	FullName    string      `gorm:"type:varchar(150);not null"`
	Sex         Sex         `gorm:"type:varchar(1);not null"`
	DNI         string      `gorm:"column:dni;type:varchar(15);not null"`
	BirthDate   time.Time   `gorm:"type:date;not null"`
	Nationality Nationality `gorm:"type:varchar(20);not null"`
	Phone       string      `gorm:"type:varchar(30);not null"`
	Email       string      `gorm:"type:varchar(254);not null"`
}

// Lead is a prospective client that has not been fully registered yet
type Lead struct {
	BaseModel
	OwnerID  *uuid.UUID `gorm:"type:uuid;index"`
	Owner    *User      `gorm:"foreignKey:OwnerID"`
	FullName string     `gorm:"type:varchar(150);not null"`
	Phone    string     `gorm:"type:varchar(30)"`
	Email    string     `gorm:"type:varchar(254)"`
	Interest string     `gorm:"type:varchar(255)"`
}

// EventKind classifies calendar entries
type EventKind string

const (
	EventKindMeeting   EventKind = "meeting"
	EventKindInterview EventKind = "interview"
	EventKindFollowUp  EventKind = "follow_up"
)

// IsValid checks if the event kind is valid
func (k EventKind) IsValid() bool {
	switch k {
	case EventKindMeeting, EventKindInterview, EventKindFollowUp:
		return true
	}
	return false
}

// ClientEvent is a scheduled meeting with a client or a lead
type ClientEvent struct {
	BaseModel
	OwnerID     *uuid.UUID `gorm:"type:uuid;index"`
	Owner       *User      `gorm:"foreignKey:OwnerID"`
	ClientID    *uuid.UUID `gorm:"type:uuid;index"`
	Client      *Client    `gorm:"foreignKey:ClientID"`
	LeadID      *uuid.UUID `gorm:"type:uuid;index"`
	Lead        *Lead      `gorm:"foreignKey:LeadID"`
	Kind        EventKind  `gorm:"type:varchar(20);not null"`
	Title       string     `gorm:"type:varchar(200);not null"`
	Description string     `gorm:"type:text"`
	Location    string     `gorm:"type:varchar(200)"`
	StartsAt    time.Time  `gorm:"not null;index"`
	EndsAt      *time.Time
}

// ClientNote is an append-only note on a client or lead. AuthorID is nil for
// system notes and for notes whose author was deleted.
type ClientNote struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ClientID  *uuid.UUID `gorm:"type:uuid;index"`
	LeadID    *uuid.UUID `gorm:"type:uuid;index"`
	AuthorID  *uuid.UUID `gorm:"type:uuid"`
	Author    *User      `gorm:"foreignKey:AuthorID"`
	Body      string     `gorm:"type:text;not null"`
	CreatedAt time.Time  `gorm:"not null;index"`
}

func (n *ClientNote) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// Theme is the UI color scheme
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ThemePreference stores the UI theme of a single user
type ThemePreference struct {
	BaseModel
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Theme  Theme     `gorm:"type:varchar(10);not null;default:'light'"`
}

// Toggle switches between light and dark
func (p *ThemePreference) Toggle() {
	if p.Theme == ThemeDark {
		p.Theme = ThemeLight
		return
	}
	p.Theme = ThemeDark
}

// AuditAction represents the type of audit action
type AuditAction string

const (
	AuditActionLogin          AuditAction = "login"
	AuditActionLogout         AuditAction = "logout"
	AuditActionCreateUser     AuditAction = "create_user"
	AuditActionUpdateProfile  AuditAction = "update_profile"
	AuditActionChangePassword AuditAction = "change_password"
	AuditActionSetRole        AuditAction = "set_role"
	AuditActionDeleteUser     AuditAction = "delete_user"
	AuditActionResetPassword  AuditAction = "reset_password"
	AuditActionCreateClient   AuditAction = "create_client"
	AuditActionUpdateClient   AuditAction = "update_client"
	AuditActionDeleteClient   AuditAction = "delete_client"
)

var auditActionLabels = map[AuditAction]string{
	AuditActionLogin:          "Login",
	AuditActionLogout:         "Logout",
	AuditActionCreateUser:     "Crear usuario",
	AuditActionUpdateProfile:  "Actualizar perfil",
	AuditActionChangePassword: "Cambiar contraseña",
	AuditActionSetRole:        "Cambiar rol",
	AuditActionDeleteUser:     "Eliminar usuario",
	AuditActionResetPassword:  "Resetear contraseña",
	AuditActionCreateClient:   "Crear cliente",
	AuditActionUpdateClient:   "Actualizar cliente",
	AuditActionDeleteClient:   "Eliminar cliente",
}

// AllAuditActions returns every action identifier
func AllAuditActions() []AuditAction {
	return []AuditAction{
		AuditActionLogin, AuditActionLogout, AuditActionCreateUser, AuditActionUpdateProfile,
		AuditActionChangePassword, AuditActionSetRole, AuditActionDeleteUser, AuditActionResetPassword,
		AuditActionCreateClient, AuditActionUpdateClient, AuditActionDeleteClient,
	}
}

// IsValid checks if the audit action is valid
func (a AuditAction) IsValid() bool {
	_, ok := auditActionLabels[a]
	return ok
}

// Label returns the human readable name of the action
func (a AuditAction) Label() string {
	if label, ok := auditActionLabels[a]; ok {
		return label
	}
	return string(a)
}

// AuditLog represents an audit trail entry. Rows are never updated.
type AuditLog struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey"`
	ActorID      *uuid.UUID  `gorm:"type:uuid;index:idx_audit_logs_actor"`
	Actor        *User       `gorm:"foreignKey:ActorID"`
	Action       AuditAction `gorm:"type:varchar(50);not null;index:idx_audit_logs_action"`
	TargetUserID *uuid.UUID  `gorm:"type:uuid"`
	TargetUser   *User       `gorm:"foreignKey:TargetUserID"`
	Details      string      `gorm:"type:text"`
	IPAddress    string      `gorm:"type:varchar(45);column:ip_address"`
	UserAgent    string      `gorm:"type:text"`
	Timestamp    time.Time   `gorm:"not null;index"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
