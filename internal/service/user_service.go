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
	"gorm.io/gorm"
)

// UserRepositories groups the repositories touched by user lifecycle writes
type UserRepositories struct {
	Users   *repository.UserRepository
	Themes  *repository.ThemeRepository
	Clients *repository.ClientRepository
	Leads   *repository.LeadRepository
	Events  *repository.EventRepository
	Notes   *repository.NoteRepository
	Audit   *repository.AuditLogRepository
}

func (r UserRepositories) withTx(tx *gorm.DB) UserRepositories {
	return UserRepositories{
		Users:   r.Users.WithTx(tx),
		Themes:  r.Themes.WithTx(tx),
		Clients: r.Clients.WithTx(tx),
		Leads:   r.Leads.WithTx(tx),
		Events:  r.Events.WithTx(tx),
		Notes:   r.Notes.WithTx(tx),
		Audit:   r.Audit.WithTx(tx),
	}
}

// UserService manages accounts, roles and profiles
type UserService struct {
	db         *gorm.DB
	repos      UserRepositories
	audit      *AuditLogService
	bcryptCost int
	logger     *zap.Logger
}

func NewUserService(db *gorm.DB, repos UserRepositories, audit *AuditLogService, bcryptCost int, logger *zap.Logger) *UserService {
	return &UserService{
		db:         db,
		repos:      repos,
		audit:      audit,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// newAccount is the input shared by admin creation, registration and seeding
type newAccount struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
	Role      domain.Role
	IsStaff   bool
	Superuser bool
}

// createAccount inserts the user and its theme preference in one
// transaction. It does not record an audit entry.
func (s *UserService) createAccount(ctx context.Context, in newAccount) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)

	if err := s.checkUnique(ctx, username, email, uuid.Nil); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	role := in.Role
	if role == "" {
		role = domain.DefaultRole
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Role:         role,
		IsSuperuser:  in.Superuser,
		IsActive:     true,
	}
	user.SetStaff(in.IsStaff || in.Superuser || role == domain.RoleAdmin)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.repos.withTx(tx)
		if err := repos.Users.Create(ctx, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		if err := repos.Themes.Create(ctx, &domain.ThemePreference{UserID: user.ID, Theme: domain.ThemeLight}); err != nil {
			return fmt.Errorf("create theme preference: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) checkUnique(ctx context.Context, username, email string, exclude uuid.UUID) error {
	if username != "" {
		taken, err := s.repos.Users.UsernameTaken(ctx, username, exclude)
		if err != nil {
			return fmt.Errorf("check username: %w", err)
		}
		if taken {
			return fmt.Errorf("%w: username %q is already in use", ErrConflict, username)
		}
	}
	if email != "" {
		taken, err := s.repos.Users.EmailTaken(ctx, email, exclude)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if taken {
			return fmt.Errorf("%w: email %q is already in use", ErrConflict, email)
		}
	}
	return nil
}

// Create adds a user on behalf of an administrator
func (s *UserService) Create(ctx context.Context, actor auth.Actor, req *domain.CreateUserRequest) (*domain.UserDTO, error) {
	if !actor.CanAdminister() {
		return nil, ErrForbidden
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.createAccount(ctx, newAccount{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
		Role:      req.Role,
		IsStaff:   req.IsStaff,
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		ActorID:      &actor.UserID,
		Action:       domain.AuditActionCreateUser,
		TargetUserID: &user.ID,
		Details:      fmt.Sprintf("Usuario creado: %s (rol: %s)", user.Username, user.Role.Label()),
	})

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// EnsureSuperuser creates the superuser account if no user has that username.
// It returns true when an account was created.
func (s *UserService) EnsureSuperuser(ctx context.Context, username, email, password string) (bool, error) {
	exists, err := s.repos.Users.UsernameTaken(ctx, username, uuid.Nil)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	if exists {
		return false, nil
	}

	_, err = s.createAccount(ctx, newAccount{
		Username:  username,
		Email:     email,
		Password:  password,
		Role:      domain.RoleAdmin,
		Superuser: true,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// EnsureUser creates a regular account with role if the username is free.
// It returns true when an account was created.
func (s *UserService) EnsureUser(ctx context.Context, username, email, password string, role domain.Role) (bool, error) {
	exists, err := s.repos.Users.UsernameTaken(ctx, username, uuid.Nil)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	if exists {
		return false, nil
	}

	_, err = s.createAccount(ctx, newAccount{
		Username: username,
		Email:    email,
		Password: password,
		Role:     role,
	})
	return err == nil, err
}

// Get returns a user. Administrators may read anyone; others only themselves.
func (s *UserService) Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*domain.UserDTO, error) {
	if !actor.CanAdminister() && !actor.Is(id) {
		return nil, ErrForbidden
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// List returns users whose username or email contains search
func (s *UserService) List(ctx context.Context, actor auth.Actor, search string, page repository.Page) (*domain.PaginatedResponse, error) {
	if !actor.CanAdminister() {
		return nil, ErrForbidden
	}
	users, total, err := s.repos.Users.List(ctx, search, page)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	dtos := make([]domain.UserDTO, len(users))
	for i := range users {
		dtos[i] = mapper.ToUserDTO(&users[i])
	}
	resp := mapper.ToPaginatedResponse(dtos, total, page.Number, page.Size)
	return &resp, nil
}

// UpdateProfile edits profile fields of id. A user editing their own
// profile cannot change their role; an administrator editing someone else
// may, under the same rules as SetRole.
func (s *UserService) UpdateProfile(ctx context.Context, actor auth.Actor, id uuid.UUID, req *domain.UpdateProfileRequest) (*domain.UserDTO, error) {
	self := actor.Is(id)
	if !self && !actor.CanAdminister() {
		return nil, ErrForbidden
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := guardSuperuserTarget(actor, user); err != nil {
		return nil, err
	}

	roleChanged := req.Role != nil && *req.Role != user.Role
	if roleChanged {
		if self {
			return nil, fmt.Errorf("%w: users cannot change their own role", ErrForbidden)
		}
		if user.IsSuperuser {
			return nil, validation.Field("role", "The role of a superuser is fixed to admin")
		}
	}

	email := strings.TrimSpace(req.Email)
	if err := s.checkUnique(ctx, "", email, user.ID); err != nil {
		return nil, err
	}

	var birthdate *time.Time
	if req.Birthdate != "" {
		parsed, err := time.Parse("2006-01-02", req.Birthdate)
		if err != nil {
			return nil, validation.Field("birthdate", domain.GetValidationMessage("datetime"))
		}
		birthdate = &parsed
	}

	previousRole := user.Role
	user.FirstName = strings.TrimSpace(req.FirstName)
	user.LastName = strings.TrimSpace(req.LastName)
	user.Email = email
	user.Phone = strings.TrimSpace(req.Phone)
	user.Birthdate = birthdate
	user.Address = strings.TrimSpace(req.Address)
	user.Notes = req.Notes
	if roleChanged {
		applyRole(user, *req.Role)
	}

	if err := s.repos.Users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		ActorID:      &actor.UserID,
		Action:       domain.AuditActionUpdateProfile,
		TargetUserID: &user.ID,
		Details:      fmt.Sprintf("Perfil actualizado: %s", user.Username),
	})
	if roleChanged {
		s.recordRoleChange(ctx, actor, user, previousRole)
	}

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// SetRole changes the role of another user
func (s *UserService) SetRole(ctx context.Context, actor auth.Actor, id uuid.UUID, role domain.Role) (*domain.UserDTO, error) {
	if !actor.CanAdminister() {
		return nil, ErrForbidden
	}
	if actor.Is(id) {
		return nil, fmt.Errorf("%w: users cannot change their own role", ErrForbidden)
	}
	if !role.IsValid() {
		return nil, validation.Field("role", domain.GetValidationMessage("role"))
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := guardSuperuserTarget(actor, user); err != nil {
		return nil, err
	}
	if user.IsSuperuser && role != domain.RoleAdmin {
		return nil, validation.Field("role", "The role of a superuser is fixed to admin")
	}

	previous := user.Role
	applyRole(user, role)
	if err := s.repos.Users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("set role: %w", err)
	}

	s.recordRoleChange(ctx, actor, user, previous)

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// ToggleStaff flips the staff flag of another user. Turning it on promotes
// the user to admin; turning it off demotes to the default role.
func (s *UserService) ToggleStaff(ctx context.Context, actor auth.Actor, id uuid.UUID) (*domain.UserDTO, error) {
	if !actor.CanAdminister() {
		return nil, ErrForbidden
	}
	if actor.Is(id) {
		return nil, fmt.Errorf("%w: users cannot change their own staff flag", ErrForbidden)
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := guardSuperuserTarget(actor, user); err != nil {
		return nil, err
	}

	previous := user.Role
	user.SetStaff(!user.IsStaff)
	if err := s.repos.Users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("toggle staff: %w", err)
	}

	if user.Role != previous {
		s.recordRoleChange(ctx, actor, user, previous)
	}

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// ResetPassword sets a new password for another user
func (s *UserService) ResetPassword(ctx context.Context, actor auth.Actor, id uuid.UUID, req *domain.ResetPasswordRequest) error {
	if !actor.CanAdminister() {
		return ErrForbidden
	}
	if err := validation.Struct(req); err != nil {
		return err
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := guardSuperuserTarget(actor, user); err != nil {
		return err
	}

	hash, err := auth.HashPassword(req.NewPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.repos.Users.Update(ctx, user); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		ActorID:      &actor.UserID,
		Action:       domain.AuditActionResetPassword,
		TargetUserID: &user.ID,
		Details:      fmt.Sprintf("Contraseña reseteada: %s", user.Username),
	})
	return nil
}

// Delete removes a user. Records the user owned or authored are kept and
// left without owner; audit entries lose their reference to the user.
func (s *UserService) Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	if !actor.CanAdminister() {
		return ErrForbidden
	}
	if actor.Is(id) {
		return fmt.Errorf("%w: users cannot delete themselves", ErrForbidden)
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := guardSuperuserTarget(actor, user); err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.repos.withTx(tx)
		if err := repos.Clients.ClearOwner(ctx, id); err != nil {
			return fmt.Errorf("release clients: %w", err)
		}
		if err := repos.Leads.ClearOwner(ctx, id); err != nil {
			return fmt.Errorf("release leads: %w", err)
		}
		if err := repos.Events.ClearOwner(ctx, id); err != nil {
			return fmt.Errorf("release events: %w", err)
		}
		if err := repos.Notes.ClearAuthor(ctx, id); err != nil {
			return fmt.Errorf("release notes: %w", err)
		}
		if err := repos.Audit.ClearUser(ctx, id); err != nil {
			return fmt.Errorf("release audit entries: %w", err)
		}
		if err := repos.Themes.DeleteByUserID(ctx, id); err != nil {
			return fmt.Errorf("delete theme preference: %w", err)
		}
		if err := repos.Users.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, AuditEntry{
		ActorID: &actor.UserID,
		Action:  domain.AuditActionDeleteUser,
		Details: fmt.Sprintf("Usuario eliminado: %s", user.Username),
	})
	return nil
}

func (s *UserService) load(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.repos.Users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound, "load user")
	}
	return user, nil
}

func (s *UserService) recordRoleChange(ctx context.Context, actor auth.Actor, user *domain.User, previous domain.Role) {
	s.audit.Record(ctx, AuditEntry{
		ActorID:      &actor.UserID,
		Action:       domain.AuditActionSetRole,
		TargetUserID: &user.ID,
		Details:      fmt.Sprintf("Rol cambiado: %s (%s → %s)", user.Username, previous.Label(), user.Role.Label()),
	})
}

// applyRole sets role and keeps the staff flag in sync with it
func applyRole(user *domain.User, role domain.Role) {
	user.Role = role
	user.IsStaff = role == domain.RoleAdmin
}

// guardSuperuserTarget stops administrators without the superuser flag from
// modifying superuser accounts
func guardSuperuserTarget(actor auth.Actor, target *domain.User) error {
	if target.IsSuperuser && !actor.IsSuperuser && !actor.Is(target.ID) {
		return fmt.Errorf("%w: only a superuser can modify a superuser", ErrForbidden)
	}
	return nil
}
