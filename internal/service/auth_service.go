package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/concesionario/backoffice-api/internal/auth"
	"github.com/concesionario/backoffice-api/internal/domain"
	"github.com/concesionario/backoffice-api/internal/mapper"
	"github.com/concesionario/backoffice-api/internal/repository"
	"github.com/concesionario/backoffice-api/internal/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AuthService handles login, registration and password changes
type AuthService struct {
	users             *UserService
	userRepo          *repository.UserRepository
	tokens            *auth.TokenIssuer
	audit             *AuditLogService
	allowRegistration bool
	logger            *zap.Logger
}

func NewAuthService(
	users *UserService,
	userRepo *repository.UserRepository,
	tokens *auth.TokenIssuer,
	audit *AuditLogService,
	allowRegistration bool,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:             users,
		userRepo:          userRepo,
		tokens:            tokens,
		audit:             audit,
		allowRegistration: allowRegistration,
		logger:            logger,
	}
}

// Login checks credentials and issues an access token. Unknown users,
// inactive users and wrong passwords all return ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("load user: %w", err)
		}
		s.logger.Info("login failed", zap.String("username", req.Username), zap.String("reason", "unknown user"))
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive || !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.logger.Info("login failed", zap.String("username", req.Username), zap.Bool("active", user.IsActive))
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to update last login", zap.String("user_id", user.ID.String()), zap.Error(err))
	} else {
		user.LastLoginAt = &now
	}

	s.audit.Record(ctx, AuditEntry{
		ActorID:      &user.ID,
		Action:       domain.AuditActionLogin,
		TargetUserID: &user.ID,
		Details:      fmt.Sprintf("Inicio de sesión: %s", user.Username),
	})

	return &domain.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt.Format(time.RFC3339),
		User:        mapper.ToUserDTO(user),
	}, nil
}

// Logout records the end of a session. Tokens are stateless and stay valid
// until they expire.
func (s *AuthService) Logout(ctx context.Context, actor auth.Actor) {
	s.audit.Record(ctx, AuditEntry{
		ActorID:      &actor.UserID,
		Action:       domain.AuditActionLogout,
		TargetUserID: &actor.UserID,
		Details:      fmt.Sprintf("Cierre de sesión: %s", actor.Username),
	})
}

// Register creates an account with the default role when self-service
// registration is enabled
func (s *AuthService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.UserDTO, error) {
	if !s.allowRegistration {
		return nil, ErrRegistrationDisabled
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.users.createAccount(ctx, newAccount{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		ActorID:      &user.ID,
		Action:       domain.AuditActionCreateUser,
		TargetUserID: &user.ID,
		Details:      fmt.Sprintf("Usuario registrado: %s", user.Username),
	})

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// ChangePassword replaces the actor's own password after checking the current one
func (s *AuthService) ChangePassword(ctx context.Context, actor auth.Actor, req *domain.ChangePasswordRequest) error {
	if err := validation.Struct(req); err != nil {
		return err
	}

	user, err := s.userRepo.GetByID(ctx, actor.UserID)
	if err != nil {
		return notFound(err, ErrUserNotFound, "load user")
	}
	if !auth.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		return validation.Field("currentPassword", "Current password is incorrect")
	}

	hash, err := auth.HashPassword(req.NewPassword, s.users.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		ActorID:      &actor.UserID,
		Action:       domain.AuditActionChangePassword,
		TargetUserID: &actor.UserID,
		Details:      fmt.Sprintf("Contraseña cambiada: %s", user.Username),
	})
	return nil
}

// Me returns the authenticated user
func (s *AuthService) Me(ctx context.Context, actor auth.Actor) (*domain.UserDTO, error) {
	return s.users.Get(ctx, actor, actor.UserID)
}
