package service_test

import (
	"testing"

	"github.com/concesionario/backoffice-api/internal/domain"
	"github.com/concesionario/backoffice-api/internal/service"
	"github.com/concesionario/backoffice-api/internal/testutil"
	"github.com/concesionario/backoffice-api/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_Login(t *testing.T) {
	svc := newServices(t, serviceOptions{})
	ctx := ctxWithMeta()

	created, err := svc.users.EnsureUser(ctx, "usuario1", "usuario1@concesionario.test", "secreto123", domain.RoleVendor)
	require.NoError(t, err)
	require.True(t, created)

	t.Run("valid credentials", func(t *testing.T) {
		resp, err := svc.auth.Login(ctx, &domain.LoginRequest{Username: "usuario1", Password: "secreto123"})
		require.NoError(t, err)
		assert.Equal(t, "Bearer", resp.TokenType)
		assert.NotEmpty(t, resp.ExpiresAt)
		assert.NotEmpty(t, resp.User.LastLoginAt)

		userID, claims, err := svc.tokens.Parse(resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, resp.User.ID, userID)
		assert.Equal(t, "usuario1", claims.Username)

		var entry domain.AuditLog
		require.NoError(t, svc.db.Where("action = ?", domain.AuditActionLogin).First(&entry).Error)
		assert.Equal(t, "Inicio de sesión: usuario1", entry.Details)
		assert.Equal(t, "10.0.0.7", entry.IPAddress)
	})

	t.Run("failures look the same", func(t *testing.T) {
		inactive := testutil.CreateUser(t, svc.db, "inactivo", domain.RoleVendor)
		require.NoError(t, svc.db.Model(inactive).Update("is_active", false).Error)

		for _, req := range []*domain.LoginRequest{
			{Username: "usuario1", Password: "incorrecta"},
			{Username: "nadie", Password: "secreto123"},
			{Username: "inactivo", Password: "not-a-real-hash"},
		} {
			_, err := svc.auth.Login(ctx, req)
			assert.ErrorIs(t, err, service.ErrInvalidCredentials, req.Username)
		}
		assert.Equal(t, int64(1), testutil.CountAuditLogs(t, svc.db, domain.AuditActionLogin))
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := svc.auth.Login(ctx, &domain.LoginRequest{})
		errs, ok := validation.As(err)
		require.True(t, ok)
		assert.Contains(t, errs, "username")
		assert.Contains(t, errs, "password")
	})
}

func TestAuthService_ChangePassword(t *testing.T) {
	svc := newServices(t, serviceOptions{})
	ctx := ctxWithMeta()

	_, err := svc.users.EnsureUser(ctx, "usuario1", "usuario1@concesionario.test", "secreto123", domain.RoleVendor)
	require.NoError(t, err)
	login, err := svc.auth.Login(ctx, &domain.LoginRequest{Username: "usuario1", Password: "secreto123"})
	require.NoError(t, err)

	var user domain.User
	require.NoError(t, svc.db.First(&user, "id = ?", login.User.ID).Error)
	actor := testutil.Actor(&user)

	err = svc.auth.ChangePassword(ctx, actor, &domain.ChangePasswordRequest{
		CurrentPassword: "equivocada",
		NewPassword:     "nuevaClave1",
		ConfirmPassword: "nuevaClave1",
	})
	errs, ok := validation.As(err)
	require.True(t, ok)
	assert.Contains(t, errs, "currentPassword")

	require.NoError(t, svc.auth.ChangePassword(ctx, actor, &domain.ChangePasswordRequest{
		CurrentPassword: "secreto123",
		NewPassword:     "nuevaClave1",
		ConfirmPassword: "nuevaClave1",
	}))
	assert.Equal(t, int64(1), testutil.CountAuditLogs(t, svc.db, domain.AuditActionChangePassword))

	_, err = svc.auth.Login(ctx, &domain.LoginRequest{Username: "usuario1", Password: "secreto123"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = svc.auth.Login(ctx, &domain.LoginRequest{Username: "usuario1", Password: "nuevaClave1"})
	assert.NoError(t, err)
}

func TestAuthService_Register(t *testing.T) {
	req := &domain.RegisterRequest{
		Username:        "nuevo",
		Email:           "nuevo@concesionario.test",
		Password:        "secreto123",
		PasswordConfirm: "secreto123",
	}

	t.Run("disabled", func(t *testing.T) {
		svc := newServices(t, serviceOptions{})
		_, err := svc.auth.Register(ctxWithMeta(), req)
		assert.ErrorIs(t, err, service.ErrRegistrationDisabled)
	})

	t.Run("enabled", func(t *testing.T) {
		svc := newServices(t, serviceOptions{allowRegistration: true})
		user, err := svc.auth.Register(ctxWithMeta(), req)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleVendor, user.Role)
		assert.False(t, user.IsStaff)

		var entry domain.AuditLog
		require.NoError(t, svc.db.Where("action = ?", domain.AuditActionCreateUser).First(&entry).Error)
		assert.Equal(t, "Usuario registrado: nuevo", entry.Details)
	})
}

func TestAuthService_LogoutAndMe(t *testing.T) {
	svc := newServices(t, serviceOptions{})
	vendor := testutil.CreateUser(t, svc.db, "vendor", domain.RoleVendor)
	ctx := ctxWithMeta()

	me, err := svc.auth.Me(ctx, testutil.Actor(vendor))
	require.NoError(t, err)
	assert.Equal(t, "vendor", me.Username)

	svc.auth.Logout(ctx, testutil.Actor(vendor))
	assert.Equal(t, int64(1), testutil.CountAuditLogs(t, svc.db, domain.AuditActionLogout))
}
