package service_test

import (
	"context"
	"testing"

	"github.com/concesionario/backoffice-api/internal/domain"
	"github.com/concesionario/backoffice-api/internal/repository"
	"github.com/concesionario/backoffice-api/internal/service"
	"github.com/concesionario/backoffice-api/internal/testutil"
	"github.com/concesionario/backoffice-api/internal/validation"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createUserRequest(username string) *domain.CreateUserRequest {
	return &domain.CreateUserRequest{
		Username:        username,
		Email:           username + "@concesionario.test",
		FirstName:       "Nuevo",
		LastName:        "Usuario",
		Password:        "secreto123",
		PasswordConfirm: "secreto123",
	}
}

func TestUserService_Create(t *testing.T) {
	svc := newServices(t, serviceOptions{})
	admin := testutil.CreateUser(t, svc.db, "admin", domain.RoleAdmin)
	vendor := testutil.CreateUser(t, svc.db, "vendor", domain.RoleVendor)
	ctx := ctxWithMeta()

	t.Run("defaults to the vendor role", func(t *testing.T) {
		user, err := svc.users.Create(ctx, testutil.Actor(admin), createUserRequest("nuevo"))
		require.NoError(t, err)
		assert.Equal(t, domain.RoleVendor, user.Role)
		assert.False(t, user.IsStaff)
		assert.True(t, user.IsActive)

		var theme domain.ThemePreference
		require.NoError(t, svc.db.Where("user_id = ?", user.ID).First(&theme).Error)
		assert.Equal(t, domain.ThemeLight, theme.Theme)

		var entry domain.AuditLog
		require.NoError(t, svc.db.Where("action = ?", domain.AuditActionCreateUser).First(&entry).Error)
		assert.Equal(t, "Usuario creado: nuevo (rol: Vendedor)", entry.Details)
		require.NotNil(t, entry.TargetUserID)
		assert.Equal(t, user.ID, *entry.TargetUserID)
	})

	t.Run("admin role grants staff", func(t *testing.T) {
		req := createUserRequest("jefe")
		req.Role = domain.RoleAdmin

		user, err := svc.users.Create(ctx, testutil.Actor(admin), req)
		require.NoError(t, err)
		assert.True(t, user.IsStaff)
	})

	t.Run("duplicate username is a conflict", func(t *testing.T) {
		req := createUserRequest("NUEVO")
		req.Email = "otro@concesionario.test"

		_, err := svc.users.Create(ctx, testutil.Actor(admin), req)
		assert.ErrorIs(t, err, service.ErrConflict)
	})

	t.Run("mismatched confirmation", func(t *testing.T) {
		req := createUserRequest("mismatch")
		req.PasswordConfirm = "otra-cosa"

		_, err := svc.users.Create(ctx, testutil.Actor(admin), req)
		errs, ok := validation.As(err)
		require.True(t, ok)
		assert.Contains(t, errs, "passwordConfirm")
	})

	t.Run("limited users cannot create accounts", func(t *testing.T) {
		_, err := svc.users.Create(ctx, testutil.Actor(vendor), createUserRequest("intruso"))
		assert.ErrorIs(t, err, service.ErrForbidden)
	})
}

func TestUserService_ToggleStaff(t *testing.T) {
	svc := newServices(t, serviceOptions{})
	admin := testutil.CreateUser(t, svc.db, "admin", domain.RoleAdmin)
	vendor := testutil.CreateUser(t, svc.db, "vendor", domain.RoleVendor)
	ctx := ctxWithMeta()

	promoted, err := svc.users.ToggleStaff(ctx, testutil.Actor(admin), vendor.ID)
	require.NoError(t, err)
	assert.True(t, promoted.IsStaff)
	assert.Equal(t, domain.RoleAdmin, promoted.Role)

	var entry domain.AuditLog
	require.NoError(t, svc.db.Where("action = ?", domain.AuditActionSetRole).First(&entry).Error)
	assert.Equal(t, "Rol cambiado: vendor (Vendedor → Administrador)", entry.Details)

	demoted, err := svc.users.ToggleStaff(ctx, testutil.Actor(admin), vendor.ID)
	require.NoError(t, err)
	assert.False(t, demoted.IsStaff)
	assert.Equal(t, domain.RoleVendor, demoted.Role)
	assert.Equal(t, int64(2), testutil.CountAuditLogs(t, svc.db, domain.AuditActionSetRole))

	_, err = svc.users.ToggleStaff(ctx, testutil.Actor(admin), admin.ID)
	assert.ErrorIs(t, err, service.ErrForbidden)
}

func TestUserService_SetRole(t *testing.T) {
	svc := newServices(t, serviceOptions{})
	root := testutil.CreateSuperuser(t, svc.db, "root")
	admin := testutil.CreateUser(t, svc.db, "admin", domain.RoleAdmin)
	vendor := testutil.CreateUser(t, svc.db, "vendor", domain.RoleVendor)
	ctx := ctxWithMeta()

	t.Run("changes the role of another user", func(t *testing.T) {
		user, err := svc.users.SetRole(ctx, testutil.Actor(admin), vendor.ID, domain.RoleAccountant)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAccountant, user.Role)
		assert.False(t, user.IsStaff)
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := svc.users.SetRole(ctx, testutil.Actor(admin), vendor.ID, domain.Role("cajero"))
		errs, ok := validation.As(err)
		require.True(t, ok)
		assert.Contains(t, errs, "role")
	})

	t.Run("own role is fixed", func(t *testing.T) {
		_, err := svc.users.SetRole(ctx, testutil.Actor(admin), admin.ID, domain.RoleVendor)
		assert.ErrorIs(t, err, service.ErrForbidden)
	})

	t.Run("plain admin cannot touch a superuser", func(t *testing.T) {
		_, err := svc.users.SetRole(ctx, testutil.Actor(admin), root.ID, domain.RoleAdmin)
		assert.ErrorIs(t, err, service.ErrForbidden)
	})

	t.Run("superuser role stays admin", func(t *testing.T) {
		other := testutil.CreateSuperuser(t, svc.db, "root2")
		_, err := svc.users.SetRole(ctx, testutil.Actor(root), other.ID, domain.RoleVendor)
		errs, ok := validation.As(err)
		require.True(t, ok)
		assert.Contains(t, errs, "role")
	})

	t.Run("limited users cannot change roles", func(t *testing.T) {
		_, err := svc.users.SetRole(ctx, testutil.Actor(vendor), admin.ID, domain.RoleVendor)
		assert.ErrorIs(t, err, service.ErrForbidden)
	})
}

func TestUserService_UpdateProfile(t *testing.T) {
	svc := newServices(t, serviceOptions{})
	admin := testutil.CreateUser(t, svc.db, "admin", domain.RoleAdmin)
	vendor := testutil.CreateUser(t, svc.db, "vendor", domain.RoleVendor)
	other := testutil.CreateUser(t, svc.db, "other", domain.RoleVendor)
	ctx := ctxWithMeta()

	t.Run("user edits own profile", func(t *testing.T) {
		user, err := svc.users.UpdateProfile(ctx, testutil.Actor(vendor), vendor.ID, &domain.UpdateProfileRequest{
			FirstName: "Carlos",
			LastName:  "Diaz",
			Email:     "carlos@concesionario.test",
			Birthdate: "1990-05-01",
		})
		require.NoError(t, err)
		assert.Equal(t, "Carlos Diaz", user.FullName)
		assert.Equal(t, "1990-05-01", user.Birthdate)
		assert.Equal(t, int64(1), testutil.CountAuditLogs(t, svc.db, domain.AuditActionUpdateProfile))
	})

	t.Run("user cannot change own role", func(t *testing.T) {
		role := domain.RoleAdmin
		_, err := svc.users.UpdateProfile(ctx, testutil.Actor(vendor), vendor.ID, &domain.UpdateProfileRequest{
			Email: "carlos@concesionario.test",
			Role:  &role,
		})
		assert.ErrorIs(t, err, service.ErrForbidden)
	})

	t.Run("user cannot edit another profile", func(t *testing.T) {
		_, err := svc.users.UpdateProfile(ctx, testutil.Actor(vendor), other.ID, &domain.UpdateProfileRequest{
			Email: "x@concesionario.test",
		})
		assert.ErrorIs(t, err, service.ErrForbidden)
	})

	t.Run("email must stay unique", func(t *testing.T) {
		_, err := svc.users.UpdateProfile(ctx, testutil.Actor(other), other.ID, &domain.UpdateProfileRequest{
			Email: "CARLOS@concesionario.test",
		})
		assert.ErrorIs(t, err, service.ErrConflict)
	})

	t.Run("admin changes a role through the profile", func(t *testing.T) {
		role := domain.RoleSupervisor
		user, err := svc.users.UpdateProfile(ctx, testutil.Actor(admin), other.ID, &domain.UpdateProfileRequest{
			Email: other.Email,
			Role:  &role,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleSupervisor, user.Role)
		assert.Equal(t, int64(1), testutil.CountAuditLogs(t, svc.db, domain.AuditActionSetRole))
	})
}

func TestUserService_Delete(t *testing.T) {
	svc := newServices(t, serviceOptions{})
	admin := testutil.CreateUser(t, svc.db, "admin", domain.RoleAdmin)
	vendor := testutil.CreateUser(t, svc.db, "vendor", domain.RoleVendor)
	ctx := ctxWithMeta()

	client := testutil.CreateClient(t, svc.db, vendor, "Gomez")
	_, err := svc.clients.AddNote(ctx, testutil.Actor(vendor), client.ID, &domain.CreateNoteRequest{Body: "Primera visita"})
	require.NoError(t, err)
	_, err = svc.clients.Update(ctx, testutil.Actor(vendor), client.ID, testutil.ClientRequest())
	require.NoError(t, err)

	require.ErrorIs(t, svc.users.Delete(ctx, testutil.Actor(admin), admin.ID), service.ErrForbidden)
	require.NoError(t, svc.users.Delete(ctx, testutil.Actor(admin), vendor.ID))

	_, err = svc.users.Get(ctx, testutil.Actor(admin), vendor.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	loaded, err := svc.clients.Get(ctx, testutil.Actor(admin), client.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded.OwnerID)

	notes, err := svc.clients.ListNotes(ctx, testutil.Actor(admin), client.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Nil(t, notes[0].AuthorID)
	assert.Equal(t, "Sistema", notes[0].AuthorName)

	var update domain.AuditLog
	require.NoError(t, svc.db.Where("action = ?", domain.AuditActionUpdateClient).First(&update).Error)
	assert.Nil(t, update.ActorID)

	var deletion domain.AuditLog
	require.NoError(t, svc.db.Where("action = ?", domain.AuditActionDeleteUser).First(&deletion).Error)
	assert.Equal(t, "Usuario eliminado: vendor", deletion.Details)
	assert.Nil(t, deletion.TargetUserID)

	var themes int64
	require.NoError(t, svc.db.Model(&domain.ThemePreference{}).Where("user_id = ?", vendor.ID).Count(&themes).Error)
	assert.Zero(t, themes)
}

func TestUserService_GetAndList(t *testing.T) {
	svc := newServices(t, serviceOptions{})
	admin := testutil.CreateUser(t, svc.db, "admin", domain.RoleAdmin)
	vendor := testutil.CreateUser(t, svc.db, "vendor", domain.RoleVendor)
	ctx := context.Background()

	_, err := svc.users.Get(ctx, testutil.Actor(vendor), vendor.ID)
	assert.NoError(t, err)

	_, err = svc.users.Get(ctx, testutil.Actor(vendor), admin.ID)
	assert.ErrorIs(t, err, service.ErrForbidden)

	_, err = svc.users.Get(ctx, testutil.Actor(admin), uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)

	page, err := svc.users.List(ctx, testutil.Actor(admin), "VEND", repository.NewPage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	_, err = svc.users.List(ctx, testutil.Actor(vendor), "", repository.NewPage(1, 10))
	assert.ErrorIs(t, err, service.ErrForbidden)
}

func TestUserService_EnsureSuperuser(t *testing.T) {
	svc := newServices(t, serviceOptions{})
	ctx := context.Background()

	created, err := svc.users.EnsureSuperuser(ctx, "Arkangel", "arkangel@concesionario.test", "cambiar123")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.users.EnsureSuperuser(ctx, "arkangel", "otro@concesionario.test", "cambiar123")
	require.NoError(t, err)
	assert.False(t, created, "username match ignores case")

	var user domain.User
	require.NoError(t, svc.db.Where("username = ?", "Arkangel").First(&user).Error)
	assert.True(t, user.IsSuperuser)
	assert.True(t, user.IsStaff)
	assert.Equal(t, domain.RoleAdmin, user.Role)

	var themes int64
	require.NoError(t, svc.db.Model(&domain.ThemePreference{}).Where("user_id = ?", user.ID).Count(&themes).Error)
	assert.Equal(t, int64(1), themes)
	assert.Zero(t, testutil.CountAuditLogs(t, svc.db, domain.AuditActionCreateUser), "seeding is not audited")

	created, err = svc.users.EnsureUser(ctx, "usuario1", "usuario1@concesionario.test", "Password123", domain.DefaultRole)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestUserService_DeleteSuperuserRequiresSuperuser(t *testing.T) {
	svc := newServices(t, serviceOptions{})
	admin := testutil.CreateUser(t, svc.db, "admin", domain.RoleAdmin)
	root := testutil.CreateSuperuser(t, svc.db, "root")
	other := testutil.CreateSuperuser(t, svc.db, "root2")
	ctx := context.Background()

	assert.ErrorIs(t, svc.users.Delete(ctx, testutil.Actor(admin), root.ID), service.ErrForbidden)
	assert.ErrorIs(t, svc.users.Delete(ctx, testutil.Actor(root), root.ID), service.ErrForbidden)
	assert.NoError(t, svc.users.Delete(ctx, testutil.Actor(root), other.ID))
}
