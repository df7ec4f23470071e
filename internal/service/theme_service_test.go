package service_test

import (
	"context"
	"testing"

	"github.com/concesionario/backoffice-api/internal/domain"
	"github.com/concesionario/backoffice-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThemeService(t *testing.T) {
	svc := newServices(t, serviceOptions{})
	ctx := context.Background()

	user := testutil.CreateUser(t, svc.db, "vendor", domain.RoleVendor)
	actor := testutil.Actor(user)

	theme, err := svc.themes.Get(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeLight, theme.Theme)

	theme, err = svc.themes.Toggle(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeDark, theme.Theme)

	theme, err = svc.themes.Get(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeDark, theme.Theme)

	theme, err = svc.themes.Toggle(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeLight, theme.Theme)
}

func TestThemeService_CreatesMissingPreference(t *testing.T) {
	svc := newServices(t, serviceOptions{})
	ctx := context.Background()

	user := testutil.CreateUser(t, svc.db, "vendor", domain.RoleVendor)
	require.NoError(t, svc.db.Where("user_id = ?", user.ID).Delete(&domain.ThemePreference{}).Error)

	theme, err := svc.themes.Toggle(ctx, testutil.Actor(user))
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeDark, theme.Theme)

	var count int64
	require.NoError(t, svc.db.Model(&domain.ThemePreference{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
