package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/concesionario/backoffice-api/internal/domain"
	"github.com/concesionario/backoffice-api/internal/repository"
	"github.com/concesionario/backoffice-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLogRepository_ListFiltersAndOrder(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewAuditLogRepository(db)
	ctx := context.Background()

	admin := testutil.CreateUser(t, db, "admin1", domain.RoleAdmin)
	seller := testutil.CreateUser(t, db, "seller1", domain.RoleVendor)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	entries := []domain.AuditLog{
		{ActorID: &admin.ID, Action: domain.AuditActionLogin, Timestamp: base},
		{ActorID: &seller.ID, Action: domain.AuditActionCreateClient, Timestamp: base.Add(time.Hour)},
		{ActorID: &seller.ID, Action: domain.AuditActionUpdateClient, Timestamp: base.Add(48 * time.Hour)},
		{ActorID: &admin.ID, Action: domain.AuditActionSetRole, TargetUserID: &seller.ID, Timestamp: base.Add(72 * time.Hour)},
	}
	for i := range entries {
		require.NoError(t, repo.Create(ctx, &entries[i]))
	}

	logs, err := repo.List(ctx, nil, 0)
	require.NoError(t, err)
	require.Len(t, logs, 4)
	assert.Equal(t, domain.AuditActionSetRole, logs[0].Action, "newest first")
	require.NotNil(t, logs[0].TargetUser)
	assert.Equal(t, "seller1", logs[0].TargetUser.Username)

	logs, err = repo.List(ctx, &repository.AuditLogFilter{ActorUsername: "SELL"}, 0)
	require.NoError(t, err)
	assert.Len(t, logs, 2)

	logs, err = repo.List(ctx, &repository.AuditLogFilter{Action: "client"}, 0)
	require.NoError(t, err)
	assert.Len(t, logs, 2)

	from := base
	to := base.Add(24 * time.Hour)
	logs, err = repo.List(ctx, &repository.AuditLogFilter{From: &from, To: &to}, 0)
	require.NoError(t, err)
	assert.Len(t, logs, 2)

	logs, err = repo.List(ctx, nil, 1)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestAuditLogRepository_ClearUserAndDeleteBefore(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewAuditLogRepository(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "gone", domain.RoleVendor)
	old := time.Now().UTC().Add(-90 * 24 * time.Hour)
	recent := time.Now().UTC()

	require.NoError(t, repo.Create(ctx, &domain.AuditLog{ActorID: &user.ID, Action: domain.AuditActionLogin, Timestamp: old}))
	require.NoError(t, repo.Create(ctx, &domain.AuditLog{TargetUserID: &user.ID, Action: domain.AuditActionSetRole, Timestamp: recent}))

	require.NoError(t, repo.ClearUser(ctx, user.ID))
	logs, err := repo.List(ctx, nil, 0)
	require.NoError(t, err)
	for _, l := range logs {
		assert.Nil(t, l.ActorID)
		assert.Nil(t, l.TargetUserID)
	}

	cutoff := time.Now().UTC().Add(-30 * 24 * time.Hour)
	archived, err := repo.ListBefore(ctx, cutoff)
	require.NoError(t, err)
	assert.Len(t, archived, 1)

	deleted, err := repo.DeleteBefore(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	logs, err = repo.List(ctx, nil, 0)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}
