package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/concesionario/backoffice-api/internal/auth"
	"github.com/concesionario/backoffice-api/internal/domain"
	"github.com/concesionario/backoffice-api/internal/repository"
	"github.com/concesionario/backoffice-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createEvent(t *testing.T, repo *repository.EventRepository, owner *domain.User, client *domain.Client, title string, startsAt time.Time) *domain.ClientEvent {
	t.Helper()
	event := &domain.ClientEvent{
		ClientID: &client.ID,
		Kind:     domain.EventKindMeeting,
		Title:    title,
		StartsAt: startsAt,
	}
	if owner != nil {
		event.OwnerID = &owner.ID
	}
	require.NoError(t, repo.Create(context.Background(), event))
	return event
}

func TestEventRepository_ListRange(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewEventRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice", domain.RoleVendor)
	bob := testutil.CreateUser(t, db, "bob", domain.RoleVendor)
	client := testutil.CreateClient(t, db, alice, "Perez")

	base := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	createEvent(t, repo, alice, client, "tarde", base.Add(15*time.Hour))
	createEvent(t, repo, alice, client, "manana", base.Add(9*time.Hour))
	createEvent(t, repo, bob, client, "bob", base.Add(11*time.Hour))
	createEvent(t, repo, nil, client, "sin duenio", base.Add(12*time.Hour))
	createEvent(t, repo, alice, client, "dia siguiente", base.Add(33*time.Hour))

	t.Run("range is half open and ordered", func(t *testing.T) {
		events, err := repo.ListRange(ctx, auth.ScopeAll(), base, base.Add(24*time.Hour))
		require.NoError(t, err)
		require.Len(t, events, 4)
		assert.Equal(t, "manana", events[0].Title)
		assert.Equal(t, "tarde", events[3].Title)
		require.NotNil(t, events[0].Client, "client is preloaded")
		assert.Equal(t, client.ID, events[0].Client.ID)
	})

	t.Run("owner scope hides other and unowned events", func(t *testing.T) {
		events, err := repo.ListRange(ctx, auth.OwnedBy(alice.ID), base, base.Add(24*time.Hour))
		require.NoError(t, err)
		require.Len(t, events, 2)
		for _, e := range events {
			require.NotNil(t, e.OwnerID)
			assert.Equal(t, alice.ID, *e.OwnerID)
		}
	})

	t.Run("zero bounds are open", func(t *testing.T) {
		events, err := repo.ListRange(ctx, auth.ScopeAll(), time.Time{}, time.Time{})
		require.NoError(t, err)
		assert.Len(t, events, 5)

		events, err = repo.ListRange(ctx, auth.ScopeAll(), base.Add(24*time.Hour), time.Time{})
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "dia siguiente", events[0].Title)
	})
}

func TestEventRepository_ClearOwnerAndDelete(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewEventRepository(db)
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "carla", domain.RoleVendor)
	client := testutil.CreateClient(t, db, owner, "Diaz")
	event := createEvent(t, repo, owner, client, "visita", time.Now().UTC())

	require.NoError(t, repo.ClearOwner(ctx, owner.ID))
	got, err := repo.GetByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Nil(t, got.OwnerID)

	require.NoError(t, repo.Delete(ctx, event.ID))
	_, err = repo.GetByID(ctx, event.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
