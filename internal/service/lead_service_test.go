package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/concesionario/backoffice-api/internal/domain"
	"github.com/concesionario/backoffice-api/internal/repository"
	"github.com/concesionario/backoffice-api/internal/service"
	"github.com/concesionario/backoffice-api/internal/testutil"
	"github.com/concesionario/backoffice-api/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeadService(t *testing.T) {
	svc := newServices(t, serviceOptions{})
	admin := testutil.CreateUser(t, svc.db, "admin", domain.RoleAdmin)
	vendor := testutil.CreateUser(t, svc.db, "vendor", domain.RoleVendor)
	other := testutil.CreateUser(t, svc.db, "other", domain.RoleVendor)
	ctx := context.Background()
	actor := testutil.Actor(vendor)

	lead, err := svc.leads.Create(ctx, actor, &domain.LeadRequest{
		FullName: "Lucia Fernandez",
		Phone:    "11 5555 2222",
		Interest: "Utilitario 0km",
	})
	require.NoError(t, err)
	assert.Equal(t, vendor.ID, *lead.OwnerID)

	t.Run("validation", func(t *testing.T) {
		_, err := svc.leads.Create(ctx, actor, &domain.LeadRequest{Email: "no-es-mail"})
		errs, ok := validation.As(err)
		require.True(t, ok)
		assert.Contains(t, errs, "fullName")
		assert.Contains(t, errs, "email")
	})

	t.Run("scoped access", func(t *testing.T) {
		_, err := svc.leads.Get(ctx, testutil.Actor(other), lead.ID)
		assert.ErrorIs(t, err, service.ErrForbidden)

		_, err = svc.leads.Get(ctx, testutil.Actor(admin), lead.ID)
		assert.NoError(t, err)

		page, err := svc.leads.List(ctx, testutil.Actor(other), "", repository.NewPage(1, 10))
		require.NoError(t, err)
		assert.Zero(t, page.Total)

		page, err = svc.leads.List(ctx, actor, "lucia", repository.NewPage(1, 10))
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Total)
	})

	t.Run("schedule interview", func(t *testing.T) {
		event, err := svc.leads.ScheduleInterview(ctx, actor, lead.ID, &domain.EventRequest{
			StartsAt: time.Date(2026, 6, 1, 15, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		assert.Equal(t, domain.EventKindInterview, event.Kind)
		assert.Equal(t, "Entrevista", event.Title)
		assert.Equal(t, lead.ID, *event.LeadID)
		assert.Nil(t, event.ClientID)

		_, err = svc.leads.ScheduleInterview(ctx, testutil.Actor(other), lead.ID, &domain.EventRequest{
			StartsAt: time.Date(2026, 6, 1, 15, 0, 0, 0, time.UTC),
		})
		assert.ErrorIs(t, err, service.ErrForbidden)
	})

	t.Run("notes", func(t *testing.T) {
		_, err := svc.leads.AddNote(ctx, actor, lead.ID, &domain.CreateNoteRequest{Body: "Pidió cotización"})
		require.NoError(t, err)

		notes, err := svc.leads.ListNotes(ctx, actor, lead.ID)
		require.NoError(t, err)
		require.Len(t, notes, 1)
		assert.Equal(t, "Pidió cotización", notes[0].Body)
	})

	t.Run("delete cascades", func(t *testing.T) {
		assert.ErrorIs(t, svc.leads.Delete(ctx, testutil.Actor(other), lead.ID), service.ErrForbidden)
		require.NoError(t, svc.leads.Delete(ctx, actor, lead.ID))

		var events, notes int64
		require.NoError(t, svc.db.Model(&domain.ClientEvent{}).Where("lead_id = ?", lead.ID).Count(&events).Error)
		require.NoError(t, svc.db.Model(&domain.ClientNote{}).Where("lead_id = ?", lead.ID).Count(&notes).Error)
		assert.Zero(t, events)
		assert.Zero(t, notes)

		_, err := svc.leads.Get(ctx, actor, lead.ID)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}
