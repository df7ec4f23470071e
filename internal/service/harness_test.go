package service_test

import (
	"context"
	"testing"

	"github.com/concesionario/backoffice-api/internal/auth"
	"github.com/concesionario/backoffice-api/internal/config"
	"github.com/concesionario/backoffice-api/internal/repository"
	"github.com/concesionario/backoffice-api/internal/service"
	"github.com/concesionario/backoffice-api/internal/storage"
	"github.com/concesionario/backoffice-api/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// bcrypt.MinCost keeps password hashing fast in tests
const testBcryptCost = 4

type services struct {
	db      *gorm.DB
	audit   *service.AuditLogService
	users   *service.UserService
	auth    *service.AuthService
	clients *service.ClientService
	events  *service.EventService
	leads   *service.LeadService
	themes  *service.ThemeService
	tokens  *auth.TokenIssuer
}

type serviceOptions struct {
	store             storage.Storage
	archiveOnPurge    bool
	allowRegistration bool
}

func newServices(t *testing.T, opts serviceOptions) *services {
	t.Helper()
	db := testutil.NewTestDB(t)
	logger := zap.NewNop()

	repos := service.UserRepositories{
		Users:   repository.NewUserRepository(db),
		Themes:  repository.NewThemeRepository(db),
		Clients: repository.NewClientRepository(db),
		Leads:   repository.NewLeadRepository(db),
		Events:  repository.NewEventRepository(db),
		Notes:   repository.NewNoteRepository(db),
		Audit:   repository.NewAuditLogRepository(db),
	}

	audit := service.NewAuditLogService(repos.Audit, opts.store, config.AuditConfig{
		ListLimit:      100,
		ExportLimit:    1000,
		ArchiveOnPurge: opts.archiveOnPurge,
	}, logger)

	tokens := auth.NewTokenIssuer(&config.AuthConfig{
		JWTSecret: "service-test-secret",
		Issuer:    "backoffice-api-test",
		TokenTTL:  60,
	})

	users := service.NewUserService(db, repos, audit, testBcryptCost, logger)
	events := service.NewEventService(repos.Events, repos.Clients, repos.Leads, logger)

	return &services{
		db:      db,
		audit:   audit,
		users:   users,
		auth:    service.NewAuthService(users, repos.Users, tokens, audit, opts.allowRegistration, logger),
		clients: service.NewClientService(db, repos.Clients, repos.Users, repos.Notes, audit, logger),
		events:  events,
		leads:   service.NewLeadService(db, repos.Leads, repos.Events, repos.Notes, events, logger),
		themes:  service.NewThemeService(repos.Themes),
		tokens:  tokens,
	}
}

func ctxWithMeta() context.Context {
	return service.WithRequestMeta(context.Background(), service.RequestMeta{
		IP:        "10.0.0.7",
		UserAgent: "service-test",
	})
}
