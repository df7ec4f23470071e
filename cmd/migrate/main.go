package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/concesionario/backoffice-api/internal/config"
	"github.com/concesionario/backoffice-api/internal/database"
	"github.com/concesionario/backoffice-api/internal/domain"
	"github.com/concesionario/backoffice-api/internal/logger"
	"github.com/concesionario/backoffice-api/internal/repository"
	"github.com/concesionario/backoffice-api/internal/service"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const usage = "usage: migrate [up|down|status|version|create <name>|seed]"

var demoUsers = []struct {
	username string
	email    string
}{
	{"usuario1", "usuario1@concesionario.com"},
	{"usuario2", "usuario2@concesionario.com"},
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Migration error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Bootstrap logger for secret loading
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	args := os.Args[1:]
	if len(args) == 0 {
		return errors.New(usage)
	}

	command := args[0]
	arguments := args[1:]

	migrationsDir := "./migrations"

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	switch command {
	case "up":
		if err := goose.Up(db, migrationsDir); err != nil {
			return fmt.Errorf("failed to run up migrations: %w", err)
		}
		fmt.Println("Migrations applied successfully")

	case "down":
		if err := goose.Down(db, migrationsDir); err != nil {
			return fmt.Errorf("failed to run down migration: %w", err)
		}
		fmt.Println("Migration rolled back successfully")

	case "status":
		if err := goose.Status(db, migrationsDir); err != nil {
			return fmt.Errorf("failed to get migration status: %w", err)
		}

	case "version":
		if err := goose.Version(db, migrationsDir); err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}

	case "create":
		if len(arguments) == 0 {
			return fmt.Errorf("create requires a migration name")
		}
		if err := goose.Create(db, migrationsDir, arguments[0], "sql"); err != nil {
			return fmt.Errorf("failed to create migration: %w", err)
		}
		fmt.Printf("Migration created: %s\n", arguments[0])

	case "seed":
		if err := seed(ctx, db, cfg, log); err != nil {
			return fmt.Errorf("failed to seed: %w", err)
		}

	default:
		return fmt.Errorf("unknown command: %s\n%s", command, usage)
	}

	return nil
}

// seed creates the default superuser and, when enabled, the demo vendors.
// Existing usernames are left untouched.
func seed(ctx context.Context, sqlDB *sql.DB, cfg *config.Config, log *zap.Logger) error {
	if cfg.Seed.AdminPassword == "" {
		return fmt.Errorf("SEED_ADMINPASSWORD is required")
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), database.Config())
	if err != nil {
		return err
	}

	repos := service.UserRepositories{
		Users:   repository.NewUserRepository(db),
		Themes:  repository.NewThemeRepository(db),
		Clients: repository.NewClientRepository(db),
		Leads:   repository.NewLeadRepository(db),
		Events:  repository.NewEventRepository(db),
		Notes:   repository.NewNoteRepository(db),
		Audit:   repository.NewAuditLogRepository(db),
	}
	audit := service.NewAuditLogService(repos.Audit, nil, cfg.Audit, log)
	users := service.NewUserService(db, repos, audit, cfg.Auth.BcryptCost, log)

	created, err := users.EnsureSuperuser(ctx, cfg.Seed.AdminUsername, cfg.Seed.AdminEmail, cfg.Seed.AdminPassword)
	if err != nil {
		return err
	}
	report(cfg.Seed.AdminUsername, created)

	if !cfg.Seed.DemoUsers {
		return nil
	}
	for _, u := range demoUsers {
		created, err := users.EnsureUser(ctx, u.username, u.email, cfg.Seed.DemoPassword, domain.DefaultRole)
		if err != nil {
			return err
		}
		report(u.username, created)
	}
	return nil
}

func report(username string, created bool) {
	if created {
		fmt.Printf("User '%s' created\n", username)
		return
	}
	fmt.Printf("User '%s' already exists\n", username)
}
