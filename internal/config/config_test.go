package config_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/concesionario/backoffice-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, 500, cfg.Audit.ListLimit)
	assert.Equal(t, 10000, cfg.Audit.ExportLimit)
	assert.Equal(t, "Arkangel", cfg.Seed.AdminUsername)
	assert.Equal(t, "test-secret", cfg.Auth.JWTSecret)
	assert.False(t, cfg.Auth.AllowRegistration)
	assert.Equal(t, 8*time.Hour, cfg.Auth.TokenTTLDuration())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("AUDIT_LISTLIMIT", "50")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, 50, cfg.Audit.ListLimit)
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	d := &config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", d.ConnectionString())
}

func TestConfig_Validate(t *testing.T) {
	cfg := &config.Config{Auth: config.AuthConfig{TokenTTL: 60}}
	assert.Error(t, cfg.Validate(), "missing secret")

	cfg.Auth.JWTSecret = "short"
	assert.NoError(t, cfg.Validate())

	cfg.App.Environment = "production"
	assert.Error(t, cfg.Validate(), "short secret in production")
}

type fakeSecrets map[string]string

func (f fakeSecrets) GetSecretOrEnv(_ context.Context, secretName, _ string) (string, error) {
	if v, ok := f[secretName]; ok {
		return v, nil
	}
	return "", errors.New("not found")
}

func TestApplySecrets(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{Host: "localhost", User: "local"}}

	err := config.ApplySecrets(context.Background(), cfg, fakeSecrets{
		"POSTGRES-HOST":   "db.internal",
		"JWT-SIGNING-KEY": "vault-secret",
	})
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "local", cfg.Database.User, "missing optional secrets keep configured value")
	assert.Equal(t, "vault-secret", cfg.Auth.JWTSecret)
}

func TestApplySecrets_MissingSigningKey(t *testing.T) {
	cfg := &config.Config{}
	err := config.ApplySecrets(context.Background(), cfg, fakeSecrets{})
	assert.Error(t, err)
}
