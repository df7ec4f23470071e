// Package testutil provides an in-memory database and fixtures for package tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/concesionario/backoffice-api/internal/auth"
	"github.com/concesionario/backoffice-api/internal/database"
	"github.com/concesionario/backoffice-api/internal/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// ValidCUIT passes the checksum
const ValidCUIT = "20123456786"

// NewTestDB opens a private in-memory SQLite database with the full schema.
// Each test gets its own database, so tests can run in parallel.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", name)

	db, err := gorm.Open(sqlite.Open(dsn), database.Config())
	require.NoError(t, err, "failed to open sqlite test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps the in-memory database alive and serializes writes.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// CreateUser inserts an active user with the given role
func CreateUser(t *testing.T, db *gorm.DB, username string, role domain.Role) *domain.User {
	t.Helper()
	user := &domain.User{
		Username:     username,
		Email:        username + "@concesionario.test",
		PasswordHash: "not-a-real-hash",
		FirstName:    strings.ToUpper(username[:1]) + username[1:],
		LastName:     "Test",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	require.NoError(t, db.Create(&domain.ThemePreference{UserID: user.ID, Theme: domain.ThemeLight}).Error)
	return user
}

// CreateSuperuser inserts an active superuser
func CreateSuperuser(t *testing.T, db *gorm.DB, username string) *domain.User {
	t.Helper()
	user := CreateUser(t, db, username, domain.RoleAdmin)
	user.IsSuperuser = true
	user.IsStaff = true
	require.NoError(t, db.Save(user).Error)
	return user
}

// Actor returns the auth actor for a user
func Actor(u *domain.User) auth.Actor {
	return auth.ActorFromUser(u)
}

// ClientRequest returns a complete, valid client payload
func ClientRequest() *domain.ClientRequest {
	return &domain.ClientRequest{
		FirstName:     "Juan",
		LastName:      "Garcia",
		DocType:       "DNI",
		DocNumber:     "12345678",
		BirthDate:     "1985-04-12",
		Sex:           "M",
		MaritalStatus: "casado",
		Nationality:   "argentino",
		TaxCondition:  "cf",
		CUIT:          "20-12345678-6",
		Street:        "Av. Rivadavia",
		StreetNumber:  "1234",
		PostalCode:    "1406",
		City:          "CABA",
		Province:      "Buenos Aires",
		Phone:         "+54 11 5555-0000",
		Email:         "juan.garcia@example.com",
	}
}

// CoHolderRequest returns a complete, valid co-holder payload
func CoHolderRequest() *domain.CoHolderRequest {
	return &domain.CoHolderRequest{
		FullName:    "Maria Lopez",
		Sex:         "F",
		DNI:         "23456789",
		BirthDate:   "1987-09-30",
		Nationality: "argentino",
		Phone:       "+54 11 5555-1111",
		Email:       "maria.lopez@example.com",
	}
}

// CreateClient inserts a client directly, bypassing the service
func CreateClient(t *testing.T, db *gorm.DB, owner *domain.User, lastName string) *domain.Client {
	t.Helper()
	client := &domain.Client{
		FirstName:     "Cliente",
		LastName:      lastName,
		DocType:       domain.DocTypeDNI,
		DocNumber:     "30111222",
		BirthDate:     time.Date(1980, 1, 2, 0, 0, 0, 0, time.UTC),
		Sex:           domain.SexMale,
		MaritalStatus: domain.MaritalStatusSingle,
		Nationality:   domain.NationalityArgentine,
		TaxCondition:  domain.TaxConditionFinalConsumer,
		CUIT:          ValidCUIT,
		Street:        "Calle Falsa",
		StreetNumber:  "123",
		PostalCode:    "1000",
		City:          "CABA",
		Province:      "Buenos Aires",
		Phone:         "1155550000",
		Email:         strings.ToLower(lastName) + "@example.com",
	}
	if owner != nil {
		client.OwnerID = &owner.ID
	}
	require.NoError(t, db.Create(client).Error)
	return client
}

// CountAuditLogs returns the number of audit rows with the given action
func CountAuditLogs(t *testing.T, db *gorm.DB, action domain.AuditAction) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&domain.AuditLog{}).Where("action = ?", action).Count(&count).Error)
	return count
}
