package persistence

import (
	"testing"

	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/crm"
	"github.com/mar-ia/crm/internal/domain/shared"
	"github.com/mar-ia/crm/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory sqlite database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                   logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction:   true,
		DisableNestedTransaction: true,
		TranslateError:           true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func newTestScope() shared.Scope {
	return shared.Scope{TenantID: uuid.New(), OrganizationID: uuid.New(), UserID: uuid.New()}
}

func mustLead(t *testing.T, scope shared.Scope, first, email string) *crm.Lead {
	t.Helper()
	lead, err := crm.NewLead(scope, crm.NewLeadInput{FirstName: first, LastName: "Test", Email: email})
	require.NoError(t, err)
	return lead
}
