package persistence

import (
	"testing"

	"github.com/mar-ia/crm/internal/domain/shared"
	"github.com/mar-ia/crm/internal/infrastructure/config"
	"github.com/mar-ia/crm/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestNewDatabase_Sqlite(t *testing.T) {
	db, err := NewDatabase(&config.DatabaseConfig{Driver: "sqlite", DBName: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.Equal(t, "sqlite", db.Driver())
	require.NoError(t, db.AutoMigrate())
	assert.NoError(t, db.Ping())
	assert.True(t, db.DB.Migrator().HasTable("leads"))
	assert.True(t, db.DB.Migrator().HasTable("client_payments"))
}

func TestDatabase_AutoMigrate_ScopeIndexPerTable(t *testing.T) {
	db, err := NewDatabase(&config.DatabaseConfig{Driver: "sqlite", DBName: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.AutoMigrate())
	// a second run must be a no-op
	require.NoError(t, db.AutoMigrate())

	m := db.DB.Migrator()
	for model, index := range map[any]string{
		&models.LeadModel{}:     "idx_leads_scope",
		&models.ClientModel{}:   "idx_clients_scope",
		&models.CampaignModel{}: "idx_campaigns_scope",
		&models.ProductModel{}:  "idx_products_scope",
	} {
		assert.True(t, m.HasIndex(model, index), index)
	}
}

func TestNewDatabase_UnknownDriver(t *testing.T) {
	_, err := NewDatabase(&config.DatabaseConfig{Driver: "oracle"})
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestDatabase_DriverDefaultsToPostgres(t *testing.T) {
	assert.Equal(t, "postgres", (&Database{}).Driver())
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"not found", gorm.ErrRecordNotFound, shared.ErrNotFound},
		{"duplicate", gorm.ErrDuplicatedKey, shared.ErrAlreadyExists},
		{"foreign key", gorm.ErrForeignKeyViolated, shared.ErrInvalidInput},
		{"passthrough", gorm.ErrInvalidData, gorm.ErrInvalidData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(tt.in)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%ana lópez%", likePattern("  Ana López "))
}
