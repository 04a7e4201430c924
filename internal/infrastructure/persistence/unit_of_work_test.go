package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/crm"
	"github.com/mar-ia/crm/internal/domain/shared"
	"github.com/mar-ia/crm/internal/infrastructure/event"
	"github.com/mar-ia/crm/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestGormUnitOfWork_CommitsBothWrites(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	leads := NewGormLeadRepository(db)
	clients := NewGormClientRepository(db)
	scope := newTestScope()

	lead := mustLead(t, scope, "Ana", "ana@x.com")
	require.NoError(t, leads.Save(ctx, lead))

	err := NewGormUnitOfWork(db).Do(ctx, func(ctx context.Context, repos crm.TxRepositories) error {
		client, err := crm.NewClientFromLead(lead, scope.UserID)
		if err != nil {
			return err
		}
		if err := repos.Clients.Save(ctx, client); err != nil {
			return err
		}
		if err := lead.MarkConverted(&client.ID); err != nil {
			return err
		}
		return repos.Leads.Save(ctx, lead)
	})
	require.NoError(t, err)

	reloaded, err := leads.FindByID(ctx, scope.TenantID, scope.OrganizationID, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, crm.LeadStatusConverted, reloaded.Status)

	_, total, err := clients.FindAll(ctx, scope.TenantID, scope.OrganizationID, shared.DefaultFilter())
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestGormUnitOfWork_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	leads := NewGormLeadRepository(db)
	clients := NewGormClientRepository(db)
	scope := newTestScope()

	lead := mustLead(t, scope, "Ana", "ana@x.com")
	require.NoError(t, leads.Save(ctx, lead))

	boom := errors.New("document store unavailable")
	err := NewGormUnitOfWork(db).Do(ctx, func(ctx context.Context, repos crm.TxRepositories) error {
		client, err := crm.NewClientFromLead(lead, scope.UserID)
		require.NoError(t, err)
		require.NoError(t, lead.MarkConverted(&client.ID))
		require.NoError(t, repos.Leads.Save(ctx, lead))
		require.NoError(t, repos.Clients.Save(ctx, client))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	reloaded, err := leads.FindByID(ctx, scope.TenantID, scope.OrganizationID, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, crm.LeadStatusNew, reloaded.Status)
	assert.Nil(t, reloaded.ClientID)

	_, total, err := clients.FindAll(ctx, scope.TenantID, scope.OrganizationID, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestGormUnitOfWork_OutboxFollowsTransaction(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	scope := newTestScope()
	uow := NewGormUnitOfWork(db, WithOutbox(event.NewOutboxPublisher(event.NewCRMEventSerializer())))

	committed := mustLead(t, scope, "Ana", "ana@x.com")
	err := uow.Do(ctx, func(ctx context.Context, repos crm.TxRepositories) error {
		if err := repos.Leads.Save(ctx, committed); err != nil {
			return err
		}
		return repos.Events.Record(ctx, crm.NewLeadConvertedEvent(committed, uuid.New(), scope.UserID))
	})
	require.NoError(t, err)

	rolledBack := mustLead(t, scope, "Luis", "luis@x.com")
	boom := errors.New("client insert failed")
	err = uow.Do(ctx, func(ctx context.Context, repos crm.TxRepositories) error {
		require.NoError(t, repos.Events.Record(ctx, crm.NewLeadConvertedEvent(rolledBack, uuid.New(), scope.UserID)))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var rows []models.OutboxEntryModel
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, committed.ID, rows[0].AggregateID)
	assert.Equal(t, crm.EventTypeLeadConverted, rows[0].EventType)
}

func TestGormUnitOfWork_WithoutOutboxDropsEvents(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	scope := newTestScope()
	lead := mustLead(t, scope, "Ana", "ana@x.com")

	err := NewGormUnitOfWork(db).Do(ctx, func(ctx context.Context, repos crm.TxRepositories) error {
		return repos.Events.Record(ctx, crm.NewLeadConvertedEvent(lead, uuid.New(), scope.UserID))
	})
	require.NoError(t, err)

	var n int64
	require.NoError(t, db.Model(&models.OutboxEntryModel{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestGormUnitOfWork_IssuesRollbackOnPostgres(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB}), &gorm.Config{
		Logger:                   logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction:   true,
		DisableNestedTransaction: true,
	})
	require.NoError(t, err)

	scope := newTestScope()
	lead := mustLead(t, scope, "Ana", "ana@x.com")

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "leads"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	boom := errors.New("client insert failed")
	err = NewGormUnitOfWork(db).Do(context.Background(), func(ctx context.Context, repos crm.TxRepositories) error {
		if err := repos.Leads.Save(ctx, lead); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}
