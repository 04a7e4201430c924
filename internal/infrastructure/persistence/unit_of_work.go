package persistence

import (
	"context"

	"github.com/mar-ia/crm/internal/domain/crm"
	"github.com/mar-ia/crm/internal/domain/shared"
	"gorm.io/gorm"
)

// TxEventRecorder hands out an event recorder bound to a transaction
type TxEventRecorder interface {
	Recorder(tx *gorm.DB) shared.EventRecorder
}

// UnitOfWorkOption configures a GormUnitOfWork
type UnitOfWorkOption func(*GormUnitOfWork)

// WithOutbox stores recorded events through outbox in the same transaction
func WithOutbox(outbox TxEventRecorder) UnitOfWorkOption {
	return func(u *GormUnitOfWork) {
		u.outbox = outbox
	}
}

// GormUnitOfWork runs a function against lead and client repositories bound
// to one database transaction. Any error from fn rolls everything back,
// including events recorded through the outbox.
type GormUnitOfWork struct {
	db     *gorm.DB
	outbox TxEventRecorder
}

// NewGormUnitOfWork creates a new GormUnitOfWork. Without WithOutbox recorded
// events are dropped.
func NewGormUnitOfWork(db *gorm.DB, opts ...UnitOfWorkOption) *GormUnitOfWork {
	u := &GormUnitOfWork{db: db}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Do implements crm.UnitOfWork
func (u *GormUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, repos crm.TxRepositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var events shared.EventRecorder = shared.NopEventRecorder{}
		if u.outbox != nil {
			events = u.outbox.Recorder(tx)
		}
		return fn(ctx, crm.TxRepositories{
			Leads:   NewGormLeadRepository(tx),
			Clients: NewGormClientRepository(tx),
			Events:  events,
		})
	})
}
