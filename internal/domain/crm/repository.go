package crm

import (
	"context"

	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/shared"
)

// LeadRepository defines the interface for lead persistence.
// Every method is bounded by (tenantID, organizationID).
type LeadRepository interface {
	FindByID(ctx context.Context, tenantID, organizationID, id uuid.UUID) (*Lead, error)
	FindAll(ctx context.Context, tenantID, organizationID uuid.UUID, filter shared.Filter) ([]Lead, int64, error)
	// FindGroupedByStatus returns every lead of the scope keyed by stage.
	// Stages with no leads are absent from the map.
	FindGroupedByStatus(ctx context.Context, tenantID, organizationID uuid.UUID) (map[LeadStatus][]Lead, error)
	Save(ctx context.Context, lead *Lead) error
	Delete(ctx context.Context, tenantID, organizationID, id uuid.UUID) error
	CountByOrganization(ctx context.Context, tenantID, organizationID uuid.UUID) (int64, error)
}

// ClientRepository defines the interface for client persistence
type ClientRepository interface {
	FindByID(ctx context.Context, tenantID, organizationID, id uuid.UUID) (*Client, error)
	FindAll(ctx context.Context, tenantID, organizationID uuid.UUID, filter shared.Filter) ([]Client, int64, error)
	Save(ctx context.Context, client *Client) error
	Delete(ctx context.Context, tenantID, organizationID, id uuid.UUID) error
}

// CampaignRepository defines the interface for campaign persistence
type CampaignRepository interface {
	FindByID(ctx context.Context, tenantID, organizationID, id uuid.UUID) (*Campaign, error)
	FindAll(ctx context.Context, tenantID, organizationID uuid.UUID, filter shared.Filter) ([]Campaign, int64, error)
	ExistsByID(ctx context.Context, tenantID, organizationID, id uuid.UUID) (bool, error)
	Save(ctx context.Context, campaign *Campaign) error
	Delete(ctx context.Context, tenantID, organizationID, id uuid.UUID) error
}

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	FindByIDs(ctx context.Context, tenantID, organizationID uuid.UUID, ids []uuid.UUID) ([]Product, error)
	FindAll(ctx context.Context, tenantID, organizationID uuid.UUID, filter shared.Filter) ([]Product, int64, error)
	Save(ctx context.Context, product *Product) error
}

// TxRepositories are repositories bound to one transaction
type TxRepositories struct {
	Leads   LeadRepository
	Clients ClientRepository
	// Events commits recorded events together with the transaction
	Events shared.EventRecorder
}

// UnitOfWork runs fn inside a single relational transaction.
// Returning an error from fn rolls back every write made through repos.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, repos TxRepositories) error) error
}

// ClientDocumentStore keeps the document side of a client:
// the AI profile and the communication history.
type ClientDocumentStore interface {
	GetProfile(ctx context.Context, tenantID, organizationID, clientID uuid.UUID) (*AIProfile, error)
	SaveProfile(ctx context.Context, tenantID, organizationID, clientID uuid.UUID, profile AIProfile) error
	AppendCommunication(ctx context.Context, tenantID, organizationID, clientID uuid.UUID, record CommunicationRecord) error
	ListCommunications(ctx context.Context, tenantID, organizationID, clientID uuid.UUID, limit int) ([]CommunicationRecord, error)
}

// AgentConfigStore keeps voice-agent configuration documents per tenant
type AgentConfigStore interface {
	Get(ctx context.Context, tenantID uuid.UUID, agentID string) (*AgentConfig, error)
	Save(ctx context.Context, tenantID uuid.UUID, cfg AgentConfig) error
	List(ctx context.Context, tenantID uuid.UUID) ([]AgentConfig, error)
}
