package crm

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/crm"
	"github.com/mar-ia/crm/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) FindByID(ctx context.Context, tenantID, organizationID, id uuid.UUID) (*crm.Lead, error) {
	args := m.Called(ctx, tenantID, organizationID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crm.Lead), args.Error(1)
}

func (m *MockLeadRepository) FindAll(ctx context.Context, tenantID, organizationID uuid.UUID, filter shared.Filter) ([]crm.Lead, int64, error) {
	args := m.Called(ctx, tenantID, organizationID, filter)
	return args.Get(0).([]crm.Lead), args.Get(1).(int64), args.Error(2)
}

func (m *MockLeadRepository) FindGroupedByStatus(ctx context.Context, tenantID, organizationID uuid.UUID) (map[crm.LeadStatus][]crm.Lead, error) {
	args := m.Called(ctx, tenantID, organizationID)
	return args.Get(0).(map[crm.LeadStatus][]crm.Lead), args.Error(1)
}

func (m *MockLeadRepository) Save(ctx context.Context, lead *crm.Lead) error {
	return m.Called(ctx, lead).Error(0)
}

func (m *MockLeadRepository) Delete(ctx context.Context, tenantID, organizationID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, organizationID, id).Error(0)
}

func (m *MockLeadRepository) CountByOrganization(ctx context.Context, tenantID, organizationID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID, organizationID)
	return args.Get(0).(int64), args.Error(1)
}

type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) FindByID(ctx context.Context, tenantID, organizationID, id uuid.UUID) (*crm.Client, error) {
	args := m.Called(ctx, tenantID, organizationID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crm.Client), args.Error(1)
}

func (m *MockClientRepository) FindAll(ctx context.Context, tenantID, organizationID uuid.UUID, filter shared.Filter) ([]crm.Client, int64, error) {
	args := m.Called(ctx, tenantID, organizationID, filter)
	return args.Get(0).([]crm.Client), args.Get(1).(int64), args.Error(2)
}

func (m *MockClientRepository) Save(ctx context.Context, client *crm.Client) error {
	return m.Called(ctx, client).Error(0)
}

func (m *MockClientRepository) Delete(ctx context.Context, tenantID, organizationID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, organizationID, id).Error(0)
}

type MockCampaignRepository struct {
	mock.Mock
}

func (m *MockCampaignRepository) FindByID(ctx context.Context, tenantID, organizationID, id uuid.UUID) (*crm.Campaign, error) {
	args := m.Called(ctx, tenantID, organizationID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crm.Campaign), args.Error(1)
}

func (m *MockCampaignRepository) FindAll(ctx context.Context, tenantID, organizationID uuid.UUID, filter shared.Filter) ([]crm.Campaign, int64, error) {
	args := m.Called(ctx, tenantID, organizationID, filter)
	return args.Get(0).([]crm.Campaign), args.Get(1).(int64), args.Error(2)
}

func (m *MockCampaignRepository) ExistsByID(ctx context.Context, tenantID, organizationID, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, organizationID, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockCampaignRepository) Save(ctx context.Context, campaign *crm.Campaign) error {
	return m.Called(ctx, campaign).Error(0)
}

func (m *MockCampaignRepository) Delete(ctx context.Context, tenantID, organizationID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, organizationID, id).Error(0)
}

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, tenantID, organizationID uuid.UUID, ids []uuid.UUID) ([]crm.Product, error) {
	args := m.Called(ctx, tenantID, organizationID, ids)
	return args.Get(0).([]crm.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, tenantID, organizationID uuid.UUID, filter shared.Filter) ([]crm.Product, int64, error) {
	args := m.Called(ctx, tenantID, organizationID, filter)
	return args.Get(0).([]crm.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) Save(ctx context.Context, product *crm.Product) error {
	return m.Called(ctx, product).Error(0)
}

type MockDocumentStore struct {
	mock.Mock
}

func (m *MockDocumentStore) GetProfile(ctx context.Context, tenantID, organizationID, clientID uuid.UUID) (*crm.AIProfile, error) {
	args := m.Called(ctx, tenantID, organizationID, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crm.AIProfile), args.Error(1)
}

func (m *MockDocumentStore) SaveProfile(ctx context.Context, tenantID, organizationID, clientID uuid.UUID, profile crm.AIProfile) error {
	return m.Called(ctx, tenantID, organizationID, clientID, profile).Error(0)
}

func (m *MockDocumentStore) AppendCommunication(ctx context.Context, tenantID, organizationID, clientID uuid.UUID, record crm.CommunicationRecord) error {
	return m.Called(ctx, tenantID, organizationID, clientID, record).Error(0)
}

func (m *MockDocumentStore) ListCommunications(ctx context.Context, tenantID, organizationID, clientID uuid.UUID, limit int) ([]crm.CommunicationRecord, error) {
	args := m.Called(ctx, tenantID, organizationID, clientID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]crm.CommunicationRecord), args.Error(1)
}

type MockAttachmentStorage struct {
	mock.Mock
}

func (m *MockAttachmentStorage) GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, storageKey, contentType, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockAttachmentStorage) GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, storageKey, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

// txUnitOfWork hands the same repositories to fn and reports whether fn
// failed, standing in for a rollback.
// recordedEvents is an EventRecorder that keeps events in a slice
type recordedEvents struct {
	events []shared.DomainEvent
	err    error
}

func (r *recordedEvents) Record(_ context.Context, events ...shared.DomainEvent) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, events...)
	return nil
}

type txUnitOfWork struct {
	repos      crm.TxRepositories
	rolledBack bool
}

func (u *txUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, repos crm.TxRepositories) error) error {
	if err := fn(ctx, u.repos); err != nil {
		u.rolledBack = true
		return err
	}
	return nil
}

func testScope() shared.Scope {
	return shared.Scope{
		TenantID:       uuid.New(),
		OrganizationID: uuid.New(),
		UserID:         uuid.New(),
		Roles:          []string{"owner"},
	}
}

func testLead(scope shared.Scope, first string) *crm.Lead {
	lead, err := crm.NewLead(scope, crm.NewLeadInput{FirstName: first, LastName: "Pérez", Email: first + "@example.com"})
	if err != nil {
		panic(err)
	}
	return lead
}
