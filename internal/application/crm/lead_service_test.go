package crm

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/crm"
	"github.com/mar-ia/crm/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLeadService(leads *MockLeadRepository, campaigns *MockCampaignRepository, uow crm.UnitOfWork, opts BulkOptions) *LeadService {
	return NewLeadService(leads, campaigns, uow, nil, opts, zap.NewNop())
}

func TestLeadService_Board(t *testing.T) {
	ctx := context.Background()
	scope := testScope()

	t.Run("empty scope yields empty map", func(t *testing.T) {
		leads := new(MockLeadRepository)
		leads.On("FindGroupedByStatus", ctx, scope.TenantID, scope.OrganizationID).
			Return(map[crm.LeadStatus][]crm.Lead{}, nil)

		svc := newLeadService(leads, new(MockCampaignRepository), nil, BulkOptions{})
		board, err := svc.Board(ctx, scope)

		require.NoError(t, err)
		assert.NotNil(t, board)
		assert.Empty(t, board)
	})

	t.Run("groups by status and drops empty stages", func(t *testing.T) {
		a := testLead(scope, "Ana")
		b := testLead(scope, "Luis")
		require.NoError(t, b.UpdateStatus(crm.LeadStatusQualified))

		leads := new(MockLeadRepository)
		leads.On("FindGroupedByStatus", ctx, scope.TenantID, scope.OrganizationID).
			Return(map[crm.LeadStatus][]crm.Lead{
				crm.LeadStatusNew:       {*a},
				crm.LeadStatusQualified: {*b},
				crm.LeadStatusLost:      {},
			}, nil)

		svc := newLeadService(leads, new(MockCampaignRepository), nil, BulkOptions{})
		board, err := svc.Board(ctx, scope)

		require.NoError(t, err)
		assert.Len(t, board, 2)
		assert.Equal(t, a.ID, board["new"][0].ID)
		assert.Equal(t, "qualified", board["qualified"][0].Status)
		assert.NotContains(t, board, "lost")
	})
}

func TestLeadService_Create(t *testing.T) {
	ctx := context.Background()
	scope := testScope()

	t.Run("stamps scope", func(t *testing.T) {
		leads := new(MockLeadRepository)
		leads.On("Save", ctx, mock.AnythingOfType("*crm.Lead")).Return(nil)

		svc := newLeadService(leads, new(MockCampaignRepository), nil, BulkOptions{})
		resp, err := svc.Create(ctx, scope, CreateLeadRequest{FirstName: "Marta", Email: "Marta@Example.com"})

		require.NoError(t, err)
		assert.Equal(t, scope.TenantID, resp.TenantID)
		assert.Equal(t, scope.OrganizationID, resp.OrganizationID)
		assert.Equal(t, "new", resp.Status)
		assert.Equal(t, "marta@example.com", resp.Email)
		leads.AssertExpectations(t)
	})

	t.Run("unknown campaign", func(t *testing.T) {
		campaignID := uuid.New()
		campaigns := new(MockCampaignRepository)
		campaigns.On("ExistsByID", ctx, scope.TenantID, scope.OrganizationID, campaignID).Return(false, nil)
		leads := new(MockLeadRepository)

		svc := newLeadService(leads, campaigns, nil, BulkOptions{})
		_, err := svc.Create(ctx, scope, CreateLeadRequest{FirstName: "Marta", Phone: "600123456", CampaignID: &campaignID})

		assert.ErrorIs(t, err, ErrCampaignNotFound)
		campaigns.AssertExpectations(t)
		leads.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("no contact is rejected before the campaign lookup", func(t *testing.T) {
		campaignID := uuid.New()
		campaigns := new(MockCampaignRepository)
		svc := newLeadService(new(MockLeadRepository), campaigns, nil, BulkOptions{})
		_, err := svc.Create(ctx, scope, CreateLeadRequest{FirstName: "Marta", CampaignID: &campaignID})

		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_LEAD_CONTACT", de.Code)
		campaigns.AssertNotCalled(t, "ExistsByID", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing name", func(t *testing.T) {
		svc := newLeadService(new(MockLeadRepository), new(MockCampaignRepository), nil, BulkOptions{})
		_, err := svc.Create(ctx, scope, CreateLeadRequest{Email: "x@example.com"})

		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_LEAD_NAME", de.Code)
	})
}

func TestLeadService_Get_OtherScopeIsNotFound(t *testing.T) {
	ctx := context.Background()
	scope := testScope()
	id := uuid.New()

	leads := new(MockLeadRepository)
	leads.On("FindByID", ctx, scope.TenantID, scope.OrganizationID, id).Return(nil, shared.ErrNotFound)

	svc := newLeadService(leads, new(MockCampaignRepository), nil, BulkOptions{})
	_, err := svc.Get(ctx, scope, id)

	assert.ErrorIs(t, err, ErrLeadNotFound)
}

func TestLeadService_BulkDelete_PartialFailure(t *testing.T) {
	scope := testScope()
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	leads := new(MockLeadRepository)
	leads.On("Delete", mock.Anything, scope.TenantID, scope.OrganizationID, ids[0]).Return(nil)
	leads.On("Delete", mock.Anything, scope.TenantID, scope.OrganizationID, ids[1]).Return(shared.ErrNotFound)
	leads.On("Delete", mock.Anything, scope.TenantID, scope.OrganizationID, ids[2]).Return(nil)

	svc := newLeadService(leads, new(MockCampaignRepository), nil, BulkOptions{})
	result, err := svc.BulkDelete(context.Background(), scope, ids)

	require.NoError(t, err)
	summary := result.Summary()
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, ids[1].String(), result.Items[1].ID)
	assert.False(t, result.Items[1].Success)
	assert.True(t, result.Items[0].Success)
}

func TestLeadService_BulkDelete_Limits(t *testing.T) {
	svc := newLeadService(new(MockLeadRepository), new(MockCampaignRepository), nil, BulkOptions{MaxItems: 2})

	_, err := svc.BulkDelete(context.Background(), testScope(), nil)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = svc.BulkDelete(context.Background(), testScope(), []uuid.UUID{uuid.New(), uuid.New(), uuid.New()})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestLeadService_runBulk_BoundsConcurrency(t *testing.T) {
	svc := newLeadService(new(MockLeadRepository), new(MockCampaignRepository), nil, BulkOptions{Concurrency: 3})
	ids := make([]uuid.UUID, 40)
	for i := range ids {
		ids[i] = uuid.New()
	}

	var inFlight, peak atomic.Int32
	release := make(chan struct{})
	go func() {
		for inFlight.Load() < 3 {
		}
		close(release)
	}()

	result, err := svc.runBulk(context.Background(), "test", ids, func(_ context.Context, _ uuid.UUID) error {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		<-release
		inFlight.Add(-1)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 40, result.Summary().Succeeded)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestLeadService_BulkAssignCampaign(t *testing.T) {
	ctx := context.Background()
	scope := testScope()

	t.Run("unknown campaign fails before touching leads", func(t *testing.T) {
		campaignID := uuid.New()
		campaigns := new(MockCampaignRepository)
		campaigns.On("ExistsByID", ctx, scope.TenantID, scope.OrganizationID, campaignID).Return(false, nil)
		leads := new(MockLeadRepository)

		svc := newLeadService(leads, campaigns, nil, BulkOptions{})
		_, err := svc.BulkAssignCampaign(ctx, scope, []uuid.UUID{uuid.New()}, &campaignID)

		assert.ErrorIs(t, err, ErrCampaignNotFound)
		leads.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("links every lead", func(t *testing.T) {
		campaignID := uuid.New()
		a, b := testLead(scope, "Ana"), testLead(scope, "Luis")
		campaigns := new(MockCampaignRepository)
		campaigns.On("ExistsByID", ctx, scope.TenantID, scope.OrganizationID, campaignID).Return(true, nil)
		leads := new(MockLeadRepository)
		leads.On("FindByID", mock.Anything, scope.TenantID, scope.OrganizationID, a.ID).Return(a, nil)
		leads.On("FindByID", mock.Anything, scope.TenantID, scope.OrganizationID, b.ID).Return(b, nil)
		leads.On("Save", mock.Anything, mock.AnythingOfType("*crm.Lead")).Return(nil)

		svc := newLeadService(leads, campaigns, nil, BulkOptions{})
		result, err := svc.BulkAssignCampaign(ctx, scope, []uuid.UUID{a.ID, b.ID}, &campaignID)

		require.NoError(t, err)
		assert.Equal(t, 2, result.Summary().Succeeded)
		assert.Equal(t, campaignID, *a.CampaignID)
		assert.Equal(t, campaignID, *b.CampaignID)
	})
}

func TestLeadService_BulkUpdate_EmptyPatch(t *testing.T) {
	svc := newLeadService(new(MockLeadRepository), new(MockCampaignRepository), nil, BulkOptions{})
	_, err := svc.BulkUpdate(context.Background(), testScope(), []uuid.UUID{uuid.New()}, UpdateLeadRequest{})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestLeadService_Convert(t *testing.T) {
	scope := testScope()

	t.Run("with client record", func(t *testing.T) {
		lead := testLead(scope, "Carmen")
		leads := new(MockLeadRepository)
		clients := new(MockClientRepository)
		leads.On("FindByID", mock.Anything, scope.TenantID, scope.OrganizationID, lead.ID).Return(lead, nil)
		leads.On("Save", mock.Anything, lead).Return(nil)
		clients.On("Save", mock.Anything, mock.AnythingOfType("*crm.Client")).Return(nil)
		events := &recordedEvents{}
		uow := &txUnitOfWork{repos: crm.TxRepositories{Leads: leads, Clients: clients, Events: events}}

		svc := newLeadService(leads, new(MockCampaignRepository), uow, BulkOptions{})
		result, err := svc.Convert(context.Background(), scope, ConvertLeadRequest{
			LeadID:             lead.ID,
			CreateClientRecord: true,
			Tags:               []string{"vip"},
		})

		require.NoError(t, err)
		require.NotNil(t, result.ClientID)
		assert.Equal(t, "converted", result.Lead.Status)
		assert.Equal(t, result.ClientID, result.Lead.ClientID)

		saved := clients.Calls[0].Arguments.Get(1).(*crm.Client)
		assert.Equal(t, lead.ID, *saved.LeadID)
		assert.Equal(t, "Carmen Pérez", saved.Name)
		assert.Equal(t, []string{"vip"}, saved.Tags)
		assert.False(t, uow.rolledBack)

		require.Len(t, events.events, 1)
		ev := events.events[0].(*crm.LeadConvertedEvent)
		assert.Equal(t, crm.EventTypeLeadConverted, ev.EventType())
		assert.Equal(t, *result.ClientID, ev.ClientID)
		assert.Equal(t, scope.UserID, ev.ConvertedBy)
		assert.Equal(t, scope.TenantID, ev.TenantID())
	})

	t.Run("event record failure rolls back", func(t *testing.T) {
		lead := testLead(scope, "Carmen")
		leads := new(MockLeadRepository)
		clients := new(MockClientRepository)
		leads.On("FindByID", mock.Anything, scope.TenantID, scope.OrganizationID, lead.ID).Return(lead, nil)
		leads.On("Save", mock.Anything, lead).Return(nil)
		clients.On("Save", mock.Anything, mock.Anything).Return(nil)
		uow := &txUnitOfWork{repos: crm.TxRepositories{Leads: leads, Clients: clients,
			Events: &recordedEvents{err: errors.New("outbox unavailable")}}}

		svc := newLeadService(leads, new(MockCampaignRepository), uow, BulkOptions{})
		_, err := svc.Convert(context.Background(), scope, ConvertLeadRequest{LeadID: lead.ID, CreateClientRecord: true})

		require.Error(t, err)
		assert.True(t, uow.rolledBack)
	})

	t.Run("client insert failure rolls back", func(t *testing.T) {
		lead := testLead(scope, "Carmen")
		leads := new(MockLeadRepository)
		clients := new(MockClientRepository)
		leads.On("FindByID", mock.Anything, scope.TenantID, scope.OrganizationID, lead.ID).Return(lead, nil)
		clients.On("Save", mock.Anything, mock.Anything).Return(errors.New("unique violation"))
		uow := &txUnitOfWork{repos: crm.TxRepositories{Leads: leads, Clients: clients, Events: shared.NopEventRecorder{}}}

		svc := newLeadService(leads, new(MockCampaignRepository), uow, BulkOptions{})
		_, err := svc.Convert(context.Background(), scope, ConvertLeadRequest{LeadID: lead.ID, CreateClientRecord: true})

		require.Error(t, err)
		assert.True(t, uow.rolledBack)
		leads.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("already converted", func(t *testing.T) {
		lead := testLead(scope, "Carmen")
		require.NoError(t, lead.MarkConverted(nil))
		leads := new(MockLeadRepository)
		leads.On("FindByID", mock.Anything, scope.TenantID, scope.OrganizationID, lead.ID).Return(lead, nil)

		svc := newLeadService(leads, new(MockCampaignRepository), nil, BulkOptions{})
		_, err := svc.Convert(context.Background(), scope, ConvertLeadRequest{LeadID: lead.ID})

		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("without client record", func(t *testing.T) {
		lead := testLead(scope, "Carmen")
		leads := new(MockLeadRepository)
		leads.On("FindByID", mock.Anything, scope.TenantID, scope.OrganizationID, lead.ID).Return(lead, nil)
		leads.On("Save", mock.Anything, lead).Return(nil)

		svc := newLeadService(leads, new(MockCampaignRepository), nil, BulkOptions{})
		result, err := svc.Convert(context.Background(), scope, ConvertLeadRequest{LeadID: lead.ID})

		require.NoError(t, err)
		assert.Nil(t, result.ClientID)
		assert.Equal(t, "converted", result.Lead.Status)
	})
}
