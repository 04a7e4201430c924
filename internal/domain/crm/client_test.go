package crm

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientFromLead(t *testing.T) {
	lead := newTestLead(t)
	lead.Company = "Acme"
	converter := uuid.New()

	client, err := NewClientFromLead(lead, converter)

	require.NoError(t, err)
	assert.Equal(t, "Lucia Garcia", client.Name)
	assert.Equal(t, lead.Email, client.Email)
	assert.Equal(t, "Acme", client.Company)
	assert.Equal(t, lead.TenantID, client.TenantID)
	assert.Equal(t, lead.OrganizationID, client.OrganizationID)
	require.NotNil(t, client.LeadID)
	assert.Equal(t, lead.ID, *client.LeadID)
	assert.Equal(t, ClientStatusActive, client.Status)
	assert.True(t, client.LifetimeValue.IsZero())
}

func TestClient_RecordPayment(t *testing.T) {
	client, err := NewClient(testScope(), NewClientInput{Name: "Acme", Tags: []string{"VIP", " vip ", ""}})
	require.NoError(t, err)
	assert.Equal(t, []string{"vip"}, client.Tags)

	_, err = client.RecordPayment(decimal.RequireFromString("120.50"), "eur", "INV-1", time.Time{})
	require.NoError(t, err)
	p, err := client.RecordPayment(decimal.NewFromInt(30), "", "INV-2", time.Now())
	require.NoError(t, err)

	assert.Equal(t, "EUR", p.Currency)
	assert.Len(t, client.Payments, 2)
	assert.True(t, decimal.RequireFromString("150.50").Equal(client.LifetimeValue))

	_, err = client.RecordPayment(decimal.Zero, "EUR", "", time.Now())
	assert.Error(t, err)
	_, err = client.RecordPayment(decimal.NewFromInt(1), "EURO", "", time.Now())
	assert.Error(t, err)
}

func TestClient_Apply(t *testing.T) {
	client, err := NewClient(testScope(), NewClientInput{Name: "Acme"})
	require.NoError(t, err)

	empty := ""
	assert.Error(t, client.Apply(ClientPatch{Name: &empty}))
	assert.Equal(t, "Acme", client.Name)

	churned := ClientStatusChurned
	require.NoError(t, client.Apply(ClientPatch{Status: &churned}))
	assert.Equal(t, ClientStatusChurned, client.Status)
}

func TestCampaign_Lifecycle(t *testing.T) {
	start := time.Now()
	end := start.Add(-time.Hour)
	_, err := NewCampaign(testScope(), CampaignInput{Name: "Spring", StartDate: &start, EndDate: &end})
	assert.Error(t, err, "end before start")

	negative := decimal.NewFromInt(-1)
	_, err = NewCampaign(testScope(), CampaignInput{Name: "Spring", Budget: &negative})
	assert.Error(t, err)

	end = start.Add(48 * time.Hour)
	c, err := NewCampaign(testScope(), CampaignInput{Name: "Spring", StartDate: &start, EndDate: &end})
	require.NoError(t, err)
	assert.Equal(t, CampaignStatusDraft, c.Status)

	assert.Error(t, c.Pause())
	require.NoError(t, c.Activate())
	assert.True(t, c.IsRunningAt(start.Add(time.Hour)))
	assert.False(t, c.IsRunningAt(end.Add(time.Hour)))
	require.NoError(t, c.Pause())
	require.NoError(t, c.Complete())
	assert.Error(t, c.Activate())
}

func TestCampaign_SetProducts(t *testing.T) {
	c, err := NewCampaign(testScope(), CampaignInput{Name: "Spring"})
	require.NoError(t, err)

	a, b := uuid.New(), uuid.New()
	c.SetProducts([]uuid.UUID{a, b, a, uuid.Nil})
	assert.Equal(t, []uuid.UUID{a, b}, c.ProductIDs)
}

func TestNewCommunicationRecord(t *testing.T) {
	_, err := NewCommunicationRecord("fax", DirectionInbound, "hi", "")
	assert.Error(t, err)

	_, err = NewCommunicationRecord(ChannelCall, DirectionInbound, " ", "")
	assert.Error(t, err)

	rec, err := NewCommunicationRecord(ChannelWhatsApp, "", "Hola", "")
	require.NoError(t, err)
	assert.Equal(t, DirectionOutbound, rec.Direction)
	assert.NotEmpty(t, rec.ID)
}

func TestDocumentPaths(t *testing.T) {
	tenant, org, client := uuid.New(), uuid.New(), uuid.New()

	assert.Equal(t,
		"tenants/"+tenant.String()+"/organizations/"+org.String()+"/clients/"+client.String(),
		ClientDocumentPath(tenant, org, client))
	assert.Equal(t, "tenants/"+tenant.String()+"/agents/elevenlabs/agent_1", AgentDocumentPath(tenant, "agent_1"))
	assert.Equal(t, "tenants/"+tenant.String()+"/agents/elevenlabs", AgentsDocumentPath(tenant))

	cfg := AgentConfig{AgentID: "a/b", Name: "x"}
	assert.Error(t, cfg.Validate())
	cfg = AgentConfig{AgentID: "agent_1", Name: "Sofia"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "es", cfg.Language)
}
