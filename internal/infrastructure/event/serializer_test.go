package event

import (
	"testing"

	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/crm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventSerializer_RoundTrip(t *testing.T) {
	s := NewCRMEventSerializer()
	require.True(t, s.IsRegistered(crm.EventTypeLeadConverted))

	ev := newConvertedEvent(uuid.New())
	campaign := uuid.New()
	ev.CampaignID = &campaign

	data, err := s.Serialize(ev)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"crm.lead.converted"`)
	assert.Contains(t, string(data), `"leadName":"Lucía"`)

	decoded, err := s.Deserialize(crm.EventTypeLeadConverted, data)
	require.NoError(t, err)
	got, ok := decoded.(*crm.LeadConvertedEvent)
	require.True(t, ok)
	assert.Equal(t, ev.EventID(), got.EventID())
	assert.Equal(t, ev.TenantID(), got.TenantID())
	assert.Equal(t, ev.AggregateID(), got.AggregateID())
	assert.Equal(t, ev.ClientID, got.ClientID)
	assert.Equal(t, &campaign, got.CampaignID)
	assert.True(t, ev.OccurredAt().Equal(got.OccurredAt()))
}

func TestEventSerializer_UnknownType(t *testing.T) {
	s := NewEventSerializer()
	assert.False(t, s.IsRegistered(crm.EventTypeLeadConverted))

	_, err := s.Deserialize(crm.EventTypeLeadConverted, []byte(`{}`))
	assert.ErrorContains(t, err, "unknown event type")
}

func TestEventSerializer_BadPayload(t *testing.T) {
	s := NewCRMEventSerializer()
	_, err := s.Deserialize(crm.EventTypeLeadConverted, []byte(`{not json`))
	assert.Error(t, err)
}
