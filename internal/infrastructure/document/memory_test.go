package document

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/crm"
	"github.com/mar-ia/crm/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(t *testing.T, summary string, at time.Time) crm.CommunicationRecord {
	t.Helper()
	rec, err := crm.NewCommunicationRecord(crm.ChannelCall, crm.DirectionOutbound, summary, "")
	require.NoError(t, err)
	rec.OccurredAt = at
	return *rec
}

func TestMemoryClientStore_Profile(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryClientStore()
	tenant, org, client := uuid.New(), uuid.New(), uuid.New()

	_, err := store.GetProfile(ctx, tenant, org, client)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	require.NoError(t, store.SaveProfile(ctx, tenant, org, client, crm.AIProfile{
		Personality: "analítico",
		Preferences: []string{"email"},
		Score:       72,
	}))

	got, err := store.GetProfile(ctx, tenant, org, client)
	require.NoError(t, err)
	assert.Equal(t, "analítico", got.Personality)
	assert.False(t, got.UpdatedAt.IsZero())

	got.Preferences[0] = "mutated"
	again, err := store.GetProfile(ctx, tenant, org, client)
	require.NoError(t, err)
	assert.Equal(t, []string{"email"}, again.Preferences)

	_, err = store.GetProfile(ctx, tenant, uuid.New(), client)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestMemoryClientStore_Communications(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryClientStore()
	tenant, org, client := uuid.New(), uuid.New(), uuid.New()

	empty, err := store.ListCommunications(ctx, tenant, org, client, 10)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	base := time.Now()
	require.NoError(t, store.AppendCommunication(ctx, tenant, org, client, record(t, "first", base)))
	require.NoError(t, store.AppendCommunication(ctx, tenant, org, client, record(t, "third", base.Add(2*time.Minute))))
	require.NoError(t, store.AppendCommunication(ctx, tenant, org, client, record(t, "second", base.Add(time.Minute))))

	all, err := store.ListCommunications(ctx, tenant, org, client, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "third", all[0].Summary)
	assert.Equal(t, "first", all[2].Summary)

	limited, err := store.ListCommunications(ctx, tenant, org, client, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "second", limited[1].Summary)
}

func TestMemoryAgentStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryAgentStore()
	tenant := uuid.New()

	assert.Error(t, store.Save(ctx, tenant, crm.AgentConfig{AgentID: "bad id", Name: "x"}))

	require.NoError(t, store.Save(ctx, tenant, crm.AgentConfig{AgentID: "b_agent", Name: "Sofía"}))
	require.NoError(t, store.Save(ctx, tenant, crm.AgentConfig{AgentID: "a_agent", Name: "Lucas", Language: "en"}))

	got, err := store.Get(ctx, tenant, "b_agent")
	require.NoError(t, err)
	assert.Equal(t, "es", got.Language)

	_, err = store.Get(ctx, uuid.New(), "b_agent")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	list, err := store.List(ctx, tenant)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a_agent", list[0].AgentID)

	none, err := store.List(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none)
}
