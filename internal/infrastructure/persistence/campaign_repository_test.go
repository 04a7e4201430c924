package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/crm"
	"github.com/mar-ia/crm/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormCampaignRepository_ProductsAndDelete(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	campaigns := NewGormCampaignRepository(db)
	products := NewGormProductRepository(db)
	leads := NewGormLeadRepository(db)
	scope := newTestScope()

	p1, err := crm.NewProduct(scope, "Plan Pro", "pro-1", decimal.NewFromInt(99))
	require.NoError(t, err)
	p2, err := crm.NewProduct(scope, "Plan Basic", "basic-1", decimal.NewFromInt(19))
	require.NoError(t, err)
	require.NoError(t, products.Save(ctx, p1))
	require.NoError(t, products.Save(ctx, p2))

	campaign, err := crm.NewCampaign(scope, crm.CampaignInput{Name: "Primavera"})
	require.NoError(t, err)
	campaign.SetProducts([]uuid.UUID{p1.ID, p2.ID})
	require.NoError(t, campaigns.Save(ctx, campaign))

	found, err := campaigns.FindByID(ctx, scope.TenantID, scope.OrganizationID, campaign.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{p1.ID, p2.ID}, found.ProductIDs)

	campaign.SetProducts([]uuid.UUID{p2.ID})
	require.NoError(t, campaigns.Save(ctx, campaign))
	found, err = campaigns.FindByID(ctx, scope.TenantID, scope.OrganizationID, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{p2.ID}, found.ProductIDs)

	exists, err := campaigns.ExistsByID(ctx, scope.TenantID, scope.OrganizationID, campaign.ID)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = campaigns.ExistsByID(ctx, uuid.New(), scope.OrganizationID, campaign.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	lead := mustLead(t, scope, "Ana", "ana@x.com")
	lead.AssignCampaign(&campaign.ID)
	require.NoError(t, leads.Save(ctx, lead))

	require.NoError(t, campaigns.Delete(ctx, scope.TenantID, scope.OrganizationID, campaign.ID))
	reloaded, err := leads.FindByID(ctx, scope.TenantID, scope.OrganizationID, lead.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.CampaignID)
}

func TestGormProductRepository_FindByIDsIsScoped(t *testing.T) {
	ctx := context.Background()
	repo := NewGormProductRepository(newTestDB(t))
	scope, other := newTestScope(), newTestScope()

	mine, err := crm.NewProduct(scope, "Mine", "m", decimal.NewFromInt(1))
	require.NoError(t, err)
	theirs, err := crm.NewProduct(other, "Theirs", "t", decimal.NewFromInt(1))
	require.NoError(t, err)
	mine.Active = false
	require.NoError(t, repo.Save(ctx, mine))
	require.NoError(t, repo.Save(ctx, theirs))

	found, err := repo.FindByIDs(ctx, scope.TenantID, scope.OrganizationID, []uuid.UUID{mine.ID, theirs.ID})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, mine.ID, found[0].ID)
	assert.False(t, found[0].Active)

	none, err := repo.FindByIDs(ctx, scope.TenantID, scope.OrganizationID, nil)
	require.NoError(t, err)
	assert.Empty(t, none)

	list, total, err := repo.FindAll(ctx, scope.TenantID, scope.OrganizationID, shared.DefaultFilter())
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, list, 1)
}
