package repository

import (
	"testing"

	"landlords/internal/domain"
	"landlords/internal/testutil"
	"landlords/pkg/levy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPricingOverrides(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewSettingRepository(db)

	require.NoError(t, repo.SeedDefaults(PricingDefaults(levy.DefaultPricing)))
	assert.Equal(t, levy.DefaultPricing, repo.Pricing(levy.DefaultPricing))

	require.NoError(t, repo.Set(domain.SettingLevyFeeCents, "6000"))
	require.NoError(t, repo.Set(domain.SettingLevyDiscountPercent, "150"))
	p := repo.Pricing(levy.DefaultPricing)
	assert.Equal(t, int64(6000), p.FeePerRoomCents)
	assert.Equal(t, int64(10), p.DiscountPercent)

	require.NoError(t, repo.SeedDefaults(PricingDefaults(levy.DefaultPricing)))
	v, err := repo.Get(domain.SettingLevyFeeCents)
	require.NoError(t, err)
	assert.Equal(t, "6000", v)
}
