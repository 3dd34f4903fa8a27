package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kkaya/gmedash/internal/market"
)

func TestRulesForFallsBackToDefault(t *testing.T) {
	for _, kind := range []market.Kind{market.KindZonal, market.KindMSDExAnte, market.KindMSDExPost, market.KindBalancing} {
		r := RulesFor(kind)
		assert.Equal(t, defaultRules.PriceCandidates, r.PriceCandidates, "kind %s", kind)
	}
}

func TestGasRulesPreferAveragePrice(t *testing.T) {
	r := RulesFor(market.KindGas)

	require.NotEmpty(t, r.PriceCandidates)
	assert.Equal(t, "Price", r.PriceCandidates[0])
	assert.Equal(t, "AveragePrice", r.PriceCandidates[1], "gas data-sets name the session price AveragePrice")

	rec := RawRecord{
		"FlowDate":     "2024-11-15",
		"AveragePrice": 38.25,
		"VolumesMWh":   1200.0,
	}
	row, err := Normalize(rec, market.KindGas)
	require.NoError(t, err)
	assert.Equal(t, 38.25, row.Price)
	assert.Equal(t, "AveragePrice", row.PriceSource)
	assert.Equal(t, 1200.0, row.Volume)
}

func TestEnvironmentalRulesLeadWithReferencePrice(t *testing.T) {
	r := RulesFor(market.KindEnvironmental)

	require.NotEmpty(t, r.PriceCandidates)
	assert.Equal(t, "ReferencePrice", r.PriceCandidates[0])

	rec := RawRecord{
		"Date":           "20241115",
		"ReferencePrice": 6.10,
		"Price":          5.90,
		"Type":           "TEE",
	}
	row, err := Normalize(rec, market.KindEnvironmental)
	require.NoError(t, err)
	assert.Equal(t, 6.10, row.Price)
	assert.Equal(t, "ReferencePrice", row.PriceSource)
	assert.Equal(t, "TEE", row.Product)
	assert.Equal(t, "2024-11-15", row.Date)
}

func TestVolumeGroupTakesMaxWithinGroup(t *testing.T) {
	rec := RawRecord{
		"FlowDate":         "2024-11-15",
		"Price":            100.0,
		"VolumesPurchased": 800.0,
		"VolumesSold":      950.0,
		"Volumes":          10.0,
	}
	row, err := Normalize(rec, market.KindZonal)
	require.NoError(t, err)
	assert.Equal(t, 950.0, row.Volume, "first group with present members wins, max within group")
}
