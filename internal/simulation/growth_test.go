package simulation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spear/financial-simulator/internal/domain"
)

func TestHistoricalGrowthIsReproducible(t *testing.T) {
	data := DefaultHistoricalData()

	a, err := NewGrowthSampler("stocks", 42, data)
	require.NoError(t, err)
	b, err := NewGrowthSampler("stocks", 42, data)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		ra, rb := a.NextRate(), b.NextRate()
		require.True(t, ra.Equal(rb), "draw %d: same seed must yield same sequence (%s vs %s)", i, ra, rb)
	}
}

func TestHistoricalGrowthDiffersAcrossSeeds(t *testing.T) {
	data := DefaultHistoricalData()

	a, err := NewGrowthSampler("stocks", 1, data)
	require.NoError(t, err)
	b, err := NewGrowthSampler("stocks", 2, data)
	require.NoError(t, err)

	diverged := false
	for i := 0; i < 50; i++ {
		if !a.NextRate().Equal(b.NextRate()) {
			diverged = true
			break
		}
	}
	assert.True(t, diverged, "different seeds should produce different draw sequences")
}

func TestHistoricalGrowthDrawsFromSeries(t *testing.T) {
	data := DefaultHistoricalData()
	series, err := data.Series("bonds")
	require.NoError(t, err)

	sampler := NewHistoricalGrowth(series, 7)
	for i := 0; i < 100; i++ {
		rate := sampler.NextRate()
		found := false
		for _, r := range series.Returns {
			if r.Equal(rate) {
				found = true
				break
			}
		}
		require.True(t, found, "drawn rate %s must come from the bonds series", rate)
	}
}

func TestNewGrowthSamplerUnknownCategory(t *testing.T) {
	data := DefaultHistoricalData()

	_, err := NewGrowthSampler("crypto", 42, data)

	var cfgErr *domain.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "unknown growth category")
}

func TestFixedGrowthIsConstant(t *testing.T) {
	g := domain.FixedGrowth{Rate: decimal.NewFromFloat(0.05)}

	for i := 0; i < 5; i++ {
		assert.True(t, g.NextRate().Equal(decimal.NewFromFloat(0.05)))
	}
}
