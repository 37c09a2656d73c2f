package simulation

import (
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/spear/financial-simulator/internal/domain"
)

// HistoricalGrowth samples annual rates i.i.d. with replacement from a
// category's return series. The RNG is private to the sampler: two
// samplers built with the same seed and series produce identical
// sequences, which is what makes trials reproducible.
type HistoricalGrowth struct {
	series *ReturnSeries
	rng    *rand.Rand
}

// NewHistoricalGrowth binds a sampler to a series with its own seeded RNG.
func NewHistoricalGrowth(series *ReturnSeries, seed int64) *HistoricalGrowth {
	return &HistoricalGrowth{
		series: series,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// NextRate draws one annual return.
func (g *HistoricalGrowth) NextRate() decimal.Decimal {
	return g.series.Returns[g.rng.Intn(len(g.series.Returns))]
}

// NewGrowthSampler builds the growth rule for a category. Unknown
// categories fail with a ConfigError.
func NewGrowthSampler(category string, seed int64, data *HistoricalData) (domain.GrowthRule, error) {
	series, err := data.Series(category)
	if err != nil {
		return nil, err
	}
	return NewHistoricalGrowth(series, seed), nil
}
