package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPortfolio(t *testing.T, stockAlloc, bondAlloc float64) *Portfolio {
	t.Helper()
	stocks := NewAsset("stocks", decimal.Zero, decimal.NewFromFloat(0.07))
	bonds := NewAsset("bonds", decimal.Zero, decimal.NewFromFloat(0.03))
	p, err := NewPortfolio("retirement", []*Asset{stocks, bonds},
		[]decimal.Decimal{decimal.NewFromFloat(stockAlloc), decimal.NewFromFloat(bondAlloc)})
	require.NoError(t, err)
	return p
}

func TestNewPortfolioValidatesAllocations(t *testing.T) {
	tests := []struct {
		name    string
		allocs  []float64
		wantErr bool
	}{
		{"sums to one", []float64{0.7, 0.3}, false},
		{"sums below one", []float64{0.5, 0.3}, true},
		{"sums above one", []float64{0.7, 0.5}, true},
		{"negative allocation", []float64{1.5, -0.5}, true},
		{"within float tolerance", []float64{0.7000000000001, 0.3}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assets := []*Asset{
				NewAsset("stocks", decimal.Zero, decimal.Zero),
				NewAsset("bonds", decimal.Zero, decimal.Zero),
			}
			allocs := make([]decimal.Decimal, len(tt.allocs))
			for i, a := range tt.allocs {
				allocs[i] = decimal.NewFromFloat(a)
			}

			_, err := NewPortfolio("retirement", assets, allocs)

			if tt.wantErr {
				var cfgErr *ConfigError
				require.ErrorAs(t, err, &cfgErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestPortfolioDepositSplitsProRata(t *testing.T) {
	p := newTestPortfolio(t, 0.7, 0.3)

	deposited := p.Deposit(decimal.NewFromInt(10000))

	assert.True(t, deposited.Equal(decimal.NewFromInt(10000)))
	assert.True(t, p.Assets[0].Value.Equal(decimal.NewFromInt(7000)), "stocks: got %s", p.Assets[0].Value)
	assert.True(t, p.Assets[1].Value.Equal(decimal.NewFromInt(3000)), "bonds: got %s", p.Assets[1].Value)
}

func TestPortfolioDepositCascadesOverflow(t *testing.T) {
	p := newTestPortfolio(t, 0.7, 0.3)
	p.Assets[0].CapValue = decimal.NewFromInt(5000)

	deposited := p.Deposit(decimal.NewFromInt(10000))

	// Stocks cap at 5000, the remaining 2000 cascades to bonds.
	assert.True(t, deposited.Equal(decimal.NewFromInt(10000)), "got %s", deposited)
	assert.True(t, p.Assets[0].Value.Equal(decimal.NewFromInt(5000)))
	assert.True(t, p.Assets[1].Value.Equal(decimal.NewFromInt(5000)))
}

func TestPortfolioDepositReportsRejectedRemainder(t *testing.T) {
	p := newTestPortfolio(t, 0.7, 0.3)
	p.Assets[0].CapValue = decimal.NewFromInt(1000)
	p.Assets[1].CapValue = decimal.NewFromInt(1000)

	deposited := p.Deposit(decimal.NewFromInt(10000))

	assert.True(t, deposited.Equal(decimal.NewFromInt(2000)),
		"with every member at cap only 2000 fits, got %s", deposited)
}

func TestPortfolioRebalanceRestoresTargets(t *testing.T) {
	p := newTestPortfolio(t, 0.7, 0.3)
	p.Assets[0].Value = decimal.NewFromInt(9000)
	p.Assets[1].Value = decimal.NewFromInt(1000)

	p.Rebalance()

	assert.True(t, p.Assets[0].Value.Equal(decimal.NewFromInt(7000)), "stocks: got %s", p.Assets[0].Value)
	assert.True(t, p.Assets[1].Value.Equal(decimal.NewFromInt(3000)), "bonds: got %s", p.Assets[1].Value)
}

func TestPortfolioRebalanceIsZeroSum(t *testing.T) {
	p := newTestPortfolio(t, 0.55, 0.45)
	p.Assets[0].Value = decimal.NewFromFloat(12345.67)
	p.Assets[1].Value = decimal.NewFromFloat(8910.11)
	before := p.Value()

	p.Rebalance()

	assert.True(t, p.Value().Equal(before),
		"rebalance must not change total value: before %s, after %s", before, p.Value())
}

func TestPortfolioRebalanceAllMembersOverTheirCaps(t *testing.T) {
	p := newTestPortfolio(t, 0.5, 0.5)
	p.Assets[0].CapValue = decimal.NewFromInt(100)
	p.Assets[1].CapValue = decimal.NewFromInt(100)
	p.Assets[0].Value = decimal.NewFromInt(120)
	p.Assets[1].Value = decimal.NewFromInt(120)
	before := p.Value()

	p.Rebalance()

	// Growth carried both members past their caps; the overflow stays in
	// place pro-rata instead of being destroyed.
	assert.True(t, p.Value().Equal(before),
		"rebalance must not change total value: before %s, after %s", before, p.Value())
	assert.True(t, p.Assets[0].Value.Equal(decimal.NewFromInt(120)), "stocks: got %s", p.Assets[0].Value)
	assert.True(t, p.Assets[1].Value.Equal(decimal.NewFromInt(120)), "bonds: got %s", p.Assets[1].Value)
}

func TestPortfolioRebalanceAllCappedCascadesIntoRoom(t *testing.T) {
	p := newTestPortfolio(t, 0.5, 0.5)
	p.Assets[0].CapValue = decimal.NewFromInt(100)
	p.Assets[1].CapValue = decimal.NewFromInt(500)
	p.Assets[0].Value = decimal.NewFromInt(120)
	p.Assets[1].Value = decimal.NewFromInt(120)
	before := p.Value()

	p.Rebalance()

	// The excess over stocks' cap moves into bonds' remaining room.
	assert.True(t, p.Value().Equal(before),
		"rebalance must not change total value: before %s, after %s", before, p.Value())
	assert.True(t, p.Assets[0].Value.Equal(decimal.NewFromInt(100)), "stocks: got %s", p.Assets[0].Value)
	assert.True(t, p.Assets[1].Value.Equal(decimal.NewFromInt(140)), "bonds: got %s", p.Assets[1].Value)
}

func TestPortfolioRebalanceRespectsValueCap(t *testing.T) {
	p := newTestPortfolio(t, 0.7, 0.3)
	p.Assets[0].CapValue = decimal.NewFromInt(5000)
	p.Assets[0].Value = decimal.NewFromInt(2000)
	p.Assets[1].Value = decimal.NewFromInt(8000)
	before := p.Value()

	p.Rebalance()

	assert.True(t, p.Assets[0].Value.Equal(decimal.NewFromInt(5000)),
		"capped member holds at cap, got %s", p.Assets[0].Value)
	assert.True(t, p.Value().Equal(before))
}
