package integration

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spear/financial-simulator/internal/config"
	"github.com/spear/financial-simulator/internal/simulation"
)

// Full pipeline: YAML plan -> validated simulator -> Monte Carlo result.
const planYAML = `
simulation:
  start_year: 2024
  duration: 20
  number_of_simulations: 100
  seed: 1234
  workers: 4

revenues:
  - name: salary
    initial_value: 90000
    rate: 0.02
    jurisdiction: CA

expenses:
  - name: living
    initial_value: 45000
    rate: 0.03

assets:
  - name: 401k
    growth_type: stocks
    cap_deposit: 23000
    treatment: pretax
  - name: cash
    initial_value: 10000
    growth_rate: 0.01
    cash: true

portfolios:
  - name: taxable
    assets:
      - name: brokerage-stocks
        initial_value: 20000
        growth_type: stocks
        allocation: 0.6
        treatment: taxable
      - name: brokerage-bonds
        initial_value: 10000
        growth_type: bonds
        allocation: 0.4
        treatment: taxable

events:
  - name: downshift
    offset: 10
    actions:
      - target: salary
        action: set_value
        value: 40000
      - target: living
        action: set_rate
        value: 0.02
`

func TestEndToEndRun(t *testing.T) {
	plan, opts, err := config.Parse([]byte(planYAML))
	require.NoError(t, err)

	sim, err := simulation.NewSimulator(plan, simulation.NewTaxCalculator(), simulation.DefaultHistoricalData(), opts)
	require.NoError(t, err)

	result, err := sim.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 100, result.Successful())
	assert.Empty(t, result.Failures)

	// Every object has a full 20-year history in every trial.
	for _, name := range []string{"salary", "living", "401k", "cash", "brokerage-stocks", "brokerage-bonds"} {
		histories := result.Histories(name)
		require.Len(t, histories, 100, "histories for %q", name)
		for _, h := range histories {
			require.Len(t, h, 20)
		}
	}

	// The downshift event takes hold in year 10 of every trial.
	for _, h := range result.Histories("salary") {
		assert.True(t, h[10].Equal(decimal.NewFromInt(40000)), "year 10 salary, got %s", h[10])
		assert.True(t, h[9].GreaterThan(decimal.NewFromInt(90000)), "year 9 salary still evolved, got %s", h[9])
	}

	// Stochastic growth spreads the portfolio outcomes.
	finals := result.FinalValues("brokerage-stocks")
	distinct := map[string]bool{}
	for _, v := range finals {
		distinct[v.String()] = true
	}
	assert.Greater(t, len(distinct), 1)

	// Percentile bands are ordered and defined for every year.
	p25 := result.PercentileByYear("brokerage-stocks", 0.25)
	p75 := result.PercentileByYear("brokerage-stocks", 0.75)
	require.Len(t, p25, 20)
	for y := range p25 {
		assert.True(t, p25[y].LessThanOrEqual(p75[y]))
	}
}

func TestEndToEndReproducibility(t *testing.T) {
	run := func() []decimal.Decimal {
		plan, opts, err := config.Parse([]byte(planYAML))
		require.NoError(t, err)
		sim, err := simulation.NewSimulator(plan, simulation.NewTaxCalculator(), simulation.DefaultHistoricalData(), opts)
		require.NoError(t, err)
		result, err := sim.Run(context.Background())
		require.NoError(t, err)
		return result.FinalValues("brokerage-stocks")
	}

	first := run()
	second := run()
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.True(t, first[i].Equal(second[i]),
			"trial %d: identical seed and plan must reproduce bit-for-bit (%s vs %s)",
			i, first[i], second[i])
	}
}
