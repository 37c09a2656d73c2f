package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlowEvolveRecordsPreEvolutionValue(t *testing.T) {
	housing := NewExpense("housing", decimal.NewFromInt(20000), decimal.NewFromFloat(0.03))

	housing.Evolve()

	require.Len(t, housing.History, 1)
	assert.True(t, housing.History[0].Equal(decimal.NewFromInt(20000)),
		"history must record the value used during the year, got %s", housing.History[0])
	assert.True(t, housing.Value.Equal(decimal.NewFromInt(20600)),
		"value after evolve should be 20600, got %s", housing.Value)
}

func TestFlowEvolveCompounds(t *testing.T) {
	housing := NewExpense("housing", decimal.NewFromInt(20000), decimal.NewFromFloat(0.03))

	for i := 0; i < 10; i++ {
		housing.Evolve()
	}

	require.Len(t, housing.History, 10)
	// Year 10 uses the value inflated 9 times: 20000 * 1.03^9.
	expected := decimal.NewFromInt(20000).Mul(decimal.NewFromFloat(1.03).Pow(decimal.NewFromInt(9)))
	assert.True(t, housing.History[9].Sub(expected).Abs().LessThan(decimal.NewFromFloat(0.01)),
		"year-10 value should be ~%s, got %s", expected, housing.History[9])
}

func TestFixedRevenueDoesNotEvolve(t *testing.T) {
	salary := NewRevenue("salary", decimal.NewFromInt(70000), decimal.Zero, "MA")

	salary.Evolve()
	salary.Evolve()

	assert.True(t, salary.Value.Equal(decimal.NewFromInt(70000)))
	require.Len(t, salary.History, 2)
	for _, v := range salary.History {
		assert.True(t, v.Equal(decimal.NewFromInt(70000)))
	}
}

func TestFlowApplyAction(t *testing.T) {
	tests := []struct {
		name      string
		op        ActionOp
		value     float64
		wantValue float64
		wantRate  float64
	}{
		{"set value", OpSetValue, 0, 0, 0.02},
		{"add to value", OpAddToValue, 5000, 75000, 0.02},
		{"set rate", OpSetRate, 0.05, 70000, 0.05},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewRevenue("salary", decimal.NewFromInt(70000), decimal.NewFromFloat(0.02), "MA")

			restore, err := f.ApplyAction(Action{Target: "salary", Op: tt.op, Value: decimal.NewFromFloat(tt.value)})
			require.NoError(t, err)
			assert.True(t, f.Value.Equal(decimal.NewFromFloat(tt.wantValue)), "value: got %s", f.Value)
			assert.True(t, f.Rate.Equal(decimal.NewFromFloat(tt.wantRate)), "rate: got %s", f.Rate)

			restore()
			assert.True(t, f.Value.Equal(decimal.NewFromInt(70000)), "restore should revert value")
			assert.True(t, f.Rate.Equal(decimal.NewFromFloat(0.02)), "restore should revert rate")
		})
	}
}

func TestFlowApplyActionRejectsAssetOps(t *testing.T) {
	f := NewExpense("housing", decimal.NewFromInt(20000), decimal.Zero)

	_, err := f.ApplyAction(Action{Target: "housing", Op: OpSetCapValue, Value: decimal.NewFromInt(1)})

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestFlowCloneIsIndependent(t *testing.T) {
	f := NewExpense("housing", decimal.NewFromInt(20000), decimal.NewFromFloat(0.03))
	f.Evolve()

	c := f.Clone()
	c.Evolve()
	c.History[0] = decimal.Zero

	assert.Len(t, f.History, 1)
	assert.True(t, f.History[0].Equal(decimal.NewFromInt(20000)))
	assert.Len(t, c.History, 2)
}
