package simulation

import (
	"github.com/shopspring/decimal"

	"github.com/spear/financial-simulator/internal/domain"
)

// goldenGamma spreads trial indices across the seed space so derived
// streams do not overlap (Weyl sequence increment).
const goldenGamma uint64 = 0x9E3779B97F4A7C15

// deriveSeed maps (base seed, trial, object index) to an independent
// stream seed. Deterministic, so trials are reproducible individually and
// collectively no matter which worker runs them.
func deriveSeed(base int64, trial, object int) int64 {
	s := uint64(base) ^ uint64(trial+1)*goldenGamma
	s += uint64(object+1) * 0xBF58476D1CE4E5B9
	return int64(s)
}

// TrialResult is the complete trajectory of one trial: per-object
// year-by-year histories plus the engine's accounting summaries.
type TrialResult struct {
	Trial     int
	Histories map[string][]decimal.Decimal
	Summaries []YearSummary
}

// TrialRunner executes single trials against a plan template. The
// template is never mutated: every trial runs on its own deep copy with
// freshly bound growth samplers.
type TrialRunner struct {
	plan *domain.Plan
	tax  *TaxCalculator
	data *HistoricalData
	log  Logger
}

// NewTrialRunner wires a runner. The plan is kept as a read-only template.
func NewTrialRunner(plan *domain.Plan, tax *TaxCalculator, data *HistoricalData, log Logger) *TrialRunner {
	if log == nil {
		log = NopLogger{}
	}
	return &TrialRunner{plan: plan, tax: tax, data: data, log: log}
}

// Run executes one trial: clone the plan, bind trial-seeded samplers,
// advance year by year strictly in order. Errors are wrapped as SimError
// carrying the trial index and year.
func (r *TrialRunner) Run(trial int, seed int64) (*TrialResult, error) {
	plan := r.plan.Clone()

	for i, a := range plan.AllAssets() {
		if a.GrowthCategory == "" {
			continue
		}
		sampler, err := NewGrowthSampler(a.GrowthCategory, deriveSeed(seed, trial, i), r.data)
		if err != nil {
			return nil, err
		}
		a.Growth = sampler
	}

	scheduler, err := NewEventScheduler(plan)
	if err != nil {
		return nil, err
	}
	engine := NewYearEngine(plan, r.tax, scheduler, r.log)

	result := &TrialResult{
		Trial:     trial,
		Histories: make(map[string][]decimal.Decimal),
		Summaries: make([]YearSummary, 0, plan.Duration),
	}
	for year := plan.StartYear; year < plan.StartYear+plan.Duration; year++ {
		summary, err := engine.AdvanceYear(year)
		if err != nil {
			return nil, &domain.SimError{Trial: trial, Year: year, Err: err}
		}
		result.Summaries = append(result.Summaries, summary)
	}

	for _, f := range plan.Revenues {
		result.Histories[f.Name] = f.History
	}
	for _, f := range plan.Expenses {
		result.Histories[f.Name] = f.History
	}
	for _, a := range plan.AllAssets() {
		result.Histories[a.Name] = a.History
	}
	return result, nil
}
