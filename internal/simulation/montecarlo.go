package simulation

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/spear/financial-simulator/internal/domain"
)

// Options configures a Monte Carlo run.
type Options struct {
	NumTrials int
	Seed      int64
	Workers   int // parallel trial workers; defaults to 8
	Logger    Logger
}

const defaultWorkers = 8

// Simulator runs many independent trials of one plan and aggregates
// their trajectories. Trials share no mutable state: each gets a deep
// copy of the plan and its own derived random streams, so they may run
// on parallel workers in any order.
type Simulator struct {
	runner *TrialRunner
	plan   *domain.Plan
	opts   Options
	log    Logger
}

// NewSimulator validates the plan against the tax tables and historical
// data so that every configuration error surfaces here, never mid-run.
func NewSimulator(plan *domain.Plan, tax *TaxCalculator, data *HistoricalData, opts Options) (*Simulator, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	if opts.NumTrials <= 0 {
		return nil, domain.Configf("number of simulations must be positive, got %d", opts.NumTrials)
	}
	for _, r := range plan.Revenues {
		if !tax.HasJurisdiction(r.Jurisdiction) {
			return nil, domain.Configf("revenue %q: unknown jurisdiction %q", r.Name, r.Jurisdiction)
		}
	}
	for _, a := range plan.AllAssets() {
		if a.GrowthCategory == "" {
			continue
		}
		if _, err := data.Series(a.GrowthCategory); err != nil {
			return nil, err
		}
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	log := opts.Logger
	if log == nil {
		log = NopLogger{}
	}
	return &Simulator{
		runner: NewTrialRunner(plan, tax, data, NopLogger{}),
		plan:   plan,
		opts:   opts,
		log:    log,
	}, nil
}

// TrialFailure records one failed trial without affecting the others.
type TrialFailure struct {
	Trial int
	Year  int
	Err   error
}

// Result is the aggregate of a full Monte Carlo run: every successful
// trial's per-object, per-year history, plus the failures. Aggregation
// queries operate over successful trials only.
type Result struct {
	RunID     uuid.UUID
	StartYear int
	Duration  int
	NumTrials int
	Trials    []*TrialResult // nil entries mark failed trials
	Failures  []TrialFailure
}

// Run executes all trials on parallel workers. Cancelling the context
// aborts remaining trials; completed trials are kept and returned with
// the context's error.
func (s *Simulator) Run(ctx context.Context) (*Result, error) {
	result := &Result{
		RunID:     uuid.New(),
		StartYear: s.plan.StartYear,
		Duration:  s.plan.Duration,
		NumTrials: s.opts.NumTrials,
		Trials:    make([]*TrialResult, s.opts.NumTrials),
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)

	s.log.Infof("starting %d trials over %d years (seed %d, %d workers)",
		s.opts.NumTrials, s.plan.Duration, s.opts.Seed, s.opts.Workers)

	for i := 0; i < s.opts.NumTrials; i++ {
		trial := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tr, err := s.runner.Run(trial, s.opts.Seed)
			if err != nil {
				year := 0
				var simErr *domain.SimError
				if errors.As(err, &simErr) {
					year = simErr.Year
				}
				s.log.Warnf("trial %d failed: %v", trial, err)
				mu.Lock()
				result.Failures = append(result.Failures, TrialFailure{Trial: trial, Year: year, Err: err})
				mu.Unlock()
				return nil // a failed trial never stops the others
			}
			result.Trials[trial] = tr
			return nil
		})
	}

	err := g.Wait()
	sort.Slice(result.Failures, func(i, j int) bool {
		return result.Failures[i].Trial < result.Failures[j].Trial
	})
	s.log.Infof("run %s finished: %d succeeded, %d failed",
		result.RunID, result.Successful(), len(result.Failures))
	return result, err
}

// Successful counts completed trials.
func (r *Result) Successful() int {
	n := 0
	for _, t := range r.Trials {
		if t != nil {
			n++
		}
	}
	return n
}

// Histories returns one object's year-by-year values for every
// successful trial, ordered by trial index.
func (r *Result) Histories(name string) [][]decimal.Decimal {
	var out [][]decimal.Decimal
	for _, t := range r.Trials {
		if t == nil {
			continue
		}
		if h, ok := t.Histories[name]; ok {
			out = append(out, h)
		}
	}
	return out
}

// FinalValues returns one object's last-year value across successful
// trials.
func (r *Result) FinalValues(name string) []decimal.Decimal {
	var out []decimal.Decimal
	for _, h := range r.Histories(name) {
		if len(h) > 0 {
			out = append(out, h[len(h)-1])
		}
	}
	return out
}

// MeanByYear returns one object's cross-trial mean for each year.
func (r *Result) MeanByYear(name string) []decimal.Decimal {
	histories := r.Histories(name)
	if len(histories) == 0 {
		return nil
	}
	n := decimal.NewFromInt(int64(len(histories)))
	out := make([]decimal.Decimal, len(histories[0]))
	for y := range out {
		sum := decimal.Zero
		for _, h := range histories {
			sum = sum.Add(h[y])
		}
		out[y] = sum.Div(n)
	}
	return out
}

// PercentileByYear returns one object's cross-trial percentile band for
// each year. p is in [0, 1]; 0.5 is the median.
func (r *Result) PercentileByYear(name string, p float64) []decimal.Decimal {
	histories := r.Histories(name)
	if len(histories) == 0 {
		return nil
	}
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	out := make([]decimal.Decimal, len(histories[0]))
	values := make([]decimal.Decimal, len(histories))
	for y := range out {
		for i, h := range histories {
			values[i] = h[y]
		}
		sort.Slice(values, func(i, j int) bool { return values[i].LessThan(values[j]) })
		idx := int(p * float64(len(values)-1))
		out[y] = values[idx]
	}
	return out
}
