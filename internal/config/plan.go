// Package config builds a validated simulation plan from a YAML
// document. All option checking happens here, at construction time;
// the engine itself never sees a malformed plan.
package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/spear/financial-simulator/internal/domain"
	"github.com/spear/financial-simulator/internal/simulation"
)

// File is the on-disk plan layout.
type File struct {
	Simulation SimulationYAML  `yaml:"simulation"`
	Revenues   []FlowYAML      `yaml:"revenues"`
	Expenses   []FlowYAML      `yaml:"expenses"`
	Assets     []AssetYAML     `yaml:"assets"`
	Portfolios []PortfolioYAML `yaml:"portfolios"`
	Events     []EventYAML     `yaml:"events"`
}

type SimulationYAML struct {
	StartYear int   `yaml:"start_year"`
	Duration  int   `yaml:"duration"`
	Trials    int   `yaml:"number_of_simulations"`
	Seed      int64 `yaml:"seed"`
	Workers   int   `yaml:"workers"`
}

type FlowYAML struct {
	Name         string  `yaml:"name"`
	InitialValue float64 `yaml:"initial_value"`
	Rate         float64 `yaml:"rate"` // inflation/growth per year
	Jurisdiction string  `yaml:"jurisdiction"`
}

type AssetYAML struct {
	Name           string  `yaml:"name"`
	InitialValue   float64 `yaml:"initial_value"`
	GrowthRate     float64 `yaml:"growth_rate"`
	GrowthCategory string  `yaml:"growth_type"` // named historical series; empty = fixed rate
	CapValue       float64 `yaml:"cap_value"`
	CapDeposit     float64 `yaml:"cap_deposit"`
	Treatment      string  `yaml:"treatment"` // none | taxable | pretax
	Allocation     float64 `yaml:"allocation"`
	Cash           bool    `yaml:"cash"` // designated fallback/debt asset
}

type PortfolioYAML struct {
	Name   string      `yaml:"name"`
	Assets []AssetYAML `yaml:"assets"`
}

type EventYAML struct {
	Name    string       `yaml:"name"`
	Year    int          `yaml:"year"`   // absolute calendar year
	Offset  *int         `yaml:"offset"` // years after start; exclusive with year
	Actions []ActionYAML `yaml:"actions"`
}

type ActionYAML struct {
	Target   string  `yaml:"target"`
	Op       string  `yaml:"action"`
	Value    float64 `yaml:"value"`
	Duration int     `yaml:"duration"`
}

// Load reads and validates a plan file, returning the domain plan and
// the run options.
func Load(path string) (*domain.Plan, simulation.Options, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, simulation.Options{}, fmt.Errorf("failed to read plan %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse builds a plan from raw YAML.
func Parse(raw []byte) (*domain.Plan, simulation.Options, error) {
	var file File
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, simulation.Options{}, fmt.Errorf("failed to parse plan YAML: %w", err)
	}

	plan, err := buildPlan(&file)
	if err != nil {
		return nil, simulation.Options{}, err
	}
	if err := plan.Validate(); err != nil {
		return nil, simulation.Options{}, err
	}

	opts := simulation.Options{
		NumTrials: file.Simulation.Trials,
		Seed:      file.Simulation.Seed,
		Workers:   file.Simulation.Workers,
	}
	return plan, opts, nil
}

func buildPlan(file *File) (*domain.Plan, error) {
	plan := &domain.Plan{
		StartYear: file.Simulation.StartYear,
		Duration:  file.Simulation.Duration,
	}
	if plan.StartYear == 0 {
		return nil, domain.Configf("simulation.start_year is required")
	}

	for _, f := range file.Revenues {
		if f.Name == "" {
			return nil, domain.Configf("revenue without a name")
		}
		plan.Revenues = append(plan.Revenues, domain.NewRevenue(
			f.Name, decimal.NewFromFloat(f.InitialValue), decimal.NewFromFloat(f.Rate), f.Jurisdiction))
	}
	for _, f := range file.Expenses {
		if f.Name == "" {
			return nil, domain.Configf("expense without a name")
		}
		plan.Expenses = append(plan.Expenses, domain.NewExpense(
			f.Name, decimal.NewFromFloat(f.InitialValue), decimal.NewFromFloat(f.Rate)))
	}

	for _, a := range file.Assets {
		asset, err := buildAsset(a)
		if err != nil {
			return nil, err
		}
		plan.Assets = append(plan.Assets, asset)
		if a.Cash {
			if plan.CashAsset != "" {
				return nil, domain.Configf("both %q and %q designated as the cash asset", plan.CashAsset, a.Name)
			}
			plan.CashAsset = a.Name
		}
	}

	for _, p := range file.Portfolios {
		var assets []*domain.Asset
		var allocs []decimal.Decimal
		for _, a := range p.Assets {
			if a.Cash {
				return nil, domain.Configf("portfolio member %q cannot be the cash asset", a.Name)
			}
			asset, err := buildAsset(a)
			if err != nil {
				return nil, err
			}
			assets = append(assets, asset)
			allocs = append(allocs, decimal.NewFromFloat(a.Allocation))
		}
		pf, err := domain.NewPortfolio(p.Name, assets, allocs)
		if err != nil {
			return nil, err
		}
		plan.Portfolios = append(plan.Portfolios, pf)
	}

	for _, e := range file.Events {
		ev, err := buildEvent(e, plan.StartYear)
		if err != nil {
			return nil, err
		}
		plan.Events = append(plan.Events, ev)
	}
	return plan, nil
}

func buildAsset(a AssetYAML) (*domain.Asset, error) {
	if a.Name == "" {
		return nil, domain.Configf("asset without a name")
	}
	asset := domain.NewAsset(a.Name, decimal.NewFromFloat(a.InitialValue), decimal.NewFromFloat(a.GrowthRate))
	asset.GrowthCategory = a.GrowthCategory
	asset.CapValue = decimal.NewFromFloat(a.CapValue)
	asset.CapDeposit = decimal.NewFromFloat(a.CapDeposit)
	switch a.Treatment {
	case "", "none":
		asset.Treatment = domain.TaxNone
	case "taxable":
		asset.Treatment = domain.TaxableGrowth
	case "pretax":
		asset.Treatment = domain.PreTax
	default:
		return nil, domain.Configf("asset %q: unknown treatment %q (none, taxable, pretax)", a.Name, a.Treatment)
	}
	return asset, nil
}

func buildEvent(e EventYAML, startYear int) (*domain.Event, error) {
	if e.Name == "" {
		return nil, domain.Configf("event without a name")
	}
	year := e.Year
	switch {
	case e.Year != 0 && e.Offset != nil:
		return nil, domain.Configf("event %q sets both year and offset", e.Name)
	case e.Year == 0 && e.Offset == nil:
		return nil, domain.Configf("event %q sets neither year nor offset", e.Name)
	case e.Offset != nil:
		if *e.Offset < 0 {
			return nil, domain.Configf("event %q has negative offset %d", e.Name, *e.Offset)
		}
		year = startYear + *e.Offset
	}

	ev := &domain.Event{Name: e.Name, Year: year}
	if len(e.Actions) == 0 {
		return nil, domain.Configf("event %q has no actions", e.Name)
	}
	for _, a := range e.Actions {
		op, err := parseOp(a.Op)
		if err != nil {
			return nil, fmt.Errorf("event %q: %w", e.Name, err)
		}
		if a.Duration < 0 {
			return nil, domain.Configf("event %q: negative duration %d", e.Name, a.Duration)
		}
		ev.Actions = append(ev.Actions, domain.Action{
			Target:   a.Target,
			Op:       op,
			Value:    decimal.NewFromFloat(a.Value),
			Duration: a.Duration,
		})
	}
	return ev, nil
}

func parseOp(op string) (domain.ActionOp, error) {
	switch domain.ActionOp(op) {
	case domain.OpSetValue, domain.OpAddToValue, domain.OpSetRate,
		domain.OpSetGrowthRate, domain.OpSetCapValue, domain.OpSetCapDeposit:
		return domain.ActionOp(op), nil
	default:
		return "", domain.Configf("unknown action %q", op)
	}
}
