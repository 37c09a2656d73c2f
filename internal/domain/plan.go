package domain

// Plan is the complete financial model for one simulation: flows, assets,
// portfolios, and scheduled events, plus the simulation horizon. A Plan
// is a template; each trial runs on its own deep copy.
type Plan struct {
	StartYear int
	Duration  int

	Revenues   []*Flow
	Expenses   []*Flow
	Assets     []*Asset // deposit order for phase 4
	Portfolios []*Portfolio

	// CashAsset names the designated fallback liquid asset. It receives
	// residual cash nothing else can absorb and carries debt as a
	// negative balance. It must be one of Assets.
	CashAsset string

	Events []*Event
}

// Validate checks the construction-time invariants that do not depend on
// reference data: horizon, cash asset designation, name uniqueness, and
// event trigger ranges.
func (p *Plan) Validate() error {
	if p.Duration <= 0 {
		return Configf("duration must be positive, got %d", p.Duration)
	}
	if p.CashAsset == "" {
		return Configf("a cash asset must be designated as the fallback for residual cash and debt")
	}
	cash := p.asset(p.CashAsset)
	if cash == nil {
		return Configf("cash asset %q is not among the plan's assets", p.CashAsset)
	}
	if cash.Treatment == PreTax {
		return Configf("cash asset %q cannot be pre-tax", p.CashAsset)
	}

	seen := map[string]bool{}
	for _, t := range p.Targets() {
		name := t.TargetName()
		if seen[name] {
			return Configf("duplicate object name %q", name)
		}
		seen[name] = true
	}

	for _, ev := range p.Events {
		if ev.Year < p.StartYear || ev.Year >= p.StartYear+p.Duration {
			return Configf("event %q triggers in %d, outside [%d, %d)",
				ev.Name, ev.Year, p.StartYear, p.StartYear+p.Duration)
		}
		for _, a := range ev.Actions {
			if p.Target(a.Target) == nil {
				return Configf("event %q targets unknown object %q", ev.Name, a.Target)
			}
		}
	}
	return nil
}

// AllAssets returns every asset in the plan, standalone ones first, then
// portfolio members, in declared order.
func (p *Plan) AllAssets() []*Asset {
	out := append([]*Asset(nil), p.Assets...)
	for _, pf := range p.Portfolios {
		out = append(out, pf.Assets...)
	}
	return out
}

// Cash returns the designated fallback/debt asset.
func (p *Plan) Cash() *Asset {
	return p.asset(p.CashAsset)
}

func (p *Plan) asset(name string) *Asset {
	for _, a := range p.AllAssets() {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// Targets lists every object addressable by an event action.
func (p *Plan) Targets() []ActionTarget {
	var out []ActionTarget
	for _, f := range p.Revenues {
		out = append(out, f)
	}
	for _, f := range p.Expenses {
		out = append(out, f)
	}
	for _, a := range p.AllAssets() {
		out = append(out, a)
	}
	return out
}

// Target resolves an action target by name, or nil.
func (p *Plan) Target(name string) ActionTarget {
	for _, t := range p.Targets() {
		if t.TargetName() == name {
			return t
		}
	}
	return nil
}

// Clone deep-copies the plan so a trial owns all mutable state.
func (p *Plan) Clone() *Plan {
	c := &Plan{
		StartYear: p.StartYear,
		Duration:  p.Duration,
		CashAsset: p.CashAsset,
	}
	for _, f := range p.Revenues {
		c.Revenues = append(c.Revenues, f.Clone())
	}
	for _, f := range p.Expenses {
		c.Expenses = append(c.Expenses, f.Clone())
	}
	for _, a := range p.Assets {
		c.Assets = append(c.Assets, a.Clone())
	}
	for _, pf := range p.Portfolios {
		c.Portfolios = append(c.Portfolios, pf.Clone())
	}
	for _, ev := range p.Events {
		c.Events = append(c.Events, ev.Clone())
	}
	return c
}
