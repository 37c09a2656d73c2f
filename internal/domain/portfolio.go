package domain

import (
	"github.com/shopspring/decimal"

	"github.com/spear/financial-simulator/pkg/money"
)

// allocationTolerance bounds the floating-point slack allowed when
// checking that allocations sum to 1.
var allocationTolerance = decimal.NewFromFloat(1e-9)

// Portfolio is an ordered group of assets under a fixed target
// allocation. Deposits split pro-rata by allocation; after each growth
// phase a zero-sum rebalance restores the target weights.
type Portfolio struct {
	Name        string
	Assets      []*Asset
	Allocations []decimal.Decimal
}

// NewPortfolio validates that allocations match the assets one-to-one and
// sum to 1 within tolerance.
func NewPortfolio(name string, assets []*Asset, allocations []decimal.Decimal) (*Portfolio, error) {
	if len(assets) == 0 {
		return nil, Configf("portfolio %q has no assets", name)
	}
	if len(assets) != len(allocations) {
		return nil, Configf("portfolio %q has %d assets but %d allocations", name, len(assets), len(allocations))
	}
	total := decimal.Zero
	for i, alloc := range allocations {
		if alloc.IsNegative() {
			return nil, Configf("portfolio %q: allocation for %q is negative", name, assets[i].Name)
		}
		total = total.Add(alloc)
	}
	if total.Sub(decimal.NewFromInt(1)).Abs().GreaterThan(allocationTolerance) {
		return nil, Configf("portfolio %q allocations sum to %s, must sum to 1", name, total)
	}
	return &Portfolio{Name: name, Assets: assets, Allocations: allocations}, nil
}

// Value is the combined value of all member assets.
func (p *Portfolio) Value() decimal.Decimal {
	total := decimal.Zero
	for _, a := range p.Assets {
		total = total.Add(a.Value)
	}
	return total
}

// Deposit splits amount across members pro-rata by allocation, then
// cascades whatever capped members rejected into members that still have
// room. Returns the total actually deposited.
func (p *Portfolio) Deposit(amount decimal.Decimal) decimal.Decimal {
	if !amount.IsPositive() {
		return decimal.Zero
	}
	deposited := decimal.Zero
	for i, a := range p.Assets {
		deposited = deposited.Add(a.Deposit(amount.Mul(p.Allocations[i])))
	}
	// Overflow pass: members at their caps leave a remainder for the rest.
	remainder := amount.Sub(deposited)
	for _, a := range p.Assets {
		if !remainder.IsPositive() {
			break
		}
		d := a.Deposit(remainder)
		remainder = remainder.Sub(d)
		deposited = deposited.Add(d)
	}
	return deposited
}

// Rebalance restores target allocations by zero-sum transfer: total
// portfolio value is unchanged. Members whose value cap sits below their
// target keep the cap; the excess is spread over uncapped members in
// proportion to their allocations. With every member capped, the excess
// cascades into remaining cap room in declared order, and anything above
// the combined caps stays in place pro-rata: growth may legitimately
// carry a fully capped portfolio past its caps, and rebalancing must
// never shrink it.
func (p *Portfolio) Rebalance() {
	total := p.Value()
	if !total.IsPositive() {
		return
	}

	targets := make([]decimal.Decimal, len(p.Assets))
	excess := decimal.Zero
	uncappedWeight := decimal.Zero
	for i, a := range p.Assets {
		targets[i] = total.Mul(p.Allocations[i])
		if a.CapValue.IsPositive() && targets[i].GreaterThan(a.CapValue) {
			excess = excess.Add(targets[i].Sub(a.CapValue))
			targets[i] = a.CapValue
		} else if !a.CapValue.IsPositive() {
			uncappedWeight = uncappedWeight.Add(p.Allocations[i])
		}
	}
	if excess.IsPositive() {
		if uncappedWeight.IsPositive() {
			for i, a := range p.Assets {
				if !a.CapValue.IsPositive() {
					targets[i] = targets[i].Add(excess.Mul(p.Allocations[i].Div(uncappedWeight)))
				}
			}
		} else {
			for i, a := range p.Assets {
				room := a.CapValue.Sub(targets[i])
				if room.IsPositive() {
					take := money.Min(excess, room)
					targets[i] = targets[i].Add(take)
					excess = excess.Sub(take)
				}
				if !excess.IsPositive() {
					break
				}
			}
			if excess.IsPositive() {
				// Total already exceeds the combined caps.
				for i := range p.Assets {
					targets[i] = targets[i].Add(excess.Mul(p.Allocations[i]))
				}
			}
		}
	}
	// One member absorbs any division residue so the rebalance is
	// strictly zero-sum: the last uncapped one, or the last member when
	// every cap is set.
	absorber := len(p.Assets) - 1
	for i, a := range p.Assets {
		if !a.CapValue.IsPositive() {
			absorber = i
		}
	}
	rest := decimal.Zero
	for i := range targets {
		if i != absorber {
			rest = rest.Add(targets[i])
		}
	}
	targets[absorber] = total.Sub(rest)
	for i, a := range p.Assets {
		a.Value = targets[i]
	}
}

// Clone deep-copies the portfolio and its member assets.
func (p *Portfolio) Clone() *Portfolio {
	assets := make([]*Asset, len(p.Assets))
	for i, a := range p.Assets {
		assets[i] = a.Clone()
	}
	allocs := append([]decimal.Decimal(nil), p.Allocations...)
	return &Portfolio{Name: p.Name, Assets: assets, Allocations: allocs}
}
