package domain

import (
	"github.com/shopspring/decimal"

	"github.com/spear/financial-simulator/pkg/money"
)

// TaxTreatment is an orthogonal strategy attached to an asset, not a
// subclass: any asset may combine any treatment with any growth rule.
type TaxTreatment string

const (
	// TaxNone: deposits and growth have no tax effect.
	TaxNone TaxTreatment = "none"
	// TaxableGrowth: growth accrues taxable gains, tracked so a future
	// withdrawal phase can tax them.
	TaxableGrowth TaxTreatment = "taxable"
	// PreTax: deposits reduce taxable income in the deposit year.
	PreTax TaxTreatment = "pretax"
)

// GrowthRule yields one growth rate per simulation year.
type GrowthRule interface {
	NextRate() decimal.Decimal
}

// FixedGrowth always returns the same rate.
type FixedGrowth struct {
	Rate decimal.Decimal
}

func (g FixedGrowth) NextRate() decimal.Decimal { return g.Rate }

// Asset is a store of value. A zero CapValue or CapDeposit means
// uncapped. GrowthCategory, when set, names a historical return series;
// the trial runner binds a per-trial sampler for it, replacing Growth.
//
// Only the plan's designated cash asset may hold a negative value, which
// represents accumulated debt. Investment assets driven negative are a
// trial-fatal invariant violation, checked by the year engine.
type Asset struct {
	Name           string
	Value          decimal.Decimal
	Growth         GrowthRule
	GrowthCategory string
	CapValue       decimal.Decimal
	CapDeposit     decimal.Decimal
	Treatment      TaxTreatment

	// TaxableGains accumulates growth on taxable-on-growth assets so an
	// eventual withdrawal phase can compute gains.
	TaxableGains decimal.Decimal

	// History holds the end-of-year value (post growth) for each
	// completed year. Appended only by Record.
	History []decimal.Decimal

	// depositedThisYear tracks the running deposit total against
	// CapDeposit; the year engine resets it each year.
	depositedThisYear decimal.Decimal
}

// NewAsset builds an asset with a fixed growth rate.
func NewAsset(name string, value, growthRate decimal.Decimal) *Asset {
	return &Asset{Name: name, Value: value, Growth: FixedGrowth{Rate: growthRate}, Treatment: TaxNone}
}

// Deposit adds up to min(amount, remaining deposit cap, room below the
// value cap) and returns the amount actually deposited. The caller
// redistributes any remainder to other assets.
func (a *Asset) Deposit(amount decimal.Decimal) decimal.Decimal {
	if !amount.IsPositive() {
		return decimal.Zero
	}
	dep := amount
	if a.CapDeposit.IsPositive() {
		dep = money.Min(dep, money.NonNegative(a.CapDeposit.Sub(a.depositedThisYear)))
	}
	if a.CapValue.IsPositive() {
		dep = money.Min(dep, money.NonNegative(a.CapValue.Sub(a.Value)))
	}
	a.Value = a.Value.Add(dep)
	a.depositedThisYear = a.depositedThisYear.Add(dep)
	return dep
}

// Withdraw removes up to the available balance and returns the amount
// actually withdrawn. It never drives the asset negative.
func (a *Asset) Withdraw(amount decimal.Decimal) decimal.Decimal {
	if !amount.IsPositive() {
		return decimal.Zero
	}
	w := money.Min(amount, money.NonNegative(a.Value))
	a.Value = a.Value.Sub(w)
	return w
}

// AddBalance adjusts the value directly, bypassing caps. The year engine
// uses it for the cash asset, where a negative delta accrues debt.
func (a *Asset) AddBalance(delta decimal.Decimal) {
	a.Value = a.Value.Add(delta)
}

// Grow applies one year of growth. A negative balance grows too: on the
// cash asset a positive rate models interest charged on debt.
func (a *Asset) Grow() {
	rate := a.Growth.NextRate()
	growth := a.Value.Mul(rate)
	if a.Treatment == TaxableGrowth && growth.IsPositive() {
		a.TaxableGains = a.TaxableGains.Add(growth)
	}
	a.Value = a.Value.Add(growth)
}

// Record appends the end-of-year value to History.
func (a *Asset) Record() {
	a.History = append(a.History, a.Value)
}

// ResetYear clears the per-year deposit counter.
func (a *Asset) ResetYear() {
	a.depositedThisYear = decimal.Zero
}

// Clone returns a deep copy. Growth is shared when it is a stateless
// FixedGrowth; sampler-backed assets are rebound per trial by the caller.
func (a *Asset) Clone() *Asset {
	c := *a
	c.History = append([]decimal.Decimal(nil), a.History...)
	return &c
}

// TargetName implements ActionTarget.
func (a *Asset) TargetName() string { return a.Name }

// ApplyAction implements ActionTarget for the asset parameter vocabulary.
func (a *Asset) ApplyAction(act Action) (func(), error) {
	switch act.Op {
	case OpSetValue:
		prev := a.Value
		a.Value = act.Value
		return func() { a.Value = prev }, nil
	case OpAddToValue:
		prev := a.Value
		a.Value = a.Value.Add(act.Value)
		return func() { a.Value = prev }, nil
	case OpSetGrowthRate:
		prev := a.Growth
		a.Growth = FixedGrowth{Rate: act.Value}
		return func() { a.Growth = prev }, nil
	case OpSetCapValue:
		prev := a.CapValue
		a.CapValue = act.Value
		return func() { a.CapValue = prev }, nil
	case OpSetCapDeposit:
		prev := a.CapDeposit
		a.CapDeposit = act.Value
		return func() { a.CapDeposit = prev }, nil
	default:
		return nil, Configf("action %q does not apply to asset %q", act.Op, a.Name)
	}
}
