package domain

import (
	"github.com/shopspring/decimal"

	"github.com/spear/financial-simulator/pkg/money"
)

// FlowKind distinguishes money coming in from money going out.
type FlowKind string

const (
	Revenue FlowKind = "revenue"
	Expense FlowKind = "expense"
)

// Flow is a periodic cash amount: a revenue (salary, rental income) or an
// expense (housing, living costs). Value is the amount in effect for the
// current simulation year; Rate is the annual evolution applied at the end
// of each year (inflation for expenses, raises for revenues, zero for
// fixed flows).
type Flow struct {
	Name         string
	Kind         FlowKind
	Value        decimal.Decimal
	Rate         decimal.Decimal
	Jurisdiction string // revenues only; keys the tax schedule lookup

	// History holds the value used during each completed year, recorded
	// before evolution. Its length always equals the number of completed
	// years. Appended only by Evolve.
	History []decimal.Decimal
}

// NewRevenue builds a taxable revenue flow.
func NewRevenue(name string, value, rate decimal.Decimal, jurisdiction string) *Flow {
	return &Flow{Name: name, Kind: Revenue, Value: value, Rate: rate, Jurisdiction: jurisdiction}
}

// NewExpense builds an expense flow. Rate is typically the inflation rate.
func NewExpense(name string, value, rate decimal.Decimal) *Flow {
	return &Flow{Name: name, Kind: Expense, Value: value, Rate: rate}
}

// Evolve records the value used during the year just completed and then
// advances Value by the flow's rate for the following year. The recorded
// value is the pre-evolution one: history reflects what the year engine
// actually balanced, not next year's inflated figure.
func (f *Flow) Evolve() {
	f.History = append(f.History, f.Value)
	f.Value = money.ApplyRate(f.Value, f.Rate)
}

// Clone returns a deep copy so trials never share mutable state.
func (f *Flow) Clone() *Flow {
	c := *f
	c.History = append([]decimal.Decimal(nil), f.History...)
	return &c
}

// TargetName implements ActionTarget.
func (f *Flow) TargetName() string { return f.Name }

// ApplyAction implements ActionTarget for the flow parameter vocabulary.
func (f *Flow) ApplyAction(a Action) (func(), error) {
	switch a.Op {
	case OpSetValue:
		prev := f.Value
		f.Value = a.Value
		return func() { f.Value = prev }, nil
	case OpAddToValue:
		prev := f.Value
		f.Value = f.Value.Add(a.Value)
		return func() { f.Value = prev }, nil
	case OpSetRate:
		prev := f.Rate
		f.Rate = a.Value
		return func() { f.Rate = prev }, nil
	default:
		return nil, Configf("action %q does not apply to flow %q", a.Op, f.Name)
	}
}
