package simulation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/spear/financial-simulator/internal/domain"
	"github.com/spear/financial-simulator/pkg/money"
)

// YearSummary is the per-year accounting trace of one AdvanceYear call.
type YearSummary struct {
	Year           int
	GrossFlow      decimal.Decimal // revenues minus expenses
	PreTaxDeposits decimal.Decimal
	Tax            decimal.Decimal
	Distributed    decimal.Decimal
	Unallocated    decimal.Decimal // residual no asset could absorb, fallback included
}

// YearEngine advances one trial's plan through the fixed per-year
// protocol. The phase order is a design invariant: it decides whether
// money is taxed before or after being invested and when debt accrues.
//
//  0. fire events (and pending reverts) so mutations cover the whole year
//  1. balance cash flow: revenues minus expenses
//  2. deposit into pre-tax assets from available cash
//  3. tax revenues on (gross revenue - pre-tax deposits)
//  4. distribute remaining cash to assets; shortfalls accrue as debt on
//     the cash asset
//  5. grow every asset, then rebalance portfolios
//  6. evolve flows for next year and record all histories
type YearEngine struct {
	plan      *domain.Plan
	tax       *TaxCalculator
	scheduler *EventScheduler
	log       Logger
}

// NewYearEngine wires an engine for one trial-scoped plan. A nil logger
// means no output.
func NewYearEngine(plan *domain.Plan, tax *TaxCalculator, scheduler *EventScheduler, log Logger) *YearEngine {
	if log == nil {
		log = NopLogger{}
	}
	return &YearEngine{plan: plan, tax: tax, scheduler: scheduler, log: log}
}

// AdvanceYear advances all state by exactly one year.
func (e *YearEngine) AdvanceYear(year int) (YearSummary, error) {
	summary := YearSummary{Year: year}
	cash := e.plan.Cash()

	for _, a := range e.plan.AllAssets() {
		a.ResetYear()
	}

	fired, err := e.scheduler.Fire(year)
	if err != nil {
		return summary, err
	}
	for _, ev := range fired {
		e.log.Infof("year %d: event %q fired", year, ev.Name)
	}

	// Phase 1: balance cash flow.
	grossRevenue := decimal.Zero
	for _, r := range e.plan.Revenues {
		grossRevenue = grossRevenue.Add(r.Value)
	}
	grossExpense := decimal.Zero
	for _, x := range e.plan.Expenses {
		grossExpense = grossExpense.Add(x.Value)
	}
	summary.GrossFlow = grossRevenue.Sub(grossExpense)
	e.log.Infof("year %d: revenues %s, expenses %s, gross flow %s",
		year, grossRevenue, grossExpense, summary.GrossFlow)

	available := summary.GrossFlow
	if available.IsNegative() {
		// Shortfall becomes debt immediately; nothing to invest.
		cash.AddBalance(available)
		e.log.Infof("year %d: shortfall %s added to %s as debt", year, available.Neg(), cash.Name)
		available = decimal.Zero
	}

	// Phase 2: pre-tax deposits, drawn from available cash.
	for _, a := range e.plan.AllAssets() {
		if a.Treatment != domain.PreTax || !available.IsPositive() {
			continue
		}
		dep := a.Deposit(available)
		available = available.Sub(dep)
		summary.PreTaxDeposits = summary.PreTaxDeposits.Add(dep)
		if dep.IsPositive() {
			e.log.Infof("year %d: pre-tax deposit %s into %s", year, dep, a.Name)
		}
	}

	// Phase 3: tax revenues on gross income less pre-tax deposits. The
	// deduction is apportioned across revenues pro-rata by their share of
	// gross revenue, each taxed under its own jurisdiction.
	if grossRevenue.IsPositive() {
		for _, r := range e.plan.Revenues {
			deduction := summary.PreTaxDeposits.Mul(r.Value.Div(grossRevenue))
			owed, err := e.tax.Total(r.Value.Sub(deduction), r.Jurisdiction)
			if err != nil {
				return summary, fmt.Errorf("taxing revenue %q: %w", r.Name, err)
			}
			summary.Tax = summary.Tax.Add(owed)
		}
		available = available.Sub(summary.Tax)
		e.log.Infof("year %d: tax owed %s", year, summary.Tax)
	}

	// Phase 4: distribute what is left. Negative available cash (tax
	// exceeded what remained) accrues as debt on the cash asset.
	if available.IsNegative() {
		cash.AddBalance(available)
	} else {
		summary.Distributed, summary.Unallocated = e.distribute(year, available)
	}

	// Phase 5: growth, then portfolio rebalancing.
	for _, a := range e.plan.AllAssets() {
		a.Grow()
	}
	for _, pf := range e.plan.Portfolios {
		pf.Rebalance()
	}

	// Phase 6: evolve flows for next year; record histories. Expenses
	// inflate last so phase 1 balanced this year's pre-inflation values.
	for _, f := range e.plan.Revenues {
		f.Evolve()
	}
	for _, f := range e.plan.Expenses {
		f.Evolve()
	}
	for _, a := range e.plan.AllAssets() {
		a.Record()
	}

	return summary, e.checkInvariants()
}

// distribute deposits positive cash into standalone assets in declared
// order, then portfolios, with the cash asset last as the fallback sink.
// Returns the amount placed in non-cash assets and the residual absorbed
// by the fallback.
func (e *YearEngine) distribute(year int, amount decimal.Decimal) (distributed, residual decimal.Decimal) {
	cash := e.plan.Cash()
	remaining := amount
	if cash.Value.IsNegative() {
		// Outstanding debt is repaid before anything is invested.
		repay := money.Min(remaining, cash.Value.Neg())
		cash.AddBalance(repay)
		remaining = remaining.Sub(repay)
		if repay.IsPositive() {
			e.log.Infof("year %d: repaid %s of debt on %s", year, repay, cash.Name)
		}
	}
	for _, a := range e.plan.Assets {
		if a == cash || a.Treatment == domain.PreTax || !remaining.IsPositive() {
			continue
		}
		dep := a.Deposit(remaining)
		remaining = remaining.Sub(dep)
		if dep.IsPositive() {
			e.log.Infof("year %d: deposited %s into %s", year, dep, a.Name)
		}
	}
	for _, pf := range e.plan.Portfolios {
		if !remaining.IsPositive() {
			break
		}
		dep := pf.Deposit(remaining)
		remaining = remaining.Sub(dep)
		if dep.IsPositive() {
			e.log.Infof("year %d: deposited %s into portfolio %s", year, dep, pf.Name)
		}
	}
	if remaining.IsPositive() {
		// Every other asset is at its cap: the designated fallback takes
		// the residual rather than stranding it.
		dep := cash.Deposit(remaining)
		remaining = remaining.Sub(dep)
		e.log.Infof("year %d: residual %s absorbed by %s", year, dep, cash.Name)
	}
	if remaining.IsPositive() {
		// Even the fallback is capped. The residual is reported in the
		// summary, never silently dropped.
		e.log.Warnf("year %d: %s of cash flow could not be placed anywhere", year, remaining)
	}
	return amount.Sub(remaining), remaining
}

// checkInvariants verifies that no investment asset went negative; only
// the cash asset may carry debt.
func (e *YearEngine) checkInvariants() error {
	for _, a := range e.plan.AllAssets() {
		if a.Name != e.plan.CashAsset && a.Value.IsNegative() {
			return fmt.Errorf("asset %q has negative value %s", a.Name, money.Round(a.Value))
		}
	}
	return nil
}
