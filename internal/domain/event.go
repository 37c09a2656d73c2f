package domain

import (
	"github.com/shopspring/decimal"
)

// ActionOp is the closed vocabulary of parameter mutations an Event can
// apply to a flow or asset.
type ActionOp string

const (
	OpSetValue      ActionOp = "set_value"
	OpAddToValue    ActionOp = "add_to_value"
	OpSetRate       ActionOp = "set_rate"        // flow evolution rate
	OpSetGrowthRate ActionOp = "set_growth_rate" // asset growth, replaces any sampler
	OpSetCapValue   ActionOp = "set_cap_value"
	OpSetCapDeposit ActionOp = "set_cap_deposit"
)

// Action mutates one parameter of its target. Duration > 0 means the
// mutation is undone after that many years: the scheduler snapshots the
// overwritten parameter when the action fires and restores it at
// fire_year + Duration. Duration 0 makes the mutation permanent.
type Action struct {
	Target   string
	Op       ActionOp
	Value    decimal.Decimal
	Duration int
}

// Event is a one-time set of parameter mutations fired at the start of
// its year, before any cash flow is balanced. Year is absolute; relative
// offsets are resolved against the simulation start year at load time.
type Event struct {
	Name    string
	Year    int
	Actions []Action
}

// Clone returns a deep copy of the event.
func (e *Event) Clone() *Event {
	c := *e
	c.Actions = make([]Action, len(e.Actions))
	copy(c.Actions, e.Actions)
	return &c
}

// ActionTarget is the capability a flow or asset exposes to the event
// scheduler. ApplyAction performs the mutation and returns a restore
// function that puts the overwritten parameter back, used for
// duration-bounded actions.
type ActionTarget interface {
	TargetName() string
	ApplyAction(a Action) (restore func(), err error)
}
