package simulation

import (
	"github.com/spear/financial-simulator/internal/domain"
)

// EventScheduler fires each of a plan's events exactly once, on its
// trigger year, actions in declaration order. Duration-bounded actions
// register a revert that restores the overwritten parameter when the
// duration elapses.
//
// A scheduler is trial-scoped: it holds resolved pointers into one
// trial's cloned plan and fired-state that must never leak across trials.
type EventScheduler struct {
	events  []*domain.Event
	targets map[string]domain.ActionTarget
	fired   map[*domain.Event]bool
	reverts map[int][]func()
}

// NewEventScheduler resolves every action target against the plan and
// validates all trigger years lie within the simulation horizon.
func NewEventScheduler(plan *domain.Plan) (*EventScheduler, error) {
	s := &EventScheduler{
		events:  plan.Events,
		targets: make(map[string]domain.ActionTarget),
		fired:   make(map[*domain.Event]bool),
		reverts: make(map[int][]func()),
	}
	for _, ev := range plan.Events {
		if ev.Year < plan.StartYear || ev.Year >= plan.StartYear+plan.Duration {
			return nil, domain.Configf("event %q triggers in %d, outside [%d, %d)",
				ev.Name, ev.Year, plan.StartYear, plan.StartYear+plan.Duration)
		}
		for _, a := range ev.Actions {
			if _, ok := s.targets[a.Target]; ok {
				continue
			}
			target := plan.Target(a.Target)
			if target == nil {
				return nil, domain.Configf("event %q targets unknown object %q", ev.Name, a.Target)
			}
			s.targets[a.Target] = target
		}
	}
	return s, nil
}

// Fire runs, for the given year, first any pending reverts from earlier
// duration-bounded actions, then every unfired event triggering this
// year. Returns the events that fired.
func (s *EventScheduler) Fire(year int) ([]*domain.Event, error) {
	for _, restore := range s.reverts[year] {
		restore()
	}
	delete(s.reverts, year)

	var fired []*domain.Event
	for _, ev := range s.events {
		if ev.Year != year || s.fired[ev] {
			continue
		}
		for _, a := range ev.Actions {
			restore, err := s.targets[a.Target].ApplyAction(a)
			if err != nil {
				return nil, err
			}
			if a.Duration > 0 {
				s.reverts[year+a.Duration] = append(s.reverts[year+a.Duration], restore)
			}
		}
		s.fired[ev] = true
		fired = append(fired, ev)
	}
	return fired, nil
}
