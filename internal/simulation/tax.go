package simulation

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/spear/financial-simulator/internal/domain"
	"github.com/spear/financial-simulator/pkg/money"
)

// TaxBracket is one rung of a progressive schedule. A zero UpTo marks the
// top bracket, unbounded above.
type TaxBracket struct {
	Rate decimal.Decimal
	UpTo decimal.Decimal
}

// TaxSchedule is an ordered list of brackets, lowest first. A nil
// schedule means the jurisdiction levies no income tax.
type TaxSchedule []TaxBracket

// TaxCalculator computes federal plus state income tax liability from
// progressive bracket tables. The compiled-in tables are the 2023
// schedules; LoadTaxTables replaces them from an external YAML file.
type TaxCalculator struct {
	federal TaxSchedule
	states  map[string]TaxSchedule
}

func bracket(rate float64, upTo int64) TaxBracket {
	return TaxBracket{Rate: decimal.NewFromFloat(rate), UpTo: decimal.NewFromInt(upTo)}
}

func topBracket(rate float64) TaxBracket {
	return TaxBracket{Rate: decimal.NewFromFloat(rate)}
}

// NewTaxCalculator returns a calculator loaded with the 2023 federal and
// state tables.
func NewTaxCalculator() *TaxCalculator {
	return &TaxCalculator{
		federal: TaxSchedule{
			bracket(0.10, 11000),
			bracket(0.12, 44725),
			bracket(0.22, 95375),
			bracket(0.24, 182100),
			bracket(0.32, 231250),
			bracket(0.35, 578125),
			topBracket(0.37),
		},
		states: map[string]TaxSchedule{
			"MA": {topBracket(0.05)},
			"PA": {topBracket(0.0307)},
			"MI": {topBracket(0.0425)},
			"CA": {
				bracket(0.01, 9325),
				bracket(0.02, 22107),
				bracket(0.04, 34892),
				bracket(0.06, 48435),
				bracket(0.08, 61214),
				bracket(0.093, 312686),
				bracket(0.103, 375221),
				bracket(0.113, 625369),
				topBracket(0.123),
			},
			"OH": {
				bracket(0, 25000),
				bracket(0.02765, 44250),
				bracket(0.03226, 88450),
				bracket(0.03688, 110650),
				topBracket(0.0399),
			},
			// No state income tax.
			"FL": nil,
			"NH": nil,
			"TX": nil,
			"WA": nil,
		},
	}
}

// HasJurisdiction reports whether a state schedule is known.
func (tc *TaxCalculator) HasJurisdiction(state string) bool {
	_, ok := tc.states[state]
	return ok
}

// Jurisdictions lists the known states, sorted.
func (tc *TaxCalculator) Jurisdictions() []string {
	out := make([]string, 0, len(tc.states))
	for s := range tc.states {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Total computes federal plus state liability on income. Non-positive
// income owes nothing. Unknown jurisdictions fail with a ConfigError.
func (tc *TaxCalculator) Total(income decimal.Decimal, state string) (decimal.Decimal, error) {
	schedule, ok := tc.states[state]
	if !ok {
		return decimal.Zero, domain.Configf("unknown jurisdiction %q (have: %s)",
			state, strings.Join(tc.Jurisdictions(), ", "))
	}
	if !income.IsPositive() {
		return decimal.Zero, nil
	}
	return money.Round(liability(income, tc.federal).Add(liability(income, schedule))), nil
}

// liability walks a progressive schedule: each bracket's width below the
// income is taxed at the bracket rate, the remainder at the marginal rate.
func liability(income decimal.Decimal, schedule TaxSchedule) decimal.Decimal {
	total := decimal.Zero
	prev := decimal.Zero
	for _, b := range schedule {
		top := b.UpTo
		if top.IsZero() {
			top = income // unbounded top bracket
		}
		applicable := money.Min(income, top).Sub(prev)
		if applicable.IsPositive() {
			total = total.Add(applicable.Mul(b.Rate))
			prev = top
		}
		if income.LessThanOrEqual(top) {
			break
		}
	}
	return total
}

// taxTableFile is the external YAML layout for bracket tables.
type taxTableFile struct {
	Federal []taxBracketYAML            `yaml:"federal"`
	States  map[string][]taxBracketYAML `yaml:"states"`
}

type taxBracketYAML struct {
	Rate float64 `yaml:"rate"`
	UpTo int64   `yaml:"up_to"` // absent on the top bracket
}

// LoadTaxTables builds a calculator from an external, versioned YAML
// bracket file, replacing the compiled-in tables entirely.
func LoadTaxTables(path string) (*TaxCalculator, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tax tables %s: %w", path, err)
	}
	var file taxTableFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse tax tables: %w", err)
	}
	if len(file.Federal) == 0 {
		return nil, domain.Configf("tax tables %s define no federal schedule", path)
	}
	tc := &TaxCalculator{
		federal: convertSchedule(file.Federal),
		states:  make(map[string]TaxSchedule, len(file.States)),
	}
	if err := validateSchedule("federal", tc.federal); err != nil {
		return nil, err
	}
	for state, brackets := range file.States {
		schedule := convertSchedule(brackets)
		if err := validateSchedule(state, schedule); err != nil {
			return nil, err
		}
		tc.states[state] = schedule
	}
	return tc, nil
}

// validateSchedule rejects schedules whose highest bracket is bounded:
// income above the bound would go untaxed silently.
func validateSchedule(name string, schedule TaxSchedule) error {
	if len(schedule) == 0 {
		return nil
	}
	if top := schedule[len(schedule)-1]; !top.UpTo.IsZero() {
		return domain.Configf("%s schedule has no unbounded top bracket: income above %s would be untaxed",
			name, top.UpTo)
	}
	return nil
}

func convertSchedule(brackets []taxBracketYAML) TaxSchedule {
	out := make(TaxSchedule, 0, len(brackets))
	for _, b := range brackets {
		out = append(out, TaxBracket{
			Rate: decimal.NewFromFloat(b.Rate),
			UpTo: decimal.NewFromInt(b.UpTo),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UpTo.IsZero() {
			return false
		}
		if out[j].UpTo.IsZero() {
			return true
		}
		return out[i].UpTo.LessThan(out[j].UpTo)
	})
	return out
}
