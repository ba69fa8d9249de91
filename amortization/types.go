/*
Package amortization provides the loan math used by the simulator and the
tracked-account dashboard.

PURPOSE:
  Everything in this package is a pure function of its inputs. There is no
  clock, no I/O, and no shared state: a schedule for one loan never
  depends on a schedule for another, so callers may compute scenarios in
  parallel.

KEY CONCEPTS IN THIS FILE (types.go):
  - LoanInput: What the borrower typed into the calculator
  - Entry: One month of an amortization schedule
  - Scenario: A named, colored payment plan with its summary metrics
  - SimulationResult: The base plan plus two extra-payment simulations

PRECISION:
  Money is decimal.Decimal end to end. Interest is rounded to
  CalcPrecision places each month so a 360-month schedule has bounded
  digit growth, and TotalInterest is the exact sum of those rounded
  values.

TERMINATION:
  Every loop that steps forward in time stops after MaxMonths iterations,
  whatever the inputs.

SEE ALSO:
  - schedule.go: Month-by-month schedule
  - simulation.go: Three-scenario simulation
  - balance.go, payoff.go, coverage.go: Tracked-account helpers
*/
package amortization

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// MaxMonths bounds every forward-stepping loop (30 years).
	MaxMonths = 360

	// MaxSimulations is the number of extra-payment scenarios beside the base.
	MaxSimulations = 2

	// CalcPrecision is the number of decimal places kept for per-month
	// interest and the closed-form payment. A rounding error e grows to
	// about e*(1+r)^n over a schedule, roughly 4e13*e at 100% over 30
	// years, so e must stay far below Epsilon/4e13.
	CalcPrecision = 28
)

var (
	// Epsilon is the balance below which a loan is considered paid off.
	Epsilon = decimal.RequireFromString("0.01")

	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// MonthlyRate converts an annual percentage rate (6 for 6%) to a monthly fraction.
func MonthlyRate(annualRate decimal.Decimal) decimal.Decimal {
	return annualRate.Div(hundred).Div(twelve)
}

// =============================================================================
// LOAN INPUT - Calculator form
// =============================================================================

type TermUnit string

const (
	TermYears  TermUnit = "years"
	TermMonths TermUnit = "months"
)

// LoanInput is the simulator's input.
type LoanInput struct {
	Principal  decimal.Decimal
	AnnualRate decimal.Decimal // percent, 0..100
	Term       int
	Unit       TermUnit
	StartDate  Date

	// ExtraPayments holds up to MaxSimulations extra monthly amounts.
	// Missing entries are treated as zero.
	ExtraPayments []decimal.Decimal
}

// TermInMonths normalizes the term to a number of months.
func (in LoanInput) TermInMonths() int {
	if in.Unit == TermYears {
		return in.Term * 12
	}
	return in.Term
}

// MonthlyRate returns the input's annual rate as a monthly fraction.
func (in LoanInput) MonthlyRate() decimal.Decimal {
	return MonthlyRate(in.AnnualRate)
}

// Extra returns the i-th extra payment, zero when absent.
func (in LoanInput) Extra(i int) decimal.Decimal {
	if i < 0 || i >= len(in.ExtraPayments) {
		return decimal.Zero
	}
	return in.ExtraPayments[i]
}

// Validate checks the input against the calculator's accepted ranges.
func (in LoanInput) Validate() error {
	if !in.Principal.IsPositive() {
		return &InputError{Field: "principal", Message: "must be positive"}
	}
	if in.AnnualRate.IsNegative() || in.AnnualRate.GreaterThan(hundred) {
		return &InputError{Field: "annual_rate", Message: "must be between 0 and 100"}
	}
	if in.Unit != TermYears && in.Unit != TermMonths {
		return &InputError{Field: "term_unit", Message: "must be years or months"}
	}
	if in.Term <= 0 {
		return &InputError{Field: "term", Message: "must be positive"}
	}
	if months := in.TermInMonths(); months > MaxMonths {
		return &InputError{Field: "term", Message: "must not exceed 360 months"}
	}
	if in.StartDate.IsZero() {
		return &InputError{Field: "start_date", Message: "is required"}
	}
	if len(in.ExtraPayments) > MaxSimulations {
		return &InputError{Field: "extra_payments", Message: "at most two extra payments are supported"}
	}
	for _, extra := range in.ExtraPayments {
		if extra.IsNegative() {
			return &InputError{Field: "extra_payments", Message: "must not be negative"}
		}
	}
	return nil
}

// =============================================================================
// SCHEDULE ENTRY - One month
// =============================================================================

// Entry is one month of a schedule. Entries are never mutated after the
// scheduler emits them.
type Entry struct {
	Sequence  int
	Date      Date
	Principal decimal.Decimal
	Interest  decimal.Decimal
	Balance   decimal.Decimal
	Payment   decimal.Decimal
}

// =============================================================================
// SCENARIO - A fully computed payment plan
// =============================================================================

type Scenario struct {
	Name  string
	Color string

	MonthlyPayment decimal.Decimal // base + extra
	ExtraPayment   decimal.Decimal
	Principal      decimal.Decimal

	TotalInterest       decimal.Decimal
	TotalRepaid         decimal.Decimal
	EffectiveAnnualRate decimal.Decimal // percent
	CostPercentage      decimal.Decimal

	Months     int
	TermYears  decimal.Decimal // Months / 12
	PaidOff    bool
	PayoffDate Date

	Entries []Entry
}

// SimulationResult bundles the base plan and the two simulations.
type SimulationResult struct {
	BasePayment decimal.Decimal
	Base        Scenario
	Simulation1 Scenario
	Simulation2 Scenario
}

// Scenarios returns the three scenarios in display order.
func (r SimulationResult) Scenarios() []Scenario {
	return []Scenario{r.Base, r.Simulation1, r.Simulation2}
}

// InterestSaved is how much less interest the scenario pays than the base.
func (r SimulationResult) InterestSaved(s Scenario) decimal.Decimal {
	return r.Base.TotalInterest.Sub(s.TotalInterest)
}

// MonthsSaved is how many months sooner the scenario pays off than the base.
func (r SimulationResult) MonthsSaved(s Scenario) int {
	return r.Base.Months - s.Months
}
