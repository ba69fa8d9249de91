package amortization

import "github.com/shopspring/decimal"

// ScenarioParams describes one payment plan to evaluate.
type ScenarioParams struct {
	Principal    decimal.Decimal
	MonthlyRate  decimal.Decimal
	BasePayment  decimal.Decimal
	ExtraPayment decimal.Decimal
	StartDate    Date
	Name         string
	Color        string
}

// BuildScenario schedules base+extra and derives the summary metrics.
// Inputs are assumed valid; LoanInput.Validate runs upstream.
func BuildScenario(p ScenarioParams) Scenario {
	payment := p.BasePayment.Add(p.ExtraPayment)
	sched := BuildSchedule(p.Principal, p.MonthlyRate, payment, p.StartDate)

	cost := decimal.Zero
	if !p.Principal.IsZero() {
		cost = sched.TotalInterest.Div(p.Principal).Mul(hundred)
	}

	return Scenario{
		Name:                p.Name,
		Color:               p.Color,
		MonthlyPayment:      payment,
		ExtraPayment:        p.ExtraPayment,
		Principal:           p.Principal,
		TotalInterest:       sched.TotalInterest,
		TotalRepaid:         p.Principal.Add(sched.TotalInterest),
		EffectiveAnnualRate: EffectiveAnnualRate(p.MonthlyRate),
		CostPercentage:      cost,
		Months:              sched.Months,
		TermYears:           decimal.NewFromInt(int64(sched.Months)).Div(twelve),
		PaidOff:             sched.PaidOff,
		PayoffDate:          p.StartDate.AddMonths(sched.Months),
		Entries:             sched.Entries,
	}
}
