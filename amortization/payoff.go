package amortization

import "github.com/shopspring/decimal"

// PayoffStatus says how a projection ended.
type PayoffStatus string

const (
	// PayoffOnTrack: the balance reaches zero within MaxMonths.
	PayoffOnTrack PayoffStatus = "on_track"

	// PayoffNever: the payment does not cover the interest. The date is
	// the fromDate+30y sentinel.
	PayoffNever PayoffStatus = "never"

	// PayoffBeyondHorizon: still owing after MaxMonths.
	PayoffBeyondHorizon PayoffStatus = "beyond_horizon"
)

// NeverPayoffYears is the sentinel horizon for loans that never amortize.
const NeverPayoffYears = 30

// Projection is the result of a forward payoff projection.
type Projection struct {
	PayoffDate Date
	Months     int
	Status     PayoffStatus
}

// PaysOff reports whether the balance reaches zero within the horizon.
func (p Projection) PaysOff() bool { return p.Status == PayoffOnTrack }

// ProjectPayoff steps the current balance forward month by month.
//
// Unlike CurrentBalance, a month whose payment does not cover interest
// ends the projection immediately with PayoffNever and a fromDate+30y
// date; past shortfalls are capitalized, future ones are not simulated.
func ProjectPayoff(currentBalance, monthlyPayment, annualRate decimal.Decimal, fromDate Date) Projection {
	if currentBalance.LessThanOrEqual(decimal.Zero) {
		return Projection{PayoffDate: fromDate, Status: PayoffOnTrack}
	}

	rate := MonthlyRate(annualRate)
	balance := currentBalance
	for month := 1; month <= MaxMonths; month++ {
		interest := balance.Mul(rate).Round(CalcPrecision)
		principal := monthlyPayment.Sub(interest)
		if principal.LessThanOrEqual(decimal.Zero) {
			return Projection{
				PayoffDate: fromDate.AddYears(NeverPayoffYears),
				Status:     PayoffNever,
			}
		}
		balance = decimal.Max(decimal.Zero, balance.Sub(decimal.Min(principal, balance)))
		if balance.LessThanOrEqual(Epsilon) {
			return Projection{PayoffDate: fromDate.AddMonths(month), Months: month, Status: PayoffOnTrack}
		}
	}

	return Projection{
		PayoffDate: fromDate.AddMonths(MaxMonths),
		Months:     MaxMonths,
		Status:     PayoffBeyondHorizon,
	}
}

// ProjectPayoffDate is ProjectPayoff reduced to the date alone.
func ProjectPayoffDate(currentBalance, monthlyPayment, annualRate decimal.Decimal, fromDate Date) Date {
	return ProjectPayoff(currentBalance, monthlyPayment, annualRate, fromDate).PayoffDate
}
