package amortization

import "github.com/shopspring/decimal"

// CurrentBalance infers today's balance of a loan entered after the fact
// by replaying asOf-startDate whole calendar months of payments.
//
// A month whose payment does not cover its interest capitalizes the
// shortfall, so the balance grows instead of being clamped. The replay
// stops early at zero and never exceeds MaxMonths.
func CurrentBalance(loanAmount, monthlyPayment, annualRate decimal.Decimal, startDate, asOf Date) decimal.Decimal {
	elapsed := MonthsBetween(startDate, asOf)
	if elapsed <= 0 {
		return loanAmount
	}
	if elapsed > MaxMonths {
		elapsed = MaxMonths
	}

	rate := MonthlyRate(annualRate)
	balance := loanAmount
	for month := 0; month < elapsed; month++ {
		interest := balance.Mul(rate).Round(CalcPrecision)
		principal := monthlyPayment.Sub(interest)
		if principal.LessThanOrEqual(decimal.Zero) {
			// Shortfall (zero when the payment equals the interest).
			balance = balance.Add(principal.Neg())
			continue
		}
		balance = balance.Sub(principal)
		if balance.LessThanOrEqual(decimal.Zero) {
			break
		}
	}
	return decimal.Max(decimal.Zero, balance)
}
