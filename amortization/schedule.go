/*
schedule.go - Month-by-month amortization

PURPOSE:
  Produces the full schedule for a principal paid down with a fixed monthly
  payment. Scenarios, the simulator, and the API all read from this.

ALGORITHM (per month):
  interest      = balance * monthlyRate
  principalPaid = min(payment - interest, balance)
  totalInterest += interest
  balance       = max(0, balance - principalPaid)

TERMINATION:
  - balance <= Epsilon: paid off
  - MaxMonths iterations: capped

NON-AMORTIZING PAYMENTS:
  When the payment does not cover the month's interest the principal
  portion is floored at zero. The balance stays put instead of growing, and
  the loop runs to the cap with PaidOff=false. Callers that accept user
  input should reject these plans with ValidatePayment first.

SEE ALSO:
  - scenario.go: Derives summary metrics from a Schedule
  - balance.go: Replays the same split but capitalizes shortfalls
*/
package amortization

import "github.com/shopspring/decimal"

// Schedule is the output of the scheduler.
type Schedule struct {
	Entries       []Entry
	TotalInterest decimal.Decimal
	Months        int
	PaidOff       bool
}

// FinalBalance is the balance after the last emitted month.
func (s Schedule) FinalBalance() decimal.Decimal {
	if len(s.Entries) == 0 {
		return decimal.Zero
	}
	return s.Entries[len(s.Entries)-1].Balance
}

// Window keeps the first and last n entries for display. The aggregates
// are unchanged; they always reflect every month.
func (s Schedule) Window(n int) []Entry {
	return WindowEntries(s.Entries, n)
}

// WindowEntries returns the first n and last n entries, or all of them
// when there are no more than 2n. Non-positive n returns everything.
func WindowEntries(entries []Entry, n int) []Entry {
	if n <= 0 || len(entries) <= 2*n {
		return entries
	}
	out := make([]Entry, 0, 2*n)
	out = append(out, entries[:n]...)
	return append(out, entries[len(entries)-n:]...)
}

// BuildSchedule amortizes principal at monthlyRate with a fixed payment.
// The first entry is dated one month after startDate.
func BuildSchedule(principal, monthlyRate, monthlyPayment decimal.Decimal, startDate Date) Schedule {
	result := Schedule{
		Entries:       make([]Entry, 0, MaxMonths),
		TotalInterest: decimal.Zero,
	}

	balance := principal
	if balance.LessThanOrEqual(Epsilon) {
		result.PaidOff = true
		return result
	}

	for month := 1; month <= MaxMonths; month++ {
		interest := balance.Mul(monthlyRate).Round(CalcPrecision)
		principalPaid := decimal.Min(monthlyPayment.Sub(interest), balance)
		if principalPaid.IsNegative() {
			principalPaid = decimal.Zero
		}

		result.TotalInterest = result.TotalInterest.Add(interest)
		balance = decimal.Max(decimal.Zero, balance.Sub(principalPaid))

		result.Entries = append(result.Entries, Entry{
			Sequence:  month,
			Date:      startDate.AddMonths(month),
			Principal: principalPaid,
			Interest:  interest,
			Balance:   balance,
			Payment:   decimal.Min(monthlyPayment, principalPaid.Add(interest)),
		})
		result.Months = month

		if balance.LessThanOrEqual(Epsilon) {
			result.PaidOff = true
			break
		}
	}

	return result
}
