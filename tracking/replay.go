package tracking

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/debt-engine/amortization"
)

// Derived is what the service computes from terms plus events.
type Derived struct {
	Balance    decimal.Decimal
	Rate       decimal.Decimal
	AsOf       amortization.Date
	Projection amortization.Projection
}

// Replay reconstructs the balance as of asOf.
//
// The origination terms are amortized segment by segment between event
// dates with amortization.CurrentBalance. Whole-month counts add up across
// segments, so a replay without events equals a single CurrentBalance
// call. Events dated after asOf are ignored until their date arrives.
func Replay(terms Terms, events []Event, asOf amortization.Date) (Derived, error) {
	ordered := make([]Event, 0, len(events))
	for _, e := range events {
		if !e.EffectiveDate().After(asOf) {
			ordered = append(ordered, e)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].EffectiveDate().Before(ordered[j].EffectiveDate())
	})

	balance := terms.LoanAmount
	rate := terms.InterestRate
	segmentStart := terms.StartDate

	for _, e := range ordered {
		at := e.EffectiveDate()
		if at.After(segmentStart) {
			balance = amortization.CurrentBalance(balance, terms.MonthlyPayment, rate, segmentStart, at)
			segmentStart = at
		}

		switch ev := e.(type) {
		case ExtraPayment:
			balance = decimal.Max(decimal.Zero, balance.Sub(ev.Amount))
		case SkippedPayment:
			if balance.IsPositive() {
				balance = balance.Add(terms.MonthlyPayment)
			}
		case Withdrawal:
			balance = balance.Add(ev.Amount)
		case RateChange:
			rate = ev.NewRate
		default:
			return Derived{}, fmt.Errorf("replay: unhandled event %T", e)
		}
	}

	balance = amortization.CurrentBalance(balance, terms.MonthlyPayment, rate, segmentStart, asOf)

	return Derived{
		Balance:    balance,
		Rate:       rate,
		AsOf:       asOf,
		Projection: amortization.ProjectPayoff(balance, terms.MonthlyPayment, rate, asOf),
	}, nil
}
