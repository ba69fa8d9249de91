/*
Package tracking manages real-world debt accounts on the dashboard.

PURPOSE:
  Users enter a loan after the fact: how much they borrowed, the rate, the
  monthly payment and when it started. The service derives the current
  balance and the payoff date from those terms and keeps them up to date.

KEY CONCEPTS:
  - Account: A tracked loan. CurrentBalance and PayoffDate are derived,
    never set directly.
  - Terms: The user-editable origination fields.
  - Event: A point-in-time change (extra payment, skipped payment,
    withdrawal, rate change) layered on top of the origination terms.

LIFECYCLE:
  Create -> (Update | RecordEvent | Refresh)* -> Delete
  Delete is a soft delete: the account is flagged inactive and stays in
  the store.

TIME:
  The service reads "today" from an injected Clock. The amortization
  package never reads the system clock.

SEE ALSO:
  - service.go: Operations
  - events.go: Event variants
  - replay.go: Balance replay across events
*/
package tracking

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/debt-engine/amortization"
)

type AccountID string
type OwnerID string

// Terms are the user-entered origination fields of an account.
type Terms struct {
	Name           string
	LoanAmount     decimal.Decimal
	MonthlyPayment decimal.Decimal
	MinimumPayment decimal.Decimal
	InterestRate   decimal.Decimal // annual percent
	StartDate      amortization.Date
}

// Account is a tracked loan.
type Account struct {
	ID      AccountID
	OwnerID OwnerID
	Terms

	// Derived by the service; recomputed whenever terms or events change.
	CurrentBalance decimal.Decimal
	CurrentRate    decimal.Decimal
	PayoffDate     amortization.Date
	PayoffStatus   amortization.PayoffStatus
	AsOf           amortization.Date

	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PaidDown is how much principal has been retired so far.
func (a Account) PaidDown() decimal.Decimal {
	return a.LoanAmount.Sub(a.CurrentBalance)
}

// Clock returns today's date.
type Clock func() amortization.Date

// SystemClock reads the wall clock in UTC.
func SystemClock() amortization.Date {
	return amortization.DateOf(time.Now().UTC())
}

// FixedClock always returns d. Used in tests and demos.
func FixedClock(d amortization.Date) Clock {
	return func() amortization.Date { return d }
}
