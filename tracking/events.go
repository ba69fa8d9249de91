package tracking

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/debt-engine/amortization"
)

// =============================================================================
// EVENTS - Point-in-time changes to a tracked loan
// =============================================================================

type EventID string

type EventKind string

const (
	KindExtraPayment   EventKind = "extra_payment"
	KindSkippedPayment EventKind = "skipped_payment"
	KindWithdrawal     EventKind = "withdrawal"
	KindRateChange     EventKind = "rate_change"
)

// Event is a closed sum type. Each variant carries only its own fields;
// interpret with a type switch over the four concrete types.
type Event interface {
	Kind() EventKind
	EffectiveDate() amortization.Date
	isEvent()
}

// ExtraPayment is a one-off payment on top of the scheduled one.
type ExtraPayment struct {
	On     amortization.Date
	Amount decimal.Decimal
}

// SkippedPayment is a month where the scheduled payment was not made.
type SkippedPayment struct {
	On amortization.Date
}

// Withdrawal draws more money against the loan (lines of credit).
type Withdrawal struct {
	On     amortization.Date
	Amount decimal.Decimal
}

// RateChange switches the annual rate from On onward.
type RateChange struct {
	On      amortization.Date
	NewRate decimal.Decimal
}

func (ExtraPayment) Kind() EventKind   { return KindExtraPayment }
func (SkippedPayment) Kind() EventKind { return KindSkippedPayment }
func (Withdrawal) Kind() EventKind     { return KindWithdrawal }
func (RateChange) Kind() EventKind     { return KindRateChange }

func (e ExtraPayment) EffectiveDate() amortization.Date   { return e.On }
func (e SkippedPayment) EffectiveDate() amortization.Date { return e.On }
func (e Withdrawal) EffectiveDate() amortization.Date     { return e.On }
func (e RateChange) EffectiveDate() amortization.Date     { return e.On }

func (ExtraPayment) isEvent()   {}
func (SkippedPayment) isEvent() {}
func (Withdrawal) isEvent()     {}
func (RateChange) isEvent()     {}

// EventRecord is a persisted event.
type EventRecord struct {
	ID        EventID
	AccountID AccountID
	Event     Event
	Note      string
	CreatedAt time.Time
}

// ValidateEvent checks the variant's fields.
func ValidateEvent(e Event) error {
	if e == nil {
		return &TermsError{Field: "event", Message: "is required"}
	}
	if e.EffectiveDate().IsZero() {
		return &TermsError{Field: "date", Message: "is required"}
	}
	switch ev := e.(type) {
	case ExtraPayment:
		if !ev.Amount.IsPositive() {
			return &TermsError{Field: "amount", Message: "must be positive"}
		}
	case SkippedPayment:
	case Withdrawal:
		if !ev.Amount.IsPositive() {
			return &TermsError{Field: "amount", Message: "must be positive"}
		}
	case RateChange:
		if ev.NewRate.IsNegative() || ev.NewRate.GreaterThan(decimal.NewFromInt(100)) {
			return &TermsError{Field: "new_rate", Message: "must be between 0 and 100"}
		}
	default:
		return &TermsError{Field: "kind", Message: "unknown event kind"}
	}
	return nil
}
