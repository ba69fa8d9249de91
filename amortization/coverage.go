package amortization

import "github.com/shopspring/decimal"

// Coverage is the result of ValidatePayment.
type Coverage struct {
	IsValid         bool
	MinimumRequired decimal.Decimal // one month of interest on balance
}

// ValidatePayment reports whether monthlyPayment strictly exceeds one
// month of interest on balance. A payment equal to the interest never
// reduces principal and is invalid.
func ValidatePayment(balance, monthlyPayment, annualRate decimal.Decimal) Coverage {
	minimum := balance.Mul(annualRate).Div(hundred).Div(twelve)
	return Coverage{
		IsValid:         monthlyPayment.GreaterThan(minimum),
		MinimumRequired: minimum,
	}
}
