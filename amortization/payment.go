package amortization

import "github.com/shopspring/decimal"

// powPrecision keeps (1+r)^n from accumulating digits across n multiplications.
const powPrecision = 20

// MonthlyPayment is the fixed payment that retires principal in n months:
//
//	payment = P * r * (1+r)^n / ((1+r)^n - 1)
//
// A zero rate returns P / n exactly. Non-positive n returns zero.
func MonthlyPayment(principal, monthlyRate decimal.Decimal, n int) decimal.Decimal {
	if n <= 0 {
		return decimal.Zero
	}
	if monthlyRate.IsZero() {
		return principal.DivRound(decimal.NewFromInt(int64(n)), CalcPrecision)
	}
	factor := compound(monthlyRate, n)
	return principal.Mul(monthlyRate).Mul(factor).DivRound(factor.Sub(decimal.NewFromInt(1)), CalcPrecision)
}

// EffectiveAnnualRate returns ((1+r)^12 - 1) as a percentage.
func EffectiveAnnualRate(monthlyRate decimal.Decimal) decimal.Decimal {
	return compound(monthlyRate, 12).Sub(decimal.NewFromInt(1)).Mul(hundred)
}

// compound returns (1+r)^n by repeated squaring.
func compound(r decimal.Decimal, n int) decimal.Decimal {
	result := decimal.NewFromInt(1)
	base := r.Add(result)
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(base).Round(powPrecision)
		}
		base = base.Mul(base).Round(powPrecision)
		n >>= 1
	}
	return result
}
