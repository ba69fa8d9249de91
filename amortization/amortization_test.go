package amortization_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/debt-engine/amortization"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func jan1() amortization.Date {
	return amortization.NewDate(2025, time.January, 1)
}

func assertNear(t *testing.T, want, got decimal.Decimal, tolerance string) {
	t.Helper()
	assert.True(t, got.Sub(want).Abs().LessThanOrEqual(d(tolerance)), "want %s, got %s", want, got)
}

func mortgageInput() amortization.LoanInput {
	return amortization.LoanInput{
		Principal:  d("100000"),
		AnnualRate: d("6"),
		Term:       30,
		Unit:       amortization.TermYears,
		StartDate:  jan1(),
	}
}

// =============================================================================
// PAYMENT FORMULA
// =============================================================================

func TestMonthlyPayment_ThirtyYearMortgage(t *testing.T) {
	payment := amortization.MonthlyPayment(d("100000"), amortization.MonthlyRate(d("6")), 360)
	assertNear(t, d("599.55"), payment, "0.01")
}

func TestMonthlyPayment_ZeroRate_IsPrincipalOverTerm(t *testing.T) {
	payment := amortization.MonthlyPayment(d("1200"), decimal.Zero, 12)
	assert.True(t, payment.Equal(d("100")), "got %s", payment)

	payment = amortization.MonthlyPayment(d("1000"), decimal.Zero, 3)
	assert.True(t, payment.Equal(d("1000").DivRound(decimal.NewFromInt(3), amortization.CalcPrecision)))
}

func TestMonthlyPayment_NonPositiveTerm(t *testing.T) {
	assert.True(t, amortization.MonthlyPayment(d("1000"), d("0.01"), 0).IsZero())
}

func TestEffectiveAnnualRate(t *testing.T) {
	ear := amortization.EffectiveAnnualRate(amortization.MonthlyRate(d("6")))
	assertNear(t, d("6.1678"), ear, "0.0001")

	assert.True(t, amortization.EffectiveAnnualRate(decimal.Zero).IsZero())
}

// =============================================================================
// SCHEDULER
// =============================================================================

func TestBuildSchedule_ThirtyYearMortgage(t *testing.T) {
	rate := amortization.MonthlyRate(d("6"))
	payment := amortization.MonthlyPayment(d("100000"), rate, 360)

	sched := amortization.BuildSchedule(d("100000"), rate, payment, jan1())

	require.Len(t, sched.Entries, 360)
	assert.Equal(t, 360, sched.Months)
	assert.True(t, sched.PaidOff)
	assert.True(t, sched.FinalBalance().LessThanOrEqual(amortization.Epsilon))
	assertNear(t, d("115838"), sched.TotalInterest, "1")

	first := sched.Entries[0]
	assert.Equal(t, 1, first.Sequence)
	assert.Equal(t, amortization.NewDate(2025, time.February, 1), first.Date)
	assert.True(t, first.Interest.Equal(d("500")), "first interest %s", first.Interest)
}

func TestBuildSchedule_ClosedFormPaymentRetiresLoan(t *testing.T) {
	principals := []string{"999.99", "100000", "2500000"}
	rates := []string{"0", "0.01", "6", "19.99", "50", "70", "85", "95", "100"}
	terms := []int{1, 12, 59, 359, 360}

	for _, p := range principals {
		for _, r := range rates {
			for _, n := range terms {
				principal, rate := d(p), amortization.MonthlyRate(d(r))
				payment := amortization.MonthlyPayment(principal, rate, n)

				sched := amortization.BuildSchedule(principal, rate, payment, jan1())

				assert.True(t, sched.PaidOff, "P=%s r=%s n=%d final=%s", p, r, n, sched.FinalBalance())
				assert.LessOrEqual(t, sched.Months, n, "P=%s r=%s n=%d", p, r, n)
				assert.True(t, sched.FinalBalance().LessThanOrEqual(amortization.Epsilon),
					"P=%s r=%s n=%d final=%s", p, r, n, sched.FinalBalance())
			}
		}
	}
}

func TestBuildSchedule_TotalInterestIsSumOfEntries(t *testing.T) {
	rate := amortization.MonthlyRate(d("7.25"))
	payment := amortization.MonthlyPayment(d("25000"), rate, 60)
	sched := amortization.BuildSchedule(d("25000"), rate, payment, jan1())

	sum := decimal.Zero
	for _, e := range sched.Entries {
		sum = sum.Add(e.Interest)
	}
	assert.True(t, sum.Equal(sched.TotalInterest), "sum %s != total %s", sum, sched.TotalInterest)
}

func TestBuildSchedule_BalancesNonIncreasing(t *testing.T) {
	rate := amortization.MonthlyRate(d("18"))
	payment := amortization.MonthlyPayment(d("5000"), rate, 24).Add(d("75"))
	sched := amortization.BuildSchedule(d("5000"), rate, payment, jan1())

	prev := d("5000")
	for _, e := range sched.Entries {
		assert.False(t, e.Balance.GreaterThan(prev), "month %d balance grew", e.Sequence)
		assert.False(t, e.Balance.IsNegative(), "month %d balance negative", e.Sequence)
		prev = e.Balance
	}
}

func TestBuildSchedule_LastPaymentOnlyCoversRemainder(t *testing.T) {
	sched := amortization.BuildSchedule(d("250"), decimal.Zero, d("100"), jan1())

	require.Len(t, sched.Entries, 3)
	last := sched.Entries[2]
	assert.True(t, last.Principal.Equal(d("50")))
	assert.True(t, last.Payment.Equal(d("50")))
	assert.True(t, last.Balance.IsZero())
}

func TestBuildSchedule_PaymentBelowInterest_StopsAtCap(t *testing.T) {
	// 1000 at 12% accrues 10/month; paying 5 never touches principal.
	sched := amortization.BuildSchedule(d("1000"), amortization.MonthlyRate(d("12")), d("5"), jan1())

	assert.False(t, sched.PaidOff)
	assert.Equal(t, amortization.MaxMonths, sched.Months)
	assert.Len(t, sched.Entries, amortization.MaxMonths)
	for _, e := range sched.Entries {
		assert.True(t, e.Balance.Equal(d("1000")))
		assert.True(t, e.Principal.IsZero())
	}
}

func TestBuildSchedule_ZeroPrincipal(t *testing.T) {
	sched := amortization.BuildSchedule(decimal.Zero, d("0.01"), d("100"), jan1())
	assert.True(t, sched.PaidOff)
	assert.Empty(t, sched.Entries)
	assert.True(t, sched.TotalInterest.IsZero())
}

func TestWindowEntries(t *testing.T) {
	sched := amortization.BuildSchedule(d("1200"), decimal.Zero, d("100"), jan1())

	window := sched.Window(2)
	require.Len(t, window, 4)
	assert.Equal(t, []int{1, 2, 11, 12}, []int{
		window[0].Sequence, window[1].Sequence, window[2].Sequence, window[3].Sequence,
	})

	assert.Len(t, sched.Window(6), 12)
	assert.Len(t, sched.Window(0), 12)
}

// =============================================================================
// SCENARIO + SIMULATION
// =============================================================================

func TestBuildScenario_DerivedMetrics(t *testing.T) {
	rate := amortization.MonthlyRate(d("6"))
	s := amortization.BuildScenario(amortization.ScenarioParams{
		Principal:   d("100000"),
		MonthlyRate: rate,
		BasePayment: amortization.MonthlyPayment(d("100000"), rate, 360),
		StartDate:   jan1(),
		Name:        "Base Payment",
		Color:       amortization.ColorBlue,
	})

	assert.Equal(t, 360, s.Months)
	assert.True(t, s.TermYears.Equal(d("30")))
	assert.Equal(t, amortization.NewDate(2055, time.January, 1), s.PayoffDate)
	assert.True(t, s.TotalRepaid.Equal(s.Principal.Add(s.TotalInterest)))
	assertNear(t, d("115.838"), s.CostPercentage, "0.001")
	assertNear(t, d("6.1678"), s.EffectiveAnnualRate, "0.0001")
}

func TestSimulate_ExtraPaymentsShortenAndSave(t *testing.T) {
	in := mortgageInput()
	in.ExtraPayments = []decimal.Decimal{d("100"), d("250")}

	result, err := amortization.Simulate(in)
	require.NoError(t, err)

	base, sim1, sim2 := result.Base, result.Simulation1, result.Simulation2
	assert.True(t, sim1.TotalInterest.LessThan(base.TotalInterest))
	assert.True(t, sim2.TotalInterest.LessThan(sim1.TotalInterest))
	assert.Less(t, sim1.Months, base.Months)
	assert.Less(t, sim2.Months, sim1.Months)
	assert.True(t, sim1.PaidOff)
	assert.True(t, sim2.PaidOff)

	assert.True(t, sim1.MonthlyPayment.Equal(result.BasePayment.Add(d("100"))))
	assert.True(t, result.InterestSaved(sim1).IsPositive())
	assert.Positive(t, result.MonthsSaved(sim2))
}

func TestSimulate_NamesAndColors(t *testing.T) {
	in := mortgageInput()
	in.ExtraPayments = []decimal.Decimal{d("100"), d("250.5")}

	result, err := amortization.Simulate(in)
	require.NoError(t, err)

	assert.Equal(t, "Base Payment", result.Base.Name)
	assert.Equal(t, amortization.ColorBlue, result.Base.Color)
	assert.Equal(t, "+100.00 Extra", result.Simulation1.Name)
	assert.Equal(t, amortization.ColorGreen, result.Simulation1.Color)
	assert.Equal(t, "+250.50 Extra", result.Simulation2.Name)
	assert.Equal(t, amortization.ColorOrange, result.Simulation2.Color)
}

func TestSimulate_NoExtras_ScenariosIdentical(t *testing.T) {
	result, err := amortization.Simulate(mortgageInput())
	require.NoError(t, err)

	base := result.Base
	for _, s := range []amortization.Scenario{result.Simulation1, result.Simulation2} {
		assert.True(t, s.MonthlyPayment.Equal(base.MonthlyPayment))
		assert.True(t, s.TotalInterest.Equal(base.TotalInterest))
		assert.True(t, s.TotalRepaid.Equal(base.TotalRepaid))
		assert.Equal(t, base.Months, s.Months)
		assert.Equal(t, base.PayoffDate, s.PayoffDate)
		require.Len(t, s.Entries, len(base.Entries))
		for i := range s.Entries {
			assert.True(t, s.Entries[i].Balance.Equal(base.Entries[i].Balance))
		}
	}
}

func TestSimulate_ZeroRate(t *testing.T) {
	in := amortization.LoanInput{
		Principal:  d("12000"),
		AnnualRate: decimal.Zero,
		Term:       24,
		Unit:       amortization.TermMonths,
		StartDate:  jan1(),
	}

	result, err := amortization.Simulate(in)
	require.NoError(t, err)

	assert.True(t, result.BasePayment.Equal(d("500")))
	assert.True(t, result.Base.TotalInterest.IsZero())
	assert.Equal(t, 24, result.Base.Months)
	assert.True(t, result.Base.CostPercentage.IsZero())
}

func TestSimulate_InvalidInput(t *testing.T) {
	cases := map[string]func(*amortization.LoanInput){
		"zero principal":  func(in *amortization.LoanInput) { in.Principal = decimal.Zero },
		"negative rate":   func(in *amortization.LoanInput) { in.AnnualRate = d("-1") },
		"rate above 100":  func(in *amortization.LoanInput) { in.AnnualRate = d("100.5") },
		"term too long":   func(in *amortization.LoanInput) { in.Term = 31 },
		"zero term":       func(in *amortization.LoanInput) { in.Term = 0 },
		"bad unit":        func(in *amortization.LoanInput) { in.Unit = "weeks" },
		"missing start":   func(in *amortization.LoanInput) { in.StartDate = amortization.Date{} },
		"negative extra":  func(in *amortization.LoanInput) { in.ExtraPayments = []decimal.Decimal{d("-5")} },
		"too many extras": func(in *amortization.LoanInput) { in.ExtraPayments = make([]decimal.Decimal, 3) },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := mortgageInput()
			mutate(&in)
			_, err := amortization.Simulate(in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, amortization.ErrInvalidInput))
			var inputErr *amortization.InputError
			assert.ErrorAs(t, err, &inputErr)
		})
	}
}

func TestLoanInput_RateBoundsInclusive(t *testing.T) {
	in := mortgageInput()
	in.AnnualRate = d("100")
	assert.NoError(t, in.Validate())

	in.Unit = amortization.TermMonths
	in.Term = 360
	assert.NoError(t, in.Validate())
}
