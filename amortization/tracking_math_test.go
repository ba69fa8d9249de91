package amortization_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/warp/debt-engine/amortization"
)

// =============================================================================
// DATE ARITHMETIC
// =============================================================================

func TestDate_AddMonths_ClampsToMonthEnd(t *testing.T) {
	jan31 := amortization.NewDate(2024, time.January, 31)

	assert.Equal(t, amortization.NewDate(2024, time.February, 29), jan31.AddMonths(1))
	assert.Equal(t, amortization.NewDate(2024, time.March, 31), jan31.AddMonths(2))
	assert.Equal(t, amortization.NewDate(2025, time.February, 28), jan31.AddMonths(13))
	assert.Equal(t, amortization.NewDate(2023, time.December, 31), jan31.AddMonths(-1))
	assert.Equal(t, amortization.NewDate(2054, time.January, 31), jan31.AddYears(30))
}

func TestMonthsBetween_IgnoresDays(t *testing.T) {
	tests := []struct {
		start, end amortization.Date
		want       int
	}{
		{amortization.NewDate(2025, time.January, 31), amortization.NewDate(2025, time.February, 1), 1},
		{amortization.NewDate(2025, time.February, 1), amortization.NewDate(2025, time.February, 28), 0},
		{amortization.NewDate(2023, time.June, 15), amortization.NewDate(2025, time.March, 1), 21},
		{amortization.NewDate(2025, time.March, 1), amortization.NewDate(2025, time.January, 1), -2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, amortization.MonthsBetween(tt.start, tt.end), "%s -> %s", tt.start, tt.end)
	}
}

func TestParseDate(t *testing.T) {
	got, err := amortization.ParseDate("2025-03-15")
	assert.NoError(t, err)
	assert.Equal(t, amortization.NewDate(2025, time.March, 15), got)
	assert.Equal(t, "2025-03-15", got.String())

	_, err = amortization.ParseDate("03/15/2025")
	assert.Error(t, err)
}

// =============================================================================
// BALANCE RECONSTRUCTION
// =============================================================================

func TestCurrentBalance_NotStarted_ReturnsLoanAmount(t *testing.T) {
	start := amortization.NewDate(2025, time.March, 10)

	for _, asOf := range []amortization.Date{
		start,
		amortization.NewDate(2025, time.March, 31),
		amortization.NewDate(2024, time.December, 1),
	} {
		got := amortization.CurrentBalance(d("20000"), d("400"), d("5"), start, asOf)
		assert.True(t, got.Equal(d("20000")), "as of %s got %s", asOf, got)
	}
}

func TestCurrentBalance_MatchesSchedule(t *testing.T) {
	rate := amortization.MonthlyRate(d("6"))
	payment := d("599.55")
	sched := amortization.BuildSchedule(d("100000"), rate, payment, jan1())

	got := amortization.CurrentBalance(d("100000"), payment, d("6"), jan1(), amortization.NewDate(2026, time.January, 20))

	assert.True(t, got.Equal(sched.Entries[11].Balance), "got %s want %s", got, sched.Entries[11].Balance)
}

func TestCurrentBalance_NonAmortizing_CapitalizesShortfall(t *testing.T) {
	// 10/month interest against a 5 payment: the 5 shortfall is added.
	got := amortization.CurrentBalance(d("1000"), d("5"), d("12"), jan1(), amortization.NewDate(2025, time.February, 1))
	assert.True(t, got.Equal(d("1005")), "got %s", got)

	prev := d("1000")
	for months := 1; months <= 24; months++ {
		bal := amortization.CurrentBalance(d("1000"), d("5"), d("12"), jan1(), jan1().AddMonths(months))
		assert.True(t, bal.GreaterThanOrEqual(prev), "month %d: %s < %s", months, bal, prev)
		prev = bal
	}
}

func TestCurrentBalance_PaymentEqualsInterest_Unchanged(t *testing.T) {
	got := amortization.CurrentBalance(d("1000"), d("10"), d("12"), jan1(), jan1().AddMonths(36))
	assert.True(t, got.Equal(d("1000")), "got %s", got)
}

func TestCurrentBalance_PaidOff_ClampsAtZero(t *testing.T) {
	got := amortization.CurrentBalance(d("1000"), d("300"), decimal.Zero, jan1(), jan1().AddMonths(12))
	assert.True(t, got.IsZero(), "got %s", got)
}

// =============================================================================
// PAYOFF PROJECTION
// =============================================================================

func TestProjectPayoff_ZeroBalance_ReturnsFromDate(t *testing.T) {
	from := amortization.NewDate(2025, time.May, 5)
	for _, payment := range []string{"0", "10", "1000"} {
		p := amortization.ProjectPayoff(decimal.Zero, d(payment), d("24"), from)
		assert.Equal(t, from, p.PayoffDate)
		assert.Equal(t, amortization.PayoffOnTrack, p.Status)
		assert.Zero(t, p.Months)
	}
}

func TestProjectPayoff_OnTrack(t *testing.T) {
	p := amortization.ProjectPayoff(d("1200"), d("100"), decimal.Zero, jan1())

	assert.Equal(t, 12, p.Months)
	assert.True(t, p.PaysOff())
	assert.Equal(t, amortization.NewDate(2026, time.January, 1), p.PayoffDate)
	assert.Equal(t, p.PayoffDate, amortization.ProjectPayoffDate(d("1200"), d("100"), decimal.Zero, jan1()))
}

func TestProjectPayoff_MatchesScenario(t *testing.T) {
	result, err := amortization.Simulate(mortgageInput())
	assert.NoError(t, err)

	p := amortization.ProjectPayoff(d("100000"), result.BasePayment, d("6"), jan1())
	assert.Equal(t, result.Base.Months, p.Months)
	assert.Equal(t, result.Base.PayoffDate, p.PayoffDate)
}

func TestProjectPayoff_PaymentDoesNotCoverInterest_Sentinel(t *testing.T) {
	from := amortization.NewDate(2025, time.June, 1)

	for _, payment := range []string{"5", "10"} {
		p := amortization.ProjectPayoff(d("1000"), d(payment), d("12"), from)
		assert.Equal(t, amortization.PayoffNever, p.Status)
		assert.Equal(t, amortization.NewDate(2055, time.June, 1), p.PayoffDate)
		assert.False(t, p.PaysOff())
	}
}

func TestProjectPayoff_BeyondHorizon(t *testing.T) {
	// One cent of principal per month cannot clear 100k in 30 years.
	p := amortization.ProjectPayoff(d("100000"), d("500.01"), d("6"), jan1())

	assert.Equal(t, amortization.PayoffBeyondHorizon, p.Status)
	assert.Equal(t, amortization.MaxMonths, p.Months)
	assert.Equal(t, jan1().AddMonths(amortization.MaxMonths), p.PayoffDate)
}

// =============================================================================
// PAYMENT COVERAGE
// =============================================================================

func TestValidatePayment_StrictlyGreaterThanInterest(t *testing.T) {
	exact := amortization.ValidatePayment(d("1000"), d("10"), d("12"))
	assert.False(t, exact.IsValid, "payment equal to interest is invalid")
	assert.True(t, exact.MinimumRequired.Equal(d("10")))

	above := amortization.ValidatePayment(d("1000"), d("10.01"), d("12"))
	assert.True(t, above.IsValid)

	below := amortization.ValidatePayment(d("1000"), d("9.99"), d("12"))
	assert.False(t, below.IsValid)
}

func TestValidatePayment_ZeroRate(t *testing.T) {
	c := amortization.ValidatePayment(d("1000"), d("0.01"), decimal.Zero)
	assert.True(t, c.IsValid)
	assert.True(t, c.MinimumRequired.IsZero())
}
