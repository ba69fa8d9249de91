package tracking

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/warp/debt-engine/amortization"
)

// Summary aggregates an owner's active accounts for the dashboard.
type Summary struct {
	OwnerID             OwnerID
	AccountCount        int
	TotalOriginal       decimal.Decimal
	TotalBalance        decimal.Decimal
	TotalMonthlyPayment decimal.Decimal
	TotalMinimumPayment decimal.Decimal

	// WeightedRate is the balance-weighted average annual rate.
	WeightedRate decimal.Decimal

	// DebtFreeDate is the latest payoff date among accounts that pay off.
	DebtFreeDate amortization.Date

	// NeverPaysOff counts accounts whose payment does not cover interest.
	NeverPaysOff int

	// BeyondHorizon counts accounts that amortize but are still owing
	// after MaxMonths.
	BeyondHorizon int

	AsOf amortization.Date
}

// Summarize aggregates accounts; inactive ones are skipped.
func Summarize(owner OwnerID, accounts []Account, asOf amortization.Date) Summary {
	sum := Summary{
		OwnerID:             owner,
		TotalOriginal:       decimal.Zero,
		TotalBalance:        decimal.Zero,
		TotalMonthlyPayment: decimal.Zero,
		TotalMinimumPayment: decimal.Zero,
		WeightedRate:        decimal.Zero,
		AsOf:                asOf,
	}

	weighted := decimal.Zero
	for _, a := range accounts {
		if !a.Active {
			continue
		}
		sum.AccountCount++
		sum.TotalOriginal = sum.TotalOriginal.Add(a.LoanAmount)
		sum.TotalBalance = sum.TotalBalance.Add(a.CurrentBalance)
		sum.TotalMonthlyPayment = sum.TotalMonthlyPayment.Add(a.MonthlyPayment)
		sum.TotalMinimumPayment = sum.TotalMinimumPayment.Add(a.MinimumPayment)
		weighted = weighted.Add(a.CurrentBalance.Mul(a.CurrentRate))

		switch a.PayoffStatus {
		case amortization.PayoffNever:
			sum.NeverPaysOff++
			continue
		case amortization.PayoffBeyondHorizon:
			sum.BeyondHorizon++
			continue
		}
		if a.PayoffDate.After(sum.DebtFreeDate) {
			sum.DebtFreeDate = a.PayoffDate
		}
	}

	if sum.TotalBalance.IsPositive() {
		sum.WeightedRate = weighted.Div(sum.TotalBalance)
	}
	return sum
}

// Summary loads the owner's active accounts and aggregates them.
func (s *Service) Summary(ctx context.Context, owner OwnerID) (Summary, error) {
	accounts, err := s.store.ListAccounts(ctx, owner, false)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(owner, accounts, s.clock()), nil
}
