/*
demo.go - Demo portfolio loaders for testing and demonstrations

PURPOSE:

	Provides pre-built debt portfolios that populate the store with
	realistic accounts for demos. Every date is relative to the service's
	"today", so a portfolio looks the same whenever it is loaded.

AVAILABLE DEMOS:

	first-home:    Mortgage plus a car loan with an extra payment
	student-debt:  Three student loans, a refinance and a forbearance month
	credit-line:   Home equity line with draws, and a card whose rate hike
	               stops it from ever paying off

HOW DEMOS WORK:
 1. Deactivate the owner's existing accounts
 2. Create accounts through the tracking service (same validation as the API)
 3. Record events, which recompute the derived balance and payoff

USAGE VIA API:

	POST /api/demo/load
	{"demo_id": "first-home", "owner_id": "demo"}

ADDING NEW DEMOS:
 1. Add to 'demos' slice with ID, name, description
 2. Add a builder function returning []demoAccount
 3. Add case to demoAccounts

SEE ALSO:
  - handlers.go: Account handlers
  - tracking/service.go: Create and RecordEvent
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/warp/debt-engine/amortization"
	"github.com/warp/debt-engine/tracking"
)

// DefaultDemoOwner is used when a load request names no owner.
const DefaultDemoOwner = "demo"

// =============================================================================
// DEMO DEFINITIONS
// =============================================================================

var demos = []DemoDTO{
	{
		ID:          "first-home",
		Name:        "First Home",
		Description: "30-year mortgage and a 5-year car loan with a one-off extra payment",
	},
	{
		ID:          "student-debt",
		Name:        "Student Debt",
		Description: "Three student loans, one refinanced and one with a skipped month",
	},
	{
		ID:          "credit-line",
		Name:        "Credit Line",
		Description: "Home equity line with draws and a credit card that will never pay off",
	},
}

type demoAccount struct {
	terms  tracking.Terms
	events []tracking.Event
	note   string
}

// ListDemos returns available demos.
func (h *Handler) ListDemos(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, demos)
}

// GetCurrentDemo returns the most recently loaded demo, if any.
func (h *Handler) GetCurrentDemo(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentDemo
	h.mu.Unlock()

	for _, d := range demos {
		if d.ID == current {
			writeJSON(w, http.StatusOK, d)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadDemo replaces an owner's accounts with a demo portfolio.
func (h *Handler) LoadDemo(w http.ResponseWriter, r *http.Request) {
	var req LoadDemoRequest
	if !decode(w, r, &req) {
		return
	}
	if req.OwnerID == "" {
		req.OwnerID = DefaultDemoOwner
	}

	accounts, err := SeedDemo(r.Context(), h.Service, req.DemoID, tracking.OwnerID(req.OwnerID))
	AccountOperations.WithLabelValues("load_demo", outcome(err)).Inc()
	if err != nil {
		h.handleError(w, err, "Failed to load demo")
		return
	}

	h.mu.Lock()
	h.currentDemo = req.DemoID
	h.mu.Unlock()

	h.Logger.Info("demo loaded", "demo_id", req.DemoID, "owner_id", req.OwnerID, "accounts", len(accounts))
	writeJSON(w, http.StatusOK, LoadDemoResponse{
		DemoID:   req.DemoID,
		OwnerID:  req.OwnerID,
		Accounts: toAccountDTOs(accounts),
	})
}

// SeedDemo deactivates the owner's accounts and creates the named
// portfolio. It returns the new accounts with their events applied.
func SeedDemo(ctx context.Context, svc *tracking.Service, demoID string, owner tracking.OwnerID) ([]tracking.Account, error) {
	build, ok := demoAccounts(demoID)
	if !ok {
		return nil, &tracking.TermsError{Field: "demo_id", Message: fmt.Sprintf("unknown demo %q", demoID)}
	}

	existing, err := svc.List(ctx, owner, false)
	if err != nil {
		return nil, err
	}
	for _, a := range existing {
		if err := svc.Delete(ctx, a.ID); err != nil {
			return nil, err
		}
	}

	var created []tracking.Account
	for _, da := range build(svc.Today()) {
		acct, err := svc.Create(ctx, tracking.NewAccount{OwnerID: owner, Terms: da.terms})
		if err != nil {
			return nil, fmt.Errorf("demo %s: create %s: %w", demoID, da.terms.Name, err)
		}
		for _, e := range da.events {
			if _, acct, err = svc.RecordEvent(ctx, acct.ID, e, da.note); err != nil {
				return nil, fmt.Errorf("demo %s: %s event on %s: %w", demoID, e.Kind(), da.terms.Name, err)
			}
		}
		created = append(created, acct)
	}
	return created, nil
}

func demoAccounts(id string) (func(today amortization.Date) []demoAccount, bool) {
	switch id {
	case "first-home":
		return firstHomeDemo, true
	case "student-debt":
		return studentDebtDemo, true
	case "credit-line":
		return creditLineDemo, true
	}
	return nil, false
}

// =============================================================================
// DEMO BUILDERS
// =============================================================================

// monthsAgo is the first of the month n months before today.
func monthsAgo(today amortization.Date, n int) amortization.Date {
	return amortization.NewDate(today.Year(), today.Month(), 1).AddMonths(-n)
}

// levelPayment is the amortizing payment for the loan, rounded to cents.
func levelPayment(principal, annualRate string, months int) decimal.Decimal {
	p := decimal.RequireFromString(principal)
	r := amortization.MonthlyRate(decimal.RequireFromString(annualRate))
	return amortization.MonthlyPayment(p, r, months).Round(2)
}

func firstHomeDemo(today amortization.Date) []demoAccount {
	mortgage := levelPayment("320000", "6.5", 360)
	car := levelPayment("28000", "7.9", 60)

	return []demoAccount{
		{
			terms: tracking.Terms{
				Name:           "Mortgage",
				LoanAmount:     decimal.RequireFromString("320000"),
				MonthlyPayment: mortgage,
				MinimumPayment: mortgage,
				InterestRate:   decimal.RequireFromString("6.5"),
				StartDate:      monthsAgo(today, 26),
			},
		},
		{
			terms: tracking.Terms{
				Name:           "Car Loan",
				LoanAmount:     decimal.RequireFromString("28000"),
				MonthlyPayment: car.Add(decimal.NewFromInt(50)),
				MinimumPayment: car,
				InterestRate:   decimal.RequireFromString("7.9"),
				StartDate:      monthsAgo(today, 14),
			},
			events: []tracking.Event{
				tracking.ExtraPayment{On: monthsAgo(today, 4), Amount: decimal.NewFromInt(2500)},
			},
			note: "tax refund",
		},
	}
}

func studentDebtDemo(today amortization.Date) []demoAccount {
	subsidized := levelPayment("12500", "4.99", 120)
	unsubsidized := levelPayment("20500", "6.54", 120)
	private := levelPayment("18000", "9.25", 120)

	return []demoAccount{
		{
			terms: tracking.Terms{
				Name:           "Federal Subsidized",
				LoanAmount:     decimal.RequireFromString("12500"),
				MonthlyPayment: subsidized,
				MinimumPayment: subsidized,
				InterestRate:   decimal.RequireFromString("4.99"),
				StartDate:      monthsAgo(today, 30),
			},
		},
		{
			terms: tracking.Terms{
				Name:           "Federal Unsubsidized",
				LoanAmount:     decimal.RequireFromString("20500"),
				MonthlyPayment: unsubsidized,
				MinimumPayment: unsubsidized,
				InterestRate:   decimal.RequireFromString("6.54"),
				StartDate:      monthsAgo(today, 30),
			},
			events: []tracking.Event{
				tracking.SkippedPayment{On: monthsAgo(today, 9)},
			},
			note: "forbearance",
		},
		{
			terms: tracking.Terms{
				Name:           "Private Loan",
				LoanAmount:     decimal.RequireFromString("18000"),
				MonthlyPayment: private,
				MinimumPayment: private,
				InterestRate:   decimal.RequireFromString("9.25"),
				StartDate:      monthsAgo(today, 30),
			},
			events: []tracking.Event{
				tracking.RateChange{On: monthsAgo(today, 12), NewRate: decimal.RequireFromString("5.75")},
			},
			note: "refinanced",
		},
	}
}

func creditLineDemo(today amortization.Date) []demoAccount {
	return []demoAccount{
		{
			terms: tracking.Terms{
				Name:           "Home Equity Line",
				LoanAmount:     decimal.RequireFromString("15000"),
				MonthlyPayment: decimal.RequireFromString("400"),
				MinimumPayment: decimal.RequireFromString("150"),
				InterestRate:   decimal.RequireFromString("8.25"),
				StartDate:      monthsAgo(today, 18),
			},
			events: []tracking.Event{
				tracking.Withdrawal{On: monthsAgo(today, 10), Amount: decimal.NewFromInt(5000)},
				tracking.Withdrawal{On: monthsAgo(today, 3), Amount: decimal.NewFromInt(2000)},
			},
			note: "kitchen remodel",
		},
		{
			terms: tracking.Terms{
				Name:           "Credit Card",
				LoanAmount:     decimal.RequireFromString("6000"),
				MonthlyPayment: decimal.RequireFromString("150"),
				MinimumPayment: decimal.RequireFromString("125"),
				InterestRate:   decimal.RequireFromString("24.99"),
				StartDate:      monthsAgo(today, 12),
			},
			events: []tracking.Event{
				tracking.RateChange{On: monthsAgo(today, 4), NewRate: decimal.RequireFromString("34.99")},
			},
			note: "penalty APR",
		},
	}
}
