/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the decimal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

NUMBERS AND DATES:
  Amounts are JSON numbers rounded to cents; rates keep four decimals.
  Dates are "2006-01-02" strings. An empty date string means "not set".

TYPES:
  Simulation:
    SimulationRequest, SimulationResponse, ScenarioDTO, EntryDTO

  Calculations:
    PaymentRequest/Response, CoverageRequest/Response,
    BalanceRequest/Response, PayoffRequest/Response

  Accounts:
    AccountRequest, AccountDTO, EventRequest, EventDTO, DashboardDTO

  Demo:
    DemoDTO, LoadDemoRequest, LoadDemoResponse

VALIDATION:
  Validation is done in the domain packages. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/debt-engine/amortization"
	"github.com/warp/debt-engine/tracking"
)

// =============================================================================
// SIMULATION
// =============================================================================

// SimulationRequest is the calculator form.
type SimulationRequest struct {
	Principal     float64   `json:"principal"`
	AnnualRate    float64   `json:"annual_rate"`
	Term          int       `json:"term"`
	TermUnit      string    `json:"term_unit"`
	StartDate     string    `json:"start_date"`
	ExtraPayments []float64 `json:"extra_payments,omitempty"`
}

// EntryDTO is one month of a schedule.
type EntryDTO struct {
	Sequence  int     `json:"sequence"`
	Date      string  `json:"date"`
	Payment   float64 `json:"payment"`
	Principal float64 `json:"principal"`
	Interest  float64 `json:"interest"`
	Balance   float64 `json:"balance"`
}

// ScenarioDTO is one payment plan with its metrics.
type ScenarioDTO struct {
	Name                string     `json:"name"`
	Color               string     `json:"color"`
	MonthlyPayment      float64    `json:"monthly_payment"`
	ExtraPayment        float64    `json:"extra_payment"`
	Principal           float64    `json:"principal"`
	TotalInterest       float64    `json:"total_interest"`
	TotalRepaid         float64    `json:"total_repaid"`
	EffectiveAnnualRate float64    `json:"effective_annual_rate"`
	CostPercentage      float64    `json:"cost_percentage"`
	Months              int        `json:"months"`
	TermYears           float64    `json:"term_years"`
	PaidOff             bool       `json:"paid_off"`
	PayoffDate          string     `json:"payoff_date,omitempty"`
	InterestSaved       float64    `json:"interest_saved"`
	MonthsSaved         int        `json:"months_saved"`
	EntryCount          int        `json:"entry_count"`
	Entries             []EntryDTO `json:"entries"`
}

// SimulationResponse lists the base plan first, then the two simulations.
type SimulationResponse struct {
	BasePayment float64       `json:"base_payment"`
	Window      int           `json:"window,omitempty"`
	Scenarios   []ScenarioDTO `json:"scenarios"`
}

// =============================================================================
// CALCULATIONS
// =============================================================================

type PaymentRequest struct {
	Principal  float64 `json:"principal"`
	AnnualRate float64 `json:"annual_rate"`
	Months     int     `json:"months"`
}

type PaymentResponse struct {
	MonthlyPayment      float64 `json:"monthly_payment"`
	EffectiveAnnualRate float64 `json:"effective_annual_rate"`
}

type CoverageRequest struct {
	Balance        float64 `json:"balance"`
	MonthlyPayment float64 `json:"monthly_payment"`
	AnnualRate     float64 `json:"annual_rate"`
}

type CoverageResponse struct {
	IsValid         bool    `json:"is_valid"`
	MinimumRequired float64 `json:"minimum_required"`
}

// BalanceRequest reconstructs a balance. AsOf defaults to today.
type BalanceRequest struct {
	LoanAmount     float64 `json:"loan_amount"`
	MonthlyPayment float64 `json:"monthly_payment"`
	AnnualRate     float64 `json:"annual_rate"`
	StartDate      string  `json:"start_date"`
	AsOf           string  `json:"as_of,omitempty"`
}

type BalanceResponse struct {
	CurrentBalance float64 `json:"current_balance"`
	AsOf           string  `json:"as_of"`
}

// PayoffRequest projects a payoff date. FromDate defaults to today.
type PayoffRequest struct {
	CurrentBalance float64 `json:"current_balance"`
	MonthlyPayment float64 `json:"monthly_payment"`
	AnnualRate     float64 `json:"annual_rate"`
	FromDate       string  `json:"from_date,omitempty"`
}

type PayoffResponse struct {
	PayoffDate string `json:"payoff_date"`
	Months     int    `json:"months"`
	Status     string `json:"status"`
}

// =============================================================================
// ACCOUNTS
// =============================================================================

// AccountRequest creates or updates an account. OwnerID is ignored on update.
type AccountRequest struct {
	OwnerID        string  `json:"owner_id"`
	Name           string  `json:"name"`
	LoanAmount     float64 `json:"loan_amount"`
	MonthlyPayment float64 `json:"monthly_payment"`
	MinimumPayment float64 `json:"minimum_payment"`
	InterestRate   float64 `json:"interest_rate"`
	StartDate      string  `json:"start_date"`
}

type AccountDTO struct {
	ID             string  `json:"id"`
	OwnerID        string  `json:"owner_id"`
	Name           string  `json:"name"`
	LoanAmount     float64 `json:"loan_amount"`
	MonthlyPayment float64 `json:"monthly_payment"`
	MinimumPayment float64 `json:"minimum_payment"`
	InterestRate   float64 `json:"interest_rate"`
	StartDate      string  `json:"start_date"`
	CurrentBalance float64 `json:"current_balance"`
	CurrentRate    float64 `json:"current_rate"`
	PaidDown       float64 `json:"paid_down"`
	PayoffDate     string  `json:"payoff_date"`
	PayoffStatus   string  `json:"payoff_status"`
	AsOf           string  `json:"as_of"`
	Active         bool    `json:"active"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

// EventRequest records an event. Amount applies to extra_payment and
// withdrawal, NewRate to rate_change.
type EventRequest struct {
	Kind    string   `json:"kind"`
	Date    string   `json:"date"`
	Amount  *float64 `json:"amount,omitempty"`
	NewRate *float64 `json:"new_rate,omitempty"`
	Note    string   `json:"note,omitempty"`
}

type EventDTO struct {
	ID        string   `json:"id"`
	AccountID string   `json:"account_id"`
	Kind      string   `json:"kind"`
	Date      string   `json:"date"`
	Amount    *float64 `json:"amount,omitempty"`
	NewRate   *float64 `json:"new_rate,omitempty"`
	Note      string   `json:"note,omitempty"`
	CreatedAt string   `json:"created_at"`
}

type RecordEventResponse struct {
	Event   EventDTO   `json:"event"`
	Account AccountDTO `json:"account"`
}

type DashboardDTO struct {
	OwnerID             string       `json:"owner_id"`
	AccountCount        int          `json:"account_count"`
	TotalOriginal       float64      `json:"total_original"`
	TotalBalance        float64      `json:"total_balance"`
	TotalPaidDown       float64      `json:"total_paid_down"`
	TotalMonthlyPayment float64      `json:"total_monthly_payment"`
	TotalMinimumPayment float64      `json:"total_minimum_payment"`
	WeightedRate        float64      `json:"weighted_rate"`
	DebtFreeDate        string       `json:"debt_free_date,omitempty"`
	NeverPaysOff        int          `json:"never_pays_off"`
	BeyondHorizon       int          `json:"beyond_horizon"`
	AsOf                string       `json:"as_of"`
	Accounts            []AccountDTO `json:"accounts"`
}

// =============================================================================
// DEMO
// =============================================================================

type DemoDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadDemoRequest struct {
	DemoID  string `json:"demo_id"`
	OwnerID string `json:"owner_id,omitempty"`
}

type LoadDemoResponse struct {
	DemoID   string       `json:"demo_id"`
	OwnerID  string       `json:"owner_id"`
	Accounts []AccountDTO `json:"accounts"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func money(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

func pct(d decimal.Decimal) float64 {
	f, _ := d.Round(4).Float64()
	return f
}

func toDecimal(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func moneyPtr(d decimal.Decimal) *float64 {
	f := money(d)
	return &f
}

func pctPtr(d decimal.Decimal) *float64 {
	f := pct(d)
	return &f
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func toEntryDTOs(entries []amortization.Entry) []EntryDTO {
	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = EntryDTO{
			Sequence:  e.Sequence,
			Date:      e.Date.String(),
			Payment:   money(e.Payment),
			Principal: money(e.Principal),
			Interest:  money(e.Interest),
			Balance:   money(e.Balance),
		}
	}
	return dtos
}

func toSimulationResponse(res amortization.SimulationResult, window int) SimulationResponse {
	resp := SimulationResponse{
		BasePayment: money(res.BasePayment),
		Window:      window,
	}
	for _, s := range res.Scenarios() {
		resp.Scenarios = append(resp.Scenarios, ScenarioDTO{
			Name:                s.Name,
			Color:               s.Color,
			MonthlyPayment:      money(s.MonthlyPayment),
			ExtraPayment:        money(s.ExtraPayment),
			Principal:           money(s.Principal),
			TotalInterest:       money(s.TotalInterest),
			TotalRepaid:         money(s.TotalRepaid),
			EffectiveAnnualRate: pct(s.EffectiveAnnualRate),
			CostPercentage:      pct(s.CostPercentage),
			Months:              s.Months,
			TermYears:           pct(s.TermYears),
			PaidOff:             s.PaidOff,
			PayoffDate:          s.PayoffDate.String(),
			InterestSaved:       money(res.InterestSaved(s)),
			MonthsSaved:         res.MonthsSaved(s),
			EntryCount:          len(s.Entries),
			Entries:             toEntryDTOs(amortization.WindowEntries(s.Entries, window)),
		})
	}
	return resp
}

func toAccountDTO(a tracking.Account) AccountDTO {
	return AccountDTO{
		ID:             string(a.ID),
		OwnerID:        string(a.OwnerID),
		Name:           a.Name,
		LoanAmount:     money(a.LoanAmount),
		MonthlyPayment: money(a.MonthlyPayment),
		MinimumPayment: money(a.MinimumPayment),
		InterestRate:   pct(a.InterestRate),
		StartDate:      a.StartDate.String(),
		CurrentBalance: money(a.CurrentBalance),
		CurrentRate:    pct(a.CurrentRate),
		PaidDown:       money(a.PaidDown()),
		PayoffDate:     a.PayoffDate.String(),
		PayoffStatus:   string(a.PayoffStatus),
		AsOf:           a.AsOf.String(),
		Active:         a.Active,
		CreatedAt:      timestamp(a.CreatedAt),
		UpdatedAt:      timestamp(a.UpdatedAt),
	}
}

func toAccountDTOs(accounts []tracking.Account) []AccountDTO {
	dtos := make([]AccountDTO, len(accounts))
	for i, a := range accounts {
		dtos[i] = toAccountDTO(a)
	}
	return dtos
}

func toEventDTO(rec tracking.EventRecord) EventDTO {
	dto := EventDTO{
		ID:        string(rec.ID),
		AccountID: string(rec.AccountID),
		Kind:      string(rec.Event.Kind()),
		Date:      rec.Event.EffectiveDate().String(),
		Note:      rec.Note,
		CreatedAt: timestamp(rec.CreatedAt),
	}
	switch e := rec.Event.(type) {
	case tracking.ExtraPayment:
		dto.Amount = moneyPtr(e.Amount)
	case tracking.Withdrawal:
		dto.Amount = moneyPtr(e.Amount)
	case tracking.RateChange:
		dto.NewRate = pctPtr(e.NewRate)
	}
	return dto
}

func toDashboardDTO(sum tracking.Summary, accounts []tracking.Account) DashboardDTO {
	active := make([]tracking.Account, 0, len(accounts))
	for _, a := range accounts {
		if a.Active {
			active = append(active, a)
		}
	}
	return DashboardDTO{
		OwnerID:             string(sum.OwnerID),
		AccountCount:        sum.AccountCount,
		TotalOriginal:       money(sum.TotalOriginal),
		TotalBalance:        money(sum.TotalBalance),
		TotalPaidDown:       money(sum.TotalOriginal.Sub(sum.TotalBalance)),
		TotalMonthlyPayment: money(sum.TotalMonthlyPayment),
		TotalMinimumPayment: money(sum.TotalMinimumPayment),
		WeightedRate:        pct(sum.WeightedRate),
		DebtFreeDate:        sum.DebtFreeDate.String(),
		NeverPaysOff:        sum.NeverPaysOff,
		BeyondHorizon:       sum.BeyondHorizon,
		AsOf:                sum.AsOf.String(),
		Accounts:            toAccountDTOs(active),
	}
}
