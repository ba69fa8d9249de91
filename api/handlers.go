/*
handlers.go - HTTP API handlers for the debt engine

PURPOSE:
  Exposes the loan calculator and the tracked-account dashboard via REST.
  Handles HTTP request/response and JSON serialization, and delegates to
  the amortization and tracking packages.

ENDPOINTS:
  Calculator:
    POST   /api/simulations                 Base plan + two extra-payment plans
    POST   /api/calculations/payment        Level monthly payment
    POST   /api/calculations/coverage       Does a payment cover interest?
    POST   /api/calculations/balance        Balance reconstructed from terms
    POST   /api/calculations/payoff         Payoff date projection

  Accounts:
    GET    /api/accounts?owner_id=          List an owner's accounts
    POST   /api/accounts                    Create account
    GET    /api/accounts/{id}               Get account
    PUT    /api/accounts/{id}               Replace terms
    DELETE /api/accounts/{id}               Soft delete
    POST   /api/accounts/{id}/refresh       Re-derive as of today
    GET    /api/accounts/{id}/events        Event history
    POST   /api/accounts/{id}/events        Record an event

  Dashboard:
    GET    /api/dashboard?owner_id=         Totals across active accounts

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Account not found
  - 409: Account is inactive
  - 422: Monthly payment does not cover interest
  - 500: Internal errors

SECURITY NOTE:
  No authentication. owner_id is taken at face value.

SEE ALSO:
  - dto.go: Request/response data structures
  - demo.go: Demo portfolio loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/warp/debt-engine/amortization"
	"github.com/warp/debt-engine/cache"
	"github.com/warp/debt-engine/tracking"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *tracking.Service
	Logger  *slog.Logger

	// DefaultWindow trims simulation schedules when the request has no
	// window parameter. Zero returns every entry.
	DefaultWindow int

	// Ping checks the backing store for /healthz. Optional.
	Ping func(ctx context.Context) error

	// Cache memoizes simulation responses when set. CacheTTL of zero keeps
	// entries until the cache evicts them.
	Cache    cache.Cache
	CacheTTL time.Duration

	mu          sync.Mutex
	currentDemo string
}

// NewHandler creates a new handler around the account service.
func NewHandler(svc *tracking.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Service: svc, Logger: logger}
}

// =============================================================================
// SIMULATION
// =============================================================================

// Simulate runs the three-scenario simulation.
func (h *Handler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req SimulationRequest
	if !decode(w, r, &req) {
		Simulations.WithLabelValues("invalid").Inc()
		return
	}

	window, err := h.window(r)
	if err != nil {
		Simulations.WithLabelValues("invalid").Inc()
		h.handleError(w, err, "Invalid window")
		return
	}

	start := h.Service.Today()
	if req.StartDate != "" {
		if start, err = parseInputDate("start_date", req.StartDate); err != nil {
			Simulations.WithLabelValues("invalid").Inc()
			h.handleError(w, err, "Invalid loan input")
			return
		}
	}

	extras := make([]decimal.Decimal, len(req.ExtraPayments))
	for i, e := range req.ExtraPayments {
		extras[i] = toDecimal(e)
	}

	input := amortization.LoanInput{
		Principal:     toDecimal(req.Principal),
		AnnualRate:    toDecimal(req.AnnualRate),
		Term:          req.Term,
		Unit:          amortization.TermUnit(req.TermUnit),
		StartDate:     start,
		ExtraPayments: extras,
	}

	key := simulationKey(input, window)
	if body, ok := h.cached(r.Context(), key); ok {
		Simulations.WithLabelValues("ok").Inc()
		SimulationCache.WithLabelValues("hit").Inc()
		writeRaw(w, http.StatusOK, body, "HIT")
		return
	}

	res, err := amortization.Simulate(input)
	if err != nil {
		Simulations.WithLabelValues("invalid").Inc()
		h.handleError(w, err, "Invalid loan input")
		return
	}

	Simulations.WithLabelValues("ok").Inc()
	h.Logger.Debug("simulation served",
		"principal", req.Principal,
		"months", res.Base.Months,
		"base_payment", res.BasePayment.StringFixed(2),
	)

	body, err := json.Marshal(toSimulationResponse(res, window))
	if err != nil {
		h.handleError(w, err, "Failed to encode simulation")
		return
	}
	cacheStatus := ""
	if h.Cache != nil {
		cacheStatus = "MISS"
		SimulationCache.WithLabelValues("miss").Inc()
		if err := h.Cache.Set(r.Context(), key, body, h.CacheTTL); err != nil {
			h.Logger.Warn("simulation cache write failed", "error", err)
		}
	}
	writeRaw(w, http.StatusOK, body, cacheStatus)
}

// simulationKey hashes the resolved inputs, so a request that defaults
// start_date to today and one that names today share an entry.
func simulationKey(in amortization.LoanInput, window int) string {
	extras := make([]string, len(in.ExtraPayments))
	for i, e := range in.ExtraPayments {
		extras[i] = e.String()
	}
	canonical, _ := json.Marshal(struct {
		Principal string   `json:"p"`
		Rate      string   `json:"r"`
		Term      int      `json:"t"`
		Unit      string   `json:"u"`
		Start     string   `json:"s"`
		Extras    []string `json:"e"`
		Window    int      `json:"w"`
	}{in.Principal.String(), in.AnnualRate.String(), in.Term, string(in.Unit), in.StartDate.String(), extras, window})
	return cache.Key("simulation", canonical)
}

func (h *Handler) cached(ctx context.Context, key string) ([]byte, bool) {
	if h.Cache == nil {
		return nil, false
	}
	body, ok, err := h.Cache.Get(ctx, key)
	if err != nil {
		SimulationCache.WithLabelValues("error").Inc()
		h.Logger.Warn("simulation cache read failed", "error", err)
		return nil, false
	}
	return body, ok
}

func (h *Handler) window(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("window")
	if raw == "" {
		return h.DefaultWindow, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, &amortization.InputError{Field: "window", Message: "must be a non-negative integer"}
	}
	return n, nil
}

// =============================================================================
// CALCULATIONS
// =============================================================================

// CalculatePayment returns the level monthly payment for a loan.
func (h *Handler) CalculatePayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if !decode(w, r, &req) {
		return
	}

	err := firstError(
		checkNonNegative("principal", req.Principal),
		checkRate("annual_rate", req.AnnualRate),
		checkMonths("months", req.Months),
	)
	Calculations.WithLabelValues("payment", outcome(err)).Inc()
	if err != nil {
		h.handleError(w, err, "Invalid payment request")
		return
	}

	monthly := amortization.MonthlyRate(toDecimal(req.AnnualRate))
	writeJSON(w, http.StatusOK, PaymentResponse{
		MonthlyPayment:      money(amortization.MonthlyPayment(toDecimal(req.Principal), monthly, req.Months)),
		EffectiveAnnualRate: pct(amortization.EffectiveAnnualRate(monthly)),
	})
}

// CheckCoverage reports whether a payment exceeds one month of interest.
func (h *Handler) CheckCoverage(w http.ResponseWriter, r *http.Request) {
	var req CoverageRequest
	if !decode(w, r, &req) {
		return
	}

	err := firstError(
		checkNonNegative("balance", req.Balance),
		checkNonNegative("monthly_payment", req.MonthlyPayment),
		checkRate("annual_rate", req.AnnualRate),
	)
	Calculations.WithLabelValues("coverage", outcome(err)).Inc()
	if err != nil {
		h.handleError(w, err, "Invalid coverage request")
		return
	}

	c := amortization.ValidatePayment(toDecimal(req.Balance), toDecimal(req.MonthlyPayment), toDecimal(req.AnnualRate))
	writeJSON(w, http.StatusOK, CoverageResponse{
		IsValid:         c.IsValid,
		MinimumRequired: money(c.MinimumRequired),
	})
}

// CalculateBalance reconstructs a balance from origination terms.
func (h *Handler) CalculateBalance(w http.ResponseWriter, r *http.Request) {
	var req BalanceRequest
	if !decode(w, r, &req) {
		return
	}

	start, err := parseInputDate("start_date", req.StartDate)
	if err == nil && start.IsZero() {
		err = &amortization.InputError{Field: "start_date", Message: "is required"}
	}
	asOf := h.Service.Today()
	if err == nil && req.AsOf != "" {
		asOf, err = parseInputDate("as_of", req.AsOf)
	}
	err = firstError(
		err,
		checkNonNegative("loan_amount", req.LoanAmount),
		checkNonNegative("monthly_payment", req.MonthlyPayment),
		checkRate("annual_rate", req.AnnualRate),
	)
	Calculations.WithLabelValues("balance", outcome(err)).Inc()
	if err != nil {
		h.handleError(w, err, "Invalid balance request")
		return
	}

	balance := amortization.CurrentBalance(
		toDecimal(req.LoanAmount), toDecimal(req.MonthlyPayment), toDecimal(req.AnnualRate), start, asOf)
	writeJSON(w, http.StatusOK, BalanceResponse{
		CurrentBalance: money(balance),
		AsOf:           asOf.String(),
	})
}

// ProjectPayoff projects when a balance reaches zero.
func (h *Handler) ProjectPayoff(w http.ResponseWriter, r *http.Request) {
	var req PayoffRequest
	if !decode(w, r, &req) {
		return
	}

	from := h.Service.Today()
	var err error
	if req.FromDate != "" {
		from, err = parseInputDate("from_date", req.FromDate)
	}
	err = firstError(
		err,
		checkNonNegative("current_balance", req.CurrentBalance),
		checkNonNegative("monthly_payment", req.MonthlyPayment),
		checkRate("annual_rate", req.AnnualRate),
	)
	Calculations.WithLabelValues("payoff", outcome(err)).Inc()
	if err != nil {
		h.handleError(w, err, "Invalid payoff request")
		return
	}

	p := amortization.ProjectPayoff(
		toDecimal(req.CurrentBalance), toDecimal(req.MonthlyPayment), toDecimal(req.AnnualRate), from)
	writeJSON(w, http.StatusOK, PayoffResponse{
		PayoffDate: p.PayoffDate.String(),
		Months:     p.Months,
		Status:     string(p.Status),
	})
}

// =============================================================================
// ACCOUNT HANDLERS
// =============================================================================

// ListAccounts returns an owner's accounts.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerParam(w, r)
	if !ok {
		return
	}
	includeInactive, _ := strconv.ParseBool(r.URL.Query().Get("include_inactive"))

	accounts, err := h.Service.List(r.Context(), owner, includeInactive)
	if err != nil {
		h.handleError(w, err, "Failed to list accounts")
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTOs(accounts))
}

// CreateAccount creates a tracked account.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req AccountRequest
	if !decode(w, r, &req) {
		return
	}

	terms, err := termsFrom(req)
	var acct tracking.Account
	if err == nil {
		acct, err = h.Service.Create(r.Context(), tracking.NewAccount{
			OwnerID: tracking.OwnerID(req.OwnerID),
			Terms:   terms,
		})
	}
	h.observe("create", acct, err)
	if err != nil {
		h.handleError(w, err, "Failed to create account")
		return
	}
	writeJSON(w, http.StatusCreated, toAccountDTO(acct))
}

// GetAccount returns one account.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	acct, err := h.Service.Get(r.Context(), accountID(r))
	if err != nil {
		h.handleError(w, err, "Failed to get account")
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(acct))
}

// UpdateAccount replaces an account's terms.
func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req AccountRequest
	if !decode(w, r, &req) {
		return
	}

	terms, err := termsFrom(req)
	var acct tracking.Account
	if err == nil {
		acct, err = h.Service.Update(r.Context(), accountID(r), terms)
	}
	h.observe("update", acct, err)
	if err != nil {
		h.handleError(w, err, "Failed to update account")
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(acct))
}

// DeleteAccount deactivates an account.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	err := h.Service.Delete(r.Context(), accountID(r))
	AccountOperations.WithLabelValues("delete", outcome(err)).Inc()
	if err != nil {
		h.handleError(w, err, "Failed to delete account")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RefreshAccount re-derives balance and payoff as of today.
func (h *Handler) RefreshAccount(w http.ResponseWriter, r *http.Request) {
	acct, err := h.Service.Refresh(r.Context(), accountID(r))
	h.observe("refresh", acct, err)
	if err != nil {
		h.handleError(w, err, "Failed to refresh account")
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(acct))
}

// ListEvents returns an account's event history.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	recs, err := h.Service.Events(r.Context(), accountID(r))
	if err != nil {
		h.handleError(w, err, "Failed to list events")
		return
	}
	dtos := make([]EventDTO, len(recs))
	for i, rec := range recs {
		dtos[i] = toEventDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RecordEvent appends an event and returns the recomputed account.
func (h *Handler) RecordEvent(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if !decode(w, r, &req) {
		return
	}

	e, err := eventFrom(req)
	var (
		rec  tracking.EventRecord
		acct tracking.Account
	)
	if err == nil {
		rec, acct, err = h.Service.RecordEvent(r.Context(), accountID(r), e, req.Note)
	}
	h.observe("record_event", acct, err)
	if err != nil {
		h.handleError(w, err, "Failed to record event")
		return
	}
	writeJSON(w, http.StatusCreated, RecordEventResponse{
		Event:   toEventDTO(rec),
		Account: toAccountDTO(acct),
	})
}

// Dashboard returns the owner's totals and active accounts.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerParam(w, r)
	if !ok {
		return
	}

	accounts, err := h.Service.List(r.Context(), owner, false)
	if err != nil {
		h.handleError(w, err, "Failed to load dashboard")
		return
	}
	sum := tracking.Summarize(owner, accounts, h.Service.Today())
	writeJSON(w, http.StatusOK, toDashboardDTO(sum, accounts))
}

// Health reports whether the server and its store are reachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.Ping != nil {
		if err := h.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "Store unavailable", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// REQUEST PARSING
// =============================================================================

func accountID(r *http.Request) tracking.AccountID {
	return tracking.AccountID(chi.URLParam(r, "id"))
}

func ownerParam(w http.ResponseWriter, r *http.Request) (tracking.OwnerID, bool) {
	owner := r.URL.Query().Get("owner_id")
	if owner == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "owner_id query parameter is required",
			Code:  "invalid_input",
		})
		return "", false
	}
	return tracking.OwnerID(owner), true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// parseInputDate returns the zero Date for an empty string.
func parseInputDate(field, s string) (amortization.Date, error) {
	if s == "" {
		return amortization.Date{}, nil
	}
	d, err := amortization.ParseDate(s)
	if err != nil {
		return amortization.Date{}, &amortization.InputError{Field: field, Message: "must be YYYY-MM-DD"}
	}
	return d, nil
}

func parseTermsDate(field, s string) (amortization.Date, error) {
	d, err := parseInputDate(field, s)
	if err != nil {
		return amortization.Date{}, &tracking.TermsError{Field: field, Message: "must be YYYY-MM-DD"}
	}
	return d, nil
}

func termsFrom(req AccountRequest) (tracking.Terms, error) {
	start, err := parseTermsDate("start_date", req.StartDate)
	if err != nil {
		return tracking.Terms{}, err
	}
	return tracking.Terms{
		Name:           req.Name,
		LoanAmount:     toDecimal(req.LoanAmount),
		MonthlyPayment: toDecimal(req.MonthlyPayment),
		MinimumPayment: toDecimal(req.MinimumPayment),
		InterestRate:   toDecimal(req.InterestRate),
		StartDate:      start,
	}, nil
}

func eventFrom(req EventRequest) (tracking.Event, error) {
	on, err := parseTermsDate("date", req.Date)
	if err != nil {
		return nil, err
	}
	amount := decimal.Zero
	if req.Amount != nil {
		amount = toDecimal(*req.Amount)
	}

	switch tracking.EventKind(req.Kind) {
	case tracking.KindExtraPayment:
		return tracking.ExtraPayment{On: on, Amount: amount}, nil
	case tracking.KindSkippedPayment:
		return tracking.SkippedPayment{On: on}, nil
	case tracking.KindWithdrawal:
		return tracking.Withdrawal{On: on, Amount: amount}, nil
	case tracking.KindRateChange:
		if req.NewRate == nil {
			return nil, &tracking.TermsError{Field: "new_rate", Message: "is required"}
		}
		return tracking.RateChange{On: on, NewRate: toDecimal(*req.NewRate)}, nil
	}
	return nil, &tracking.TermsError{
		Field:   "kind",
		Message: fmt.Sprintf("must be one of %s, %s, %s, %s", tracking.KindExtraPayment,
			tracking.KindSkippedPayment, tracking.KindWithdrawal, tracking.KindRateChange),
	}
}

func checkNonNegative(field string, v float64) error {
	if v < 0 {
		return &amortization.InputError{Field: field, Message: "must not be negative"}
	}
	return nil
}

func checkRate(field string, v float64) error {
	if v < 0 || v > 100 {
		return &amortization.InputError{Field: field, Message: "must be between 0 and 100"}
	}
	return nil
}

func checkMonths(field string, n int) error {
	if n <= 0 || n > amortization.MaxMonths {
		return &amortization.InputError{Field: field, Message: "must be between 1 and 360"}
	}
	return nil
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// RESPONSES
// =============================================================================

func (h *Handler) observe(operation string, acct tracking.Account, err error) {
	AccountOperations.WithLabelValues(operation, outcome(err)).Inc()
	if err == nil {
		PayoffProjections.WithLabelValues(string(acct.PayoffStatus)).Inc()
	}
}

// handleError maps domain errors to HTTP status codes.
func (h *Handler) handleError(w http.ResponseWriter, err error, message string) {
	var tooLow *tracking.PaymentTooLowError
	switch {
	case tracking.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Account not found", Code: "not_found", Details: err.Error()})
	case errors.As(err, &tooLow):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error: message,
			Code:  "payment_too_low",
			Details: map[string]any{
				"message":          err.Error(),
				"minimum_required": money(tooLow.MinimumRequired),
			},
		})
	case errors.Is(err, tracking.ErrAccountInactive):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: message, Code: "account_inactive", Details: err.Error()})
	case tracking.IsClientError(err), errors.Is(err, amortization.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: message, Code: "invalid_input", Details: err.Error()})
	default:
		h.Logger.Error(message, "error", err)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeRaw sends an already encoded JSON body. A non-empty cacheStatus is
// reported in X-Cache.
func writeRaw(w http.ResponseWriter, status int, body []byte, cacheStatus string) {
	w.Header().Set("Content-Type", "application/json")
	if cacheStatus != "" {
		w.Header().Set("X-Cache", cacheStatus)
	}
	w.WriteHeader(status)
	w.Write(body)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
