package tracking

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/debt-engine/amortization"
)

// Service owns the account lifecycle. Writes to one account are
// serialized, and each re-reads the stored row under the account's lock,
// so a background refresh never overwrites a concurrent update or delete.
type Service struct {
	store  Store
	clock  Clock
	logger *slog.Logger

	mu    sync.Mutex
	locks map[AccountID]*sync.Mutex
}

// NewService wires a service. A nil clock uses SystemClock; a nil logger
// uses slog.Default().
func NewService(store Store, clock Clock, logger *slog.Logger) *Service {
	if clock == nil {
		clock = SystemClock
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, clock: clock, logger: logger, locks: make(map[AccountID]*sync.Mutex)}
}

// Today is the service's reference date.
func (s *Service) Today() amortization.Date {
	return s.clock()
}

// NewAccount is the creation payload.
type NewAccount struct {
	OwnerID OwnerID
	Terms   Terms
}

// ValidateTerms checks the user-entered fields. It does not check
// payment coverage; see CheckCoverage.
func ValidateTerms(t Terms) error {
	switch {
	case !t.LoanAmount.IsPositive():
		return &TermsError{Field: "loan_amount", Message: "must be positive"}
	case !t.MonthlyPayment.IsPositive():
		return &TermsError{Field: "monthly_payment", Message: "must be positive"}
	case t.MinimumPayment.IsNegative():
		return &TermsError{Field: "minimum_payment", Message: "must not be negative"}
	case t.MinimumPayment.GreaterThan(t.MonthlyPayment):
		return &TermsError{Field: "minimum_payment", Message: "must not exceed monthly_payment"}
	case t.InterestRate.IsNegative() || t.InterestRate.GreaterThan(decimal.NewFromInt(100)):
		return &TermsError{Field: "interest_rate", Message: "must be between 0 and 100"}
	case t.StartDate.IsZero():
		return &TermsError{Field: "start_date", Message: "is required"}
	}
	return nil
}

// CheckCoverage rejects terms whose payment would never amortize the loan.
func CheckCoverage(t Terms) error {
	c := amortization.ValidatePayment(t.LoanAmount, t.MonthlyPayment, t.InterestRate)
	if !c.IsValid {
		return &PaymentTooLowError{Payment: t.MonthlyPayment, MinimumRequired: c.MinimumRequired}
	}
	return nil
}

func checkTerms(t Terms) error {
	if err := ValidateTerms(t); err != nil {
		return err
	}
	return CheckCoverage(t)
}

// Create validates the terms, derives balance and payoff as of today, and
// persists a new active account.
func (s *Service) Create(ctx context.Context, in NewAccount) (Account, error) {
	if in.OwnerID == "" {
		return Account{}, &TermsError{Field: "owner_id", Message: "is required"}
	}
	if err := checkTerms(in.Terms); err != nil {
		return Account{}, err
	}
	if in.Terms.Name == "" {
		in.Terms.Name = "Loan"
	}

	now := time.Now().UTC()
	acct := Account{
		ID:        AccountID(uuid.New().String()),
		OwnerID:   in.OwnerID,
		Terms:     in.Terms,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.derive(&acct, nil); err != nil {
		return Account{}, err
	}
	if err := s.store.SaveAccount(ctx, acct); err != nil {
		return Account{}, err
	}

	s.logger.Info("account created",
		"account_id", acct.ID,
		"owner_id", acct.OwnerID,
		"current_balance", acct.CurrentBalance.StringFixed(2),
		"payoff_date", acct.PayoffDate.String(),
	)
	return acct, nil
}

// Get returns an account by ID, active or not.
func (s *Service) Get(ctx context.Context, id AccountID) (Account, error) {
	return s.store.GetAccount(ctx, id)
}

// List returns an owner's accounts.
func (s *Service) List(ctx context.Context, owner OwnerID, includeInactive bool) ([]Account, error) {
	return s.store.ListAccounts(ctx, owner, includeInactive)
}

// Update replaces the terms and recomputes the derived fields.
func (s *Service) Update(ctx context.Context, id AccountID, terms Terms) (Account, error) {
	defer s.lockAccount(id)()

	acct, err := s.activeAccount(ctx, id)
	if err != nil {
		return Account{}, err
	}
	if err := checkTerms(terms); err != nil {
		return Account{}, err
	}
	if terms.Name == "" {
		terms.Name = acct.Name
	}

	acct.Terms = terms
	if err := s.recompute(ctx, &acct); err != nil {
		return Account{}, err
	}

	s.logger.Info("account updated", "account_id", acct.ID, "payoff_status", acct.PayoffStatus)
	return acct, nil
}

// Refresh re-derives balance and payoff as of today.
func (s *Service) Refresh(ctx context.Context, id AccountID) (Account, error) {
	defer s.lockAccount(id)()

	acct, err := s.activeAccount(ctx, id)
	if err != nil {
		return Account{}, err
	}
	if err := s.recompute(ctx, &acct); err != nil {
		return Account{}, err
	}
	return acct, nil
}

// RefreshAll re-derives every active account as of today and returns how
// many were refreshed. Accounts deactivated after the listing are
// skipped. It stops at the first error.
func (s *Service) RefreshAll(ctx context.Context) (int, error) {
	accounts, err := s.store.ListActiveAccounts(ctx)
	if err != nil {
		return 0, err
	}
	refreshed := 0
	for _, listed := range accounts {
		if err := ctx.Err(); err != nil {
			return refreshed, err
		}
		ok, err := s.refreshIfActive(ctx, listed.ID)
		if err != nil {
			return refreshed, fmt.Errorf("refresh account %s: %w", listed.ID, err)
		}
		if ok {
			refreshed++
		}
	}
	return refreshed, nil
}

// refreshIfActive recomputes the stored row, not the listed snapshot.
func (s *Service) refreshIfActive(ctx context.Context, id AccountID) (bool, error) {
	defer s.lockAccount(id)()

	acct, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return false, err
	}
	if !acct.Active {
		return false, nil
	}
	return true, s.recompute(ctx, &acct)
}

// Delete deactivates the account. Deleting an inactive account is a no-op.
func (s *Service) Delete(ctx context.Context, id AccountID) error {
	defer s.lockAccount(id)()

	acct, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return err
	}
	if !acct.Active {
		return nil
	}
	acct.Active = false
	acct.UpdatedAt = time.Now().UTC()
	if err := s.store.SaveAccount(ctx, acct); err != nil {
		return err
	}
	s.logger.Info("account deactivated", "account_id", id)
	return nil
}

// RecordEvent appends an event and recomputes the account.
func (s *Service) RecordEvent(ctx context.Context, id AccountID, e Event, note string) (EventRecord, Account, error) {
	if err := ValidateEvent(e); err != nil {
		return EventRecord{}, Account{}, err
	}

	defer s.lockAccount(id)()

	acct, err := s.activeAccount(ctx, id)
	if err != nil {
		return EventRecord{}, Account{}, err
	}

	rec := EventRecord{
		ID:        EventID(uuid.New().String()),
		AccountID: id,
		Event:     e,
		Note:      note,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.AppendEvent(ctx, rec); err != nil {
		return EventRecord{}, Account{}, err
	}
	if err := s.recompute(ctx, &acct); err != nil {
		return EventRecord{}, Account{}, err
	}

	s.logger.Info("account event recorded",
		"account_id", id,
		"kind", e.Kind(),
		"effective_date", e.EffectiveDate().String(),
	)
	return rec, acct, nil
}

// Events returns an account's events.
func (s *Service) Events(ctx context.Context, id AccountID) ([]EventRecord, error) {
	if _, err := s.store.GetAccount(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListEvents(ctx, id)
}

func (s *Service) activeAccount(ctx context.Context, id AccountID) (Account, error) {
	acct, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return Account{}, err
	}
	if !acct.Active {
		return Account{}, ErrAccountInactive
	}
	return acct, nil
}

// lockAccount takes the account's write lock and returns its release.
func (s *Service) lockAccount(id AccountID) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// recompute loads the account's events, derives, and saves. The caller
// holds the account's lock and read acct under it.
func (s *Service) recompute(ctx context.Context, acct *Account) error {
	recs, err := s.store.ListEvents(ctx, acct.ID)
	if err != nil {
		return err
	}
	events := make([]Event, len(recs))
	for i, r := range recs {
		events[i] = r.Event
	}
	if err := s.derive(acct, events); err != nil {
		return err
	}
	acct.UpdatedAt = time.Now().UTC()
	return s.store.SaveAccount(ctx, *acct)
}

func (s *Service) derive(acct *Account, events []Event) error {
	d, err := Replay(acct.Terms, events, s.clock())
	if err != nil {
		return err
	}
	acct.CurrentBalance = d.Balance
	acct.CurrentRate = d.Rate
	acct.AsOf = d.AsOf
	acct.PayoffDate = d.Projection.PayoffDate
	acct.PayoffStatus = d.Projection.Status
	if d.Projection.Status == amortization.PayoffNever {
		s.logger.Warn("account will never pay off",
			"account_id", acct.ID,
			"current_balance", d.Balance.StringFixed(2),
			"rate", d.Rate.String(),
		)
	}
	return nil
}
