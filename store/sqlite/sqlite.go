/*
Package sqlite provides a SQLite-backed implementation of tracking.Store.

PURPOSE:
  Persists tracked accounts and their events. The same schema works on
  PostgreSQL with minor dialect changes.

KEY TABLES:
  accounts:       One row per tracked loan, terms plus derived fields
  account_events: Append-only events, one row per event

MONEY:
  Decimal amounts are stored as TEXT and round-trip exactly through
  shopspring/decimal. Dates are stored as YYYY-MM-DD, timestamps as
  RFC3339.

EVENTS:
  Each row carries its kind plus the nullable columns that kind uses:
    extra_payment   -> amount
    skipped_payment -> (none)
    withdrawal      -> amount
    rate_change     -> new_rate

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. The pool is limited to one
  connection so ":memory:" databases are shared by every query.

USAGE:
  store, err := sqlite.New("./data/debts.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := tracking.NewService(store, tracking.SystemClock, logger)

SEE ALSO:
  - tracking/store.go: Interface definition
  - tracking/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/debt-engine/amortization"
	"github.com/warp/debt-engine/tracking"
)

// Store implements tracking.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection. Used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		name TEXT NOT NULL,
		loan_amount TEXT NOT NULL,
		monthly_payment TEXT NOT NULL,
		minimum_payment TEXT NOT NULL,
		interest_rate TEXT NOT NULL,
		start_date TEXT NOT NULL,
		current_balance TEXT NOT NULL,
		current_rate TEXT NOT NULL,
		payoff_date TEXT,
		payoff_status TEXT NOT NULL,
		as_of TEXT,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_accounts_owner
		ON accounts(owner_id, active, created_at);

	-- Append-only; no UPDATE or DELETE is ever issued against this table
	CREATE TABLE IF NOT EXISTS account_events (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL REFERENCES accounts(id),
		kind TEXT NOT NULL,
		effective_date TEXT NOT NULL,
		amount TEXT,
		new_rate TEXT,
		note TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_account_events_account_date
		ON account_events(account_id, effective_date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ACCOUNTS
// =============================================================================

// SaveAccount inserts or replaces an account.
func (s *Store) SaveAccount(ctx context.Context, a tracking.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO accounts
		(id, owner_id, name, loan_amount, monthly_payment, minimum_payment, interest_rate,
		 start_date, current_balance, current_rate, payoff_date, payoff_status, as_of,
		 active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_id = excluded.owner_id,
			name = excluded.name,
			loan_amount = excluded.loan_amount,
			monthly_payment = excluded.monthly_payment,
			minimum_payment = excluded.minimum_payment,
			interest_rate = excluded.interest_rate,
			start_date = excluded.start_date,
			current_balance = excluded.current_balance,
			current_rate = excluded.current_rate,
			payoff_date = excluded.payoff_date,
			payoff_status = excluded.payoff_status,
			as_of = excluded.as_of,
			active = excluded.active,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		a.ID,
		a.OwnerID,
		a.Name,
		a.LoanAmount.String(),
		a.MonthlyPayment.String(),
		a.MinimumPayment.String(),
		a.InterestRate.String(),
		a.StartDate.String(),
		a.CurrentBalance.String(),
		a.CurrentRate.String(),
		nullString(a.PayoffDate.String()),
		string(a.PayoffStatus),
		nullString(a.AsOf.String()),
		a.Active,
		a.CreatedAt.UTC().Format(time.RFC3339Nano),
		a.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

const accountColumns = `
	id, owner_id, name, loan_amount, monthly_payment, minimum_payment, interest_rate,
	start_date, current_balance, current_rate, payoff_date, payoff_status, as_of,
	active, created_at, updated_at`

// GetAccount returns tracking.ErrAccountNotFound when the ID is unknown.
func (s *Store) GetAccount(ctx context.Context, id tracking.AccountID) (tracking.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE id = ?", id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return tracking.Account{}, tracking.ErrAccountNotFound
	}
	return a, err
}

// ListAccounts returns an owner's accounts ordered by creation time.
func (s *Store) ListAccounts(ctx context.Context, owner tracking.OwnerID, includeInactive bool) ([]tracking.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + accountColumns + ` FROM accounts
		WHERE owner_id = ? AND (active OR ?)
		ORDER BY created_at ASC, id ASC`

	return s.queryAccounts(ctx, query, owner, includeInactive)
}

// ListActiveAccounts returns every active account across owners.
func (s *Store) ListActiveAccounts(ctx context.Context) ([]tracking.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + accountColumns + ` FROM accounts
		WHERE active
		ORDER BY created_at ASC, id ASC`

	return s.queryAccounts(ctx, query)
}

func (s *Store) queryAccounts(ctx context.Context, query string, args ...any) ([]tracking.Account, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []tracking.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (tracking.Account, error) {
	var (
		a              tracking.Account
		loanAmount     string
		monthlyPayment string
		minimumPayment string
		interestRate   string
		startDate      string
		currentBalance string
		currentRate    string
		payoffDate     sql.NullString
		payoffStatus   string
		asOf           sql.NullString
		createdAt      string
		updatedAt      string
	)

	err := row.Scan(
		&a.ID, &a.OwnerID, &a.Name, &loanAmount, &monthlyPayment, &minimumPayment,
		&interestRate, &startDate, &currentBalance, &currentRate, &payoffDate,
		&payoffStatus, &asOf, &a.Active, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return a, err
	}
	if err != nil {
		return a, fmt.Errorf("failed to scan account: %w", err)
	}

	a.LoanAmount = parseDecimal(loanAmount)
	a.MonthlyPayment = parseDecimal(monthlyPayment)
	a.MinimumPayment = parseDecimal(minimumPayment)
	a.InterestRate = parseDecimal(interestRate)
	a.StartDate = parseDate(startDate)
	a.CurrentBalance = parseDecimal(currentBalance)
	a.CurrentRate = parseDecimal(currentRate)
	a.PayoffDate = parseDate(payoffDate.String)
	a.PayoffStatus = amortization.PayoffStatus(payoffStatus)
	a.AsOf = parseDate(asOf.String)
	a.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	a.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)

	return a, nil
}

// =============================================================================
// EVENTS
// =============================================================================

// AppendEvent persists an event. The account must exist.
func (s *Store) AppendEvent(ctx context.Context, rec tracking.EventRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM accounts WHERE id = ?", rec.AccountID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check account: %w", err)
	}
	if exists == 0 {
		return tracking.ErrAccountNotFound
	}

	var amount, newRate sql.NullString
	switch e := rec.Event.(type) {
	case tracking.ExtraPayment:
		amount = nullString(e.Amount.String())
	case tracking.SkippedPayment:
	case tracking.Withdrawal:
		amount = nullString(e.Amount.String())
	case tracking.RateChange:
		newRate = nullString(e.NewRate.String())
	default:
		return fmt.Errorf("unsupported event type %T", rec.Event)
	}

	query := `
		INSERT INTO account_events
		(id, account_id, kind, effective_date, amount, new_rate, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID,
		rec.AccountID,
		string(rec.Event.Kind()),
		rec.Event.EffectiveDate().String(),
		amount,
		newRate,
		nullString(rec.Note),
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// ListEvents returns an account's events ordered by effective date.
// Events on the same date keep insertion order.
func (s *Store) ListEvents(ctx context.Context, id tracking.AccountID) ([]tracking.EventRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, account_id, kind, effective_date, amount, new_rate, note, created_at
		FROM account_events
		WHERE account_id = ?
		ORDER BY effective_date ASC, rowid ASC
	`
	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var records []tracking.EventRecord
	for rows.Next() {
		rec, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanEvent(rows *sql.Rows) (tracking.EventRecord, error) {
	var (
		rec           tracking.EventRecord
		kind          string
		effectiveDate string
		amount        sql.NullString
		newRate       sql.NullString
		note          sql.NullString
		createdAt     string
	)

	err := rows.Scan(&rec.ID, &rec.AccountID, &kind, &effectiveDate,
		&amount, &newRate, &note, &createdAt)
	if err != nil {
		return rec, fmt.Errorf("failed to scan event: %w", err)
	}

	on := parseDate(effectiveDate)
	switch tracking.EventKind(kind) {
	case tracking.KindExtraPayment:
		rec.Event = tracking.ExtraPayment{On: on, Amount: parseDecimal(amount.String)}
	case tracking.KindSkippedPayment:
		rec.Event = tracking.SkippedPayment{On: on}
	case tracking.KindWithdrawal:
		rec.Event = tracking.Withdrawal{On: on, Amount: parseDecimal(amount.String)}
	case tracking.KindRateChange:
		rec.Event = tracking.RateChange{On: on, NewRate: parseDecimal(newRate.String)}
	default:
		return rec, fmt.Errorf("unknown event kind %q in row %s", kind, rec.ID)
	}
	rec.Note = note.String
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)

	return rec, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseDate(s string) amortization.Date {
	if s == "" {
		return amortization.Date{}
	}
	d, err := amortization.ParseDate(s)
	if err != nil {
		return amortization.Date{}
	}
	return d
}

var _ tracking.Store = (*Store)(nil)
