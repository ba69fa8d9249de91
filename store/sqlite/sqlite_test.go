package sqlite_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/debt-engine/amortization"
	"github.com/warp/debt-engine/store/sqlite"
	"github.com/warp/debt-engine/tracking"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleAccount(id tracking.AccountID, owner tracking.OwnerID, created time.Time) tracking.Account {
	return tracking.Account{
		ID:      id,
		OwnerID: owner,
		Terms: tracking.Terms{
			Name:           "Mortgage",
			LoanAmount:     decimal.RequireFromString("100000"),
			MonthlyPayment: decimal.RequireFromString("599.55"),
			MinimumPayment: decimal.RequireFromString("550"),
			InterestRate:   decimal.RequireFromString("6.125"),
			StartDate:      amortization.NewDate(2024, time.March, 1),
		},
		CurrentBalance: decimal.RequireFromString("98463.1234567891"),
		CurrentRate:    decimal.RequireFromString("6.125"),
		PayoffDate:     amortization.NewDate(2054, time.March, 1),
		PayoffStatus:   amortization.PayoffOnTrack,
		AsOf:           amortization.NewDate(2025, time.July, 1),
		Active:         true,
		CreatedAt:      created,
		UpdatedAt:      created,
	}
}

func TestStore_AccountRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	created := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

	// GIVEN: a saved account
	want := sampleAccount("acct-1", "user-1", created)
	require.NoError(t, s.SaveAccount(ctx, want))

	// WHEN: it is read back
	got, err := s.GetAccount(ctx, "acct-1")

	// THEN: decimals, dates and status survive exactly
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.OwnerID, got.OwnerID)
	assert.Equal(t, want.Name, got.Name)
	assert.True(t, want.LoanAmount.Equal(got.LoanAmount))
	assert.True(t, want.MinimumPayment.Equal(got.MinimumPayment))
	assert.True(t, want.InterestRate.Equal(got.InterestRate))
	assert.True(t, want.CurrentBalance.Equal(got.CurrentBalance), "got %s", got.CurrentBalance)
	assert.Equal(t, want.StartDate, got.StartDate)
	assert.Equal(t, want.PayoffDate, got.PayoffDate)
	assert.Equal(t, want.AsOf, got.AsOf)
	assert.Equal(t, amortization.PayoffOnTrack, got.PayoffStatus)
	assert.True(t, got.Active)
	assert.True(t, created.Equal(got.CreatedAt))
}

func TestStore_SaveAccount_Upserts(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	a := sampleAccount("acct-1", "user-1", time.Now().UTC())
	require.NoError(t, s.SaveAccount(ctx, a))

	a.Name = "Refinanced"
	a.CurrentBalance = decimal.RequireFromString("90000")
	a.PayoffStatus = amortization.PayoffNever
	a.Active = false
	require.NoError(t, s.SaveAccount(ctx, a))

	got, err := s.GetAccount(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, "Refinanced", got.Name)
	assert.True(t, got.CurrentBalance.Equal(decimal.RequireFromString("90000")))
	assert.Equal(t, amortization.PayoffNever, got.PayoffStatus)
	assert.False(t, got.Active)
}

func TestStore_GetAccount_NotFound(t *testing.T) {
	s := newStore(t)

	_, err := s.GetAccount(context.Background(), "missing")
	assert.True(t, errors.Is(err, tracking.ErrAccountNotFound))
}

func TestStore_ListAccounts_FiltersAndOrders(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveAccount(ctx, sampleAccount("b", "user-1", base.Add(2*time.Hour))))
	require.NoError(t, s.SaveAccount(ctx, sampleAccount("a", "user-1", base.Add(time.Hour))))
	inactive := sampleAccount("c", "user-1", base.Add(3*time.Hour))
	inactive.Active = false
	require.NoError(t, s.SaveAccount(ctx, inactive))
	require.NoError(t, s.SaveAccount(ctx, sampleAccount("d", "user-2", base)))

	active, err := s.ListAccounts(ctx, "user-1", false)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, tracking.AccountID("a"), active[0].ID)
	assert.Equal(t, tracking.AccountID("b"), active[1].ID)

	all, err := s.ListAccounts(ctx, "user-1", true)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	everyone, err := s.ListActiveAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, everyone, 3)
	assert.Equal(t, tracking.AccountID("d"), everyone[0].ID)
}

func TestStore_Events_RoundTripEveryKind(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveAccount(ctx, sampleAccount("acct-1", "user-1", time.Now().UTC())))

	// GIVEN: one event of each kind, appended out of date order
	events := []tracking.Event{
		tracking.RateChange{On: amortization.NewDate(2025, time.May, 1), NewRate: decimal.RequireFromString("7.25")},
		tracking.ExtraPayment{On: amortization.NewDate(2025, time.February, 1), Amount: decimal.RequireFromString("500")},
		tracking.Withdrawal{On: amortization.NewDate(2025, time.April, 1), Amount: decimal.RequireFromString("1200.50")},
		tracking.SkippedPayment{On: amortization.NewDate(2025, time.March, 1)},
	}
	for i, e := range events {
		rec := tracking.EventRecord{
			ID:        tracking.EventID(string(rune('a' + i))),
			AccountID: "acct-1",
			Event:     e,
			Note:      "note",
			CreatedAt: time.Now().UTC(),
		}
		require.NoError(t, s.AppendEvent(ctx, rec))
	}

	// WHEN
	got, err := s.ListEvents(ctx, "acct-1")

	// THEN: ordered by effective date with each variant rebuilt
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, amortization.NewDate(2025, time.February, 1), got[0].Event.EffectiveDate())

	extra, ok := got[0].Event.(tracking.ExtraPayment)
	require.True(t, ok)
	assert.True(t, extra.Amount.Equal(decimal.RequireFromString("500")))

	_, ok = got[1].Event.(tracking.SkippedPayment)
	assert.True(t, ok)

	w, ok := got[2].Event.(tracking.Withdrawal)
	require.True(t, ok)
	assert.True(t, w.Amount.Equal(decimal.RequireFromString("1200.50")))

	rc, ok := got[3].Event.(tracking.RateChange)
	require.True(t, ok)
	assert.True(t, rc.NewRate.Equal(decimal.RequireFromString("7.25")))
	assert.Equal(t, "note", got[3].Note)
}

func TestStore_AppendEvent_UnknownAccount(t *testing.T) {
	s := newStore(t)

	err := s.AppendEvent(context.Background(), tracking.EventRecord{
		ID:        "e1",
		AccountID: "missing",
		Event:     tracking.SkippedPayment{On: amortization.NewDate(2025, time.March, 1)},
		CreatedAt: time.Now().UTC(),
	})
	assert.True(t, errors.Is(err, tracking.ErrAccountNotFound))
}

// The service behaves the same on SQLite as on the memory store.
func TestStore_BacksService(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	svc := tracking.NewService(s,
		tracking.FixedClock(amortization.NewDate(2025, time.July, 1)),
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	acct, err := svc.Create(ctx, tracking.NewAccount{
		OwnerID: "user-1",
		Terms: tracking.Terms{
			Name:           "Car",
			LoanAmount:     decimal.RequireFromString("12000"),
			MonthlyPayment: decimal.RequireFromString("1000"),
			InterestRate:   decimal.Zero,
			StartDate:      amortization.NewDate(2025, time.January, 1),
		},
	})
	require.NoError(t, err)
	assert.True(t, acct.CurrentBalance.Equal(decimal.RequireFromString("6000")))

	_, updated, err := svc.RecordEvent(ctx, acct.ID,
		tracking.ExtraPayment{On: amortization.NewDate(2025, time.March, 1), Amount: decimal.RequireFromString("500")}, "")
	require.NoError(t, err)
	assert.True(t, updated.CurrentBalance.Equal(decimal.RequireFromString("5500")))

	stored, err := s.GetAccount(ctx, acct.ID)
	require.NoError(t, err)
	assert.True(t, stored.CurrentBalance.Equal(decimal.RequireFromString("5500")))
	assert.Equal(t, updated.PayoffDate, stored.PayoffDate)
}
