// Package store provides in-memory tracking.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/debt-engine/tracking"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	accounts map[tracking.AccountID]tracking.Account
	events   map[tracking.AccountID][]tracking.EventRecord
}

func NewMemory() *Memory {
	return &Memory{
		accounts: make(map[tracking.AccountID]tracking.Account),
		events:   make(map[tracking.AccountID][]tracking.EventRecord),
	}
}

// SaveAccount inserts or replaces an account.
func (m *Memory) SaveAccount(_ context.Context, a tracking.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.ID] = a
	return nil
}

func (m *Memory) GetAccount(_ context.Context, id tracking.AccountID) (tracking.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[id]
	if !ok {
		return tracking.Account{}, tracking.ErrAccountNotFound
	}
	return a, nil
}

func (m *Memory) ListAccounts(_ context.Context, owner tracking.OwnerID, includeInactive bool) ([]tracking.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.filter(func(a tracking.Account) bool {
		return a.OwnerID == owner && (a.Active || includeInactive)
	}), nil
}

func (m *Memory) ListActiveAccounts(_ context.Context) ([]tracking.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.filter(func(a tracking.Account) bool { return a.Active }), nil
}

// filter must be called with the lock held.
func (m *Memory) filter(keep func(tracking.Account) bool) []tracking.Account {
	var out []tracking.Account
	for _, a := range m.accounts {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// AppendEvent keeps each account's events sorted by effective date.
func (m *Memory) AppendEvent(_ context.Context, rec tracking.EventRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[rec.AccountID]; !ok {
		return tracking.ErrAccountNotFound
	}
	recs := m.events[rec.AccountID]

	at := rec.Event.EffectiveDate()
	i := sort.Search(len(recs), func(i int) bool {
		return recs[i].Event.EffectiveDate().After(at)
	})
	recs = append(recs, tracking.EventRecord{})
	copy(recs[i+1:], recs[i:])
	recs[i] = rec
	m.events[rec.AccountID] = recs
	return nil
}

func (m *Memory) ListEvents(_ context.Context, id tracking.AccountID) ([]tracking.EventRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	recs := m.events[id]
	out := make([]tracking.EventRecord, len(recs))
	copy(out, recs)
	return out, nil
}

var _ tracking.Store = (*Memory)(nil)
