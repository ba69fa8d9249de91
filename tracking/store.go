/*
store.go - Persistence interface for tracked accounts

PURPOSE:
  The boundary between the account service and the database. The service
  writes derived fields (current balance, payoff date) back through here
  every time terms or events change.

SOFT DELETE:
  There is no delete method. Accounts are deactivated with SaveAccount
  and Active=false.

EVENTS ARE APPEND-ONLY:
  AppendEvent is the only write for events. Corrections are new events.

IMPLEMENTATIONS:
  - tracking/store/memory.go: In-memory for tests and demos
  - store/sqlite/sqlite.go: SQLite
*/
package tracking

import "context"

// Store persists accounts and their events.
type Store interface {
	// SaveAccount inserts or replaces an account.
	SaveAccount(ctx context.Context, a Account) error

	// GetAccount returns ErrAccountNotFound when the ID is unknown.
	GetAccount(ctx context.Context, id AccountID) (Account, error)

	// ListAccounts returns an owner's accounts ordered by creation time.
	ListAccounts(ctx context.Context, owner OwnerID, includeInactive bool) ([]Account, error)

	// ListActiveAccounts returns every active account across owners.
	ListActiveAccounts(ctx context.Context) ([]Account, error)

	// AppendEvent persists an event.
	AppendEvent(ctx context.Context, rec EventRecord) error

	// ListEvents returns an account's events ordered by effective date.
	ListEvents(ctx context.Context, id AccountID) ([]EventRecord, error)
}
