package account

import "context"

// Archive is the durable collaborator behind the in-memory account store.
// All calls are best-effort: the store never rolls back an in-memory
// mutation because a Sync failed.
type Archive interface {
	// Sync writes the current state of the account through to durable
	// storage, inserting or updating as needed.
	Sync(ctx context.Context, acc *Account) error

	// LoadAll returns every durably stored account, used to warm the
	// in-memory store at startup.
	LoadAll(ctx context.Context) ([]*Account, error)
}
