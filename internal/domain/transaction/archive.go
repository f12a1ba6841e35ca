package transaction

import "context"

// Archive is the durable side of the ledger. Append is best-effort and must
// never block the in-memory append; HistoryFor serves the ledger's backfill
// when too few matches are held in memory.
type Archive interface {
	Append(ctx context.Context, txn *Transaction) error
	HistoryFor(ctx context.Context, accountNumber string) ([]*Transaction, error)
}
