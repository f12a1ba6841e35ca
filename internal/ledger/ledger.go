// Package ledger holds the append-only in-memory transaction log. Every
// recorded transaction, successful or failed, lands here; the durable archive
// is written through asynchronously and consulted again only when the
// in-memory history for an account runs thin.
package ledger

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/retailbank-ledger/internal/domain/transaction"
	"github.com/retailbank-ledger/internal/platform/archiver"
	"github.com/shopspring/decimal"
)

// historyBackfillFloor is the in-memory match count below which a history
// lookup also consults the archive. A fresh process has an empty log, so
// early lookups pull older activity back in.
const historyBackfillFloor = 10

// Ledger is a concurrency-safe append-only transaction log
type Ledger struct {
	mu       sync.RWMutex
	entries  []*transaction.Transaction
	archive  transaction.Archive
	archiver *archiver.Archiver
	logger   *slog.Logger
}

// New creates a ledger. The archive may be nil, in which case the ledger
// runs purely in memory.
func New(logger *slog.Logger, archive transaction.Archive, arch *archiver.Archiver) *Ledger {
	return &Ledger{
		archive:  archive,
		archiver: arch,
		logger:   logger,
	}
}

// Append records a transaction and mirrors it to the archive
func (l *Ledger) Append(txn *transaction.Transaction) {
	l.mu.Lock()
	l.entries = append(l.entries, txn)
	l.mu.Unlock()

	if l.archive != nil && l.archiver != nil {
		snapshot := *txn
		l.archiver.Submit("append transaction "+snapshot.ID, func(ctx context.Context) error {
			return l.archive.Append(ctx, &snapshot)
		})
	}
}

// HistoryFor returns transactions referencing the account, newest first.
// When fewer than historyBackfillFloor in-memory entries match, archived
// history is merged in as well, deduplicated by transaction ID. Archive
// failures degrade to the in-memory view.
func (l *Ledger) HistoryFor(ctx context.Context, accountNumber string) []*transaction.Transaction {
	l.mu.RLock()
	var matches []*transaction.Transaction
	for _, txn := range l.entries {
		if txn.References(accountNumber) {
			matches = append(matches, txn)
		}
	}
	l.mu.RUnlock()

	if len(matches) < historyBackfillFloor && l.archive != nil {
		archived, err := l.archive.HistoryFor(ctx, accountNumber)
		if err != nil {
			l.logger.Warn("Failed to backfill history from archive",
				"account_number", accountNumber,
				"error", err)
		} else {
			seen := make(map[string]struct{}, len(matches))
			for _, txn := range matches {
				seen[txn.ID] = struct{}{}
			}
			for _, txn := range archived {
				if _, dup := seen[txn.ID]; dup {
					continue
				}
				seen[txn.ID] = struct{}{}
				matches = append(matches, txn)
			}
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches
}

// Statistics summarizes the in-memory transaction log
type Statistics struct {
	Total       int `json:"total"`
	Deposits    int `json:"deposits"`
	Withdrawals int `json:"withdrawals"`
	Transfers   int `json:"transfers"`
	Successful  int `json:"successful"`
	Failed      int `json:"failed"`
}

// Statistics returns counts by kind and status for the in-memory log
func (l *Ledger) Statistics() Statistics {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stats := Statistics{Total: len(l.entries)}
	for _, txn := range l.entries {
		switch txn.Kind {
		case transaction.KindDeposit:
			stats.Deposits++
		case transaction.KindWithdrawal:
			stats.Withdrawals++
		case transaction.KindTransfer:
			stats.Transfers++
		}
		switch txn.Status {
		case transaction.StatusSuccess:
			stats.Successful++
		case transaction.StatusFailed:
			stats.Failed++
		}
	}
	return stats
}

// TotalSuccessfulVolume returns the summed amount of all successful
// transactions in the in-memory log.
func (l *Ledger) TotalSuccessfulVolume() decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()

	total := decimal.Zero
	for _, txn := range l.entries {
		if txn.Status == transaction.StatusSuccess {
			total = total.Add(txn.Amount)
		}
	}
	return total
}

// All returns a copy of the in-memory log in append order
func (l *Ledger) All() []*transaction.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*transaction.Transaction, len(l.entries))
	copy(out, l.entries)
	return out
}

// Count returns the number of in-memory entries
func (l *Ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Clear drops the in-memory log. Archived history is untouched.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}
