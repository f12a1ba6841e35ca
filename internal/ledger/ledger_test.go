package ledger

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/retailbank-ledger/internal/domain/transaction"
	"github.com/retailbank-ledger/internal/platform/archiver"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// fakeArchive records appended transactions and serves canned history
type fakeArchive struct {
	mu       sync.Mutex
	appended []*transaction.Transaction
	history  []*transaction.Transaction
	err      error
}

func (f *fakeArchive) Append(_ context.Context, txn *transaction.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended = append(f.appended, txn)
	return f.err
}

func (f *fakeArchive) HistoryFor(_ context.Context, _ string) ([]*transaction.Transaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.history, nil
}

func newTxn(source string, kind transaction.Kind, amount float64, target string, status transaction.Status, at time.Time) *transaction.Transaction {
	txn := transaction.New(source, kind, decimal.NewFromFloat(amount), target, status, "")
	txn.CreatedAt = at
	return txn
}

func TestLedger_AppendAndAll(t *testing.T) {
	l := New(newTestLogger(), nil, nil)

	now := time.Now()
	l.Append(newTxn("ACC001", transaction.KindDeposit, 100, "", transaction.StatusSuccess, now))
	l.Append(newTxn("ACC001", transaction.KindWithdrawal, 50, "", transaction.StatusSuccess, now))

	all := l.All()
	require.Len(t, all, 2)
	assert.Equal(t, transaction.KindDeposit, all[0].Kind)
	assert.Equal(t, 2, l.Count())
}

func TestLedger_WriteThrough(t *testing.T) {
	archive := &fakeArchive{}
	l := New(newTestLogger(), archive, archiver.NewSynchronous(newTestLogger()))

	l.Append(newTxn("ACC001", transaction.KindDeposit, 100, "", transaction.StatusSuccess, time.Now()))

	require.Len(t, archive.appended, 1)
	assert.Equal(t, "ACC001", archive.appended[0].Source)
}

func TestLedger_HistoryFor(t *testing.T) {
	now := time.Now()

	t.Run("newest first, transfers visible to both sides", func(t *testing.T) {
		l := New(newTestLogger(), nil, nil)
		l.Append(newTxn("ACC001", transaction.KindDeposit, 100, "", transaction.StatusSuccess, now.Add(-2*time.Hour)))
		l.Append(newTxn("ACC001", transaction.KindTransfer, 30, "ACC002", transaction.StatusSuccess, now.Add(-time.Hour)))
		l.Append(newTxn("ACC003", transaction.KindDeposit, 500, "", transaction.StatusSuccess, now))

		history := l.HistoryFor(context.Background(), "ACC002")
		require.Len(t, history, 1)
		assert.Equal(t, transaction.KindTransfer, history[0].Kind)

		history = l.HistoryFor(context.Background(), "ACC001")
		require.Len(t, history, 2)
		assert.Equal(t, transaction.KindTransfer, history[0].Kind)
		assert.Equal(t, transaction.KindDeposit, history[1].Kind)
	})

	t.Run("thin in-memory history is backfilled from archive", func(t *testing.T) {
		live := newTxn("ACC001", transaction.KindDeposit, 100, "", transaction.StatusSuccess, now)
		old := newTxn("ACC001", transaction.KindWithdrawal, 25, "", transaction.StatusSuccess, now.Add(-24*time.Hour))
		archive := &fakeArchive{history: []*transaction.Transaction{old, live}}

		l := New(newTestLogger(), archive, nil)
		l.Append(live)

		history := l.HistoryFor(context.Background(), "ACC001")
		require.Len(t, history, 2, "archived entry merged, live entry deduplicated by ID")
		assert.Equal(t, live.ID, history[0].ID)
		assert.Equal(t, old.ID, history[1].ID)
	})

	t.Run("rich in-memory history skips the archive", func(t *testing.T) {
		archive := &fakeArchive{err: errors.New("must not be called")}
		l := New(newTestLogger(), archive, nil)
		for i := 0; i < historyBackfillFloor; i++ {
			l.Append(newTxn("ACC001", transaction.KindDeposit, 10, "", transaction.StatusSuccess, now.Add(time.Duration(i)*time.Second)))
		}

		history := l.HistoryFor(context.Background(), "ACC001")
		assert.Len(t, history, historyBackfillFloor)
	})

	t.Run("archive failure degrades to in-memory view", func(t *testing.T) {
		archive := &fakeArchive{err: errors.New("db down")}
		l := New(newTestLogger(), archive, nil)
		l.Append(newTxn("ACC001", transaction.KindDeposit, 100, "", transaction.StatusSuccess, now))

		history := l.HistoryFor(context.Background(), "ACC001")
		assert.Len(t, history, 1)
	})
}

func TestLedger_Statistics(t *testing.T) {
	l := New(newTestLogger(), nil, nil)
	now := time.Now()

	l.Append(newTxn("ACC001", transaction.KindDeposit, 100, "", transaction.StatusSuccess, now))
	l.Append(newTxn("ACC001", transaction.KindWithdrawal, 50, "", transaction.StatusSuccess, now))
	l.Append(newTxn("ACC001", transaction.KindWithdrawal, 5000, "", transaction.StatusFailed, now))
	l.Append(newTxn("ACC001", transaction.KindTransfer, 30, "ACC002", transaction.StatusSuccess, now))

	stats := l.Statistics()
	assert.Equal(t, Statistics{
		Total:       4,
		Deposits:    1,
		Withdrawals: 2,
		Transfers:   1,
		Successful:  3,
		Failed:      1,
	}, stats)
}

func TestLedger_TotalSuccessfulVolume(t *testing.T) {
	l := New(newTestLogger(), nil, nil)
	now := time.Now()

	l.Append(newTxn("ACC001", transaction.KindDeposit, 100, "", transaction.StatusSuccess, now))
	l.Append(newTxn("ACC001", transaction.KindTransfer, 30.50, "ACC002", transaction.StatusSuccess, now))
	l.Append(newTxn("ACC001", transaction.KindWithdrawal, 5000, "", transaction.StatusFailed, now))

	assert.True(t, l.TotalSuccessfulVolume().Equal(decimal.NewFromFloat(130.50)))
}

func TestLedger_Clear(t *testing.T) {
	l := New(newTestLogger(), nil, nil)
	l.Append(newTxn("ACC001", transaction.KindDeposit, 100, "", transaction.StatusSuccess, time.Now()))

	l.Clear()
	assert.Equal(t, 0, l.Count())
	assert.Empty(t, l.All())
}
