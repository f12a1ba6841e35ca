package monitor

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/retailbank-ledger/internal/config"
	"github.com/retailbank-ledger/internal/domain/account"
	"github.com/retailbank-ledger/internal/domain/alert"
	"github.com/retailbank-ledger/internal/platform/archiver"
	"github.com/retailbank-ledger/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type sentAlert struct {
	address string
	subject string
	body    string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentAlert
}

func (f *fakeNotifier) Send(_ context.Context, address, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentAlert{address: address, subject: subject, body: body})
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeAlertArchive struct {
	mu      sync.Mutex
	records []*alert.Record
}

func (f *fakeAlertArchive) Append(_ context.Context, rec *alert.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return nil
}

func testConfig() config.AlertConfig {
	return config.AlertConfig{
		LowBalanceThreshold:  100,
		HighBalanceThreshold: 10000,
		CheckInterval:        time.Hour, // periodic runs never fire in tests
	}
}

func newTestMonitor(t *testing.T) (*Monitor, *store.AccountStore, *fakeNotifier) {
	t.Helper()
	logger := newTestLogger()
	accounts := store.NewAccountStore(logger, nil, nil)
	notifier := &fakeNotifier{}
	m := New(logger, testConfig(), accounts, notifier, nil, nil)
	return m, accounts, notifier
}

func createAccount(t *testing.T, s *store.AccountStore, number string, balance float64) {
	t.Helper()
	acc, err := account.New(number, "John Doe", decimal.NewFromFloat(balance), "john.doe@email.com")
	require.NoError(t, err)
	require.NoError(t, s.Create(acc))
}

func TestMonitor_LowBalanceSuppression(t *testing.T) {
	m, accounts, notifier := newTestMonitor(t)
	createAccount(t, accounts, "ACC001", 50)

	m.CheckAll()
	require.Equal(t, 1, notifier.count(), "first breach must notify")
	assert.Contains(t, notifier.sent[0].subject, "Low Balance Alert")
	assert.Contains(t, notifier.sent[0].body, "50.00")

	// Still breaching: suppressed
	m.CheckAll()
	m.CheckAll()
	assert.Equal(t, 1, notifier.count(), "repeated checks while breaching must not notify again")

	// Recovery clears the flag silently
	require.NoError(t, accounts.UpdateBalance("ACC001", decimal.NewFromInt(500)))
	m.CheckAll()
	assert.Equal(t, 1, notifier.count(), "recovery must not notify")

	// Breaching again raises exactly one new alert
	require.NoError(t, accounts.UpdateBalance("ACC001", decimal.NewFromInt(20)))
	m.CheckAll()
	assert.Equal(t, 2, notifier.count())
}

func TestMonitor_HighBalanceAlert(t *testing.T) {
	m, accounts, notifier := newTestMonitor(t)
	createAccount(t, accounts, "ACC001", 50000)

	m.CheckAll()
	require.Equal(t, 1, notifier.count())
	assert.Contains(t, notifier.sent[0].subject, "High Balance Alert")

	m.CheckAll()
	assert.Equal(t, 1, notifier.count())
}

func TestMonitor_SetThreshold(t *testing.T) {
	m, accounts, notifier := newTestMonitor(t)
	createAccount(t, accounts, "A1", 700)

	t.Run("negative rejected", func(t *testing.T) {
		err := m.SetThreshold("A1", decimal.NewFromInt(-1))
		assert.ErrorIs(t, err, ErrNegativeThreshold)
	})

	t.Run("unknown account rejected", func(t *testing.T) {
		err := m.SetThreshold("ACC999", decimal.NewFromInt(100))
		assert.ErrorAs(t, err, &account.ErrNotFound{})
	})

	t.Run("raising the threshold above balance alerts immediately", func(t *testing.T) {
		require.NoError(t, m.SetThreshold("A1", decimal.NewFromInt(800)))
		assert.True(t, m.GetThreshold("A1").Equal(decimal.NewFromInt(800)))
		require.Equal(t, 1, notifier.count())

		// Deposit clears, check is silent
		require.NoError(t, accounts.UpdateBalance("A1", decimal.NewFromInt(900)))
		m.CheckAll()
		assert.Equal(t, 1, notifier.count())

		// Dropping back below raises exactly one new alert
		require.NoError(t, accounts.UpdateBalance("A1", decimal.NewFromInt(750)))
		m.CheckAll()
		assert.Equal(t, 2, notifier.count())
		m.CheckAll()
		assert.Equal(t, 2, notifier.count())
	})
}

func TestMonitor_GetThresholdDefault(t *testing.T) {
	m, _, _ := newTestMonitor(t)
	assert.True(t, m.GetThreshold("ACC001").Equal(decimal.NewFromInt(100)))
}

func TestMonitor_CheckOverdraftAttempt(t *testing.T) {
	m, accounts, notifier := newTestMonitor(t)
	createAccount(t, accounts, "ACC001", 100)

	m.CheckOverdraftAttempt("ACC001", decimal.NewFromInt(500), decimal.NewFromInt(100))
	m.CheckOverdraftAttempt("ACC001", decimal.NewFromInt(500), decimal.NewFromInt(100))

	assert.Equal(t, 2, notifier.count(), "overdraft attempts are never suppressed")
	assert.Contains(t, notifier.sent[0].subject, "Overdraft Attempt")

	t.Run("unknown account is ignored", func(t *testing.T) {
		m.CheckOverdraftAttempt("ACC999", decimal.NewFromInt(1), decimal.Zero)
		assert.Equal(t, 2, notifier.count())
	})
}

func TestMonitor_ResetNotifications(t *testing.T) {
	m, accounts, notifier := newTestMonitor(t)
	createAccount(t, accounts, "ACC001", 50)

	m.CheckAll()
	m.CheckAll()
	require.Equal(t, 1, notifier.count())

	m.ResetNotifications()
	m.CheckAll()
	assert.Equal(t, 2, notifier.count(), "reset must allow the breach to alert again")
}

func TestMonitor_AlertsAreArchived(t *testing.T) {
	logger := newTestLogger()
	accounts := store.NewAccountStore(logger, nil, nil)
	notifier := &fakeNotifier{}
	archive := &fakeAlertArchive{}
	m := New(logger, testConfig(), accounts, notifier, archive, archiver.NewSynchronous(logger))
	createAccount(t, accounts, "ACC001", 50)

	m.CheckAll()

	require.Len(t, archive.records, 1)
	assert.Equal(t, "ACC001", archive.records[0].AccountNumber)
	assert.Equal(t, alert.KindLowBalance, archive.records[0].Kind)
}

func TestMonitor_StartStop(t *testing.T) {
	logger := newTestLogger()
	accounts := store.NewAccountStore(logger, nil, nil)
	notifier := &fakeNotifier{}
	cfg := config.AlertConfig{
		LowBalanceThreshold:  100,
		HighBalanceThreshold: 10000,
		CheckInterval:        10 * time.Millisecond,
	}
	m := New(logger, cfg, accounts, notifier, nil, nil)
	createAccount(t, accounts, "ACC001", 50)

	m.Start()
	assert.Eventually(t, func() bool { return notifier.count() == 1 }, time.Second, 5*time.Millisecond)

	m.Stop()
	m.Stop() // idempotent
}
