// Package monitor watches account balances against configured thresholds and
// raises at-most-once-per-state-change notifications. Suppression is tracked
// per (account, alert kind): while a breach stays unresolved no further
// notification is sent; overdraft attempts are reported every time.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/retailbank-ledger/internal/config"
	"github.com/retailbank-ledger/internal/domain/account"
	"github.com/retailbank-ledger/internal/domain/alert"
	"github.com/retailbank-ledger/internal/notification"
	"github.com/retailbank-ledger/internal/platform/archiver"
	"github.com/retailbank-ledger/internal/store"
	"github.com/shopspring/decimal"
)

// ErrNegativeThreshold indicates a rejected threshold value
var ErrNegativeThreshold = errors.New("threshold cannot be negative")

// stopWait bounds how long Stop waits for an in-flight check to finish
const stopWait = 5 * time.Second

type activeKey struct {
	number string
	kind   alert.Kind
}

// Monitor periodically scans all accounts against their low and high balance
// thresholds. The low threshold can be overridden per account; the high
// threshold applies uniformly.
type Monitor struct {
	store    *store.AccountStore
	notifier notification.Notifier
	archive  alert.Archive
	archiver *archiver.Archiver
	logger   *slog.Logger

	defaultLow decimal.Decimal
	high       decimal.Decimal
	interval   time.Duration

	mu         sync.Mutex
	thresholds map[string]decimal.Decimal
	active     map[activeKey]struct{}

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// New creates a monitor. The alert archive may be nil, in which case alerts
// are only sent through the notifier.
func New(logger *slog.Logger, cfg config.AlertConfig, accounts *store.AccountStore, notifier notification.Notifier, archive alert.Archive, arch *archiver.Archiver) *Monitor {
	return &Monitor{
		store:      accounts,
		notifier:   notifier,
		archive:    archive,
		archiver:   arch,
		logger:     logger,
		defaultLow: decimal.NewFromFloat(cfg.LowBalanceThreshold),
		high:       decimal.NewFromFloat(cfg.HighBalanceThreshold),
		interval:   cfg.CheckInterval,
		thresholds: make(map[string]decimal.Decimal),
		active:     make(map[activeKey]struct{}),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start launches the periodic balance check
func (m *Monitor) Start() {
	m.startOnce.Do(func() {
		go m.run()
		m.logger.Info("Balance monitor started", "interval", m.interval.String())
	})
}

// Stop signals the periodic check to finish and waits, bounded, for the
// in-flight iteration to complete.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
		select {
		case <-m.done:
			m.logger.Info("Balance monitor stopped")
		case <-time.After(stopWait):
			m.logger.Warn("Balance monitor stop timed out, abandoning in-flight check")
		}
	})
}

func (m *Monitor) run() {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.CheckAll()
		case <-m.stop:
			return
		}
	}
}

// CheckAll evaluates every account against both thresholds, updating
// suppression state and notifying on fresh breaches.
func (m *Monitor) CheckAll() {
	for _, acc := range m.store.List() {
		m.checkAccount(acc)
	}
}

func (m *Monitor) checkAccount(acc account.Account) {
	low := m.GetThreshold(acc.Number)

	if acc.Balance.LessThan(low) {
		if m.activate(acc.Number, alert.KindLowBalance) {
			m.sendAlert(acc, alert.KindLowBalance,
				fmt.Sprintf("Low Balance Alert - Account %s", acc.Number),
				fmt.Sprintf("Dear %s, your account %s balance of %s has fallen below the alert threshold of %s.",
					acc.HolderName, acc.Number, acc.Balance.StringFixed(2), low.StringFixed(2)))
		}
	} else {
		m.deactivate(acc.Number, alert.KindLowBalance)
	}

	if acc.Balance.GreaterThan(m.high) {
		if m.activate(acc.Number, alert.KindHighBalance) {
			m.sendAlert(acc, alert.KindHighBalance,
				fmt.Sprintf("High Balance Alert - Account %s", acc.Number),
				fmt.Sprintf("Dear %s, your account %s balance of %s has exceeded the threshold of %s. Consider our savings products.",
					acc.HolderName, acc.Number, acc.Balance.StringFixed(2), m.high.StringFixed(2)))
		}
	} else {
		m.deactivate(acc.Number, alert.KindHighBalance)
	}
}

// CheckOverdraftAttempt reports a declined withdrawal or transfer. These
// notifications are never suppressed.
func (m *Monitor) CheckOverdraftAttempt(accountNumber string, attempted, current decimal.Decimal) {
	acc, err := m.store.Get(accountNumber)
	if err != nil {
		m.logger.Warn("Overdraft attempt on unknown account", "number", accountNumber)
		return
	}

	m.sendAlert(acc, alert.KindOverdraftAttempt,
		fmt.Sprintf("Overdraft Attempt - Account %s", acc.Number),
		fmt.Sprintf("Dear %s, an attempt to withdraw %s from account %s was declined. The current balance is %s.",
			acc.HolderName, attempted.StringFixed(2), acc.Number, current.StringFixed(2)))
}

// SetThreshold overrides the account's low-balance threshold, clears its
// suppression flags, and re-evaluates immediately so the change can emit a
// fresh alert right away.
func (m *Monitor) SetThreshold(accountNumber string, value decimal.Decimal) error {
	if value.IsNegative() {
		return ErrNegativeThreshold
	}

	acc, err := m.store.Get(accountNumber)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.thresholds[accountNumber] = value
	delete(m.active, activeKey{number: accountNumber, kind: alert.KindLowBalance})
	delete(m.active, activeKey{number: accountNumber, kind: alert.KindHighBalance})
	m.mu.Unlock()

	m.logger.Info("Threshold updated", "number", accountNumber, "threshold", value.String())
	m.checkAccount(acc)
	return nil
}

// GetThreshold returns the account's low-balance threshold, falling back to
// the configured default when no override is set.
func (m *Monitor) GetThreshold(accountNumber string) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.thresholds[accountNumber]; ok {
		return t
	}
	return m.defaultLow
}

// ResetNotifications clears all suppression flags, so currently breaching
// accounts will alert again on the next check.
func (m *Monitor) ResetNotifications() {
	m.mu.Lock()
	m.active = make(map[activeKey]struct{})
	m.mu.Unlock()
}

// activate marks the pair active; reports true only on a fresh transition
func (m *Monitor) activate(number string, kind alert.Kind) bool {
	key := activeKey{number: number, kind: kind}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, already := m.active[key]; already {
		return false
	}
	m.active[key] = struct{}{}
	return true
}

// deactivate clears the pair silently; no notification on recovery
func (m *Monitor) deactivate(number string, kind alert.Kind) {
	m.mu.Lock()
	delete(m.active, activeKey{number: number, kind: kind})
	m.mu.Unlock()
}

// sendAlert notifies the account holder and records the alert durably.
// Failures on either channel are logged, never propagated.
func (m *Monitor) sendAlert(acc account.Account, kind alert.Kind, subject, body string) {
	if err := m.notifier.Send(context.Background(), acc.Email, subject, body); err != nil {
		m.logger.Error("Failed to send alert notification",
			"number", acc.Number, "kind", string(kind), "error", err)
	}

	m.logger.Info("Balance alert raised", "number", acc.Number, "kind", string(kind))

	if m.archive != nil && m.archiver != nil {
		rec := &alert.Record{
			AccountNumber: acc.Number,
			Kind:          kind,
			Message:       body,
			CreatedAt:     time.Now(),
		}
		m.archiver.Submit("append alert "+acc.Number, func(ctx context.Context) error {
			return m.archive.Append(ctx, rec)
		})
	}
}
