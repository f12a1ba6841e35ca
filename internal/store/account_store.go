// Package store holds the in-memory account registry. It is the source of
// truth for account state; the durable archive is a best-effort mirror kept
// up to date through the archiver's worker pool.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/retailbank-ledger/internal/domain/account"
	"github.com/retailbank-ledger/internal/platform/archiver"
	"github.com/shopspring/decimal"
)

// AccountStore is a concurrency-safe registry of accounts keyed by account
// number. Readers always receive value copies so concurrent balance checks
// never observe a half-updated account.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[string]*account.Account
	archive  account.Archive
	archiver *archiver.Archiver
	logger   *slog.Logger
}

// NewAccountStore creates an account store. The archive may be nil, in which
// case the store runs purely in memory.
func NewAccountStore(logger *slog.Logger, archive account.Archive, arch *archiver.Archiver) *AccountStore {
	return &AccountStore{
		accounts: make(map[string]*account.Account),
		archive:  archive,
		archiver: arch,
		logger:   logger,
	}
}

// LoadFromArchive seeds the store with every durably stored account. Existing
// in-memory entries are never overwritten.
func (s *AccountStore) LoadFromArchive(ctx context.Context) error {
	if s.archive == nil {
		return nil
	}

	loaded, err := s.archive.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load accounts from archive: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	restored := 0
	for _, acc := range loaded {
		if _, exists := s.accounts[acc.Number]; exists {
			continue
		}
		s.accounts[acc.Number] = acc
		restored++
	}

	s.logger.Info("Restored accounts from archive", "count", restored)
	return nil
}

// Create registers a new account. Returns ErrDuplicate if the account number
// is already taken.
func (s *AccountStore) Create(acc *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[acc.Number]; exists {
		return account.ErrDuplicate{Number: acc.Number}
	}

	s.accounts[acc.Number] = acc
	s.syncLocked(acc)
	return nil
}

// Get returns a copy of the account with the given number.
func (s *AccountStore) Get(number string) (account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, exists := s.accounts[number]
	if !exists {
		return account.Account{}, account.ErrNotFound{Number: number}
	}
	return *acc, nil
}

// Exists reports whether an account with the given number is registered
func (s *AccountStore) Exists(number string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.accounts[number]
	return exists
}

// Count returns the number of registered accounts
func (s *AccountStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}

// UpdateBalance sets the account's balance and refreshes its update
// timestamp, then mirrors the new state to the archive.
func (s *AccountStore) UpdateBalance(number string, balance decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, exists := s.accounts[number]
	if !exists {
		return account.ErrNotFound{Number: number}
	}

	acc.Balance = balance
	acc.Touch()
	s.syncLocked(acc)
	return nil
}

// UpdateHolderName changes the registered holder name
func (s *AccountStore) UpdateHolderName(number, holderName string) error {
	if strings.TrimSpace(holderName) == "" {
		return account.ErrEmptyHolderName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, exists := s.accounts[number]
	if !exists {
		return account.ErrNotFound{Number: number}
	}

	acc.HolderName = holderName
	acc.Touch()
	s.syncLocked(acc)
	return nil
}

// UpdateEmail changes the account's contact email
func (s *AccountStore) UpdateEmail(number, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, exists := s.accounts[number]
	if !exists {
		return account.ErrNotFound{Number: number}
	}

	acc.Email = email
	acc.Touch()
	s.syncLocked(acc)
	return nil
}

// Delete removes the account from the store. The archived row is left in
// place for audit purposes.
func (s *AccountStore) Delete(number string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[number]; !exists {
		return account.ErrNotFound{Number: number}
	}

	delete(s.accounts, number)
	return nil
}

// List returns copies of all accounts sorted by account number
func (s *AccountStore) List() []account.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]account.Account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		accounts = append(accounts, *acc)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].Number < accounts[j].Number
	})
	return accounts
}

// Search returns accounts whose holder name contains the given term,
// case-insensitively, sorted by account number.
func (s *AccountStore) Search(holderName string) []account.Account {
	term := strings.ToLower(holderName)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []account.Account
	for _, acc := range s.accounts {
		if strings.Contains(strings.ToLower(acc.HolderName), term) {
			matches = append(matches, *acc)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Number < matches[j].Number
	})
	return matches
}

// TotalBalance returns the sum of all account balances
func (s *AccountStore) TotalBalance() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, acc := range s.accounts {
		total = total.Add(acc.Balance)
	}
	return total
}

// AverageBalance returns the mean balance across all accounts, or zero when
// the store is empty.
func (s *AccountStore) AverageBalance() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.accounts) == 0 {
		return decimal.Zero
	}

	total := decimal.Zero
	for _, acc := range s.accounts {
		total = total.Add(acc.Balance)
	}
	return total.Div(decimal.NewFromInt(int64(len(s.accounts))))
}

// BelowBalance returns accounts whose balance is strictly below the given
// threshold, sorted by account number.
func (s *AccountStore) BelowBalance(threshold decimal.Decimal) []account.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []account.Account
	for _, acc := range s.accounts {
		if acc.Balance.LessThan(threshold) {
			matches = append(matches, *acc)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Number < matches[j].Number
	})
	return matches
}

// syncLocked mirrors the account to the archive without blocking the caller.
// Must be called with the store lock held; the snapshot is taken before the
// write is handed to the pool.
func (s *AccountStore) syncLocked(acc *account.Account) {
	if s.archive == nil || s.archiver == nil {
		return
	}

	snapshot := *acc
	s.archiver.Submit("sync account "+snapshot.Number, func(ctx context.Context) error {
		return s.archive.Sync(ctx, &snapshot)
	})
}
