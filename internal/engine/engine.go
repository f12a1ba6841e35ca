// Package engine orchestrates all balance mutations. Every operation follows
// the same shape: validate, check funds, mutate, record. Failed withdrawals
// and transfers are still recorded in the ledger for audit purposes.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/retailbank-ledger/internal/domain/account"
	"github.com/retailbank-ledger/internal/domain/transaction"
	"github.com/retailbank-ledger/internal/ledger"
	"github.com/retailbank-ledger/internal/store"
	"github.com/shopspring/decimal"
)

// OverdraftAlerter is notified of every declined withdrawal or transfer
// attempt. Implemented by the balance monitor; notifications are never
// suppressed.
type OverdraftAlerter interface {
	CheckOverdraftAttempt(accountNumber string, attempted, current decimal.Decimal)
}

// Engine processes deposits, withdrawals, and transfers. Balance mutations
// on an account are serialized through a per-account lock; transfers lock
// both accounts in lexical order so the credit is never observable without
// the matching debit.
type Engine struct {
	store     *store.AccountStore
	ledger    *ledger.Ledger
	maxAmount decimal.Decimal
	logger    *slog.Logger

	alerterMu sync.RWMutex
	alerter   OverdraftAlerter

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

// New creates an engine with the given amount ceiling
func New(logger *slog.Logger, accounts *store.AccountStore, txLog *ledger.Ledger, maxAmount decimal.Decimal) *Engine {
	return &Engine{
		store:     accounts,
		ledger:    txLog,
		maxAmount: maxAmount,
		logger:    logger,
		locks:     make(map[string]*sync.Mutex),
	}
}

// SetOverdraftAlerter wires the monitor's overdraft hook. Set once at
// startup, after both components exist.
func (e *Engine) SetOverdraftAlerter(a OverdraftAlerter) {
	e.alerterMu.Lock()
	e.alerter = a
	e.alerterMu.Unlock()
}

// CreateAccount registers a new account and returns a copy of it
func (e *Engine) CreateAccount(number, holderName string, initialBalance decimal.Decimal, email string) (account.Account, error) {
	acc, err := account.New(number, holderName, initialBalance, email)
	if err != nil {
		return account.Account{}, err
	}
	if err := e.store.Create(acc); err != nil {
		return account.Account{}, err
	}
	e.logger.Info("Account created", "number", acc.Number, "holder", acc.HolderName)
	return *acc, nil
}

// Deposit credits the account and records a successful transaction
func (e *Engine) Deposit(number string, amount decimal.Decimal, description string) (*transaction.Transaction, error) {
	if err := e.validateAmount(amount); err != nil {
		return nil, err
	}

	lock := e.lockFor(number)
	lock.Lock()
	defer lock.Unlock()

	acc, err := e.store.Get(number)
	if err != nil {
		return nil, err
	}

	if err := e.store.UpdateBalance(number, acc.Balance.Add(amount)); err != nil {
		return nil, err
	}

	if description == "" {
		description = "Deposit of " + amount.StringFixed(2)
	}
	txn := transaction.New(number, transaction.KindDeposit, amount, "", transaction.StatusSuccess, description)
	e.ledger.Append(txn)

	e.logger.Info("Deposit completed", "transaction_id", txn.ID, "number", number, "amount", amount.String())
	return txn, nil
}

// Withdraw debits the account. A declined withdrawal still records a failed
// transaction and reports the attempt to the overdraft alerter.
func (e *Engine) Withdraw(number string, amount decimal.Decimal, description string) (*transaction.Transaction, error) {
	if err := e.validateAmount(amount); err != nil {
		return nil, err
	}

	lock := e.lockFor(number)
	lock.Lock()
	defer lock.Unlock()

	acc, err := e.store.Get(number)
	if err != nil {
		return nil, err
	}

	if acc.Balance.LessThan(amount) {
		fundsErr := InsufficientFundsError{AccountNumber: number, Current: acc.Balance, Requested: amount}
		failed := transaction.New(number, transaction.KindWithdrawal, amount, "", transaction.StatusFailed,
			fmt.Sprintf("Insufficient funds: balance %s, requested %s, shortfall %s",
				acc.Balance.StringFixed(2), amount.StringFixed(2), fundsErr.Shortfall().StringFixed(2)))
		e.ledger.Append(failed)
		e.notifyOverdraft(number, amount, acc.Balance)
		e.logger.Warn("Withdrawal declined", "transaction_id", failed.ID, "number", number,
			"amount", amount.String(), "balance", acc.Balance.String())
		return nil, fundsErr
	}

	if err := e.store.UpdateBalance(number, acc.Balance.Sub(amount)); err != nil {
		return nil, err
	}

	if description == "" {
		description = "Withdrawal of " + amount.StringFixed(2)
	}
	txn := transaction.New(number, transaction.KindWithdrawal, amount, "", transaction.StatusSuccess, description)
	e.ledger.Append(txn)

	e.logger.Info("Withdrawal completed", "transaction_id", txn.ID, "number", number, "amount", amount.String())
	return txn, nil
}

// Transfer moves funds between two accounts as one atomic operation. Both
// accounts are locked for the duration, so no observer sees the debit
// without the credit.
func (e *Engine) Transfer(from, to string, amount decimal.Decimal, description string) (*transaction.Transaction, error) {
	if err := e.validateAmount(amount); err != nil {
		return nil, err
	}
	if from == to {
		return nil, InvalidAmountError{Amount: amount, Reason: "cannot transfer to the same account"}
	}

	first, second := e.lockFor(from), e.lockFor(to)
	// Lexical lock order prevents deadlock between opposing transfers
	if to < from {
		first, second = second, first
	}
	first.Lock()
	defer first.Unlock()
	second.Lock()
	defer second.Unlock()

	source, err := e.store.Get(from)
	if err != nil {
		return nil, err
	}
	target, err := e.store.Get(to)
	if err != nil {
		return nil, err
	}

	if source.Balance.LessThan(amount) {
		fundsErr := InsufficientFundsError{AccountNumber: from, Current: source.Balance, Requested: amount}
		failed := transaction.New(from, transaction.KindTransfer, amount, "", transaction.StatusFailed,
			fmt.Sprintf("Transfer to %s declined, insufficient funds: balance %s, requested %s",
				to, source.Balance.StringFixed(2), amount.StringFixed(2)))
		e.ledger.Append(failed)
		e.notifyOverdraft(from, amount, source.Balance)
		e.logger.Warn("Transfer declined", "transaction_id", failed.ID, "from", from, "to", to,
			"amount", amount.String(), "balance", source.Balance.String())
		return nil, fundsErr
	}

	if err := e.store.UpdateBalance(from, source.Balance.Sub(amount)); err != nil {
		return nil, err
	}
	if err := e.store.UpdateBalance(to, target.Balance.Add(amount)); err != nil {
		// Restore the debit so a failed credit never leaves money destroyed
		if rbErr := e.store.UpdateBalance(from, source.Balance); rbErr != nil {
			e.logger.Error("Transfer rollback failed", "from", from, "to", to, "error", rbErr)
		}
		return nil, err
	}

	if description == "" {
		description = fmt.Sprintf("Transfer of %s from %s to %s", amount.StringFixed(2), from, to)
	}
	txn := transaction.New(from, transaction.KindTransfer, amount, to, transaction.StatusSuccess, description)
	e.ledger.Append(txn)

	e.logger.Info("Transfer completed", "transaction_id", txn.ID, "from", from, "to", to, "amount", amount.String())
	return txn, nil
}

// Account returns a copy of the account with the given number
func (e *Engine) Account(number string) (account.Account, error) {
	return e.store.Get(number)
}

// Accounts returns all accounts sorted by number
func (e *Engine) Accounts() []account.Account {
	return e.store.List()
}

// SearchAccounts returns accounts whose holder name matches the term
func (e *Engine) SearchAccounts(holderName string) []account.Account {
	return e.store.Search(holderName)
}

// UpdateHolderName changes the account's registered holder name
func (e *Engine) UpdateHolderName(number, holderName string) error {
	return e.store.UpdateHolderName(number, holderName)
}

// UpdateEmail changes the account's contact address
func (e *Engine) UpdateEmail(number, email string) error {
	return e.store.UpdateEmail(number, email)
}

// DeleteAccount removes the account from the live store. It takes the
// account's balance lock so a delete never lands in the middle of a
// transfer touching the same account.
func (e *Engine) DeleteAccount(number string) error {
	lock := e.lockFor(number)
	lock.Lock()
	defer lock.Unlock()
	return e.store.Delete(number)
}

// Balance returns the account's current balance
func (e *Engine) Balance(number string) (decimal.Decimal, error) {
	acc, err := e.store.Get(number)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return acc.Balance, nil
}

// History returns the account's transactions, newest first
func (e *Engine) History(ctx context.Context, number string) ([]*transaction.Transaction, error) {
	if !e.store.Exists(number) {
		return nil, account.ErrNotFound{Number: number}
	}
	return e.ledger.HistoryFor(ctx, number), nil
}

// Statistics returns the ledger's transaction counts
func (e *Engine) Statistics() ledger.Statistics {
	return e.ledger.Statistics()
}

// TotalVolume returns the summed amount of all successful transactions
func (e *Engine) TotalVolume() decimal.Decimal {
	return e.ledger.TotalSuccessfulVolume()
}

func (e *Engine) validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return InvalidAmountError{Amount: amount, Reason: "amount must be positive"}
	}
	if amount.GreaterThan(e.maxAmount) {
		return InvalidAmountError{Amount: amount, Reason: "amount exceeds the maximum of " + e.maxAmount.String()}
	}
	return nil
}

func (e *Engine) notifyOverdraft(number string, attempted, current decimal.Decimal) {
	e.alerterMu.RLock()
	alerter := e.alerter
	e.alerterMu.RUnlock()
	if alerter != nil {
		alerter.CheckOverdraftAttempt(number, attempted, current)
	}
}

// lockFor returns the mutex serializing balance mutations for the account.
// Locks are created lazily and never released; the account space is small.
func (e *Engine) lockFor(number string) *sync.Mutex {
	e.lockMu.Lock()
	defer e.lockMu.Unlock()
	lock, ok := e.locks[number]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[number] = lock
	}
	return lock
}
