package account

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrEmptyNumber            = errors.New("account number cannot be empty")
	ErrEmptyHolderName        = errors.New("account holder name cannot be empty")
	ErrNegativeInitialBalance = errors.New("initial balance cannot be negative")
)

// Account represents a bank account. Balance is only ever changed through
// the engine; the store refreshes UpdatedAt on every mutation.
type Account struct {
	Number     string          `json:"number"`
	HolderName string          `json:"holder_name"`
	Balance    decimal.Decimal `json:"balance"`
	Email      string          `json:"email"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// New creates a new account with the given parameters
func New(number, holderName string, initialBalance decimal.Decimal, email string) (*Account, error) {
	if number == "" {
		return nil, ErrEmptyNumber
	}
	if holderName == "" {
		return nil, ErrEmptyHolderName
	}
	if initialBalance.IsNegative() {
		return nil, ErrNegativeInitialBalance
	}

	now := time.Now()
	return &Account{
		Number:     number,
		HolderName: holderName,
		Balance:    initialBalance,
		Email:      email,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Touch refreshes the account's update timestamp
func (a *Account) Touch() {
	a.UpdatedAt = time.Now()
}

// ErrNotFound indicates a missing account
type ErrNotFound struct {
	Number string
}

func (e ErrNotFound) Error() string {
	return "account not found: " + e.Number
}

// ErrDuplicate indicates an account number that is already in use
type ErrDuplicate struct {
	Number string
}

func (e ErrDuplicate) Error() string {
	return "account number already exists: " + e.Number
}
