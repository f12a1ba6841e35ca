package transaction

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind defines possible transaction operations
type Kind string

const (
	KindDeposit    Kind = "DEPOSIT"
	KindWithdrawal Kind = "WITHDRAWAL"
	KindTransfer   Kind = "TRANSFER"
)

// Status defines transaction outcomes. Failed transactions are kept for
// audit purposes, never discarded.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// Transaction is an immutable record of a requested money movement and its
// outcome. Target is set only for transfers. Accounts are referenced by
// number only.
type Transaction struct {
	ID          string          `json:"id"`
	Source      string          `json:"source"`
	Kind        Kind            `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Target      string          `json:"target,omitempty"`
	Status      Status          `json:"status"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

// New creates a transaction record with a fresh ID and timestamp
func New(source string, kind Kind, amount decimal.Decimal, target string, status Status, description string) *Transaction {
	return &Transaction{
		ID:          NewID(),
		Source:      source,
		Kind:        kind,
		Amount:      amount,
		Target:      target,
		Status:      status,
		Description: description,
		CreatedAt:   time.Now(),
	}
}

// NewID generates a transaction identifier that is unique across concurrent
// operations: a coarse millisecond timestamp for display ordering plus a
// random suffix to prevent collisions.
func NewID() string {
	suffix := strings.ToUpper(uuid.NewString()[:8])
	return "TXN" + strconv.FormatInt(time.Now().UnixMilli(), 10) + "_" + suffix
}

// References reports whether the transaction involves the given account as
// either source or target.
func (t *Transaction) References(number string) bool {
	return t.Source == number || (t.Target != "" && t.Target == number)
}
