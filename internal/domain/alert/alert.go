package alert

import (
	"context"
	"time"
)

// Kind defines balance alert categories
type Kind string

const (
	KindLowBalance       Kind = "LOW_BALANCE"
	KindHighBalance      Kind = "HIGH_BALANCE"
	KindOverdraftAttempt Kind = "OVERDRAFT_ATTEMPT"
)

// Record is a durable trace of an alert that was raised for an account
type Record struct {
	AccountNumber string    `json:"account_number"`
	Kind          Kind      `json:"kind"`
	Message       string    `json:"message"`
	CreatedAt     time.Time `json:"created_at"`
}

// Archive stores alert records durably, best-effort
type Archive interface {
	Append(ctx context.Context, rec *Record) error
}
