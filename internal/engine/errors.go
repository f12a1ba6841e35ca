package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// InvalidAmountError indicates a rejected amount: non-positive, over the
// configured ceiling, or a same-account transfer.
type InvalidAmountError struct {
	Amount decimal.Decimal
	Reason string
}

func (e InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid amount %s: %s", e.Amount.String(), e.Reason)
}

// InsufficientFundsError indicates a declined withdrawal or transfer. It
// carries enough detail for callers to display or alert on.
type InsufficientFundsError struct {
	AccountNumber string
	Current       decimal.Decimal
	Requested     decimal.Decimal
}

// Shortfall returns how much the requested amount exceeds the balance
func (e InsufficientFundsError) Shortfall() decimal.Decimal {
	return e.Requested.Sub(e.Current)
}

func (e InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds in account %s: balance %s, requested %s, shortfall %s",
		e.AccountNumber, e.Current.String(), e.Requested.String(), e.Shortfall().String())
}
