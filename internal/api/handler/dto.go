package handler

import (
	"time"

	"github.com/retailbank-ledger/internal/domain/account"
	"github.com/retailbank-ledger/internal/domain/transaction"
	"github.com/shopspring/decimal"
)

// Monetary amounts travel as JSON strings so no precision is lost on the
// wire; they are parsed with shopspring/decimal on the way in.

// CreateAccountRequest represents a request to create a new account
type CreateAccountRequest struct {
	Number         string `json:"number" binding:"required"`
	HolderName     string `json:"holder_name" binding:"required"`
	InitialBalance string `json:"initial_balance,omitempty"`
	Email          string `json:"email,omitempty"`
}

// UpdateAccountRequest represents a partial update of account contact details
type UpdateAccountRequest struct {
	HolderName string `json:"holder_name,omitempty"`
	Email      string `json:"email,omitempty"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	Number     string          `json:"number"`
	HolderName string          `json:"holder_name"`
	Balance    decimal.Decimal `json:"balance"`
	Email      string          `json:"email,omitempty"`
	CreatedAt  string          `json:"created_at"`
	UpdatedAt  string          `json:"updated_at"`
}

// BalanceResponse represents a balance query result
type BalanceResponse struct {
	Number  string          `json:"number"`
	Balance decimal.Decimal `json:"balance"`
}

// MoveMoneyRequest represents a deposit or withdrawal request
type MoveMoneyRequest struct {
	Number      string `json:"number" binding:"required"`
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description,omitempty"`
}

// TransferRequest represents a transfer between two accounts
type TransferRequest struct {
	From        string `json:"from" binding:"required"`
	To          string `json:"to" binding:"required"`
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description,omitempty"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	ID          string          `json:"id"`
	Source      string          `json:"source"`
	Kind        string          `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Target      string          `json:"target,omitempty"`
	Status      string          `json:"status"`
	Description string          `json:"description"`
	CreatedAt   string          `json:"created_at"`
}

// StatisticsResponse represents ledger statistics in API responses
type StatisticsResponse struct {
	Total       int             `json:"total"`
	Deposits    int             `json:"deposits"`
	Withdrawals int             `json:"withdrawals"`
	Transfers   int             `json:"transfers"`
	Successful  int             `json:"successful"`
	Failed      int             `json:"failed"`
	TotalVolume decimal.Decimal `json:"total_volume"`
}

// ThresholdRequest represents a low-balance threshold override
type ThresholdRequest struct {
	Threshold string `json:"threshold" binding:"required"`
}

// ThresholdResponse represents an account's effective low-balance threshold
type ThresholdResponse struct {
	Number    string          `json:"number"`
	Threshold decimal.Decimal `json:"threshold"`
}

// InsufficientFundsDetails carries the decline breakdown in error responses
type InsufficientFundsDetails struct {
	Current   decimal.Decimal `json:"current_balance"`
	Requested decimal.Decimal `json:"requested_amount"`
	Shortfall decimal.Decimal `json:"shortfall"`
}

func mapAccountToResponse(acc account.Account) AccountResponse {
	return AccountResponse{
		Number:     acc.Number,
		HolderName: acc.HolderName,
		Balance:    acc.Balance,
		Email:      acc.Email,
		CreatedAt:  acc.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  acc.UpdatedAt.Format(time.RFC3339),
	}
}

func mapTransactionToResponse(txn *transaction.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          txn.ID,
		Source:      txn.Source,
		Kind:        string(txn.Kind),
		Amount:      txn.Amount,
		Target:      txn.Target,
		Status:      string(txn.Status),
		Description: txn.Description,
		CreatedAt:   txn.CreatedAt.Format(time.RFC3339),
	}
}
