package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/retailbank-ledger/internal/domain/account"
	"github.com/retailbank-ledger/internal/engine"
	"github.com/shopspring/decimal"
)

// TransactionHandler handles HTTP requests for money movement operations
type TransactionHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, e *engine.Engine) *TransactionHandler {
	return &TransactionHandler{
		engine: e,
		logger: logger,
	}
}

// Deposit credits an account
func (h *TransactionHandler) Deposit(c *gin.Context) {
	var req MoveMoneyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		RespondBadRequest(c, "Invalid amount: "+req.Amount)
		return
	}

	txn, err := h.engine.Deposit(req.Number, amount, req.Description)
	if err != nil {
		h.respondOperationError(c, err)
		return
	}
	RespondCreated(c, mapTransactionToResponse(txn))
}

// Withdraw debits an account
func (h *TransactionHandler) Withdraw(c *gin.Context) {
	var req MoveMoneyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		RespondBadRequest(c, "Invalid amount: "+req.Amount)
		return
	}

	txn, err := h.engine.Withdraw(req.Number, amount, req.Description)
	if err != nil {
		h.respondOperationError(c, err)
		return
	}
	RespondCreated(c, mapTransactionToResponse(txn))
}

// Transfer moves funds between two accounts
func (h *TransactionHandler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		RespondBadRequest(c, "Invalid amount: "+req.Amount)
		return
	}

	txn, err := h.engine.Transfer(req.From, req.To, amount, req.Description)
	if err != nil {
		h.respondOperationError(c, err)
		return
	}
	RespondCreated(c, mapTransactionToResponse(txn))
}

// Statistics returns ledger counts and the total successful volume
func (h *TransactionHandler) Statistics(c *gin.Context) {
	stats := h.engine.Statistics()
	RespondOK(c, StatisticsResponse{
		Total:       stats.Total,
		Deposits:    stats.Deposits,
		Withdrawals: stats.Withdrawals,
		Transfers:   stats.Transfers,
		Successful:  stats.Successful,
		Failed:      stats.Failed,
		TotalVolume: h.engine.TotalVolume(),
	})
}

// respondOperationError maps engine failures onto HTTP statuses. Declined
// operations (insufficient funds) are 422 with the balance breakdown;
// validation failures are 400; unknown accounts are 404.
func (h *TransactionHandler) respondOperationError(c *gin.Context, err error) {
	var (
		invalidErr engine.InvalidAmountError
		fundsErr   engine.InsufficientFundsError
	)
	switch {
	case errors.As(err, &invalidErr):
		RespondBadRequest(c, invalidErr.Error())
	case errors.As(err, &account.ErrNotFound{}):
		RespondNotFound(c, "Account not found")
	case errors.As(err, &fundsErr):
		RespondInsufficientFunds(c, fundsErr.Error(), InsufficientFundsDetails{
			Current:   fundsErr.Current,
			Requested: fundsErr.Requested,
			Shortfall: fundsErr.Shortfall(),
		})
	default:
		h.logger.Error("Transaction operation failed", "error", err)
		RespondInternalError(c)
	}
}
