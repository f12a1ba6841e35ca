// Package handler exposes the ledger core over HTTP.
package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/retailbank-ledger/internal/domain/account"
	"github.com/retailbank-ledger/internal/engine"
	"github.com/shopspring/decimal"
)

// AccountHandler handles HTTP requests for account operations
type AccountHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(logger *slog.Logger, e *engine.Engine) *AccountHandler {
	return &AccountHandler{
		engine: e,
		logger: logger,
	}
}

// Create handles creation of a new account
func (h *AccountHandler) Create(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	initialBalance := decimal.Zero
	if req.InitialBalance != "" {
		var err error
		initialBalance, err = decimal.NewFromString(req.InitialBalance)
		if err != nil {
			RespondBadRequest(c, "Invalid initial balance: "+req.InitialBalance)
			return
		}
	}

	acc, err := h.engine.CreateAccount(req.Number, req.HolderName, initialBalance, req.Email)
	if err != nil {
		var dupErr account.ErrDuplicate
		switch {
		case errors.As(err, &dupErr):
			h.logger.Warn("Attempt to create duplicate account", "number", dupErr.Number)
			RespondConflict(c, "Account number already exists")
		case errors.Is(err, account.ErrEmptyNumber),
			errors.Is(err, account.ErrEmptyHolderName),
			errors.Is(err, account.ErrNegativeInitialBalance):
			RespondBadRequest(c, err.Error())
		default:
			h.logger.Error("Failed to create account", "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondCreated(c, mapAccountToResponse(acc))
}

// Get retrieves an account by number, returning 404 if not found
func (h *AccountHandler) Get(c *gin.Context) {
	number := c.Param("number")

	acc, err := h.engine.Account(number)
	if err != nil {
		if errors.As(err, &account.ErrNotFound{}) {
			RespondNotFound(c, "Account not found")
			return
		}
		h.logger.Error("Failed to get account", "number", number, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}

// List returns all accounts, or a holder-name search when ?holder= is given
func (h *AccountHandler) List(c *gin.Context) {
	var accounts []account.Account
	if holder := c.Query("holder"); holder != "" {
		accounts = h.engine.SearchAccounts(holder)
	} else {
		accounts = h.engine.Accounts()
	}

	responses := make([]AccountResponse, 0, len(accounts))
	for _, acc := range accounts {
		responses = append(responses, mapAccountToResponse(acc))
	}
	RespondOK(c, responses)
}

// Balance returns the account's current balance
func (h *AccountHandler) Balance(c *gin.Context) {
	number := c.Param("number")

	balance, err := h.engine.Balance(number)
	if err != nil {
		if errors.As(err, &account.ErrNotFound{}) {
			RespondNotFound(c, "Account not found")
			return
		}
		h.logger.Error("Failed to get balance", "number", number, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, BalanceResponse{Number: number, Balance: balance})
}

// Update changes the account's holder name and/or contact email
func (h *AccountHandler) Update(c *gin.Context) {
	number := c.Param("number")

	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if req.HolderName == "" && req.Email == "" {
		RespondBadRequest(c, "Nothing to update")
		return
	}

	if req.HolderName != "" {
		if err := h.engine.UpdateHolderName(number, req.HolderName); err != nil {
			h.respondUpdateError(c, number, err)
			return
		}
	}
	if req.Email != "" {
		if err := h.engine.UpdateEmail(number, req.Email); err != nil {
			h.respondUpdateError(c, number, err)
			return
		}
	}

	acc, err := h.engine.Account(number)
	if err != nil {
		h.logger.Error("Failed to reload updated account", "number", number, "error", err)
		RespondInternalError(c)
		return
	}
	RespondOK(c, mapAccountToResponse(acc))
}

// Delete removes an account from the live store
func (h *AccountHandler) Delete(c *gin.Context) {
	number := c.Param("number")

	if err := h.engine.DeleteAccount(number); err != nil {
		if errors.As(err, &account.ErrNotFound{}) {
			RespondNotFound(c, "Account not found")
			return
		}
		h.logger.Error("Failed to delete account", "number", number, "error", err)
		RespondInternalError(c)
		return
	}

	RespondNoContent(c)
}

// History returns the account's transactions, newest first
func (h *AccountHandler) History(c *gin.Context) {
	number := c.Param("number")

	history, err := h.engine.History(c.Request.Context(), number)
	if err != nil {
		if errors.As(err, &account.ErrNotFound{}) {
			RespondNotFound(c, "Account not found")
			return
		}
		h.logger.Error("Failed to get history", "number", number, "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]TransactionResponse, 0, len(history))
	for _, txn := range history {
		responses = append(responses, mapTransactionToResponse(txn))
	}
	RespondOK(c, responses)
}

func (h *AccountHandler) respondUpdateError(c *gin.Context, number string, err error) {
	switch {
	case errors.As(err, &account.ErrNotFound{}):
		RespondNotFound(c, "Account not found")
	case errors.Is(err, account.ErrEmptyHolderName):
		RespondBadRequest(c, err.Error())
	default:
		h.logger.Error("Failed to update account", "number", number, "error", err)
		RespondInternalError(c)
	}
}
