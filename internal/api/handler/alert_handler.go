package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/retailbank-ledger/internal/domain/account"
	"github.com/retailbank-ledger/internal/monitor"
	"github.com/shopspring/decimal"
)

// AlertHandler handles HTTP requests for balance alert thresholds and checks
type AlertHandler struct {
	monitor *monitor.Monitor
	logger  *slog.Logger
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(logger *slog.Logger, m *monitor.Monitor) *AlertHandler {
	return &AlertHandler{
		monitor: m,
		logger:  logger,
	}
}

// GetThreshold returns the account's effective low-balance threshold
func (h *AlertHandler) GetThreshold(c *gin.Context) {
	number := c.Param("number")
	RespondOK(c, ThresholdResponse{
		Number:    number,
		Threshold: h.monitor.GetThreshold(number),
	})
}

// SetThreshold overrides the account's low-balance threshold and triggers an
// immediate re-check.
func (h *AlertHandler) SetThreshold(c *gin.Context) {
	number := c.Param("number")

	var req ThresholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	threshold, err := decimal.NewFromString(req.Threshold)
	if err != nil {
		RespondBadRequest(c, "Invalid threshold: "+req.Threshold)
		return
	}

	if err := h.monitor.SetThreshold(number, threshold); err != nil {
		switch {
		case errors.Is(err, monitor.ErrNegativeThreshold):
			RespondBadRequest(c, err.Error())
		case errors.As(err, &account.ErrNotFound{}):
			RespondNotFound(c, "Account not found")
		default:
			h.logger.Error("Failed to set threshold", "number", number, "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondOK(c, ThresholdResponse{Number: number, Threshold: threshold})
}

// Check triggers an immediate evaluation of every account
func (h *AlertHandler) Check(c *gin.Context) {
	h.monitor.CheckAll()
	RespondOK(c, gin.H{"status": "checked"})
}

// Reset clears all alert suppression flags
func (h *AlertHandler) Reset(c *gin.Context) {
	h.monitor.ResetNotifications()
	RespondNoContent(c)
}
