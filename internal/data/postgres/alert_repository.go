package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/retailbank-ledger/internal/domain/alert"
	"github.com/retailbank-ledger/internal/platform/persistence"
)

// AlertRepository implements the alert.Archive interface for PostgreSQL
type AlertRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewAlertRepository creates a new PostgreSQL alert archive
func NewAlertRepository(logger *slog.Logger, db *persistence.PostgresDB) alert.Archive {
	return &AlertRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// Append stores an alert record
func (r *AlertRepository) Append(ctx context.Context, rec *alert.Record) error {
	query := `
		INSERT INTO balance_alerts (account_number, alert_kind, message, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.querier.Exec(ctx, query,
		rec.AccountNumber,
		string(rec.Kind),
		rec.Message,
		rec.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to append alert record", "number", rec.AccountNumber, "kind", string(rec.Kind), "error", err)
		return fmt.Errorf("failed to append alert record: %w", err)
	}

	return nil
}
