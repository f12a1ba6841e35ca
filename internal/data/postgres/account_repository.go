// Package postgres provides PostgreSQL implementations of the durable
// archives consumed by the in-memory core. All writes are issued through the
// archiver and are best-effort.
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/retailbank-ledger/internal/domain/account"
	"github.com/retailbank-ledger/internal/platform/persistence"
	"github.com/shopspring/decimal"
)

// AccountRepository implements the account.Archive interface for PostgreSQL
type AccountRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewAccountRepository creates a new PostgreSQL account archive
func NewAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) account.Archive {
	return &AccountRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// Sync upserts the account's current state. The in-memory store is the
// source of truth, so the durable row is always overwritten.
func (r *AccountRepository) Sync(ctx context.Context, acc *account.Account) error {
	query := `
		INSERT INTO accounts (account_number, holder_name, balance, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (account_number)
		DO UPDATE SET holder_name = $2, balance = $3, email = $4, updated_at = $6
	`

	_, err := r.querier.Exec(ctx, query,
		acc.Number,
		acc.HolderName,
		acc.Balance.String(),
		acc.Email,
		acc.CreatedAt,
		acc.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to sync account", "number", acc.Number, "error", err)
		return fmt.Errorf("failed to sync account: %w", err)
	}

	return nil
}

// LoadAll returns every durably stored account
func (r *AccountRepository) LoadAll(ctx context.Context) ([]*account.Account, error) {
	query := `
		SELECT account_number, holder_name, balance::text, email, created_at, updated_at
		FROM accounts
	`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to load accounts", "error", err)
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*account.Account
	for rows.Next() {
		var (
			acc     account.Account
			balance string
		)
		if err := rows.Scan(&acc.Number, &acc.HolderName, &balance, &acc.Email, &acc.CreatedAt, &acc.UpdatedAt); err != nil {
			r.logger.Error("Failed to scan account row", "error", err)
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		acc.Balance, err = decimal.NewFromString(balance)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored balance %q: %w", balance, err)
		}
		accounts = append(accounts, &acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate account rows: %w", err)
	}

	return accounts, nil
}
