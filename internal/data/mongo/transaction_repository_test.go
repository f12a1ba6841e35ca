package mongo

import (
	"log/slog"
	"testing"
	"time"

	"github.com/retailbank-ledger/internal/domain/transaction"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestNewTransactionRepository(t *testing.T) {
	db := &mongo.Database{}
	logger := slog.Default()

	repo := NewTransactionRepository(logger, db)

	assert.NotNil(t, repo)
	assert.IsType(t, &TransactionRepository{}, repo)
}

func TestTransactionDocument_Mapping(t *testing.T) {
	now := time.Now()
	txn := transaction.New("ACC001", transaction.KindTransfer, decimal.NewFromFloat(250.75), "ACC002", transaction.StatusSuccess, "Transfer to ACC002")
	txn.CreatedAt = now

	doc := transactionDocument{
		ID:          txn.ID,
		Source:      txn.Source,
		Kind:        string(txn.Kind),
		Amount:      txn.Amount.String(),
		Target:      txn.Target,
		Status:      string(txn.Status),
		Description: txn.Description,
		CreatedAt:   txn.CreatedAt,
	}

	assert.Equal(t, "ACC001", doc.Source)
	assert.Equal(t, "TRANSFER", doc.Kind)
	assert.Equal(t, "250.75", doc.Amount)
	assert.Equal(t, "ACC002", doc.Target)
	assert.Equal(t, "SUCCESS", doc.Status)

	// The string amount must parse back to the exact original value
	parsed, err := decimal.NewFromString(doc.Amount)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(txn.Amount))
}
