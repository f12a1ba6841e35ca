// Package mongo provides the MongoDB implementation of the durable
// transaction archive.
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/retailbank-ledger/internal/domain/transaction"
	"github.com/shopspring/decimal"
)

const (
	// TransactionCollectionName is the name of the transaction collection in MongoDB
	TransactionCollectionName = "transactions"

	// historyLimit bounds how many archived transactions a single history
	// lookup may return.
	historyLimit = 100
)

// transactionDocument is the stored shape of a transaction. The amount is
// kept as a string so no precision is lost round-tripping through BSON.
type transactionDocument struct {
	ID          string    `bson:"transaction_id"`
	Source      string    `bson:"source"`
	Kind        string    `bson:"kind"`
	Amount      string    `bson:"amount"`
	Target      string    `bson:"target,omitempty"`
	Status      string    `bson:"status"`
	Description string    `bson:"description"`
	CreatedAt   time.Time `bson:"created_at"`
}

// TransactionRepository implements the transaction.Archive interface for MongoDB
type TransactionRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewTransactionRepository creates a new MongoDB transaction archive
func NewTransactionRepository(logger *slog.Logger, db *mongo.Database) transaction.Archive {
	return &TransactionRepository{
		db:     db,
		logger: logger,
	}
}

// Append stores a transaction record
func (r *TransactionRepository) Append(ctx context.Context, txn *transaction.Transaction) error {
	collection := r.db.Collection(TransactionCollectionName)

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

	_, err := collection.InsertOne(ctx, doc)
	if err != nil {
		r.logger.Error("Failed to append transaction",
			"transaction_id", txn.ID,
			"error", err)
		return fmt.Errorf("failed to append transaction: %w", err)
	}

	return nil
}

// HistoryFor retrieves archived transactions that reference the given account,
// either as source or as transfer target. Results are sorted by creation time
// in descending order (newest first).
func (r *TransactionRepository) HistoryFor(ctx context.Context, accountNumber string) ([]*transaction.Transaction, error) {
	collection := r.db.Collection(TransactionCollectionName)

	filter := bson.M{
		"$or": []bson.M{
			{"source": accountNumber},
			{"target": accountNumber},
		},
	}
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetLimit(historyLimit)

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get transaction history",
			"account_number", accountNumber,
			"error", err)
		return nil, fmt.Errorf("failed to get transaction history: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []transactionDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode transaction history",
			"account_number", accountNumber,
			"error", err)
		return nil, fmt.Errorf("failed to decode transaction history: %w", err)
	}

	txns := make([]*transaction.Transaction, 0, len(docs))
	for _, doc := range docs {
		amount, err := decimal.NewFromString(doc.Amount)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored amount %q: %w", doc.Amount, err)
		}
		txns = append(txns, &transaction.Transaction{
			ID:          doc.ID,
			Source:      doc.Source,
			Kind:        transaction.Kind(doc.Kind),
			Amount:      amount,
			Target:      doc.Target,
			Status:      transaction.Status(doc.Status),
			Description: doc.Description,
			CreatedAt:   doc.CreatedAt,
		})
	}

	return txns, nil
}
