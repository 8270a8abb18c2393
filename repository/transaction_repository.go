package repository

import (
	"context"
	"time"

	"payments-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// TransactionRepository is the settlement ledger: one pending-transaction
// document per checkout attempt.
type TransactionRepository interface {
	Create(ctx context.Context, txn *models.PendingTransaction) error
	FindByOrderID(ctx context.Context, orderID string) (*models.PendingTransaction, error)
	FindByInternalOrderID(ctx context.Context, internalOrderID string) (*models.PendingTransaction, error)
	UpdateStatus(ctx context.Context, internalOrderID, status string) error
}

type mongoTransactionRepository struct {
	transactions *mongo.Collection
}

// NewMongoTransactionRepository creates a TransactionRepository backed by the
// transactions collection.
func NewMongoTransactionRepository(db *mongo.Database) TransactionRepository {
	return &mongoTransactionRepository{transactions: db.Collection("transactions")}
}

// Create inserts the pending transaction. The insert is the last write of a
// checkout, so a failed checkout never leaves a partial record behind.
func (r *mongoTransactionRepository) Create(ctx context.Context, txn *models.PendingTransaction) error {
	_, err := r.transactions.InsertOne(ctx, txn)
	return err
}

func (r *mongoTransactionRepository) FindByOrderID(ctx context.Context, orderID string) (*models.PendingTransaction, error) {
	var txn models.PendingTransaction
	if err := r.transactions.FindOne(ctx, bson.M{"order_id": orderID}).Decode(&txn); err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *mongoTransactionRepository) FindByInternalOrderID(ctx context.Context, internalOrderID string) (*models.PendingTransaction, error) {
	var txn models.PendingTransaction
	if err := r.transactions.FindOne(ctx, bson.M{"internal_order_id": internalOrderID}).Decode(&txn); err != nil {
		return nil, err
	}
	return &txn, nil
}

// UpdateStatus moves a ledger record to a new status, e.g. after a provider
// status poll reports a final outcome.
func (r *mongoTransactionRepository) UpdateStatus(ctx context.Context, internalOrderID, status string) error {
	update := bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}}
	result, err := r.transactions.UpdateOne(ctx, bson.M{"internal_order_id": internalOrderID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
