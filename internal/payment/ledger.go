package payment

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/DevMandate/LinknaMali-sub000/internal/db"
	"github.com/DevMandate/LinknaMali-sub000/internal/models"
)

const ledgerCollection = "payment_ledger"

// ILedger records every STK push initiation and its terminal outcome.
// Payment sessions are ephemeral; the ledger is the durable trail.
type ILedger interface {
	Record(ctx context.Context, entry *models.PaymentLedgerEntry) error
	Resolve(ctx context.Context, checkoutRequestID string, status models.PaymentStatus) error
	FindStalePending(ctx context.Context, olderThan time.Duration, limit int) ([]models.PaymentLedgerEntry, error)
}

// ledger implements ILedger on MongoDB.
type ledger struct {
	db *mongo.Database
}

// NewLedger creates the payment ledger.
func NewLedger(database *mongo.Database) ILedger {
	return &ledger{db: database}
}

// Record inserts a new ledger entry, retrying on duplicate key collisions.
func (l *ledger) Record(ctx context.Context, entry *models.PaymentLedgerEntry) error {
	collection := l.db.Collection(ledgerCollection)

	operation := func() error {
		_, insertErr := collection.InsertOne(ctx, entry)
		return insertErr
	}

	if err := db.Try(operation); err != nil {
		return fmt.Errorf("failed to record payment ledger entry for checkout %s after multiple retries: %w",
			entry.CheckoutRequestID, err)
	}
	return nil
}

// Resolve marks the entry for a checkout request with its terminal status.
func (l *ledger) Resolve(ctx context.Context, checkoutRequestID string, status models.PaymentStatus) error {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"status":      status,
			"resolved_at": now,
		},
	}
	result, err := l.db.Collection(ledgerCollection).UpdateOne(ctx,
		bson.M{"checkout_request_id": checkoutRequestID}, update)
	if err != nil {
		return fmt.Errorf("db error resolving ledger entry for checkout %s: %w", checkoutRequestID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("ledger entry for checkout %s not found", checkoutRequestID)
	}
	return nil
}

// FindStalePending returns pending entries older than the cutoff, for the
// background reconcile task to close out as timed out.
func (l *ledger) FindStalePending(ctx context.Context, olderThan time.Duration, limit int) ([]models.PaymentLedgerEntry, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	filter := bson.M{
		"status":       models.PaymentPending,
		"initiated_at": bson.M{"$lt": cutoff},
	}
	cursor, err := l.db.Collection(ledgerCollection).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale pending ledger entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []models.PaymentLedgerEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode stale pending ledger entries: %w", err)
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
