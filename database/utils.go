package database

import (
	"context"
	"fmt"
	"time"

	"nfl-pickem/logging"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Common timeout durations for database operations
const (
	// ShortTimeout for single document reads and writes
	ShortTimeout = 5 * time.Second

	// MediumTimeout for queries that return many documents
	MediumTimeout = 10 * time.Second

	// LongTimeout for bulk writes and index builds
	LongTimeout = 30 * time.Second
)

// WithTimeout bounds parent by timeout, keeping an earlier parent deadline
func WithTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, timeout)
}

// findAll runs a query and decodes every document
func findAll[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]*T, error) {
	ctx, cancel := WithTimeout(ctx, MediumTimeout)
	defer cancel()

	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	out := make([]*T, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", coll.Name(), err)
	}
	return out, nil
}

// findOne returns (nil, nil) when nothing matches
func findOne[T any](ctx context.Context, coll *mongo.Collection, filter interface{}) (*T, error) {
	ctx, cancel := WithTimeout(ctx, ShortTimeout)
	defer cancel()

	var doc T
	err := coll.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find in %s: %w", coll.Name(), err)
	}
	return &doc, nil
}

// ensureIndexes creates indexes, logging rather than failing; the server keeps running without them
func ensureIndexes(coll *mongo.Collection, indexes []mongo.IndexModel) {
	ctx, cancel := context.WithTimeout(context.Background(), LongTimeout)
	defer cancel()

	if _, err := coll.Indexes().CreateMany(ctx, indexes); err != nil {
		logging.WithPrefix("MongoDB").Warnf("Could not create %s indexes: %v", coll.Name(), err)
	}
}
