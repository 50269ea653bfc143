package database

import (
	"context"
	"fmt"
	"time"

	"nfl-pickem/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultActivityLimit = 50

// MongoActivityRepository is the append-only audit log
type MongoActivityRepository struct {
	collection *mongo.Collection
}

func NewMongoActivityRepository(db *MongoDB) *MongoActivityRepository {
	collection := db.GetCollection(ActivitiesCollection)

	ensureIndexes(collection, []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "season", Value: 1}, {Key: "week", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "type", Value: 1}, {Key: "timestamp", Value: -1}}},
	})

	return &MongoActivityRepository{collection: collection}
}

func (r *MongoActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	if err := activity.Validate(); err != nil {
		return err
	}

	ctx, cancel := WithTimeout(ctx, ShortTimeout)
	defer cancel()

	if activity.ID.IsZero() {
		activity.ID = primitive.NewObjectID()
	}
	if activity.Timestamp.IsZero() {
		activity.Timestamp = time.Now()
	}
	if _, err := r.collection.InsertOne(ctx, activity); err != nil {
		return fmt.Errorf("failed to record %s activity: %w", activity.Type, err)
	}
	return nil
}

// List returns activities newest first
func (r *MongoActivityRepository) List(ctx context.Context, filter models.ActivityFilter) ([]*models.Activity, error) {
	query := bson.M{}
	if filter.Season != 0 {
		query["season"] = filter.Season
	}
	if filter.Week != 0 {
		query["week"] = filter.Week
	}
	if filter.Type != "" {
		query["type"] = filter.Type
	}
	if filter.UserID != nil {
		query["$or"] = bson.A{
			bson.M{"userId": *filter.UserID},
			bson.M{"targetUserId": *filter.UserID},
		}
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	return findAll[models.Activity](ctx, r.collection, query, opts)
}
