package database

import (
	"context"
	"fmt"

	"nfl-pickem/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoWeeklyResultRepository stores the winner tally for each week
type MongoWeeklyResultRepository struct {
	collection *mongo.Collection
}

// NewMongoWeeklyResultRepository creates a new MongoDB weekly result repository
func NewMongoWeeklyResultRepository(db *MongoDB) *MongoWeeklyResultRepository {
	collection := db.GetCollection(WeeklyResultsCollection)

	ensureIndexes(collection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "season", Value: 1}, {Key: "week", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})

	return &MongoWeeklyResultRepository{collection: collection}
}

// Upsert replaces the stored tally for the result's season and week
func (r *MongoWeeklyResultRepository) Upsert(ctx context.Context, result *models.WeeklyResult) error {
	ctx, cancel := WithTimeout(ctx, ShortTimeout)
	defer cancel()

	filter := bson.M{"season": result.Season, "week": result.Week}
	update := bson.M{
		"$set": bson.M{
			"season":            result.Season,
			"week":              result.Week,
			"highestScore":      result.HighestScore,
			"winners":           result.Winners,
			"scores":            result.Scores,
			"isTie":             result.IsTie,
			"tiebreakerApplied": result.TiebreakerApplied,
			"calculatedAt":      result.CalculatedAt,
		},
	}

	if _, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("failed to upsert weekly result for %d week %d: %w", result.Season, result.Week, err)
	}
	return nil
}

func (r *MongoWeeklyResultRepository) FindByWeek(ctx context.Context, season, week int) (*models.WeeklyResult, error) {
	return findOne[models.WeeklyResult](ctx, r.collection, bson.M{"season": season, "week": week})
}

func (r *MongoWeeklyResultRepository) FindAll(ctx context.Context) ([]*models.WeeklyResult, error) {
	opts := options.Find().SetSort(bson.D{{Key: "season", Value: 1}, {Key: "week", Value: 1}})
	return findAll[models.WeeklyResult](ctx, r.collection, bson.M{}, opts)
}
