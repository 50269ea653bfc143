package database

import (
	"context"
	"fmt"
	"time"

	"nfl-pickem/logging"
	"nfl-pickem/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoGameResultRepository stores one result document per game
type MongoGameResultRepository struct {
	collection *mongo.Collection
	logger     *logging.Logger
}

func NewMongoGameResultRepository(db *MongoDB) *MongoGameResultRepository {
	collection := db.GetCollection(GameResultsCollection)

	ensureIndexes(collection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "gameId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "processed", Value: 1}}},
	})

	return &MongoGameResultRepository{
		collection: collection,
		logger:     logging.WithPrefix("mongo_result_repo"),
	}
}

func (r *MongoGameResultRepository) FindByGameID(ctx context.Context, gameID primitive.ObjectID) (*models.GameResult, error) {
	return findOne[models.GameResult](ctx, r.collection, bson.M{"gameId": gameID})
}

func (r *MongoGameResultRepository) FindByGameIDs(ctx context.Context, gameIDs []primitive.ObjectID) ([]*models.GameResult, error) {
	if len(gameIDs) == 0 {
		return []*models.GameResult{}, nil
	}
	return findAll[models.GameResult](ctx, r.collection, bson.M{"gameId": bson.M{"$in": gameIDs}})
}

func (r *MongoGameResultRepository) FindPendingGrading(ctx context.Context) ([]*models.GameResult, error) {
	filter := bson.M{"status": models.GameStatusFinal, "processed": false}
	opts := options.Find().SetSort(bson.D{{Key: "season", Value: 1}, {Key: "week", Value: 1}})
	return findAll[models.GameResult](ctx, r.collection, filter, opts)
}

// identity fields are only written when the result document is first created
func resultIdentity(result *models.GameResult, now time.Time) bson.M {
	return bson.M{
		"gameId":    result.GameID,
		"season":    result.Season,
		"week":      result.Week,
		"awayTeam":  result.AwayTeam,
		"homeTeam":  result.HomeTeam,
		"createdAt": now,
	}
}

func (r *MongoGameResultRepository) UpsertProviderResult(ctx context.Context, result *models.GameResult) (bool, error) {
	ctx, cancel := WithTimeout(ctx, ShortTimeout)
	defer cancel()

	now := time.Now()
	filter := bson.M{
		"gameId":        result.GameID,
		"scoreOverride": bson.M{"$exists": false},
	}
	update := bson.M{
		"$set": bson.M{
			"awayScore":     result.AwayScore,
			"homeScore":     result.HomeScore,
			"finalScore":    result.FinalScore,
			"winner":        result.Winner,
			"status":        result.Status,
			"quarter":       result.Quarter,
			"timeRemaining": result.TimeRemaining,
			"providerId":    result.ProviderID,
			"processed":     false,
			"processedAt":   nil,
			"lastUpdated":   now,
		},
		"$inc":         bson.M{"version": 1},
		"$setOnInsert": resultIdentity(result, now),
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		// The filter misses an overridden result, so the upsert collides with it on gameId
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to upsert result for game %s: %w", result.GameID.Hex(), err)
	}
	return true, nil
}

func (r *MongoGameResultRepository) ApplyOverride(ctx context.Context, result *models.GameResult) error {
	ctx, cancel := WithTimeout(ctx, ShortTimeout)
	defer cancel()

	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"awayScore":     result.AwayScore,
			"homeScore":     result.HomeScore,
			"finalScore":    result.FinalScore,
			"winner":        result.Winner,
			"status":        models.GameStatusFinal,
			"processed":     false,
			"processedAt":   nil,
			"scoreOverride": result.ScoreOverride,
			"lastUpdated":   now,
		},
		"$inc":         bson.M{"version": 1},
		"$setOnInsert": resultIdentity(result, now),
	}

	_, err := r.collection.UpdateOne(ctx, bson.M{"gameId": result.GameID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to apply override for game %s: %w", result.GameID.Hex(), err)
	}
	return nil
}

func (r *MongoGameResultRepository) MarkProcessed(ctx context.Context, id primitive.ObjectID, version int64, at time.Time) error {
	ctx, cancel := WithTimeout(ctx, ShortTimeout)
	defer cancel()

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "version": version},
		bson.M{"$set": bson.M{"processed": true, "processedAt": at}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark result %s processed: %w", id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("result %s changed since version %d: %w", id.Hex(), version, models.ErrConflict)
	}
	return nil
}

func (r *MongoGameResultRepository) MarkForRegrade(ctx context.Context, gameID primitive.ObjectID) error {
	ctx, cancel := WithTimeout(ctx, ShortTimeout)
	defer cancel()

	_, err := r.collection.UpdateOne(ctx,
		bson.M{"gameId": gameID, "status": models.GameStatusFinal},
		bson.M{
			"$set": bson.M{"processed": false, "processedAt": nil, "lastUpdated": time.Now()},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to queue regrade for game %s: %w", gameID.Hex(), err)
	}
	return nil
}
