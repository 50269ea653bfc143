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

type MongoGameRepository struct {
	collection *mongo.Collection
	logger     *logging.Logger
}

func NewMongoGameRepository(db *MongoDB) *MongoGameRepository {
	collection := db.GetCollection(GamesCollection)

	ensureIndexes(collection, []mongo.IndexModel{
		{Keys: bson.D{{Key: "season", Value: 1}, {Key: "week", Value: 1}, {Key: "date", Value: 1}}},
		{Keys: bson.D{{Key: "season", Value: 1}, {Key: "status", Value: 1}}},
		{
			Keys:    bson.D{{Key: "providerId", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	})

	return &MongoGameRepository{
		collection: collection,
		logger:     logging.WithPrefix("mongo_game_repo"),
	}
}

// weekOrder sorts by kickoff, then alphabetically by home team
var weekOrder = options.Find().SetSort(bson.D{
	{Key: "date", Value: 1},
	{Key: "homeTeam", Value: 1},
})

func (r *MongoGameRepository) Create(ctx context.Context, game *models.Game) error {
	ctx, cancel := WithTimeout(ctx, ShortTimeout)
	defer cancel()

	now := time.Now()
	if game.ID.IsZero() {
		game.ID = primitive.NewObjectID()
	}
	game.CreatedAt, game.UpdatedAt = now, now

	if _, err := r.collection.InsertOne(ctx, game); err != nil {
		return fmt.Errorf("failed to create game %s: %w", game.DisplayName(), err)
	}
	return nil
}

func (r *MongoGameRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Game, error) {
	return findOne[models.Game](ctx, r.collection, bson.M{"_id": id})
}

func (r *MongoGameRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.Game, error) {
	if len(ids) == 0 {
		return []*models.Game{}, nil
	}
	return findAll[models.Game](ctx, r.collection, bson.M{"_id": bson.M{"$in": ids}}, weekOrder)
}

func (r *MongoGameRepository) FindByWeek(ctx context.Context, season, week int) ([]*models.Game, error) {
	games, err := findAll[models.Game](ctx, r.collection, bson.M{"season": season, "week": week}, weekOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to find games for week %d season %d: %w", week, season, err)
	}
	return games, nil
}

func (r *MongoGameRepository) FindBySeason(ctx context.Context, season int) ([]*models.Game, error) {
	opts := options.Find().SetSort(bson.D{{Key: "week", Value: 1}, {Key: "date", Value: 1}})
	games, err := findAll[models.Game](ctx, r.collection, bson.M{"season": season}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find games for season %d: %w", season, err)
	}
	return games, nil
}

func (r *MongoGameRepository) UpdateScore(ctx context.Context, id primitive.ObjectID, update models.GameScoreUpdate) error {
	return r.set(ctx, id, bson.M{
		"status":        update.Status,
		"awayScore":     update.AwayScore,
		"homeScore":     update.HomeScore,
		"quarter":       update.Quarter,
		"timeRemaining": update.TimeRemaining,
		"winner":        update.Winner,
	})
}

func (r *MongoGameRepository) UpdateRecords(ctx context.Context, id primitive.ObjectID, awayRecord, homeRecord string) error {
	return r.set(ctx, id, bson.M{"awayRecord": awayRecord, "homeRecord": homeRecord})
}

func (r *MongoGameRepository) UpdateOdds(ctx context.Context, id primitive.ObjectID, odds models.GameOdds) error {
	fields := bson.M{}
	if odds.Spread != "" {
		fields["spread"] = odds.Spread
	}
	if odds.OverUnder != "" {
		fields["overUnder"] = odds.OverUnder
	}
	if len(fields) == 0 {
		return nil
	}
	return r.set(ctx, id, fields)
}

func (r *MongoGameRepository) Update(ctx context.Context, game *models.Game) error {
	return r.set(ctx, game.ID, bson.M{
		"season":       game.Season,
		"week":         game.Week,
		"awayTeam":     game.AwayTeam,
		"homeTeam":     game.HomeTeam,
		"date":         game.Date,
		"lockTime":     game.LockTime,
		"isLocked":     game.IsLocked,
		"isTiebreaker": game.IsTiebreaker,
		"network":      game.Network,
		"venue":        game.Venue,
	})
}

func (r *MongoGameRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := WithTimeout(ctx, ShortTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete game %s: %w", id.Hex(), err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("game %s: %w", id.Hex(), models.ErrNotFound)
	}
	return nil
}

// set applies a $set so unrelated fields are never rewritten
func (r *MongoGameRepository) set(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	ctx, cancel := WithTimeout(ctx, ShortTimeout)
	defer cancel()

	fields["updatedAt"] = time.Now()
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update game %s: %w", id.Hex(), err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("game %s: %w", id.Hex(), models.ErrNotFound)
	}
	return nil
}
