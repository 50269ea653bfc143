package database

import (
	"context"
	"fmt"

	"nfl-pickem/logging"
	"nfl-pickem/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoPickRepository implements PickRepository for MongoDB
type MongoPickRepository struct {
	collection *mongo.Collection
	logger     *logging.Logger
}

// NewMongoPickRepository creates a new MongoDB pick repository
func NewMongoPickRepository(db *MongoDB) *MongoPickRepository {
	collection := db.GetCollection(PicksCollection)

	ensureIndexes(collection, []mongo.IndexModel{
		{
			// one pick per user per game
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "gameId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "season", Value: 1}, {Key: "week", Value: 1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "season", Value: 1}, {Key: "week", Value: 1}}},
		{Keys: bson.D{{Key: "gameId", Value: 1}}},
	})

	return &MongoPickRepository{
		collection: collection,
		logger:     logging.WithPrefix("mongo_pick_repo"),
	}
}

// submissionOrder is the order streaks are computed in
var submissionOrder = options.Find().SetSort(bson.D{
	{Key: "week", Value: 1},
	{Key: "submittedAt", Value: 1},
})

// Create inserts a new pick, mapping the unique index violation to ErrDuplicatePick
func (r *MongoPickRepository) Create(ctx context.Context, pick *models.Pick) error {
	ctx, cancel := WithTimeout(ctx, ShortTimeout)
	defer cancel()

	if pick.ID.IsZero() {
		pick.ID = primitive.NewObjectID()
	}
	if _, err := r.collection.InsertOne(ctx, pick); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("user %s game %s: %w", pick.UserID.Hex(), pick.GameID.Hex(), models.ErrDuplicatePick)
		}
		return fmt.Errorf("failed to create pick: %w", err)
	}
	return nil
}

// FindByID retrieves a pick by its ID
func (r *MongoPickRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Pick, error) {
	return findOne[models.Pick](ctx, r.collection, bson.M{"_id": id})
}

func (r *MongoPickRepository) FindByUserAndGame(ctx context.Context, userID, gameID primitive.ObjectID) (*models.Pick, error) {
	return findOne[models.Pick](ctx, r.collection, bson.M{"userId": userID, "gameId": gameID})
}

// FindByUserWeek retrieves all picks for a user in a specific season/week
func (r *MongoPickRepository) FindByUserWeek(ctx context.Context, userID primitive.ObjectID, season, week int) ([]*models.Pick, error) {
	filter := bson.M{"userId": userID, "season": season, "week": week}
	return findAll[models.Pick](ctx, r.collection, filter, submissionOrder)
}

func (r *MongoPickRepository) FindByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Pick, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "season", Value: 1},
		{Key: "week", Value: 1},
		{Key: "submittedAt", Value: 1},
	})
	return findAll[models.Pick](ctx, r.collection, bson.M{"userId": userID}, opts)
}

func (r *MongoPickRepository) FindByGame(ctx context.Context, gameID primitive.ObjectID) ([]*models.Pick, error) {
	return findAll[models.Pick](ctx, r.collection, bson.M{"gameId": gameID})
}

func (r *MongoPickRepository) FindByWeek(ctx context.Context, season, week int) ([]*models.Pick, error) {
	return findAll[models.Pick](ctx, r.collection, bson.M{"season": season, "week": week}, submissionOrder)
}

func (r *MongoPickRepository) FindBySeason(ctx context.Context, season int) ([]*models.Pick, error) {
	return findAll[models.Pick](ctx, r.collection, bson.M{"season": season}, submissionOrder)
}

// UpdateSelection writes the user-editable fields and the edit audit trail
func (r *MongoPickRepository) UpdateSelection(ctx context.Context, pick *models.Pick) error {
	ctx, cancel := WithTimeout(ctx, ShortTimeout)
	defer cancel()

	set := bson.M{
		"selectedTeam":    pick.SelectedTeam,
		"tiebreakerTotal": pick.TiebreakerTotal,
		"tiebreakerAway":  pick.TiebreakerAway,
		"tiebreakerHome":  pick.TiebreakerHome,
		"lastModified":    pick.LastModified,
		"editSource":      pick.EditSource,
	}
	if pick.EditedBy != nil {
		set["editedBy"] = pick.EditedBy
		set["editedAt"] = pick.EditedAt
		set["editReason"] = pick.EditReason
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": pick.ID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update pick %s: %w", pick.ID.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("pick %s: %w", pick.ID.Hex(), models.ErrNotFound)
	}
	return nil
}

// ApplyGrades writes grading output for many picks in one unordered bulk write
func (r *MongoPickRepository) ApplyGrades(ctx context.Context, grades []models.PickGrade) error {
	if len(grades) == 0 {
		return nil
	}

	ctx, cancel := WithTimeout(ctx, LongTimeout)
	defer cancel()

	operations := make([]mongo.WriteModel, 0, len(grades))
	for _, g := range grades {
		result := g.Result
		operations = append(operations, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": g.PickID}).
			SetUpdate(bson.M{"$set": bson.M{
				"isCorrect": g.IsCorrect,
				"points":    g.Points,
				"result":    &result,
			}}))
	}

	res, err := r.collection.BulkWrite(ctx, operations, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("failed to write %d pick grades: %w", len(grades), err)
	}
	r.logger.Debugf("Graded %d picks: %d matched, %d modified", len(grades), res.MatchedCount, res.ModifiedCount)
	return nil
}

func (r *MongoPickRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := WithTimeout(ctx, ShortTimeout)
	defer cancel()

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete pick %s: %w", id.Hex(), err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("pick %s: %w", id.Hex(), models.ErrNotFound)
	}
	return nil
}
