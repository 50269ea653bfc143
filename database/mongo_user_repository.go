package database

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"nfl-pickem/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoUserRepository implements UserRepository for MongoDB
type MongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new MongoDB user repository
func NewMongoUserRepository(db *MongoDB) *MongoUserRepository {
	collection := db.GetCollection(UsersCollection)

	ensureIndexes(collection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})

	return &MongoUserRepository{collection: collection}
}

// Create inserts a user; emails are stored lowercased
func (r *MongoUserRepository) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := WithTimeout(ctx, ShortTimeout)
	defer cancel()

	now := time.Now()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.WeeklyPoints == nil {
		user.WeeklyPoints = map[string]int{}
	}
	user.CreatedAt, user.UpdatedAt = now, now

	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("email %s already registered: %w", user.Email, models.ErrInvalidInput)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return findOne[models.User](ctx, r.collection, bson.M{"_id": id})
}

// FindByEmail retrieves a user by their email address (case-insensitive)
func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	pattern := "^" + regexp.QuoteMeta(strings.TrimSpace(email)) + "$"
	filter := bson.M{"email": bson.M{"$regex": pattern, "$options": "i"}}
	return findOne[models.User](ctx, r.collection, filter)
}

func (r *MongoUserRepository) FindAll(ctx context.Context) ([]*models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	return findAll[models.User](ctx, r.collection, bson.M{}, opts)
}

func (r *MongoUserRepository) UpdatePoints(ctx context.Context, id primitive.ObjectID, totalPoints int, weeklyPoints map[string]int) error {
	return r.set(ctx, id, bson.M{
		"totalPoints":  totalPoints,
		"weeklyPoints": weeklyPoints,
		"lastUpdated":  time.Now(),
	})
}

func (r *MongoUserRepository) UpdateWeeklyStats(ctx context.Context, id primitive.ObjectID, weeklyWins, bestWeekScore int) error {
	return r.set(ctx, id, bson.M{
		"weeklyWins":    weeklyWins,
		"bestWeekScore": bestWeekScore,
		"lastUpdated":   time.Now(),
	})
}

func (r *MongoUserRepository) UpdateLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return r.set(ctx, id, bson.M{"lastLogin": at})
}

func (r *MongoUserRepository) set(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	ctx, cancel := WithTimeout(ctx, ShortTimeout)
	defer cancel()

	fields["updatedAt"] = time.Now()
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update user %s: %w", id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user %s: %w", id.Hex(), models.ErrNotFound)
	}
	return nil
}
