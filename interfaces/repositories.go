package interfaces

import (
	"context"
	"time"

	"nfl-pickem/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Lookups by id return (nil, nil) when the document does not exist.

// GameRepository stores the season schedule and live game state
type GameRepository interface {
	Create(ctx context.Context, game *models.Game) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Game, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.Game, error)
	FindByWeek(ctx context.Context, season, week int) ([]*models.Game, error)
	FindBySeason(ctx context.Context, season int) ([]*models.Game, error)
	UpdateScore(ctx context.Context, id primitive.ObjectID, update models.GameScoreUpdate) error
	UpdateRecords(ctx context.Context, id primitive.ObjectID, awayRecord, homeRecord string) error
	UpdateOdds(ctx context.Context, id primitive.ObjectID, odds models.GameOdds) error

	// Update rewrites the schedule fields an admin may edit; scores and status are left alone
	Update(ctx context.Context, game *models.Game) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// GameResultRepository stores the authoritative outcome of each game
type GameResultRepository interface {
	FindByGameID(ctx context.Context, gameID primitive.ObjectID) (*models.GameResult, error)
	FindByGameIDs(ctx context.Context, gameIDs []primitive.ObjectID) ([]*models.GameResult, error)
	FindPendingGrading(ctx context.Context) ([]*models.GameResult, error)

	// UpsertProviderResult writes provider scores and resets processed. It reports false
	// without writing when the stored result carries an admin override.
	UpsertProviderResult(ctx context.Context, result *models.GameResult) (bool, error)

	// ApplyOverride writes admin scores and the override audit block, resetting processed
	ApplyOverride(ctx context.Context, result *models.GameResult) error

	// MarkProcessed flags the result graded only if its version is unchanged; ErrConflict otherwise
	MarkProcessed(ctx context.Context, id primitive.ObjectID, version int64, at time.Time) error

	// MarkForRegrade resets processed on a final result so the grading engine visits it again
	MarkForRegrade(ctx context.Context, gameID primitive.ObjectID) error
}

// PickRepository stores user picks; (userId, gameId) is unique
type PickRepository interface {
	Create(ctx context.Context, pick *models.Pick) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Pick, error)
	FindByUserAndGame(ctx context.Context, userID, gameID primitive.ObjectID) (*models.Pick, error)
	FindByUserWeek(ctx context.Context, userID primitive.ObjectID, season, week int) ([]*models.Pick, error)
	FindByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Pick, error)
	FindByGame(ctx context.Context, gameID primitive.ObjectID) ([]*models.Pick, error)
	FindByWeek(ctx context.Context, season, week int) ([]*models.Pick, error)
	FindBySeason(ctx context.Context, season int) ([]*models.Pick, error)
	UpdateSelection(ctx context.Context, pick *models.Pick) error
	ApplyGrades(ctx context.Context, grades []models.PickGrade) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ActivityRepository is the append-only audit log
type ActivityRepository interface {
	Create(ctx context.Context, activity *models.Activity) error
	List(ctx context.Context, filter models.ActivityFilter) ([]*models.Activity, error)
}

// UserRepository stores accounts and their denormalized scoring aggregates
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindAll(ctx context.Context) ([]*models.User, error)
	UpdatePoints(ctx context.Context, id primitive.ObjectID, totalPoints int, weeklyPoints map[string]int) error
	UpdateWeeklyStats(ctx context.Context, id primitive.ObjectID, weeklyWins, bestWeekScore int) error
	UpdateLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
}

// WeeklyResultRepository stores one tally per (season, week)
type WeeklyResultRepository interface {
	Upsert(ctx context.Context, result *models.WeeklyResult) error
	FindByWeek(ctx context.Context, season, week int) (*models.WeeklyResult, error)
	FindAll(ctx context.Context) ([]*models.WeeklyResult, error)
}

// ScoreProvider fetches schedule, scores, records and lines from the external feed
type ScoreProvider interface {
	// GetWeekGames returns an empty slice when the provider has nothing for the week yet
	GetWeekGames(ctx context.Context, season, week int) ([]models.ProviderGame, error)

	// GetTeamStandings and GetGameOdds are best effort: failures yield an empty map
	GetTeamStandings(ctx context.Context, season int) map[string]string
	GetGameOdds(ctx context.Context, season, week int) map[string]models.GameOdds
}
