package interfaces

import (
	"context"

	"nfl-pickem/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StandingsReader serves the read-only leaderboard and stats views
type StandingsReader interface {
	OverallLeaderboard(ctx context.Context, season int) ([]models.LeaderboardEntry, error)
	WeeklyLeaderboard(ctx context.Context, season, week int) ([]models.WeeklyLeaderboardEntry, error)
	UserStats(ctx context.Context, season int, userID primitive.ObjectID) (*models.UserStats, error)
	StreakLeaders(ctx context.Context, season, limit int) ([]models.StreakEntry, error)
	WeekStats(ctx context.Context, season, week int) (*models.WeekStats, error)
	WeeklyWinsLeaderboard(ctx context.Context, season, limit int) ([]models.WeeklyWinsEntry, error)
	TopPerformers(ctx context.Context, season, limit int) ([]models.LeaderboardEntry, error)
	SeasonStats(ctx context.Context, season int) (*models.SeasonStats, error)
	CompareUsers(ctx context.Context, season int, first, second primitive.ObjectID) (*models.UserComparison, error)
}

// WeeklyWinnerCalculator settles a finished week
type WeeklyWinnerCalculator interface {
	CalculateWeeklyWinners(ctx context.Context, season, week int) (*models.WeeklyResult, error)
}

// WeekSettler re-settles weeks whose stored winners may be stale after a regrade.
// Weeks that were never settled are left alone.
type WeekSettler interface {
	ResettleWeeks(ctx context.Context, weeks []models.SeasonWeek) (int, error)
}

// ActivityFeed reads the audit log, newest first
type ActivityFeed interface {
	Recent(ctx context.Context, filter models.ActivityFilter) ([]*models.Activity, error)
}

// JobRunner runs a named background job on demand
type JobRunner interface {
	RunJob(ctx context.Context, name string) error
	Jobs() []string
}

// ScheduleImporter creates games from the provider schedule
type ScheduleImporter interface {
	LoadWeek(ctx context.Context, season, week int) (int, error)
	LoadSeason(ctx context.Context, season int) (int, error)
}
