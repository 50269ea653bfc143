package services

import (
	"context"
	"time"

	"nfl-pickem/interfaces"
	"nfl-pickem/logging"
	"nfl-pickem/models"

	"github.com/cockroachdb/errors"
)

// ScheduleLoader imports the provider's schedule as stored games. It is the only path that
// creates games; reconciliation only updates them.
type ScheduleLoader struct {
	provider   interfaces.ScoreProvider
	games      interfaces.GameRepository
	lockOffset time.Duration
	logger     *logging.Logger
}

// NewScheduleLoader creates a new schedule loader
func NewScheduleLoader(provider interfaces.ScoreProvider, games interfaces.GameRepository, lockOffset time.Duration) *ScheduleLoader {
	if lockOffset <= 0 {
		lockOffset = models.DefaultLockOffset
	}
	return &ScheduleLoader{
		provider:   provider,
		games:      games,
		lockOffset: lockOffset,
		logger:     logging.WithPrefix("Schedule"),
	}
}

// LoadWeek creates the week's games that are not stored yet, matched on the unordered team
// pair. When the week has no tiebreaker game the last kickoff is designated.
func (l *ScheduleLoader) LoadWeek(ctx context.Context, season, week int) (int, error) {
	if !models.ValidWeek(week) {
		return 0, errors.Wrapf(models.ErrInvalidInput, "week %d", week)
	}

	existing, err := l.games.FindByWeek(ctx, season, week)
	if err != nil {
		return 0, errors.Wrap(err, "failed to load stored games")
	}
	known := make(map[string]bool, len(existing))
	hasTiebreaker := false
	for _, g := range existing {
		known[g.MatchKey()] = true
		hasTiebreaker = hasTiebreaker || g.IsTiebreaker
	}

	providerGames, err := l.provider.GetWeekGames(ctx, season, week)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to fetch week %d schedule", week)
	}

	fresh := make([]*models.Game, 0, len(providerGames))
	for _, pg := range providerGames {
		if known[pg.MatchKey()] {
			continue
		}
		known[pg.MatchKey()] = true
		game := &models.Game{
			ProviderID:    pg.ProviderID,
			Week:          week,
			Season:        season,
			AwayTeam:      pg.AwayTeam,
			HomeTeam:      pg.HomeTeam,
			Date:          pg.Date,
			Network:       pg.Network,
			Venue:         pg.Venue,
			AwayRecord:    pg.AwayRecord,
			HomeRecord:    pg.HomeRecord,
			AwayScore:     pg.AwayScore,
			HomeScore:     pg.HomeScore,
			Status:        pg.Status,
			Quarter:       pg.Quarter,
			TimeRemaining: pg.TimeRemaining,
			Winner:        models.ComputeWinnerSide(pg.Status, pg.AwayScore, pg.HomeScore),
		}
		game.EnsureLockTime(l.lockOffset)
		fresh = append(fresh, game)
	}

	if !hasTiebreaker && len(existing) == 0 {
		if last := tiebreakerGame(fresh); last != nil {
			last.IsTiebreaker = true
		}
	}

	created := 0
	for _, game := range fresh {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		if err := l.games.Create(ctx, game); err != nil {
			return created, errors.Wrapf(err, "failed to create %s", game.DisplayName())
		}
		created++
	}
	if created > 0 {
		l.logger.Infof("Imported %d games for season %d week %d", created, season, week)
	}
	return created, nil
}

// LoadSeason imports every regular season week; a failed week is logged and skipped
func (l *ScheduleLoader) LoadSeason(ctx context.Context, season int) (int, error) {
	total := 0
	for week := models.MinWeek; week <= models.MaxWeek; week++ {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := l.LoadWeek(ctx, season, week)
		total += n
		if err != nil {
			l.logger.Errorf("Failed to import week %d: %v", week, err)
		}
	}
	l.logger.Infof("Imported %d games for season %d", total, season)
	return total, nil
}
