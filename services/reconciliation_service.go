package services

import (
	"context"
	"time"

	"nfl-pickem/interfaces"
	"nfl-pickem/logging"
	"nfl-pickem/metrics"
	"nfl-pickem/models"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultOverrideReason is recorded when an admin does not give one
const DefaultOverrideReason = "Admin score override"

// ReconcileSummary counts what a ReconcileWeek pass did
type ReconcileSummary struct {
	Season    int `json:"season"`
	Week      int `json:"week"`
	Provider  int `json:"providerGames"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Unmatched int `json:"unmatched"`
	Shielded  int `json:"shielded"`
	Failed    int `json:"failed"`
}

// ScoreOverrideCommand is an admin correction to a game's final score
type ScoreOverrideCommand struct {
	GameID    primitive.ObjectID
	AwayScore int    `validate:"gte=0"`
	HomeScore int    `validate:"gte=0"`
	Reason    string `validate:"max=500"`
}

// ReconciliationService merges provider data into games and game results
type ReconciliationService struct {
	games      interfaces.GameRepository
	results    interfaces.GameResultRepository
	activities *ActivityLogger
	provider   interfaces.ScoreProvider
	logger     *logging.Logger
	now        func() time.Time
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(
	games interfaces.GameRepository,
	results interfaces.GameResultRepository,
	activities *ActivityLogger,
	provider interfaces.ScoreProvider,
) *ReconciliationService {
	return &ReconciliationService{
		games:      games,
		results:    results,
		activities: activities,
		provider:   provider,
		logger:     logging.WithPrefix("Reconcile"),
		now:        time.Now,
	}
}

// ReconcileWeek brings the stored games of one week in line with the provider.
// Only games whose status or scores differ are written, so a repeat pass over identical
// provider data writes nothing. Provider games with no stored counterpart are skipped.
func (s *ReconciliationService) ReconcileWeek(ctx context.Context, season, week int) (ReconcileSummary, error) {
	summary := ReconcileSummary{Season: season, Week: week}

	stored, err := s.games.FindByWeek(ctx, season, week)
	if err != nil {
		return summary, errors.Wrapf(err, "failed to load games for week %d", week)
	}
	if len(stored) == 0 {
		s.logger.Debugf("No stored games for season %d week %d", season, week)
		return summary, nil
	}

	providerGames, err := s.provider.GetWeekGames(ctx, season, week)
	if err != nil {
		return summary, errors.Wrapf(err, "failed to fetch provider week %d", week)
	}
	summary.Provider = len(providerGames)
	if len(providerGames) == 0 {
		s.logger.Infof("Provider has no games for season %d week %d yet", season, week)
		return summary, nil
	}

	byPair := make(map[string]*models.Game, len(stored))
	ids := make([]primitive.ObjectID, 0, len(stored))
	for _, g := range stored {
		byPair[g.MatchKey()] = g
		ids = append(ids, g.ID)
	}

	existing, err := s.results.FindByGameIDs(ctx, ids)
	if err != nil {
		return summary, errors.Wrapf(err, "failed to load results for week %d", week)
	}
	hasResult := make(map[primitive.ObjectID]bool, len(existing))
	for _, r := range existing {
		hasResult[r.GameID] = true
	}

	for i := range providerGames {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		pg := &providerGames[i]
		game, ok := byPair[pg.MatchKey()]
		if !ok {
			s.logger.Warnf("No stored game for %s @ %s (provider %s), skipping", pg.AwayTeam, pg.HomeTeam, pg.ProviderID)
			summary.Unmatched++
			metrics.RecordReconcile("unmatched")
			continue
		}

		outcome, err := s.reconcileGame(ctx, game, pg, hasResult[game.ID])
		if err != nil {
			s.logger.Errorf("Failed to reconcile %s: %v", game.DisplayName(), err)
			summary.Failed++
			metrics.RecordReconcile("failed")
			continue
		}
		metrics.RecordReconcile(outcome)
		switch outcome {
		case "updated":
			summary.Updated++
		case "shielded":
			summary.Updated++
			summary.Shielded++
		default:
			summary.Unchanged++
		}
	}

	if summary.Updated > 0 || summary.Unmatched > 0 || summary.Failed > 0 {
		s.logger.Infof("Week %d: %d provider games, %d updated, %d unchanged, %d unmatched, %d failed",
			week, summary.Provider, summary.Updated, summary.Unchanged, summary.Unmatched, summary.Failed)
	}
	return summary, nil
}

// reconcileGame applies one provider game to its stored game and result
func (s *ReconciliationService) reconcileGame(ctx context.Context, game *models.Game, pg *models.ProviderGame, hasResult bool) (string, error) {
	away, home := pg.OrientedScores(game.AwayTeam)
	if pg.Status == models.GameStatusFinal && (away == nil || home == nil) {
		// a final needs both scores before it is stored
		s.logger.Warnf("%s reported final without a score, ignoring", game.DisplayName())
		return "unchanged", nil
	}
	changed := game.Status != pg.Status ||
		!models.IntPtrEqual(game.AwayScore, away) ||
		!models.IntPtrEqual(game.HomeScore, home)

	// a final game imported before reconciliation ran still needs its result row
	missingResult := !hasResult && pg.Status == models.GameStatusFinal
	if !changed && !missingResult {
		return "unchanged", nil
	}

	if changed {
		update := models.GameScoreUpdate{
			Status:        pg.Status,
			AwayScore:     away,
			HomeScore:     home,
			Quarter:       pg.Quarter,
			TimeRemaining: pg.TimeRemaining,
			Winner:        models.ComputeWinnerSide(pg.Status, away, home),
		}
		if err := s.games.UpdateScore(ctx, game.ID, update); err != nil {
			return "", err
		}
		s.logger.Infof("%s: %s %s -> %s %s",
			game.DisplayName(), game.Status, scoreLabel(game.AwayScore, game.HomeScore), pg.Status, scoreLabel(away, home))
	}

	result := &models.GameResult{
		GameID:        game.ID,
		Season:        game.Season,
		Week:          game.Week,
		AwayTeam:      game.AwayTeam,
		HomeTeam:      game.HomeTeam,
		AwayScore:     away,
		HomeScore:     home,
		Status:        pg.Status,
		Quarter:       pg.Quarter,
		TimeRemaining: pg.TimeRemaining,
		ProviderID:    pg.ProviderID,
	}
	if away != nil && home != nil {
		result.FinalScore = models.FormatFinalScore(*away, *home)
		if pg.Status == models.GameStatusFinal {
			result.Winner = models.DetermineWinner(game.AwayTeam, game.HomeTeam, *away, *home)
		}
	}

	applied, err := s.results.UpsertProviderResult(ctx, result)
	if err != nil {
		return "", err
	}
	if !applied {
		s.logger.Infof("%s carries an admin override, provider result not applied", game.DisplayName())
		return "shielded", nil
	}
	return "updated", nil
}

// OverrideScore replaces a game's result with admin supplied scores and queues it for regrading.
// The previous scores and status are kept in the override block.
func (s *ReconciliationService) OverrideScore(ctx context.Context, cmd ScoreOverrideCommand, adminID primitive.ObjectID) (*models.GameResult, error) {
	if err := validateInput(ctx, cmd); err != nil {
		return nil, err
	}
	if cmd.Reason == "" {
		cmd.Reason = DefaultOverrideReason
	}

	game, err := s.games.FindByID(ctx, cmd.GameID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load game")
	}
	if game == nil {
		return nil, errors.Wrapf(models.ErrNotFound, "game %s", cmd.GameID.Hex())
	}

	previous, err := s.results.FindByGameID(ctx, game.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load game result")
	}

	now := s.now()
	override := &models.ScoreOverride{
		OverriddenBy: adminID,
		OverriddenAt: now,
		Reason:       cmd.Reason,
	}
	if previous != nil {
		override.PreviousAwayScore = previous.AwayScore
		override.PreviousHomeScore = previous.HomeScore
		override.PreviousStatus = previous.Status
	} else {
		override.PreviousAwayScore = game.AwayScore
		override.PreviousHomeScore = game.HomeScore
		override.PreviousStatus = game.Status
	}

	result := &models.GameResult{
		GameID:        game.ID,
		Season:        game.Season,
		Week:          game.Week,
		AwayTeam:      game.AwayTeam,
		HomeTeam:      game.HomeTeam,
		AwayScore:     models.IntPtr(cmd.AwayScore),
		HomeScore:     models.IntPtr(cmd.HomeScore),
		FinalScore:    models.FormatFinalScore(cmd.AwayScore, cmd.HomeScore),
		Winner:        models.DetermineWinner(game.AwayTeam, game.HomeTeam, cmd.AwayScore, cmd.HomeScore),
		Status:        models.GameStatusFinal,
		ScoreOverride: override,
	}
	if err := s.results.ApplyOverride(ctx, result); err != nil {
		return nil, errors.Wrap(err, "failed to apply score override")
	}

	s.logger.Warnf("Score override on %s: %s -> %s by %s (%s)", game.DisplayName(),
		scoreLabel(override.PreviousAwayScore, override.PreviousHomeScore), result.FinalScore, adminID.Hex(), cmd.Reason)
	s.activities.Record(ctx, models.NewScoreOverrideActivity(adminID, game, override, cmd.AwayScore, cmd.HomeScore))

	stored, err := s.results.FindByGameID(ctx, game.ID)
	if err != nil || stored == nil {
		return result, nil
	}
	return stored, nil
}

func scoreLabel(away, home *int) string {
	if away == nil || home == nil {
		return "-"
	}
	return models.FormatFinalScore(*away, *home)
}
