package services

import (
	"testing"
	"time"

	"nfl-pickem/models"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestReconcileWeekWritesChangesOnce(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	game := f.addGame(1, "Falcons", "Patriots", -3*time.Hour)

	f.setProvider(game, models.GameStatusFinal, 21, 24)
	summary, err := f.reconcile.ReconcileWeek(f.ctx, testSeason, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Updated)

	stored := f.game(game.ID)
	assert.Equal(t, models.GameStatusFinal, stored.Status)
	assert.Equal(t, 21, *stored.AwayScore)
	assert.Equal(t, 24, *stored.HomeScore)
	assert.Equal(t, models.WinnerHome, stored.Winner)

	result := f.result(game.ID)
	assert.Equal(t, "Patriots", result.Winner)
	assert.Equal(t, "21-24", result.FinalScore)
	assert.False(t, result.Processed)
	version := result.Version

	// identical provider data must not write anything
	summary, err = f.reconcile.ReconcileWeek(f.ctx, testSeason, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Updated)
	assert.Equal(t, 1, summary.Unchanged)
	assert.Equal(t, version, f.result(game.ID).Version)
}

func TestReconcileWeekSwapsReversedOrientation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	game := f.addGame(1, "Falcons", "Patriots", -3*time.Hour)

	f.provider.set(1, models.ProviderGame{
		AwayTeam:  "Patriots",
		HomeTeam:  "Falcons",
		AwayScore: models.IntPtr(24),
		HomeScore: models.IntPtr(21),
		Status:    models.GameStatusFinal,
	})
	_, err := f.reconcile.ReconcileWeek(f.ctx, testSeason, 1)
	require.NoError(t, err)

	stored := f.game(game.ID)
	assert.Equal(t, 21, *stored.AwayScore)
	assert.Equal(t, 24, *stored.HomeScore)
	assert.Equal(t, "Patriots", f.result(game.ID).Winner)
}

func TestReconcileWeekSkipsUnmatchedAndKeepsUnreported(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	reported := f.addGame(2, "Jets", "Bills", -time.Hour)
	quiet := f.addGame(2, "Ravens", "Chiefs", 2*time.Hour)

	f.setProvider(reported, models.GameStatusLive, 7, 3)
	f.provider.set(2, append(f.provider.weeks[2], models.ProviderGame{
		AwayTeam: "Lions",
		HomeTeam: "Bears",
		Status:   models.GameStatusScheduled,
	})...)

	summary, err := f.reconcile.ReconcileWeek(f.ctx, testSeason, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 1, summary.Unmatched)

	assert.Equal(t, models.GameStatusLive, f.game(reported.ID).Status)
	untouched := f.game(quiet.ID)
	assert.Equal(t, models.GameStatusScheduled, untouched.Status)
	assert.Nil(t, untouched.AwayScore)

	games, err := f.store.Games().FindByWeek(f.ctx, testSeason, 2)
	require.NoError(t, err)
	assert.Len(t, games, 2, "reconciliation never creates games")
}

func TestReconcileWeekEmptyProviderWeek(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	game := f.addGame(3, "Jets", "Bills", 24*time.Hour)

	summary, err := f.reconcile.ReconcileWeek(f.ctx, testSeason, 3)
	require.NoError(t, err)
	assert.Equal(t, ReconcileSummary{Season: testSeason, Week: 3}, summary)
	assert.Equal(t, models.GameStatusScheduled, f.game(game.ID).Status)
}

func TestReconcileWeekPropagatesProviderFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.addGame(1, "Jets", "Bills", time.Hour)
	f.provider.err = errors.Mark(errors.New("boom"), models.ErrProviderTransient)

	_, err := f.reconcile.ReconcileWeek(f.ctx, testSeason, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrProviderTransient))
}

func TestReconcileWeekWinnerOnlyWhenFinal(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	game := f.addGame(1, "Jets", "Bills", -time.Hour)

	f.setProvider(game, models.GameStatusLive, 14, 3)
	_, err := f.reconcile.ReconcileWeek(f.ctx, testSeason, 1)
	require.NoError(t, err)

	assert.Equal(t, models.WinnerNone, f.game(game.ID).Winner)
	result := f.result(game.ID)
	assert.Empty(t, result.Winner)
	assert.False(t, result.NeedsGrading())
}

func TestOverrideScoreReversesGrading(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	admin := f.addUser("admin")
	awayFan := f.addUser("alice")
	homeFan := f.addUser("bob")

	game := f.addGame(1, "Falcons", "Patriots", -4*time.Hour)
	awayPick := f.addPick(awayFan, game, "Falcons", f.now.Add(-48*time.Hour))
	homePick := f.addPick(homeFan, game, "Patriots", f.now.Add(-48*time.Hour))

	f.finish(game, 24, 21)
	_, err := f.scoring.ProcessAllResults(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, f.user(awayFan.ID).TotalPoints)
	assert.Equal(t, 0, f.user(homeFan.ID).TotalPoints)

	result, err := f.reconcile.OverrideScore(f.ctx, ScoreOverrideCommand{
		GameID:    game.ID,
		AwayScore: 21,
		HomeScore: 24,
		Reason:    "correction",
	}, admin.ID)
	require.NoError(t, err)
	require.NotNil(t, result.ScoreOverride)
	assert.Equal(t, 24, *result.ScoreOverride.PreviousAwayScore)
	assert.Equal(t, 21, *result.ScoreOverride.PreviousHomeScore)
	assert.Equal(t, models.GameStatusFinal, result.ScoreOverride.PreviousStatus)
	assert.Equal(t, "correction", result.ScoreOverride.Reason)
	assert.False(t, result.Processed)

	_, err = f.scoring.ProcessAllResults(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, f.user(awayFan.ID).TotalPoints)
	assert.Equal(t, 1, f.user(homeFan.ID).TotalPoints)
	assert.False(t, *f.pick(awayPick.ID).IsCorrect)
	assert.True(t, *f.pick(homePick.ID).IsCorrect)
	assert.Equal(t, "Patriots", f.pick(homePick.ID).Result.Winner)

	activities, err := f.activity.Recent(f.ctx, models.ActivityFilter{Type: models.ActivityScoreOverride})
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, 21, activities[0].Metadata.ScoreOverride.NewAwayScore)

	// the provider still reports the old score; the override must survive another pass
	_, err = f.reconcile.ReconcileWeek(f.ctx, testSeason, 1)
	require.NoError(t, err)
	assert.Equal(t, "Patriots", f.result(game.ID).Winner)
}

func TestOverrideScoreShieldsAgainstProviderChanges(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	admin := f.addUser("admin")
	game := f.addGame(1, "Jets", "Bills", -4*time.Hour)

	_, err := f.reconcile.OverrideScore(f.ctx, ScoreOverrideCommand{GameID: game.ID, AwayScore: 10, HomeScore: 13}, admin.ID)
	require.NoError(t, err)

	f.finish(game, 30, 0)
	result := f.result(game.ID)
	assert.Equal(t, 10, *result.AwayScore)
	assert.Equal(t, 13, *result.HomeScore)
	assert.Equal(t, DefaultOverrideReason, result.ScoreOverride.Reason)
	assert.Nil(t, result.ScoreOverride.PreviousAwayScore)
	assert.Equal(t, models.GameStatusScheduled, result.ScoreOverride.PreviousStatus)
}

func TestOverrideScoreValidation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	admin := f.addUser("admin")
	game := f.addGame(1, "Jets", "Bills", -4*time.Hour)

	_, err := f.reconcile.OverrideScore(f.ctx, ScoreOverrideCommand{GameID: game.ID, AwayScore: -1, HomeScore: 3}, admin.ID)
	assert.True(t, errors.Is(err, models.ErrInvalidInput))

	_, err = f.reconcile.OverrideScore(f.ctx, ScoreOverrideCommand{GameID: primitive.NewObjectID(), AwayScore: 1, HomeScore: 3}, admin.ID)
	assert.True(t, errors.Is(err, models.ErrNotFound))

	stored, err := f.store.Results().FindByGameID(f.ctx, game.ID)
	require.NoError(t, err)
	assert.Nil(t, stored, "a rejected override writes nothing")
}

func TestReconcileWeekIgnoresFinalWithoutScore(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	game := f.addGame(1, "Jets", "Bills", -4*time.Hour)

	f.provider.set(1, models.ProviderGame{
		AwayTeam:  "Jets",
		HomeTeam:  "Bills",
		AwayScore: models.IntPtr(17),
		Status:    models.GameStatusFinal,
	})
	summary, err := f.reconcile.ReconcileWeek(f.ctx, testSeason, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Updated)
	assert.Equal(t, 1, summary.Unchanged)
	assert.Equal(t, models.GameStatusScheduled, f.game(game.ID).Status)

	stored, err := f.store.Results().FindByGameID(f.ctx, game.ID)
	require.NoError(t, err)
	assert.Nil(t, stored, "nothing is queued for grading")

	// the complete report is applied normally
	f.finish(game, 17, 20)
	assert.True(t, f.result(game.ID).NeedsGrading())
}

func TestOverrideScoreResettlesSettledWeek(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	admin := f.addUser("admin")
	alice := f.addUser("alice")
	bob := f.addUser("bob")

	game := f.addGame(1, "Falcons", "Patriots", -4*time.Hour)
	f.addPick(alice, game, "Patriots", f.now.Add(-48*time.Hour))
	f.addPick(bob, game, "Falcons", f.now.Add(-48*time.Hour))

	f.finish(game, 24, 21)
	_, err := f.scoring.ProcessAllResults(f.ctx)
	require.NoError(t, err)
	week, err := f.standings.CalculateWeeklyWinners(f.ctx, testSeason, 1)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{bob.ID}, week.Winners)
	assert.Equal(t, 1, f.user(bob.ID).WeeklyWins)

	_, err = f.reconcile.OverrideScore(f.ctx, ScoreOverrideCommand{GameID: game.ID, AwayScore: 21, HomeScore: 24}, admin.ID)
	require.NoError(t, err)
	summary, err := f.scoring.ProcessAllResults(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Resettled)

	assert.Equal(t, 1, f.user(alice.ID).WeeklyWins)
	assert.Equal(t, 1, f.user(alice.ID).BestWeekScore)
	assert.Equal(t, 0, f.user(bob.ID).WeeklyWins)
	assert.Equal(t, 0, f.user(bob.ID).BestWeekScore)

	stored, err := f.store.WeeklyResults().FindByWeek(f.ctx, testSeason, 1)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, []primitive.ObjectID{alice.ID}, stored.Winners)
}

func TestGradingLeavesUnsettledWeeksAlone(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	alice := f.addUser("alice")
	game := f.addGame(2, "Jets", "Bills", -4*time.Hour)
	f.addPick(alice, game, "Bills", f.now.Add(-30*time.Hour))

	f.finish(game, 3, 10)
	summary, err := f.scoring.ProcessAllResults(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Resettled)

	stored, err := f.store.WeeklyResults().FindByWeek(f.ctx, testSeason, 2)
	require.NoError(t, err)
	assert.Nil(t, stored)
	assert.Equal(t, 0, f.user(alice.ID).WeeklyWins)
}
