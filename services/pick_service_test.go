package services

import (
	"context"
	"testing"
	"time"

	"nfl-pickem/interfaces"
	"nfl-pickem/models"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func weekCmd(week int, picks ...PickSelection) WeekPicksCommand {
	return WeekPicksCommand{Season: testSeason, Week: week, Picks: picks}
}

func TestSubmitPicks(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	alice := f.addUser("alice")
	sunday := f.addGame(2, "Jets", "Bills", 48*time.Hour)
	monday := f.addGame(2, "Ravens", "Chiefs", 72*time.Hour)

	created, err := f.picks.SubmitPicks(f.ctx, alice.ID, weekCmd(2,
		PickSelection{GameID: sunday.ID, SelectedTeam: "buf"},
		PickSelection{GameID: monday.ID, SelectedTeam: "Ravens", TiebreakerTotal: models.IntPtr(44)},
	))
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, "Bills", created[0].SelectedTeam)
	assert.Nil(t, created[0].IsCorrect)
	assert.Equal(t, f.now, created[0].SubmittedAt)

	activities, err := f.activity.Recent(f.ctx, models.ActivityFilter{Type: models.ActivityPickSubmission})
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, 2, activities[0].Metadata.PickSubmission.PicksCount)

	// resubmitting the same games creates nothing
	_, err = f.picks.SubmitPicks(f.ctx, alice.ID, weekCmd(2, PickSelection{GameID: sunday.ID, SelectedTeam: "Jets"}))
	assert.True(t, errors.Is(err, models.ErrDuplicatePick))

	picks, err := f.picks.UserWeekPicks(f.ctx, alice.ID, testSeason, 2)
	require.NoError(t, err)
	assert.Len(t, picks, 2)
}

func TestSubmitPicksValidation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	alice := f.addUser("alice")
	game := f.addGame(2, "Jets", "Bills", 48*time.Hour)
	other := f.addGame(3, "Ravens", "Chiefs", 200*time.Hour)

	tests := []struct {
		name string
		cmd  WeekPicksCommand
	}{
		{"no picks", weekCmd(2)},
		{"bad week", weekCmd(19, PickSelection{GameID: game.ID, SelectedTeam: "Jets"})},
		{"team not playing", weekCmd(2, PickSelection{GameID: game.ID, SelectedTeam: "Chiefs"})},
		{"game from another week", weekCmd(2, PickSelection{GameID: other.ID, SelectedTeam: "Chiefs"})},
		{"same game twice", weekCmd(2,
			PickSelection{GameID: game.ID, SelectedTeam: "Jets"},
			PickSelection{GameID: game.ID, SelectedTeam: "Bills"},
		)},
		{"missing team", weekCmd(2, PickSelection{GameID: game.ID})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.picks.SubmitPicks(f.ctx, alice.ID, tt.cmd)
			assert.True(t, errors.Is(err, models.ErrInvalidInput), "got %v", err)
		})
	}

	picks, err := f.store.Picks().FindByUser(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, picks)
}

func TestSubmitPicksRejectsLockedGames(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	alice := f.addUser("alice")
	open := f.addGame(2, "Jets", "Bills", 48*time.Hour)
	// kicks off in 30 minutes, so the one hour lock has passed
	soon := f.addGame(2, "Ravens", "Chiefs", 30*time.Minute)

	_, err := f.picks.SubmitPicks(f.ctx, alice.ID, weekCmd(2,
		PickSelection{GameID: open.ID, SelectedTeam: "Jets"},
		PickSelection{GameID: soon.ID, SelectedTeam: "Chiefs"},
	))
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrGameLocked))
	assert.Contains(t, err.Error(), "Ravens @ Chiefs")

	picks, err := f.store.Picks().FindByUser(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, picks, "a locked game rejects the whole batch")
}

func TestUpdatePicks(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	alice := f.addUser("alice")
	open := f.addGame(2, "Jets", "Bills", 48*time.Hour)
	started := f.addGame(2, "Ravens", "Chiefs", -time.Hour)
	f.addPick(alice, open, "Jets", f.now.Add(-time.Hour))
	f.addPick(alice, started, "Chiefs", f.now.Add(-2*time.Hour))

	// the locked pick is resent unchanged, which is allowed
	updated, err := f.picks.UpdatePicks(f.ctx, alice.ID, weekCmd(2,
		PickSelection{GameID: open.ID, SelectedTeam: "Bills"},
		PickSelection{GameID: started.ID, SelectedTeam: "Chiefs"},
	))
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, "Bills", updated[0].SelectedTeam)
	assert.Equal(t, models.EditSourceUserUpdate, updated[0].EditSource)

	_, err = f.picks.UpdatePicks(f.ctx, alice.ID, weekCmd(2, PickSelection{GameID: started.ID, SelectedTeam: "Ravens"}))
	assert.True(t, errors.Is(err, models.ErrGameLocked))

	activities, err := f.activity.Recent(f.ctx, models.ActivityFilter{Type: models.ActivityPickUpdate})
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, "Jets", activities[0].Metadata.PickChange.PreviousValue)
	assert.Equal(t, "Bills", activities[0].Metadata.PickChange.NewValue)
}

func TestUpdatePicksRequiresExistingPick(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	alice := f.addUser("alice")
	game := f.addGame(2, "Jets", "Bills", 48*time.Hour)

	_, err := f.picks.UpdatePicks(f.ctx, alice.ID, weekCmd(2, PickSelection{GameID: game.ID, SelectedTeam: "Bills"}))
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestDeleteWeekPicks(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	alice := f.addUser("alice")
	bob := f.addUser("bob")
	open := f.addGame(2, "Jets", "Bills", 48*time.Hour)
	started := f.addGame(3, "Ravens", "Chiefs", -time.Hour)
	f.addPick(alice, open, "Jets", f.now)
	f.addPick(bob, started, "Chiefs", f.now.Add(-2*time.Hour))

	n, err := f.picks.DeleteWeekPicks(f.ctx, alice.ID, testSeason, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = f.picks.DeleteWeekPicks(f.ctx, alice.ID, testSeason, 2)
	assert.True(t, errors.Is(err, models.ErrNotFound))

	_, err = f.picks.DeleteWeekPicks(f.ctx, bob.ID, testSeason, 3)
	assert.True(t, errors.Is(err, models.ErrGameLocked))
}

func TestAdminPickLifecycle(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	admin := f.addUser("admin")
	alice := f.addUser("alice")
	game := f.addGame(1, "Falcons", "Patriots", -4*time.Hour)

	pick, err := f.picks.AdminCreatePick(f.ctx, admin.ID, AdminPickCommand{
		UserID:       alice.ID,
		GameID:       game.ID,
		SelectedTeam: "Falcons",
		Reason:       "missed the deadline",
	})
	require.NoError(t, err)
	assert.Equal(t, models.EditSourceAdminEdit, pick.EditSource)

	_, err = f.picks.AdminCreatePick(f.ctx, admin.ID, AdminPickCommand{UserID: alice.ID, GameID: game.ID, SelectedTeam: "Patriots"})
	assert.True(t, errors.Is(err, models.ErrDuplicatePick))

	f.finish(game, 21, 24)
	_, err = f.scoring.ProcessAllResults(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, f.user(alice.ID).TotalPoints)

	edited, err := f.picks.AdminEditPick(f.ctx, admin.ID, pick.ID, AdminPickCommand{SelectedTeam: "Patriots", Reason: "wrong button"})
	require.NoError(t, err)
	assert.Equal(t, "Patriots", edited.SelectedTeam)
	require.NotNil(t, edited.EditedBy)
	assert.Equal(t, admin.ID, *edited.EditedBy)

	// the graded game goes back through grading
	assert.True(t, f.result(game.ID).NeedsGrading())
	_, err = f.scoring.ProcessAllResults(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, f.user(alice.ID).TotalPoints)

	edits, err := f.activity.Recent(f.ctx, models.ActivityFilter{Type: models.ActivityPickEdit})
	require.NoError(t, err)
	require.Len(t, edits, 2)
	assert.Equal(t, "Admin edited pick", edits[0].Action)
	assert.True(t, edits[0].Metadata.PickChange.GameWasLocked)
	assert.Equal(t, "Admin created pick", edits[1].Action)
	require.NotNil(t, edits[0].TargetUserID)
	assert.Equal(t, alice.ID, *edits[0].TargetUserID)

	require.NoError(t, f.picks.AdminDeletePick(f.ctx, admin.ID, pick.ID))
	assert.Equal(t, 0, f.user(alice.ID).TotalPoints)

	err = f.picks.AdminDeletePick(f.ctx, admin.ID, primitive.NewObjectID())
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

// hookedPicks runs afterFindByGame once, after the grading engine loaded a game's picks
type hookedPicks struct {
	interfaces.PickRepository
	afterFindByGame func()
}

func (h *hookedPicks) FindByGame(ctx context.Context, gameID primitive.ObjectID) ([]*models.Pick, error) {
	picks, err := h.PickRepository.FindByGame(ctx, gameID)
	if hook := h.afterFindByGame; hook != nil {
		h.afterFindByGame = nil
		hook()
	}
	return picks, err
}

func TestAdminPickDuringGradingIsRegraded(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	admin := f.addUser("admin")
	alice := f.addUser("alice")
	bob := f.addUser("bob")
	game := f.addGame(1, "Jets", "Bills", -4*time.Hour)
	f.addPick(alice, game, "Bills", f.now.Add(-30*time.Hour))
	f.finish(game, 3, 10)

	var late *models.Pick
	hooked := &hookedPicks{PickRepository: f.store.Picks()}
	hooked.afterFindByGame = func() {
		var err error
		late, err = f.picks.AdminCreatePick(f.ctx, admin.ID, AdminPickCommand{
			UserID:       bob.ID,
			GameID:       game.ID,
			SelectedTeam: "Bills",
			Reason:       "emailed before kickoff",
		})
		require.NoError(t, err)
	}
	racing := NewScoringService(f.store.Results(), hooked, f.store.Users())

	summary, err := racing.ProcessAllResults(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Conflicts)
	require.NotNil(t, late)
	assert.Nil(t, f.pick(late.ID).IsCorrect)
	assert.True(t, f.result(game.ID).NeedsGrading(), "the result stays queued")

	_, err = f.scoring.ProcessAllResults(f.ctx)
	require.NoError(t, err)
	require.NotNil(t, f.pick(late.ID).IsCorrect)
	assert.True(t, *f.pick(late.ID).IsCorrect)
	assert.Equal(t, 1, f.user(bob.ID).TotalPoints)
	assert.False(t, f.result(game.ID).NeedsGrading())
}

func TestAdminCreatePickRequeuesUnprocessedFinal(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	admin := f.addUser("admin")
	alice := f.addUser("alice")
	game := f.addGame(1, "Jets", "Bills", -4*time.Hour)
	f.finish(game, 3, 10)
	before := f.result(game.ID).Version

	_, err := f.picks.AdminCreatePick(f.ctx, admin.ID, AdminPickCommand{UserID: alice.ID, GameID: game.ID, SelectedTeam: "Jets"})
	require.NoError(t, err)
	assert.Greater(t, f.result(game.ID).Version, before)
}

func TestLeagueWeekPicksHidesOpenGames(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	alice := f.addUser("alice")
	bob := f.addUser("bob")
	started := f.addGame(2, "Jets", "Bills", -2*time.Hour)
	open := f.addGame(2, "Ravens", "Chiefs", 48*time.Hour)
	f.addPick(bob, started, "Jets", f.now.Add(-30*time.Hour))
	f.addPick(alice, started, "Bills", f.now.Add(-30*time.Hour))
	f.addPick(alice, open, "Chiefs", f.now.Add(-time.Hour))

	picks, err := f.picks.LeagueWeekPicks(f.ctx, testSeason, 2)
	require.NoError(t, err)
	require.Len(t, picks, 2)
	assert.Equal(t, "alice", picks[0].UserName)
	assert.Equal(t, "Bills", picks[0].SelectedTeam)
	assert.Equal(t, "bob", picks[1].UserName)
	assert.Equal(t, "Jets @ Bills", picks[1].Game)

	_, err = f.picks.LeagueWeekPicks(f.ctx, testSeason, 19)
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
}
