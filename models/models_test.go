package models

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestLeagueSeason(t *testing.T) {
	t.Parallel()

	cases := []struct {
		at   time.Time
		want int
	}{
		{time.Date(2025, time.September, 7, 0, 0, 0, 0, time.UTC), 2025},
		{time.Date(2026, time.January, 4, 0, 0, 0, 0, time.UTC), 2025},
		{time.Date(2026, time.February, 28, 23, 0, 0, 0, time.UTC), 2025},
		{time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), 2026},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, LeagueSeason(tc.at), tc.at.String())
	}
}

func TestCurrentWeek(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, time.September, 7, 17, 0, 0, 0, time.UTC)
	week1 := &Game{Week: 1, Date: base, Status: GameStatusScheduled}
	week1b := &Game{Week: 1, Date: base.Add(3 * time.Hour), Status: GameStatusScheduled}
	week2 := &Game{Week: 2, Date: base.Add(7 * 24 * time.Hour), Status: GameStatusScheduled}
	games := []*Game{week2, week1, week1b}

	assert.Equal(t, 1, CurrentWeek(nil, base))
	assert.Equal(t, 1, CurrentWeek(games, base.Add(-time.Hour)), "before first kickoff")

	week1.Status = GameStatusLive
	assert.Equal(t, 1, CurrentWeek(games, base.Add(time.Hour)))

	week1.Status = GameStatusFinal
	week1b.Status = GameStatusCancelled
	assert.Equal(t, 2, CurrentWeek(games, base.Add(5*time.Hour)), "advances once the week is terminal")

	week2.Status = GameStatusFinal
	assert.Equal(t, 2, CurrentWeek(games, base.Add(8*24*time.Hour)), "no later week to advance to")
}

func TestDetermineWinner(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Bills", DetermineWinner("Bills", "Jets", 24, 17))
	assert.Equal(t, "Jets", DetermineWinner("Bills", "Jets", 10, 17))
	assert.Equal(t, TieWinner, DetermineWinner("Bills", "Jets", 20, 20))
	assert.Equal(t, "24-17", FormatFinalScore(24, 17))
}

func TestComputeWinnerSide(t *testing.T) {
	t.Parallel()

	assert.Equal(t, WinnerAway, ComputeWinnerSide(GameStatusFinal, IntPtr(21), IntPtr(14)))
	assert.Equal(t, WinnerHome, ComputeWinnerSide(GameStatusFinal, IntPtr(3), IntPtr(14)))
	assert.Equal(t, WinnerNone, ComputeWinnerSide(GameStatusFinal, IntPtr(14), IntPtr(14)))
	assert.Equal(t, WinnerNone, ComputeWinnerSide(GameStatusLive, IntPtr(21), IntPtr(14)))
	assert.Equal(t, WinnerNone, ComputeWinnerSide(GameStatusFinal, nil, IntPtr(14)))
}

func TestGameLocking(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2025, time.September, 7, 17, 0, 0, 0, time.UTC)
	game := &Game{Date: kickoff, Status: GameStatusScheduled}
	game.EnsureLockTime(DefaultLockOffset)

	assert.Equal(t, kickoff.Add(-time.Hour), game.LockTime)
	assert.False(t, game.IsGameLocked(kickoff.Add(-2*time.Hour)))
	assert.True(t, game.IsGameLocked(kickoff.Add(-30*time.Minute)))
	assert.True(t, game.CanMakePicks(kickoff.Add(-2*time.Hour)))

	game.IsLocked = true
	assert.True(t, game.IsGameLocked(kickoff.Add(-2*time.Hour)), "explicit lock wins")
}

func TestTeamPairKeyIgnoresOrientation(t *testing.T) {
	t.Parallel()

	assert.Equal(t, TeamPairKey("Bills", "Jets"), TeamPairKey("jets ", "Bills"))
	assert.NotEqual(t, TeamPairKey("Bills", "Jets"), TeamPairKey("Bills", "Dolphins"))
}

func TestProviderGameOrientedScores(t *testing.T) {
	t.Parallel()

	pg := &ProviderGame{AwayTeam: "Jets", HomeTeam: "Bills", AwayScore: IntPtr(10), HomeScore: IntPtr(24)}

	away, home := pg.OrientedScores("Bills")
	assert.Equal(t, 24, *away)
	assert.Equal(t, 10, *home)

	away, home = pg.OrientedScores("Jets")
	assert.Equal(t, 10, *away)
	assert.Equal(t, 24, *home)
}

func TestPickPredictedTotal(t *testing.T) {
	t.Parallel()

	p := &Pick{}
	_, ok := p.PredictedTotal()
	assert.False(t, ok)

	p.TiebreakerAway, p.TiebreakerHome = IntPtr(20), IntPtr(24)
	total, ok := p.PredictedTotal()
	require.True(t, ok)
	assert.Equal(t, 44, total)

	p.TiebreakerTotal = IntPtr(41)
	total, _ = p.PredictedTotal()
	assert.Equal(t, 41, total)
}

func TestPickStatus(t *testing.T) {
	t.Parallel()

	p := &Pick{}
	assert.Equal(t, PickStatusPending, p.Status())
	assert.False(t, p.IsFinalized())

	p.IsCorrect = BoolPtr(true)
	assert.Equal(t, PickStatusCorrect, p.Status())
	assert.True(t, p.IsWin())

	p.IsCorrect = BoolPtr(false)
	assert.Equal(t, PickStatusIncorrect, p.Status())
}

func TestCanonicalTeamName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Bills", CanonicalTeamName("Buffalo Bills"))
	assert.Equal(t, "Bills", CanonicalTeamName("BUF"))
	assert.Equal(t, "Commanders", CanonicalTeamName("WAS"))
	assert.Equal(t, "49ers", CanonicalTeamName("San Francisco 49ers"))
	assert.Equal(t, "Unknown FC", CanonicalTeamName(" Unknown FC "))
}

func TestActivityValidate(t *testing.T) {
	t.Parallel()

	user := primitive.NewObjectID()
	game := &Game{ID: primitive.NewObjectID(), Season: 2025, Week: 3, AwayTeam: "Bills", HomeTeam: "Jets"}

	submission := NewPickSubmissionActivity(user, 2025, 3, []primitive.ObjectID{game.ID})
	require.NoError(t, submission.Validate())
	assert.Equal(t, 1, submission.Metadata.PickSubmission.PicksCount)

	created := NewAdminEditActivity(user, primitive.NewObjectID(), game, NoPickValue, "Bills", "missed deadline", true)
	require.NoError(t, created.Validate())
	assert.Equal(t, "Admin created pick", created.Action)
	assert.True(t, created.Metadata.PickChange.GameWasLocked)

	mismatched := &Activity{Type: ActivityScoreOverride, Metadata: ActivityMetadata{PickDelete: &PickDeleteMetadata{}}}
	assert.True(t, errors.Is(mismatched.Validate(), ErrInvalidInput))

	doubled := &Activity{Type: ActivityPickUpdate, Metadata: ActivityMetadata{
		PickChange: &PickChangeMetadata{},
		PickDelete: &PickDeleteMetadata{},
	}}
	assert.Error(t, doubled.Validate())
}

func TestWeeklyResultLookups(t *testing.T) {
	t.Parallel()

	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	wr := &WeeklyResult{
		Winners: []primitive.ObjectID{a},
		Scores:  []WeeklyUserScore{{UserID: a, CorrectPicks: 9}, {UserID: b, CorrectPicks: 7}},
	}

	assert.True(t, wr.IsWinner(a))
	assert.False(t, wr.IsWinner(b))
	got, ok := wr.CorrectFor(b)
	assert.True(t, ok)
	assert.Equal(t, 7, got)
	assert.Equal(t, "2025-W05", WeekKey(2025, 5))
}
