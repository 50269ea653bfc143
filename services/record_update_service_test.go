package services

import (
	"testing"
	"time"

	"nfl-pickem/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordUpdateServiceRun(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	near := f.addGame(2, "Jets", "Bills", 48*time.Hour)
	far := f.addGame(9, "Ravens", "Chiefs", 60*24*time.Hour)

	f.provider.standings = map[string]string{
		"Buffalo Bills":      "1-0",
		"New York Jets":      "0-1",
		"Baltimore Ravens":   "1-0",
		"Atlantis Krakens":   "9-9",
		"Kansas City Chiefs": "0-1",
	}
	f.provider.odds[2] = map[string]models.GameOdds{"Jets@Bills": {Spread: "BUF -3.5", OverUnder: "47.5"}}
	f.provider.odds[9] = map[string]models.GameOdds{"Ravens@Chiefs": {Spread: "KC -1"}}

	svc := NewRecordUpdateService(f.provider, f.store.Games(), 0)
	summary, err := svc.Run(f.ctx, testSeason, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Teams)
	assert.Equal(t, 2, summary.RecordUpdates)
	assert.Equal(t, 1, summary.OddsUpdates, "only weeks 1 through 4 get lines")

	g := f.game(near.ID)
	assert.Equal(t, "0-1", g.AwayRecord)
	assert.Equal(t, "1-0", g.HomeRecord)
	assert.Equal(t, "BUF -3.5", g.Spread)
	assert.Equal(t, "47.5", g.OverUnder)

	assert.Empty(t, f.game(far.ID).Spread)
	assert.Equal(t, "1-0", f.game(far.ID).AwayRecord)

	// a second pass finds nothing to change
	summary, err = svc.Run(f.ctx, testSeason, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.RecordUpdates)
	assert.Equal(t, 0, summary.OddsUpdates)
}

func TestRecordUpdateServiceWithoutStandings(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	game := f.addGame(1, "Jets", "Bills", 48*time.Hour)

	summary, err := NewRecordUpdateService(f.provider, f.store.Games(), 1).Run(f.ctx, testSeason, 1)
	require.NoError(t, err)
	assert.Equal(t, RecordUpdateSummary{}, summary)
	assert.Empty(t, f.game(game.ID).HomeRecord)
}

func TestScheduleLoaderLoadWeek(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	kickoff := f.now.Add(72 * time.Hour)
	f.provider.set(3,
		models.ProviderGame{ProviderID: "1", AwayTeam: "Jets", HomeTeam: "Bills", Date: kickoff, Status: models.GameStatusScheduled},
		models.ProviderGame{ProviderID: "2", AwayTeam: "Ravens", HomeTeam: "Chiefs", Date: kickoff.Add(28 * time.Hour), Status: models.GameStatusScheduled},
	)

	loader := NewScheduleLoader(f.provider, f.store.Games(), 0)
	n, err := loader.LoadWeek(f.ctx, testSeason, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	games, err := f.store.Games().FindByWeek(f.ctx, testSeason, 3)
	require.NoError(t, err)
	require.Len(t, games, 2)
	for _, g := range games {
		assert.Equal(t, g.Date.Add(-time.Hour), g.LockTime)
		assert.Equal(t, g.AwayTeam == "Ravens", g.IsTiebreaker)
	}

	n, err = loader.LoadWeek(f.ctx, testSeason, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = loader.LoadWeek(f.ctx, testSeason, 0)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}
