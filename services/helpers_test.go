package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"nfl-pickem/database/memory"
	"nfl-pickem/models"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSeason = 2025

// stubProvider serves canned provider data per week
type stubProvider struct {
	mu        sync.Mutex
	weeks     map[int][]models.ProviderGame
	standings map[string]string
	odds      map[int]map[string]models.GameOdds
	err       error
	calls     int
}

func newStubProvider() *stubProvider {
	return &stubProvider{
		weeks: make(map[int][]models.ProviderGame),
		odds:  make(map[int]map[string]models.GameOdds),
	}
}

func (p *stubProvider) set(week int, games ...models.ProviderGame) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.weeks[week] = games
}

func (p *stubProvider) GetWeekGames(_ context.Context, _, week int) ([]models.ProviderGame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	out := make([]models.ProviderGame, len(p.weeks[week]))
	copy(out, p.weeks[week])
	return out, nil
}

func (p *stubProvider) GetTeamStandings(_ context.Context, _ int) map[string]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]string, len(p.standings))
	for k, v := range p.standings {
		out[k] = v
	}
	return out
}

func (p *stubProvider) GetGameOdds(_ context.Context, _, week int) map[string]models.GameOdds {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]models.GameOdds, len(p.odds[week]))
	for k, v := range p.odds[week] {
		out[k] = v
	}
	return out
}

// fixture wires every service to one in-memory store at a fixed clock
type fixture struct {
	t         *testing.T
	ctx       context.Context
	now       time.Time
	store     *memory.Store
	provider  *stubProvider
	activity  *ActivityLogger
	reconcile *ReconciliationService
	scoring   *ScoringService
	standings *StandingsService
	picks     *PickService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	now := time.Date(2025, time.September, 14, 12, 0, 0, 0, time.UTC)
	store := memory.NewStore()
	provider := newStubProvider()
	clock := func() time.Time { return now }

	activity := NewActivityLogger(store.Activities())
	reconcile := NewReconciliationService(store.Games(), store.Results(), activity, provider)
	reconcile.now = clock
	scoring := NewScoringService(store.Results(), store.Picks(), store.Users())
	scoring.now = clock
	standings := NewStandingsService(store.Games(), store.Results(), store.Picks(), store.Users(), store.WeeklyResults(), TiebreakerNone)
	standings.now = clock
	scoring.WithWeekSettler(standings)
	picks := NewPickService(store.Games(), store.Results(), store.Picks(), store.Users(), activity, scoring)
	picks.now = clock

	return &fixture{
		t:         t,
		ctx:       context.Background(),
		now:       now,
		store:     store,
		provider:  provider,
		activity:  activity,
		reconcile: reconcile,
		scoring:   scoring,
		standings: standings,
		picks:     picks,
	}
}

func (f *fixture) addUser(name string) *models.User {
	f.t.Helper()
	u := &models.User{Name: name, Email: name + "@example.com", Active: true}
	require.NoError(f.t, f.store.Users().Create(f.ctx, u))
	return u
}

// addGame stores a game kicking off at now+kickoffIn
func (f *fixture) addGame(week int, away, home string, kickoffIn time.Duration) *models.Game {
	f.t.Helper()
	g := &models.Game{
		Season:   testSeason,
		Week:     week,
		AwayTeam: away,
		HomeTeam: home,
		Date:     f.now.Add(kickoffIn),
		Status:   models.GameStatusScheduled,
	}
	g.EnsureLockTime(models.DefaultLockOffset)
	require.NoError(f.t, f.store.Games().Create(f.ctx, g))
	return g
}

// addPick stores a pick directly, bypassing the lock
func (f *fixture) addPick(user *models.User, game *models.Game, team string, submittedAt time.Time) *models.Pick {
	f.t.Helper()
	p := &models.Pick{
		UserID:       user.ID,
		GameID:       game.ID,
		Week:         game.Week,
		Season:       game.Season,
		SelectedTeam: team,
		SubmittedAt:  submittedAt,
		LastModified: submittedAt,
	}
	require.NoError(f.t, f.store.Picks().Create(f.ctx, p))
	return p
}

// finish reconciles a final score for game from the provider
func (f *fixture) finish(game *models.Game, awayScore, homeScore int) {
	f.t.Helper()
	f.setProvider(game, models.GameStatusFinal, awayScore, homeScore)
	_, err := f.reconcile.ReconcileWeek(f.ctx, game.Season, game.Week)
	require.NoError(f.t, err)
}

// setProvider replaces the provider's entry for game, keeping the week's other games
func (f *fixture) setProvider(game *models.Game, status models.GameStatus, awayScore, homeScore int) {
	f.provider.mu.Lock()
	defer f.provider.mu.Unlock()

	pg := models.ProviderGame{
		ProviderID: game.ID.Hex(),
		AwayTeam:   game.AwayTeam,
		HomeTeam:   game.HomeTeam,
		Status:     status,
		Date:       game.Date,
	}
	if status == models.GameStatusFinal || status == models.GameStatusLive {
		pg.AwayScore, pg.HomeScore = models.IntPtr(awayScore), models.IntPtr(homeScore)
	}

	week := f.provider.weeks[game.Week]
	for i := range week {
		if week[i].MatchKey() == pg.MatchKey() {
			week[i] = pg
			return
		}
	}
	f.provider.weeks[game.Week] = append(week, pg)
}

func (f *fixture) user(id primitive.ObjectID) *models.User {
	f.t.Helper()
	u, err := f.store.Users().FindByID(f.ctx, id)
	require.NoError(f.t, err)
	require.NotNil(f.t, u)
	return u
}

func (f *fixture) pick(id primitive.ObjectID) *models.Pick {
	f.t.Helper()
	p, err := f.store.Picks().FindByID(f.ctx, id)
	require.NoError(f.t, err)
	require.NotNil(f.t, p)
	return p
}

func (f *fixture) result(gameID primitive.ObjectID) *models.GameResult {
	f.t.Helper()
	r, err := f.store.Results().FindByGameID(f.ctx, gameID)
	require.NoError(f.t, err)
	require.NotNil(f.t, r)
	return r
}

func (f *fixture) game(id primitive.ObjectID) *models.Game {
	f.t.Helper()
	g, err := f.store.Games().FindByID(f.ctx, id)
	require.NoError(f.t, err)
	require.NotNil(f.t, g)
	return g
}
