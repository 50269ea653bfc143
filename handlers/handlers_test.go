package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"nfl-pickem/database/memory"
	"nfl-pickem/middleware"
	"nfl-pickem/models"
	"nfl-pickem/services"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSeason = 2025

type stubProvider struct {
	weeks map[int][]models.ProviderGame
}

func (p *stubProvider) GetWeekGames(_ context.Context, _, week int) ([]models.ProviderGame, error) {
	return p.weeks[week], nil
}

func (p *stubProvider) GetTeamStandings(context.Context, int) map[string]string { return nil }

func (p *stubProvider) GetGameOdds(context.Context, int, int) map[string]models.GameOdds { return nil }

type fakeJobs struct {
	mu  sync.Mutex
	ran []string
}

func (f *fakeJobs) RunJob(_ context.Context, name string) error {
	switch name {
	case "busy":
		return services.ErrJobRunning
	case services.JobScores:
		f.mu.Lock()
		f.ran = append(f.ran, name)
		f.mu.Unlock()
		return nil
	}
	return errors.Wrapf(models.ErrNotFound, "job %q", name)
}

func (f *fakeJobs) Jobs() []string { return []string{"busy", services.JobScores} }

type testEnv struct {
	t          *testing.T
	ctx        context.Context
	store      *memory.Store
	provider   *stubProvider
	jobs       *fakeJobs
	router     *mux.Router
	alice      *models.User
	admin      *models.User
	aliceToken string
	adminToken string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	provider := &stubProvider{weeks: make(map[int][]models.ProviderGame)}
	jobs := &fakeJobs{}

	activity := services.NewActivityLogger(store.Activities())
	reconcile := services.NewReconciliationService(store.Games(), store.Results(), activity, provider)
	scoring := services.NewScoringService(store.Results(), store.Picks(), store.Users())
	standings := services.NewStandingsService(store.Games(), store.Results(), store.Picks(), store.Users(), store.WeeklyResults(), services.TiebreakerNone)
	scoring.WithWeekSettler(standings)
	picks := services.NewPickService(store.Games(), store.Results(), store.Picks(), store.Users(), activity, scoring)
	loader := services.NewScheduleLoader(provider, store.Games(), time.Hour)
	auth := services.NewAuthService(store.Users(), "test-secret", time.Hour)

	_, err := services.NewUserSeeder(store.Users()).SeedUsers(ctx, []services.SeedUser{
		{Name: "Admin", Email: "admin@example.com", Password: "admin-password", IsAdmin: true},
		{Name: "Alice", Email: "alice@example.com", Password: "alice-password"},
	})
	require.NoError(t, err)

	env := &testEnv{t: t, ctx: ctx, store: store, provider: provider, jobs: jobs}
	env.admin, env.adminToken = env.login(auth, "admin@example.com")
	env.alice, env.aliceToken = env.login(auth, "alice@example.com")

	env.router = mux.NewRouter()
	RegisterRoutes(env.router, Handlers{
		Auth:        NewAuthHandler(auth, time.Hour, false),
		Games:       NewGameHandler(store.Games(), testSeason),
		Picks:       NewPickHandler(picks, testSeason),
		Admin:       NewAdminHandler(reconcile, scoring, standings, jobs, loader, testSeason),
		AdminGames:  NewAdminGameHandler(services.NewGameService(store.Games(), store.Picks(), time.Hour), testSeason),
		Users:       NewUserHandler(services.NewUserService(store.Users())),
		Leaderboard: NewLeaderboardHandler(standings, activity, testSeason),
		Health:      NewHealthHandler("memory", nil),
	}, middleware.NewAuthMiddleware(auth))
	return env
}

func (e *testEnv) login(auth *services.AuthService, email string) (*models.User, string) {
	e.t.Helper()
	user, err := e.store.Users().FindByEmail(e.ctx, email)
	require.NoError(e.t, err)
	require.NotNil(e.t, user)
	token, err := auth.GenerateToken(user)
	require.NoError(e.t, err)
	return user, token
}

func (e *testEnv) addGame(week int, away, home string, kickoffIn time.Duration) *models.Game {
	e.t.Helper()
	g := &models.Game{
		Season:   testSeason,
		Week:     week,
		AwayTeam: away,
		HomeTeam: home,
		Date:     time.Now().Add(kickoffIn),
		Status:   models.GameStatusScheduled,
	}
	g.EnsureLockTime(time.Hour)
	require.NoError(e.t, e.store.Games().Create(e.ctx, g))
	return g
}

func (e *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		raw, err := sonic.Marshal(body)
		require.NoError(e.t, err)
		buf.Write(raw)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func TestLoginAPI(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/auth/login", "", models.LoginRequest{Email: "alice@example.com", Password: "alice-password"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp models.AuthResponse
	decode(t, rec, &resp)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "Alice", resp.User.Name)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), middleware.AuthCookieName+"=")

	rec = env.do(http.MethodPost, "/api/auth/login", "", models.LoginRequest{Email: "alice@example.com", Password: "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodPost, "/api/auth/login", "", models.LoginRequest{Email: "alice"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodGet, "/api/auth/me", resp.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me models.User
	decode(t, rec, &me)
	assert.Equal(t, "alice@example.com", me.Email)
}

func TestAuthorization(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/api/games", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/api/games", "garbage", nil).Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodPost, "/api/admin/jobs/scores/run", env.aliceToken, nil).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodPost, "/api/admin/jobs/scores/run", env.adminToken, nil).Code)
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var health HealthResponse
	decode(t, rec, &health)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "memory", health.Storage)
}

func TestGamesEndpoints(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.addGame(2, "Ravens", "Chiefs", 72*time.Hour)
	env.addGame(2, "Jets", "Bills", 48*time.Hour)
	env.addGame(3, "Lions", "Bears", 9*24*time.Hour)

	rec := env.do(http.MethodGet, "/api/games?week=2", env.aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var games []models.Game
	decode(t, rec, &games)
	require.Len(t, games, 2)
	assert.Equal(t, "Bills", games[0].HomeTeam, "sorted by kickoff")

	rec = env.do(http.MethodGet, "/api/games", env.aliceToken, nil)
	decode(t, rec, &games)
	assert.Len(t, games, 3)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/games?week=x", env.aliceToken, nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/games?week=25", env.aliceToken, nil).Code)

	rec = env.do(http.MethodGet, "/api/games/current-week", env.aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var current WeekView
	decode(t, rec, &current)
	assert.Equal(t, WeekView{Season: testSeason, Week: 2}, current)
}

func TestPickEndpoints(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	game := env.addGame(2, "Jets", "Bills", 48*time.Hour)
	locked := env.addGame(2, "Ravens", "Chiefs", 30*time.Minute)

	submit := services.WeekPicksCommand{Week: 2, Picks: []services.PickSelection{{GameID: game.ID, SelectedTeam: "Bills"}}}
	rec := env.do(http.MethodPost, "/api/picks/submit", env.aliceToken, submit)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created []models.Pick
	decode(t, rec, &created)
	require.Len(t, created, 1)
	assert.Equal(t, testSeason, created[0].Season)

	assert.Equal(t, http.StatusConflict, env.do(http.MethodPost, "/api/picks/submit", env.aliceToken, submit).Code)

	lockedSubmit := services.WeekPicksCommand{Week: 2, Picks: []services.PickSelection{{GameID: locked.ID, SelectedTeam: "Chiefs"}}}
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/api/picks/submit", env.aliceToken, lockedSubmit).Code)

	update := services.WeekPicksCommand{Week: 2, Picks: []services.PickSelection{{GameID: game.ID, SelectedTeam: "Jets"}}}
	rec = env.do(http.MethodPut, "/api/picks/update", env.aliceToken, update)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(http.MethodGet, "/api/picks/week/2", env.aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var picks []models.Pick
	decode(t, rec, &picks)
	require.Len(t, picks, 1)
	assert.Equal(t, "Jets", picks[0].SelectedTeam)

	// admin sees nothing of alice's week
	rec = env.do(http.MethodGet, "/api/picks/week/2", env.adminToken, nil)
	var adminPicks []models.Pick
	decode(t, rec, &adminPicks)
	assert.Empty(t, adminPicks)

	rec = env.do(http.MethodDelete, "/api/picks/week/2", env.aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var deleted PickDeleteResponse
	decode(t, rec, &deleted)
	assert.Equal(t, 1, deleted.Deleted)

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodDelete, "/api/picks/week/2", env.aliceToken, nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/picks/week/0", env.aliceToken, nil).Code)

	rec = env.do(http.MethodGet, "/api/activities?type=pick_submission", env.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var activities []models.Activity
	decode(t, rec, &activities)
	assert.Len(t, activities, 1)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/activities?type=bogus", env.adminToken, nil).Code)
}

func TestOverrideScoreRegradesAndSettlesWeek(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	game := env.addGame(1, "Jets", "Bills", -72*time.Hour)
	require.NoError(t, env.store.Picks().Create(env.ctx, &models.Pick{
		UserID:       env.alice.ID,
		GameID:       game.ID,
		Season:       testSeason,
		Week:         1,
		SelectedTeam: "Bills",
		SubmittedAt:  time.Now().Add(-96 * time.Hour),
	}))

	path := "/api/admin/games/" + game.ID.Hex() + "/score"
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPut, path, env.adminToken, map[string]interface{}{"awayScore": 10}).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodPut, "/api/admin/games/"+primitive.NewObjectID().Hex()+"/score",
		env.adminToken, map[string]interface{}{"awayScore": 10, "homeScore": 20}).Code)

	rec := env.do(http.MethodPut, path, env.adminToken, map[string]interface{}{"awayScore": 10, "homeScore": 20, "reason": "stat correction"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp ScoreOverrideResponse
	decode(t, rec, &resp)
	assert.Equal(t, "Bills", resp.Result.Winner)
	assert.Equal(t, 1, resp.Grading.Picks)

	rec = env.do(http.MethodGet, "/api/leaderboard/overall", env.aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var board []models.LeaderboardEntry
	decode(t, rec, &board)
	require.NotEmpty(t, board)
	assert.Equal(t, env.alice.ID, board[0].UserID)
	assert.Equal(t, 1, board[0].TotalPoints)

	rec = env.do(http.MethodPost, "/api/admin/weekly-winners", env.adminToken, WeekRequest{Week: 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var weekly models.WeeklyResult
	decode(t, rec, &weekly)
	assert.Equal(t, []primitive.ObjectID{env.alice.ID}, weekly.Winners)

	rec = env.do(http.MethodGet, "/api/leaderboard/user/"+env.alice.ID.Hex(), env.aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats models.UserStats
	decode(t, rec, &stats)
	assert.Equal(t, 1, stats.WeeklyWins)

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/leaderboard/user/"+primitive.NewObjectID().Hex(), env.aliceToken, nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/leaderboard/user/xyz", env.aliceToken, nil).Code)
}

func TestAdminGameEndpoints(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	kickoff := time.Now().Add(72 * time.Hour).Truncate(time.Second)
	create := services.GameCommand{Week: 4, AwayTeam: "Jets", HomeTeam: "Bills", Date: kickoff}

	assert.Equal(t, http.StatusForbidden, env.do(http.MethodPost, "/api/admin/games", env.aliceToken, create).Code)

	rec := env.do(http.MethodPost, "/api/admin/games", env.adminToken, create)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var game models.Game
	decode(t, rec, &game)
	assert.Equal(t, testSeason, game.Season)
	assert.True(t, game.LockTime.Equal(kickoff.Add(-time.Hour)))

	assert.Equal(t, http.StatusConflict, env.do(http.MethodPost, "/api/admin/games", env.adminToken, create).Code)
	same := services.GameCommand{Week: 4, AwayTeam: "Jets", HomeTeam: "Jets", Date: kickoff}
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/api/admin/games", env.adminToken, same).Code)

	require.NoError(t, env.store.Picks().Create(env.ctx, &models.Pick{
		UserID:       env.alice.ID,
		GameID:       game.ID,
		Season:       testSeason,
		Week:         4,
		SelectedTeam: "Bills",
		SubmittedAt:  time.Now(),
	}))

	path := "/api/admin/games/" + game.ID.Hex()
	moved := services.GameCommand{Week: 5, AwayTeam: "Jets", HomeTeam: "Bills", Date: kickoff}
	assert.Equal(t, http.StatusConflict, env.do(http.MethodPut, path, env.adminToken, moved).Code)

	rescheduled := services.GameCommand{Week: 4, AwayTeam: "Jets", HomeTeam: "Bills", Date: kickoff.Add(time.Hour), Network: "NBC"}
	rec = env.do(http.MethodPut, path, env.adminToken, rescheduled)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &game)
	assert.Equal(t, "NBC", game.Network)

	assert.Equal(t, http.StatusConflict, env.do(http.MethodDelete, path, env.adminToken, nil).Code)

	spare := env.addGame(4, "Ravens", "Chiefs", 96*time.Hour)
	assert.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, "/api/admin/games/"+spare.ID.Hex(), env.adminToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodDelete, "/api/admin/games/"+spare.ID.Hex(), env.adminToken, nil).Code)

	rec = env.do(http.MethodGet, "/api/admin/games", env.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []struct {
		ID        primitive.ObjectID `json:"id"`
		PickCount int                `json:"pickCount"`
	}
	decode(t, rec, &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, game.ID, listed[0].ID)
	assert.Equal(t, 1, listed[0].PickCount)
}

func TestAdminUserEndpoints(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	create := services.CreateUserCommand{Name: "Dana", Email: "dana@example.com", Password: "touchdown1"}

	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/admin/users", env.aliceToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodPost, "/api/admin/users", env.aliceToken, create).Code)

	rec := env.do(http.MethodPost, "/api/admin/users", env.adminToken, create)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var user models.User
	decode(t, rec, &user)
	assert.Equal(t, "Dana", user.Name)
	assert.NotContains(t, rec.Body.String(), "touchdown1")

	assert.Equal(t, http.StatusConflict, env.do(http.MethodPost, "/api/admin/users", env.adminToken, create).Code)
	weak := services.CreateUserCommand{Name: "Eve", Email: "eve@example.com", Password: "short"}
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/api/admin/users", env.adminToken, weak).Code)

	rec = env.do(http.MethodPost, "/api/auth/login", "", models.LoginRequest{Email: "dana@example.com", Password: "touchdown1"})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(http.MethodGet, "/api/admin/users", env.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var users []models.User
	decode(t, rec, &users)
	assert.Len(t, users, 3)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestLeagueViews(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	played := env.addGame(1, "Jets", "Bills", -72*time.Hour)
	open := env.addGame(1, "Ravens", "Chiefs", 72*time.Hour)
	for _, p := range []*models.Pick{
		{UserID: env.alice.ID, GameID: played.ID, SelectedTeam: "Bills"},
		{UserID: env.admin.ID, GameID: played.ID, SelectedTeam: "Jets"},
		{UserID: env.alice.ID, GameID: open.ID, SelectedTeam: "Chiefs"},
	} {
		p.Season, p.Week, p.SubmittedAt = testSeason, 1, time.Now().Add(-96*time.Hour)
		require.NoError(t, env.store.Picks().Create(env.ctx, p))
	}

	scorePath := "/api/admin/games/" + played.ID.Hex() + "/score"
	rec := env.do(http.MethodPut, scorePath, env.adminToken, map[string]interface{}{"awayScore": 10, "homeScore": 20})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = env.do(http.MethodPost, "/api/admin/weekly-winners", env.adminToken, WeekRequest{Week: 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(http.MethodGet, "/api/picks/week/1/all", env.aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var league []models.LeaguePick
	decode(t, rec, &league)
	require.Len(t, league, 2, "the open game stays hidden")
	for _, p := range league {
		assert.Equal(t, played.ID, p.GameID)
		assert.Equal(t, "Jets @ Bills", p.Game)
	}

	rec = env.do(http.MethodGet, "/api/leaderboard/weekly-wins", env.aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var wins []models.WeeklyWinsEntry
	decode(t, rec, &wins)
	require.Len(t, wins, 2)
	assert.Equal(t, env.alice.ID, wins[0].UserID)
	assert.Equal(t, 1, wins[0].WeeklyWins)

	rec = env.do(http.MethodGet, "/api/leaderboard/top-performers?limit=1", env.aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var top []models.LeaderboardEntry
	decode(t, rec, &top)
	require.Len(t, top, 1)
	assert.Equal(t, env.alice.ID, top[0].UserID)

	rec = env.do(http.MethodGet, "/api/stats/season", env.aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var season models.SeasonStats
	decode(t, rec, &season)
	assert.Equal(t, 3, season.TotalPicks)
	assert.Equal(t, 2, season.TotalPlayers)

	comparePath := "/api/stats/compare/" + env.alice.ID.Hex() + "/" + env.admin.ID.Hex()
	rec = env.do(http.MethodGet, comparePath, env.aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var cmp models.UserComparison
	decode(t, rec, &cmp)
	require.Len(t, cmp.HeadToHead, 1)
	assert.Equal(t, 0, cmp.Agreements)
	assert.Equal(t, 1, cmp.PointsDiff)

	same := "/api/stats/compare/" + env.alice.ID.Hex() + "/" + env.alice.ID.Hex()
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, same, env.aliceToken, nil).Code)
}

func TestRunJobEndpoint(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/admin/jobs/scores/run", env.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp JobRunResponse
	decode(t, rec, &resp)
	assert.Equal(t, JobRunResponse{Job: services.JobScores, Status: "completed"}, resp)
	assert.Equal(t, []string{services.JobScores}, env.jobs.ran)

	assert.Equal(t, http.StatusConflict, env.do(http.MethodPost, "/api/admin/jobs/busy/run", env.adminToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodPost, "/api/admin/jobs/nope/run", env.adminToken, nil).Code)
}

func TestImportSchedule(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	kickoff := time.Now().Add(72 * time.Hour)
	env.provider.weeks[3] = []models.ProviderGame{
		{ProviderID: "1", AwayTeam: "Jets", HomeTeam: "Bills", Date: kickoff, Status: models.GameStatusScheduled},
		{ProviderID: "2", AwayTeam: "Ravens", HomeTeam: "Chiefs", Date: kickoff.Add(time.Hour), Status: models.GameStatusScheduled},
	}

	rec := env.do(http.MethodPost, "/api/admin/schedule/import", env.adminToken, WeekRequest{Week: 3})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp ImportResponse
	decode(t, rec, &resp)
	assert.Equal(t, ImportResponse{Season: testSeason, Week: 3, Created: 2}, resp)

	games, err := env.store.Games().FindByWeek(env.ctx, testSeason, 3)
	require.NoError(t, err)
	assert.Len(t, games, 2)
}

func TestStatusFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		want int
	}{
		{errors.Wrap(models.ErrInvalidInput, "week"), http.StatusBadRequest},
		{errors.Wrap(models.ErrGameLocked, "Jets @ Bills"), http.StatusBadRequest},
		{models.ErrForbidden, http.StatusForbidden},
		{errors.Wrap(models.ErrNotFound, "pick"), http.StatusNotFound},
		{models.ErrDuplicatePick, http.StatusConflict},
		{services.ErrJobRunning, http.StatusConflict},
		{models.ErrProviderTransient, http.StatusBadGateway},
		{errors.Wrap(context.DeadlineExceeded, "job"), http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), "%v", tt.err)
	}
}
