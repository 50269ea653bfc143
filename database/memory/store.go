// Package memory provides in-process repositories for tests and for running the
// server without MongoDB in development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"nfl-pickem/interfaces"
	"nfl-pickem/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store holds every collection behind one lock
type Store struct {
	mu            sync.RWMutex
	games         map[primitive.ObjectID]models.Game
	results       map[primitive.ObjectID]models.GameResult // keyed by game id
	picks         map[primitive.ObjectID]models.Pick
	users         map[primitive.ObjectID]models.User
	activities    []models.Activity
	weeklyResults map[string]models.WeeklyResult
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		games:         make(map[primitive.ObjectID]models.Game),
		results:       make(map[primitive.ObjectID]models.GameResult),
		picks:         make(map[primitive.ObjectID]models.Pick),
		users:         make(map[primitive.ObjectID]models.User),
		weeklyResults: make(map[string]models.WeeklyResult),
	}
}

func (s *Store) Games() *GameRepository                 { return &GameRepository{s} }
func (s *Store) Results() *GameResultRepository         { return &GameResultRepository{s} }
func (s *Store) Picks() *PickRepository                 { return &PickRepository{s} }
func (s *Store) Users() *UserRepository                 { return &UserRepository{s} }
func (s *Store) Activities() *ActivityRepository        { return &ActivityRepository{s} }
func (s *Store) WeeklyResults() *WeeklyResultRepository { return &WeeklyResultRepository{s} }

var (
	_ interfaces.GameRepository         = (*GameRepository)(nil)
	_ interfaces.GameResultRepository   = (*GameResultRepository)(nil)
	_ interfaces.PickRepository         = (*PickRepository)(nil)
	_ interfaces.UserRepository         = (*UserRepository)(nil)
	_ interfaces.ActivityRepository     = (*ActivityRepository)(nil)
	_ interfaces.WeeklyResultRepository = (*WeeklyResultRepository)(nil)
)

// GameRepository is the in-memory games collection
type GameRepository struct{ s *Store }

func (r *GameRepository) Create(_ context.Context, game *models.Game) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if game.ID.IsZero() {
		game.ID = primitive.NewObjectID()
	}
	now := time.Now()
	game.CreatedAt, game.UpdatedAt = now, now
	r.s.games[game.ID] = *game
	return nil
}

func (r *GameRepository) FindByID(_ context.Context, id primitive.ObjectID) (*models.Game, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	g, ok := r.s.games[id]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (r *GameRepository) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]*models.Game, error) {
	want := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	return r.filter(func(g *models.Game) bool { return want[g.ID] }), nil
}

func (r *GameRepository) FindByWeek(_ context.Context, season, week int) ([]*models.Game, error) {
	return r.filter(func(g *models.Game) bool { return g.Season == season && g.Week == week }), nil
}

func (r *GameRepository) FindBySeason(_ context.Context, season int) ([]*models.Game, error) {
	return r.filter(func(g *models.Game) bool { return g.Season == season }), nil
}

func (r *GameRepository) UpdateScore(_ context.Context, id primitive.ObjectID, update models.GameScoreUpdate) error {
	return r.mutate(id, func(g *models.Game) { update.Apply(g) })
}

func (r *GameRepository) UpdateRecords(_ context.Context, id primitive.ObjectID, awayRecord, homeRecord string) error {
	return r.mutate(id, func(g *models.Game) {
		g.AwayRecord, g.HomeRecord = awayRecord, homeRecord
	})
}

func (r *GameRepository) UpdateOdds(_ context.Context, id primitive.ObjectID, odds models.GameOdds) error {
	return r.mutate(id, func(g *models.Game) {
		if odds.Spread != "" {
			g.Spread = odds.Spread
		}
		if odds.OverUnder != "" {
			g.OverUnder = odds.OverUnder
		}
	})
}

func (r *GameRepository) Update(_ context.Context, game *models.Game) error {
	return r.mutate(game.ID, func(g *models.Game) {
		g.Season, g.Week = game.Season, game.Week
		g.AwayTeam, g.HomeTeam = game.AwayTeam, game.HomeTeam
		g.Date, g.LockTime, g.IsLocked = game.Date, game.LockTime, game.IsLocked
		g.IsTiebreaker = game.IsTiebreaker
		g.Network, g.Venue = game.Network, game.Venue
	})
}

func (r *GameRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.games[id]; !ok {
		return fmt.Errorf("game %s: %w", id.Hex(), models.ErrNotFound)
	}
	delete(r.s.games, id)
	return nil
}

func (r *GameRepository) filter(keep func(*models.Game) bool) []*models.Game {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.Game, 0)
	for _, g := range r.s.games {
		g := g
		if keep(&g) {
			out = append(out, &g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Week != out[j].Week {
			return out[i].Week < out[j].Week
		}
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].HomeTeam < out[j].HomeTeam
	})
	return out
}

func (r *GameRepository) mutate(id primitive.ObjectID, fn func(*models.Game)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	g, ok := r.s.games[id]
	if !ok {
		return fmt.Errorf("game %s: %w", id.Hex(), models.ErrNotFound)
	}
	fn(&g)
	g.UpdatedAt = time.Now()
	r.s.games[id] = g
	return nil
}

// GameResultRepository is the in-memory game_results collection
type GameResultRepository struct{ s *Store }

func (r *GameResultRepository) FindByGameID(_ context.Context, gameID primitive.ObjectID) (*models.GameResult, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	res, ok := r.s.results[gameID]
	if !ok {
		return nil, nil
	}
	return &res, nil
}

func (r *GameResultRepository) FindByGameIDs(_ context.Context, gameIDs []primitive.ObjectID) ([]*models.GameResult, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.GameResult, 0, len(gameIDs))
	for _, id := range gameIDs {
		if res, ok := r.s.results[id]; ok {
			res := res
			out = append(out, &res)
		}
	}
	return out, nil
}

func (r *GameResultRepository) FindPendingGrading(_ context.Context) ([]*models.GameResult, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.GameResult, 0)
	for _, res := range r.s.results {
		res := res
		if res.NeedsGrading() {
			out = append(out, &res)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Season != out[j].Season {
			return out[i].Season < out[j].Season
		}
		if out[i].Week != out[j].Week {
			return out[i].Week < out[j].Week
		}
		return out[i].GameID.Hex() < out[j].GameID.Hex()
	})
	return out, nil
}

// load returns the stored result or a fresh one carrying the identity fields
func (r *GameResultRepository) load(result *models.GameResult, now time.Time) models.GameResult {
	existing, ok := r.s.results[result.GameID]
	if ok {
		return existing
	}
	return models.GameResult{
		ID:        primitive.NewObjectID(),
		GameID:    result.GameID,
		Season:    result.Season,
		Week:      result.Week,
		AwayTeam:  result.AwayTeam,
		HomeTeam:  result.HomeTeam,
		CreatedAt: now,
	}
}

func (r *GameResultRepository) UpsertProviderResult(_ context.Context, result *models.GameResult) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	stored := r.load(result, now)
	if stored.ScoreOverride != nil {
		return false, nil
	}
	stored.AwayScore, stored.HomeScore = result.AwayScore, result.HomeScore
	stored.FinalScore = result.FinalScore
	stored.Winner = result.Winner
	stored.Status = result.Status
	stored.Quarter, stored.TimeRemaining = result.Quarter, result.TimeRemaining
	stored.ProviderID = result.ProviderID
	stored.Processed, stored.ProcessedAt = false, nil
	stored.LastUpdated = now
	stored.Version++
	r.s.results[stored.GameID] = stored
	return true, nil
}

func (r *GameResultRepository) ApplyOverride(_ context.Context, result *models.GameResult) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	stored := r.load(result, now)
	stored.AwayScore, stored.HomeScore = result.AwayScore, result.HomeScore
	stored.FinalScore = result.FinalScore
	stored.Winner = result.Winner
	stored.Status = models.GameStatusFinal
	stored.Processed, stored.ProcessedAt = false, nil
	stored.ScoreOverride = result.ScoreOverride
	stored.LastUpdated = now
	stored.Version++
	r.s.results[stored.GameID] = stored
	return nil
}

func (r *GameResultRepository) MarkProcessed(_ context.Context, id primitive.ObjectID, version int64, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for gameID, res := range r.s.results {
		if res.ID != id {
			continue
		}
		if res.Version != version {
			return fmt.Errorf("result %s changed since version %d: %w", id.Hex(), version, models.ErrConflict)
		}
		res.Processed = true
		res.ProcessedAt = &at
		r.s.results[gameID] = res
		return nil
	}
	return fmt.Errorf("result %s changed since version %d: %w", id.Hex(), version, models.ErrConflict)
}

func (r *GameResultRepository) MarkForRegrade(_ context.Context, gameID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	res, ok := r.s.results[gameID]
	if !ok || res.Status != models.GameStatusFinal {
		return nil
	}
	res.Processed, res.ProcessedAt = false, nil
	res.LastUpdated = time.Now()
	res.Version++
	r.s.results[gameID] = res
	return nil
}
