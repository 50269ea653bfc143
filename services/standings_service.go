package services

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"nfl-pickem/interfaces"
	"nfl-pickem/logging"
	"nfl-pickem/models"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TiebreakerPolicy selects how a tie on correct picks is settled
type TiebreakerPolicy string

const (
	// TiebreakerNone keeps every tied user as a winner
	TiebreakerNone TiebreakerPolicy = "none"
	// TiebreakerClosestTotal narrows the winners to the closest combined score prediction
	TiebreakerClosestTotal TiebreakerPolicy = "closest_total"
)

// WinPercentage returns correct/finalized as a rounded percentage, 0 when nothing is finalized
func WinPercentage(correct, finalized int) int {
	if finalized == 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(finalized) * 100))
}

// CalculateStreaks scans finalized picks in (week, submittedAt) order. A correct pick extends
// the running streak and an incorrect one resets it; current is the running value at the end.
func CalculateStreaks(picks []*models.Pick) (current, best int) {
	finalized := make([]*models.Pick, 0, len(picks))
	for _, p := range picks {
		if p.IsFinalized() {
			finalized = append(finalized, p)
		}
	}
	sort.SliceStable(finalized, func(i, j int) bool {
		if finalized[i].Season != finalized[j].Season {
			return finalized[i].Season < finalized[j].Season
		}
		if finalized[i].Week != finalized[j].Week {
			return finalized[i].Week < finalized[j].Week
		}
		return finalized[i].SubmittedAt.Before(finalized[j].SubmittedAt)
	})

	for _, p := range finalized {
		if p.IsWin() {
			current++
			if current > best {
				best = current
			}
		} else {
			current = 0
		}
	}
	return current, best
}

// StandingsService derives leaderboards and weekly winners from graded picks
type StandingsService struct {
	games         interfaces.GameRepository
	results       interfaces.GameResultRepository
	picks         interfaces.PickRepository
	users         interfaces.UserRepository
	weeklyResults interfaces.WeeklyResultRepository
	policy        TiebreakerPolicy
	logger        *logging.Logger
	now           func() time.Time
}

// NewStandingsService creates a new standings service
func NewStandingsService(
	games interfaces.GameRepository,
	results interfaces.GameResultRepository,
	picks interfaces.PickRepository,
	users interfaces.UserRepository,
	weeklyResults interfaces.WeeklyResultRepository,
	policy TiebreakerPolicy,
) *StandingsService {
	if policy == "" {
		policy = TiebreakerNone
	}
	return &StandingsService{
		games:         games,
		results:       results,
		picks:         picks,
		users:         users,
		weeklyResults: weeklyResults,
		policy:        policy,
		logger:        logging.WithPrefix("Standings"),
		now:           time.Now,
	}
}

// userTally accumulates one user's picks
type userTally struct {
	user      *models.User
	picks     []*models.Pick
	total     int
	finalized int
	correct   int
	points    int
}

func (t *userTally) add(p *models.Pick) {
	t.picks = append(t.picks, p)
	t.total++
	if p.IsFinalized() {
		t.finalized++
		t.points += p.Points
		if p.IsWin() {
			t.correct++
		}
	}
}

func (t *userTally) name() string {
	if t.user == nil {
		return ""
	}
	return t.user.Name
}

// tally groups picks by user, creating an entry for every known user
func tally(users []*models.User, picks []*models.Pick) map[primitive.ObjectID]*userTally {
	out := make(map[primitive.ObjectID]*userTally, len(users))
	for _, u := range users {
		out[u.ID] = &userTally{user: u}
	}
	for _, p := range picks {
		t, ok := out[p.UserID]
		if !ok {
			t = &userTally{}
			out[p.UserID] = t
		}
		t.add(p)
	}
	return out
}

// CalculateWeeklyWinners tallies a week's correct picks, stores the week's outcome and
// recomputes weeklyWins and bestWeekScore for every user from all stored weeks. Running it
// again for the same week replaces that week's record, so wins are never double counted.
func (s *StandingsService) CalculateWeeklyWinners(ctx context.Context, season, week int) (*models.WeeklyResult, error) {
	if !models.ValidWeek(week) {
		return nil, errors.Wrapf(models.ErrInvalidInput, "week %d", week)
	}

	picks, err := s.picks.FindByWeek(ctx, season, week)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load picks")
	}
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load users")
	}

	tallies := tally(nil, picks)
	names := make(map[primitive.ObjectID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}

	result := &models.WeeklyResult{
		Season:       season,
		Week:         week,
		Winners:      []primitive.ObjectID{},
		Scores:       make([]models.WeeklyUserScore, 0, len(tallies)),
		CalculatedAt: s.now(),
	}
	for id, t := range tallies {
		result.Scores = append(result.Scores, models.WeeklyUserScore{
			UserID:       id,
			Name:         names[id],
			TotalPicks:   t.total,
			CorrectPicks: t.correct,
			Points:       t.points,
		})
		if t.correct > result.HighestScore {
			result.HighestScore = t.correct
		}
	}
	sortWeeklyScores(result.Scores)

	// nobody wins a week in which nobody picked a winner
	if result.HighestScore > 0 {
		tied := make([]int, 0)
		for i, score := range result.Scores {
			if score.CorrectPicks == result.HighestScore {
				tied = append(tied, i)
			}
		}
		if len(tied) > 1 && s.policy == TiebreakerClosestTotal {
			tied, err = s.applyTiebreaker(ctx, season, week, result, tied, tallies)
			if err != nil {
				return nil, err
			}
		}
		for _, i := range tied {
			result.Winners = append(result.Winners, result.Scores[i].UserID)
		}
		result.IsTie = len(result.Winners) > 1
	}

	if err := s.weeklyResults.Upsert(ctx, result); err != nil {
		return nil, errors.Wrap(err, "failed to store weekly result")
	}

	if err := s.RecalculateWeeklyStats(ctx); err != nil {
		return result, err
	}

	switch {
	case len(result.Winners) == 0:
		s.logger.Infof("Week %d: no winner (%d participants)", week, len(result.Scores))
	case result.IsTie:
		s.logger.Infof("Week %d: %d-way tie with %d correct", week, len(result.Winners), result.HighestScore)
	default:
		s.logger.Infof("Week %d: %s wins with %d correct", week, names[result.Winners[0]], result.HighestScore)
	}
	return result, nil
}

// sortWeeklyScores orders by correct desc, points desc, then name
func sortWeeklyScores(scores []models.WeeklyUserScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		a, b := scores[i], scores[j]
		if a.CorrectPicks != b.CorrectPicks {
			return a.CorrectPicks > b.CorrectPicks
		}
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if !strings.EqualFold(a.Name, b.Name) {
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
		return a.UserID.Hex() < b.UserID.Hex()
	})
}

// applyTiebreaker narrows tied (indexes into result.Scores) to the users whose combined score
// prediction on the week's tiebreaker game is closest. Without a recorded outcome for that game
// the tied set is kept whole in alphabetical order.
func (s *StandingsService) applyTiebreaker(
	ctx context.Context,
	season, week int,
	result *models.WeeklyResult,
	tied []int,
	tallies map[primitive.ObjectID]*userTally,
) ([]int, error) {
	games, err := s.games.FindByWeek(ctx, season, week)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load games")
	}
	game := tiebreakerGame(games)
	if game == nil {
		return tied, nil
	}

	gameResult, err := s.results.FindByGameID(ctx, game.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load tiebreaker result")
	}
	if gameResult == nil || gameResult.Status != models.GameStatusFinal || gameResult.Winner == "" ||
		gameResult.AwayScore == nil || gameResult.HomeScore == nil {
		s.logger.Warnf("Tiebreaker game %s has no result yet, keeping all tied users", game.DisplayName())
		return tied, nil
	}
	actual := *gameResult.AwayScore + *gameResult.HomeScore

	best := -1
	for _, i := range tied {
		t := tallies[result.Scores[i].UserID]
		for _, p := range t.picks {
			if p.GameID != game.ID {
				continue
			}
			predicted, ok := p.PredictedTotal()
			if !ok {
				continue
			}
			diff := predicted - actual
			if diff < 0 {
				diff = -diff
			}
			result.Scores[i].TiebreakerDiff = models.IntPtr(diff)
			if best < 0 || diff < best {
				best = diff
			}
		}
	}
	if best < 0 {
		// nobody predicted the total
		return tied, nil
	}

	narrowed := make([]int, 0, len(tied))
	for _, i := range tied {
		if d := result.Scores[i].TiebreakerDiff; d != nil && *d == best {
			narrowed = append(narrowed, i)
		}
	}
	result.TiebreakerApplied = true
	return narrowed, nil
}

// tiebreakerGame returns the designated tiebreaker game, or the week's last kickoff
func tiebreakerGame(games []*models.Game) *models.Game {
	var last *models.Game
	for _, g := range games {
		if g.IsTiebreaker {
			return g
		}
		if last == nil || g.Date.After(last.Date) {
			last = g
		}
	}
	return last
}

// RecalculateWeeklyStats rebuilds weeklyWins and bestWeekScore from the stored weekly results
func (s *StandingsService) RecalculateWeeklyStats(ctx context.Context) error {
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to load users")
	}
	weeks, err := s.weeklyResults.FindAll(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to load weekly results")
	}

	wins := make(map[primitive.ObjectID]int)
	bestScore := make(map[primitive.ObjectID]int)
	for _, w := range weeks {
		for _, id := range w.Winners {
			wins[id]++
		}
		for _, score := range w.Scores {
			if score.CorrectPicks > bestScore[score.UserID] {
				bestScore[score.UserID] = score.CorrectPicks
			}
		}
	}

	var failed int
	for _, u := range users {
		if u.WeeklyWins == wins[u.ID] && u.BestWeekScore == bestScore[u.ID] {
			continue
		}
		if err := s.users.UpdateWeeklyStats(ctx, u.ID, wins[u.ID], bestScore[u.ID]); err != nil {
			s.logger.Errorf("Failed to update weekly stats for %s: %v", u.Name, err)
			failed++
		}
	}
	if failed > 0 {
		return errors.Newf("failed to update weekly stats for %d users", failed)
	}
	return nil
}

// seasonWeekly returns each user's weekly wins and best week score within one season
func (s *StandingsService) seasonWeekly(ctx context.Context, season int) (map[primitive.ObjectID]int, map[primitive.ObjectID]int, error) {
	weeks, err := s.weeklyResults.FindAll(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to load weekly results")
	}
	wins := make(map[primitive.ObjectID]int)
	best := make(map[primitive.ObjectID]int)
	for _, w := range weeks {
		if w.Season != season {
			continue
		}
		for _, id := range w.Winners {
			wins[id]++
		}
		for _, score := range w.Scores {
			if score.CorrectPicks > best[score.UserID] {
				best[score.UserID] = score.CorrectPicks
			}
		}
	}
	return wins, best, nil
}

func (s *StandingsService) seasonTallies(ctx context.Context, season int) (map[primitive.ObjectID]*userTally, error) {
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load users")
	}
	picks, err := s.picks.FindBySeason(ctx, season)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load picks")
	}
	return tally(users, picks), nil
}

// rankOrder returns user ids with picks ordered by (points desc, picks desc)
func rankOrder(tallies map[primitive.ObjectID]*userTally) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(tallies))
	for id, t := range tallies {
		if t.total > 0 {
			ids = append(ids, id)
		}
	}
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := tallies[ids[i]], tallies[ids[j]]
		if a.points != b.points {
			return a.points > b.points
		}
		if a.total != b.total {
			return a.total > b.total
		}
		return ids[i].Hex() < ids[j].Hex()
	})
	return ids
}

// rank returns the user's 1-based position by (points desc, picks desc); 0 without picks
func rank(tallies map[primitive.ObjectID]*userTally, userID primitive.ObjectID) int {
	for i, id := range rankOrder(tallies) {
		if id == userID {
			return i + 1
		}
	}
	return 0
}

// OverallLeaderboard returns the season leaderboard
func (s *StandingsService) OverallLeaderboard(ctx context.Context, season int) ([]models.LeaderboardEntry, error) {
	tallies, err := s.seasonTallies(ctx, season)
	if err != nil {
		return nil, err
	}
	wins, best, err := s.seasonWeekly(ctx, season)
	if err != nil {
		return nil, err
	}

	entries := make([]models.LeaderboardEntry, 0, len(tallies))
	for id, t := range tallies {
		if t.user != nil && !t.user.Active && t.total == 0 {
			continue
		}
		current, bestStreak := CalculateStreaks(t.picks)
		entries = append(entries, models.LeaderboardEntry{
			UserID:         id,
			Name:           t.name(),
			TotalPicks:     t.total,
			FinalizedPicks: t.finalized,
			CorrectPicks:   t.correct,
			TotalPoints:    t.points,
			WinPercentage:  WinPercentage(t.correct, t.finalized),
			CurrentStreak:  current,
			BestStreak:     bestStreak,
			WeeklyWins:     wins[id],
			BestWeekScore:  best[id],
		})
	}

	positions := make(map[primitive.ObjectID]int, len(tallies))
	for i, id := range rankOrder(tallies) {
		positions[id] = i + 1
	}
	for i := range entries {
		entries[i].Rank = positions[entries[i].UserID]
	}
	// ranked users first, in rank order; users without picks trail by name
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if (a.Rank == 0) != (b.Rank == 0) {
			return a.Rank != 0
		}
		if a.Rank != b.Rank {
			return a.Rank < b.Rank
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
	return entries, nil
}

// TopPerformers returns the first limit ranked users of the overall leaderboard
func (s *StandingsService) TopPerformers(ctx context.Context, season, limit int) ([]models.LeaderboardEntry, error) {
	board, err := s.OverallLeaderboard(ctx, season)
	if err != nil {
		return nil, err
	}
	out := make([]models.LeaderboardEntry, 0)
	for _, e := range board {
		if e.Rank == 0 || (limit > 0 && len(out) == limit) {
			break
		}
		out = append(out, e)
	}
	return out, nil
}

// WeeklyWinsLeaderboard ranks active users by weeks won, then best week score, then name
func (s *StandingsService) WeeklyWinsLeaderboard(ctx context.Context, season, limit int) ([]models.WeeklyWinsEntry, error) {
	tallies, err := s.seasonTallies(ctx, season)
	if err != nil {
		return nil, err
	}
	wins, best, err := s.seasonWeekly(ctx, season)
	if err != nil {
		return nil, err
	}

	entries := make([]models.WeeklyWinsEntry, 0, len(tallies))
	for id, t := range tallies {
		if t.user == nil || !t.user.Active {
			continue
		}
		entries = append(entries, models.WeeklyWinsEntry{
			UserID:        id,
			Name:          t.name(),
			WeeklyWins:    wins[id],
			BestWeekScore: best[id],
			TotalPicks:    t.total,
			CorrectPicks:  t.correct,
			WinPercentage: WinPercentage(t.correct, t.finalized),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.WeeklyWins != b.WeeklyWins {
			return a.WeeklyWins > b.WeeklyWins
		}
		if a.BestWeekScore != b.BestWeekScore {
			return a.BestWeekScore > b.BestWeekScore
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

// ResettleWeeks recalculates the winners of every listed week that already has a stored
// result, returning how many were recalculated
func (s *StandingsService) ResettleWeeks(ctx context.Context, weeks []models.SeasonWeek) (int, error) {
	resettled := 0
	for _, w := range weeks {
		stored, err := s.weeklyResults.FindByWeek(ctx, w.Season, w.Week)
		if err != nil {
			return resettled, errors.Wrapf(err, "failed to load weekly result for week %d", w.Week)
		}
		if stored == nil {
			continue
		}
		if _, err := s.CalculateWeeklyWinners(ctx, w.Season, w.Week); err != nil {
			return resettled, err
		}
		s.logger.Infof("Re-settled season %d week %d after regrading", w.Season, w.Week)
		resettled++
	}
	return resettled, nil
}

// WeeklyLeaderboard returns one week's standings for users who picked that week
func (s *StandingsService) WeeklyLeaderboard(ctx context.Context, season, week int) ([]models.WeeklyLeaderboardEntry, error) {
	if !models.ValidWeek(week) {
		return nil, errors.Wrapf(models.ErrInvalidInput, "week %d", week)
	}
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load users")
	}
	picks, err := s.picks.FindByWeek(ctx, season, week)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load picks")
	}

	entries := make([]models.WeeklyLeaderboardEntry, 0)
	for id, t := range tally(users, picks) {
		if t.total == 0 {
			continue
		}
		entries = append(entries, models.WeeklyLeaderboardEntry{
			UserID:        id,
			Name:          t.name(),
			TotalPicks:    t.total,
			CorrectPicks:  t.correct,
			Points:        t.points,
			WinPercentage: WinPercentage(t.correct, t.finalized),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.CorrectPicks != b.CorrectPicks {
			return a.CorrectPicks > b.CorrectPicks
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

// UserStats returns one user's season stats
func (s *StandingsService) UserStats(ctx context.Context, season int, userID primitive.ObjectID) (*models.UserStats, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load user")
	}
	if user == nil {
		return nil, errors.Wrapf(models.ErrNotFound, "user %s", userID.Hex())
	}

	tallies, err := s.seasonTallies(ctx, season)
	if err != nil {
		return nil, err
	}
	wins, best, err := s.seasonWeekly(ctx, season)
	if err != nil {
		return nil, err
	}

	t := tallies[userID]
	current, bestStreak := CalculateStreaks(t.picks)
	stats := &models.UserStats{
		UserID:          userID,
		Name:            user.Name,
		TotalPicks:      t.total,
		FinalizedPicks:  t.finalized,
		CorrectPicks:    t.correct,
		TotalPoints:     t.points,
		WinPercentage:   WinPercentage(t.correct, t.finalized),
		CurrentStreak:   current,
		BestStreak:      bestStreak,
		WeeklyWins:      wins[userID],
		BestWeekScore:   best[userID],
		Rank:            rank(tallies, userID),
		TotalPlayers:    len(tallies),
		WeeklyBreakdown: weekBreakdown(t.picks),
	}
	return stats, nil
}

func weekBreakdown(picks []*models.Pick) []models.WeekBreakdown {
	byWeek := make(map[int]*userTally)
	for _, p := range picks {
		t, ok := byWeek[p.Week]
		if !ok {
			t = &userTally{}
			byWeek[p.Week] = t
		}
		t.add(p)
	}
	out := make([]models.WeekBreakdown, 0, len(byWeek))
	for week, t := range byWeek {
		out = append(out, models.WeekBreakdown{
			Week:          week,
			Picks:         t.total,
			Correct:       t.correct,
			Points:        t.points,
			WinPercentage: WinPercentage(t.correct, t.finalized),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Week < out[j].Week })
	return out
}

// StreakLeaders returns users ordered by best streak, then current streak
func (s *StandingsService) StreakLeaders(ctx context.Context, season, limit int) ([]models.StreakEntry, error) {
	tallies, err := s.seasonTallies(ctx, season)
	if err != nil {
		return nil, err
	}

	entries := make([]models.StreakEntry, 0, len(tallies))
	for id, t := range tallies {
		if t.finalized == 0 {
			continue
		}
		current, best := CalculateStreaks(t.picks)
		entries = append(entries, models.StreakEntry{
			UserID:        id,
			Name:          t.name(),
			CurrentStreak: current,
			BestStreak:    best,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.BestStreak != b.BestStreak {
			return a.BestStreak > b.BestStreak
		}
		if a.CurrentStreak != b.CurrentStreak {
			return a.CurrentStreak > b.CurrentStreak
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

// WeekStats returns the pick distribution and accuracy for one week
func (s *StandingsService) WeekStats(ctx context.Context, season, week int) (*models.WeekStats, error) {
	if !models.ValidWeek(week) {
		return nil, errors.Wrapf(models.ErrInvalidInput, "week %d", week)
	}
	games, err := s.games.FindByWeek(ctx, season, week)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load games")
	}
	picks, err := s.picks.FindByWeek(ctx, season, week)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load picks")
	}

	stats := &models.WeekStats{
		Season: season,
		Week:   week,
		Games:  make([]models.GamePickDistribution, 0, len(games)),
	}
	byGame := make(map[primitive.ObjectID]*models.GamePickDistribution, len(games))
	for _, g := range games {
		stats.Games = append(stats.Games, models.GamePickDistribution{
			GameID:   g.ID,
			AwayTeam: g.AwayTeam,
			HomeTeam: g.HomeTeam,
			Status:   g.Status,
		})
	}
	for i := range stats.Games {
		byGame[stats.Games[i].GameID] = &stats.Games[i]
	}

	participants := make(map[primitive.ObjectID]bool)
	for _, p := range picks {
		participants[p.UserID] = true
		stats.TotalPicks++
		if p.IsFinalized() {
			stats.Finalized++
			if p.IsWin() {
				stats.Correct++
			}
		}

		dist, ok := byGame[p.GameID]
		if !ok {
			continue
		}
		switch p.SelectedTeam {
		case dist.AwayTeam:
			dist.AwayPicks++
		case dist.HomeTeam:
			dist.HomePicks++
		}
		if p.IsFinalized() {
			dist.Finalized++
			if p.IsWin() {
				dist.Correct++
			}
		}
	}
	stats.Participants = len(participants)
	stats.Accuracy = WinPercentage(stats.Correct, stats.Finalized)
	return stats, nil
}

// SeasonStats returns league-wide totals and a per-week breakdown for a season
func (s *StandingsService) SeasonStats(ctx context.Context, season int) (*models.SeasonStats, error) {
	games, err := s.games.FindBySeason(ctx, season)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load games")
	}
	picks, err := s.picks.FindBySeason(ctx, season)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load picks")
	}

	stats := &models.SeasonStats{
		Season:     season,
		TotalGames: len(games),
		TotalPicks: len(picks),
		Weeks:      make([]models.SeasonWeekSummary, 0, models.MaxWeek),
	}
	gamesPerWeek := make(map[int]int)
	for _, g := range games {
		gamesPerWeek[g.Week]++
	}

	type weekTally struct {
		players            map[primitive.ObjectID]bool
		picks              int
		finalized, correct int
	}
	weeks := make(map[int]*weekTally)
	players := make(map[primitive.ObjectID]bool)
	var finalized, correct int
	for _, p := range picks {
		players[p.UserID] = true
		w, ok := weeks[p.Week]
		if !ok {
			w = &weekTally{players: make(map[primitive.ObjectID]bool)}
			weeks[p.Week] = w
		}
		w.players[p.UserID] = true
		w.picks++
		if p.IsFinalized() {
			w.finalized++
			finalized++
			if p.IsWin() {
				w.correct++
				correct++
			}
		}
	}
	stats.TotalPlayers = len(players)
	stats.OverallAccuracy = WinPercentage(correct, finalized)

	for week := models.MinWeek; week <= models.MaxWeek; week++ {
		summary := models.SeasonWeekSummary{Week: week, Games: gamesPerWeek[week]}
		if w, ok := weeks[week]; ok {
			summary.Picks = w.picks
			summary.Players = len(w.players)
			summary.Accuracy = WinPercentage(w.correct, w.finalized)
		}
		if summary.Games == 0 && summary.Picks == 0 {
			continue
		}
		stats.Weeks = append(stats.Weeks, summary)
	}

	stats.TopPerformers, err = s.TopPerformers(ctx, season, 10)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// CompareUsers returns two users' season stats and every game both of them picked
func (s *StandingsService) CompareUsers(ctx context.Context, season int, first, second primitive.ObjectID) (*models.UserComparison, error) {
	if first == second {
		return nil, errors.Wrap(models.ErrInvalidInput, "cannot compare a user with themselves")
	}
	a, err := s.UserStats(ctx, season, first)
	if err != nil {
		return nil, err
	}
	b, err := s.UserStats(ctx, season, second)
	if err != nil {
		return nil, err
	}

	picks, err := s.picks.FindBySeason(ctx, season)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load picks")
	}
	firstPicks := make(map[primitive.ObjectID]*models.Pick)
	shared := make([]*models.Pick, 0)
	for _, p := range picks {
		if p.UserID == first {
			firstPicks[p.GameID] = p
		}
	}
	for _, p := range picks {
		if p.UserID == second {
			if _, ok := firstPicks[p.GameID]; ok {
				shared = append(shared, p)
			}
		}
	}

	ids := make([]primitive.ObjectID, 0, len(shared))
	for _, p := range shared {
		ids = append(ids, p.GameID)
	}
	games, err := s.games.FindByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load games")
	}
	byID := make(map[primitive.ObjectID]*models.Game, len(games))
	for _, g := range games {
		byID[g.ID] = g
	}

	cmp := &models.UserComparison{
		Season:     season,
		First:      a,
		Second:     b,
		HeadToHead: make([]models.HeadToHeadPick, 0, len(shared)),
		PointsDiff: a.TotalPoints - b.TotalPoints,
	}
	for _, p := range shared {
		mine := firstPicks[p.GameID]
		h2h := models.HeadToHeadPick{
			GameID:       p.GameID,
			Week:         p.Week,
			FirstPick:    mine.SelectedTeam,
			SecondPick:   p.SelectedTeam,
			FirstStatus:  mine.Status(),
			SecondStatus: p.Status(),
		}
		if g, ok := byID[p.GameID]; ok {
			h2h.Game = g.DisplayName()
			h2h.Winner = g.WinnerTeam()
		}
		if h2h.FirstPick == h2h.SecondPick {
			cmp.Agreements++
		}
		cmp.HeadToHead = append(cmp.HeadToHead, h2h)
	}
	sort.SliceStable(cmp.HeadToHead, func(i, j int) bool { return cmp.HeadToHead[i].Week < cmp.HeadToHead[j].Week })
	return cmp, nil
}
