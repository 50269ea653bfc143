package services

import (
	"context"
	"sort"
	"time"

	"nfl-pickem/interfaces"
	"nfl-pickem/logging"
	"nfl-pickem/metrics"
	"nfl-pickem/models"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PointRule awards points for a graded pick
type PointRule func(pick *models.Pick, result *models.GameResult, correct bool) int

// OnePointPerWin is the default rule: one point for a correct pick, none otherwise
func OnePointPerWin(_ *models.Pick, _ *models.GameResult, correct bool) int {
	if correct {
		return 1
	}
	return 0
}

// GradingSummary counts what a grading pass did
type GradingSummary struct {
	Results   int `json:"results"`
	Picks     int `json:"picks"`
	Users     int `json:"users"`
	Conflicts int `json:"conflicts"`
	Failed    int `json:"failed"`
	Resettled int `json:"resettled"`
}

// ScoringService grades picks against final results and keeps user totals in step
type ScoringService struct {
	results   interfaces.GameResultRepository
	picks     interfaces.PickRepository
	users     interfaces.UserRepository
	pointRule PointRule
	settler   interfaces.WeekSettler
	logger    *logging.Logger
	now       func() time.Time
}

// NewScoringService creates a new scoring service
func NewScoringService(results interfaces.GameResultRepository, picks interfaces.PickRepository, users interfaces.UserRepository) *ScoringService {
	return &ScoringService{
		results:   results,
		picks:     picks,
		users:     users,
		pointRule: OnePointPerWin,
		logger:    logging.WithPrefix("Scoring"),
		now:       time.Now,
	}
}

// WithPointRule replaces the point rule
func (s *ScoringService) WithPointRule(rule PointRule) *ScoringService {
	if rule != nil {
		s.pointRule = rule
	}
	return s
}

// WithWeekSettler re-settles already settled weeks whenever a grading pass changes their picks
func (s *ScoringService) WithWeekSettler(settler interfaces.WeekSettler) *ScoringService {
	s.settler = settler
	return s
}

// ProcessAllResults grades every final, unprocessed result and then recomputes the totals of
// every user whose picks were touched, and the winners of any settled week among them. Each
// result is graded independently; one failure does not stop the pass.
func (s *ScoringService) ProcessAllResults(ctx context.Context) (GradingSummary, error) {
	var summary GradingSummary

	pending, err := s.results.FindPendingGrading(ctx)
	if err != nil {
		return summary, errors.Wrap(err, "failed to load pending results")
	}
	if len(pending) == 0 {
		return summary, nil
	}
	s.logger.Infof("Grading %d pending results", len(pending))

	affected := make(map[primitive.ObjectID]bool)
	weeks := make(map[models.SeasonWeek]bool)
	for _, result := range pending {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		graded, users, err := s.ProcessGameResult(ctx, result)
		for _, id := range users {
			affected[id] = true
		}
		switch {
		case errors.Is(err, models.ErrConflict):
			// the result changed while we graded it; it stays pending for the next pass
			s.logger.Infof("Result for %s @ %s changed during grading, will regrade", result.AwayTeam, result.HomeTeam)
			summary.Conflicts++
			metrics.RecordGrading("conflict", graded)
		case err != nil:
			s.logger.Errorf("Failed to grade %s @ %s: %v", result.AwayTeam, result.HomeTeam, err)
			summary.Failed++
			metrics.RecordGrading("failed", graded)
		default:
			summary.Results++
			metrics.RecordGrading("processed", graded)
			if graded > 0 {
				weeks[models.SeasonWeek{Season: result.Season, Week: result.Week}] = true
			}
		}
		summary.Picks += graded
	}

	ids := make([]primitive.ObjectID, 0, len(affected))
	for id := range affected {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Hex() < ids[j].Hex() })
	if err := s.RecalculateUserTotals(ctx, ids); err != nil {
		return summary, err
	}
	summary.Users = len(ids)

	resettled, err := s.ResettleWeeks(ctx, weekList(weeks))
	summary.Resettled = resettled
	if err != nil {
		return summary, err
	}

	s.logger.Infof("Graded %d results (%d picks, %d users), %d conflicts, %d failed",
		summary.Results, summary.Picks, summary.Users, summary.Conflicts, summary.Failed)
	return summary, nil
}

// ResettleWeeks hands weeks whose grades changed to the week settler, if one is wired
func (s *ScoringService) ResettleWeeks(ctx context.Context, weeks []models.SeasonWeek) (int, error) {
	if s.settler == nil || len(weeks) == 0 {
		return 0, nil
	}
	n, err := s.settler.ResettleWeeks(ctx, weeks)
	if err != nil {
		return n, errors.Wrap(err, "failed to re-settle weekly winners")
	}
	return n, nil
}

func weekList(set map[models.SeasonWeek]bool) []models.SeasonWeek {
	out := make([]models.SeasonWeek, 0, len(set))
	for w := range set {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Season != out[j].Season {
			return out[i].Season < out[j].Season
		}
		return out[i].Week < out[j].Week
	})
	return out
}

// ProcessGameResult grades every pick on one result, then marks the result processed if its
// version is unchanged. Picks are written first so an interrupted pass leaves the result pending.
// It returns the number of picks graded and their owners.
func (s *ScoringService) ProcessGameResult(ctx context.Context, result *models.GameResult) (int, []primitive.ObjectID, error) {
	if !result.NeedsGrading() {
		return 0, nil, nil
	}
	if result.AwayScore == nil || result.HomeScore == nil {
		return 0, nil, errors.Wrapf(models.ErrInvalidInput, "final result for game %s has no score", result.GameID.Hex())
	}

	awayScore, homeScore := *result.AwayScore, *result.HomeScore
	winner := models.DetermineWinner(result.AwayTeam, result.HomeTeam, awayScore, homeScore)
	now := s.now()

	picks, err := s.picks.FindByGame(ctx, result.GameID)
	if err != nil {
		return 0, nil, errors.Wrap(err, "failed to load picks")
	}

	grades := make([]models.PickGrade, 0, len(picks))
	users := make([]primitive.ObjectID, 0, len(picks))
	for _, pick := range picks {
		// exact match only; a tie matches no team
		correct := pick.SelectedTeam == winner
		points := s.pointRule(pick, result, correct)
		if points < 0 {
			points = 0
		}
		grades = append(grades, models.PickGrade{
			PickID:    pick.ID,
			IsCorrect: correct,
			Points:    points,
			Result: models.PickResult{
				Winner:      winner,
				AwayScore:   awayScore,
				HomeScore:   homeScore,
				FinalScore:  models.FormatFinalScore(awayScore, homeScore),
				IsCorrect:   correct,
				Points:      points,
				ProcessedAt: now,
			},
		})
		users = append(users, pick.UserID)
	}

	if len(grades) > 0 {
		if err := s.picks.ApplyGrades(ctx, grades); err != nil {
			return 0, users, errors.Wrap(err, "failed to write grades")
		}
	}

	if err := s.results.MarkProcessed(ctx, result.ID, result.Version, now); err != nil {
		return len(grades), users, err
	}

	s.logger.Debugf("%s @ %s %s: winner %s, %d picks graded",
		result.AwayTeam, result.HomeTeam, models.FormatFinalScore(awayScore, homeScore), winner, len(grades))
	return len(grades), users, nil
}

// RecalculateUserTotals rebuilds totalPoints and weeklyPoints from each user's graded picks
func (s *ScoringService) RecalculateUserTotals(ctx context.Context, userIDs []primitive.ObjectID) error {
	var failed int
	for _, id := range userIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.RecalculateUser(ctx, id); err != nil {
			s.logger.Errorf("Failed to recalculate totals for user %s: %v", id.Hex(), err)
			failed++
		}
	}
	if failed > 0 {
		return errors.Newf("failed to recalculate totals for %d users", failed)
	}
	return nil
}

// RecalculateUser rebuilds one user's totals
func (s *ScoringService) RecalculateUser(ctx context.Context, userID primitive.ObjectID) error {
	picks, err := s.picks.FindByUser(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "failed to load picks")
	}

	total := 0
	weekly := make(map[string]int)
	for _, pick := range picks {
		if !pick.IsFinalized() {
			continue
		}
		total += pick.Points
		weekly[models.WeekKey(pick.Season, pick.Week)] += pick.Points
	}

	if err := s.users.UpdatePoints(ctx, userID, total, weekly); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Warnf("Picks reference unknown user %s", userID.Hex())
			return nil
		}
		return errors.Wrap(err, "failed to update points")
	}
	return nil
}

// RecalculateAllUsers rebuilds totals for every user
func (s *ScoringService) RecalculateAllUsers(ctx context.Context) error {
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to load users")
	}
	ids := make([]primitive.ObjectID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return s.RecalculateUserTotals(ctx, ids)
}
