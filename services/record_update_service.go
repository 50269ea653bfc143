package services

import (
	"context"

	"nfl-pickem/interfaces"
	"nfl-pickem/logging"
	"nfl-pickem/models"

	"github.com/cockroachdb/errors"
	"github.com/sourcegraph/conc/pool"
)

const defaultOddsConcurrency = 4

// RecordUpdateSummary counts the games touched by one record update pass
type RecordUpdateSummary struct {
	Teams         int `json:"teams"`
	RecordUpdates int `json:"recordUpdates"`
	OddsUpdates   int `json:"oddsUpdates"`
	Failed        int `json:"failed"`
}

// RecordUpdateService refreshes team records and betting lines on stored games. Both feeds are
// display only and never affect grading.
type RecordUpdateService struct {
	provider        interfaces.ScoreProvider
	games           interfaces.GameRepository
	oddsConcurrency int
	logger          *logging.Logger
}

// NewRecordUpdateService creates a new record update service
func NewRecordUpdateService(provider interfaces.ScoreProvider, games interfaces.GameRepository, oddsConcurrency int) *RecordUpdateService {
	if oddsConcurrency <= 0 {
		oddsConcurrency = defaultOddsConcurrency
	}
	return &RecordUpdateService{
		provider:        provider,
		games:           games,
		oddsConcurrency: oddsConcurrency,
		logger:          logging.WithPrefix("Records"),
	}
}

type weekOdds struct {
	week int
	odds map[string]models.GameOdds
}

// Run updates records on every game of the season, then lines for the weeks around currentWeek
func (s *RecordUpdateService) Run(ctx context.Context, season, currentWeek int) (RecordUpdateSummary, error) {
	var summary RecordUpdateSummary

	games, err := s.games.FindBySeason(ctx, season)
	if err != nil {
		return summary, errors.Wrap(err, "failed to load season games")
	}

	standings := s.canonicalStandings(ctx, season)
	summary.Teams = len(standings)
	if len(standings) == 0 {
		s.logger.Warnf("No team records for season %d, skipping record updates", season)
	} else {
		for _, game := range games {
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			away, home := game.AwayRecord, game.HomeRecord
			if r, ok := standings[game.AwayTeam]; ok {
				away = r
			}
			if r, ok := standings[game.HomeTeam]; ok {
				home = r
			}
			if away == game.AwayRecord && home == game.HomeRecord {
				continue
			}
			if err := s.games.UpdateRecords(ctx, game.ID, away, home); err != nil {
				s.logger.Errorf("Failed to update records for %s: %v", game.DisplayName(), err)
				summary.Failed++
				continue
			}
			summary.RecordUpdates++
		}
	}

	byWeek := make(map[int][]*models.Game)
	for _, g := range games {
		byWeek[g.Week] = append(byWeek[g.Week], g)
	}

	for _, wo := range s.fetchOdds(ctx, season, currentWeek) {
		for _, game := range byWeek[wo.week] {
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			line, ok := wo.odds[game.OddsKey()]
			if !ok || !oddsChanged(game, line) {
				continue
			}
			if err := s.games.UpdateOdds(ctx, game.ID, line); err != nil {
				s.logger.Errorf("Failed to update odds for %s: %v", game.DisplayName(), err)
				summary.Failed++
				continue
			}
			summary.OddsUpdates++
		}
	}

	s.logger.Infof("Season %d: %d record updates, %d odds updates, %d failed",
		season, summary.RecordUpdates, summary.OddsUpdates, summary.Failed)
	return summary, nil
}

func (s *RecordUpdateService) canonicalStandings(ctx context.Context, season int) map[string]string {
	raw := s.provider.GetTeamStandings(ctx, season)
	out := make(map[string]string, len(raw))
	for name, record := range raw {
		team, ok := models.LookupTeam(name)
		if !ok {
			s.logger.Warnf("No mapping for provider team %q", name)
			continue
		}
		out[team.Name] = record
	}
	return out
}

// fetchOdds requests lines for currentWeek-1 through currentWeek+2 in parallel
func (s *RecordUpdateService) fetchOdds(ctx context.Context, season, currentWeek int) []weekOdds {
	first := max(models.MinWeek, currentWeek-1)
	last := min(models.MaxWeek, currentWeek+2)

	p := pool.NewWithResults[weekOdds]().WithMaxGoroutines(s.oddsConcurrency)
	for week := first; week <= last; week++ {
		p.Go(func() weekOdds {
			odds := s.provider.GetGameOdds(ctx, season, week)
			s.logger.Debugf("Week %d: odds for %d games", week, len(odds))
			return weekOdds{week: week, odds: odds}
		})
	}
	return p.Wait()
}

func oddsChanged(game *models.Game, line models.GameOdds) bool {
	return (line.Spread != "" && line.Spread != game.Spread) ||
		(line.OverUnder != "" && line.OverUnder != game.OverUnder)
}
