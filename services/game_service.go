package services

import (
	"context"
	"strings"
	"time"

	"nfl-pickem/interfaces"
	"nfl-pickem/logging"
	"nfl-pickem/models"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GameCommand creates or edits a scheduled game. A nil LockTime derives it from kickoff.
type GameCommand struct {
	Season       int        `json:"season" validate:"gt=0"`
	Week         int        `json:"week" validate:"min=1,max=18"`
	AwayTeam     string     `json:"awayTeam" validate:"required,max=64"`
	HomeTeam     string     `json:"homeTeam" validate:"required,max=64"`
	Date         time.Time  `json:"date"`
	LockTime     *time.Time `json:"lockTime,omitempty"`
	IsTiebreaker bool       `json:"isTiebreaker"`
	Network      string     `json:"network" validate:"max=32"`
	Venue        string     `json:"venue" validate:"max=128"`
}

// AdminGameView is a game with the number of picks made on it
type AdminGameView struct {
	*models.Game
	PickCount int `json:"pickCount"`
}

// GameService is the admin schedule editor. Once a game has picks its season, week and teams
// are frozen and it can no longer be deleted.
type GameService struct {
	games      interfaces.GameRepository
	picks      interfaces.PickRepository
	lockOffset time.Duration
	logger     *logging.Logger
}

// NewGameService creates a new game service
func NewGameService(games interfaces.GameRepository, picks interfaces.PickRepository, lockOffset time.Duration) *GameService {
	if lockOffset <= 0 {
		lockOffset = models.DefaultLockOffset
	}
	return &GameService{
		games:      games,
		picks:      picks,
		lockOffset: lockOffset,
		logger:     logging.WithPrefix("Games"),
	}
}

// ListGames returns a season's games with their pick counts
func (s *GameService) ListGames(ctx context.Context, season int) ([]AdminGameView, error) {
	games, err := s.games.FindBySeason(ctx, season)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load games")
	}
	picks, err := s.picks.FindBySeason(ctx, season)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load picks")
	}
	counts := make(map[primitive.ObjectID]int, len(games))
	for _, p := range picks {
		counts[p.GameID]++
	}

	out := make([]AdminGameView, 0, len(games))
	for _, g := range games {
		out = append(out, AdminGameView{Game: g, PickCount: counts[g.ID]})
	}
	return out, nil
}

// normalize validates cmd and rewrites its teams to the stored short names
func (s *GameService) normalize(ctx context.Context, cmd *GameCommand) error {
	if err := validateInput(ctx, cmd); err != nil {
		return err
	}
	if cmd.Date.IsZero() {
		return errors.Wrap(models.ErrInvalidInput, "kickoff date is required")
	}
	cmd.AwayTeam = models.CanonicalTeamName(cmd.AwayTeam)
	cmd.HomeTeam = models.CanonicalTeamName(cmd.HomeTeam)
	if strings.EqualFold(cmd.AwayTeam, cmd.HomeTeam) {
		return errors.Wrap(models.ErrInvalidInput, "away and home team must differ")
	}
	return nil
}

// checkUnscheduled fails with ErrConflict when the pairing already exists in the week
func (s *GameService) checkUnscheduled(ctx context.Context, cmd *GameCommand, self primitive.ObjectID) error {
	existing, err := s.games.FindByWeek(ctx, cmd.Season, cmd.Week)
	if err != nil {
		return errors.Wrap(err, "failed to load games")
	}
	key := models.TeamPairKey(cmd.AwayTeam, cmd.HomeTeam)
	for _, g := range existing {
		if g.ID != self && g.MatchKey() == key {
			return errors.Wrapf(models.ErrConflict, "%s is already scheduled in week %d", g.DisplayName(), cmd.Week)
		}
	}
	return nil
}

func (s *GameService) applySchedule(game *models.Game, cmd *GameCommand) {
	game.Season, game.Week = cmd.Season, cmd.Week
	game.AwayTeam, game.HomeTeam = cmd.AwayTeam, cmd.HomeTeam
	game.Date = cmd.Date
	game.IsTiebreaker = cmd.IsTiebreaker
	game.Network, game.Venue = cmd.Network, cmd.Venue
	if cmd.LockTime != nil {
		game.LockTime = *cmd.LockTime
	} else {
		game.LockTime = time.Time{}
		game.EnsureLockTime(s.lockOffset)
	}
}

// CreateGame adds a scheduled game
func (s *GameService) CreateGame(ctx context.Context, adminID primitive.ObjectID, cmd GameCommand) (*models.Game, error) {
	if err := s.normalize(ctx, &cmd); err != nil {
		return nil, err
	}
	if err := s.checkUnscheduled(ctx, &cmd, primitive.NilObjectID); err != nil {
		return nil, err
	}

	game := &models.Game{Status: models.GameStatusScheduled}
	s.applySchedule(game, &cmd)
	if err := s.games.Create(ctx, game); err != nil {
		return nil, errors.Wrap(err, "failed to create game")
	}
	s.logger.Infof("Admin %s created %s (season %d week %d)", adminID.Hex(), game.DisplayName(), game.Season, game.Week)
	return game, nil
}

// UpdateGame edits a game's schedule fields. Changing the season, week or teams of a game
// that already has picks fails with ErrConflict.
func (s *GameService) UpdateGame(ctx context.Context, adminID, gameID primitive.ObjectID, cmd GameCommand) (*models.Game, error) {
	if err := s.normalize(ctx, &cmd); err != nil {
		return nil, err
	}
	game, err := s.games.FindByID(ctx, gameID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load game")
	}
	if game == nil {
		return nil, errors.Wrapf(models.ErrNotFound, "game %s", gameID.Hex())
	}

	identityChanged := game.Season != cmd.Season || game.Week != cmd.Week ||
		game.AwayTeam != cmd.AwayTeam || game.HomeTeam != cmd.HomeTeam
	if identityChanged {
		picks, err := s.picks.FindByGame(ctx, game.ID)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load picks")
		}
		if len(picks) > 0 {
			return nil, errors.Wrapf(models.ErrConflict,
				"cannot change season, week or teams of %s, it has %d picks", game.DisplayName(), len(picks))
		}
		if err := s.checkUnscheduled(ctx, &cmd, game.ID); err != nil {
			return nil, err
		}
	}

	s.applySchedule(game, &cmd)
	if err := s.games.Update(ctx, game); err != nil {
		return nil, errors.Wrap(err, "failed to update game")
	}
	s.logger.Infof("Admin %s updated %s", adminID.Hex(), game.DisplayName())
	return game, nil
}

// DeleteGame removes a game that nobody has picked
func (s *GameService) DeleteGame(ctx context.Context, adminID, gameID primitive.ObjectID) error {
	game, err := s.games.FindByID(ctx, gameID)
	if err != nil {
		return errors.Wrap(err, "failed to load game")
	}
	if game == nil {
		return errors.Wrapf(models.ErrNotFound, "game %s", gameID.Hex())
	}

	picks, err := s.picks.FindByGame(ctx, game.ID)
	if err != nil {
		return errors.Wrap(err, "failed to load picks")
	}
	if len(picks) > 0 {
		return errors.Wrapf(models.ErrConflict, "cannot delete %s, it has %d picks", game.DisplayName(), len(picks))
	}

	if err := s.games.Delete(ctx, game.ID); err != nil {
		return errors.Wrap(err, "failed to delete game")
	}
	s.logger.Infof("Admin %s deleted %s", adminID.Hex(), game.DisplayName())
	return nil
}
