package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"nfl-pickem/interfaces"
	"nfl-pickem/logging"
	"nfl-pickem/models"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PickSelection is one game's selection in a weekly submission
type PickSelection struct {
	GameID          primitive.ObjectID `json:"gameId"`
	SelectedTeam    string             `json:"selectedTeam" validate:"required,max=64"`
	TiebreakerTotal *int               `json:"tiebreakerTotal,omitempty" validate:"omitempty,gte=0,lte=200"`
	TiebreakerAway  *int               `json:"tiebreakerAway,omitempty" validate:"omitempty,gte=0,lte=150"`
	TiebreakerHome  *int               `json:"tiebreakerHome,omitempty" validate:"omitempty,gte=0,lte=150"`
}

// WeekPicksCommand submits or updates a user's picks for one week
type WeekPicksCommand struct {
	Season int             `json:"season" validate:"gt=0"`
	Week   int             `json:"week" validate:"min=1,max=18"`
	Picks  []PickSelection `json:"picks" validate:"required,min=1,max=32,dive"`
}

// AdminPickCommand creates or edits a pick on a user's behalf
type AdminPickCommand struct {
	UserID          primitive.ObjectID `json:"userId"`
	GameID          primitive.ObjectID `json:"gameId"`
	SelectedTeam    string             `json:"selectedTeam" validate:"required,max=64"`
	TiebreakerTotal *int               `json:"tiebreakerTotal,omitempty" validate:"omitempty,gte=0,lte=200"`
	Reason          string             `json:"reason" validate:"max=500"`
}

// PickService enforces the pick lifecycle: submission, edits, deletion and admin corrections
type PickService struct {
	games      interfaces.GameRepository
	results    interfaces.GameResultRepository
	picks      interfaces.PickRepository
	users      interfaces.UserRepository
	activities *ActivityLogger
	scoring    *ScoringService
	logger     *logging.Logger
	now        func() time.Time
}

// NewPickService creates a new pick service
func NewPickService(
	games interfaces.GameRepository,
	results interfaces.GameResultRepository,
	picks interfaces.PickRepository,
	users interfaces.UserRepository,
	activities *ActivityLogger,
	scoring *ScoringService,
) *PickService {
	return &PickService{
		games:      games,
		results:    results,
		picks:      picks,
		users:      users,
		activities: activities,
		scoring:    scoring,
		logger:     logging.WithPrefix("Picks"),
		now:        time.Now,
	}
}

// UserWeekPicks returns a user's picks for a week
func (s *PickService) UserWeekPicks(ctx context.Context, userID primitive.ObjectID, season, week int) ([]*models.Pick, error) {
	if !models.ValidWeek(week) {
		return nil, errors.Wrapf(models.ErrInvalidInput, "week %d", week)
	}
	return s.picks.FindByUserWeek(ctx, userID, season, week)
}

// LeagueWeekPicks returns every user's picks for a week on games that have locked.
// Picks on games still open are withheld so nobody can copy them.
func (s *PickService) LeagueWeekPicks(ctx context.Context, season, week int) ([]models.LeaguePick, error) {
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
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load users")
	}

	now := s.now()
	order := make(map[primitive.ObjectID]int, len(games))
	locked := make(map[primitive.ObjectID]*models.Game, len(games))
	for i, g := range games {
		order[g.ID] = i
		if g.IsGameLocked(now) {
			locked[g.ID] = g
		}
	}
	names := make(map[primitive.ObjectID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}

	out := make([]models.LeaguePick, 0, len(picks))
	for _, p := range picks {
		game, ok := locked[p.GameID]
		if !ok {
			continue
		}
		out = append(out, models.LeaguePick{Pick: p, UserName: names[p.UserID], Game: game.DisplayName()})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if order[out[i].GameID] != order[out[j].GameID] {
			return order[out[i].GameID] < order[out[j].GameID]
		}
		return strings.ToLower(out[i].UserName) < strings.ToLower(out[j].UserName)
	})
	return out, nil
}

// weekGames loads a week's games keyed by id
func (s *PickService) weekGames(ctx context.Context, season, week int) (map[primitive.ObjectID]*models.Game, error) {
	games, err := s.games.FindByWeek(ctx, season, week)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load games")
	}
	out := make(map[primitive.ObjectID]*models.Game, len(games))
	for _, g := range games {
		out[g.ID] = g
	}
	return out, nil
}

// resolveSelection checks the game belongs to the week and the team plays in it,
// returning the stored team name
func resolveSelection(games map[primitive.ObjectID]*models.Game, sel PickSelection) (*models.Game, string, error) {
	game, ok := games[sel.GameID]
	if !ok {
		return nil, "", errors.Wrapf(models.ErrInvalidInput, "game %s is not in this week", sel.GameID.Hex())
	}
	team, err := teamFor(game, sel.SelectedTeam)
	return game, team, err
}

func teamFor(game *models.Game, selected string) (string, error) {
	team := models.CanonicalTeamName(selected)
	if !game.HasTeam(team) {
		return "", errors.Wrapf(models.ErrInvalidInput, "%s is not playing in %s", selected, game.DisplayName())
	}
	return team, nil
}

func lockedError(locked []string) error {
	return errors.Wrapf(models.ErrGameLocked, "picks are locked for %s", strings.Join(locked, ", "))
}

func checkUnique(selections []PickSelection) error {
	seen := make(map[primitive.ObjectID]bool, len(selections))
	for _, sel := range selections {
		if seen[sel.GameID] {
			return errors.Wrapf(models.ErrInvalidInput, "game %s appears more than once", sel.GameID.Hex())
		}
		seen[sel.GameID] = true
	}
	return nil
}

// SubmitPicks creates a user's picks for a week. Games already picked are skipped; if nothing
// new remains the submission fails with ErrDuplicatePick. Any locked game rejects the batch.
func (s *PickService) SubmitPicks(ctx context.Context, userID primitive.ObjectID, cmd WeekPicksCommand) ([]*models.Pick, error) {
	if err := validateInput(ctx, cmd); err != nil {
		return nil, err
	}
	if err := checkUnique(cmd.Picks); err != nil {
		return nil, err
	}

	games, err := s.weekGames(ctx, cmd.Season, cmd.Week)
	if err != nil {
		return nil, err
	}
	now := s.now()

	var locked []string
	pending := make([]*models.Pick, 0, len(cmd.Picks))
	for _, sel := range cmd.Picks {
		game, team, err := resolveSelection(games, sel)
		if err != nil {
			return nil, err
		}
		if !game.CanMakePicks(now) {
			locked = append(locked, game.DisplayName())
			continue
		}
		pending = append(pending, &models.Pick{
			UserID:          userID,
			GameID:          game.ID,
			Week:            game.Week,
			Season:          game.Season,
			SelectedTeam:    team,
			TiebreakerTotal: sel.TiebreakerTotal,
			TiebreakerAway:  sel.TiebreakerAway,
			TiebreakerHome:  sel.TiebreakerHome,
			SubmittedAt:     now,
			LastModified:    now,
		})
	}
	if len(locked) > 0 {
		return nil, lockedError(locked)
	}

	existing, err := s.picks.FindByUserWeek(ctx, userID, cmd.Season, cmd.Week)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load existing picks")
	}
	already := make(map[primitive.ObjectID]bool, len(existing))
	for _, p := range existing {
		already[p.GameID] = true
	}

	created := make([]*models.Pick, 0, len(pending))
	gameIDs := make([]primitive.ObjectID, 0, len(pending))
	for _, pick := range pending {
		if already[pick.GameID] {
			continue
		}
		if err := s.picks.Create(ctx, pick); err != nil {
			if errors.Is(err, models.ErrDuplicatePick) {
				continue
			}
			return created, errors.Wrap(err, "failed to save pick")
		}
		created = append(created, pick)
		gameIDs = append(gameIDs, pick.GameID)
	}
	if len(created) == 0 {
		return nil, errors.Wrapf(models.ErrDuplicatePick, "all picks for week %d were already submitted", cmd.Week)
	}

	s.activities.Record(ctx, models.NewPickSubmissionActivity(userID, cmd.Season, cmd.Week, gameIDs))
	s.logger.Infof("User %s submitted %d picks for week %d", userID.Hex(), len(created), cmd.Week)
	return created, nil
}

// UpdatePicks changes a user's existing picks. Only changed picks are written.
func (s *PickService) UpdatePicks(ctx context.Context, userID primitive.ObjectID, cmd WeekPicksCommand) ([]*models.Pick, error) {
	if err := validateInput(ctx, cmd); err != nil {
		return nil, err
	}
	if err := checkUnique(cmd.Picks); err != nil {
		return nil, err
	}

	games, err := s.weekGames(ctx, cmd.Season, cmd.Week)
	if err != nil {
		return nil, err
	}
	existing, err := s.picks.FindByUserWeek(ctx, userID, cmd.Season, cmd.Week)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load existing picks")
	}
	byGame := make(map[primitive.ObjectID]*models.Pick, len(existing))
	for _, p := range existing {
		byGame[p.GameID] = p
	}

	now := s.now()
	type change struct {
		game     *models.Game
		pick     *models.Pick
		previous string
	}
	var locked []string
	changes := make([]change, 0, len(cmd.Picks))
	for _, sel := range cmd.Picks {
		game, team, err := resolveSelection(games, sel)
		if err != nil {
			return nil, err
		}
		current, ok := byGame[game.ID]
		if !ok {
			return nil, errors.Wrapf(models.ErrNotFound, "no pick for %s", game.DisplayName())
		}

		next := *current
		next.SelectedTeam = team
		next.TiebreakerTotal, next.TiebreakerAway, next.TiebreakerHome = sel.TiebreakerTotal, sel.TiebreakerAway, sel.TiebreakerHome
		if current.SameSelection(&next) {
			continue
		}
		if !game.CanMakePicks(now) {
			locked = append(locked, game.DisplayName())
			continue
		}
		next.LastModified = now
		next.EditSource = models.EditSourceUserUpdate
		changes = append(changes, change{game: game, pick: &next, previous: current.SelectedTeam})
	}
	if len(locked) > 0 {
		return nil, lockedError(locked)
	}

	updated := make([]*models.Pick, 0, len(changes))
	for _, c := range changes {
		if err := s.picks.UpdateSelection(ctx, c.pick); err != nil {
			return updated, errors.Wrap(err, "failed to update pick")
		}
		updated = append(updated, c.pick)
		s.activities.Record(ctx, models.NewPickUpdateActivity(userID, c.game, c.previous, c.pick.SelectedTeam))
	}
	if len(updated) > 0 {
		s.logger.Infof("User %s updated %d picks for week %d", userID.Hex(), len(updated), cmd.Week)
	}
	return updated, nil
}

// DeleteWeekPicks removes all of a user's picks for a week; refused once any of its games locked
func (s *PickService) DeleteWeekPicks(ctx context.Context, userID primitive.ObjectID, season, week int) (int, error) {
	if !models.ValidWeek(week) {
		return 0, errors.Wrapf(models.ErrInvalidInput, "week %d", week)
	}
	picks, err := s.picks.FindByUserWeek(ctx, userID, season, week)
	if err != nil {
		return 0, errors.Wrap(err, "failed to load picks")
	}
	if len(picks) == 0 {
		return 0, errors.Wrapf(models.ErrNotFound, "no picks for week %d", week)
	}

	ids := make([]primitive.ObjectID, 0, len(picks))
	for _, p := range picks {
		ids = append(ids, p.GameID)
	}
	games, err := s.games.FindByIDs(ctx, ids)
	if err != nil {
		return 0, errors.Wrap(err, "failed to load games")
	}
	byID := make(map[primitive.ObjectID]*models.Game, len(games))
	now := s.now()
	var locked []string
	for _, g := range games {
		byID[g.ID] = g
		if !g.CanMakePicks(now) {
			locked = append(locked, g.DisplayName())
		}
	}
	if len(locked) > 0 {
		return 0, lockedError(locked)
	}

	deleted := 0
	for _, p := range picks {
		if err := s.picks.Delete(ctx, p.ID); err != nil {
			return deleted, errors.Wrap(err, "failed to delete pick")
		}
		deleted++
		s.activities.Record(ctx, models.NewPickDeleteActivity(userID, p, byID[p.GameID], false))
	}

	if err := s.scoring.RecalculateUser(ctx, userID); err != nil {
		s.logger.Errorf("Failed to recalculate totals for %s: %v", userID.Hex(), err)
	}
	s.logger.Infof("User %s deleted %d picks for week %d", userID.Hex(), deleted, week)
	return deleted, nil
}

// requeue sends a final game back through grading after an admin touched its picks. The
// version bump also fails any grading pass already holding the old pick list.
func (s *PickService) requeue(ctx context.Context, game *models.Game) {
	result, err := s.results.FindByGameID(ctx, game.ID)
	if err != nil {
		s.logger.Errorf("Failed to load result for %s: %v", game.DisplayName(), err)
		return
	}
	if result == nil || result.Status != models.GameStatusFinal {
		return
	}
	if err := s.results.MarkForRegrade(ctx, game.ID); err != nil {
		s.logger.Errorf("Failed to requeue %s for grading: %v", game.DisplayName(), err)
		return
	}
	s.logger.Infof("Requeued %s for grading", game.DisplayName())
}

func (s *PickService) loadGame(ctx context.Context, id primitive.ObjectID) (*models.Game, error) {
	game, err := s.games.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load game")
	}
	if game == nil {
		return nil, errors.Wrapf(models.ErrNotFound, "game %s", id.Hex())
	}
	return game, nil
}

// AdminCreatePick creates a pick for a user, bypassing the lock
func (s *PickService) AdminCreatePick(ctx context.Context, adminID primitive.ObjectID, cmd AdminPickCommand) (*models.Pick, error) {
	if err := validateInput(ctx, cmd); err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, cmd.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load user")
	}
	if user == nil {
		return nil, errors.Wrapf(models.ErrNotFound, "user %s", cmd.UserID.Hex())
	}
	game, err := s.loadGame(ctx, cmd.GameID)
	if err != nil {
		return nil, err
	}
	team, err := teamFor(game, cmd.SelectedTeam)
	if err != nil {
		return nil, err
	}

	now := s.now()
	locked := game.IsGameLocked(now)
	if locked {
		s.logger.Warnf("Admin %s creating pick on locked game %s for %s", adminID.Hex(), game.DisplayName(), user.Name)
	}

	admin := adminID
	pick := &models.Pick{
		UserID:          user.ID,
		GameID:          game.ID,
		Week:            game.Week,
		Season:          game.Season,
		SelectedTeam:    team,
		TiebreakerTotal: cmd.TiebreakerTotal,
		SubmittedAt:     now,
		LastModified:    now,
		EditedBy:        &admin,
		EditedAt:        &now,
		EditReason:      cmd.Reason,
		EditSource:      models.EditSourceAdminEdit,
	}
	if err := s.picks.Create(ctx, pick); err != nil {
		if errors.Is(err, models.ErrDuplicatePick) {
			return nil, err
		}
		return nil, errors.Wrap(err, "failed to save pick")
	}

	s.activities.Record(ctx, models.NewAdminEditActivity(adminID, user.ID, game, models.NoPickValue, team, cmd.Reason, locked))
	s.requeue(ctx, game)
	return pick, nil
}

// AdminEditPick changes any pick, bypassing the lock. A pick on an already graded game is
// regraded on the next grading pass.
func (s *PickService) AdminEditPick(ctx context.Context, adminID, pickID primitive.ObjectID, cmd AdminPickCommand) (*models.Pick, error) {
	if err := validateInput(ctx, cmd); err != nil {
		return nil, err
	}
	current, err := s.picks.FindByID(ctx, pickID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load pick")
	}
	if current == nil {
		return nil, errors.Wrapf(models.ErrNotFound, "pick %s", pickID.Hex())
	}
	game, err := s.loadGame(ctx, current.GameID)
	if err != nil {
		return nil, err
	}
	team, err := teamFor(game, cmd.SelectedTeam)
	if err != nil {
		return nil, err
	}

	now := s.now()
	locked := game.IsGameLocked(now)
	if locked {
		s.logger.Warnf("Admin %s editing pick on locked game %s", adminID.Hex(), game.DisplayName())
	}

	admin := adminID
	next := *current
	next.SelectedTeam = team
	if cmd.TiebreakerTotal != nil {
		next.TiebreakerTotal = cmd.TiebreakerTotal
	}
	next.LastModified = now
	next.EditedBy = &admin
	next.EditedAt = &now
	next.EditReason = cmd.Reason
	next.EditSource = models.EditSourceAdminEdit
	if err := s.picks.UpdateSelection(ctx, &next); err != nil {
		return nil, errors.Wrap(err, "failed to update pick")
	}

	s.activities.Record(ctx, models.NewAdminEditActivity(adminID, current.UserID, game, current.SelectedTeam, team, cmd.Reason, locked))
	s.requeue(ctx, game)
	return &next, nil
}

// AdminDeletePick removes any pick and recomputes its owner's totals
func (s *PickService) AdminDeletePick(ctx context.Context, adminID, pickID primitive.ObjectID) error {
	pick, err := s.picks.FindByID(ctx, pickID)
	if err != nil {
		return errors.Wrap(err, "failed to load pick")
	}
	if pick == nil {
		return errors.Wrapf(models.ErrNotFound, "pick %s", pickID.Hex())
	}
	game, err := s.games.FindByID(ctx, pick.GameID)
	if err != nil {
		return errors.Wrap(err, "failed to load game")
	}

	if err := s.picks.Delete(ctx, pick.ID); err != nil {
		return errors.Wrap(err, "failed to delete pick")
	}
	s.activities.Record(ctx, models.NewPickDeleteActivity(adminID, pick, game, true))

	if err := s.scoring.RecalculateUser(ctx, pick.UserID); err != nil {
		s.logger.Errorf("Failed to recalculate totals for %s: %v", pick.UserID.Hex(), err)
	}
	if pick.IsFinalized() {
		week := models.SeasonWeek{Season: pick.Season, Week: pick.Week}
		if _, err := s.scoring.ResettleWeeks(ctx, []models.SeasonWeek{week}); err != nil {
			s.logger.Errorf("Failed to re-settle week %d: %v", pick.Week, err)
		}
	}
	return nil
}
