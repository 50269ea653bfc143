package models

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActivityType discriminates Activity records
type ActivityType string

const (
	ActivityPickSubmission ActivityType = "pick_submission"
	ActivityPickUpdate     ActivityType = "pick_update"
	ActivityPickEdit       ActivityType = "pick_edit"
	ActivityPickDelete     ActivityType = "pick_delete"
	ActivityScoreOverride  ActivityType = "score_override"
)

// IsValid reports whether t is a known activity type
func (t ActivityType) IsValid() bool {
	switch t {
	case ActivityPickSubmission, ActivityPickUpdate, ActivityPickEdit, ActivityPickDelete, ActivityScoreOverride:
		return true
	}
	return false
}

// PickSubmissionMetadata accompanies pick_submission
type PickSubmissionMetadata struct {
	PicksCount int                  `json:"picksCount" bson:"picksCount"`
	GameIDs    []primitive.ObjectID `json:"gameIds" bson:"gameIds"`
}

// PickChangeMetadata accompanies pick_update and pick_edit
type PickChangeMetadata struct {
	PreviousValue string     `json:"previousValue" bson:"previousValue"`
	NewValue      string     `json:"newValue" bson:"newValue"`
	EditReason    string     `json:"editReason,omitempty" bson:"editReason,omitempty"`
	EditSource    EditSource `json:"editSource" bson:"editSource"`
	GameWasLocked bool       `json:"gameWasLocked" bson:"gameWasLocked"`
}

// PickDeleteMetadata accompanies pick_delete
type PickDeleteMetadata struct {
	PreviousValue string `json:"previousValue" bson:"previousValue"`
	ByAdmin       bool   `json:"byAdmin" bson:"byAdmin"`
}

// ScoreOverrideMetadata accompanies score_override
type ScoreOverrideMetadata struct {
	AwayTeam          string     `json:"awayTeam" bson:"awayTeam"`
	HomeTeam          string     `json:"homeTeam" bson:"homeTeam"`
	PreviousAwayScore *int       `json:"previousAwayScore" bson:"previousAwayScore"`
	PreviousHomeScore *int       `json:"previousHomeScore" bson:"previousHomeScore"`
	PreviousStatus    GameStatus `json:"previousStatus" bson:"previousStatus"`
	NewAwayScore      int        `json:"newAwayScore" bson:"newAwayScore"`
	NewHomeScore      int        `json:"newHomeScore" bson:"newHomeScore"`
	Reason            string     `json:"reason" bson:"reason"`
}

// ActivityMetadata holds exactly one variant, the one matching the activity's type
type ActivityMetadata struct {
	PickSubmission *PickSubmissionMetadata `json:"pickSubmission,omitempty" bson:"pickSubmission,omitempty"`
	PickChange     *PickChangeMetadata     `json:"pickChange,omitempty" bson:"pickChange,omitempty"`
	PickDelete     *PickDeleteMetadata     `json:"pickDelete,omitempty" bson:"pickDelete,omitempty"`
	ScoreOverride  *ScoreOverrideMetadata  `json:"scoreOverride,omitempty" bson:"scoreOverride,omitempty"`
}

func (m ActivityMetadata) variants() int {
	n := 0
	if m.PickSubmission != nil {
		n++
	}
	if m.PickChange != nil {
		n++
	}
	if m.PickDelete != nil {
		n++
	}
	if m.ScoreOverride != nil {
		n++
	}
	return n
}

// Activity is an append-only audit record. UserID is the actor; TargetUserID is the
// owner of the affected pick when an admin acts on someone else's behalf.
type Activity struct {
	ID           primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Type         ActivityType        `json:"type" bson:"type"`
	UserID       primitive.ObjectID  `json:"userId" bson:"userId"`
	TargetUserID *primitive.ObjectID `json:"targetUserId,omitempty" bson:"targetUserId,omitempty"`
	GameID       *primitive.ObjectID `json:"gameId,omitempty" bson:"gameId,omitempty"`
	Season       int                 `json:"season" bson:"season"`
	Week         int                 `json:"week" bson:"week"`
	Action       string              `json:"action" bson:"action"`
	Details      string              `json:"details" bson:"details"`
	Metadata     ActivityMetadata    `json:"metadata" bson:"metadata"`
	Timestamp    time.Time           `json:"timestamp" bson:"timestamp"`
}

// Validate checks that the metadata variant matches the activity type
func (a *Activity) Validate() error {
	if !a.Type.IsValid() {
		return errors.Wrapf(ErrInvalidInput, "unknown activity type %q", a.Type)
	}
	if a.Metadata.variants() != 1 {
		return errors.Wrapf(ErrInvalidInput, "activity %s must carry exactly one metadata variant", a.Type)
	}

	var ok bool
	switch a.Type {
	case ActivityPickSubmission:
		ok = a.Metadata.PickSubmission != nil
	case ActivityPickUpdate, ActivityPickEdit:
		ok = a.Metadata.PickChange != nil
	case ActivityPickDelete:
		ok = a.Metadata.PickDelete != nil
	case ActivityScoreOverride:
		ok = a.Metadata.ScoreOverride != nil
	}
	if !ok {
		return errors.Wrapf(ErrInvalidInput, "activity %s carries mismatched metadata", a.Type)
	}
	return nil
}

// NewPickSubmissionActivity records a user's batch submission for a week
func NewPickSubmissionActivity(userID primitive.ObjectID, season, week int, gameIDs []primitive.ObjectID) *Activity {
	return &Activity{
		Type:    ActivityPickSubmission,
		UserID:  userID,
		Season:  season,
		Week:    week,
		Action:  "Submitted picks",
		Details: fmt.Sprintf("Submitted %d picks for Week %d", len(gameIDs), week),
		Metadata: ActivityMetadata{PickSubmission: &PickSubmissionMetadata{
			PicksCount: len(gameIDs),
			GameIDs:    gameIDs,
		}},
		Timestamp: time.Now(),
	}
}

// NewPickUpdateActivity records a user changing their own pick
func NewPickUpdateActivity(userID primitive.ObjectID, game *Game, previous, next string) *Activity {
	gameID := game.ID
	return &Activity{
		Type:    ActivityPickUpdate,
		UserID:  userID,
		GameID:  &gameID,
		Season:  game.Season,
		Week:    game.Week,
		Action:  "Updated pick",
		Details: fmt.Sprintf("Changed pick for %s from %s to %s", game.DisplayName(), previous, next),
		Metadata: ActivityMetadata{PickChange: &PickChangeMetadata{
			PreviousValue: previous,
			NewValue:      next,
			EditSource:    EditSourceUserUpdate,
		}},
		Timestamp: time.Now(),
	}
}

// NewAdminEditActivity records an admin changing (or creating, when previous is "No pick") a user's pick
func NewAdminEditActivity(adminID, targetUserID primitive.ObjectID, game *Game, previous, next, reason string, locked bool) *Activity {
	gameID := game.ID
	target := targetUserID
	action := "Admin edited pick"
	if previous == NoPickValue {
		action = "Admin created pick"
	}
	return &Activity{
		Type:         ActivityPickEdit,
		UserID:       adminID,
		TargetUserID: &target,
		GameID:       &gameID,
		Season:       game.Season,
		Week:         game.Week,
		Action:       action,
		Details:      fmt.Sprintf("%s for %s: %s -> %s", action, game.DisplayName(), previous, next),
		Metadata: ActivityMetadata{PickChange: &PickChangeMetadata{
			PreviousValue: previous,
			NewValue:      next,
			EditReason:    reason,
			EditSource:    EditSourceAdminEdit,
			GameWasLocked: locked,
		}},
		Timestamp: time.Now(),
	}
}

// NewPickDeleteActivity records removal of a pick by its owner or an admin
func NewPickDeleteActivity(actorID primitive.ObjectID, pick *Pick, game *Game, byAdmin bool) *Activity {
	gameID := pick.GameID
	target := pick.UserID
	details := fmt.Sprintf("Deleted pick %s for Week %d", pick.SelectedTeam, pick.Week)
	if game != nil {
		details = fmt.Sprintf("Deleted pick %s for %s", pick.SelectedTeam, game.DisplayName())
	}
	return &Activity{
		Type:         ActivityPickDelete,
		UserID:       actorID,
		TargetUserID: &target,
		GameID:       &gameID,
		Season:       pick.Season,
		Week:         pick.Week,
		Action:       "Deleted pick",
		Details:      details,
		Metadata: ActivityMetadata{PickDelete: &PickDeleteMetadata{
			PreviousValue: pick.SelectedTeam,
			ByAdmin:       byAdmin,
		}},
		Timestamp: time.Now(),
	}
}

// NewScoreOverrideActivity records an admin score correction
func NewScoreOverrideActivity(adminID primitive.ObjectID, game *Game, override *ScoreOverride, awayScore, homeScore int) *Activity {
	gameID := game.ID
	return &Activity{
		Type:   ActivityScoreOverride,
		UserID: adminID,
		GameID: &gameID,
		Season: game.Season,
		Week:   game.Week,
		Action: "Overrode score",
		Details: fmt.Sprintf("%s: %s -> %s (%s)", game.DisplayName(),
			formatScorePair(override.PreviousAwayScore, override.PreviousHomeScore),
			FormatFinalScore(awayScore, homeScore), override.Reason),
		Metadata: ActivityMetadata{ScoreOverride: &ScoreOverrideMetadata{
			AwayTeam:          game.AwayTeam,
			HomeTeam:          game.HomeTeam,
			PreviousAwayScore: override.PreviousAwayScore,
			PreviousHomeScore: override.PreviousHomeScore,
			PreviousStatus:    override.PreviousStatus,
			NewAwayScore:      awayScore,
			NewHomeScore:      homeScore,
			Reason:            override.Reason,
		}},
		Timestamp: time.Now(),
	}
}

// NoPickValue is the previous value recorded when an admin creates a pick
const NoPickValue = "No pick"

func formatScorePair(away, home *int) string {
	if away == nil || home == nil {
		return "no score"
	}
	return FormatFinalScore(*away, *home)
}

// ActivityFilter narrows an activity feed query; zero values mean "any"
type ActivityFilter struct {
	Season int
	Week   int
	Type   ActivityType
	UserID *primitive.ObjectID
	Limit  int
}

// Matches reports whether a satisfies the filter (ignoring Limit)
func (f ActivityFilter) Matches(a *Activity) bool {
	if f.Season != 0 && a.Season != f.Season {
		return false
	}
	if f.Week != 0 && a.Week != f.Week {
		return false
	}
	if f.Type != "" && a.Type != f.Type {
		return false
	}
	if f.UserID != nil {
		if a.UserID != *f.UserID && (a.TargetUserID == nil || *a.TargetUserID != *f.UserID) {
			return false
		}
	}
	return true
}
