package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EditSource records who last changed a pick's selection
type EditSource string

const (
	EditSourceNone       EditSource = ""
	EditSourceUserUpdate EditSource = "user_update"
	EditSourceAdminEdit  EditSource = "admin_edit"
)

// PickStatus is the display state of a pick
type PickStatus string

const (
	PickStatusPending   PickStatus = "pending"
	PickStatusCorrect   PickStatus = "correct"
	PickStatusIncorrect PickStatus = "incorrect"
)

// PickResult is the result snapshot written onto a pick when it is graded.
// It is overwritten on every regrade.
type PickResult struct {
	Winner      string    `json:"winner" bson:"winner"`
	AwayScore   int       `json:"awayScore" bson:"awayScore"`
	HomeScore   int       `json:"homeScore" bson:"homeScore"`
	FinalScore  string    `json:"finalScore" bson:"finalScore"`
	IsCorrect   bool      `json:"isCorrect" bson:"isCorrect"`
	Points      int       `json:"points" bson:"points"`
	ProcessedAt time.Time `json:"processedAt" bson:"processedAt"`
}

// Pick is one user's selection for one game
type Pick struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID       primitive.ObjectID `json:"userId" bson:"userId"`
	GameID       primitive.ObjectID `json:"gameId" bson:"gameId"`
	Week         int                `json:"week" bson:"week"`
	Season       int                `json:"season" bson:"season"`
	SelectedTeam string             `json:"selectedTeam" bson:"selectedTeam"`

	// Tiebreaker prediction, only meaningful on the week's tiebreaker game
	TiebreakerTotal *int `json:"tiebreakerTotal,omitempty" bson:"tiebreakerTotal,omitempty"`
	TiebreakerAway  *int `json:"tiebreakerAway,omitempty" bson:"tiebreakerAway,omitempty"`
	TiebreakerHome  *int `json:"tiebreakerHome,omitempty" bson:"tiebreakerHome,omitempty"`

	IsCorrect *bool       `json:"isCorrect" bson:"isCorrect"`
	Points    int         `json:"points" bson:"points"`
	Result    *PickResult `json:"result,omitempty" bson:"result,omitempty"`

	SubmittedAt  time.Time           `json:"submittedAt" bson:"submittedAt"`
	LastModified time.Time           `json:"lastModified" bson:"lastModified"`
	EditedBy     *primitive.ObjectID `json:"editedBy,omitempty" bson:"editedBy,omitempty"`
	EditedAt     *time.Time          `json:"editedAt,omitempty" bson:"editedAt,omitempty"`
	EditReason   string              `json:"editReason,omitempty" bson:"editReason,omitempty"`
	EditSource   EditSource          `json:"editSource,omitempty" bson:"editSource,omitempty"`
}

// IsFinalized reports whether the pick has been graded
func (p *Pick) IsFinalized() bool {
	return p.IsCorrect != nil
}

// IsWin reports whether the pick was graded correct
func (p *Pick) IsWin() bool {
	return p.IsCorrect != nil && *p.IsCorrect
}

// Status returns pending, correct or incorrect
func (p *Pick) Status() PickStatus {
	switch {
	case p.IsCorrect == nil:
		return PickStatusPending
	case *p.IsCorrect:
		return PickStatusCorrect
	}
	return PickStatusIncorrect
}

// PredictedTotal returns the combined-score prediction, from the total field or the two sides
func (p *Pick) PredictedTotal() (int, bool) {
	if p.TiebreakerTotal != nil {
		return *p.TiebreakerTotal, true
	}
	if p.TiebreakerAway != nil && p.TiebreakerHome != nil {
		return *p.TiebreakerAway + *p.TiebreakerHome, true
	}
	return 0, false
}

// SameSelection reports whether other carries the same user-editable values
func (p *Pick) SameSelection(other *Pick) bool {
	return p.SelectedTeam == other.SelectedTeam &&
		IntPtrEqual(p.TiebreakerTotal, other.TiebreakerTotal) &&
		IntPtrEqual(p.TiebreakerAway, other.TiebreakerAway) &&
		IntPtrEqual(p.TiebreakerHome, other.TiebreakerHome)
}

// BoolPtr returns a pointer to v
func BoolPtr(v bool) *bool {
	return &v
}

// PickGrade is the grading output written onto one pick
type PickGrade struct {
	PickID    primitive.ObjectID
	IsCorrect bool
	Points    int
	Result    PickResult
}

// LeaguePick is a pick shown on the league view of a week, with its owner's name
type LeaguePick struct {
	*Pick
	UserName string `json:"userName"`
	Game     string `json:"game"`
}
