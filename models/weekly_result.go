package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WeeklyUserScore is one user's line in a week's final tally
type WeeklyUserScore struct {
	UserID         primitive.ObjectID `json:"userId" bson:"userId"`
	Name           string             `json:"name" bson:"name"`
	TotalPicks     int                `json:"totalPicks" bson:"totalPicks"`
	CorrectPicks   int                `json:"correctPicks" bson:"correctPicks"`
	Points         int                `json:"points" bson:"points"`
	TiebreakerDiff *int               `json:"tiebreakerDiff,omitempty" bson:"tiebreakerDiff,omitempty"`
}

// WeeklyResult is the stored outcome of a week: every user's tally and the winner set.
// One document per season and week; recalculating a week replaces it.
type WeeklyResult struct {
	ID                primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Season            int                  `json:"season" bson:"season"`
	Week              int                  `json:"week" bson:"week"`
	HighestScore      int                  `json:"highestScore" bson:"highestScore"`
	Winners           []primitive.ObjectID `json:"winners" bson:"winners"`
	Scores            []WeeklyUserScore    `json:"scores" bson:"scores"`
	IsTie             bool                 `json:"isTie" bson:"isTie"`
	TiebreakerApplied bool                 `json:"tiebreakerApplied" bson:"tiebreakerApplied"`
	CalculatedAt      time.Time            `json:"calculatedAt" bson:"calculatedAt"`
}

// IsWinner reports whether userID is in the winner set
func (w *WeeklyResult) IsWinner(userID primitive.ObjectID) bool {
	for _, id := range w.Winners {
		if id == userID {
			return true
		}
	}
	return false
}

// CorrectFor returns userID's correct count for the week
func (w *WeeklyResult) CorrectFor(userID primitive.ObjectID) (int, bool) {
	for _, s := range w.Scores {
		if s.UserID == userID {
			return s.CorrectPicks, true
		}
	}
	return 0, false
}
