package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TieWinner is the winner sentinel for a final game with equal scores
const TieWinner = "tie"

// ScoreOverride records an admin correction and the values it replaced
type ScoreOverride struct {
	OverriddenBy      primitive.ObjectID `json:"overriddenBy" bson:"overriddenBy"`
	OverriddenAt      time.Time          `json:"overriddenAt" bson:"overriddenAt"`
	Reason            string             `json:"reason" bson:"reason"`
	PreviousAwayScore *int               `json:"previousAwayScore" bson:"previousAwayScore"`
	PreviousHomeScore *int               `json:"previousHomeScore" bson:"previousHomeScore"`
	PreviousStatus    GameStatus         `json:"previousStatus" bson:"previousStatus"`
}

// GameResult is the authoritative outcome record for a game, graded independently of the schedule
type GameResult struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	GameID        primitive.ObjectID `json:"gameId" bson:"gameId"`
	Season        int                `json:"season" bson:"season"`
	Week          int                `json:"week" bson:"week"`
	AwayTeam      string             `json:"awayTeam" bson:"awayTeam"`
	HomeTeam      string             `json:"homeTeam" bson:"homeTeam"`
	AwayScore     *int               `json:"awayScore" bson:"awayScore"`
	HomeScore     *int               `json:"homeScore" bson:"homeScore"`
	FinalScore    string             `json:"finalScore,omitempty" bson:"finalScore"`
	Winner        string             `json:"winner,omitempty" bson:"winner"`
	Status        GameStatus         `json:"status" bson:"status"`
	Quarter       string             `json:"quarter,omitempty" bson:"quarter"`
	TimeRemaining string             `json:"timeRemaining,omitempty" bson:"timeRemaining"`
	ProviderID    string             `json:"providerId,omitempty" bson:"providerId,omitempty"`
	Processed     bool               `json:"processed" bson:"processed"`
	ProcessedAt   *time.Time         `json:"processedAt,omitempty" bson:"processedAt"`
	ScoreOverride *ScoreOverride     `json:"scoreOverride,omitempty" bson:"scoreOverride,omitempty"`
	Version       int64              `json:"version" bson:"version"`
	LastUpdated   time.Time          `json:"lastUpdated" bson:"lastUpdated"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
}

// NeedsGrading is true while the grading engine owes this result a pass over its picks
func (r *GameResult) NeedsGrading() bool {
	return r.Status == GameStatusFinal && !r.Processed
}

// IsOverridden reports whether an admin has replaced the provider's scores
func (r *GameResult) IsOverridden() bool {
	return r.ScoreOverride != nil
}

// DetermineWinner returns the winning team name, or TieWinner on equal scores
func DetermineWinner(awayTeam, homeTeam string, awayScore, homeScore int) string {
	switch {
	case awayScore > homeScore:
		return awayTeam
	case homeScore > awayScore:
		return homeTeam
	}
	return TieWinner
}

// FormatFinalScore renders "away-home"
func FormatFinalScore(awayScore, homeScore int) string {
	return fmt.Sprintf("%d-%d", awayScore, homeScore)
}

// ScoreValue dereferences a nullable score, treating nil as 0
func ScoreValue(score *int) int {
	if score == nil {
		return 0
	}
	return *score
}
