package models

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GameStatus represents the lifecycle state of a game
type GameStatus string

const (
	GameStatusScheduled GameStatus = "scheduled"
	GameStatusLive      GameStatus = "live"
	GameStatusFinal     GameStatus = "final"
	GameStatusPostponed GameStatus = "postponed"
	GameStatusCancelled GameStatus = "cancelled"
)

// IsValid reports whether s is one of the known statuses
func (s GameStatus) IsValid() bool {
	switch s {
	case GameStatusScheduled, GameStatusLive, GameStatusFinal, GameStatusPostponed, GameStatusCancelled:
		return true
	}
	return false
}

// IsAbsorbing is true for postponed and cancelled games. Picks on them are never graded.
func (s GameStatus) IsAbsorbing() bool {
	return s == GameStatusPostponed || s == GameStatusCancelled
}

// IsTerminal is true once no further score changes are expected
func (s GameStatus) IsTerminal() bool {
	return s == GameStatusFinal || s.IsAbsorbing()
}

// WinnerSide is the side of a finished game that won; empty for ties and unfinished games
type WinnerSide string

const (
	WinnerNone WinnerSide = ""
	WinnerAway WinnerSide = "away"
	WinnerHome WinnerSide = "home"
)

// DefaultLockOffset is how long before kickoff picks lock
const DefaultLockOffset = time.Hour

// Game represents a scheduled NFL game
type Game struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ProviderID    string             `json:"providerId,omitempty" bson:"providerId,omitempty"`
	Week          int                `json:"week" bson:"week"`
	Season        int                `json:"season" bson:"season"`
	AwayTeam      string             `json:"awayTeam" bson:"awayTeam"`
	HomeTeam      string             `json:"homeTeam" bson:"homeTeam"`
	Date          time.Time          `json:"date" bson:"date"`
	Network       string             `json:"network,omitempty" bson:"network,omitempty"`
	Venue         string             `json:"venue,omitempty" bson:"venue,omitempty"`
	AwayRecord    string             `json:"awayRecord" bson:"awayRecord"`
	HomeRecord    string             `json:"homeRecord" bson:"homeRecord"`
	AwayScore     *int               `json:"awayScore" bson:"awayScore"`
	HomeScore     *int               `json:"homeScore" bson:"homeScore"`
	Winner        WinnerSide         `json:"winner,omitempty" bson:"winner"`
	Status        GameStatus         `json:"status" bson:"status"`
	Quarter       string             `json:"quarter,omitempty" bson:"quarter"`
	TimeRemaining string             `json:"timeRemaining,omitempty" bson:"timeRemaining"`
	IsLocked      bool               `json:"isLocked" bson:"isLocked"`
	LockTime      time.Time          `json:"lockTime" bson:"lockTime"`
	IsTiebreaker  bool               `json:"isTiebreaker" bson:"isTiebreaker"`
	Spread        string             `json:"spread,omitempty" bson:"spread,omitempty"`
	OverUnder     string             `json:"overUnder,omitempty" bson:"overUnder,omitempty"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// DisplayName returns "Away @ Home"
func (g *Game) DisplayName() string {
	return fmt.Sprintf("%s @ %s", g.AwayTeam, g.HomeTeam)
}

// OddsKey is the key used by the provider's odds map
func (g *Game) OddsKey() string {
	return OddsKey(g.AwayTeam, g.HomeTeam)
}

// MatchKey identifies the game by its unordered team pair
func (g *Game) MatchKey() string {
	return TeamPairKey(g.AwayTeam, g.HomeTeam)
}

// IsGameLocked reports whether ordinary users can no longer change picks for this game
func (g *Game) IsGameLocked(now time.Time) bool {
	if g.IsLocked {
		return true
	}
	return !g.LockTime.IsZero() && now.After(g.LockTime)
}

// CanMakePicks reports whether a new pick may be created by a user
func (g *Game) CanMakePicks(now time.Time) bool {
	return !g.IsGameLocked(now) && g.Status == GameStatusScheduled
}

// HasTeam reports whether team is one of the game's two teams (exact match)
func (g *Game) HasTeam(team string) bool {
	return team == g.AwayTeam || team == g.HomeTeam
}

// WinnerTeam returns the winning team's name, or "" if there is none
func (g *Game) WinnerTeam() string {
	switch g.Winner {
	case WinnerAway:
		return g.AwayTeam
	case WinnerHome:
		return g.HomeTeam
	}
	return ""
}

// CombinedScore returns away+home when both scores are known
func (g *Game) CombinedScore() (int, bool) {
	if g.AwayScore == nil || g.HomeScore == nil {
		return 0, false
	}
	return *g.AwayScore + *g.HomeScore, true
}

// EnsureLockTime fills LockTime from kickoff when it was not set explicitly
func (g *Game) EnsureLockTime(offset time.Duration) {
	if g.LockTime.IsZero() && !g.Date.IsZero() {
		g.LockTime = g.Date.Add(-offset)
	}
}

// ComputeWinnerSide returns the winning side for a final game. Ties and non-final games have none.
func ComputeWinnerSide(status GameStatus, awayScore, homeScore *int) WinnerSide {
	if status != GameStatusFinal || awayScore == nil || homeScore == nil {
		return WinnerNone
	}
	switch {
	case *awayScore > *homeScore:
		return WinnerAway
	case *homeScore > *awayScore:
		return WinnerHome
	}
	return WinnerNone
}

// TeamPairKey builds an orientation-independent key for two team names
func TeamPairKey(a, b string) string {
	pair := []string{normalizeTeam(a), normalizeTeam(b)}
	sort.Strings(pair)
	return pair[0] + "|" + pair[1]
}

// OddsKey builds the "away@home" key
func OddsKey(away, home string) string {
	return away + "@" + home
}

func normalizeTeam(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}

// IntPtrEqual compares two nullable ints
func IntPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// GameScoreUpdate is the set of fields reconciliation writes onto a stored game
type GameScoreUpdate struct {
	Status        GameStatus
	AwayScore     *int
	HomeScore     *int
	Quarter       string
	TimeRemaining string
	Winner        WinnerSide
}

// Apply copies the update onto g
func (u GameScoreUpdate) Apply(g *Game) {
	g.Status = u.Status
	g.AwayScore = u.AwayScore
	g.HomeScore = u.HomeScore
	g.Quarter = u.Quarter
	g.TimeRemaining = u.TimeRemaining
	g.Winner = u.Winner
}
