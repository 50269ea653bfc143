package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// LeaderboardEntry is one row of the season leaderboard
type LeaderboardEntry struct {
	Rank           int                `json:"rank"`
	UserID         primitive.ObjectID `json:"userId"`
	Name           string             `json:"name"`
	TotalPicks     int                `json:"totalPicks"`
	FinalizedPicks int                `json:"finalizedPicks"`
	CorrectPicks   int                `json:"correctPicks"`
	TotalPoints    int                `json:"totalPoints"`
	WinPercentage  int                `json:"winPercentage"`
	CurrentStreak  int                `json:"currentStreak"`
	BestStreak     int                `json:"bestStreak"`
	WeeklyWins     int                `json:"weeklyWins"`
	BestWeekScore  int                `json:"bestWeekScore"`
}

// WeeklyLeaderboardEntry is one row of a single week's leaderboard
type WeeklyLeaderboardEntry struct {
	Rank          int                `json:"rank"`
	UserID        primitive.ObjectID `json:"userId"`
	Name          string             `json:"name"`
	TotalPicks    int                `json:"totalPicks"`
	CorrectPicks  int                `json:"correctPicks"`
	Points        int                `json:"points"`
	WinPercentage int                `json:"winPercentage"`
}

// WeekBreakdown summarizes one user's week
type WeekBreakdown struct {
	Week          int `json:"week"`
	Picks         int `json:"picks"`
	Correct       int `json:"correct"`
	Points        int `json:"points"`
	WinPercentage int `json:"winPercentage"`
}

// UserStats is the per-user stats view
type UserStats struct {
	UserID          primitive.ObjectID `json:"userId"`
	Name            string             `json:"name"`
	TotalPicks      int                `json:"totalPicks"`
	FinalizedPicks  int                `json:"finalizedPicks"`
	CorrectPicks    int                `json:"correctPicks"`
	TotalPoints     int                `json:"totalPoints"`
	WinPercentage   int                `json:"winPercentage"`
	CurrentStreak   int                `json:"currentStreak"`
	BestStreak      int                `json:"bestStreak"`
	WeeklyWins      int                `json:"weeklyWins"`
	BestWeekScore   int                `json:"bestWeekScore"`
	Rank            int                `json:"rank"`
	TotalPlayers    int                `json:"totalPlayers"`
	WeeklyBreakdown []WeekBreakdown    `json:"weeklyBreakdown"`
}

// StreakEntry is one row of the streak leaders list
type StreakEntry struct {
	Rank          int                `json:"rank"`
	UserID        primitive.ObjectID `json:"userId"`
	Name          string             `json:"name"`
	CurrentStreak int                `json:"currentStreak"`
	BestStreak    int                `json:"bestStreak"`
}

// GamePickDistribution shows how a week's picks split across one game
type GamePickDistribution struct {
	GameID    primitive.ObjectID `json:"gameId"`
	AwayTeam  string             `json:"awayTeam"`
	HomeTeam  string             `json:"homeTeam"`
	Status    GameStatus         `json:"status"`
	AwayPicks int                `json:"awayPicks"`
	HomePicks int                `json:"homePicks"`
	Correct   int                `json:"correct"`
	Finalized int                `json:"finalized"`
}

// WeekStats aggregates pick accuracy for one week
type WeekStats struct {
	Season       int                    `json:"season"`
	Week         int                    `json:"week"`
	TotalPicks   int                    `json:"totalPicks"`
	Finalized    int                    `json:"finalized"`
	Correct      int                    `json:"correct"`
	Accuracy     int                    `json:"accuracy"`
	Participants int                    `json:"participants"`
	Games        []GamePickDistribution `json:"games"`
}

// SeasonWeek identifies one week of one season
type SeasonWeek struct {
	Season int `json:"season"`
	Week   int `json:"week"`
}

// WeeklyWinsEntry is one row of the weekly wins leaderboard
type WeeklyWinsEntry struct {
	Rank          int                `json:"rank"`
	UserID        primitive.ObjectID `json:"userId"`
	Name          string             `json:"name"`
	WeeklyWins    int                `json:"weeklyWins"`
	BestWeekScore int                `json:"bestWeekScore"`
	TotalPicks    int                `json:"totalPicks"`
	CorrectPicks  int                `json:"correctPicks"`
	WinPercentage int                `json:"winPercentage"`
}

// SeasonWeekSummary is one week's line in the season stats
type SeasonWeekSummary struct {
	Week     int `json:"week"`
	Games    int `json:"games"`
	Picks    int `json:"picks"`
	Players  int `json:"players"`
	Accuracy int `json:"accuracy"`
}

// SeasonStats aggregates the whole league's season
type SeasonStats struct {
	Season          int                 `json:"season"`
	TotalGames      int                 `json:"totalGames"`
	TotalPicks      int                 `json:"totalPicks"`
	TotalPlayers    int                 `json:"totalPlayers"`
	OverallAccuracy int                 `json:"overallAccuracy"`
	Weeks           []SeasonWeekSummary `json:"weeks"`
	TopPerformers   []LeaderboardEntry  `json:"topPerformers"`
}

// HeadToHeadPick compares two users' picks on one game
type HeadToHeadPick struct {
	GameID       primitive.ObjectID `json:"gameId"`
	Week         int                `json:"week"`
	Game         string             `json:"game"`
	Winner       string             `json:"winner,omitempty"`
	FirstPick    string             `json:"firstPick"`
	SecondPick   string             `json:"secondPick"`
	FirstStatus  PickStatus         `json:"firstStatus"`
	SecondStatus PickStatus         `json:"secondStatus"`
}

// UserComparison puts two users' season stats side by side
type UserComparison struct {
	Season     int              `json:"season"`
	First      *UserStats       `json:"first"`
	Second     *UserStats       `json:"second"`
	HeadToHead []HeadToHeadPick `json:"headToHead"`
	Agreements int              `json:"agreements"`
	PointsDiff int              `json:"pointsDiff"`
}
