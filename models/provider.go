package models

import "time"

// ProviderGame is one game as reported by the external score provider, already normalized
type ProviderGame struct {
	ProviderID    string     `json:"providerId"`
	AwayTeam      string     `json:"awayTeam"`
	HomeTeam      string     `json:"homeTeam"`
	AwayScore     *int       `json:"awayScore"`
	HomeScore     *int       `json:"homeScore"`
	Status        GameStatus `json:"status"`
	Quarter       string     `json:"quarter"`
	TimeRemaining string     `json:"timeRemaining"`
	Date          time.Time  `json:"date"`
	Venue         string     `json:"venue"`
	Network       string     `json:"network"`
	AwayRecord    string     `json:"awayRecord"`
	HomeRecord    string     `json:"homeRecord"`
}

// MatchKey identifies the provider game by its unordered team pair
func (p *ProviderGame) MatchKey() string {
	return TeamPairKey(p.AwayTeam, p.HomeTeam)
}

// OrientedScores returns the scores as seen from a stored game with the given away team.
// Providers sometimes list home and away the other way round.
func (p *ProviderGame) OrientedScores(storedAway string) (away, home *int) {
	if normalizeTeam(p.AwayTeam) == normalizeTeam(storedAway) {
		return p.AwayScore, p.HomeScore
	}
	return p.HomeScore, p.AwayScore
}

// GameOdds holds betting lines for one game; display only
type GameOdds struct {
	Spread    string `json:"spread"`
	OverUnder string `json:"overUnder"`
}
