package handlers

import (
	"sort"

	"nfl-pickem/models"
)

// sortGamesByKickoffTime sorts games chronologically by kickoff time
// Secondary sort: alphabetically by home team name for games at same time
func sortGamesByKickoffTime(games []*models.Game) {
	sort.SliceStable(games, func(i, j int) bool {
		if !games[i].Date.Equal(games[j].Date) {
			return games[i].Date.Before(games[j].Date)
		}
		return games[i].HomeTeam < games[j].HomeTeam
	})
}
