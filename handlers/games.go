package handlers

import (
	"net/http"
	"time"

	"nfl-pickem/interfaces"
	"nfl-pickem/logging"
	"nfl-pickem/models"
)

// GameHandler serves the schedule
type GameHandler struct {
	games  interfaces.GameRepository
	season int
	logger *logging.Logger
	now    func() time.Time
}

// NewGameHandler creates a new game handler for the given default season
func NewGameHandler(games interfaces.GameRepository, season int) *GameHandler {
	return &GameHandler{
		games:  games,
		season: season,
		logger: logging.WithPrefix("GameHandler"),
		now:    time.Now,
	}
}

// WeekView is the current-week response
type WeekView struct {
	Season int `json:"season"`
	Week   int `json:"week"`
}

// GetGames handles GET /api/games?season&week. Without a week the whole season is returned.
func (h *GameHandler) GetGames(w http.ResponseWriter, r *http.Request) {
	season, err := queryInt(r, "season", h.season)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	week, err := queryInt(r, "week", 0)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if week != 0 && !models.ValidWeek(week) {
		writeError(w, h.logger, invalid("invalid week %d", week))
		return
	}

	var games []*models.Game
	if week == 0 {
		games, err = h.games.FindBySeason(r.Context(), season)
	} else {
		games, err = h.games.FindByWeek(r.Context(), season, week)
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	now := h.now()
	for _, g := range games {
		g.IsLocked = g.IsGameLocked(now)
	}
	sortGamesByKickoffTime(games)
	if games == nil {
		games = []*models.Game{}
	}
	writeJSON(w, http.StatusOK, games)
}

// CurrentWeek handles GET /api/games/current-week
func (h *GameHandler) CurrentWeek(w http.ResponseWriter, r *http.Request) {
	games, err := h.games.FindBySeason(r.Context(), h.season)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, WeekView{Season: h.season, Week: models.CurrentWeek(games, h.now())})
}
