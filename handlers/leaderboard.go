package handlers

import (
	"net/http"

	"nfl-pickem/interfaces"
	"nfl-pickem/logging"
	"nfl-pickem/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultStreakLimit     = 10
	defaultActivityLimit   = 50
	defaultWeeklyWinsLimit = 50
	defaultTopLimit        = 10
)

// LeaderboardHandler serves standings, stats and the activity feed
type LeaderboardHandler struct {
	standings  interfaces.StandingsReader
	activities interfaces.ActivityFeed
	season     int
	logger     *logging.Logger
}

// NewLeaderboardHandler creates a new leaderboard handler for the given default season
func NewLeaderboardHandler(standings interfaces.StandingsReader, activities interfaces.ActivityFeed, season int) *LeaderboardHandler {
	return &LeaderboardHandler{
		standings:  standings,
		activities: activities,
		season:     season,
		logger:     logging.WithPrefix("LeaderboardHandler"),
	}
}

func (h *LeaderboardHandler) seasonParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	season, err := queryInt(r, "season", h.season)
	if err != nil {
		writeError(w, h.logger, err)
		return 0, false
	}
	return season, true
}

// Overall handles GET /api/leaderboard/overall
func (h *LeaderboardHandler) Overall(w http.ResponseWriter, r *http.Request) {
	season, ok := h.seasonParam(w, r)
	if !ok {
		return
	}
	entries, err := h.standings.OverallLeaderboard(r.Context(), season)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Week handles GET /api/leaderboard/week/{week}
func (h *LeaderboardHandler) Week(w http.ResponseWriter, r *http.Request) {
	season, ok := h.seasonParam(w, r)
	if !ok {
		return
	}
	week, err := pathWeek(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	entries, err := h.standings.WeeklyLeaderboard(r.Context(), season, week)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Streaks handles GET /api/leaderboard/streaks?limit
func (h *LeaderboardHandler) Streaks(w http.ResponseWriter, r *http.Request) {
	season, ok := h.seasonParam(w, r)
	if !ok {
		return
	}
	limit, err := queryInt(r, "limit", defaultStreakLimit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	entries, err := h.standings.StreakLeaders(r.Context(), season, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// User handles GET /api/leaderboard/user/{id}
func (h *LeaderboardHandler) User(w http.ResponseWriter, r *http.Request) {
	season, ok := h.seasonParam(w, r)
	if !ok {
		return
	}
	userID, err := pathObjectID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	stats, err := h.standings.UserStats(r.Context(), season, userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// WeeklyWins handles GET /api/leaderboard/weekly-wins?limit
func (h *LeaderboardHandler) WeeklyWins(w http.ResponseWriter, r *http.Request) {
	season, ok := h.seasonParam(w, r)
	if !ok {
		return
	}
	limit, err := queryInt(r, "limit", defaultWeeklyWinsLimit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	entries, err := h.standings.WeeklyWinsLeaderboard(r.Context(), season, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// TopPerformers handles GET /api/leaderboard/top-performers?limit
func (h *LeaderboardHandler) TopPerformers(w http.ResponseWriter, r *http.Request) {
	season, ok := h.seasonParam(w, r)
	if !ok {
		return
	}
	limit, err := queryInt(r, "limit", defaultTopLimit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	entries, err := h.standings.TopPerformers(r.Context(), season, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// SeasonStats handles GET /api/stats/season
func (h *LeaderboardHandler) SeasonStats(w http.ResponseWriter, r *http.Request) {
	season, ok := h.seasonParam(w, r)
	if !ok {
		return
	}
	stats, err := h.standings.SeasonStats(r.Context(), season)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Compare handles GET /api/stats/compare/{first}/{second}
func (h *LeaderboardHandler) Compare(w http.ResponseWriter, r *http.Request) {
	season, ok := h.seasonParam(w, r)
	if !ok {
		return
	}
	first, err := pathObjectID(r, "first")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	second, err := pathObjectID(r, "second")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	cmp, err := h.standings.CompareUsers(r.Context(), season, first, second)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

// WeekStats handles GET /api/stats/week/{week}
func (h *LeaderboardHandler) WeekStats(w http.ResponseWriter, r *http.Request) {
	season, ok := h.seasonParam(w, r)
	if !ok {
		return
	}
	week, err := pathWeek(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	stats, err := h.standings.WeekStats(r.Context(), season, week)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Activities handles GET /api/activities?season&week&type&user&limit
func (h *LeaderboardHandler) Activities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.ActivityFilter{Type: models.ActivityType(q.Get("type"))}
	if filter.Type != "" && !filter.Type.IsValid() {
		writeError(w, h.logger, invalid("unknown activity type %q", filter.Type))
		return
	}

	var err error
	if filter.Season, err = queryInt(r, "season", 0); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if filter.Week, err = queryInt(r, "week", 0); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if filter.Limit, err = queryInt(r, "limit", defaultActivityLimit); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if raw := q.Get("user"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			writeError(w, h.logger, invalid("invalid user %q", raw))
			return
		}
		filter.UserID = &id
	}

	activities, err := h.activities.Recent(r.Context(), filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if activities == nil {
		activities = []*models.Activity{}
	}
	writeJSON(w, http.StatusOK, activities)
}
