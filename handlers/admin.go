package handlers

import (
	"net/http"

	"nfl-pickem/interfaces"
	"nfl-pickem/logging"
	"nfl-pickem/middleware"
	"nfl-pickem/models"
	"nfl-pickem/services"

	"github.com/gorilla/mux"
)

// AdminHandler exposes score corrections and on-demand pipeline runs
type AdminHandler struct {
	reconciler *services.ReconciliationService
	scoring    *services.ScoringService
	winners    interfaces.WeeklyWinnerCalculator
	jobs       interfaces.JobRunner
	schedule   interfaces.ScheduleImporter
	season     int
	logger     *logging.Logger
}

// NewAdminHandler creates a new admin handler. jobs may be nil when the scheduler is disabled.
func NewAdminHandler(
	reconciler *services.ReconciliationService,
	scoring *services.ScoringService,
	winners interfaces.WeeklyWinnerCalculator,
	jobs interfaces.JobRunner,
	schedule interfaces.ScheduleImporter,
	season int,
) *AdminHandler {
	return &AdminHandler{
		reconciler: reconciler,
		scoring:    scoring,
		winners:    winners,
		jobs:       jobs,
		schedule:   schedule,
		season:     season,
		logger:     logging.WithPrefix("AdminHandler"),
	}
}

// ScoreOverrideRequest is the body of a score override
type ScoreOverrideRequest struct {
	AwayScore *int   `json:"awayScore"`
	HomeScore *int   `json:"homeScore"`
	Reason    string `json:"reason"`
}

// ScoreOverrideResponse carries the corrected result and the regrade it triggered
type ScoreOverrideResponse struct {
	Result  *models.GameResult      `json:"result"`
	Grading services.GradingSummary `json:"grading"`
}

// WeekRequest selects a season and week; a zero week means the whole season where allowed
type WeekRequest struct {
	Season int `json:"season"`
	Week   int `json:"week"`
}

// JobRunResponse reports a finished on-demand job
type JobRunResponse struct {
	Job    string `json:"job"`
	Status string `json:"status"`
}

// ImportResponse reports how many games a schedule import created
type ImportResponse struct {
	Season  int `json:"season"`
	Week    int `json:"week,omitempty"`
	Created int `json:"created"`
}

// OverrideScore handles PUT /api/admin/games/{id}/score
func (h *AdminHandler) OverrideScore(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetUserFromContext(r)
	gameID, err := pathObjectID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req ScoreOverrideRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if req.AwayScore == nil || req.HomeScore == nil {
		writeError(w, h.logger, invalid("awayScore and homeScore are required"))
		return
	}

	result, err := h.reconciler.OverrideScore(r.Context(), services.ScoreOverrideCommand{
		GameID:    gameID,
		AwayScore: *req.AwayScore,
		HomeScore: *req.HomeScore,
		Reason:    req.Reason,
	}, admin.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.logger.Infof("Admin %s overrode score of game %s to %d-%d", admin.Email, gameID.Hex(), *req.AwayScore, *req.HomeScore)

	// the override leaves the result ungraded, so regrade now
	summary, err := h.scoring.ProcessAllResults(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ScoreOverrideResponse{Result: result, Grading: summary})
}

// WeeklyWinners handles POST /api/admin/weekly-winners
func (h *AdminHandler) WeeklyWinners(w http.ResponseWriter, r *http.Request) {
	var req WeekRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if req.Season == 0 {
		req.Season = h.season
	}

	result, err := h.winners.CalculateWeeklyWinners(r.Context(), req.Season, req.Week)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// RunJob handles POST /api/admin/jobs/{job}/run
func (h *AdminHandler) RunJob(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["job"]
	if h.jobs == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "scheduler is disabled"})
		return
	}

	if err := h.jobs.RunJob(r.Context(), name); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, JobRunResponse{Job: name, Status: "completed"})
}

// ImportSchedule handles POST /api/admin/schedule/import
func (h *AdminHandler) ImportSchedule(w http.ResponseWriter, r *http.Request) {
	var req WeekRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if req.Season == 0 {
		req.Season = h.season
	}

	var (
		created int
		err     error
	)
	if req.Week == 0 {
		created, err = h.schedule.LoadSeason(r.Context(), req.Season)
	} else {
		created, err = h.schedule.LoadWeek(r.Context(), req.Season, req.Week)
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ImportResponse{Season: req.Season, Week: req.Week, Created: created})
}
