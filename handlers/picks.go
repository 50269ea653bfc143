package handlers

import (
	"net/http"

	"nfl-pickem/logging"
	"nfl-pickem/middleware"
	"nfl-pickem/models"
	"nfl-pickem/services"
)

// PickHandler handles a user's own picks and the admin pick corrections
type PickHandler struct {
	pickService *services.PickService
	season      int
	logger      *logging.Logger
}

// NewPickHandler creates a new pick handler for the given default season
func NewPickHandler(pickService *services.PickService, season int) *PickHandler {
	return &PickHandler{
		pickService: pickService,
		season:      season,
		logger:      logging.WithPrefix("PickHandler"),
	}
}

// PickDeleteResponse reports how many picks a week delete removed
type PickDeleteResponse struct {
	Deleted int `json:"deleted"`
}

func (h *PickHandler) decodeWeek(w http.ResponseWriter, r *http.Request) (services.WeekPicksCommand, error) {
	var cmd services.WeekPicksCommand
	if err := decodeJSON(w, r, &cmd); err != nil {
		return cmd, err
	}
	if cmd.Season == 0 {
		cmd.Season = h.season
	}
	return cmd, nil
}

// SubmitPicks handles POST /api/picks/submit
func (h *PickHandler) SubmitPicks(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	cmd, err := h.decodeWeek(w, r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	picks, err := h.pickService.SubmitPicks(r.Context(), user.ID, cmd)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.logger.Infof("User %s submitted %d picks for week %d", user.Email, len(picks), cmd.Week)
	writeJSON(w, http.StatusCreated, picks)
}

// UpdatePicks handles PUT /api/picks/update
func (h *PickHandler) UpdatePicks(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	cmd, err := h.decodeWeek(w, r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	picks, err := h.pickService.UpdatePicks(r.Context(), user.ID, cmd)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, picks)
}

// DeleteWeekPicks handles DELETE /api/picks/week/{week}
func (h *PickHandler) DeleteWeekPicks(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	week, err := pathWeek(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	season, err := queryInt(r, "season", h.season)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	n, err := h.pickService.DeleteWeekPicks(r.Context(), user.ID, season, week)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, PickDeleteResponse{Deleted: n})
}

// GetWeekPicks handles GET /api/picks/week/{week}
func (h *PickHandler) GetWeekPicks(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	week, err := pathWeek(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	season, err := queryInt(r, "season", h.season)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	picks, err := h.pickService.UserWeekPicks(r.Context(), user.ID, season, week)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if picks == nil {
		picks = []*models.Pick{}
	}
	writeJSON(w, http.StatusOK, picks)
}

// LeagueWeekPicks handles GET /api/picks/week/{week}/all. Picks on games that have not
// locked are left out.
func (h *PickHandler) LeagueWeekPicks(w http.ResponseWriter, r *http.Request) {
	week, err := pathWeek(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	season, err := queryInt(r, "season", h.season)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	picks, err := h.pickService.LeagueWeekPicks(r.Context(), season, week)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, picks)
}

// AdminCreatePick handles POST /api/admin/picks
func (h *PickHandler) AdminCreatePick(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetUserFromContext(r)
	var cmd services.AdminPickCommand
	if err := decodeJSON(w, r, &cmd); err != nil {
		writeError(w, h.logger, err)
		return
	}

	pick, err := h.pickService.AdminCreatePick(r.Context(), admin.ID, cmd)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, pick)
}

// AdminEditPick handles PUT /api/admin/picks/{id}
func (h *PickHandler) AdminEditPick(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetUserFromContext(r)
	pickID, err := pathObjectID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var cmd services.AdminPickCommand
	if err := decodeJSON(w, r, &cmd); err != nil {
		writeError(w, h.logger, err)
		return
	}

	pick, err := h.pickService.AdminEditPick(r.Context(), admin.ID, pickID, cmd)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pick)
}

// AdminDeletePick handles DELETE /api/admin/picks/{id}
func (h *PickHandler) AdminDeletePick(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetUserFromContext(r)
	pickID, err := pathObjectID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.pickService.AdminDeletePick(r.Context(), admin.ID, pickID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
