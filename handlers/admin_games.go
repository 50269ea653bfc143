package handlers

import (
	"net/http"

	"nfl-pickem/logging"
	"nfl-pickem/middleware"
	"nfl-pickem/services"
)

// AdminGameHandler edits the schedule
type AdminGameHandler struct {
	gameService *services.GameService
	season      int
	logger      *logging.Logger
}

// NewAdminGameHandler creates a new admin game handler for the given default season
func NewAdminGameHandler(gameService *services.GameService, season int) *AdminGameHandler {
	return &AdminGameHandler{
		gameService: gameService,
		season:      season,
		logger:      logging.WithPrefix("AdminGameHandler"),
	}
}

func (h *AdminGameHandler) decodeGame(w http.ResponseWriter, r *http.Request) (services.GameCommand, error) {
	var cmd services.GameCommand
	if err := decodeJSON(w, r, &cmd); err != nil {
		return cmd, err
	}
	if cmd.Season == 0 {
		cmd.Season = h.season
	}
	return cmd, nil
}

// ListGames handles GET /api/admin/games?season
func (h *AdminGameHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	season, err := queryInt(r, "season", h.season)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	games, err := h.gameService.ListGames(r.Context(), season)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, games)
}

// CreateGame handles POST /api/admin/games
func (h *AdminGameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetUserFromContext(r)
	cmd, err := h.decodeGame(w, r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	game, err := h.gameService.CreateGame(r.Context(), admin.ID, cmd)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, game)
}

// UpdateGame handles PUT /api/admin/games/{id}
func (h *AdminGameHandler) UpdateGame(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetUserFromContext(r)
	gameID, err := pathObjectID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	cmd, err := h.decodeGame(w, r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	game, err := h.gameService.UpdateGame(r.Context(), admin.ID, gameID, cmd)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

// DeleteGame handles DELETE /api/admin/games/{id}
func (h *AdminGameHandler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetUserFromContext(r)
	gameID, err := pathObjectID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.gameService.DeleteGame(r.Context(), admin.ID, gameID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
