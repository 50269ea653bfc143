package handlers

import (
	"net/http"

	"nfl-pickem/middleware"

	"github.com/gorilla/mux"
)

// Handlers bundles the API handlers for route registration
type Handlers struct {
	Auth        *AuthHandler
	Games       *GameHandler
	Picks       *PickHandler
	Admin       *AdminHandler
	AdminGames  *AdminGameHandler
	Users       *UserHandler
	Leaderboard *LeaderboardHandler
	Health      *HealthHandler
}

// RegisterRoutes mounts the JSON API on r
func RegisterRoutes(r *mux.Router, h Handlers, auth *middleware.AuthMiddleware) {
	r.HandleFunc("/healthz", h.Health.Check).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/login", h.Auth.LoginAPI).Methods(http.MethodPost)

	// Everything below needs a signed-in user
	private := api.NewRoute().Subrouter()
	private.Use(auth.RequireAuth)

	private.HandleFunc("/auth/me", h.Auth.Me).Methods(http.MethodGet)

	private.HandleFunc("/games", h.Games.GetGames).Methods(http.MethodGet)
	private.HandleFunc("/games/current-week", h.Games.CurrentWeek).Methods(http.MethodGet)

	private.HandleFunc("/picks/submit", h.Picks.SubmitPicks).Methods(http.MethodPost)
	private.HandleFunc("/picks/update", h.Picks.UpdatePicks).Methods(http.MethodPut)
	private.HandleFunc("/picks/week/{week:[0-9]+}", h.Picks.GetWeekPicks).Methods(http.MethodGet)
	private.HandleFunc("/picks/week/{week:[0-9]+}", h.Picks.DeleteWeekPicks).Methods(http.MethodDelete)
	private.HandleFunc("/picks/week/{week:[0-9]+}/all", h.Picks.LeagueWeekPicks).Methods(http.MethodGet)

	private.HandleFunc("/leaderboard/overall", h.Leaderboard.Overall).Methods(http.MethodGet)
	private.HandleFunc("/leaderboard/week/{week:[0-9]+}", h.Leaderboard.Week).Methods(http.MethodGet)
	private.HandleFunc("/leaderboard/streaks", h.Leaderboard.Streaks).Methods(http.MethodGet)
	private.HandleFunc("/leaderboard/weekly-wins", h.Leaderboard.WeeklyWins).Methods(http.MethodGet)
	private.HandleFunc("/leaderboard/top-performers", h.Leaderboard.TopPerformers).Methods(http.MethodGet)
	private.HandleFunc("/leaderboard/user/{id}", h.Leaderboard.User).Methods(http.MethodGet)
	private.HandleFunc("/stats/week/{week:[0-9]+}", h.Leaderboard.WeekStats).Methods(http.MethodGet)
	private.HandleFunc("/stats/season", h.Leaderboard.SeasonStats).Methods(http.MethodGet)
	private.HandleFunc("/stats/compare/{first}/{second}", h.Leaderboard.Compare).Methods(http.MethodGet)
	private.HandleFunc("/activities", h.Leaderboard.Activities).Methods(http.MethodGet)

	admin := private.PathPrefix("/admin").Subrouter()
	admin.Use(auth.RequireAdmin)

	admin.HandleFunc("/picks", h.Picks.AdminCreatePick).Methods(http.MethodPost)
	admin.HandleFunc("/picks/{id}", h.Picks.AdminEditPick).Methods(http.MethodPut)
	admin.HandleFunc("/picks/{id}", h.Picks.AdminDeletePick).Methods(http.MethodDelete)
	admin.HandleFunc("/games", h.AdminGames.ListGames).Methods(http.MethodGet)
	admin.HandleFunc("/games", h.AdminGames.CreateGame).Methods(http.MethodPost)
	admin.HandleFunc("/games/{id}", h.AdminGames.UpdateGame).Methods(http.MethodPut)
	admin.HandleFunc("/games/{id}", h.AdminGames.DeleteGame).Methods(http.MethodDelete)
	admin.HandleFunc("/games/{id}/score", h.Admin.OverrideScore).Methods(http.MethodPut)
	admin.HandleFunc("/users", h.Users.ListUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users", h.Users.CreateUser).Methods(http.MethodPost)
	admin.HandleFunc("/weekly-winners", h.Admin.WeeklyWinners).Methods(http.MethodPost)
	admin.HandleFunc("/jobs/{job}/run", h.Admin.RunJob).Methods(http.MethodPost)
	admin.HandleFunc("/schedule/import", h.Admin.ImportSchedule).Methods(http.MethodPost)
}
