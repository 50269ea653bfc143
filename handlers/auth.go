package handlers

import (
	"net/http"
	"time"

	"nfl-pickem/logging"
	"nfl-pickem/middleware"
	"nfl-pickem/models"
	"nfl-pickem/services"

	"github.com/cockroachdb/errors"
)

// AuthHandler handles login and the current-user view
type AuthHandler struct {
	authService  *services.AuthService
	tokenTTL     time.Duration
	secureCookie bool
	logger       *logging.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, tokenTTL time.Duration, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		tokenTTL:     tokenTTL,
		secureCookie: secureCookie,
		logger:       logging.WithPrefix("AuthHandler"),
	}
}

// LoginAPI handles POST /api/auth/login
func (h *AuthHandler) LoginAPI(w http.ResponseWriter, r *http.Request) {
	var loginReq models.LoginRequest
	if err := decodeJSON(w, r, &loginReq); err != nil {
		writeError(w, h.logger, err)
		return
	}

	authResponse, err := h.authService.Login(r.Context(), loginReq)
	if err != nil {
		h.logger.Infof("API login failed for %s: %v", loginReq.Email, err)
		if errors.Is(err, models.ErrForbidden) {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid email or password"})
			return
		}
		writeError(w, h.logger, err)
		return
	}

	h.logger.Infof("User %s (%s) logged in via API", authResponse.User.Name, authResponse.User.Email)
	h.setAuthCookie(w, authResponse.Token)
	writeJSON(w, http.StatusOK, authResponse)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// setAuthCookie sets the authentication cookie
func (h *AuthHandler) setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AuthCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.tokenTTL),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}
