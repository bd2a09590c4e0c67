package handler

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"humanizer/internal/api/v1/dto"
	"humanizer/internal/middleware"
	"humanizer/internal/model"
	"humanizer/internal/service"
	"humanizer/internal/util"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const (
	googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
	oauthStateCookie  = "humanizer_oauth_state"
	oauthStateTTL     = 10 * time.Minute
)

type googleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// AuthHandler signs users in with Google and issues first-party session tokens.
type AuthHandler struct {
	userSvc       service.UserService
	oauth         *oauth2.Config
	userInfoURL   string
	sessionSecret string
	sessionTTL    time.Duration
	secureCookies bool
	logger        zerolog.Logger
}

// NewAuthHandler builds the handler. A nil oauth config disables Google sign-in.
func NewAuthHandler(userSvc service.UserService, oauth *oauth2.Config, sessionSecret string, sessionTTL time.Duration, secureCookies bool, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		userSvc:       userSvc,
		oauth:         oauth,
		userInfoURL:   googleUserInfoURL,
		sessionSecret: sessionSecret,
		sessionTTL:    sessionTTL,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /api/auth/google", h.GoogleLogin)
	mux.HandleFunc("GET /api/auth/google/callback", h.GoogleCallback)
	mux.HandleFunc("POST /api/auth/logout", h.Logout)
	mux.Handle("GET /api/auth/me", authMiddleware(http.HandlerFunc(h.Me)))
}

// GoogleLogin godoc
// @Summary Start Google sign-in
// @Tags auth
// @Success 302 "Redirect to Google"
// @Failure 503 {object} dto.ErrorResponseDTO "Google sign-in is not configured"
// @Router /auth/google [get]
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.oauth == nil {
		writeError(w, h.logger, http.StatusServiceUnavailable, "Google sign-in is not configured")
		return
	}
	state, err := randomState()
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to generate OAuth state")
		writeError(w, h.logger, http.StatusInternalServerError, "Internal server error")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/api/auth",
		MaxAge:   int(oauthStateTTL / time.Second),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline), http.StatusFound)
}

// GoogleCallback godoc
// @Summary Complete Google sign-in
// @Description Exchanges the authorization code, records the user and sets the session cookie.
// @Tags auth
// @Produce json
// @Param code query string true "Authorization code"
// @Param state query string true "OAuth state"
// @Success 200 {object} dto.SessionResponseDTO
// @Failure 400 {object} dto.ErrorResponseDTO "State mismatch or missing code"
// @Failure 401 {object} dto.ErrorResponseDTO "Google account has no verified email"
// @Failure 500 {object} dto.ErrorResponseDTO
// @Router /auth/google/callback [get]
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.oauth == nil {
		writeError(w, h.logger, http.StatusServiceUnavailable, "Google sign-in is not configured")
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid OAuth state")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Path: "/api/auth", MaxAge: -1})

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, h.logger, http.StatusBadRequest, "Missing authorization code")
		return
	}

	tok, err := h.oauth.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to exchange Google authorization code")
		captureError(r, err)
		writeError(w, h.logger, http.StatusInternalServerError, "Sign-in failed, please try again")
		return
	}
	info, err := h.fetchUserInfo(r, tok)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to fetch Google user info")
		captureError(r, err)
		writeError(w, h.logger, http.StatusInternalServerError, "Sign-in failed, please try again")
		return
	}
	if info.Email == "" || !info.EmailVerified {
		writeError(w, h.logger, http.StatusUnauthorized, "Google account has no verified email")
		return
	}

	user, err := h.userSvc.SignIn(r.Context(), &model.User{
		Email:     strings.ToLower(info.Email),
		Name:      info.Name,
		AvatarURL: info.Picture,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	expiresAt := time.Now().Add(h.sessionTTL)
	token, err := util.IssueSessionToken(user.ID, user.Email, user.Name, h.sessionSecret, h.sessionTTL)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to issue session token")
		writeError(w, h.logger, http.StatusInternalServerError, "Internal server error")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	h.logger.Info().Str("user_id", user.ID).Msg("User signed in with Google")

	writeJSON(w, h.logger, http.StatusOK, dto.SessionResponseDTO{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      toUserDTO(user),
	})
}

// Logout godoc
// @Summary Clear the session cookie
// @Tags auth
// @Success 204 "Signed out"
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Me godoc
// @Summary Get the signed-in user
// @Tags auth
// @Produce json
// @Success 200 {object} dto.UserResponseDTO
// @Failure 401 {object} dto.ErrorResponseDTO
// @Failure 404 {object} dto.ErrorResponseDTO
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	user, err := h.userSvc.Get(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toUserDTO(user))
}

func (h *AuthHandler) fetchUserInfo(r *http.Request, tok *oauth2.Token) (*googleUserInfo, error) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, h.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.oauth.Client(r.Context(), tok).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}
	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	return &info, nil
}

func toUserDTO(u *model.User) dto.UserResponseDTO {
	return dto.UserResponseDTO{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		AvatarURL: u.AvatarURL,
		Role:      u.Role,
	}
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
