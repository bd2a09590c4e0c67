package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"humanizer/internal/model"
	"humanizer/internal/util" // JWT helper

	"github.com/rs/zerolog"
)

// Injected key type to avoid context collisions
type contextKey string

const UserContextKey = contextKey("user")

var errNoKeys = errors.New("no token verification keys configured")

// SessionCookieName carries first-party session tokens issued at sign-in.
const SessionCookieName = "humanizer_session"

// SignInService records the identity behind a verified token.
type SignInService interface {
	SignIn(ctx context.Context, u *model.User) (*model.User, error)
}

// UserIDFromContext returns the canonical user ID stored by AuthMiddleware.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserContextKey).(string)
	return id, ok && id != ""
}

// AuthMiddleware accepts a bearer token or the session cookie, verifies it
// against each non-empty key in turn and upserts the user it names.
func AuthMiddleware(keys []string, users SignInService, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := tokenFromRequest(r)
			if !ok {
				logger.Debug().Str("path", r.URL.Path).Msg("Request without credentials")
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			claims, err := validateAny(tokenString, keys)
			if err != nil {
				logger.Warn().Err(err).Msg("Invalid token")
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			userID := claims.Subject
			if claims.Email != "" {
				u, err := users.SignIn(r.Context(), &model.User{ID: claims.Subject, Email: strings.ToLower(claims.Email), Name: claims.Name})
				if err != nil {
					logger.Error().Err(err).Str("sub", claims.Subject).Msg("Failed to record signed-in user")
					writeError(w, http.StatusInternalServerError, "Internal server error")
					return
				}
				userID = u.ID
			}

			ctx := context.WithValue(r.Context(), UserContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFromRequest(r *http.Request) (string, bool) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value, true
	}
	return "", false
}

func validateAny(tokenString string, keys []string) (*util.Claims, error) {
	var lastErr error
	for _, key := range keys {
		if key == "" {
			continue
		}
		claims, err := util.ValidateJWT(tokenString, key)
		if err == nil {
			return claims, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errNoKeys
	}
	return nil, lastErr
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
