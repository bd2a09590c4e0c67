package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"humanizer/internal/api/v1/dto"
	"humanizer/internal/ledger"
	"humanizer/internal/middleware"
	"humanizer/internal/service"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
)

func writeJSON(w http.ResponseWriter, logger zerolog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error().Err(err).Msg("Failed to encode response")
	}
}

const (
	maxJSONBody = 64 << 10
	// JSON escaping can expand each character of the text to several bytes.
	maxTextBody = 4*service.MaxTextChars + 4<<10
)

// decodeJSON reads at most limit bytes of JSON into v. On failure it writes
// 413 or 400 and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, limit int64, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, logger, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		writeError(w, logger, http.StatusBadRequest, "Invalid JSON payload")
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, logger zerolog.Logger, status int, msg string) {
	writeJSON(w, logger, status, dto.ErrorResponseDTO{Error: msg})
}

// writeServiceError maps a service error onto the HTTP error taxonomy.
// Upstream details are logged and reported, never sent to the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, err error) {
	var quota *ledger.QuotaError
	switch {
	case errors.As(err, &quota):
		msg := "Insufficient word balance"
		if errors.Is(quota, ledger.ErrOverRequestCap) {
			msg = "Text exceeds the per-request word limit for your plan"
		}
		writeJSON(w, logger, http.StatusBadRequest, dto.QuotaErrorResponseDTO{
			Error:          msg,
			WordsNeeded:    quota.WordsNeeded,
			WordsAvailable: quota.WordsAvailable,
		})
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrUnknownPlan),
		errors.Is(err, service.ErrPaymentNotSuccessful),
		errors.Is(err, service.ErrNoSubscription):
		writeError(w, logger, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, logger, http.StatusNotFound, "User not found")
	case errors.Is(err, service.ErrProfileNotFound):
		writeError(w, logger, http.StatusNotFound, "Profile not found")
	case errors.Is(err, service.ErrHistoryNotFound):
		writeError(w, logger, http.StatusNotFound, "History entry not found")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, logger, http.StatusForbidden, "Forbidden")
	case errors.Is(err, service.ErrExportUnavailable):
		writeError(w, logger, http.StatusServiceUnavailable, "History export is not available")
	case errors.Is(err, service.ErrUpstream):
		logger.Error().Err(err).Str("uri", r.URL.RequestURI()).Msg("Upstream service failed")
		captureError(r, err)
		writeError(w, logger, http.StatusInternalServerError, "Upstream service failed, please try again")
	default:
		logger.Error().Err(err).Str("uri", r.URL.RequestURI()).Msg("Request failed")
		writeError(w, logger, http.StatusInternalServerError, "Internal server error")
	}
}

func captureError(r *http.Request, err error) {
	if hub := sentry.GetHubFromContext(r.Context()); hub != nil {
		hub.CaptureException(err)
	}
}

func currentUser(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) (string, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, logger, http.StatusUnauthorized, "Unauthorized")
		return "", false
	}
	return userID, true
}
