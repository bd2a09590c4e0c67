package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
)

// Recover turns handler panics into a 500 and reports them to Sentry.
// http.ErrAbortHandler is re-raised so the server drops the connection; the
// humanize handler uses it to cut off a failed stream.
func Recover(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hub := sentry.GetHubFromContext(r.Context())
			if hub == nil {
				hub = sentry.CurrentHub().Clone()
				r = r.WithContext(sentry.SetHubOnContext(r.Context(), hub))
			}
			hub.Scope().SetRequest(r)

			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}
				hub.RecoverWithContext(r.Context(), rec)
				logger.Error().Str("panic", fmt.Sprint(rec)).Str("uri", r.URL.RequestURI()).Msg("Recovered from panic")
				writeError(w, http.StatusInternalServerError, "Internal server error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
