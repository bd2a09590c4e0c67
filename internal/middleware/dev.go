package middleware

import "net/http"

// DevOnly hides developer endpoints outside development.
func DevOnly(isDevelopment bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isDevelopment {
				writeError(w, http.StatusForbidden, "Developer endpoints are disabled")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
