package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// requireToken guards the JSON API with a static bearer token. An empty
// token leaves the routes open.
func requireToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				httpError(w, http.StatusUnauthorized, "authentication_error", "invalid or missing API token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
