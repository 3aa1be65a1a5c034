package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	// SessionCookie identifies a browser session.
	SessionCookie = "haiku_session"
	// SessionHeader lets non-browser clients pick a stable session.
	SessionHeader = "X-Haiku-Session"

	sessionMaxAge = 30 * 24 * time.Hour
)

type ctxKey int

const sessionKey ctxKey = iota

// withSession resolves the session id from the header or cookie, issuing a
// new cookie when neither is present.
func withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(SessionHeader)
		if id == "" {
			if c, err := r.Cookie(SessionCookie); err == nil && uuid.Validate(c.Value) == nil {
				id = c.Value
			} else {
				id = uuid.New().String()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    id,
					Path:     "/",
					MaxAge:   int(sessionMaxAge.Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, id)))
	})
}

func sessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey).(string)
	return id
}
