package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// SessionCookieName is the viewer session cookie; the fallback dedup
	// identity when neither a user id nor an anonymous id is available.
	SessionCookieName = "vt_session"
	// ContextSessionKey stores the session token inside Gin context.
	ContextSessionKey = "session_token"

	sessionCookieMaxAge = 365 * 24 * 3600
)

// ViewerSession guarantees every request carries a session token: an
// existing cookie is propagated, otherwise a fresh uuid is issued and set.
// The token identifies a browser, not a person; it is never authenticated.
func ViewerSession() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, err := ctx.Cookie(SessionCookieName)
		if err != nil || !validSessionToken(token) {
			token = uuid.NewString()
			ctx.SetCookie(SessionCookieName, token, sessionCookieMaxAge, "/", "", false, true)
		}
		ctx.Set(ContextSessionKey, token)
		ctx.Next()
	}
}

// SessionToken returns the session token placed by ViewerSession, empty
// when the middleware did not run.
func SessionToken(ctx *gin.Context) string {
	return ctx.GetString(ContextSessionKey)
}

func validSessionToken(token string) bool {
	if token == "" || len(token) > 64 {
		return false
	}
	_, err := uuid.Parse(token)
	return err == nil
}
