package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"youareloved-web/internal/session"
	"youareloved-web/internal/store"
)

const sessionIDContextKey = "sessionID"

func SessionIDFromContext(c *gin.Context) (string, bool) {
	sessionID, ok := c.Get(sessionIDContextKey)
	if !ok {
		return "", false
	}
	value, ok := sessionID.(string)
	return value, ok && value != ""
}

// Session resolves the signed session cookie to a live store record,
// creating a fresh record when the cookie is missing, invalid or expired.
// The cookie is re-issued on every request so its token expiry slides with
// the record's idle timeout. It carries no Max-Age and ends with the browser.
func Session(st *store.Store, cfg session.TokenConfig, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := ""
		if raw, err := c.Cookie(session.CookieName); err == nil && raw != "" {
			if claims, err := session.VerifyToken(raw, cfg); err == nil && st.Touch(claims.SessionID) {
				sessionID = claims.SessionID
			}
		}
		if sessionID == "" {
			sessionID = st.Create()
		}

		token, err := session.CreateToken(sessionID, cfg)
		if err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(session.CookieName, token, 0, "/", "", secure, true)

		c.Set(sessionIDContextKey, sessionID)
		c.Next()
	}
}
