package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"youareloved-web/internal/session"
	"youareloved-web/internal/store"
)

type SessionHandler struct {
	Store  *store.Store
	Secure bool
}

// Clear signs out: the session record and its cookie are dropped.
func (h *SessionHandler) Clear(c *gin.Context) {
	if sid, err := sessionID(c); err == nil {
		h.Store.Delete(sid)
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, "", -1, "/", "", h.Secure, true)
	c.Redirect(http.StatusSeeOther, "/download")
}
