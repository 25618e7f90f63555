package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"youareloved-web/internal/i18n"
	"youareloved-web/internal/middleware"
)

const languageCookieMaxAge = 365 * 24 * 60 * 60

type LanguageHandler struct {
	Catalog *i18n.Catalog
	Render  *Renderer
	Secure  bool
}

// Set saves the language choice and returns to the referring page when it
// is on this site.
func (h *LanguageHandler) Set(c *gin.Context) {
	code := c.Param("code")
	if !h.Catalog.Supported(code) {
		h.Render.NotFound(c)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.LanguageCookie, h.Catalog.Language(code).Code, languageCookieMaxAge, "/", "", h.Secure, true)
	c.Redirect(http.StatusSeeOther, backTo(c.Request))
}

func backTo(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Host != r.Host || !localPath(ref.Path) {
		return "/"
	}
	target := url.URL{Path: ref.Path, RawQuery: ref.RawQuery, Fragment: ref.Fragment}
	return target.String()
}

// localPath reports whether p stays on this host when used as a Location.
// Browsers read "//host" and "/\host" as network-path references.
func localPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.HasPrefix(p, "/\\")
}
