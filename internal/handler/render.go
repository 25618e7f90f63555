package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
	"youareloved-web/internal/flow"
	"youareloved-web/internal/i18n"
	"youareloved-web/internal/logging"
	"youareloved-web/internal/middleware"
	"youareloved-web/internal/web"
)

// Renderer executes page templates in the request language.
type Renderer struct {
	Catalog *i18n.Catalog
	Log     logging.Logger
}

func (r *Renderer) HTML(c *gin.Context, status int, name, title string, data any) {
	lang := middleware.LanguageFromContext(c)
	page := web.NewPage(r.Catalog, lang, csrf.TemplateField(c.Request), title, data)
	c.HTML(status, name, page)
}

func (r *Renderer) Error(c *gin.Context, status int, heading, message string) {
	r.HTML(c, status, "error.html", heading, web.ErrorData{Heading: heading, Message: message})
}

func (r *Renderer) NotFound(c *gin.Context) {
	r.Error(c, http.StatusNotFound, "error.notFound", "")
}

func (r *Renderer) RateLimited(c *gin.Context) {
	r.Error(c, http.StatusTooManyRequests, "error.rateLimited", "")
}

func (r *Renderer) internal(c *gin.Context, err error) {
	r.Log.Error(c.Request.Context(), "request failed", "path", c.Request.URL.Path, "err", err)
	r.Error(c, http.StatusInternalServerError, "error.internal", "")
}

func sessionID(c *gin.Context) (string, error) {
	sid, ok := middleware.SessionIDFromContext(c)
	if !ok {
		return "", flow.ErrNoSession
	}
	return sid, nil
}

// restart reports whether err means the page must be loaded again: the
// session is gone, the view was reloaded mid-request, or the wizard is on
// another step.
func restart(err error) bool {
	return errors.Is(err, flow.ErrNoSession) || errors.Is(err, flow.ErrSuperseded) || errors.Is(err, flow.ErrWrongStep)
}
