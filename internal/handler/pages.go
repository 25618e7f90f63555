package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"youareloved-web/internal/web"
)

type PageHandler struct {
	Render *Renderer
}

func (h *PageHandler) Home(c *gin.Context) {
	h.Render.HTML(c, http.StatusOK, "home.html", "", web.HomeData{Plans: web.Plans})
}

func (h *PageHandler) Privacy(c *gin.Context) {
	body, err := web.Markdown("privacy")
	if err != nil {
		h.Render.internal(c, err)
		return
	}
	h.Render.HTML(c, http.StatusOK, "privacy.html", "privacy.title", body)
}

func (h *PageHandler) NotFound(c *gin.Context) {
	h.Render.NotFound(c)
}
