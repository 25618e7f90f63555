package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"youareloved-web/internal/qr"
)

type QRHandler struct {
	// Hosts a QR code may point at: the enrollment API and any host it
	// builds profile links on.
	Hosts []string
}

// PNG renders ?data= as a QR image. Only https links to an allowed host are
// encoded.
func (h *QRHandler) PNG(c *gin.Context) {
	data := c.Query("data")
	u, err := url.Parse(data)
	if err != nil || u.Scheme != "https" || !h.allowed(u.Host) {
		c.String(http.StatusBadRequest, "invalid data")
		return
	}
	png, err := qr.PNG(data, qr.DefaultSize)
	if err != nil {
		c.String(http.StatusBadRequest, "invalid data")
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

func (h *QRHandler) allowed(host string) bool {
	for _, allowed := range h.Hosts {
		if allowed != "" && strings.EqualFold(host, allowed) {
			return true
		}
	}
	return false
}
