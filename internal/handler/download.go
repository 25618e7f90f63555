package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"youareloved-web/internal/flow"
	"youareloved-web/internal/model"
	"youareloved-web/internal/qr"
	"youareloved-web/internal/store"
	"youareloved-web/internal/web"
)

const downloadTitle = "download.title"

type DownloadHandler struct {
	Enrollment     *flow.Enrollment
	Store          *store.Store
	Render         *Renderer
	MacDownloadURL string
}

func (h *DownloadHandler) render(c *gin.Context, status int, sid string, res flow.DownloadResult) {
	data := web.NewDownloadData(res, h.Store.Credential(sid).SignedIn(), h.MacDownloadURL)
	if res.Enrollment != nil {
		uri, err := qr.DataURI(res.Enrollment.DownloadURL)
		if err != nil {
			h.Render.Log.Warn(c.Request.Context(), "qr render failed", "err", err)
		}
		data.QR = uri
		// The profile link is shown once and must not be cached.
		c.Header("Cache-Control", "no-store")
	}
	h.Render.HTML(c, status, "download.html", downloadTitle, data)
}

func (h *DownloadHandler) fail(c *gin.Context, sid string, err error) {
	switch {
	case errors.Is(err, flow.ErrBusy):
		res, cerr := h.Enrollment.Current(sid)
		if cerr != nil {
			c.Redirect(http.StatusSeeOther, "/download")
			return
		}
		res.Notice = flow.MsgBusy
		h.render(c, http.StatusConflict, sid, res)
	case restart(err):
		c.Redirect(http.StatusSeeOther, "/download")
	default:
		h.Render.internal(c, err)
	}
}

// invalid re-renders the live page with what the user typed and the field
// errors from binding.
func (h *DownloadHandler) invalid(c *gin.Context, sid string, id model.Identity, form flow.PartnerForm, errs flow.FieldErrors) {
	res, err := h.Enrollment.Current(sid)
	if err != nil {
		h.fail(c, sid, err)
		return
	}
	res.View.Identity = id
	res.Form = form
	res.Errors = errs
	h.render(c, http.StatusUnprocessableEntity, sid, res)
}

// Show opens the enrollment page, resolving the identity from the session
// credential or the ?email= and ?name= prefill.
func (h *DownloadHandler) Show(c *gin.Context) {
	sid, err := sessionID(c)
	if err != nil {
		h.Render.internal(c, err)
		return
	}
	prefill := model.Identity{Email: c.Query("email"), FirstName: c.Query("name")}
	res, err := h.Enrollment.Resolve(c.Request.Context(), sid, prefill)
	if err != nil {
		h.fail(c, sid, err)
		return
	}
	h.render(c, http.StatusOK, sid, res)
}

func (h *DownloadHandler) Check(c *gin.Context) {
	sid, err := sessionID(c)
	if err != nil {
		h.Render.internal(c, err)
		return
	}
	var body identityBody
	errs, err := bind(c, &body)
	if err != nil {
		h.Render.Error(c, http.StatusBadRequest, "error.badRequest", "")
		return
	}
	if len(errs) > 0 {
		h.invalid(c, sid, body.identity(), flow.PartnerForm{}, errs)
		return
	}

	res, err := h.Enrollment.Recheck(c.Request.Context(), sid, body.identity())
	if err != nil {
		h.fail(c, sid, err)
		return
	}
	h.render(c, http.StatusOK, sid, res)
}

func (h *DownloadHandler) AddPartner(c *gin.Context) {
	sid, err := sessionID(c)
	if err != nil {
		h.Render.internal(c, err)
		return
	}
	var body inlinePartnerBody
	errs, err := bind(c, &body)
	if err != nil {
		h.Render.Error(c, http.StatusBadRequest, "error.badRequest", "")
		return
	}
	if len(errs) > 0 {
		h.invalid(c, sid, body.identity(), body.form(), errs)
		return
	}

	res, err := h.Enrollment.AddPartner(c.Request.Context(), sid, body.identity(), body.form())
	if err != nil {
		h.fail(c, sid, err)
		return
	}
	switch {
	case len(res.Errors) > 0:
		h.render(c, http.StatusUnprocessableEntity, sid, res)
	case res.Notice != "":
		h.render(c, http.StatusBadGateway, sid, res)
	default:
		h.render(c, http.StatusOK, sid, res)
	}
}

// Enroll requests the profile link and renders it with its QR code. The
// result lives only in this response.
func (h *DownloadHandler) Enroll(c *gin.Context) {
	sid, err := sessionID(c)
	if err != nil {
		h.Render.internal(c, err)
		return
	}
	var body enrollBody
	errs, err := bind(c, &body)
	if err != nil {
		h.Render.Error(c, http.StatusBadRequest, "error.badRequest", "")
		return
	}
	if len(errs) > 0 {
		h.invalid(c, sid, body.identity(), flow.PartnerForm{}, errs)
		return
	}

	res, err := h.Enrollment.Enroll(c.Request.Context(), sid, body.identity())
	if err != nil {
		h.fail(c, sid, err)
		return
	}
	switch {
	case len(res.Errors) > 0, res.Notice == flow.MsgPartnerRequired:
		h.render(c, http.StatusUnprocessableEntity, sid, res)
	case res.Notice != "":
		h.render(c, http.StatusBadGateway, sid, res)
	default:
		h.render(c, http.StatusOK, sid, res)
	}
}
