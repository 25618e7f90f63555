package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"youareloved-web/internal/flow"
	"youareloved-web/internal/model"
	"youareloved-web/internal/web"
)

const setupTitle = "nav.getStarted"

type SetupHandler struct {
	Setup  *flow.Setup
	Render *Renderer
}

func (h *SetupHandler) render(c *gin.Context, status int, res flow.SetupResult) {
	h.Render.HTML(c, status, "setup.html", setupTitle, web.NewSetupData(res))
}

// busy re-renders the live wizard with the in-progress notice.
func (h *SetupHandler) busy(c *gin.Context, sid string) {
	res, err := h.Setup.Current(sid)
	if err != nil {
		c.Redirect(http.StatusSeeOther, "/setup")
		return
	}
	res.Notice = flow.MsgBusy
	h.render(c, http.StatusConflict, res)
}

func (h *SetupHandler) fail(c *gin.Context, sid string, err error) {
	switch {
	case errors.Is(err, flow.ErrBusy):
		h.busy(c, sid)
	case restart(err):
		c.Redirect(http.StatusSeeOther, "/setup")
	default:
		h.Render.internal(c, err)
	}
}

// Show opens the wizard at the account step, prefilled from ?email= and ?name=.
func (h *SetupHandler) Show(c *gin.Context) {
	sid, err := sessionID(c)
	if err != nil {
		h.Render.internal(c, err)
		return
	}
	res, err := h.Setup.Start(sid, model.Identity{Email: c.Query("email"), FirstName: c.Query("name")})
	if err != nil {
		h.Render.internal(c, err)
		return
	}
	h.render(c, http.StatusOK, res)
}

func (h *SetupHandler) Submit(c *gin.Context) {
	sid, err := sessionID(c)
	if err != nil {
		h.Render.internal(c, err)
		return
	}

	var body accountBody
	errs, err := bind(c, &body)
	if err != nil {
		h.Render.Error(c, http.StatusBadRequest, "error.badRequest", "")
		return
	}
	if len(errs) > 0 {
		res, err := h.Setup.Current(sid)
		if err != nil {
			h.fail(c, sid, err)
			return
		}
		res.View.Step = model.AccountStep
		res.View.Identity = model.Identity{Email: body.Email, FirstName: body.FirstName}
		res.Errors = errs
		h.render(c, http.StatusUnprocessableEntity, res)
		return
	}

	res, err := h.Setup.SubmitAccount(c.Request.Context(), sid, body.form())
	if err != nil {
		h.fail(c, sid, err)
		return
	}
	if len(res.Errors) > 0 {
		h.render(c, http.StatusUnprocessableEntity, res)
		return
	}
	c.Redirect(http.StatusSeeOther, "/setup/partners")
}

func (h *SetupHandler) Partners(c *gin.Context) {
	sid, err := sessionID(c)
	if err != nil {
		h.Render.internal(c, err)
		return
	}
	res, err := h.Setup.Current(sid)
	if err != nil || res.View.Step != model.PartnerStep {
		c.Redirect(http.StatusSeeOther, "/setup")
		return
	}
	h.render(c, http.StatusOK, res)
}

func (h *SetupHandler) AddPartner(c *gin.Context) {
	sid, err := sessionID(c)
	if err != nil {
		h.Render.internal(c, err)
		return
	}

	var body partnerBody
	errs, err := bind(c, &body)
	if err != nil {
		h.Render.Error(c, http.StatusBadRequest, "error.badRequest", "")
		return
	}
	if len(errs) > 0 {
		res, err := h.Setup.Current(sid)
		if err != nil || res.View.Step != model.PartnerStep {
			c.Redirect(http.StatusSeeOther, "/setup")
			return
		}
		res.Errors = errs
		res.Form = body.form()
		h.render(c, http.StatusUnprocessableEntity, res)
		return
	}

	res, err := h.Setup.AddPartner(c.Request.Context(), sid, body.form())
	if err != nil {
		h.fail(c, sid, err)
		return
	}
	switch {
	case len(res.Errors) > 0:
		h.render(c, http.StatusUnprocessableEntity, res)
	case res.Notice != "":
		h.render(c, http.StatusBadGateway, res)
	default:
		h.render(c, http.StatusOK, res)
	}
}

// Continue leaves the wizard for the enrollment page once a partner exists.
func (h *SetupHandler) Continue(c *gin.Context) {
	sid, err := sessionID(c)
	if err != nil {
		h.Render.internal(c, err)
		return
	}
	target, err := h.Setup.Continue(sid)
	if errors.Is(err, flow.ErrNoPartners) {
		res, cerr := h.Setup.Current(sid)
		if cerr != nil {
			h.fail(c, sid, cerr)
			return
		}
		res.Notice = flow.MsgNoPartners
		h.render(c, http.StatusUnprocessableEntity, res)
		return
	}
	if err != nil {
		h.fail(c, sid, err)
		return
	}
	c.Redirect(http.StatusSeeOther, target)
}
