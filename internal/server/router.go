package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"youareloved-web/internal/config"
	"youareloved-web/internal/flow"
	"youareloved-web/internal/handler"
	"youareloved-web/internal/i18n"
	"youareloved-web/internal/logging"
	"youareloved-web/internal/middleware"
	"youareloved-web/internal/session"
	"youareloved-web/internal/store"
	"youareloved-web/internal/web"
)

type Deps struct {
	Config  config.Config
	Store   *store.Store
	API     flow.API
	APIHost string
	Catalog *i18n.Catalog
	Log     logging.Logger

	// Limiter guards form posts. When nil one is built from the config.
	Limiter *middleware.RateLimiter
}

func NewRouter(deps Deps) (*gin.Engine, error) {
	tmpl, err := web.Templates()
	if err != nil {
		return nil, err
	}
	if deps.Log == nil {
		deps.Log = logging.Discard()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.SetHTMLTemplate(tmpl)
	r.StaticFS("/static", http.FS(web.Static()))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	qrHandler := &handler.QRHandler{Hosts: append([]string{deps.APIHost}, deps.Config.ProfileLinkHosts...)}
	r.GET("/qr.png", qrHandler.PNG)

	limiter := deps.Limiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(deps.Config.RateLimitPerMinute, time.Minute)
	}

	render := &handler.Renderer{Catalog: deps.Catalog, Log: deps.Log}
	tokenCfg := session.DefaultTokenConfig(deps.Config.SessionSecret)
	if deps.Config.SessionTTL > 0 {
		tokenCfg.Expiry = deps.Config.SessionTTL
	}
	secure := deps.Config.CookieSecure

	site := r.Group("/")
	site.Use(middleware.Language(deps.Catalog))
	posts := middleware.RateLimitMiddleware(limiter, render.RateLimited)

	pageHandler := &handler.PageHandler{Render: render}
	site.GET("/", pageHandler.Home)
	site.GET("/privacy", pageHandler.Privacy)

	languageHandler := &handler.LanguageHandler{Catalog: deps.Catalog, Render: render, Secure: secure}
	site.GET("/lang/:code", languageHandler.Set)

	app := site.Group("/")
	app.Use(middleware.Session(deps.Store, tokenCfg, secure))

	setupHandler := &handler.SetupHandler{
		Setup:  &flow.Setup{API: deps.API, Store: deps.Store, Log: deps.Log.With("flow", "setup")},
		Render: render,
	}
	app.GET("/setup", setupHandler.Show)
	app.POST("/setup", posts, setupHandler.Submit)
	app.GET("/setup/partners", setupHandler.Partners)
	app.POST("/setup/partners", posts, setupHandler.AddPartner)
	app.POST("/setup/continue", posts, setupHandler.Continue)

	downloadHandler := &handler.DownloadHandler{
		Enrollment: &flow.Enrollment{
			API:            deps.API,
			Store:          deps.Store,
			Log:            deps.Log.With("flow", "enrollment"),
			RequirePartner: deps.Config.RequirePartnerForEnroll,
		},
		Store:          deps.Store,
		Render:         render,
		MacDownloadURL: deps.Config.MacDownloadURL,
	}
	app.GET("/download", downloadHandler.Show)
	app.POST("/download", posts, downloadHandler.Enroll)
	app.POST("/download/check", posts, downloadHandler.Check)
	app.POST("/download/partners", posts, downloadHandler.AddPartner)

	sessionHandler := &handler.SessionHandler{Store: deps.Store, Secure: secure}
	app.POST("/session/clear", sessionHandler.Clear)

	r.NoRoute(middleware.Language(deps.Catalog), pageHandler.NotFound)

	return r, nil
}
