package server

import (
	"crypto/sha256"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/csrf"
	"youareloved-web/internal/config"
	"youareloved-web/internal/i18n"
	"youareloved-web/internal/middleware"
)

// CSRFField is the hidden form field carrying the CSRF token.
const CSRFField = "csrf_token"

// NewHandler wraps the router with CSRF protection for every unsafe method.
// The key is derived from the session secret so restarts keep tokens valid.
func NewHandler(cfg config.Config, catalog *i18n.Catalog, router http.Handler) http.Handler {
	key := sha256.Sum256([]byte("csrf:" + cfg.SessionSecret))
	protect := csrf.Protect(key[:],
		csrf.Secure(cfg.CookieSecure),
		csrf.Path("/"),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.FieldName(CSRFField),
		csrf.ErrorHandler(csrfFailure(catalog)),
	)
	return protect(router)
}

func csrfFailure(catalog *i18n.Catalog) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		saved := ""
		if c, err := r.Cookie(middleware.LanguageCookie); err == nil {
			saved = c.Value
		}
		lang := catalog.Match(saved, r.Header.Get("Accept-Language"))
		http.Error(w, catalog.T(lang, "error.forbidden"), http.StatusForbidden)
	})
}

func NewHTTPServer(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func Run(cfg config.Config, handler http.Handler) error {
	srv := NewHTTPServer(cfg, handler)
	if cfg.TLSEnabled() {
		return srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
	}
	return srv.ListenAndServe()
}
