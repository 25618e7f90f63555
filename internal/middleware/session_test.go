package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"youareloved-web/internal/session"
	"youareloved-web/internal/store"
)

func sessionRouter(st *store.Store, cfg session.TokenConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Session(st, cfg, true))
	r.GET("/", func(c *gin.Context) {
		sid, ok := SessionIDFromContext(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, sid)
	})
	return r
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie set", session.CookieName)
	return nil
}

func TestSession_CreatesAndReuses(t *testing.T) {
	st := store.New()
	cfg := session.TokenConfig{Secret: "secret", Expiry: time.Hour, Issuer: "test"}
	r := sessionRouter(st, cfg)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	first := w.Body.String()
	cookie := sessionCookie(t, w)
	if !cookie.HttpOnly || !cookie.Secure || cookie.SameSite != http.SameSiteLaxMode {
		t.Fatalf("unexpected cookie attributes: %+v", cookie)
	}
	if cookie.MaxAge != 0 {
		t.Fatalf("session cookie must not persist, MaxAge=%d", cookie.MaxAge)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: cookie.Value})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != first {
		t.Fatalf("expected session %q to be reused, got %q", first, w.Body.String())
	}
	if st.Len() != 1 {
		t.Fatalf("expected one session, got %d", st.Len())
	}
}

func TestSession_ReplacesInvalidCookie(t *testing.T) {
	st := store.New()
	cfg := session.TokenConfig{Secret: "secret", Expiry: time.Hour, Issuer: "test"}
	r := sessionRouter(st, cfg)

	forged, err := session.CreateToken("not-a-session", session.TokenConfig{Secret: "other", Expiry: time.Hour, Issuer: "test"})
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: forged})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() == "not-a-session" {
		t.Fatalf("forged session id was accepted")
	}

	// Valid signature, but the record was swept.
	gone := st.Create()
	st.Delete(gone)
	stale, err := session.CreateToken(gone, cfg)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: stale})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() == gone {
		t.Fatalf("deleted session id was accepted")
	}
}
