package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/Jawadyyy/healthmate-portal/internal/model"
	"github.com/Jawadyyy/healthmate-portal/internal/session"
	"github.com/Jawadyyy/healthmate-portal/pkg/apiclient"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeLoader map[string]*model.Session

func (f fakeLoader) Load(_ context.Context, id string) (*model.Session, error) {
	switch id {
	case "expired":
		return nil, session.ErrExpired
	case "broken":
		return nil, errors.New("store unreachable")
	}
	s, ok := f[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	return s, nil
}

func sessionEngine(loader SessionLoader, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{RequireSession(loader, "hm_session")}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		s, _ := CurrentSession(c)
		c.JSON(http.StatusOK, gin.H{
			"role":  s.Role,
			"token": apiclient.TokenFromContext(c.Request.Context()),
		})
	})
	r.GET("/p", handlers...)
	return r
}

func get(r http.Handler, cookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "hm_session", Value: cookie})
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireSession(t *testing.T) {
	loader := fakeLoader{"ok": {ID: "ok", Role: model.RoleDoctor, Token: "backend-token", IsLoggedIn: true}}
	r := sessionEngine(loader)

	tests := []struct {
		name   string
		cookie string
		status int
	}{
		{"no cookie", "", http.StatusUnauthorized},
		{"unknown session", "nope", http.StatusUnauthorized},
		{"expired session", "expired", http.StatusUnauthorized},
		{"store failure", "broken", http.StatusInternalServerError},
		{"valid session", "ok", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, tt.cookie)
			assert.Equal(t, tt.status, w.Code)
		})
	}

	w := get(r, "ok")
	assert.JSONEq(t, `{"role":"doctor","token":"backend-token"}`, w.Body.String())
}

func TestRequireRole(t *testing.T) {
	loader := fakeLoader{
		"doc": {ID: "doc", Role: model.RoleDoctor},
		"pat": {ID: "pat", Role: model.RolePatient},
	}
	r := sessionEngine(loader, RequireRole(model.RoleDoctor))

	assert.Equal(t, http.StatusOK, get(r, "doc").Code)

	w := get(r, "pat")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "You do not have access to this page")
}

func TestRateLimiter_PerClient(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: rate.Every(time.Hour), Burst: 2})

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"))

	r := gin.New()
	r.Use(rl.RateLimit())
	r.GET("/p", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestCORS_EchoesAllowedOriginOnly(t *testing.T) {
	r := gin.New()
	r.Use(CORS(DefaultCORSConfig([]string{"https://portal.example.com"})))
	r.GET("/p", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/p", nil)
	req.Header.Set("Origin", "https://portal.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://portal.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/p", func(c *gin.Context) {
		c.String(http.StatusOK, apiclient.RequestIDFromContext(c.Request.Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set(HeaderXRequestID, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(HeaderXRequestID))
	assert.Equal(t, "abc-123", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/p", nil))
	require.NotEmpty(t, w.Header().Get(HeaderXRequestID))
	assert.Equal(t, w.Header().Get(HeaderXRequestID), w.Body.String())
}

func TestRecovery_AnswersEnvelope(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/p", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/p", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"error"`)
	assert.NotContains(t, w.Body.String(), "boom")
}
