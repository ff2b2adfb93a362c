package app_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"Gin_postgres_redis_library_dashboard/app"

	"github.com/gin-gonic/gin"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"WEB_ORIGIN", "RP_ORIGINS", "SESSION_TTL_SECONDS", "STATS_CACHE_SECONDS", "ADMIN_EMAILS", "PORT"} {
		t.Setenv(k, "")
	}
	cfg := app.LoadConfig()
	if cfg.WebOrigin != "http://localhost:3000" || cfg.Port != "3001" {
		t.Errorf("unexpected defaults %q %q", cfg.WebOrigin, cfg.Port)
	}
	if len(cfg.RPOrigins) != 1 || cfg.RPOrigins[0] != cfg.WebOrigin {
		t.Errorf("RPOrigins should default to WEB_ORIGIN, got %v", cfg.RPOrigins)
	}
	if cfg.AppSessionTTL != 24*time.Hour || cfg.StatsCacheTTL != time.Minute {
		t.Errorf("unexpected ttls %v %v", cfg.AppSessionTTL, cfg.StatsCacheTTL)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SESSION_TTL_SECONDS", "120")
	t.Setenv("STATS_CACHE_SECONDS", "abc")
	t.Setenv("NOTIFIER_INTERVAL", "15m")
	t.Setenv("ADMIN_EMAILS", " Boss@Library.com , ,ops@library.com")

	cfg := app.LoadConfig()
	if cfg.AppSessionTTL != 2*time.Minute {
		t.Errorf("SESSION_TTL_SECONDS: got %v", cfg.AppSessionTTL)
	}
	if cfg.StatsCacheTTL != time.Minute {
		t.Errorf("invalid STATS_CACHE_SECONDS should fall back, got %v", cfg.StatsCacheTTL)
	}
	if cfg.NotifierInterval != 15*time.Minute {
		t.Errorf("NOTIFIER_INTERVAL: got %v", cfg.NotifierInterval)
	}
	if !cfg.IsConfiguredAdmin("boss@library.com") || !cfg.IsConfiguredAdmin(" OPS@library.com") {
		t.Errorf("admin emails not matched: %v", cfg.AdminEmails)
	}
	if cfg.IsConfiguredAdmin("staff1@library.com") {
		t.Error("unexpected admin")
	}
}

func TestRoleRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	withRole := func(role string) gin.HandlerFunc {
		return func(c *gin.Context) {
			if role != "" {
				c.Set("role", role)
			}
		}
	}
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }
	r.GET("/none", withRole(""), app.RoleRequired("admin"), ok)
	r.GET("/staff", withRole("staff"), app.RoleRequired("admin"), ok)
	r.GET("/admin", withRole("admin"), app.RoleRequired("admin", "staff"), ok)

	for path, want := range map[string]int{"/none": 401, "/staff": 403, "/admin": 204} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != want {
			t.Errorf("%s: expected %d, got %d", path, want, w.Code)
		}
	}
}

func TestMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := app.NewMetrics()
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/books/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", m.Handler())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/books/abc", nil))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()
	want := `library_http_requests_total{method="GET",route="/api/books/:id",status="200"} 1`
	if !strings.Contains(body, want) {
		t.Errorf("metrics output missing %s", want)
	}
}

func TestCORSAllowsConfiguredOrigins(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := app.Config{
		WebOrigin: "http://localhost:3000",
		RPID:      "localhost",
		RPOrigins: []string{"http://localhost:3000/", "https://lib.example.com"},
	}
	a, err := app.New(cfg, nil, nil, nil)
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	a.Router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	for origin, allowed := range map[string]bool{
		"http://localhost:3000":   true,
		"https://lib.example.com": true,
		"https://evil.example":    false,
	} {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Origin", origin)
		w := httptest.NewRecorder()
		a.Router.ServeHTTP(w, req)
		got := w.Header().Get("Access-Control-Allow-Origin") == origin
		if got != allowed {
			t.Errorf("%s: allowed=%v, expected %v (status %d)", origin, got, allowed, w.Code)
		}
	}
}
