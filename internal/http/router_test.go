package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/menucraft/go-badge-backend/internal/catalog"
	"github.com/menucraft/go-badge-backend/internal/config"
	"github.com/menucraft/go-badge-backend/internal/domain"
	"github.com/menucraft/go-badge-backend/internal/http/middleware"
	"github.com/menucraft/go-badge-backend/internal/repo"
)

// --- test DB helper (pure-Go sqlite, no CGO) ---
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func testCfg(base string) config.Config {
	return config.Config{
		APIBasePath:     base,
		RateRPS:         100,
		RateBurst:       10,
		CORS:            config.CORSConfig{},
		Security:        config.SecurityConfig{EnableHSTS: false, HSTSMaxAge: 0},
		OTEL:            config.OTELConfig{ServiceName: "test-svc"},
		PollInterval:    time.Minute,
		NotificationTTL: 5 * time.Second,
		NotificationMax: 20,
	}
}

func registerTestRoutes(t *testing.T, r *gin.Engine, db *gorm.DB, cfg config.Config) {
	t.Helper()
	m := RegisterRoutes(r, db, catalog.Default(), cfg)
	t.Cleanup(m.Shutdown)
}

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	registerTestRoutes(t, r, newTestDB(t), testCfg("/api/v1"))

	// /health works
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	// CORS (AllowAllOrigins) → header "*"
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}

	// /metrics is wired
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || len(w.Body.Bytes()) == 0 {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}

	// NoRoute → 404
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/nope", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}

	// NoMethod → 405 (POST /health)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/health", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	cfg := testCfg("/api/v2")
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://example.com"}}
	registerTestRoutes(t, r, newTestDB(t), cfg)

	// Any request runs through CORS middleware; header should reflect origin.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://example.com")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// tiny cap to trigger MaxBytesReader
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB")) // 12 bytes
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	// "/" and "" should mount at root
	root1 := groupWithPrefix(r, "/")
	root1.GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	root2 := groupWithPrefix(r, "")
	root2.GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })

	// non-root prefix
	api := groupWithPrefix(r, "/api")
	api.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	// Hit all three
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/one", nil)
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "one" {
		t.Fatalf("GET /one got %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/two", nil)
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "two" {
		t.Fatalf("GET /two got %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
		t.Fatalf("GET /api/ping got %d %q", rec.Code, rec.Body.String())
	}
}

// Smoke test that a request traverses idempotency + ratelimit + otel + security headers pipeline.
func TestPipeline_Smoke(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	cfg := testCfg("/api/v1")
	cfg.Security = config.SecurityConfig{EnableHSTS: true, HSTSMaxAge: time.Hour} // enabled (but only set on https)
	registerTestRoutes(t, r, newTestDB(t), cfg)

	// Any request goes through the middleware stack
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	// simulate https so HSTS could be eligible if middleware checks scheme
	req.URL.Scheme = "https"
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("pipeline GET /health = %d", w.Code)
	}
	// RequestID header should be present (from RequestID middleware)
	if rid := w.Header().Get("X-Request-ID"); rid == "" {
		t.Fatalf("expected X-Request-ID header to be set")
	}
}

func Test_ledgerShim_Proxies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)

	shim := ledgerShim{}
	ctx := context.Background()
	at := time.Now().UTC()

	// --- TryInsertUnlock ---
	inserted, rec, err := shim.TryInsertUnlock(ctx, db, "u1", "first-article", at)
	if err != nil || !inserted || rec == nil {
		t.Fatalf("TryInsertUnlock: inserted=%v rec=%v err=%v", inserted, rec, err)
	}
	// duplicate insert is silently lost
	inserted, _, err = shim.TryInsertUnlock(ctx, db, "u1", "first-article", at)
	if err != nil || inserted {
		t.Fatalf("duplicate TryInsertUnlock: inserted=%v err=%v", inserted, err)
	}

	// --- ListUnlockedIDs ---
	ids, err := shim.ListUnlockedIDs(ctx, db, "u1")
	if err != nil {
		t.Fatalf("ListUnlockedIDs: %v", err)
	}
	if _, ok := ids["first-article"]; !ok || len(ids) != 1 {
		t.Fatalf("ListUnlockedIDs mismatch: %v", ids)
	}

	// Seed a second unlock for pagination
	if _, _, err := shim.TryInsertUnlock(ctx, db, "u1", "first-comment", at.Add(time.Second)); err != nil {
		t.Fatalf("TryInsertUnlock second: %v", err)
	}

	// --- CountUnlocks ---
	n, err := shim.CountUnlocks(ctx, db, "u1")
	if err != nil || n != 2 {
		t.Fatalf("CountUnlocks: n=%d err=%v", n, err)
	}

	// --- ListUnlocks ---
	page, err := shim.ListUnlocks(ctx, db, "u1", 0, 1)
	if err != nil || len(page) != 1 {
		t.Fatalf("ListUnlocks: len=%d err=%v", len(page), err)
	}
	if page[0].BadgeID != "first-article" {
		t.Fatalf("ListUnlocks expected oldest first, got %q", page[0].BadgeID)
	}
}

func Test_progressShim_Proxies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)

	shim := progressShim{}
	ctx := context.Background()

	// Never-seen user resolves to zero values.
	p, err := shim.GetProgress(ctx, db, "ghost")
	if err != nil || p.ArticlesCount != 0 {
		t.Fatalf("GetProgress ghost: %+v err=%v", p, err)
	}

	p, err = shim.ApplyProgressDelta(ctx, db, "u1", domain.ProgressDelta{ArticlesCount: 2})
	if err != nil || p.ArticlesCount != 2 {
		t.Fatalf("ApplyProgressDelta: %+v err=%v", p, err)
	}
	p, err = shim.GetProgress(ctx, db, "u1")
	if err != nil || p.ArticlesCount != 2 {
		t.Fatalf("GetProgress after apply: %+v err=%v", p, err)
	}
}

// Full API flow: merge progress, trigger a check, read the unlock back.
func TestAPI_ProgressToUnlockFlow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	registerTestRoutes(t, r, newTestDB(t), testCfg("/api/v1"))

	// 1) Merge a progress delta that satisfies the first-article badge.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/u1/progress", bytes.NewBufferString(`{"articles_count":1}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("POST progress = %d body=%s", w.Code, w.Body.String())
	}

	// 2) On-demand check reports the new unlock exactly once.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/users/u1/badges/check", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("POST check = %d body=%s", w.Code, w.Body.String())
	}
	var check struct {
		Unlocked []domain.UnlockedBadge `json:"unlocked"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &check); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(check.Unlocked) != 1 || check.Unlocked[0].ID != "first-article" {
		t.Fatalf("unexpected unlocks: %+v", check.Unlocked)
	}

	// 3) Re-checking returns nothing new.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/users/u1/badges/check", nil))
	if err := json.Unmarshal(w.Body.Bytes(), &check); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(check.Unlocked) != 0 {
		t.Fatalf("re-check must be empty, got %+v", check.Unlocked)
	}

	// 4) The unlock shows up in the user's badge list.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/users/u1/badges", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET badges = %d", w.Code)
	}
	var list struct {
		Badges []domain.UnlockedBadge `json:"badges"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(list.Badges) != 1 || list.Badges[0].ID != "first-article" {
		t.Fatalf("unexpected badge list: %+v", list.Badges)
	}
}

// Retried progress POSTs with the same Idempotency-Key must not double-count.
func TestAPI_ProgressIdempotencyReplay(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	db := newTestDB(t)
	registerTestRoutes(t, r, db, testCfg("/api/v1"))

	post := func(key string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/users/u1/progress", bytes.NewBufferString(`{"articles_count":1}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(middleware.HeaderIdempotencyKey, key)
		r.ServeHTTP(w, req)
		return w
	}

	w := post("retry-key")
	if w.Code != http.StatusOK {
		t.Fatalf("first POST = %d body=%s", w.Code, w.Body.String())
	}
	if w.Header().Get("Idempotency-Replayed") != "" {
		t.Fatalf("first POST must not be a replay")
	}

	w = post("retry-key")
	if w.Code != http.StatusOK {
		t.Fatalf("second POST = %d body=%s", w.Code, w.Body.String())
	}
	if w.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatalf("second POST expected Idempotency-Replayed=true")
	}

	var p domain.Progress
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if p.ArticlesCount != 1 {
		t.Fatalf("replay double-counted: articles=%d", p.ArticlesCount)
	}
}

func TestRegisterRoutes_IdempotencyCallback_ErrorBranch(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	db := newTestDB(t)
	registerTestRoutes(t, r, db, testCfg("/api/v1"))

	// Force queries to fail by closing the underlying connection.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	_ = sqlDB.Close()

	// Now any repo.GetIdempotency call should error → treated as a miss.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/health", bytes.NewBufferString("{}"))
	req.Header.Set(middleware.HeaderIdempotencyKey, "force-error")
	r.ServeHTTP(w, req)

	// 405 is expected for POST /health; goal is to exercise the middleware branch.
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}
