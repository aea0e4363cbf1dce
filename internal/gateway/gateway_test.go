package gateway

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jacl-coder/ShuttleRotation-Server/config"
	"github.com/jacl-coder/ShuttleRotation-Server/internal/match"
	"github.com/jacl-coder/ShuttleRotation-Server/internal/pairing"
	"github.com/jacl-coder/ShuttleRotation-Server/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
}

func testConfig() *config.Config {
	return &config.Config{
		Session:   config.SessionConfig{RemovalPolicy: "keep_finished"},
		Auth:      config.AuthConfig{Secret: "test-secret", Passcode: "shuttle", TokenTTL: time.Hour},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"*"}},
		RateLimit: config.RateLimitConfig{RequestsPerMinute: 600, Burst: 100},
	}
}

func newTestGateway(t *testing.T, cfg *config.Config) *Gateway {
	t.Helper()
	store := db.NewMemorySessionStore()
	service, err := match.NewMatchService(&cfg.Session, store, pairing.NewRand(1), zap.NewNop())
	require.NoError(t, err)
	service.SetArchiver(store)

	g := NewGateway(cfg, service, zap.NewNop())
	t.Cleanup(g.rateLimiter.Close)
	return g
}

func call(t *testing.T, h http.Handler, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestHealth(t *testing.T) {
	h := newTestGateway(t, testConfig()).Handler()
	rec, env := call(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestOrganizerTokenFlow(t *testing.T) {
	h := newTestGateway(t, testConfig()).Handler()

	rec, _ := call(t, h, http.MethodPost, "/sessions", "", map[string]string{"name": "club"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = call(t, h, http.MethodPost, "/auth/token", "", map[string]string{"passcode": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env := call(t, h, http.MethodPost, "/auth/token", "", map[string]string{"passcode": "shuttle"})
	require.Equal(t, http.StatusOK, rec.Code)
	var data tokenData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Token)

	rec, env = call(t, h, http.MethodPost, "/sessions", data.Token, map[string]string{"name": "club"})
	assert.Equal(t, http.StatusCreated, rec.Code, env.Message)

	// 读取不需要令牌
	rec, _ = call(t, h, http.MethodGet, "/sessions/club", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = call(t, h, http.MethodPost, "/sessions/club/players", "not-a-token", map[string]string{"name": "Ann"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExpiredToken(t *testing.T) {
	cfg := testConfig()
	g := newTestGateway(t, cfg)

	g.auth.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := g.auth.GenerateToken()
	require.NoError(t, err)
	g.auth.now = time.Now

	assert.Error(t, g.auth.ValidateToken(token))

	rec, env := call(t, g.Handler(), http.MethodPost, "/sessions", token, map[string]string{"name": "club"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "认证令牌已过期", env.Message)
}

func TestAuthDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Secret = ""
	h := newTestGateway(t, cfg).Handler()

	rec, _ := call(t, h, http.MethodPost, "/sessions", "", map[string]string{"name": "club"})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = call(t, h, http.MethodPost, "/auth/token", "", map[string]string{"passcode": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{RequestsPerMinute: 1, Burst: 2}
	h := newTestGateway(t, cfg).Handler()

	for i := 0; i < 2; i++ {
		rec, _ := call(t, h, http.MethodGet, "/sessions/none", "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}
	rec, _ := call(t, h, http.MethodGet, "/sessions/none", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// 健康检查不限流
	rec, _ = call(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.5:1234"
	assert.Equal(t, "10.0.0.5", clientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientIP(r))
}

func TestCostEndpoints(t *testing.T) {
	h := newTestGateway(t, testConfig()).Handler()

	rec, env := call(t, h, http.MethodPost, "/cost/split", "", map[string]any{
		"participants": []map[string]any{{"name": "Ann", "hours": 2}, {"name": "Ben", "hours": 2}},
		"court_fee":    map[string]any{"hourly_rate": 100, "hours": 2},
		"shuttlecock":  map[string]any{"quantity": 4, "price_per_piece": 20},
	})
	require.Equal(t, http.StatusOK, rec.Code, env.Message)
	var breakdown struct {
		TotalCost float64 `json:"total_cost"`
		AllEqual  bool    `json:"all_equal"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &breakdown))
	assert.Equal(t, 280.0, breakdown.TotalCost)
	assert.True(t, breakdown.AllEqual)

	rec, _ = call(t, h, http.MethodPost, "/cost/split", "", map[string]any{"participants": []any{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = call(t, h, http.MethodPost, "/cost/promptpay", "", map[string]any{"number": "+66 81 234 5678", "amount": 140})
	require.Equal(t, http.StatusOK, rec.Code, env.Message)
	var pp promptPayData
	require.NoError(t, json.Unmarshal(env.Data, &pp))
	assert.Equal(t, "081-234-5678", pp.Display)
	assert.NotEmpty(t, pp.Payload)

	rec, _ = call(t, h, http.MethodPost, "/cost/promptpay", "", map[string]any{"number": "021234567"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestGateway(t, testConfig()).Handler()
	rec, _ := call(t, h, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionETag(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Secret = ""
	h := newTestGateway(t, cfg).Handler()

	rec, _ := call(t, h, http.MethodPost, "/sessions", "", map[string]string{"name": "club"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = call(t, h, http.MethodGet, "/sessions/club", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/sessions/club", nil)
	req.Header.Set("If-None-Match", etag)
	notModified := httptest.NewRecorder()
	h.ServeHTTP(notModified, req)
	assert.Equal(t, http.StatusNotModified, notModified.Code)
	assert.Zero(t, notModified.Body.Len())

	// 修改后ETag变化
	rec, _ = call(t, h, http.MethodPost, "/sessions/club/players", "", map[string]string{"name": "Ann"})
	require.Equal(t, http.StatusCreated, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/sessions/club", nil)
	req.Header.Set("If-None-Match", etag)
	changed := httptest.NewRecorder()
	h.ServeHTTP(changed, req)
	assert.Equal(t, http.StatusOK, changed.Code)
	assert.NotEqual(t, etag, changed.Header().Get("ETag"))

	// 不存在的场次不带ETag
	rec, _ = call(t, h, http.MethodGet, "/sessions/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Header().Get("ETag"))
}
