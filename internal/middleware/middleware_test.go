package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinelog/internal/config"
	"github.com/iliyamo/cinelog/internal/logging"
	"github.com/iliyamo/cinelog/internal/utils"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func serve(e *echo.Echo, method, target string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRedisCacheHitAndMiss(t *testing.T) {
	mr, rdb := newRedis(t)
	cfg := config.CacheConfig{
		Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute,
		KeyStrategy: "route_query", Prefix: "test:cache", MaxBodyBytes: 1 << 20,
	}
	calls := 0
	e := echo.New()
	e.GET("/v1/external/movies/search", func(c echo.Context) error {
		calls++
		if c.QueryParam("q") == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "q is required"})
		}
		return c.JSON(http.StatusOK, echo.Map{"query": c.QueryParam("q"), "n": calls})
	}, NewRedisCache(cfg, rdb))

	first := serve(e, http.MethodGet, "/v1/external/movies/search?q=oldboy", nil)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := serve(e, http.MethodGet, "/v1/external/movies/search?q=oldboy", nil)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, echo.MIMEApplicationJSON, second.Header().Get(echo.HeaderContentType))
	assert.Equal(t, 1, calls)

	other := serve(e, http.MethodGet, "/v1/external/movies/search?q=mother", nil)
	assert.Equal(t, "MISS", other.Header().Get("X-Cache"))
	assert.Equal(t, 2, calls)

	for i := 0; i < 2; i++ {
		bad := serve(e, http.MethodGet, "/v1/external/movies/search", nil)
		assert.Equal(t, http.StatusBadRequest, bad.Code)
		assert.Equal(t, "MISS", bad.Header().Get("X-Cache"))
	}
	assert.Equal(t, 4, calls)

	mr.FastForward(2 * time.Minute)
	expired := serve(e, http.MethodGet, "/v1/external/movies/search?q=oldboy", nil)
	assert.Equal(t, "MISS", expired.Header().Get("X-Cache"))
	assert.Equal(t, 5, calls)
}

func TestRedisCacheHitKeepsPerRequestHeadersSingle(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.CacheConfig{
		Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute,
		KeyStrategy: "route_query", Prefix: "test:cache", MaxBodyBytes: 1 << 20,
	}
	e := echo.New()
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: RequestIDGenerator}))
	e.Use(echomw.CORS())
	e.GET("/v1/external/movies/search", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"query": c.QueryParam("q")})
	}, NewRedisCache(cfg, rdb))

	origin := map[string]string{echo.HeaderOrigin: "https://app.example.com"}
	miss := serve(e, http.MethodGet, "/v1/external/movies/search?q=oldboy", origin)
	require.Equal(t, "MISS", miss.Header().Get("X-Cache"))
	hit := serve(e, http.MethodGet, "/v1/external/movies/search?q=oldboy", origin)
	require.Equal(t, "HIT", hit.Header().Get("X-Cache"))

	for _, rec := range []*httptest.ResponseRecorder{miss, hit} {
		assert.Equal(t, []string{"*"}, rec.Header().Values(echo.HeaderAccessControlAllowOrigin))
		assert.Len(t, rec.Header().Values(echo.HeaderXRequestID), 1)
		assert.Len(t, rec.Header().Values(echo.HeaderContentType), 1)
	}
	assert.NotEqual(t, miss.Header().Get(echo.HeaderXRequestID), hit.Header().Get(echo.HeaderXRequestID))
}

func TestRedisCacheDisabledWithoutClient(t *testing.T) {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") },
		NewRedisCache(config.CacheConfig{Enabled: true}, nil))

	rec := serve(e, http.MethodGet, "/x", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"a":1}`))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, hdr, got)
	assert.Equal(t, `{"a":1}`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 1})
	assert.False(t, ok)
}

// asUser is a stand-in for JWTAuth in rate limit tests.
func asUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if v := c.Request().Header.Get("X-Test-User"); v != "" {
			id, _ := strconv.ParseUint(v, 10, 64)
			c.Set(CtxUserID, id)
		}
		return next(c)
	}
}

func TestTokenBucketPerUser(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.RateLimitConfig{
		Enabled: true, Capacity: 2, RefillTokens: 1, RefillInterval: time.Minute,
		TTL: 10 * time.Minute, KeyStrategy: "user_route", Prefix: "test:rl",
	}
	e := echo.New()
	e.POST("/v1/movies/:id/reviews", func(c echo.Context) error {
		return c.NoContent(http.StatusCreated)
	}, asUser, NewTokenBucket(cfg, rdb))

	alice := map[string]string{"X-Test-User": "1"}
	for i := 0; i < 2; i++ {
		rec := serve(e, http.MethodPost, "/v1/movies/1/reviews", alice)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	blocked := serve(e, http.MethodPost, "/v1/movies/2/reviews", alice)
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "0", blocked.Header().Get("X-RateLimit-Remaining"))
	retry, err := strconv.Atoi(blocked.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.True(t, retry > 0 && retry <= 60)

	bob := serve(e, http.MethodPost, "/v1/movies/1/reviews", map[string]string{"X-Test-User": "2"})
	assert.Equal(t, http.StatusCreated, bob.Code)
}

func TestTokenBucketFailsOpen(t *testing.T) {
	mr, rdb := newRedis(t)
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute}
	e := echo.New()
	e.POST("/x", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, NewTokenBucket(cfg, rdb))

	mr.Close()
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, serve(e, http.MethodPost, "/x", nil).Code)
	}
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/movies/1/watchlist", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/movies/:id/watchlist")

	tests := []struct{ strategy, want string }{
		{"ip", "rl:ip:10.0.0.1"},
		{"user", "rl:user:anon"},
		{"user_route", "rl:user:anon:route:POST /v1/movies/:id/watchlist"},
		{"", "rl:ip:10.0.0.1:user:anon:route:POST /v1/movies/:id/watchlist"},
	}
	for _, tt := range tests {
		t.Run(tt.strategy, func(t *testing.T) {
			assert.Equal(t, tt.want, buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: tt.strategy}, c))
		})
	}

	c.Set(CtxUserID, uint64(42))
	assert.Equal(t, "rl:user:42", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}, c))
}

func TestJWTAuth(t *testing.T) {
	tok, err := utils.NewAccessToken("secret", 9, "minji", 5)
	require.NoError(t, err)

	e := echo.New()
	handler := func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"id": c.Get(CtxUserID), "name": c.Get(CtxUsername)})
	}
	e.GET("/private", handler, JWTAuth("secret"))
	e.GET("/optional", handler, OptionalJWT("secret"))

	rec := serve(e, http.MethodGet, "/private", map[string]string{"Authorization": "Bearer " + tok.Token})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":9,"name":"minji"}`, rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/private", nil).Code)
	assert.Equal(t, http.StatusUnauthorized,
		serve(e, http.MethodGet, "/private", map[string]string{"Authorization": "Bearer nope"}).Code)

	anon := serve(e, http.MethodGet, "/optional", map[string]string{"Authorization": "Bearer nope"})
	require.Equal(t, http.StatusOK, anon.Code)
	assert.JSONEq(t, `{"id":null,"name":null}`, anon.Body.String())
}

func TestRequestLog(t *testing.T) {
	var buf bytes.Buffer
	prev := logging.Logger()
	logging.SetLogger(zerolog.New(&buf))
	t.Cleanup(func() { logging.SetLogger(prev) })

	e := echo.New()
	e.Use(RequestLog())
	e.GET("/v1/movies/:id", func(c echo.Context) error {
		logging.Ctx(c.Request().Context()).Info().Msg("inside")
		return echo.NewHTTPError(http.StatusNotFound, "movie not found")
	})

	rec := serve(e, http.MethodGet, "/v1/movies/5", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rid := rec.Header().Get(echo.HeaderXRequestID)
	require.NotEmpty(t, rid)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var inner, access map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &inner))
	require.NoError(t, json.Unmarshal(lines[1], &access))
	assert.Equal(t, rid, inner["request_id"])
	assert.Equal(t, rid, access["request_id"])
	assert.Equal(t, "warn", access["level"])
	assert.Equal(t, "/v1/movies/:id", access["route"])
	assert.Equal(t, float64(http.StatusNotFound), access["status"])
}
