package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vittermi/FastFood/metrics"
	"github.com/vittermi/FastFood/models"
	"github.com/vittermi/FastFood/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.InitJWT("middleware-test-secret")
}

func bearer(t *testing.T, userID, role string) string {
	t.Helper()
	token, err := utils.GenerateToken(userID, role, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func authRouter() *gin.Engine {
	r := gin.New()
	r.Use(AuthMiddleware())
	r.GET("/whoami", func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": actor.ID, "role": actor.Role})
	})
	r.GET("/customers-only", RequireRole(models.RoleCustomer), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/anyone", RequireRole(models.RoleCustomer, models.RoleRestaurateur), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	r := authRouter()

	expired, err := utils.GenerateToken("cust-1", "customer", -time.Minute)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		code   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized},
		{"unknown role", bearer(t, "u1", "admin"), http.StatusUnauthorized},
		{"empty user", bearer(t, "", "customer"), http.StatusUnauthorized},
		{"customer", bearer(t, "cust-1", "customer"), http.StatusOK},
		{"restaurateur", bearer(t, "owner-1", "restaurateur"), http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.code, w.Code, w.Body.String())
		})
	}
}

func TestAuthMiddlewareRejectsForeignSecret(t *testing.T) {
	r := authRouter()
	token := bearer(t, "cust-1", "customer")

	utils.InitJWT("another-secret-entirely")
	defer utils.InitJWT("middleware-test-secret")

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	r := authRouter()

	req := httptest.NewRequest(http.MethodGet, "/customers-only", nil)
	req.Header.Set("Authorization", bearer(t, "owner-1", "restaurateur"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), `"kind":"forbidden"`)

	req = httptest.NewRequest(http.MethodGet, "/customers-only", nil)
	req.Header.Set("Authorization", bearer(t, "cust-1", "customer"))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRequireRoleAcceptsAnyListedRole(t *testing.T) {
	r := authRouter()

	for _, role := range []string{"customer", "restaurateur"} {
		req := httptest.NewRequest(http.MethodGet, "/anyone", nil)
		req.Header.Set("Authorization", bearer(t, "user-1", role))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code, role)
	}
}

func TestRateLimiterPerIP(t *testing.T) {
	limiter := NewRateLimiter(0.001, 2)
	r := gin.New()
	r.Use(limiter.RateLimit())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	hit := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, hit("10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, hit("10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit("10.0.0.2"))
}

func TestRateLimiterForgetsIdleClients(t *testing.T) {
	limiter := newRateLimiter(1, 1, 50*time.Millisecond)

	first := limiter.limiterFor("10.0.0.1")
	assert.Same(t, first, limiter.limiterFor("10.0.0.1"))

	require.Eventually(t, func() bool {
		_, tracked := limiter.ips.Peek("10.0.0.1")
		return !tracked
	}, time.Second, 10*time.Millisecond)
	assert.NotSame(t, first, limiter.limiterFor("10.0.0.1"))
}

func TestRateLimiterKeepsActiveClients(t *testing.T) {
	limiter := newRateLimiter(1, 1, 200*time.Millisecond)

	first := limiter.limiterFor("10.0.0.1")
	for i := 0; i < 4; i++ {
		time.Sleep(80 * time.Millisecond)
		assert.Same(t, first, limiter.limiterFor("10.0.0.1"))
	}
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddlewares([]string{"http://localhost:3000"}))
	r.PUT("/api/orders/:id/status", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/api/orders/o1/status", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/orders/o1/status", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMetricsMiddlewareUsesRouteTemplate(t *testing.T) {
	m := metrics.New()
	r := gin.New()
	r.Use(MetricsMiddleware(m))
	r.GET("/api/orders/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, id := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/orders/"+id, nil))
	}

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), `fastfood_http_requests_total{method="GET",route="/api/orders/:id",status="200"} 2`)
}

func TestLoggerMiddlewarePassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(LoggerMiddleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?x=1", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}
