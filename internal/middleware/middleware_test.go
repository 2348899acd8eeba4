package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dealdesk/internal/authz"
)

var secret = []byte("test-secret")

func init() { gin.SetMode(gin.TestMode) }

func newRouter() *gin.Engine {
	r := gin.New()
	r.Use(Recovery(zap.NewNop()), RequestLogger(zap.NewNop()))
	protected := r.Group("/", AuthMiddleware(secret))
	protected.GET("/me", func(c *gin.Context) {
		id, role := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "role": role})
	})
	protected.GET("/admin", RequireRoles(authz.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter()
	now := time.Now()

	valid, _, err := authz.NewAccessToken(secret, "u1", authz.RoleRep, now, time.Hour)
	require.NoError(t, err)
	expired, _, err := authz.NewAccessToken(secret, "u1", authz.RoleRep, now.Add(-2*time.Hour), time.Hour)
	require.NoError(t, err)
	foreign, _, err := authz.NewAccessToken([]byte("other"), "u1", authz.RoleRep, now, time.Hour)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &authz.Claims{UserID: "u1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	cases := []struct {
		name  string
		token string
		want  int
	}{
		{"valid", valid, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"expired", expired, http.StatusUnauthorized},
		{"wrong secret", foreign, http.StatusUnauthorized},
		{"alg none", none, http.StatusUnauthorized},
		{"garbage", "not-a-jwt", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, "/me", tc.token)
			assert.Equal(t, tc.want, w.Code)
			if tc.want == http.StatusOK {
				assert.JSONEq(t, `{"id":"u1","role":"rep"}`, w.Body.String())
			}
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRoles(t *testing.T) {
	r := newRouter()
	now := time.Now()

	admin, _, err := authz.NewAccessToken(secret, "a1", authz.RoleAdmin, now, time.Hour)
	require.NoError(t, err)
	rep, _, err := authz.NewAccessToken(secret, "u1", authz.RoleRep, now, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusNoContent, do(r, "/admin", admin).Code)
	assert.Equal(t, http.StatusForbidden, do(r, "/admin", rep).Code)
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/deals/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", m.Handler())

	do(r, "/deals/abc", "")
	do(r, "/deals/def", "")
	m.DealConflict()

	w := do(r, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `dealdesk_http_requests_total{method="GET",route="/deals/:id",status="200"} 2`)
	assert.Contains(t, body, "dealdesk_deal_version_conflicts_total 1")
	assert.False(t, strings.Contains(body, "/deals/abc"), "raw paths must not become labels")
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zap.NewNop()))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := do(r, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
}
