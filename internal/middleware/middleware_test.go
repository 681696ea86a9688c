package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"hoodlink/internal/pkg"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() { gin.SetMode(gin.TestMode) }

type stubVerifier map[string]*pkg.Claims

func (s stubVerifier) Verify(_ context.Context, token string) (*pkg.Claims, error) {
	if c, ok := s[token]; ok {
		return c, nil
	}
	return nil, pkg.Unauthenticated("登入已失效，請重新登入")
}

func authEngine() *gin.Engine {
	claims := &pkg.Claims{UserID: "u1", Role: "user"}
	claims.ID = "jti-1"
	r := gin.New()
	r.GET("/me", AuthMiddleware(stubVerifier{"good": claims}), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"uid": UserID(c), "jti": TokenID(c)})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	r := authEngine()
	cases := []struct {
		header string
		status int
		body   string
	}{
		{"", http.StatusUnauthorized, "未提供授權憑證"},
		{"Token good", http.StatusUnauthorized, "授權格式錯誤"},
		{"Bearer ", http.StatusUnauthorized, "授權格式錯誤"},
		{"Bearer bad", http.StatusUnauthorized, "登入已失效"},
		{"Bearer good", http.StatusOK, `"jti":"jti-1"`},
	}
	for _, c := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if c.header != "" {
			req.Header.Set("Authorization", c.header)
		}
		r.ServeHTTP(w, req)
		assert.Equal(t, c.status, w.Code, c.header)
		assert.Contains(t, w.Body.String(), c.body, c.header)
	}
}

func TestMetrics_LabelsByRoute(t *testing.T) {
	m := pkg.NewMetrics(prometheus.NewRegistry())
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/api/posts/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, path := range []string{"/api/posts/1", "/api/posts/2", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("GET", "/api/posts/:id", "204")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("GET", "unmatched", "404")))
}

func TestRecoveryAndRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core)
	r := gin.New()
	r.Use(Recovery(log), RequestLogger(log))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "伺服器錯誤")
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
	warn := logs.FilterMessage("http request").FilterField(zap.Int("status", http.StatusNotFound)).All()
	if assert.Len(t, warn, 1) {
		assert.Equal(t, zapcore.WarnLevel, warn[0].Level)
	}
}
