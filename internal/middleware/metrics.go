package middleware

import (
	"strconv"
	"time"

	"hoodlink/internal/pkg"

	"github.com/gin-gonic/gin"
)

// Metrics 按路由模板统计请求数与耗时，未匹配的路由归入 unmatched
func Metrics(m *pkg.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.Requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.Latency.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
