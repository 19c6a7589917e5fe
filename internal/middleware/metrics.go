package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/peer-match-api/internal/service"
)

// unmeasuredPaths are health and scrape routes, kept out of the API latency histogram.
var unmeasuredPaths = map[string]struct{}{
	"/metrics": {},
	"/health":  {},
	"/ready":   {},
}

// Metrics observes latency and status of every API request under its route template.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	if metricsSvc == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if _, skip := unmeasuredPaths[route]; skip {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		if route == "" {
			route = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
