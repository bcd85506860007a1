package middleware

import (
	"strconv"
	"time"

	"quill/internal/metrics"

	"github.com/labstack/echo/v4"
)

// PrometheusMetrics records request counts and latency per route template.
func PrometheusMetrics(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			// let echo write the response so the status label is final
			c.Error(err)
		}

		path := c.Path()
		if path == "" {
			path = "unmatched"
		}

		metrics.HTTPRequestsTotal.WithLabelValues(
			c.Request().Method,
			path,
			strconv.Itoa(c.Response().Status),
		).Inc()

		metrics.HTTPRequestDuration.WithLabelValues(
			c.Request().Method,
			path,
		).Observe(time.Since(start).Seconds())

		return nil
	}
}
