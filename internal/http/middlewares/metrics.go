package middlewares

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// unmatched requests share one path label
const unknownPath = "?"

func routeLabel(c echo.Context, status int) string {
	path := c.Path()
	if path == "" || status == http.StatusNotFound || status == http.StatusMethodNotAllowed {
		return unknownPath
	}
	return path
}

func MetricsMiddleware(histogram *prometheus.HistogramVec, counter *prometheus.CounterVec, logger *slog.Logger) func(next echo.HandlerFunc) echo.HandlerFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// writes the error response so its status is known below
				c.Error(err)
			}
			duration := time.Since(start)
			method := c.Request().Method
			response := c.Response()
			if response == nil {
				logger.Error(fmt.Sprintf("Response in metrics middleware is nil for %s %s", method, c.Path()))
				return nil
			}
			path := routeLabel(c, response.Status)
			histogram.With(prometheus.Labels{"method": method, "path": path}).Observe(duration.Seconds())
			counter.With(prometheus.Labels{"method": method, "status": strconv.Itoa(response.Status), "path": path}).Inc()
			if response.Status >= http.StatusInternalServerError {
				logger.Warn("api request failed", "method", method, "path", path, "status", response.Status, "duration", duration.String())
			}
			return nil
		}
	}
}
