package middleware

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinelog/internal/logging"
	"github.com/iliyamo/cinelog/internal/metrics"
)

// RequestIDGenerator returns a fresh request id.  Plug it into echo's
// RequestID middleware.
func RequestIDGenerator() string { return uuid.NewString() }

// RequestLog logs every request once and records its latency.  A logger
// tagged with the request id is stored in the request context so
// logging.Ctx picks it up downstream.
func RequestLog() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			res := c.Response()

			rid := res.Header().Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = req.Header.Get(echo.HeaderXRequestID)
			}
			if rid == "" {
				rid = RequestIDGenerator()
				res.Header().Set(echo.HeaderXRequestID, rid)
			}
			l := logging.Logger().With().Str("request_id", rid).Logger()
			c.SetRequest(req.WithContext(logging.WithContext(req.Context(), l)))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			status := res.Status
			latency := time.Since(start)
			metrics.HTTPRequestDuration.WithLabelValues(req.Method, route, strconv.Itoa(status)).Observe(latency.Seconds())

			ev := l.Info()
			switch {
			case status >= 500:
				ev = l.Error()
			case status >= 400:
				ev = l.Warn()
			}
			if uid := c.Get(CtxUserID); uid != nil {
				ev = ev.Interface("user_id", uid)
			}
			ev.Str("method", req.Method).
				Str("route", route).
				Str("uri", req.RequestURI).
				Int("status", status).
				Dur("latency", latency).
				Str("remote_ip", c.RealIP()).
				Msg("http request")
			return nil
		}
	}
}
