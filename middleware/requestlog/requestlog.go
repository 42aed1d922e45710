// Package requestlog logs every HTTP request with a generated request id,
// the response status, and the handler latency. Responses carry the id back
// in X-Request-ID so clients can correlate reports with server logs.
package requestlog

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Logger mirrors the accounts.Logger interface to avoid an import cycle.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

const (
	// HeaderRequestID carries the generated request id.
	HeaderRequestID = "X-Request-ID"
	// HeaderProcessTime carries the handler latency in seconds.
	HeaderProcessTime = "X-Process-Time"
)

// DefaultSlowThreshold flags requests worth a warning on their own.
const DefaultSlowThreshold = time.Second

type Config struct {
	Logger Logger

	// SlowThreshold triggers a slow-request warning when exceeded.
	// Zero uses DefaultSlowThreshold.
	SlowThreshold time.Duration
}

// New returns the request logging middleware.
func New(config ...Config) fiber.Handler {
	var cfg Config
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Logger == nil {
		panic("requestlog: middleware configuration requires a Logger")
	}
	if cfg.SlowThreshold <= 0 {
		cfg.SlowThreshold = DefaultSlowThreshold
	}

	return func(c *fiber.Ctx) error {
		start := time.Now()
		requestID := uuid.NewString()

		method := c.Method()
		path := c.Path()

		cfg.Logger.Debug("rid=%s started %s %s from %s", requestID, method, path, c.IP())

		err := c.Next()

		elapsed := time.Since(start)
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}

		line := fmt.Sprintf("rid=%s completed %s %s status=%d in %s", requestID, method, path, status, elapsed)
		switch {
		case status >= 500:
			cfg.Logger.Error(line)
		case status >= 400:
			cfg.Logger.Warn(line)
		default:
			cfg.Logger.Info(line)
		}

		if elapsed > cfg.SlowThreshold {
			cfg.Logger.Warn("rid=%s slow request %s %s took %s", requestID, method, path, elapsed)
		}

		c.Set(HeaderRequestID, requestID)
		c.Set(HeaderProcessTime, fmt.Sprintf("%.3f", elapsed.Seconds()))

		return err
	}
}
