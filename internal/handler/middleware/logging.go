package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"travel-booking/internal/pkg/config"

	"github.com/gin-gonic/gin"
)

const (
	ctxRequestIDKey  = "request_id"
	headerRequestID  = "X-Request-ID"
	maxRequestIDSize = 64
)

type Logger struct {
	logger   *slog.Logger
	timezone *time.Location
}

func NewLogger(cfg config.LogConfig) *Logger {
	timezone := time.FixedZone(cfg.TimeZone, cfg.TimeZoneOffset)

	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.In(timezone).Format(cfg.TimeFormat))
				}
			}
			return a
		},
	}

	var handler slog.Handler
	if gin.Mode() == gin.ReleaseMode {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return &Logger{
		logger:   logger,
		timezone: timezone,
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *Logger) GetSlogLogger() *slog.Logger {
	return l.logger
}

// User attributes are only known once the auth middleware further down the chain ran.
func (l *Logger) LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		requestID := l.requestID(c)

		c.Set(ctxRequestIDKey, requestID)
		c.Header(headerRequestID, requestID)

		logAttrs := []slog.Attr{
			slog.String("request_id", requestID),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.String("client_ip", c.ClientIP()),
		}
		if idempotencyKey := c.GetHeader("Idempotency-Key"); idempotencyKey != "" {
			logAttrs = append(logAttrs, slog.String("idempotency_key", idempotencyKey))
		}

		l.logger.LogAttrs(c.Request.Context(), slog.LevelDebug, "Request started", logAttrs...)

		c.Next()

		statusCode := c.Writer.Status()
		responseAttrs := append(logAttrs,
			slog.String("route", c.FullPath()),
			slog.Int("status_code", statusCode),
			slog.Duration("duration", time.Since(startTime)),
		)
		if a, ok := GetActor(c); ok {
			responseAttrs = append(responseAttrs,
				slog.String("user_id", a.ID.String()),
				slog.String("role", string(a.Role)))
		}
		if responseSize := c.Writer.Size(); responseSize > 0 {
			responseAttrs = append(responseAttrs, slog.Int("response_size", responseSize))
		}
		if len(c.Errors) > 0 {
			responseAttrs = append(responseAttrs, slog.String("errors", c.Errors.String()))
		}

		logLevel := slog.LevelInfo
		if statusCode >= 500 {
			logLevel = slog.LevelError
		} else if statusCode >= 400 {
			logLevel = slog.LevelWarn
		}

		l.logger.LogAttrs(c.Request.Context(), logLevel, "Request completed", responseAttrs...)
	}
}

func GetRequestID(c *gin.Context) string {
	if requestID, exists := c.Get(ctxRequestIDKey); exists {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return ""
}

// requestID reuses a caller supplied id when it is short and printable.
func (l *Logger) requestID(c *gin.Context) string {
	if incoming := strings.TrimSpace(c.GetHeader(headerRequestID)); incoming != "" &&
		len(incoming) <= maxRequestIDSize && isPrintable(incoming) {
		return incoming
	}

	timestamp := time.Now().In(l.timezone).Format("20060102150405")
	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		return fmt.Sprintf("%s-fallback-%d", timestamp, time.Now().UnixNano()%100000000)
	}
	return timestamp + "-" + hex.EncodeToString(randomBytes)
}

func isPrintable(s string) bool {
	for _, r := range s {
		if r < 0x21 || r > 0x7e {
			return false
		}
	}
	return true
}
