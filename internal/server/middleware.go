package server

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
)

func logRequests(l *slog.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		startTime := time.Now()

		ctx.Next()

		l.InfoContext(ctx, "http request",
			slog.String("ip", ctx.ClientIP()),
			slog.String("method", ctx.Request.Method),
			slog.Int64("latency_us", time.Since(startTime).Microseconds()),
			slog.Int("status", ctx.Writer.Status()),
			slog.String("url", ctx.Request.URL.RequestURI()),
		)
	}
}

// recovery writes a 500 when a handler panics.
func recovery(l *slog.Logger, m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				m.PanicsTotal.Inc()
				l.ErrorContext(c.Request.Context(), "recovered from panic",
					slog.String("method", c.Request.Method),
					slog.String("url", c.Request.URL.RequestURI()),
					slog.Any("error", err),
					slog.String("stack", string(debug.Stack())),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, R{Msg: "internal error"})
			}
		}()
		c.Next()
	}
}

func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}
