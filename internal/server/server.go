// Package server exposes a Guard over HTTP with gin and reports Prometheus
// metrics.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/wordsift/wordsift/pkg/core"
)

// DefaultMaxBodyBytes bounds request bodies unless Options says otherwise.
const DefaultMaxBodyBytes = 1 << 20

// R is the response envelope.
type R struct {
	Msg  string `json:"msg"`
	Data any    `json:"data,omitempty"`
}

type scanRequest struct {
	Text *string `json:"text"`
	Mode string  `json:"mode"`
	Tags bool    `json:"tags"`
}

type scanResponse struct {
	Matches []core.Match `json:"matches"`
	Count   int          `json:"count"`
	Mode    string       `json:"mode"`
}

type replaceRequest struct {
	Text        *string `json:"text"`
	ReplaceChar string  `json:"replace_char"`
}

// Options configures a Server.
type Options struct {
	MaxBodyBytes int64
	Logger       *slog.Logger
	Metrics      *Metrics
}

// Server routes HTTP requests to a Guard.
type Server struct {
	guard   *core.Guard
	log     *slog.Logger
	metrics *Metrics
	engine  *gin.Engine
}

// New builds the router.
func New(g *core.Guard, opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}
	s := &Server{guard: g, log: opts.Logger, metrics: opts.Metrics}

	r := gin.New()
	r.Use(recovery(s.log, s.metrics), logRequests(s.log), limitBody(opts.MaxBodyBytes))
	r.GET("/healthz", s.health)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	api := r.Group("/api/v1")
	api.POST("/scan", s.scan)
	api.POST("/replace", s.replace)
	api.GET("/tags/:word", s.tags)
	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	s.log.Info("shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) badRequest(c *gin.Context, reason, msg string) {
	s.metrics.ErrorsTotal.WithLabelValues(reason).Inc()
	c.PureJSON(http.StatusBadRequest, R{Msg: msg})
}

func (s *Server) health(c *gin.Context) {
	s.metrics.DictTermGauge.WithLabelValues("deny").Set(float64(len(s.guard.Terms(core.Deny))))
	s.metrics.DictTermGauge.WithLabelValues("allow").Set(float64(len(s.guard.Terms(core.Allow))))
	c.PureJSON(http.StatusOK, R{Msg: "OK", Data: gin.H{
		"checkers":   s.guard.CheckerIDs(),
		"generation": s.guard.Generation(),
	}})
}

func (s *Server) scan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "decode", "invalid request body: "+err.Error())
		return
	}
	if req.Text == nil {
		s.badRequest(c, "missing_text", "text is required")
		return
	}
	mode, ok := core.ParseMode(req.Mode)
	if !ok {
		s.badRequest(c, "mode", "mode must be all or first")
		return
	}
	started := time.Now()
	var (
		ms  []core.Match
		err error
	)
	if req.Tags {
		ms, err = s.guard.FindAllWithTags(*req.Text)
		if mode == core.StopAtFirst && len(ms) > 1 {
			ms = ms[:1]
		}
	} else {
		ms, err = s.guard.Scan(*req.Text, mode)
	}
	s.metrics.ScanDuration.Observe(time.Since(started).Seconds())
	s.metrics.ScansTotal.WithLabelValues("scan", mode.String()).Inc()
	if !s.handleScanError(c, err) {
		return
	}
	for _, m := range ms {
		s.metrics.MatchesTotal.WithLabelValues(string(m.Type)).Inc()
	}
	if ms == nil {
		ms = []core.Match{}
	}
	c.PureJSON(http.StatusOK, R{Msg: "OK", Data: scanResponse{Matches: ms, Count: len(ms), Mode: mode.String()}})
}

func (s *Server) replace(c *gin.Context) {
	var req replaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "decode", "invalid request body: "+err.Error())
		return
	}
	if req.Text == nil {
		s.badRequest(c, "missing_text", "text is required")
		return
	}
	if req.ReplaceChar != "" && utf8.RuneCountInString(req.ReplaceChar) != 1 {
		s.badRequest(c, "replace_char", "replace_char must be a single character")
		return
	}
	started := time.Now()
	var (
		out string
		err error
	)
	if req.ReplaceChar == "" {
		out, err = s.guard.Replace(*req.Text)
	} else {
		out, err = s.guard.ReplaceFunc(*req.Text, core.MaskWith([]rune(req.ReplaceChar)[0]))
	}
	s.metrics.ScanDuration.Observe(time.Since(started).Seconds())
	s.metrics.ScansTotal.WithLabelValues("replace", core.CollectAll.String()).Inc()
	if !s.handleScanError(c, err) {
		return
	}
	c.PureJSON(http.StatusOK, R{Msg: "OK", Data: gin.H{"text": out}})
}

func (s *Server) tags(c *gin.Context) {
	word := c.Param("word")
	tags := s.guard.Tags(word)
	if tags == nil {
		tags = []string{}
	}
	c.PureJSON(http.StatusOK, R{Msg: "OK", Data: gin.H{"word": word, "tags": tags}})
}

// handleScanError writes the error response, if any, and reports whether the
// handler should continue.
func (s *Server) handleScanError(c *gin.Context, err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, core.ErrInvalidInput) {
		s.badRequest(c, "invalid_input", err.Error())
		return false
	}
	s.metrics.ErrorsTotal.WithLabelValues("checker").Inc()
	s.log.ErrorContext(c.Request.Context(), "scan failed", "error", err)
	c.PureJSON(http.StatusInternalServerError, R{Msg: err.Error()})
	return false
}
