// Package boardhttp exposes the tracker over a JSON API plus a
// rendered chart view.
package boardhttp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"tickerboard/internal/catalog"
	"tickerboard/internal/logger"
	"tickerboard/internal/market"
	"tickerboard/internal/tracker"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DefaultMaxInstruments caps how many instruments a board tracks at
// once.
const DefaultMaxInstruments = 15

// StatsSource reports transport counters. The stream adapter
// implements it.
type StatsSource interface {
	Stats() market.SourceStats
}

// Server 服务端：REST API + 图表渲染。
type Server struct {
	addr    string
	router  *gin.Engine
	handler *handler
}

// ServerConfig 描述 HTTP 服务依赖。
type ServerConfig struct {
	Addr           string
	Dispatcher     *tracker.Dispatcher
	Catalog        *catalog.Catalog
	Stats          StatsSource
	MaxInstruments int
}

// NewServer 构建 HTTP server。
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Dispatcher == nil {
		return nil, errors.New("http server requires a dispatcher")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8880"
	}
	if cfg.MaxInstruments <= 0 {
		cfg.MaxInstruments = DefaultMaxInstruments
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := &handler{
		dispatcher: cfg.Dispatcher,
		catalog:    cfg.Catalog,
		stats:      cfg.Stats,
		maxTracked: cfg.MaxInstruments,
		now:        func() int64 { return time.Now().UnixMilli() },
	}
	h.register(router)

	return &Server{addr: cfg.Addr, router: router, handler: h}, nil
}

// requestLogger 记录接口调用，附带请求 ID 便于追踪。
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := uuid.NewString()
		c.Header("X-Request-Id", reqID)
		method := c.Request.Method
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		client := c.ClientIP()
		c.Next()
		dur := time.Since(start)
		status := c.Writer.Status()
		fullPath := path
		if query != "" {
			fullPath = path + "?" + query
		}
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s req=%s", method, fullPath, status, client, dur, reqID)
	}
}

// Addr 返回监听地址。
func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Start 启动 HTTP 服务，直到 ctx 取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
