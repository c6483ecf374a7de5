// Package status serves the bot's health, stats, manual trigger, metrics and
// a small HTML status page.
package status

import (
	"context"
	"errors"
	"net/http"
	"time"

	"candle-bot/internal/engine"
	"candle-bot/internal/interfaces"
	"candle-bot/internal/logger"
	"candle-bot/internal/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const (
	RequestIDContextKey = "request_id"
	RequestIDHeaderKey  = "X-Request-ID"
)

// PageInfo is what the status page shows about the running configuration.
type PageInfo struct {
	Symbol    string
	Timeframe int
	Stake     string
	Duration  int
	Strategy  string
}

type Server struct {
	engine interfaces.Engine
	stats  *engine.Stats
	info   PageInfo
	now    func() time.Time

	srv *http.Server
}

func New(addr string, eng interfaces.Engine, stats *engine.Stats, info PageInfo) *Server {
	s := &Server{
		engine: eng,
		stats:  stats,
		info:   info,
		now:    time.Now,
	}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Routes builds the gin router.
func (s *Server) Routes() *gin.Engine {
	router := gin.New()
	router.Use(requestIDMiddleware())
	router.Use(logMiddleware())
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", RequestIDHeaderKey},
		ExposeHeaders: []string{"Content-Length", RequestIDHeaderKey},
		MaxAge:        12 * time.Hour,
	}))

	router.GET("/health", s.health)
	router.GET("/stats", s.statsSnapshot)
	router.POST("/trade", s.trade)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.NoRoute(s.page)

	return router
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	logger.Info(context.Background(), "Status server listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
