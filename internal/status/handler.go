package status

import (
	"net/http"

	"candle-bot/internal/engine"
	"candle-bot/internal/logger"

	"github.com/gin-gonic/gin"
)

func (s *Server) health(c *gin.Context) {
	snap := s.stats.Snapshot(s.now())
	status := "running"
	if snap.State == engine.StateStopped {
		status = "stopped"
	}
	c.JSON(http.StatusOK, gin.H{
		"status": status,
		"stats":  snap,
	})
}

func (s *Server) statsSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, s.stats.Snapshot(s.now()))
}

// trade runs one cycle out of band. It shares the engine's cycle lock with
// the scheduler.
func (s *Server) trade(c *gin.Context) {
	ctx := c.Request.Context()
	logger.Info(ctx, "Manual trade triggered", "request_id", c.GetString(RequestIDContextKey))

	result, err := s.engine.RunCycle(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "error",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "trade executed",
		"result": result,
		"stats":  s.stats.Snapshot(s.now()),
	})
}

func (s *Server) page(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := pageTemplate.Execute(c.Writer, s.info); err != nil {
		logger.ErrorWithErr(c.Request.Context(), "Failed to render status page", err)
	}
}
