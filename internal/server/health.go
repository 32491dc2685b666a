package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	app "github.com/kode4food/flowchart"
	"github.com/kode4food/flowchart/pkg/api"
	"github.com/kode4food/flowchart/pkg/log"
)

const (
	HealthHealthy   = "healthy"
	HealthUnhealthy = "unhealthy"
)

func (s *Server) handleHealth(c *gin.Context) {
	res := api.HealthResponse{
		Service: app.Name,
		Version: app.Version,
		Status:  HealthHealthy,
	}
	if err := s.store.Ping(c.Request.Context()); err != nil {
		slog.Error("Health check failed",
			log.Error(err))
		res.Status = HealthUnhealthy
		res.Error = err.Error()
		c.JSON(http.StatusServiceUnavailable, res)
		return
	}
	c.JSON(http.StatusOK, res)
}
