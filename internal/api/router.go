// Package api serves the latest artifacts and the scheduler status over HTTP.
package api

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/joaobzao/capas-harvester/internal/logger"
	"github.com/joaobzao/capas-harvester/internal/scheduler"
	"github.com/joaobzao/capas-harvester/internal/writer"
)

// StatusSource reports the scheduler state.
type StatusSource interface {
	Status() scheduler.Status
}

type Server struct {
	dir    string
	status StatusSource
	log    logger.Logger
}

func NewServer(dir string, status StatusSource, log logger.Logger) *Server {
	return &Server{dir: dir, status: status, log: logger.Ensure(log)}
}

// RegisterRoutes mounts the handlers on r.
func (s *Server) RegisterRoutes(r gin.IRouter) {
	r.GET("/healthz", s.health)
	r.GET("/status", s.getStatus)
	for _, name := range []string{writer.CapasFile, writer.DigestFile, writer.FiltersFile} {
		r.GET("/"+name, s.artifact(name))
	}
}

// Router returns a gin engine with recovery and the harvester routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	s.RegisterRoutes(r)
	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) getStatus(c *gin.Context) {
	if s.status == nil {
		c.JSON(http.StatusOK, scheduler.Status{})
		return
	}
	c.JSON(http.StatusOK, s.status.Status())
}

func (s *Server) artifact(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := filepath.Join(s.dir, name)
		info, err := os.Stat(path)
		switch {
		case errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()):
			c.JSON(http.StatusNotFound, gin.H{
				"code":    "not_found",
				"message": name + " has not been generated yet",
			})
			return
		case err != nil:
			s.log.ErrorObj("artifact stat failed", "api_error", map[string]any{
				"path":  path,
				"error": err.Error(),
			})
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    "internal_error",
				"message": "internal server error",
			})
			return
		}
		c.Header("Cache-Control", "no-cache")
		c.File(path)
	}
}
