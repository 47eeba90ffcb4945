// Package api exposes a grid engine over HTTP.
package api

import (
	"net/http"

	"github.com/geal-ai/gridshift"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SetupRouter builds the HTTP routes for engine.
func SetupRouter(engine *gridshift.Engine, log logrus.FieldLogger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "gridshift is running",
		})
	})

	h := NewHandler(engine)
	v1 := r.Group("/api/v1")
	{
		v1.GET("/regions", h.Regions)
		v1.GET("/datums", h.Datums)
		v1.GET("/coverage", h.Coverage)

		grids := v1.Group("/grids/:region")
		{
			grids.GET("/interpolate", h.Interpolate)
			grids.POST("/interpolate", h.InterpolateBatch)
			grids.GET("/block", h.Block)
		}
	}
	return r
}
