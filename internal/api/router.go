package api

import (
	"net/http"

	"circ-supply/internal/worker/dao"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func NewRouter(snapshots dao.SnapshotDAO, decimals int, tl *zap.Logger) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(Recovery(tl))
	r.Use(RequestLogger(tl))

	h := NewHandler(snapshots, decimals, tl)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v := r.Group("/api")
	{
		v.GET("/latest", h.Latest)
		v.GET("/history", h.History)
		v.GET("/summary", h.Summary)
	}

	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
	return r
}
