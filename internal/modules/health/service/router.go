package service

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sentinel_bot/internal/runner"
)

// Sessions is the supervisor view exposed over HTTP.
type Sessions interface {
	Status() []runner.Info
	Running() int
}

func NewRouter(state *State, sessions Sessions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/livez", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	router.GET("/readyz", func(c *gin.Context) {
		if !state.Ready() {
			c.String(http.StatusServiceUnavailable, "not ready")
			return
		}
		c.String(http.StatusOK, "ready")
	})

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ready":      state.Ready(),
			"uptime_sec": int64(state.Uptime().Seconds()),
			"running":    sessions.Running(),
		})
	})

	router.GET("/sessions", func(c *gin.Context) {
		c.JSON(http.StatusOK, sessions.Status())
	})

	return router
}
