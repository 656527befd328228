package site

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"classyai/pkg/metrics"
	"classyai/pkg/otel"
	redisclient "classyai/pkg/redis"
	"classyai/pkg/trace"
)

const BasePath = "/stayclassy"

type Router struct {
	Engine *gin.Engine
}

// NewRouter wires the site routes. rdb may be nil when drafts live in memory.
func NewRouter(h *Handler, rdb *redis.Client, secureCookie bool) *Router {
	r := gin.Default()
	r.Use(trace.Middleware(), otel.GinMiddleware(), metrics.GinMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/health", func(c *gin.Context) {
		c.Status(200)
	})

	r.GET("/readyz", func(c *gin.Context) {
		if rdb != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
			defer cancel()
			if err := redisclient.Ping(ctx, rdb); err != nil {
				c.JSON(500, gin.H{"status": "redis_not_ready", "error": err.Error()})
				return
			}
		}
		c.JSON(200, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	g := r.Group(BasePath)
	g.Use(VisitorMiddleware(BasePath, secureCookie))
	{
		g.GET("/", h.Home)
		g.POST("/forms/contact", h.SubmitContact)
		g.POST("/forms/chat", h.SubmitChat)
		g.POST("/chat/open", h.OpenChat)
		g.POST("/chat/close", h.CloseChat)
		g.POST("/chat/toggle", h.ToggleChat)
		g.DELETE("/toast", h.DismissToast)

		g.GET("/startup-story", h.Story)
		g.PUT("/startup-story/draft", h.UpdateDraft)
		g.DELETE("/startup-story/draft", h.ClearDraft)
		g.POST("/startup-story/send", h.SendStory)
	}

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
