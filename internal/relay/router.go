package relay

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"classyai/internal/transport"
	"classyai/pkg/metrics"
	"classyai/pkg/otel"
	"classyai/pkg/mq"
	"classyai/pkg/trace"
)

type Router struct {
	Engine *gin.Engine
}

// NewRouter wires the relay. db and publisher may be nil in tests; readiness
// then only reports what is present.
func NewRouter(h *ContactHandler, db *pgxpool.Pool, publisher *mq.Publisher, allowedOrigins []string) *Router {
	r := gin.Default()
	r.Use(trace.Middleware(), otel.GinMiddleware(), metrics.GinMiddleware())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowMethods = []string{"POST", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Content-Type", trace.HeaderName()}
	if len(allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = allowedOrigins
	}
	r.Use(cors.New(corsCfg))

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
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				c.JSON(500, gin.H{"status": "db_not_ready", "error": err.Error()})
				return
			}
		}
		if publisher != nil && !publisher.IsConnected() {
			c.JSON(500, gin.H{"status": "mq_not_ready"})
			return
		}
		c.JSON(200, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST(transport.ContactPath, h.Contact)

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
