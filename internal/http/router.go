package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nurpe/rentflow/internal/http/middleware"
)

type RouterOptions struct {
	Environment    string
	AllowedOrigins []string
	// Files serves locally stored agreements under /files when set.
	Files http.FileSystem
	// Health reports extra readiness details on /healthz.
	Health func() gin.H
}

func NewRouter(handler *Handler, authMiddleware gin.HandlerFunc, log zerolog.Logger, opts RouterOptions) *gin.Engine {
	if opts.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(opts.AllowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	} else {
		corsConfig.AllowOrigins = opts.AllowedOrigins
	}
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", func(c *gin.Context) {
		body := gin.H{"status": "ok"}
		if opts.Health != nil {
			for k, v := range opts.Health() {
				body[k] = v
			}
		}
		c.JSON(http.StatusOK, body)
	})
	if opts.Files != nil {
		router.StaticFS("/files", opts.Files)
	}

	handler.Register(router, authMiddleware)
	return router
}
