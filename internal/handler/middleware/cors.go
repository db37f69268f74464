package middleware

import (
	"log/slog"

	"travel-booking/internal/pkg/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func NewCORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     cfg.AllowMethods,
		AllowHeaders:     cfg.AllowHeaders,
		ExposeHeaders:    cfg.ExposeHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}
	if len(cfg.AllowOrigins) == 1 && cfg.AllowOrigins[0] == "*" {
		// gin-contrib/cors rejects wildcard origins combined with credentials.
		corsCfg.AllowOrigins = nil
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	}
	slog.Info("CORS middleware initialized",
		"allow_origins", cfg.AllowOrigins,
		"allow_headers", cfg.AllowHeaders)
	return cors.New(corsCfg)
}
