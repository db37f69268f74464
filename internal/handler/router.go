package handler

import (
	"net/http"

	"travel-booking/internal/domain/actor"
	"travel-booking/internal/handler/api"
	"travel-booking/internal/handler/middleware"
	"travel-booking/internal/pkg/config"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

type Handlers struct {
	Booking      *api.BookingHandler
	Availability *api.AvailabilityHandler
}

func NewHandlers(b *api.BookingHandler, a *api.AvailabilityHandler) Handlers {
	return Handlers{Booking: b, Availability: a}
}

func NewRouter(engine *gin.Engine, cfg config.Config, logger *middleware.Logger, h Handlers, authMiddleware *middleware.AuthMiddleware) {
	setupMiddleware(engine, cfg, logger)
	setupRoutes(engine, h, authMiddleware)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config, logger *middleware.Logger) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(logger.LoggingMiddleware())
	engine.Use(middleware.ErrorHandler())
	engine.NoRoute(middleware.NoRoute)
}

func setupRoutes(engine *gin.Engine, h Handlers, authMiddleware *middleware.AuthMiddleware) {
	engine.GET("/health", healthCheck)

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	apiGroup := engine.Group("/api")
	{
		bookings := apiGroup.Group("/bookings")
		bookings.Use(authMiddleware.RequireAuth())
		{
			addRoutes(bookings, []route{
				{Method: http.MethodPost, Path: "", Handler: h.Booking.Create},
				{Method: http.MethodGet, Path: "", Handler: h.Booking.List},
				{Method: http.MethodGet, Path: "/:id", Handler: h.Booking.Get},
				{Method: http.MethodPost, Path: "/:id/cancel", Handler: h.Booking.Cancel},
				{
					Method:  http.MethodPatch,
					Path:    "/:id/status",
					Handler: h.Booking.UpdateStatus,
					Mw:      []gin.HandlerFunc{authMiddleware.RequireRole(actor.RoleVendor, actor.RoleAdmin)},
				},
			})
		}

		listings := apiGroup.Group("/listings")
		{
			addRoutes(listings, []route{
				{Method: http.MethodGet, Path: "/:id/availability", Handler: h.Availability.Check},
			})
		}
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
