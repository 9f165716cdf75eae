package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/admin"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/service"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/ws"
)

type Dependencies struct {
	Service    *service.FachaService
	Store      handler.Pinger
	Hub        *ws.Hub
	JWTService *admin.JWTService
	// RateLimit is the per-client budget of requests per minute; 0 uses the default
	RateLimit int
}

type Router struct {
	app         *fiber.App
	logger      *slog.Logger
	deps        *Dependencies
	rateLimiter *middleware.RateLimiter
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "OnlyFachas API",
		BodyLimit:    32 * 1024 * 1024, // two 10MB images plus form overhead
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowMethods:  "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:  "Origin,Content-Type,Accept,Authorization,X-Client-ID",
		ExposeHeaders: "Retry-After,X-RateLimit-Limit,X-RateLimit-Remaining,X-RateLimit-Reset",
	}))

	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	healthHandler := handler.NewHealthHandler(r.deps.Store)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	v1 := r.app.Group("/v1")
	v1.Use(middleware.ClientID())

	r.rateLimiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{Max: r.deps.RateLimit})
	v1.Use(r.rateLimiter.Handler())

	fachaHandler := handler.NewFachaHandler(r.deps.Service, r.logger)
	v1.Post("/analyze", fachaHandler.Analyze)
	v1.Post("/battle", fachaHandler.Battle)
	v1.Post("/enhance", fachaHandler.Enhance)
	v1.Get("/status", fachaHandler.Status)
	v1.Get("/results/last", fachaHandler.LastResult)
	v1.Get("/leaderboard", fachaHandler.Leaderboard)
	v1.Post("/leaderboard", fachaHandler.SubmitScore)
	v1.Delete("/leaderboard", fachaHandler.ClearLeaderboard)
	v1.Delete("/data", fachaHandler.ClearLocalData)

	// WebSocket endpoint, the client id local is shared with ws.ClientIDLocal
	v1.Get("/ws", ws.UpgradeMiddleware(), ws.Handler(r.deps.Hub))

	r.setupAdminRoutes(v1.Group("/admin"))
}

func (r *Router) setupAdminRoutes(adminGroup fiber.Router) {
	adminGroup.Use(middleware.OperatorAuth(middleware.OperatorAuthDependencies{
		JWTService: r.deps.JWTService,
		Logger:     r.logger,
	}))

	emergencyHandler := handler.NewEmergencyHandler(r.deps.Service, r.logger)
	adminGroup.Get("/emergency", emergencyHandler.Get)
	adminGroup.Put("/emergency", emergencyHandler.Update)
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}

	return r.app.Shutdown()
}
