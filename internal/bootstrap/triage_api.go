package bootstrap

import (
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"mailtriage/adapter/in/http"
	"mailtriage/config"
	"mailtriage/infra/middleware"
)

// NewAPI builds the read-only ops API on top of an existing dependency
// graph.
func NewAPI(cfg *config.Config, deps *Dependencies, log zerolog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(log),
		DisableStartupMessage: cfg.IsProduction(),
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		BodyLimit:             1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger(log))

	health := http.NewHealthHandler(deps.DB, deps.Redis)
	health.Register(app)

	api := app.Group("/api")
	if cfg.JWTSecret != "" {
		api.Use(middleware.JWTAuth(cfg.JWTSecret))
	}
	http.NewTriageHandler(deps.Tickets, deps.TriageLog).Register(api)

	return app
}
