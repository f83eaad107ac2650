package app

import (
	"fmt"
	"strings"
	"time"

	"funnel/internal/config"
	"funnel/internal/delivery/http/handler"
	"funnel/internal/delivery/http/middleware"
	"funnel/internal/delivery/http/routes"
	v1 "funnel/internal/delivery/http/routes/v1"
	"funnel/internal/ws"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// Slack on top of the deck limit for the other multipart fields.
const bodyLimitSlack = 1 << 20

const notificationDrain = 10 * time.Second

type App struct {
	Fiber     *fiber.App
	Container *Container
}

// New builds the HTTP server around an already wired container.
func New(c *Container) *App {
	f := fiber.New(fiber.Config{
		AppName:   c.Config.App.AppName,
		BodyLimit: c.Config.Deck.MaxBytes + bodyLimitSlack,
	})

	registerGlobalMiddleware(f, c)
	registerRoutes(f, c)

	return &App{Fiber: f, Container: c}
}

func Bootstrap(cfg config.Config, logger *zap.Logger) (*App, func() error, error) {
	c, err := NewContainer(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	app := New(c)
	return app, func() error { return c.Close(notificationDrain) }, nil
}

func registerGlobalMiddleware(app *fiber.App, c *Container) {
	if app == nil {
		return
	}

	// Access log wraps the error middleware so it sees the final status.
	accessMw := middleware.NewAccessLogMiddleware(c.Logger, c.Metrics)
	app.Use(accessMw.Middleware())

	errMw := middleware.NewErrorMiddleware(c.Logger)
	app.Use(errMw.Middleware())
}

func registerRoutes(app *fiber.App, c *Container) {
	if app == nil {
		return
	}

	api := v1.Handlers{
		Auth:           middleware.NewAuthMiddleware(c.Tokens),
		AuthHandler:    handler.NewAuthHandler(c.Auth),
		User:           handler.NewUserHandler(c.User),
		Match:          handler.NewMatchHandler(c.Matching),
		FounderProfile: handler.NewFounderProfileHandler(c.FounderProfile, c.Config.Deck.MaxBytes),
		Pitch:          handler.NewPitchHandler(c.Pitch),
		VCProfile:      handler.NewVCProfileHandler(c.VCProfile),
		Sector:         handler.NewSectorHandler(c.Sectors),
		Deals:          ws.NewHandler(c.Hub, c.Tokens, c.Logger),
	}

	health := handler.NewHealthHandler(c.DB, c.Cache)
	routes.NewRegistry(health, c.Metrics.Handler(), api).Register(app)
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
