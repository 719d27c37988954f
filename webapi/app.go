// Package webapi exposes the ledger over HTTP with Fiber. Handlers stay
// thin: they authenticate, bind and validate input, call a service, and map
// the result or error to JSON.
package webapi

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/selimk/teller/pkg/config"
	accountsvc "github.com/selimk/teller/pkg/service/account"
	authsvc "github.com/selimk/teller/pkg/service/auth"
	"github.com/selimk/teller/pkg/service/ledger"
	usersvc "github.com/selimk/teller/pkg/service/user"
)

// Deps bundles everything the HTTP layer needs.
type Deps struct {
	Accounts *accountsvc.Service
	Engine   *ledger.Service
	Users    *usersvc.Service
	Auth     *authsvc.Service
	Cfg      *config.App
	Logger   *slog.Logger
}

// NewApp builds the Fiber application with all routes registered.
func NewApp(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "teller",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			status := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			}
			return ErrorResponseJSON(c, status, "Internal Server Error", err.Error())
		},
	})

	app.Use(recover.New())
	app.Use(limiter.New(limiter.Config{
		Max:        20,
		Expiration: 1 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return ErrorResponseJSON(c, fiber.StatusTooManyRequests, "Too Many Requests", "Rate limit exceeded")
		},
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	AuthRoutes(app, d.Users, d.Auth, d.Logger)
	AccountRoutes(app, d.Accounts, d.Engine, d.Auth, &d.Cfg.Jwt, d.Logger)

	return app
}
