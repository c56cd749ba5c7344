package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"

	"github.com/wichananm65/pet-shop-checkout/internal/interface/http/handler"
	"github.com/wichananm65/pet-shop-checkout/internal/interface/http/middleware"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Products *handler.ProductHandler
	Carts    *handler.CartHandler
	Orders   *handler.OrderHandler
}

// New builds the fiber app. Catalog routes are public, everything mounted
// after the jwt middleware needs a bearer token.
func New(h Handlers, jwtSecret string, log zerolog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "pet-shop-checkout",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(log))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	h.Products.RegisterPublicRoutes(app)

	app.Use(middleware.Protected(jwtSecret))
	h.Carts.RegisterProtectedRoutes(app)
	h.Orders.RegisterProtectedRoutes(app)

	return app
}
