package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	sharedHTTP "github.com/storefront/order-service/pkg/http"
	"github.com/storefront/order-service/pkg/metrics"
)

type Router struct {
	Orders         *OrderHandler
	Carts          *CartHandler
	Wishlists      *WishlistHandler
	JWTSecret      string
	RequestTimeout time.Duration
	HTTPMetrics    *metrics.HTTPMetrics
	Gatherer       prometheus.Gatherer
}

func NewApp(accessLog bool) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Order Service v1.0",
		ErrorHandler: ErrorHandler,
	})

	app.Use(recover.New())
	if accessLog {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${method} ${path} - ${latency}\n",
		}))
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Request-ID",
	}))

	return app
}

func (r *Router) Setup(app *fiber.App) {
	api := app.Group("/api/v1", r.observe, r.withTimeout)

	api.Get("/health", HealthCheck)
	if r.Gatherer != nil {
		api.Get("/metrics", adaptor.HTTPHandler(metrics.Handler(r.Gatherer)))
	}

	auth := Authenticate(r.JWTSecret)

	orders := api.Group("/orders", auth)
	orders.Post("/", r.Orders.CreateOrder)
	orders.Post("/from-cart", r.Orders.CreateOrderFromCart)
	orders.Get("/my", r.Orders.GetUserOrders)
	orders.Get("/status/:status", r.Orders.GetOrdersByStatus)
	orders.Get("/admin/all", r.Orders.GetAllOrders)
	orders.Get("/admin/users/:userId/status/:status", r.Orders.GetOrdersByUserAndStatus)
	orders.Put("/admin/:id/status", r.Orders.UpdateOrderStatus)
	orders.Get("/:id", r.Orders.GetOrderByID)
	orders.Get("/:id/timeline", r.Orders.GetOrderTimeline)
	orders.Put("/:id/cancel", r.Orders.CancelOrder)

	cart := api.Group("/cart", auth)
	cart.Get("/", r.Carts.GetCart)
	cart.Post("/items", r.Carts.AddItem)
	cart.Put("/items/:productId", r.Carts.UpdateItem)
	cart.Delete("/items/:productId", r.Carts.RemoveItem)
	cart.Delete("/", r.Carts.Clear)

	wishlist := api.Group("/wishlist", auth)
	wishlist.Get("/", r.Wishlists.GetWishlist)
	wishlist.Post("/items", r.Wishlists.AddItem)
	wishlist.Delete("/items/:productId", r.Wishlists.RemoveItem)
	wishlist.Delete("/", r.Wishlists.Clear)

	app.Use("*", func(c *fiber.Ctx) error {
		return sharedHTTP.NotFoundResponse(c, "Route not found")
	})
}

// observe records request counts and latency per route pattern.
func (r *Router) observe(c *fiber.Ctx) error {
	start := time.Now()

	err := c.Next()
	if err != nil {
		if handlerErr := c.App().Config().ErrorHandler(c, err); handlerErr != nil {
			return handlerErr
		}
	}

	r.HTTPMetrics.Observe(c.Route().Path, c.Response().StatusCode(), time.Since(start))
	return nil
}

func (r *Router) withTimeout(c *fiber.Ctx) error {
	if r.RequestTimeout <= 0 {
		return c.Next()
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), r.RequestTimeout)
	defer cancel()

	c.SetUserContext(ctx)
	return c.Next()
}

func HealthCheck(c *fiber.Ctx) error {
	return sharedHTTP.SuccessResponse(c, "Order service is healthy", map[string]interface{}{
		"service": "order-service",
		"status":  "healthy",
	})
}
