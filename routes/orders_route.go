package routes

import (
	orderController "bakehouse-api/controllers/orders"
	"bakehouse-api/middlewares"

	"github.com/gofiber/fiber/v2"
)

func OrderRoutes(app *fiber.App) {
	app.Post("/api/orders", middlewares.AuthMiddleware, orderController.SubmitOrder)
	app.Get("/api/orders", middlewares.AuthMiddleware, orderController.GetOrders)
	app.Get("/api/orders/:id", middlewares.AuthMiddleware, orderController.GetOrderById)
	app.Get("/api/orders/:id/status", middlewares.AuthMiddleware, orderController.GetOrderStatus)
	app.Post("/api/orders/:id/cancel", middlewares.AuthMiddleware, orderController.CancelOrder)
}
