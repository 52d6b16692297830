package routes

import (
	adminController "bakehouse-api/controllers/admin"
	settingsController "bakehouse-api/controllers/settings"
	"bakehouse-api/middlewares"

	"github.com/gofiber/fiber/v2"
)

func AdminRoutes(app *fiber.App) {
	admin := app.Group("/api/admin", middlewares.AuthMiddleware, middlewares.AdminMiddleware)

	admin.Get("/orders", adminController.ListOrders)
	admin.Get("/orders/pending", adminController.PendingOrders)
	admin.Post("/orders/:id/accept", adminController.AcceptOrder)
	admin.Patch("/orders/:id/status", adminController.UpdateOrderStatus)
	admin.Post("/orders/:id/verify-payment", adminController.ManualVerifyPayment)

	admin.Put("/settings", settingsController.UpdateSettings)
}
