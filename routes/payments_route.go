package routes

import (
	paymentController "bakehouse-api/controllers/payments"
	"bakehouse-api/middlewares"

	"github.com/gofiber/fiber/v2"
)

func PaymentRoutes(app *fiber.App) {
	app.Post("/api/payments/checkout", middlewares.AuthMiddleware, paymentController.InitiateCheckout)
	app.Post("/api/payments/verify", middlewares.AuthMiddleware, paymentController.VerifyPayment)
	app.Get("/api/payments/:orderId/status", middlewares.AuthMiddleware, paymentController.PaymentStatus)
	app.Post("/api/payments/:orderId/switch-to-cash", middlewares.AuthMiddleware, paymentController.SwitchToCash)
}
