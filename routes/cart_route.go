package routes

import (
	cartController "bakehouse-api/controllers/cart"
	"bakehouse-api/middlewares"

	"github.com/gofiber/fiber/v2"
)

func CartRoutes(app *fiber.App) {
	app.Post("/api/cart/add", middlewares.AuthMiddleware, cartController.AddToCart)
	app.Post("/api/cart/decrement", middlewares.AuthMiddleware, cartController.DecrementFromCart)
	app.Post("/api/cart/remove", middlewares.AuthMiddleware, cartController.RemoveFromCart)
	app.Get("/api/cart", middlewares.AuthMiddleware, cartController.GetCart)
	app.Get("/api/cart/quote", middlewares.AuthMiddleware, cartController.QuoteCart)
}
