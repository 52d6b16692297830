package routes

import (
	productController "bakehouse-api/controllers/products"
	"bakehouse-api/middlewares"

	"github.com/gofiber/fiber/v2"
)

func ProductRoutes(app *fiber.App) {
	app.Get("/api/products", productController.GetProducts)
	app.Get("/api/products/:id", productController.GetProductById)

	app.Post("/api/products", middlewares.AuthMiddleware, middlewares.AdminMiddleware, productController.CreateProduct)
	app.Put("/api/products/:id", middlewares.AuthMiddleware, middlewares.AdminMiddleware, productController.UpdateProduct)
	app.Patch("/api/products/:id/availability", middlewares.AuthMiddleware, middlewares.AdminMiddleware, productController.ToggleAvailability)
}
