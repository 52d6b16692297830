package main

import (
	"bakehouse-api/configs"
	"bakehouse-api/routes"

	"github.com/gofiber/fiber/v2"
)

func main() {
	app := fiber.New()

	configs.ConnectDB()

	routes.UserRoutes(app)
	routes.ProductRoutes(app)
	routes.CartRoutes(app)
	routes.OfferRoutes(app)
	routes.SettingsRoutes(app)
	routes.OrderRoutes(app)
	routes.PaymentRoutes(app)
	routes.AdminRoutes(app)

	app.Listen(":" + configs.EnvPort())
}
