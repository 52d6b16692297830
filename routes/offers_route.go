package routes

import (
	offerController "bakehouse-api/controllers/offers"
	"bakehouse-api/middlewares"

	"github.com/gofiber/fiber/v2"
)

func OfferRoutes(app *fiber.App) {
	app.Get("/api/offers", offerController.GetActiveOffers)

	app.Post("/api/offers", middlewares.AuthMiddleware, middlewares.AdminMiddleware, offerController.CreateOffer)
	app.Patch("/api/offers/:id/toggle", middlewares.AuthMiddleware, middlewares.AdminMiddleware, offerController.ToggleOffer)
	app.Delete("/api/offers/:id", middlewares.AuthMiddleware, middlewares.AdminMiddleware, offerController.DeleteOffer)
}
