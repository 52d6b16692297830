package routes

import (
	settingsController "bakehouse-api/controllers/settings"

	"github.com/gofiber/fiber/v2"
)

func SettingsRoutes(app *fiber.App) {
	app.Get("/api/settings", settingsController.GetSettings)
}
