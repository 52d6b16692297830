package routes

import (
	userController "bakehouse-api/controllers/user"
	"bakehouse-api/middlewares"

	"github.com/gofiber/fiber/v2"
)

func UserRoutes(app *fiber.App) {
	app.Post("/api/signup", userController.UserSignUp)
	app.Post("/api/login", userController.UserLogin)
	app.Get("/api/profile", middlewares.AuthMiddleware, userController.GetProfile)
}
