package settingsController

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bakehouse-api/configs"
	"bakehouse-api/models"
	"bakehouse-api/responses"
)

var settingsCollection *mongo.Collection = configs.GetCollection(configs.DB, "settings")

// settingsFilter scopes the singleton document.
var settingsFilter = bson.M{"_id": "store"}

// Load returns the store settings, seeding defaults on a fresh install.
func Load(ctx context.Context) (models.StoreSettings, error) {
	var settings models.StoreSettings
	err := settingsCollection.FindOne(ctx, settingsFilter).Decode(&settings)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.StoreSettings{}, err
	}

	defaults := models.DefaultStoreSettings()
	update := bson.M{"$setOnInsert": defaults}
	opts := options.Update().SetUpsert(true)
	if _, err := settingsCollection.UpdateOne(ctx, settingsFilter, update, opts); err != nil {
		return models.StoreSettings{}, err
	}
	return defaults, nil
}

// GetSettings returns the store profile and fee configuration. Read-only and
// public: the storefront needs it to quote carts before login.
func GetSettings(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	settings, err := Load(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(responses.APIResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to load store settings",
		})
	}

	return c.Status(fiber.StatusOK).JSON(responses.APIResponse{
		Status:  fiber.StatusOK,
		Message: "Settings fetched successfully",
		Result: &fiber.Map{
			"settings": settings,
		},
	})
}

// UpdateSettings replaces the store settings document. Admin only.
func UpdateSettings(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	var settings models.StoreSettings
	if err := c.BodyParser(&settings); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(responses.APIResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	settings.UpdatedAt = time.Now()

	opts := options.Update().SetUpsert(true)
	if _, err := settingsCollection.UpdateOne(ctx, settingsFilter, bson.M{"$set": settings}, opts); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(responses.APIResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to update settings",
		})
	}

	return c.Status(fiber.StatusOK).JSON(responses.APIResponse{
		Status:  fiber.StatusOK,
		Message: "Settings updated successfully",
		Result: &fiber.Map{
			"settings": settings,
		},
	})
}
