package offerController

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"bakehouse-api/configs"
	"bakehouse-api/models"
	"bakehouse-api/responses"
)

var offerCollection *mongo.Collection = configs.GetCollection(configs.DB, "offers")

var validate = validator.New()

// GetActiveOffers lists offers the storefront may show.
func GetActiveOffers(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	cursor, err := offerCollection.Find(ctx, bson.M{"active": true})
	if err != nil {
		return internalError(c, "Failed to fetch offers")
	}
	defer cursor.Close(ctx)

	var offers []models.Offer
	if err := cursor.All(ctx, &offers); err != nil {
		return internalError(c, "Failed to decode offers")
	}

	return c.Status(fiber.StatusOK).JSON(responses.APIResponse{
		Status:  fiber.StatusOK,
		Message: "Offers fetched successfully",
		Result: &fiber.Map{
			"offers": offers,
		},
	})
}

// CreateOffer adds a coupon. Admin only.
func CreateOffer(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	var offer models.Offer
	if err := c.BodyParser(&offer); err != nil {
		return badRequest(c, "Invalid request body")
	}
	offer.Code = strings.ToUpper(strings.TrimSpace(offer.Code))
	if err := validate.Struct(offer); err != nil {
		return badRequest(c, "Invalid offer: "+err.Error())
	}

	count, err := offerCollection.CountDocuments(ctx, bson.M{"code": offer.Code})
	if err != nil {
		return internalError(c, "Failed to check offer code")
	}
	if count > 0 {
		return c.Status(fiber.StatusConflict).JSON(responses.APIResponse{
			Status:  fiber.StatusConflict,
			Message: "Offer code already exists",
		})
	}

	offer.ID = primitive.NewObjectID()
	offer.CreatedAt = time.Now()
	if _, err := offerCollection.InsertOne(ctx, offer); err != nil {
		return internalError(c, "Failed to create offer")
	}

	return c.Status(fiber.StatusCreated).JSON(responses.APIResponse{
		Status:  fiber.StatusCreated,
		Message: "Offer created successfully",
		Result: &fiber.Map{
			"offer": offer,
		},
	})
}

// ToggleOffer activates or deactivates a coupon. Orders that already
// snapshotted its discount are unaffected.
func ToggleOffer(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	offerID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid offer ID format")
	}

	var offer models.Offer
	err = offerCollection.FindOne(ctx, bson.M{"_id": offerID}).Decode(&offer)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return notFound(c, "Offer not found")
		}
		return internalError(c, "Failed to fetch offer")
	}

	if _, err := offerCollection.UpdateOne(ctx, bson.M{"_id": offerID},
		bson.M{"$set": bson.M{"active": !offer.Active}}); err != nil {
		return internalError(c, "Failed to update offer")
	}

	return c.Status(fiber.StatusOK).JSON(responses.APIResponse{
		Status:  fiber.StatusOK,
		Message: "Offer updated",
		Result: &fiber.Map{
			"offerId": offerID.Hex(),
			"active":  !offer.Active,
		},
	})
}

// DeleteOffer removes a coupon entirely. Historical orders keep their
// snapshotted discounts.
func DeleteOffer(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	offerID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid offer ID format")
	}

	result, err := offerCollection.DeleteOne(ctx, bson.M{"_id": offerID})
	if err != nil {
		return internalError(c, "Failed to delete offer")
	}
	if result.DeletedCount == 0 {
		return notFound(c, "Offer not found")
	}

	return c.Status(fiber.StatusOK).JSON(responses.APIResponse{
		Status:  fiber.StatusOK,
		Message: "Offer deleted",
		Result: &fiber.Map{
			"offerId": offerID.Hex(),
		},
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(responses.APIResponse{
		Status:  fiber.StatusBadRequest,
		Message: msg,
	})
}

func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).JSON(responses.APIResponse{
		Status:  fiber.StatusNotFound,
		Message: msg,
	})
}

func internalError(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(responses.APIResponse{
		Status:  fiber.StatusInternalServerError,
		Message: msg,
	})
}
