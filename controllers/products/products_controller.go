package productController

import (
	"context"
	"errors"
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

var productCollection *mongo.Collection = configs.GetCollection(configs.DB, "products")

var validate = validator.New()

// GetProducts lists the menu, optionally filtered by category. Unavailable
// items are included only when ?all=true (the admin menu screen).
func GetProducts(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if c.Query("all") != "true" {
		filter["available"] = true
	}
	if category := c.Query("category"); category != "" {
		filter["category"] = category
	}

	cursor, err := productCollection.Find(ctx, filter)
	if err != nil {
		return internalError(c, "Failed to fetch products")
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return internalError(c, "Failed to decode products")
	}

	return c.Status(fiber.StatusOK).JSON(responses.APIResponse{
		Status:  fiber.StatusOK,
		Message: "Products fetched successfully",
		Result: &fiber.Map{
			"products": products,
		},
	})
}

func GetProductById(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	productID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid product ID format")
	}

	var product models.Product
	err = productCollection.FindOne(ctx, bson.M{"_id": productID}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return notFound(c, "Product not found")
		}
		return internalError(c, "Failed to fetch product")
	}

	return c.Status(fiber.StatusOK).JSON(responses.APIResponse{
		Status:  fiber.StatusOK,
		Message: "Product fetched successfully",
		Result: &fiber.Map{
			"product": product,
		},
	})
}

// CreateProduct adds a menu item. Admin only.
func CreateProduct(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := validate.Struct(product); err != nil {
		return badRequest(c, "Invalid product: "+err.Error())
	}

	product.ID = primitive.NewObjectID()
	if _, err := productCollection.InsertOne(ctx, product); err != nil {
		return internalError(c, "Failed to create product")
	}

	return c.Status(fiber.StatusCreated).JSON(responses.APIResponse{
		Status:  fiber.StatusCreated,
		Message: "Product created successfully",
		Result: &fiber.Map{
			"product": product,
		},
	})
}

// UpdateProduct replaces the mutable fields of a menu item. Admin only.
func UpdateProduct(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	productID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid product ID format")
	}

	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := validate.Struct(product); err != nil {
		return badRequest(c, "Invalid product: "+err.Error())
	}

	update := bson.M{"$set": bson.M{
		"name":        product.Name,
		"description": product.Description,
		"category":    product.Category,
		"price":       product.Price,
		"sizes":       product.Sizes,
		"addons":      product.Addons,
		"images":      product.Images,
		"isVeg":       product.IsVeg,
		"available":   product.Available,
	}}

	result, err := productCollection.UpdateOne(ctx, bson.M{"_id": productID}, update)
	if err != nil {
		return internalError(c, "Failed to update product")
	}
	if result.MatchedCount == 0 {
		return notFound(c, "Product not found")
	}

	return c.Status(fiber.StatusOK).JSON(responses.APIResponse{
		Status:  fiber.StatusOK,
		Message: "Product updated successfully",
		Result: &fiber.Map{
			"productId": productID.Hex(),
		},
	})
}

// ToggleAvailability flips a product on or off the menu without editing it.
func ToggleAvailability(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	productID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid product ID format")
	}

	var product models.Product
	err = productCollection.FindOne(ctx, bson.M{"_id": productID}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return notFound(c, "Product not found")
		}
		return internalError(c, "Failed to fetch product")
	}

	if _, err := productCollection.UpdateOne(ctx, bson.M{"_id": productID},
		bson.M{"$set": bson.M{"available": !product.Available}}); err != nil {
		return internalError(c, "Failed to update product")
	}

	return c.Status(fiber.StatusOK).JSON(responses.APIResponse{
		Status:  fiber.StatusOK,
		Message: "Product availability updated",
		Result: &fiber.Map{
			"productId": productID.Hex(),
			"available": !product.Available,
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
