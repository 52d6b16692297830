package cartController

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"bakehouse-api/configs"
	"bakehouse-api/models"
	"bakehouse-api/orderflow"
	"bakehouse-api/pricing"
	"bakehouse-api/responses"
	settingsController "bakehouse-api/controllers/settings"
)

var userCollection *mongo.Collection = configs.GetCollection(configs.DB, "users")
var productCollection *mongo.Collection = configs.GetCollection(configs.DB, "products")
var offerCollection *mongo.Collection = configs.GetCollection(configs.DB, "offers")

var validate = validator.New()

// AddToCartRequest adds one customized line to the cart.
type AddToCartRequest struct {
	ProductID string   `json:"productId" validate:"required"`
	Quantity  int      `json:"quantity" validate:"required,min=1"`
	Size      string   `json:"size"`
	Addons    []string `json:"addons"`
}

func AddToCart(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	userObjectID, err := currentUser(c)
	if err != nil {
		return unauthorized(c, err.Error())
	}

	var req AddToCartRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return badRequest(c, "Invalid cart request: "+err.Error())
	}

	productID, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}

	var product models.Product
	if err := productCollection.FindOne(ctx, bson.M{"_id": productID}).Decode(&product); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return notFound(c, "Product not found")
		}
		return internalError(c, "Error fetching product details")
	}
	if !product.Available {
		return badRequest(c, "Product is currently unavailable")
	}

	// The chosen size and addons must exist on the product.
	if req.Size != "" && !hasSize(product, req.Size) {
		return badRequest(c, "Unknown size for this product")
	}
	var addons []models.OrderItemAddon
	for _, name := range req.Addons {
		addon, ok := findAddon(product, name)
		if !ok {
			return badRequest(c, "Unknown addon: "+name)
		}
		addons = append(addons, models.OrderItemAddon{Name: addon.Name, Price: addon.Price})
	}

	var user models.User
	if err := userCollection.FindOne(ctx, bson.M{"_id": userObjectID}).Decode(&user); err != nil {
		return internalError(c, "Error fetching user details")
	}

	// Merge with an existing line of the same product + size, otherwise append.
	merged := false
	for i, ci := range user.Cart {
		if ci.Product.ID == productID && ci.Size == req.Size {
			user.Cart[i].Quantity += req.Quantity
			user.Cart[i].Addons = addons
			merged = true
			break
		}
	}
	if !merged {
		user.Cart = append(user.Cart, models.CartItem{
			Product:  product,
			Quantity: req.Quantity,
			Size:     req.Size,
			Addons:   addons,
		})
	}

	if _, err := userCollection.UpdateOne(ctx, bson.M{"_id": userObjectID},
		bson.M{"$set": bson.M{"cart": user.Cart}}); err != nil {
		return internalError(c, "Failed to update cart")
	}

	return c.Status(fiber.StatusOK).JSON(responses.APIResponse{
		Status:  fiber.StatusOK,
		Message: "Item added to cart",
		Result: &fiber.Map{
			"cart": user.Cart,
		},
	})
}

// CartLineRequest identifies a cart line by product + size.
type CartLineRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Size      string `json:"size"`
}

func DecrementFromCart(c *fiber.Ctx) error {
	return adjustCart(c, func(cart []models.CartItem, productID primitive.ObjectID, size string) []models.CartItem {
		out := cart[:0]
		for _, ci := range cart {
			if ci.Product.ID == productID && ci.Size == size {
				ci.Quantity--
				if ci.Quantity <= 0 {
					continue
				}
			}
			out = append(out, ci)
		}
		return out
	}, "Item decremented")
}

func RemoveFromCart(c *fiber.Ctx) error {
	return adjustCart(c, func(cart []models.CartItem, productID primitive.ObjectID, size string) []models.CartItem {
		out := cart[:0]
		for _, ci := range cart {
			if ci.Product.ID == productID && ci.Size == size {
				continue
			}
			out = append(out, ci)
		}
		return out
	}, "Item removed from cart")
}

func adjustCart(c *fiber.Ctx, apply func([]models.CartItem, primitive.ObjectID, string) []models.CartItem, okMsg string) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	userObjectID, err := currentUser(c)
	if err != nil {
		return unauthorized(c, err.Error())
	}

	var req CartLineRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	productID, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}

	var user models.User
	if err := userCollection.FindOne(ctx, bson.M{"_id": userObjectID}).Decode(&user); err != nil {
		return internalError(c, "Error fetching user details")
	}

	user.Cart = apply(user.Cart, productID, req.Size)
	if user.Cart == nil {
		user.Cart = []models.CartItem{}
	}

	if _, err := userCollection.UpdateOne(ctx, bson.M{"_id": userObjectID},
		bson.M{"$set": bson.M{"cart": user.Cart}}); err != nil {
		return internalError(c, "Failed to update cart")
	}

	return c.Status(fiber.StatusOK).JSON(responses.APIResponse{
		Status:  fiber.StatusOK,
		Message: okMsg,
		Result: &fiber.Map{
			"cart": user.Cart,
		},
	})
}

func GetCart(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	userObjectID, err := currentUser(c)
	if err != nil {
		return unauthorized(c, err.Error())
	}

	var user models.User
	if err := userCollection.FindOne(ctx, bson.M{"_id": userObjectID}).Decode(&user); err != nil {
		return internalError(c, "Error fetching user details")
	}

	var subtotal float64
	for _, ci := range user.Cart {
		subtotal += ci.LineTotal()
	}

	return c.Status(fiber.StatusOK).JSON(responses.APIResponse{
		Status:  fiber.StatusOK,
		Message: "Cart fetched successfully",
		Result: &fiber.Map{
			"cart":     user.Cart,
			"subtotal": subtotal,
		},
	})
}

// QuoteCart prices the cart for a prospective order type and address without
// creating anything: the checkout screen's total preview.
func QuoteCart(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	userObjectID, err := currentUser(c)
	if err != nil {
		return unauthorized(c, err.Error())
	}

	orderType := orderflow.OrderType(c.Query("orderType", string(orderflow.OrderTakeaway)))
	if !orderflow.ValidOrderType(orderType) {
		return badRequest(c, "Unknown order type")
	}

	var user models.User
	if err := userCollection.FindOne(ctx, bson.M{"_id": userObjectID}).Decode(&user); err != nil {
		return internalError(c, "Error fetching user details")
	}
	if len(user.Cart) == 0 {
		return badRequest(c, "Cart is empty")
	}

	var subtotal float64
	for _, ci := range user.Cart {
		subtotal += ci.LineTotal()
	}

	settings, err := settingsController.Load(ctx)
	if err != nil {
		return internalError(c, "Failed to load store settings")
	}

	var coords *pricing.Coordinates
	if orderType == orderflow.OrderDelivery {
		lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
		lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
		if latErr != nil || lngErr != nil {
			return badRequest(c, "Delivery quote needs lat and lng")
		}
		coords = &pricing.Coordinates{Lat: lat, Lng: lng}
	}

	var offer *pricing.Offer
	if code := c.Query("offerCode"); code != "" {
		var o models.Offer
		err := offerCollection.FindOne(ctx, bson.M{"code": code, "active": true}).Decode(&o)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return badRequest(c, "Offer code is invalid or inactive")
			}
			return internalError(c, "Error looking up offer")
		}
		if subtotal < o.MinOrderAmount {
			return badRequest(c, "Order does not meet the offer's minimum amount")
		}
		po := o.Pricing()
		offer = &po
	}

	quote := pricing.ComputeTotal(pricing.Input{
		Subtotal:  subtotal,
		OrderType: orderType,
		Delivery:  coords,
		Offer:     offer,
		Config:    settings.Fees,
	})

	return c.Status(fiber.StatusOK).JSON(responses.APIResponse{
		Status:  fiber.StatusOK,
		Message: "Cart quoted successfully",
		Result: &fiber.Map{
			"quote": quote,
		},
	})
}

func hasSize(p models.Product, size string) bool {
	for _, s := range p.Sizes {
		if s.Name == size {
			return true
		}
	}
	return false
}

func findAddon(p models.Product, name string) (models.ProductAddon, bool) {
	for _, a := range p.Addons {
		if a.Name == name {
			return a, true
		}
	}
	return models.ProductAddon{}, false
}

func currentUser(c *fiber.Ctx) (primitive.ObjectID, error) {
	userId, ok := c.Locals("userId").(string)
	if !ok || userId == "" {
		return primitive.NilObjectID, errors.New("User ID not found in token")
	}
	userObjectID, err := primitive.ObjectIDFromHex(userId)
	if err != nil {
		return primitive.NilObjectID, errors.New("Invalid user ID format")
	}
	return userObjectID, nil
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(responses.APIResponse{
		Status:  fiber.StatusUnauthorized,
		Message: msg,
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
