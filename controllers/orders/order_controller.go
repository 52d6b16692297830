package orderController

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
	"go.mongodb.org/mongo-driver/mongo/options"

	"bakehouse-api/configs"
	"bakehouse-api/models"
	"bakehouse-api/orderflow"
	"bakehouse-api/pricing"
	"bakehouse-api/responses"
	settingsController "bakehouse-api/controllers/settings"
)

var orderCollection *mongo.Collection = configs.GetCollection(configs.DB, "orders")
var userCollection *mongo.Collection = configs.GetCollection(configs.DB, "users")
var offerCollection *mongo.Collection = configs.GetCollection(configs.DB, "offers")

var validate = validator.New()

// SubmitOrderRequest is the checkout submission body.
type SubmitOrderRequest struct {
	OrderType            string                  `json:"orderType" validate:"required,oneof=dine_in takeaway delivery"`
	PaymentMethod        string                  `json:"paymentMethod" validate:"required,oneof=cash gateway"`
	DeliveryAddress      *models.DeliveryAddress `json:"deliveryAddress"`
	OfferCode            string                  `json:"offerCode"`
	PaymentScreenshotURL string                  `json:"paymentScreenshot"`
}

// SubmitOrder turns the caller's cart into a pending order. Totals are
// computed server-side at submission and never recomputed afterwards.
func SubmitOrder(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	userObjectID, err := currentUser(c)
	if err != nil {
		return unauthorized(c, err.Error())
	}

	var req SubmitOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return badRequest(c, "Invalid order draft: "+err.Error())
	}
	if req.OrderType == string(orderflow.OrderDelivery) && req.DeliveryAddress == nil {
		return badRequest(c, "Delivery address is required for delivery orders")
	}

	var user models.User
	if err := userCollection.FindOne(ctx, bson.M{"_id": userObjectID}).Decode(&user); err != nil {
		return internalError(c, "Error fetching user details")
	}
	if len(user.Cart) == 0 {
		return badRequest(c, "Cart is empty")
	}

	settings, err := settingsController.Load(ctx)
	if err != nil {
		return internalError(c, "Failed to load store settings")
	}
	if !settings.AcceptingOrders {
		return c.Status(fiber.StatusServiceUnavailable).JSON(responses.APIResponse{
			Status:  fiber.StatusServiceUnavailable,
			Message: "Store is not accepting orders right now",
		})
	}

	// Snapshot the cart into immutable order lines.
	var items []models.OrderItem
	var subtotal float64
	for _, ci := range user.Cart {
		unit := ci.Product.PriceFor(ci.Size)
		for _, a := range ci.Addons {
			unit += a.Price
		}
		line := models.OrderItem{
			ProductID: ci.Product.ID,
			Name:      ci.Product.Name,
			Quantity:  ci.Quantity,
			Size:      ci.Size,
			Addons:    ci.Addons,
			UnitPrice: unit,
			LineTotal: unit * float64(ci.Quantity),
		}
		items = append(items, line)
		subtotal += line.LineTotal
	}

	// Resolve the offer and snapshot its discount; the live offer record is
	// never consulted again for this order.
	var applied *models.AppliedOffer
	var priceOffer *pricing.Offer
	if req.OfferCode != "" {
		var offer models.Offer
		err := offerCollection.FindOne(ctx, bson.M{"code": req.OfferCode, "active": true}).Decode(&offer)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return badRequest(c, "Offer code is invalid or inactive")
			}
			return internalError(c, "Error looking up offer")
		}
		if subtotal < offer.MinOrderAmount {
			return badRequest(c, "Order does not meet the offer's minimum amount")
		}
		po := offer.Pricing()
		priceOffer = &po
		applied = &models.AppliedOffer{OfferID: offer.ID, Code: offer.Code}
	}

	var deliveryCoords *pricing.Coordinates
	if req.DeliveryAddress != nil {
		deliveryCoords = &req.DeliveryAddress.Location
	}
	quote := pricing.ComputeTotal(pricing.Input{
		Subtotal:  subtotal,
		OrderType: orderflow.OrderType(req.OrderType),
		Delivery:  deliveryCoords,
		Offer:     priceOffer,
		Config:    settings.Fees,
	})
	if !quote.WithinServiceRadius {
		return badRequest(c, "Address is outside the delivery radius")
	}
	if applied != nil {
		applied.DiscountAmount = quote.Discount
	}

	now := time.Now()
	order := models.Order{
		ID:              primitive.NewObjectID(),
		UserID:          userObjectID,
		Customer:        models.Customer{Name: user.Name, Phone: user.Phone},
		Items:           items,
		OrderType:       orderflow.OrderType(req.OrderType),
		DeliveryAddress: req.DeliveryAddress,
		PaymentMethod:   orderflow.PaymentMethod(req.PaymentMethod),
		PaymentStatus:   orderflow.PaymentUnpaid,
		Status:          orderflow.StatusPending,
		TotalAmount:     quote.GrandTotal,
		TaxAmount:       quote.Tax,
		DeliveryFee:     quote.DeliveryFee,
		PlatformFee:     quote.PlatformFee,
		DiscountAmount:  quote.Discount,
		AppliedOffer:    applied,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if req.PaymentScreenshotURL != "" {
		order.PaymentScreenshot = &models.PaymentScreenshot{URL: req.PaymentScreenshotURL}
	}

	if _, err := orderCollection.InsertOne(ctx, order); err != nil {
		return internalError(c, "Failed to create order")
	}

	// Cash orders are final at submission; gateway orders keep the cart until
	// payment is confirmed so an abandoned checkout can be retried.
	if order.PaymentMethod == orderflow.PayCash {
		_, _ = userCollection.UpdateOne(ctx, bson.M{"_id": userObjectID},
			bson.M{"$set": bson.M{"cart": []models.CartItem{}}})
	}

	return c.Status(fiber.StatusCreated).JSON(responses.APIResponse{
		Status:  fiber.StatusCreated,
		Message: "Order placed successfully",
		Result: &fiber.Map{
			"orderId":                 order.ID.Hex(),
			"status":                  order.Status,
			"paymentStatus":           order.PaymentStatus,
			"totalAmount":             order.TotalAmount,
			"taxAmount":               order.TaxAmount,
			"deliveryFee":             order.DeliveryFee,
			"platformFee":             order.PlatformFee,
			"discountAmount":          order.DiscountAmount,
			"cancelWindowSecondsLeft": int(settings.CancelWindow().Seconds()),
		},
	})
}

// GetOrderStatus is the single polling channel for order tracking: payment
// state, fulfillment state, and the advisory cancel countdown all come from
// here. Clients poll it every few seconds while a tracking view is open.
func GetOrderStatus(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	userObjectID, err := currentUser(c)
	if err != nil {
		return unauthorized(c, err.Error())
	}

	orderObjectID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid order ID format")
	}

	var order models.Order
	err = orderCollection.FindOne(ctx, bson.M{"_id": orderObjectID, "userId": userObjectID}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return notFound(c, "Order not found")
		}
		return internalError(c, "Failed to fetch order")
	}

	settings, err := settingsController.Load(ctx)
	if err != nil {
		return internalError(c, "Failed to load store settings")
	}

	now := time.Now()
	left := orderflow.CancelWindowRemaining(order.Flow(), now, settings.CancelWindow())

	return c.Status(fiber.StatusOK).JSON(responses.APIResponse{
		Status:  fiber.StatusOK,
		Message: "Order status fetched successfully",
		Result: &fiber.Map{
			"orderId":                 order.ID.Hex(),
			"status":                  order.Status,
			"isAccepted":              order.IsAccepted,
			"paymentStatus":           order.PaymentStatus,
			"paymentMethod":           order.PaymentMethod,
			"totalAmount":             order.TotalAmount,
			"items":                   order.Items,
			"cancelWindowSecondsLeft": int(left.Seconds()),
			"pollIntervalSeconds":     5,
		},
	})
}

// CancelOrder is the customer-side exit from pending. The filter is the
// authoritative guard: the update only matches an order that is still pending,
// unaccepted, and inside the cancellation window, so a racing accept and
// cancel can never both win.
func CancelOrder(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	userObjectID, err := currentUser(c)
	if err != nil {
		return unauthorized(c, err.Error())
	}

	orderObjectID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid order ID format")
	}

	settings, err := settingsController.Load(ctx)
	if err != nil {
		return internalError(c, "Failed to load store settings")
	}

	now := time.Now()
	filter := bson.M{
		"_id":        orderObjectID,
		"userId":     userObjectID,
		"status":     orderflow.StatusPending,
		"isAccepted": false,
		"createdAt":  bson.M{"$gte": now.Add(-settings.CancelWindow())},
	}
	update := bson.M{"$set": bson.M{
		"status":      orderflow.StatusCancelled,
		"cancelledAt": now,
		"updatedAt":   now,
	}}

	result, err := orderCollection.UpdateOne(ctx, filter, update)
	if err != nil {
		return internalError(c, "Failed to cancel order")
	}

	if result.MatchedCount == 0 {
		// Lost the race or out of window: re-read to report why.
		var order models.Order
		err := orderCollection.FindOne(ctx, bson.M{"_id": orderObjectID, "userId": userObjectID}).Decode(&order)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return notFound(c, "Order not found")
			}
			return internalError(c, "Failed to fetch order")
		}
		reason := orderflow.ReasonNotPending
		if guardErr := orderflow.CanCancel(order.Flow(), now, settings.CancelWindow()); guardErr != nil {
			reason = orderflow.ConflictReasonOf(guardErr)
		}
		return c.Status(fiber.StatusConflict).JSON(responses.APIResponse{
			Status:  fiber.StatusConflict,
			Message: "Order can no longer be cancelled",
			Result: &fiber.Map{
				"reason":     reason,
				"status":     order.Status,
				"isAccepted": order.IsAccepted,
			},
		})
	}

	return c.Status(fiber.StatusOK).JSON(responses.APIResponse{
		Status:  fiber.StatusOK,
		Message: "Order cancelled successfully",
		Result: &fiber.Map{
			"orderId": orderObjectID.Hex(),
			"status":  orderflow.StatusCancelled,
		},
	})
}

// GetOrders lists the caller's orders, newest first, with optional status
// filter and pagination.
func GetOrders(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	userObjectID, err := currentUser(c)
	if err != nil {
		return unauthorized(c, err.Error())
	}

	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.ParseInt(c.Query("limit", "10"), 10, 64)
	if limit < 1 {
		limit = 10
	}
	skip := (page - 1) * limit

	filter := bson.M{"userId": userObjectID}
	if status := c.Query("status"); status != "" {
		filter["status"] = status
	}

	total, err := orderCollection.CountDocuments(ctx, filter)
	if err != nil {
		return internalError(c, "Failed to count orders")
	}

	opts := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetSkip(skip).
		SetLimit(limit)
	cursor, err := orderCollection.Find(ctx, filter, opts)
	if err != nil {
		return internalError(c, "Failed to fetch orders")
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return internalError(c, "Failed to decode orders")
	}

	totalPages := (total + limit - 1) / limit
	return c.Status(fiber.StatusOK).JSON(responses.APIResponse{
		Status:  fiber.StatusOK,
		Message: "Orders fetched successfully",
		Result: &fiber.Map{
			"orders":      orders,
			"currentPage": page,
			"totalPages":  totalPages,
			"totalOrders": total,
		},
	})
}

// GetOrderById returns a full order record.
func GetOrderById(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	userObjectID, err := currentUser(c)
	if err != nil {
		return unauthorized(c, err.Error())
	}

	orderObjectID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid order ID format")
	}

	var order models.Order
	err = orderCollection.FindOne(ctx, bson.M{"_id": orderObjectID, "userId": userObjectID}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return notFound(c, "Order not found")
		}
		return internalError(c, "Failed to fetch order")
	}

	return c.Status(fiber.StatusOK).JSON(responses.APIResponse{
		Status:  fiber.StatusOK,
		Message: "Order fetched successfully",
		Result: &fiber.Map{
			"order": order,
		},
	})
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
