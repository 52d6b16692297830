package adminController

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bakehouse-api/configs"
	"bakehouse-api/models"
	"bakehouse-api/orderflow"
	"bakehouse-api/responses"
)

var orderCollection *mongo.Collection = configs.GetCollection(configs.DB, "orders")

// AcceptOrder confirms the order on the store side. The filter is the whole
// guard: still pending, not yet accepted, and paid unless cash. A second call,
// or a call racing a customer cancel, matches nothing and reports a conflict.
func AcceptOrder(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	orderObjectID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid order ID format")
	}

	now := time.Now()
	filter := bson.M{
		"_id":        orderObjectID,
		"status":     orderflow.StatusPending,
		"isAccepted": false,
		"$or": []bson.M{
			{"paymentStatus": orderflow.PaymentPaid},
			{"paymentMethod": orderflow.PayCash},
		},
	}
	update := bson.M{"$set": bson.M{
		"isAccepted": true,
		"acceptedAt": now,
		"updatedAt":  now,
	}}

	result, err := orderCollection.UpdateOne(ctx, filter, update)
	if err != nil {
		return internalError(c, "Failed to accept order")
	}

	if result.MatchedCount == 0 {
		var order models.Order
		err := orderCollection.FindOne(ctx, bson.M{"_id": orderObjectID}).Decode(&order)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return notFound(c, "Order not found")
			}
			return internalError(c, "Failed to fetch order")
		}
		reason := orderflow.ReasonNotPending
		if guardErr := orderflow.CanAccept(order.Flow()); guardErr != nil {
			reason = orderflow.ConflictReasonOf(guardErr)
		}
		return stateConflict(c, "Order cannot be accepted", reason, order)
	}

	return c.Status(fiber.StatusOK).JSON(responses.APIResponse{
		Status:  fiber.StatusOK,
		Message: "Order accepted",
		Result: &fiber.Map{
			"orderId":    orderObjectID.Hex(),
			"isAccepted": true,
		},
	})
}

// UpdateStatusRequest carries the requested fulfillment status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus advances the fulfillment axis along the transition table.
// Cancellation is not reachable from here; that is the customer's endpoint
// with its own window guard.
func UpdateOrderStatus(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	orderObjectID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid order ID format")
	}

	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	to := orderflow.Status(req.Status)
	if !orderflow.ValidStatus(to) {
		return badRequest(c, "Unknown status: "+req.Status)
	}

	var order models.Order
	err = orderCollection.FindOne(ctx, bson.M{"_id": orderObjectID}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return notFound(c, "Order not found")
		}
		return internalError(c, "Failed to fetch order")
	}

	if guardErr := orderflow.CanAdvance(order.Flow(), to); guardErr != nil {
		if errors.Is(guardErr, orderflow.ErrInvalidTransition) {
			return c.Status(fiber.StatusConflict).JSON(responses.APIResponse{
				Status:  fiber.StatusConflict,
				Message: guardErr.Error(),
				Result: &fiber.Map{
					"error":           "InvalidTransition",
					"currentStatus":   order.Status,
					"requestedStatus": to,
				},
			})
		}
		return stateConflict(c, "Order is not ready for that status", orderflow.ConflictReasonOf(guardErr), order)
	}

	now := time.Now()
	set := bson.M{"status": to, "updatedAt": now}
	if to == orderflow.StatusDelivered {
		set["deliveredAt"] = now
	}

	// Conditional on the status we just read, so a concurrent advance makes
	// this a no-op instead of a double jump.
	filter := bson.M{"_id": orderObjectID, "status": order.Status}
	if to == orderflow.StatusPreparing {
		filter["isAccepted"] = true
	}

	result, err := orderCollection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return internalError(c, "Failed to update order status")
	}
	if result.MatchedCount == 0 {
		return c.Status(fiber.StatusConflict).JSON(responses.APIResponse{
			Status:  fiber.StatusConflict,
			Message: "Order advanced concurrently, refresh and retry",
			Result: &fiber.Map{
				"error":           "InvalidTransition",
				"requestedStatus": to,
			},
		})
	}

	return c.Status(fiber.StatusOK).JSON(responses.APIResponse{
		Status:  fiber.StatusOK,
		Message: "Order status updated",
		Result: &fiber.Map{
			"orderId": orderObjectID.Hex(),
			"status":  to,
		},
	})
}

// VerifyPaymentRequest is the manual verification note.
type VerifyPaymentRequest struct {
	Note string `json:"note"`
}

// ManualVerifyPayment marks a cash or screenshot-UPI payment as confirmed.
// Only legal while the payment axis is not already paid.
func ManualVerifyPayment(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	orderObjectID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid order ID format")
	}

	var req VerifyPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	now := time.Now()
	update := bson.M{"$set": bson.M{
		"paymentStatus":    orderflow.PaymentPaid,
		"manualVerifyNote": req.Note,
		"updatedAt":        now,
	}}

	result, err := orderCollection.UpdateOne(ctx,
		bson.M{"_id": orderObjectID, "paymentStatus": bson.M{"$ne": orderflow.PaymentPaid}},
		update)
	if err != nil {
		return internalError(c, "Failed to verify payment")
	}
	if result.MatchedCount == 0 {
		var order models.Order
		err := orderCollection.FindOne(ctx, bson.M{"_id": orderObjectID}).Decode(&order)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return notFound(c, "Order not found")
			}
			return internalError(c, "Failed to fetch order")
		}
		return c.Status(fiber.StatusConflict).JSON(responses.APIResponse{
			Status:  fiber.StatusConflict,
			Message: "Payment is already verified",
			Result: &fiber.Map{
				"orderId":       orderObjectID.Hex(),
				"paymentStatus": order.PaymentStatus,
			},
		})
	}

	// Stamp the screenshot verified if one was attached; separate update so
	// orders without a screenshot don't fail the positional operator.
	_, _ = orderCollection.UpdateOne(ctx,
		bson.M{"_id": orderObjectID, "paymentScreenshot": bson.M{"$exists": true}},
		bson.M{"$set": bson.M{"paymentScreenshot.verified": true}})

	return c.Status(fiber.StatusOK).JSON(responses.APIResponse{
		Status:  fiber.StatusOK,
		Message: "Payment verified manually",
		Result: &fiber.Map{
			"orderId":       orderObjectID.Hex(),
			"paymentStatus": orderflow.PaymentPaid,
		},
	})
}

// PendingOrders lists pending orders oldest first with their urgency tier, so
// the counter screen can triage.
func PendingOrders(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.M{"createdAt": 1})
	cursor, err := orderCollection.Find(ctx, bson.M{"status": orderflow.StatusPending}, opts)
	if err != nil {
		return internalError(c, "Failed to fetch pending orders")
	}
	defer cursor.Close(ctx)

	now := time.Now()
	// Always an array in the response, even with nothing pending.
	out := []fiber.Map{}
	for cursor.Next(ctx) {
		var order models.Order
		if err := cursor.Decode(&order); err != nil {
			return internalError(c, "Failed to decode order")
		}
		out = append(out, fiber.Map{
			"order":          order,
			"urgency":        orderflow.ClassifyUrgency(order.CreatedAt, order.IsAccepted, now),
			"waitingSeconds": int(now.Sub(order.CreatedAt).Seconds()),
		})
	}
	if err := cursor.Err(); err != nil {
		return internalError(c, "Cursor error")
	}

	return c.Status(fiber.StatusOK).JSON(responses.APIResponse{
		Status:  fiber.StatusOK,
		Message: "Pending orders fetched successfully",
		Result: &fiber.Map{
			"orders": out,
			"count":  len(out),
		},
	})
}

// ListOrders is the admin order history view with status filter + pagination.
func ListOrders(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.ParseInt(c.Query("limit", "20"), 10, 64)
	if limit < 1 {
		limit = 20
	}
	skip := (page - 1) * limit

	filter := bson.M{}
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

func stateConflict(c *fiber.Ctx, msg string, reason orderflow.ConflictReason, order models.Order) error {
	return c.Status(fiber.StatusConflict).JSON(responses.APIResponse{
		Status:  fiber.StatusConflict,
		Message: msg,
		Result: &fiber.Map{
			"reason":        reason,
			"status":        order.Status,
			"isAccepted":    order.IsAccepted,
			"paymentStatus": order.PaymentStatus,
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
