package paymentController

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"bakehouse-api/configs"
	"bakehouse-api/gateway"
	"bakehouse-api/models"
	"bakehouse-api/orderflow"
	"bakehouse-api/reconcile"
	"bakehouse-api/responses"
)

var orderCollection *mongo.Collection = configs.GetCollection(configs.DB, "orders")
var userCollection *mongo.Collection = configs.GetCollection(configs.DB, "users")

var gatewayClient gateway.Client = gateway.New(configs.EnvRazorpayKeyId(), configs.EnvRazorpayKeySecret())

// poller owns the post-checkout reconciliation sessions: one per order,
// starting a new one for the same order cancels the old one.
var poller = reconcile.NewPoller()

// CheckoutRequest initiates gateway payment for an existing order.
type CheckoutRequest struct {
	OrderID string `json:"orderId"`
}

// VerifyRequest is the client-side checkout callback payload.
type VerifyRequest struct {
	OrderID        string `json:"orderId"`
	GatewayOrderID string `json:"gatewayOrderId"`
	PaymentID      string `json:"paymentId"`
	Signature      string `json:"signature"`
}

// InitiateCheckout registers the order with the gateway and starts the
// reconciliation session that covers the app-switch case, where checkout
// returns without ever invoking the client callback.
func InitiateCheckout(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	userObjectID, err := currentUser(c)
	if err != nil {
		return unauthorized(c, err.Error())
	}

	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	orderObjectID, err := primitive.ObjectIDFromHex(req.OrderID)
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

	if order.PaymentMethod != orderflow.PayGateway {
		return badRequest(c, "Order is not a gateway payment")
	}
	if order.PaymentStatus == orderflow.PaymentPaid {
		return c.Status(fiber.StatusConflict).JSON(responses.APIResponse{
			Status:  fiber.StatusConflict,
			Message: "Order is already paid",
		})
	}

	ref, err := gatewayClient.CreateOrder(order.TotalAmount, "INR", "rcpt_"+order.ID.Hex())
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(responses.APIResponse{
			Status:  fiber.StatusBadGateway,
			Message: "Failed to create gateway order: " + err.Error(),
		})
	}

	now := time.Now()
	result, err := orderCollection.UpdateOne(ctx,
		bson.M{"_id": orderObjectID, "paymentStatus": bson.M{"$ne": orderflow.PaymentPaid}},
		bson.M{"$set": bson.M{
			"gatewayOrderId": ref.ID,
			"paymentStatus":  orderflow.PaymentInitiated,
			"updatedAt":      now,
		}})
	if err != nil {
		return internalError(c, "Failed to record payment initiation")
	}
	if result.MatchedCount == 0 {
		// Paid concurrently between the read and the update; there is nothing
		// left to reconcile.
		return c.Status(fiber.StatusConflict).JSON(responses.APIResponse{
			Status:  fiber.StatusConflict,
			Message: "Order is already paid",
			Result: &fiber.Map{
				"orderId":       order.ID.Hex(),
				"paymentStatus": orderflow.PaymentPaid,
			},
		})
	}

	startReconciliation(order.ID, ref.ID)

	return c.Status(fiber.StatusOK).JSON(responses.APIResponse{
		Status:  fiber.StatusOK,
		Message: "Checkout initiated",
		Result: &fiber.Map{
			"orderId":        order.ID.Hex(),
			"gatewayOrderId": ref.ID,
			"amount":         ref.Amount,
			"currency":       ref.Currency,
			"keyId":          gatewayClient.KeyID(),
		},
	})
}

// VerifyPayment handles the synchronous checkout callback. The signature check
// only authenticates the callback; the server-verified gateway fetch decides
// the outcome. A contradicting poll result always wins over the callback.
func VerifyPayment(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	userObjectID, err := currentUser(c)
	if err != nil {
		return unauthorized(c, err.Error())
	}

	var req VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	orderObjectID, err := primitive.ObjectIDFromHex(req.OrderID)
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
	if order.GatewayOrderID == "" || order.GatewayOrderID != req.GatewayOrderID {
		return badRequest(c, "Gateway order mismatch")
	}

	if !gatewayClient.VerifySignature(req.GatewayOrderID, req.PaymentID, req.Signature) {
		return badRequest(c, "Invalid payment signature")
	}

	res, err := gatewayClient.FetchPaymentStatus(order.GatewayOrderID)
	if err != nil {
		// The callback alone is never enough; leave the order initiated and
		// let the reconciler settle it.
		return c.Status(fiber.StatusAccepted).JSON(responses.APIResponse{
			Status:  fiber.StatusAccepted,
			Message: "Payment confirmation pending",
			Result: &fiber.Map{
				"orderId":       order.ID.Hex(),
				"paymentStatus": orderflow.PaymentInitiated,
			},
		})
	}

	switch res.State {
	case gateway.StateCaptured:
		poller.Stop(order.ID.Hex())
		markPaid(ctx, order.ID, res.PaymentID)
		clearCart(ctx, order.UserID)
		return c.Status(fiber.StatusOK).JSON(responses.APIResponse{
			Status:  fiber.StatusOK,
			Message: "Payment verified successfully",
			Result: &fiber.Map{
				"orderId":       order.ID.Hex(),
				"paymentId":     res.PaymentID,
				"paymentStatus": orderflow.PaymentPaid,
			},
		})
	case gateway.StateFailed:
		poller.Stop(order.ID.Hex())
		markFailed(ctx, order.ID)
		return c.Status(fiber.StatusBadRequest).JSON(responses.APIResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Payment failed at the gateway",
			Result: &fiber.Map{
				"orderId":       order.ID.Hex(),
				"paymentStatus": orderflow.PaymentFailed,
			},
		})
	default:
		return c.Status(fiber.StatusAccepted).JSON(responses.APIResponse{
			Status:  fiber.StatusAccepted,
			Message: "Payment confirmation pending",
			Result: &fiber.Map{
				"orderId":       order.ID.Hex(),
				"paymentStatus": orderflow.PaymentInitiated,
			},
		})
	}
}

// PaymentStatus is the polling primitive for payment confirmation.
func PaymentStatus(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	userObjectID, err := currentUser(c)
	if err != nil {
		return unauthorized(c, err.Error())
	}

	orderObjectID, err := primitive.ObjectIDFromHex(c.Params("orderId"))
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
		Message: "Payment status fetched successfully",
		Result: &fiber.Map{
			"orderId":       order.ID.Hex(),
			"paymentStatus": order.PaymentStatus,
			"totalAmount":   order.TotalAmount,
		},
	})
}

// SwitchToCash lets a customer abandon a failed or unconfirmed gateway attempt
// and pay at the counter instead. Only legal while the order is still pending,
// unaccepted, and not already paid.
func SwitchToCash(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	userObjectID, err := currentUser(c)
	if err != nil {
		return unauthorized(c, err.Error())
	}

	orderObjectID, err := primitive.ObjectIDFromHex(c.Params("orderId"))
	if err != nil {
		return badRequest(c, "Invalid order ID format")
	}

	now := time.Now()
	result, err := orderCollection.UpdateOne(ctx,
		bson.M{
			"_id":           orderObjectID,
			"userId":        userObjectID,
			"status":        orderflow.StatusPending,
			"isAccepted":    false,
			"paymentStatus": bson.M{"$ne": orderflow.PaymentPaid},
		},
		bson.M{"$set": bson.M{
			"paymentMethod": orderflow.PayCash,
			"paymentStatus": orderflow.PaymentUnpaid,
			"updatedAt":     now,
		}})
	if err != nil {
		return internalError(c, "Failed to switch payment method")
	}
	if result.MatchedCount == 0 {
		return c.Status(fiber.StatusConflict).JSON(responses.APIResponse{
			Status:  fiber.StatusConflict,
			Message: "Order has already progressed; payment method can no longer change",
		})
	}

	poller.Stop(orderObjectID.Hex())
	clearCart(ctx, userObjectID)

	return c.Status(fiber.StatusOK).JSON(responses.APIResponse{
		Status:  fiber.StatusOK,
		Message: "Payment method switched to cash",
		Result: &fiber.Map{
			"orderId":       orderObjectID.Hex(),
			"paymentMethod": orderflow.PayCash,
		},
	})
}

// startReconciliation polls the gateway on the payment-confirmation cadence.
// Attempts exhausted leaves the order initiated: an unconfirmed payment is an
// operator follow-up, never a silent success.
func startReconciliation(orderID primitive.ObjectID, gatewayOrderID string) {
	key := orderID.Hex()
	poller.Start(key,
		func(ctx context.Context) (gateway.PaymentResult, error) {
			return gatewayClient.FetchPaymentStatus(gatewayOrderID)
		},
		reconcile.PaymentConfirmation,
		reconcile.Hooks{
			OnPaid: func(res gateway.PaymentResult) {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				markPaid(ctx, orderID, res.PaymentID)
				var order models.Order
				if err := orderCollection.FindOne(ctx, bson.M{"_id": orderID}).Decode(&order); err == nil {
					clearCart(ctx, order.UserID)
				}
			},
			OnFailed: func(res gateway.PaymentResult) {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				markFailed(ctx, orderID)
			},
			OnUnresolved: func() {
				log.Printf("payment unconfirmed after polling budget, order %s left for manual review", key)
			},
		})
}

// markPaid flips the payment axis to paid exactly once.
func markPaid(ctx context.Context, orderID primitive.ObjectID, paymentID string) {
	_, err := orderCollection.UpdateOne(ctx,
		bson.M{"_id": orderID, "paymentStatus": bson.M{"$ne": orderflow.PaymentPaid}},
		bson.M{"$set": bson.M{
			"paymentStatus": orderflow.PaymentPaid,
			"paymentId":     paymentID,
			"updatedAt":     time.Now(),
		}})
	if err != nil {
		log.Printf("failed to mark order %s paid: %v", orderID.Hex(), err)
	}
}

// markFailed only moves initiated -> failed; a captured payment is never
// downgraded.
func markFailed(ctx context.Context, orderID primitive.ObjectID) {
	_, err := orderCollection.UpdateOne(ctx,
		bson.M{"_id": orderID, "paymentStatus": orderflow.PaymentInitiated},
		bson.M{"$set": bson.M{
			"paymentStatus": orderflow.PaymentFailed,
			"updatedAt":     time.Now(),
		}})
	if err != nil {
		log.Printf("failed to mark order %s failed: %v", orderID.Hex(), err)
	}
}

func clearCart(ctx context.Context, userID primitive.ObjectID) {
	_, err := userCollection.UpdateOne(ctx, bson.M{"_id": userID},
		bson.M{"$set": bson.M{"cart": []models.CartItem{}}})
	if err != nil {
		log.Printf("failed to clear cart for user %s: %v", userID.Hex(), err)
	}
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
