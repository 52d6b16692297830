package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"bakehouse-api/orderflow"
	"bakehouse-api/pricing"
)

// Customer is the weak reference stored on an order; deleting a user never
// touches order history.
type Customer struct {
	Name  string `json:"name" bson:"name"`
	Phone string `json:"phone" bson:"phone"`
}

// OrderItemAddon is a priced extra snapshotted onto an order line.
type OrderItemAddon struct {
	Name  string  `json:"name" bson:"name"`
	Price float64 `json:"price" bson:"price"`
}

// OrderItem is a line of an order. Name and prices are snapshots taken at
// submission; later menu edits never alter placed orders.
type OrderItem struct {
	ProductID primitive.ObjectID `json:"productId" bson:"productId"`
	Name      string             `json:"name" bson:"name" validate:"required"`
	Quantity  int                `json:"quantity" bson:"quantity" validate:"required,min=1"`
	Size      string             `json:"size,omitempty" bson:"size,omitempty"`
	Addons    []OrderItemAddon   `json:"addons,omitempty" bson:"addons,omitempty"`
	UnitPrice float64            `json:"unitPrice" bson:"unitPrice"`
	LineTotal float64            `json:"lineTotal" bson:"lineTotal"`
}

// DeliveryAddress is present iff the order type is delivery.
type DeliveryAddress struct {
	Address  string              `json:"address" bson:"address" validate:"required"`
	Location pricing.Coordinates `json:"location" bson:"location"`
}

// AppliedOffer is a value snapshot of the discount at submission time. An
// offer edited or deleted later must not alter historical totals.
type AppliedOffer struct {
	OfferID        primitive.ObjectID `json:"offerId" bson:"offerId"`
	Code           string             `json:"code" bson:"code"`
	DiscountAmount float64            `json:"discountAmount" bson:"discountAmount"`
}

// PaymentScreenshot is used for manual UPI payments without the gateway.
type PaymentScreenshot struct {
	URL      string `json:"url" bson:"url"`
	Verified bool   `json:"verified" bson:"verified"`
}

// Order is the central record. Status and PaymentStatus are independent axes;
// both are mutated only through guarded conditional updates.
type Order struct {
	ID              primitive.ObjectID      `json:"id" bson:"_id"`
	UserID          primitive.ObjectID      `json:"userId" bson:"userId"`
	Customer        Customer                `json:"customer" bson:"customer"`
	Items           []OrderItem             `json:"items" bson:"items"`
	OrderType       orderflow.OrderType     `json:"orderType" bson:"orderType"`
	DeliveryAddress *DeliveryAddress        `json:"deliveryAddress,omitempty" bson:"deliveryAddress,omitempty"`
	PaymentMethod   orderflow.PaymentMethod `json:"paymentMethod" bson:"paymentMethod"`
	PaymentStatus   orderflow.PaymentStatus `json:"paymentStatus" bson:"paymentStatus"`
	Status          orderflow.Status        `json:"status" bson:"status"`
	IsAccepted      bool                    `json:"isAccepted" bson:"isAccepted"`

	TotalAmount    float64 `json:"totalAmount" bson:"totalAmount"`
	TaxAmount      float64 `json:"taxAmount" bson:"taxAmount"`
	DeliveryFee    float64 `json:"deliveryFee" bson:"deliveryFee"`
	PlatformFee    float64 `json:"platformFee" bson:"platformFee"`
	DiscountAmount float64 `json:"discountAmount" bson:"discountAmount"`

	AppliedOffer      *AppliedOffer      `json:"appliedOffer,omitempty" bson:"appliedOffer,omitempty"`
	PaymentScreenshot *PaymentScreenshot `json:"paymentScreenshot,omitempty" bson:"paymentScreenshot,omitempty"`
	ManualVerifyNote  string             `json:"manualVerifyNote,omitempty" bson:"manualVerifyNote,omitempty"`

	GatewayOrderID string `json:"gatewayOrderId,omitempty" bson:"gatewayOrderId,omitempty"`
	PaymentID      string `json:"paymentId,omitempty" bson:"paymentId,omitempty"`

	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt" bson:"updatedAt"`
	AcceptedAt  *time.Time `json:"acceptedAt,omitempty" bson:"acceptedAt,omitempty"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty" bson:"deliveredAt,omitempty"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty" bson:"cancelledAt,omitempty"`
}

// Flow returns the snapshot the state-machine guards evaluate.
func (o Order) Flow() orderflow.OrderView {
	return orderflow.OrderView{
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		PaymentMethod: o.PaymentMethod,
		Accepted:      o.IsAccepted,
		CreatedAt:     o.CreatedAt,
	}
}
