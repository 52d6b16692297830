package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"bakehouse-api/pricing"
)

// Offer is a discount coupon. Orders snapshot the computed discount, so
// editing or deleting an offer never rewrites history.
type Offer struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Code           string             `json:"code" bson:"code" validate:"required,uppercase"`
	Title          string             `json:"title" bson:"title"`
	Kind           pricing.OfferKind  `json:"kind" bson:"kind" validate:"required,oneof=percent flat"`
	Value          float64            `json:"value" bson:"value" validate:"required,gt=0"`
	MaxDiscount    float64            `json:"maxDiscount" bson:"maxDiscount" validate:"gte=0"`
	MinOrderAmount float64            `json:"minOrderAmount" bson:"minOrderAmount" validate:"gte=0"`
	Active         bool               `json:"active" bson:"active"`
	CreatedAt      time.Time          `json:"createdAt" bson:"createdAt"`
}

// Pricing converts the offer into the calculator's snapshot form.
func (o Offer) Pricing() pricing.Offer {
	return pricing.Offer{Kind: o.Kind, Value: o.Value, MaxDiscount: o.MaxDiscount}
}
