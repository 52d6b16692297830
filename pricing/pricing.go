package pricing

import (
	"math"

	"bakehouse-api/orderflow"
)

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// FeeConfig is the store's fee configuration, fetched from settings.
type FeeConfig struct {
	TaxRatePercent        float64     `json:"taxRate" bson:"taxRate"`
	BaseFee               float64     `json:"baseFee" bson:"baseFee"`
	PerKmFee              float64     `json:"perKmFee" bson:"perKmFee"`
	FreeDeliveryThreshold float64     `json:"freeDeliveryThreshold" bson:"freeDeliveryThreshold"`
	MaxDeliveryDistanceKm float64     `json:"maxDeliveryDistance" bson:"maxDeliveryDistance"`
	PlatformFee           float64     `json:"platformFee" bson:"platformFee"`
	StoreLocation         Coordinates `json:"storeCoordinates" bson:"storeCoordinates"`
}

type OfferKind string

const (
	OfferPercent OfferKind = "percent"
	OfferFlat    OfferKind = "flat"
)

// Offer is the discount snapshot handed to the calculator. Value is a
// percentage for percent offers and an absolute amount for flat ones.
// MaxDiscount of zero means uncapped.
type Offer struct {
	Kind        OfferKind `json:"kind"`
	Value       float64   `json:"value"`
	MaxDiscount float64   `json:"maxDiscount"`
}

// Input carries everything ComputeTotal needs. Delivery is nil unless the
// order type is delivery.
type Input struct {
	Subtotal  float64
	OrderType orderflow.OrderType
	Delivery  *Coordinates
	Offer     *Offer
	Config    FeeConfig
}

// Quote is the computed fee breakdown. WithinServiceRadius=false means the
// caller must block checkout; the other figures are still filled in.
type Quote struct {
	Subtotal            float64 `json:"subtotal"`
	Tax                 float64 `json:"tax"`
	DeliveryFee         float64 `json:"deliveryFee"`
	PlatformFee         float64 `json:"platformFee"`
	Discount            float64 `json:"discount"`
	GrandTotal          float64 `json:"grandTotal"`
	DistanceKm          float64 `json:"distanceKm"`
	FreeDeliveryApplied bool    `json:"freeDeliveryApplied"`
	WithinServiceRadius bool    `json:"withinServiceRadius"`
}

// ComputeTotal is a pure function: no I/O, deterministic for the same input.
func ComputeTotal(in Input) Quote {
	cfg := in.Config
	q := Quote{
		Subtotal:            in.Subtotal,
		PlatformFee:         cfg.PlatformFee,
		WithinServiceRadius: true,
	}

	q.Tax = round2(in.Subtotal * cfg.TaxRatePercent / 100)

	if in.OrderType == orderflow.OrderDelivery {
		if in.Delivery == nil {
			q.WithinServiceRadius = false
		} else {
			q.DistanceKm = round2(HaversineKm(cfg.StoreLocation, *in.Delivery))
			if q.DistanceKm > cfg.MaxDeliveryDistanceKm {
				q.WithinServiceRadius = false
			} else if in.Subtotal >= cfg.FreeDeliveryThreshold {
				q.FreeDeliveryApplied = true
			} else {
				q.DeliveryFee = round2(cfg.BaseFee + cfg.PerKmFee*q.DistanceKm)
			}
		}
	}

	if in.Offer != nil {
		q.Discount = discountFor(*in.Offer, in.Subtotal)
		// A discount can never push the order total negative.
		if limit := in.Subtotal + q.Tax + q.DeliveryFee; q.Discount > limit {
			q.Discount = limit
		}
	}

	q.GrandTotal = round2(math.Max(0, in.Subtotal+q.Tax+q.DeliveryFee+q.PlatformFee-q.Discount))
	return q
}

func discountFor(o Offer, subtotal float64) float64 {
	var d float64
	switch o.Kind {
	case OfferPercent:
		d = math.Round(subtotal * o.Value / 100)
	case OfferFlat:
		d = o.Value
	default:
		return 0
	}
	if o.MaxDiscount > 0 && d > o.MaxDiscount {
		d = o.MaxDiscount
	}
	if d < 0 {
		return 0
	}
	return d
}

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two points.
func HaversineKm(a, b Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
