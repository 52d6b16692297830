package models

import (
	"time"

	"bakehouse-api/pricing"
)

// StoreSettings is a singleton document holding the store profile and the fee
// configuration the pricing calculator consumes.
type StoreSettings struct {
	StoreName           string            `json:"storeName" bson:"storeName"`
	Phone               string            `json:"phone" bson:"phone"`
	Address             string            `json:"address" bson:"address"`
	AcceptingOrders     bool              `json:"acceptingOrders" bson:"acceptingOrders"`
	Fees                pricing.FeeConfig `json:"fees" bson:"fees"`
	CancelWindowSeconds int               `json:"cancelWindowSeconds" bson:"cancelWindowSeconds"`
	UpdatedAt           time.Time         `json:"updatedAt" bson:"updatedAt"`
}

// CancelWindow returns the configured cancellation window, falling back to 30s
// when unset.
func (s StoreSettings) CancelWindow() time.Duration {
	if s.CancelWindowSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.CancelWindowSeconds) * time.Second
}

// DefaultStoreSettings seeds a fresh install.
func DefaultStoreSettings() StoreSettings {
	return StoreSettings{
		StoreName:       "Bakehouse",
		AcceptingOrders: true,
		Fees: pricing.FeeConfig{
			TaxRatePercent:        5,
			BaseFee:               30,
			PerKmFee:              5,
			FreeDeliveryThreshold: 500,
			MaxDeliveryDistanceKm: 10,
			PlatformFee:           0,
		},
		CancelWindowSeconds: 30,
		UpdatedAt:           time.Now(),
	}
}
