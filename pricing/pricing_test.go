package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bakehouse-api/orderflow"
)

var testConfig = FeeConfig{
	TaxRatePercent:        5,
	BaseFee:               30,
	PerKmFee:              5,
	FreeDeliveryThreshold: 500,
	MaxDeliveryDistanceKm: 10,
	PlatformFee:           0,
	StoreLocation:         Coordinates{Lat: 12.9716, Lng: 77.5946}, // Bengaluru
}

// pointAtKm returns a coordinate roughly km kilometres due north of the store.
// One degree of latitude is ~111.195 km on the sphere the calculator uses.
func pointAtKm(km float64) Coordinates {
	return Coordinates{
		Lat: testConfig.StoreLocation.Lat + km/111.19492664455873,
		Lng: testConfig.StoreLocation.Lng,
	}
}

func TestHaversineKm(t *testing.T) {
	assert.InDelta(t, 0, HaversineKm(testConfig.StoreLocation, testConfig.StoreLocation), 1e-9)
	assert.InDelta(t, 3, HaversineKm(testConfig.StoreLocation, pointAtKm(3)), 0.01)
	assert.InDelta(t, 10, HaversineKm(testConfig.StoreLocation, pointAtKm(10)), 0.01)
}

func TestComputeTotalHappyPathDelivery(t *testing.T) {
	// Subtotal 500, delivery at 3km, threshold 500 met: free delivery,
	// tax 25, grand total 525.
	dest := pointAtKm(3)
	q := ComputeTotal(Input{
		Subtotal:  500,
		OrderType: orderflow.OrderDelivery,
		Delivery:  &dest,
		Config:    testConfig,
	})

	assert.True(t, q.WithinServiceRadius)
	assert.True(t, q.FreeDeliveryApplied)
	assert.Equal(t, 0.0, q.DeliveryFee)
	assert.Equal(t, 25.0, q.Tax)
	assert.Equal(t, 525.0, q.GrandTotal)
}

func TestComputeTotalDeliveryFee(t *testing.T) {
	dest := pointAtKm(4)
	q := ComputeTotal(Input{
		Subtotal:  300,
		OrderType: orderflow.OrderDelivery,
		Delivery:  &dest,
		Config:    testConfig,
	})

	assert.True(t, q.WithinServiceRadius)
	assert.False(t, q.FreeDeliveryApplied)
	// base 30 + 5/km x 4km = 50
	assert.InDelta(t, 50, q.DeliveryFee, 0.1)
	assert.Equal(t, 15.0, q.Tax)
	assert.InDelta(t, 365, q.GrandTotal, 0.1)
}

func TestComputeTotalServiceRadius(t *testing.T) {
	t.Run("just inside radius", func(t *testing.T) {
		dest := pointAtKm(9.99)
		q := ComputeTotal(Input{Subtotal: 200, OrderType: orderflow.OrderDelivery, Delivery: &dest, Config: testConfig})
		assert.True(t, q.WithinServiceRadius)
	})

	t.Run("exactly at radius is still deliverable", func(t *testing.T) {
		dest := pointAtKm(10)
		q := ComputeTotal(Input{Subtotal: 200, OrderType: orderflow.OrderDelivery, Delivery: &dest, Config: testConfig})
		assert.InDelta(t, 10, q.DistanceKm, 0.01)
		assert.True(t, q.WithinServiceRadius)
	})

	t.Run("beyond radius flags checkout block", func(t *testing.T) {
		dest := pointAtKm(12)
		q := ComputeTotal(Input{Subtotal: 200, OrderType: orderflow.OrderDelivery, Delivery: &dest, Config: testConfig})
		assert.False(t, q.WithinServiceRadius)
	})

	t.Run("missing coordinates block delivery", func(t *testing.T) {
		q := ComputeTotal(Input{Subtotal: 200, OrderType: orderflow.OrderDelivery, Config: testConfig})
		assert.False(t, q.WithinServiceRadius)
	})
}

func TestComputeTotalThresholdBoundary(t *testing.T) {
	dest := pointAtKm(4)

	t.Run("exactly at threshold is free", func(t *testing.T) {
		q := ComputeTotal(Input{Subtotal: 500, OrderType: orderflow.OrderDelivery, Delivery: &dest, Config: testConfig})
		assert.True(t, q.FreeDeliveryApplied)
		assert.Equal(t, 0.0, q.DeliveryFee)
	})

	t.Run("one rupee short pays the fee", func(t *testing.T) {
		q := ComputeTotal(Input{Subtotal: 499, OrderType: orderflow.OrderDelivery, Delivery: &dest, Config: testConfig})
		assert.False(t, q.FreeDeliveryApplied)
		assert.Greater(t, q.DeliveryFee, 0.0)
	})
}

func TestComputeTotalNonDeliveryHasNoFee(t *testing.T) {
	for _, ot := range []orderflow.OrderType{orderflow.OrderDineIn, orderflow.OrderTakeaway} {
		q := ComputeTotal(Input{Subtotal: 400, OrderType: ot, Config: testConfig})
		assert.Equal(t, 0.0, q.DeliveryFee, "order type %s", ot)
		assert.True(t, q.WithinServiceRadius)
		assert.Equal(t, 420.0, q.GrandTotal)
	}
}

func TestComputeTotalDiscounts(t *testing.T) {
	t.Run("percent offer rounds and caps", func(t *testing.T) {
		q := ComputeTotal(Input{
			Subtotal:  450,
			OrderType: orderflow.OrderTakeaway,
			Offer:     &Offer{Kind: OfferPercent, Value: 10, MaxDiscount: 40},
			Config:    testConfig,
		})
		// 10% of 450 = 45, capped at 40.
		assert.Equal(t, 40.0, q.Discount)
	})

	t.Run("percent offer uncapped", func(t *testing.T) {
		q := ComputeTotal(Input{
			Subtotal:  450,
			OrderType: orderflow.OrderTakeaway,
			Offer:     &Offer{Kind: OfferPercent, Value: 10},
			Config:    testConfig,
		})
		assert.Equal(t, 45.0, q.Discount)
	})

	t.Run("flat offer verbatim", func(t *testing.T) {
		q := ComputeTotal(Input{
			Subtotal:  300,
			OrderType: orderflow.OrderTakeaway,
			Offer:     &Offer{Kind: OfferFlat, Value: 75},
			Config:    testConfig,
		})
		assert.Equal(t, 75.0, q.Discount)
	})

	t.Run("discount never exceeds the order", func(t *testing.T) {
		q := ComputeTotal(Input{
			Subtotal:  100,
			OrderType: orderflow.OrderTakeaway,
			Offer:     &Offer{Kind: OfferFlat, Value: 500},
			Config:    testConfig,
		})
		// cap = subtotal + tax = 105; total floors at 0, never negative.
		assert.Equal(t, 105.0, q.Discount)
		assert.Equal(t, 0.0, q.GrandTotal)
	})

	t.Run("unknown kind gives no discount", func(t *testing.T) {
		q := ComputeTotal(Input{
			Subtotal:  100,
			OrderType: orderflow.OrderTakeaway,
			Offer:     &Offer{Kind: OfferKind("bogus"), Value: 50},
			Config:    testConfig,
		})
		assert.Equal(t, 0.0, q.Discount)
	})
}

func TestComputeTotalPlatformFee(t *testing.T) {
	cfg := testConfig
	cfg.PlatformFee = 8
	q := ComputeTotal(Input{Subtotal: 200, OrderType: orderflow.OrderTakeaway, Config: cfg})
	assert.Equal(t, 8.0, q.PlatformFee)
	assert.Equal(t, 218.0, q.GrandTotal)
}

func TestComputeTotalDeterministic(t *testing.T) {
	dest := pointAtKm(6)
	in := Input{
		Subtotal:  437.5,
		OrderType: orderflow.OrderDelivery,
		Delivery:  &dest,
		Offer:     &Offer{Kind: OfferPercent, Value: 15, MaxDiscount: 60},
		Config:    testConfig,
	}

	first := ComputeTotal(in)
	for i := 0; i < 100; i++ {
		require.Equal(t, first, ComputeTotal(in))
	}
}
