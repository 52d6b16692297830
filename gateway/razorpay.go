package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"

	"github.com/razorpay/razorpay-go"
)

// PaymentState is the server-verified state of a gateway payment. It is
// authoritative: a client-side checkout callback never outranks it.
type PaymentState string

const (
	StateCaptured PaymentState = "captured"
	StateFailed   PaymentState = "failed"
	StatePending  PaymentState = "pending"
)

// OrderRef identifies an order created on the gateway.
type OrderRef struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"` // smallest currency unit (paise)
	Currency string `json:"currency"`
}

// PaymentResult is the outcome of a server-side status fetch.
type PaymentResult struct {
	State     PaymentState
	PaymentID string
	Amount    float64
}

// Client is the gateway surface the controllers and the reconciler consume.
// Tests substitute a fake.
type Client interface {
	CreateOrder(amount float64, currency, receipt string) (OrderRef, error)
	VerifySignature(orderRefID, paymentID, signature string) bool
	FetchPaymentStatus(orderRefID string) (PaymentResult, error)
	KeyID() string
}

type razorpayClient struct {
	rz        *razorpay.Client
	keyID     string
	keySecret string
}

// New returns a Client backed by the Razorpay SDK.
func New(keyID, keySecret string) Client {
	return &razorpayClient{
		rz:        razorpay.NewClient(keyID, keySecret),
		keyID:     keyID,
		keySecret: keySecret,
	}
}

func (c *razorpayClient) KeyID() string { return c.keyID }

// CreateOrder registers the order with the gateway. Amount is rupees; Razorpay
// wants paise.
func (c *razorpayClient) CreateOrder(amount float64, currency, receipt string) (OrderRef, error) {
	if currency == "" {
		currency = "INR"
	}
	data := map[string]interface{}{
		"amount":   toPaise(amount),
		"currency": currency,
		"receipt":  receipt,
	}
	order, err := c.rz.Order.Create(data, nil)
	if err != nil {
		return OrderRef{}, fmt.Errorf("gateway order create: %w", err)
	}

	ref := OrderRef{Currency: currency, Amount: toPaise(amount)}
	if id, ok := order["id"].(string); ok {
		ref.ID = id
	}
	if ref.ID == "" {
		return OrderRef{}, fmt.Errorf("gateway order create: missing id in response")
	}
	return ref, nil
}

// toPaise converts rupees to paise, rounding to the nearest unit. Plain
// truncation drops a paise on many two-decimal totals (0.29 rupees is stored
// as 28.999... in a float64) and the gateway charge would disagree with the
// recorded total.
func toPaise(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// VerifySignature checks the checkout callback signature:
// HMAC-SHA256(orderRefID|paymentID) with the key secret.
func (c *razorpayClient) VerifySignature(orderRefID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(c.keySecret))
	mac.Write([]byte(orderRefID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// FetchPaymentStatus asks the gateway what actually happened to the payment.
// Any captured attempt wins; all attempts failed means failed; no attempts, or
// attempts still in flight, means pending.
func (c *razorpayClient) FetchPaymentStatus(orderRefID string) (PaymentResult, error) {
	resp, err := c.rz.Order.Payments(orderRefID, nil, nil)
	if err != nil {
		return PaymentResult{}, fmt.Errorf("gateway payment fetch: %w", err)
	}

	items, _ := resp["items"].([]interface{})
	return resolveAttempts(items), nil
}

// resolveAttempts folds the gateway's payment attempts into one result. Any
// captured attempt wins; all attempts failed means failed; anything else is
// still pending.
func resolveAttempts(items []interface{}) PaymentResult {
	if len(items) == 0 {
		return PaymentResult{State: StatePending}
	}

	allFailed := true
	for _, it := range items {
		p, ok := it.(map[string]interface{})
		if !ok {
			allFailed = false
			continue
		}
		status, _ := p["status"].(string)
		switch status {
		case "captured":
			res := PaymentResult{State: StateCaptured}
			if id, ok := p["id"].(string); ok {
				res.PaymentID = id
			}
			if amt, ok := p["amount"].(float64); ok {
				res.Amount = amt / 100
			}
			return res
		case "failed":
			// keep looking for a captured attempt
		default:
			allFailed = false
		}
	}
	if allFailed {
		return PaymentResult{State: StateFailed}
	}
	return PaymentResult{State: StatePending}
}
