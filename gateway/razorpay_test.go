package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sign(secret, orderRefID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderRefID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	c := New("rzp_test_key", "topsecret")

	good := sign("topsecret", "order_abc", "pay_xyz")
	assert.True(t, c.VerifySignature("order_abc", "pay_xyz", good))

	assert.False(t, c.VerifySignature("order_abc", "pay_xyz", sign("wrongsecret", "order_abc", "pay_xyz")))
	assert.False(t, c.VerifySignature("order_abc", "pay_other", good))
	assert.False(t, c.VerifySignature("order_abc", "pay_xyz", ""))
	assert.False(t, c.VerifySignature("order_abc", "pay_xyz", good+"00"))
}

func TestToPaise(t *testing.T) {
	tests := []struct {
		rupees float64
		paise  int64
	}{
		{0.29, 29},
		{1.13, 113},
		{365.50, 36550},
		{525, 52500},
		{0, 0},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.paise, toPaise(tc.rupees), "rupees %v", tc.rupees)
	}

	// Every two-decimal amount up to 2000 rupees must convert exactly; float
	// truncation loses a paise on thousands of them.
	for i := int64(0); i <= 200000; i++ {
		if got := toPaise(float64(i) / 100); got != i {
			t.Fatalf("amount=%.2f got=%d want=%d", float64(i)/100, got, i)
		}
	}
}

func attempt(status, id string, amount float64) map[string]interface{} {
	return map[string]interface{}{"status": status, "id": id, "amount": amount}
}

func TestResolveAttempts(t *testing.T) {
	tests := []struct {
		name  string
		items []interface{}
		want  PaymentResult
	}{
		{
			name:  "no attempts yet",
			items: nil,
			want:  PaymentResult{State: StatePending},
		},
		{
			name:  "single captured",
			items: []interface{}{attempt("captured", "pay_1", 52500)},
			want:  PaymentResult{State: StateCaptured, PaymentID: "pay_1", Amount: 525},
		},
		{
			name: "captured wins over failed retries",
			items: []interface{}{
				attempt("failed", "pay_1", 52500),
				attempt("failed", "pay_2", 52500),
				attempt("captured", "pay_3", 52500),
			},
			want: PaymentResult{State: StateCaptured, PaymentID: "pay_3", Amount: 525},
		},
		{
			name: "all failed",
			items: []interface{}{
				attempt("failed", "pay_1", 52500),
				attempt("failed", "pay_2", 52500),
			},
			want: PaymentResult{State: StateFailed},
		},
		{
			name: "attempt still authorizing",
			items: []interface{}{
				attempt("failed", "pay_1", 52500),
				attempt("created", "pay_2", 52500),
			},
			want: PaymentResult{State: StatePending},
		},
		{
			name:  "malformed item is not a failure verdict",
			items: []interface{}{"garbage"},
			want:  PaymentResult{State: StatePending},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, resolveAttempts(tc.items))
		})
	}
}
