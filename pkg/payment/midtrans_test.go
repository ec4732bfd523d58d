package payment

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMidtransStatus(t *testing.T) {
	tests := []struct {
		transaction string
		fraud       string
		want        VerificationStatus
	}{
		{"settlement", "", StatusSuccess},
		{"settlement", "accept", StatusSuccess},
		{"capture", "accept", StatusSuccess},
		{"capture", "", StatusSuccess},
		{"capture", "challenge", StatusPending},
		{"capture", "deny", StatusPending},
		{"pending", "", StatusPending},
		{"authorize", "", StatusPending},
		{"deny", "", StatusFailed},
		{"cancel", "", StatusFailed},
		{"expire", "", StatusFailed},
		{"failure", "", StatusFailed},
		{"refund", "", StatusFailed},
		{"partial_refund", "", StatusFailed},
		{"", "", StatusPending},
	}
	for _, tt := range tests {
		t.Run(tt.transaction+"/"+tt.fraud, func(t *testing.T) {
			assert.Equal(t, tt.want, midtransStatus(tt.transaction, tt.fraud))
		})
	}
}

func TestMidtransVerification(t *testing.T) {
	v := midtransVerification(&coreapi.TransactionStatusResponse{
		OrderID:           "levy-1",
		GrossAmount:       "540.00",
		Currency:          "IDR",
		TransactionStatus: "settlement",
		TransactionTime:   "2026-10-01 10:00:00",
	})
	assert.True(t, v.Succeeded())
	assert.Equal(t, int64(54000), v.AmountCents)
	assert.Equal(t, "IDR", v.Currency)
	require.NotNil(t, v.PaidAt)

	v = midtransVerification(&coreapi.TransactionStatusResponse{
		OrderID: "levy-2", GrossAmount: "540.00", TransactionStatus: "capture", FraudStatus: "challenge",
		TransactionTime: "2026-10-01 10:00:00",
	})
	assert.Equal(t, StatusPending, v.Status)
	assert.Nil(t, v.PaidAt)
}

func TestMidtransVerifyHonoursCancelledContext(t *testing.T) {
	p := NewMidtransProvider("sk_test", false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.VerifyPayment(ctx, "levy-1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	s := strings.Repeat("a", 49) + "ñandú"
	got := truncate(s, 50)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("a", 49), got)
	assert.Equal(t, "abc", truncate("abc", 50))
}
