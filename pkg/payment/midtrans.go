package payment

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
)

// MidtransProvider creates Snap checkouts and checks their status through the Core API.
// Midtrans amounts are whole currency units, so minor units are divided by 100.
type MidtransProvider struct {
	snap snap.Client
	core coreapi.Client
}

func NewMidtransProvider(serverKey string, production bool) *MidtransProvider {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}
	p := &MidtransProvider{}
	p.snap.New(serverKey, env)
	p.core.New(serverKey, env)
	return p
}

func (p *MidtransProvider) Name() string { return "midtrans" }

func (p *MidtransProvider) InitiatePayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error) {
	if req.AmountCents <= 0 {
		return nil, errors.New("midtrans: amount must be positive")
	}
	gross := req.AmountCents / 100
	sreq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.Reference,
			GrossAmt: gross,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.Name,
			Email: req.Email,
		},
		Items: &[]midtrans.ItemDetails{{
			ID:    req.Reference,
			Name:  truncate(req.Description, 50),
			Price: gross,
			Qty:   1,
		}},
	}
	resp, mErr := p.snap.CreateTransaction(sreq)
	if mErr != nil {
		return nil, mErr
	}
	return &PaymentResponse{
		Reference:   req.Reference,
		Status:      string(StatusPending),
		CheckoutURL: resp.RedirectURL,
		AccessCode:  resp.Token,
		ExpiresAt:   time.Now().Add(24 * time.Hour),
	}, nil
}

func (p *MidtransProvider) VerifyPayment(ctx context.Context, reference string) (*Verification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// The Core API client takes no context, so the call is abandoned rather than cancelled.
	type result struct {
		resp *coreapi.TransactionStatusResponse
		err  *midtrans.Error
	}
	done := make(chan result, 1)
	go func() {
		resp, mErr := p.core.CheckTransaction(reference)
		done <- result{resp, mErr}
	}()
	var res result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-done:
	}
	if res.err != nil {
		if res.err.StatusCode == http.StatusNotFound {
			return nil, ErrUnknownReference
		}
		return nil, res.err
	}
	if res.resp.StatusCode == "404" {
		return nil, ErrUnknownReference
	}
	return midtransVerification(res.resp), nil
}

func midtransVerification(resp *coreapi.TransactionStatusResponse) *Verification {
	v := &Verification{
		Reference: resp.OrderID,
		Currency:  resp.Currency,
		Status:    midtransStatus(resp.TransactionStatus, resp.FraudStatus),
		Message:   resp.StatusMessage,
	}
	if gross, err := strconv.ParseFloat(resp.GrossAmount, 64); err == nil {
		v.AmountCents = int64(math.Round(gross * 100))
	}
	if v.Status == StatusSuccess && resp.TransactionTime != "" {
		if t, err := time.Parse("2006-01-02 15:04:05", resp.TransactionTime); err == nil {
			v.PaidAt = &t
		}
	}
	return v
}

// midtransStatus maps a Core API transaction status. A capture only counts once
// fraud screening accepts it.
func midtransStatus(transactionStatus, fraudStatus string) VerificationStatus {
	switch transactionStatus {
	case "settlement":
		return StatusSuccess
	case "capture":
		if fraudStatus == "accept" || fraudStatus == "" {
			return StatusSuccess
		}
		return StatusPending
	case "deny", "cancel", "expire", "failure", "refund", "partial_refund":
		return StatusFailed
	}
	return StatusPending
}

// truncate shortens s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.ToValidUTF8(s[:n], "")
}
