// Package payment adapts hosted-checkout gateways to a single initiate/verify contract.
package payment

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrUnknownReference is returned when the gateway has no transaction for a reference.
var ErrUnknownReference = errors.New("payment: unknown reference")

type PaymentRequest struct {
	OwnerID     uint
	Reference   string // merchant reference, used by the gateway as order id
	AmountCents int64
	Currency    string
	Email       string
	Name        string
	Description string
	CallbackURL string
	Metadata    map[string]interface{}
}

type PaymentResponse struct {
	Reference   string    `json:"reference"`
	Status      string    `json:"status"`
	CheckoutURL string    `json:"checkout_url,omitempty"`
	AccessCode  string    `json:"access_code,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type VerificationStatus string

const (
	StatusSuccess VerificationStatus = "success"
	StatusFailed  VerificationStatus = "failed"
	StatusPending VerificationStatus = "pending"
)

// Verification is the gateway's answer for a reference. Amounts are in minor units.
// OwnerID is the owner_id checkout metadata echoed back by the gateway, zero when
// the gateway does not return metadata.
type Verification struct {
	Reference   string
	Status      VerificationStatus
	AmountCents int64
	Currency    string
	OwnerID     uint
	PaidAt      *time.Time
	Message     string
}

func (v *Verification) Succeeded() bool { return v != nil && v.Status == StatusSuccess }

type Provider interface {
	Name() string
	InitiatePayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error)
	VerifyPayment(ctx context.Context, reference string) (*Verification, error)
}

// Options selects and configures a Provider.
type Options struct {
	Provider   string // stub | paystack | midtrans
	SecretKey  string
	BaseURL    string
	Production bool
	Timeout    time.Duration
}

func New(opts Options) (Provider, error) {
	switch opts.Provider {
	case "", "stub":
		return NewStubProvider(), nil
	case "paystack":
		return NewPaystackProvider(opts.BaseURL, opts.SecretKey, opts.Timeout), nil
	case "midtrans":
		return NewMidtransProvider(opts.SecretKey, opts.Production), nil
	}
	return nil, fmt.Errorf("payment: unknown provider %q", opts.Provider)
}
