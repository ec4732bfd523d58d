package payment

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	stubPrefix     = "stub_"
	stubFailPrefix = "stub_fail_"
)

// StubProvider is an in-memory gateway for development. References starting
// with stub_ verify as successful for the amount, currency and owner they were initiated with,
// stub_fail_ references verify as failed, anything else is unknown.
type StubProvider struct {
	mu       sync.Mutex
	checkout map[string]PaymentRequest
	// DefaultAmountCents is reported for stub_ references that were never initiated.
	DefaultAmountCents int64
}

func NewStubProvider() *StubProvider {
	return &StubProvider{checkout: make(map[string]PaymentRequest)}
}

func (s *StubProvider) Name() string { return "stub" }

func (s *StubProvider) InitiatePayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error) {
	ref := req.Reference
	if !strings.HasPrefix(ref, stubPrefix) {
		ref = stubPrefix + ref
	}
	if ref == stubPrefix {
		ref = stubPrefix + uuid.NewString()
	}
	s.mu.Lock()
	s.checkout[ref] = req
	s.mu.Unlock()
	return &PaymentResponse{
		Reference: ref,
		Status:    string(StatusPending),
		ExpiresAt: time.Now().Add(30 * time.Minute),
	}, nil
}

func (s *StubProvider) VerifyPayment(ctx context.Context, reference string) (*Verification, error) {
	switch {
	case strings.HasPrefix(reference, stubFailPrefix):
		return &Verification{Reference: reference, Status: StatusFailed, Message: "declined"}, nil
	case strings.HasPrefix(reference, stubPrefix):
		s.mu.Lock()
		req, ok := s.checkout[reference]
		s.mu.Unlock()
		if !ok {
			req.AmountCents = s.DefaultAmountCents
		}
		now := time.Now()
		return &Verification{
			Reference:   reference,
			Status:      StatusSuccess,
			AmountCents: req.AmountCents,
			Currency:    req.Currency,
			OwnerID:     req.OwnerID,
			PaidAt:      &now,
		}, nil
	}
	return nil, ErrUnknownReference
}
