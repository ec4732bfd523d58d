package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"landlords/internal/logger"
)

// PaystackProvider talks to a Paystack-style hosted checkout API:
// POST /transaction/initialize and GET /transaction/verify/:reference.
type PaystackProvider struct {
	BaseURL   string
	SecretKey string
	client    *http.Client
}

func NewPaystackProvider(baseURL, secretKey string, timeout time.Duration) *PaystackProvider {
	if baseURL == "" {
		baseURL = "https://api.paystack.co"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PaystackProvider{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		SecretKey: secretKey,
		client:    &http.Client{Timeout: timeout},
	}
}

func (p *PaystackProvider) Name() string { return "paystack" }

type paystackInitReq struct {
	Email       string                 `json:"email"`
	Amount      int64                  `json:"amount"`
	Currency    string                 `json:"currency,omitempty"`
	Reference   string                 `json:"reference"`
	CallbackURL string                 `json:"callback_url,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type paystackInitData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type paystackVerifyData struct {
	Status          string          `json:"status"`
	Reference       string          `json:"reference"`
	Amount          int64           `json:"amount"`
	Currency        string          `json:"currency"`
	PaidAt          string          `json:"paid_at"`
	GatewayResponse string          `json:"gateway_response"`
	Metadata        json.RawMessage `json:"metadata"`
}

// metadataOwner reads owner_id from checkout metadata. Paystack returns an
// empty string instead of an object when no metadata was sent.
func metadataOwner(raw json.RawMessage) uint {
	var m struct {
		OwnerID json.Number `json:"owner_id"`
	}
	if len(raw) == 0 || json.Unmarshal(raw, &m) != nil {
		return 0
	}
	id, err := strconv.ParseUint(m.OwnerID.String(), 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

func (p *PaystackProvider) do(ctx context.Context, method, path string, body interface{}) (int, *paystackEnvelope, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, p.BaseURL+path, rdr)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.SecretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, nil, err
	}
	var env paystackEnvelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return resp.StatusCode, nil, fmt.Errorf("paystack: decode %s response: %w", path, err)
	}
	return resp.StatusCode, &env, nil
}

func (p *PaystackProvider) InitiatePayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error) {
	payload := paystackInitReq{
		Email:       req.Email,
		Amount:      req.AmountCents,
		Currency:    req.Currency,
		Reference:   req.Reference,
		CallbackURL: req.CallbackURL,
		Metadata:    req.Metadata,
	}
	status, env, err := p.do(ctx, http.MethodPost, "/transaction/initialize", payload)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK || !env.Status {
		return nil, fmt.Errorf("paystack initialize: %d %s", status, env.Message)
	}
	var data paystackInitData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, err
	}
	logger.Logger.WithField("reference", data.Reference).Info("paystack checkout initialized")
	return &PaymentResponse{
		Reference:   data.Reference,
		Status:      string(StatusPending),
		CheckoutURL: data.AuthorizationURL,
		AccessCode:  data.AccessCode,
		ExpiresAt:   time.Now().Add(30 * time.Minute),
	}, nil
}

func (p *PaystackProvider) VerifyPayment(ctx context.Context, reference string) (*Verification, error) {
	status, env, err := p.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, ErrUnknownReference
	}
	if status != http.StatusOK || !env.Status {
		return nil, fmt.Errorf("paystack verify: %d %s", status, env.Message)
	}
	var data paystackVerifyData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, err
	}
	v := &Verification{
		Reference:   data.Reference,
		AmountCents: data.Amount,
		Currency:    data.Currency,
		OwnerID:     metadataOwner(data.Metadata),
		Message:     data.GatewayResponse,
	}
	switch data.Status {
	case "success":
		v.Status = StatusSuccess
	case "failed", "abandoned", "reversed":
		v.Status = StatusFailed
	default:
		v.Status = StatusPending
	}
	if data.PaidAt != "" {
		if t, err := time.Parse(time.RFC3339, data.PaidAt); err == nil {
			v.PaidAt = &t
		}
	}
	return v, nil
}
