package handler

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"landlords/internal/apperr"
	"landlords/internal/logger"
	"landlords/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const chargeSuccessEvent = "charge.success"

type PaymentWebhookHandler struct {
	levy   *service.LevyService
	secret string
}

func NewPaymentWebhookHandler(levy *service.LevyService, secret string) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{levy: levy, secret: secret}
}

type chargeEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Metadata  struct {
			OwnerID uint `json:"owner_id"`
		} `json:"metadata"`
	} `json:"data"`
}

// Handle accepts gateway charge notifications for levy checkouts. The event is
// only a hint: the reference goes through the same gateway verification as the
// owner's own report, so a replayed or reordered event applies nothing twice.
func (h *PaymentWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, apperr.New(http.StatusBadRequest, apperr.CodeInvalidPayload, "invalid body", err))
		return
	}
	if h.secret != "" && !h.verifySignature(body, c.GetHeader("X-Paystack-Signature")) {
		respondError(c, apperr.New(http.StatusUnauthorized, apperr.CodeUnauthorized, "invalid signature", nil))
		return
	}
	var ev chargeEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		respondError(c, apperr.New(http.StatusBadRequest, apperr.CodeInvalidPayload, "invalid json", err))
		return
	}
	log := logger.Logger.WithFields(logrus.Fields{"event": ev.Event, "reference": ev.Data.Reference})
	if ev.Event != chargeSuccessEvent || ev.Data.Reference == "" || ev.Data.Metadata.OwnerID == 0 {
		log.Debug("webhook ignored")
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	res, err := h.levy.VerifyPayment(c.Request.Context(), ev.Data.Metadata.OwnerID, service.VerifyRequest{Reference: ev.Data.Reference})
	if err != nil {
		ae := apperr.From(err)
		// Retryable only when we failed; business outcomes are final or left to reconciliation.
		if ae.Status >= http.StatusInternalServerError {
			respondError(c, err)
			return
		}
		log.WithField("code", ae.Code).Info("webhook payment not applied")
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	log.WithFields(logrus.Fields{"rooms_updated": res.RoomsUpdated, "already_processed": res.AlreadyProcessed}).Info("webhook payment applied")
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *PaymentWebhookHandler) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(h.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}
