package handler

import (
	"net/http"

	"landlords/internal/middleware"
	"landlords/internal/service"

	"github.com/gin-gonic/gin"
)

type LevyHandler struct {
	svc *service.LevyService
}

func NewLevyHandler(svc *service.LevyService) *LevyHandler {
	return &LevyHandler{svc: svc}
}

// VerifyPaymentRequest is what the checkout widget reports back. Amounts are in
// major units as the widget shows them; only reference is trusted.
type VerifyPaymentRequest struct {
	Reference    string  `json:"reference" binding:"required,max=255"`
	Amount       float64 `json:"amount" binding:"gte=0"`
	PendingRooms int     `json:"pending_rooms" binding:"gte=0"`
	ExpiredRooms int     `json:"expired_rooms" binding:"gte=0"`
	Discount     float64 `json:"discount" binding:"gte=0"`
}

// Summary handles GET /owner/levy/summary.
func (h *LevyHandler) Summary(c *gin.Context) {
	sum, err := h.svc.Summary(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "summary": sum})
}

// Initiate handles POST /owner/levy/initiate.
func (h *LevyHandler) Initiate(c *gin.Context) {
	co, err := h.svc.Initiate(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "checkout": co})
}

// Verify handles POST /owner/levy/verify and the legacy /owner/verify_room_payment.php.
func (h *LevyHandler) Verify(c *gin.Context) {
	var req VerifyPaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.svc.VerifyPayment(c.Request.Context(), middleware.GetUserID(c), service.VerifyRequest{
		Reference:     req.Reference,
		AmountCents:   toCents(req.Amount),
		PendingRooms:  req.PendingRooms,
		ExpiredRooms:  req.ExpiredRooms,
		DiscountCents: toCents(req.Discount),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"reference":         res.Reference,
		"already_processed": res.AlreadyProcessed,
		"rooms_updated":     res.RoomsUpdated,
		"amount":            float64(res.AmountCents) / 100,
		"amount_cents":      res.AmountCents,
		"currency":          res.Currency,
	})
}
