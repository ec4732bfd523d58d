package handler

import (
	"net/http"
	"time"

	"landlords/internal/apperr"
	"landlords/internal/middleware"
	"landlords/internal/service"
	"landlords/pkg/levy"

	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	svc *service.BookingService
}

func NewBookingHandler(svc *service.BookingService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

type CreateBookingRequest struct {
	RoomID    uint   `json:"room_id" binding:"required"`
	StartDate string `json:"start_date" binding:"required"` // YYYY-MM-DD
	EndDate   string `json:"end_date" binding:"required"`
}

type BookingStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=confirmed cancelled"`
}

type CashPaymentRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// Create handles POST /bookings for students.
func (h *BookingHandler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if !bindJSON(c, &req) {
		return
	}
	var errs []string
	start, err := time.Parse(levy.DateLayout, req.StartDate)
	if err != nil {
		errs = append(errs, "start_date must be YYYY-MM-DD")
	}
	end, err := time.Parse(levy.DateLayout, req.EndDate)
	if err != nil {
		errs = append(errs, "end_date must be YYYY-MM-DD")
	}
	if len(errs) > 0 {
		respondError(c, apperr.Validation(errs))
		return
	}
	b, err := h.svc.Create(c.Request.Context(), middleware.GetUserID(c), service.BookingInput{
		RoomID: req.RoomID, StartDate: start, EndDate: end,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "booking": b})
}

func (h *BookingHandler) ListMine(c *gin.Context) {
	list, err := h.svc.ListMine(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "bookings": list})
}

// ListForOwner handles GET /owner/bookings?status=.
func (h *BookingHandler) ListForOwner(c *gin.Context) {
	list, err := h.svc.ListForOwner(c.Request.Context(), middleware.GetUserID(c), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "bookings": list})
}

func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req BookingStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	b, err := h.svc.UpdateStatus(c.Request.Context(), middleware.GetUserID(c), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "booking": b})
}

// RecordPayment handles POST /owner/bookings/:id/payments for cash received by the owner.
func (h *BookingHandler) RecordPayment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req CashPaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.svc.RecordCashPayment(c.Request.Context(), middleware.GetUserID(c), id, toCents(req.Amount))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "payment": p})
}

// Payments handles GET /bookings/:id/payments for the booking's student or owner.
func (h *BookingHandler) Payments(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	list, err := h.svc.PaymentsForBooking(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "payments": list})
}
