package handler

import (
	"net/http"
	"time"

	"landlords/internal/middleware"
	"landlords/internal/repository"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboards *repository.DashboardRepository
	payments   *repository.PaymentRepository
	now        func() time.Time
}

func NewDashboardHandler(dashboards *repository.DashboardRepository, payments *repository.PaymentRepository) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards, payments: payments, now: func() time.Time { return time.Now().UTC() }}
}

// Owner handles GET /owner/dashboard.
func (h *DashboardHandler) Owner(c *gin.Context) {
	d, err := h.dashboards.OwnerDashboard(middleware.GetUserID(c), h.now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "dashboard": d})
}

// Payments handles GET /owner/payments, the owner's levy payment history.
func (h *DashboardHandler) Payments(c *gin.Context) {
	page, limit := parsePagination(c)
	list, err := h.payments.ListByOwner(middleware.GetUserID(c), limit, (page-1)*limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "payments": list, "page": page, "limit": limit})
}
