package handler

import (
	"net/http"
	"strconv"
	"time"

	"landlords/internal/apperr"
	"landlords/internal/domain"
	"landlords/internal/repository"
	"landlords/internal/service"

	"github.com/gin-gonic/gin"
)

// settingLimits bounds the admin-tunable pricing overrides.
var settingLimits = map[string][2]int64{
	domain.SettingLevyFeeCents:          {0, 100000000},
	domain.SettingLevyDiscountThreshold: {0, 100000},
	domain.SettingLevyDiscountPercent:   {0, 100},
}

type AdminHandler struct {
	dashboards  *repository.DashboardRepository
	payments    *repository.PaymentRepository
	settingRepo *repository.SettingRepository
	levy        *service.LevyService
	now         func() time.Time
}

func NewAdminHandler(
	dashboards *repository.DashboardRepository,
	payments *repository.PaymentRepository,
	settingRepo *repository.SettingRepository,
	levy *service.LevyService,
) *AdminHandler {
	return &AdminHandler{
		dashboards:  dashboards,
		payments:    payments,
		settingRepo: settingRepo,
		levy:        levy,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Dashboard handles GET /admin/dashboard with platform totals.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.dashboards.AdminDashboard(h.now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "dashboard": stats, "pricing": h.levy.Pricing()})
}

type ApproveRoomsRequest struct {
	RoomIDs []uint `json:"room_ids"`
	OwnerID uint   `json:"owner_id"`
}

// ApproveRooms handles POST /admin/rooms/approve with room_ids, owner_id or both.
func (h *AdminHandler) ApproveRooms(c *gin.Context) {
	var req ApproveRoomsRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.levy.Approve(c.Request.Context(), req.RoomIDs, req.OwnerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": res})
}

// ListPayments handles GET /admin/payments?status=&kind=&reconcile=true.
func (h *AdminHandler) ListPayments(c *gin.Context) {
	page, limit := parsePagination(c)
	reconcile, _ := strconv.ParseBool(c.DefaultQuery("reconcile", "false"))
	list, total, err := h.payments.List(repository.PaymentFilter{
		Status:         c.Query("status"),
		Kind:           c.Query("kind"),
		Reconciliation: reconcile,
	}, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": list, "total": total, "page": page, "limit": limit})
}

// Reconcile handles POST /admin/payments/reconcile, one reconciliation pass on demand.
func (h *AdminHandler) Reconcile(c *gin.Context) {
	report, err := h.levy.Reconcile(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "report": report})
}

// GetSettings handles GET /admin/settings.
func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := h.settingRepo.GetAll()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": settings, "pricing": h.levy.Pricing()})
}

// UpdateSetting handles PUT /admin/settings/:key.
func (h *AdminHandler) UpdateSetting(c *gin.Context) {
	key := c.Param("key")
	bounds, known := settingLimits[key]
	if !known {
		respondError(c, apperr.NotFound("unknown setting"))
		return
	}
	var req struct {
		Value string `json:"value" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	n, err := strconv.ParseInt(req.Value, 10, 64)
	if err != nil || n < bounds[0] || n > bounds[1] {
		respondError(c, apperr.Validation([]string{"value must be an integer between " +
			strconv.FormatInt(bounds[0], 10) + " and " + strconv.FormatInt(bounds[1], 10)}))
		return
	}
	if err := h.settingRepo.Set(key, strconv.FormatInt(n, 10)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "pricing": h.levy.Pricing()})
}
