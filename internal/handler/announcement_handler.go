package handler

import (
	"net/http"
	"strconv"

	"landlords/internal/middleware"
	"landlords/internal/service"

	"github.com/gin-gonic/gin"
)

type AnnouncementHandler struct {
	svc *service.AnnouncementService
}

func NewAnnouncementHandler(svc *service.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{svc: svc}
}

type AnnouncementRequest struct {
	Title       string `json:"title" binding:"required,max=255"`
	Message     string `json:"message" binding:"required"`
	TargetGroup string `json:"target_group" binding:"required"`
	TargetID    *uint  `json:"target_id"`
	IsUrgent    bool   `json:"is_urgent"`
}

// Send handles POST /owner/announcements and POST /admin/announcements.
func (h *AnnouncementHandler) Send(c *gin.Context) {
	var req AnnouncementRequest
	if !bindJSON(c, &req) {
		return
	}
	sender, _ := middleware.GetIdentity(c)
	res, err := h.svc.Send(c.Request.Context(), sender, service.AnnouncementInput{
		Title:       req.Title,
		Message:     req.Message,
		TargetGroup: req.TargetGroup,
		TargetID:    req.TargetID,
		IsUrgent:    req.IsUrgent,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "result": res})
}

func (h *AnnouncementHandler) List(c *gin.Context) {
	sender, _ := middleware.GetIdentity(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	list, err := h.svc.List(c.Request.Context(), sender, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "announcements": list})
}
