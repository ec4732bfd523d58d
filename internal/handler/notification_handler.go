package handler

import (
	"net/http"
	"strconv"

	"landlords/internal/apperr"
	"landlords/internal/middleware"
	"landlords/internal/repository"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	repo *repository.NotificationRepository
}

func NewNotificationHandler(repo *repository.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{repo: repo}
}

func (h *NotificationHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	list, err := h.repo.ListByUserID(userID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	unread, err := h.repo.CountUnread(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "notifications": list, "unread": unread})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	updated, err := h.repo.MarkRead(id, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if !updated {
		respondError(c, apperr.NotFound("notification not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
