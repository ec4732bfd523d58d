package repository

import (
	"time"

	"landlords/internal/models"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(n *models.Notification) error {
	return r.db.Create(n).Error
}

func (r *NotificationRepository) ListByUserID(userID uint, limit, offset int) ([]models.Notification, error) {
	var list []models.Notification
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

func (r *NotificationRepository) CountUnread(userID uint) (int64, error) {
	var n int64
	err := r.db.Model(&models.Notification{}).Where("user_id = ? AND read_at IS NULL", userID).Count(&n).Error
	return n, err
}

// MarkRead reports whether a notification of userID was updated.
func (r *NotificationRepository) MarkRead(id, userID uint) (bool, error) {
	res := r.db.Model(&models.Notification{}).Where("id = ? AND user_id = ? AND read_at IS NULL", id, userID).Update("read_at", time.Now())
	return res.RowsAffected > 0, res.Error
}

// ExistsSince reports whether userID already received a notification of the type since t.
func (r *NotificationRepository) ExistsSince(userID uint, notifType string, t time.Time) (bool, error) {
	var n int64
	err := r.db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ? AND created_at >= ?", userID, notifType, t).
		Count(&n).Error
	return n > 0, err
}
