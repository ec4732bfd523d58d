package repository

import (
	"time"

	"landlords/internal/domain"
	"landlords/internal/models"

	"gorm.io/gorm"
)

type AnnouncementRepository struct {
	db *gorm.DB
}

func NewAnnouncementRepository(db *gorm.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

func (r *AnnouncementRepository) WithTx(tx *gorm.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: tx}
}

// Create inserts the announcement and its queued recipient rows.
func (r *AnnouncementRepository) Create(a *models.Announcement) error {
	return r.db.Create(a).Error
}

func (r *AnnouncementRepository) GetByID(id uint) (*models.Announcement, error) {
	var a models.Announcement
	err := r.db.Preload("Recipients").First(&a, id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListBySender returns announcements sent by senderID, or all when senderID is 0.
func (r *AnnouncementRepository) ListBySender(senderID uint, limit, offset int) ([]models.Announcement, error) {
	q := r.db.Model(&models.Announcement{})
	if senderID != 0 {
		q = q.Where("sender_id = ?", senderID)
	}
	var list []models.Announcement
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

// StudentsWithBookings returns distinct students holding a non-cancelled booking
// in any of the properties, or in the room when roomID is non-zero.
func (r *AnnouncementRepository) StudentsWithBookings(propertyIDs []uint, roomID uint, exclude uint) ([]models.User, error) {
	if len(propertyIDs) == 0 && roomID == 0 {
		return nil, nil
	}
	sub := r.db.Session(&gorm.Session{NewDB: true}).Model(&models.Booking{}).Select("user_id").
		Where("status <> ?", domain.BookingCancelled)
	if roomID != 0 {
		sub = sub.Where("room_id = ?", roomID)
	} else {
		sub = sub.Where("property_id IN ?", propertyIDs)
	}
	var list []models.User
	err := r.db.Where("role = ? AND id <> ? AND id IN (?)", domain.RoleStudent, exclude, sub).
		Order("id ASC").Find(&list).Error
	return list, err
}

// RecordAttempt stores the outcome of one delivery attempt.
func (r *AnnouncementRepository) RecordAttempt(rec *models.AnnouncementRecipient, sendErr error, now time.Time) error {
	rec.Attempts++
	if sendErr == nil {
		rec.Status = domain.DeliverySent
		rec.LastError = ""
		rec.SentAt = &now
	} else {
		rec.Status = domain.DeliveryFailed
		rec.LastError = ClipText(sendErr.Error(), 512)
	}
	return r.db.Model(rec).Select("status", "attempts", "last_error", "sent_at").Updates(rec).Error
}

// RefreshSentCount recomputes sent_count from the delivered recipient rows.
func (r *AnnouncementRepository) RefreshSentCount(announcementID uint) (int, error) {
	var n int64
	if err := r.db.Model(&models.AnnouncementRecipient{}).
		Where("announcement_id = ? AND status = ?", announcementID, domain.DeliverySent).
		Count(&n).Error; err != nil {
		return 0, err
	}
	err := r.db.Model(&models.Announcement{}).Where("id = ?", announcementID).Update("sent_count", n).Error
	return int(n), err
}

// ListRetryable returns queued or failed recipients with attempts left that were
// last touched before the cutoff. Rows a running send is still working on are newer.
func (r *AnnouncementRepository) ListRetryable(maxAttempts, limit int, before time.Time) ([]models.AnnouncementRecipient, error) {
	var list []models.AnnouncementRecipient
	err := r.db.Preload("Announcement").
		Where("status IN ? AND attempts < ? AND updated_at < ?", []string{domain.DeliveryQueued, domain.DeliveryFailed}, maxAttempts, before).
		Order("id ASC").Limit(limit).Find(&list).Error
	return list, err
}
