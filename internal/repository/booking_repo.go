package repository

import (
	"landlords/internal/domain"
	"landlords/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) WithTx(tx *gorm.DB) *BookingRepository {
	return &BookingRepository{db: tx}
}

func (r *BookingRepository) Create(b *models.Booking) error {
	return r.db.Create(b).Error
}

func (r *BookingRepository) GetByID(id uint) (*models.Booking, error) {
	var b models.Booking
	err := r.db.Preload("Room").Preload("Property").First(&b, id).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// LockOwned loads a booking FOR UPDATE when it belongs to one of ownerID's properties.
func (r *BookingRepository) LockOwned(id, ownerID uint) (*models.Booking, error) {
	var b models.Booking
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND property_id IN (?)", id,
			r.db.Session(&gorm.Session{NewDB: true}).Table("property").Select("id").Where("owner_id = ?", ownerID)).
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookingRepository) UpdateStatus(id uint, status string) error {
	return r.db.Model(&models.Booking{}).Where("id = ?", id).Update("status", status).Error
}

// CountActiveForRoom counts bookings that still hold the room.
func (r *BookingRepository) CountActiveForRoom(roomID uint) (int64, error) {
	var n int64
	err := r.db.Model(&models.Booking{}).
		Where("room_id = ? AND status IN ?", roomID, []string{domain.BookingPending, domain.BookingConfirmed, domain.BookingPaid}).
		Count(&n).Error
	return n, err
}

func (r *BookingRepository) ListByUser(userID uint) ([]models.Booking, error) {
	var list []models.Booking
	err := r.db.Where("user_id = ?", userID).Preload("Room").Preload("Property").Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *BookingRepository) ListByOwner(ownerID uint, status string) ([]models.Booking, error) {
	q := r.db.Where("property_id IN (?)",
		r.db.Session(&gorm.Session{NewDB: true}).Table("property").Select("id").Where("owner_id = ?", ownerID))
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var list []models.Booking
	err := q.Preload("Room").Preload("User").Order("created_at DESC").Find(&list).Error
	return list, err
}

// CountByStatusForOwner returns booking counts per status across ownerID's properties.
func (r *BookingRepository) CountByStatusForOwner(ownerID uint) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.Model(&models.Booking{}).
		Select("status, COUNT(*) AS count").
		Where("property_id IN (?)",
			r.db.Session(&gorm.Session{NewDB: true}).Table("property").Select("id").Where("owner_id = ? AND deleted = ?", ownerID, false)).
		Group("status").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}
