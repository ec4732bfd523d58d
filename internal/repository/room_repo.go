package repository

import (
	"time"

	"landlords/internal/domain"
	"landlords/internal/models"
	"landlords/pkg/levy"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

func (r *RoomRepository) WithTx(tx *gorm.DB) *RoomRepository {
	return &RoomRepository{db: tx}
}

func (r *RoomRepository) Create(room *models.Room) error {
	return r.db.Create(room).Error
}

func (r *RoomRepository) GetByID(id uint) (*models.Room, error) {
	var room models.Room
	err := r.db.Preload("Property").First(&room, id).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// GetOwned returns the room only if it belongs to a property of ownerID.
func (r *RoomRepository) GetOwned(id, ownerID uint) (*models.Room, error) {
	var room models.Room
	err := r.db.Scopes(OwnedBy(ownerID)).Preload("Property").Where("property_rooms.id = ?", id).First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *RoomRepository) GetByPropertyAndNumber(propertyID uint, number string) (*models.Room, error) {
	var room models.Room
	err := r.db.Where("property_id = ? AND room_number = ?", propertyID, number).First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// LockForBooking loads a room with a row lock for the booking check.
func (r *RoomRepository) LockForBooking(id uint) (*models.Room, error) {
	var room models.Room
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).Preload("Property").First(&room, id).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// UpdateDetails writes the owner-editable columns of a room.
func (r *RoomRepository) UpdateDetails(room *models.Room) error {
	return r.db.Model(room).Select("room_number", "capacity", "gender", "status").Updates(room).Error
}

func (r *RoomRepository) ListByOwner(ownerID uint) ([]models.Room, error) {
	var list []models.Room
	err := r.db.Scopes(OwnedBy(ownerID)).Preload("Property").Order("property_id ASC, room_number ASC").Find(&list).Error
	return list, err
}

// LevyDueCounts returns how many of the owner's rooms are pending and expired on today.
func (r *RoomRepository) LevyDueCounts(ownerID uint, today time.Time) (pending, expired int, err error) {
	var p, e int64
	if err = r.db.Model(&models.Room{}).Scopes(OwnedBy(ownerID), PendingScope()).Count(&p).Error; err != nil {
		return 0, 0, err
	}
	if err = r.db.Model(&models.Room{}).Scopes(OwnedBy(ownerID), ExpiredScope(today)).Count(&e).Error; err != nil {
		return 0, 0, err
	}
	return int(p), int(e), nil
}

// LockLevyDue selects the owner's levy-due rooms FOR UPDATE. Call inside a transaction.
func (r *RoomRepository) LockLevyDue(ownerID uint, today time.Time) ([]models.Room, error) {
	var list []models.Room
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(OwnedBy(ownerID), LevyDueScope(today)).
		Order("property_rooms.id ASC").Find(&list).Error
	return list, err
}

// MarkLevyPaid moves rooms to paid and clears their expiry. Rooms in renewed
// were expired and have their renewal count incremented.
func (r *RoomRepository) MarkLevyPaid(ids, renewed []uint) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.Model(&models.Room{}).Where("id IN ?", ids).Updates(map[string]interface{}{
		"levy_payment_status": domain.LevyPaid,
		"levy_expiry_date":    nil,
	}).Error
	if err != nil || len(renewed) == 0 {
		return err
	}
	return r.db.Model(&models.Room{}).Where("id IN ?", renewed).
		UpdateColumn("renewal_count", gorm.Expr("renewal_count + 1")).Error
}

// LockPaid selects paid rooms FOR UPDATE, limited to ids when given or to ownerID when non-zero.
func (r *RoomRepository) LockPaid(ids []uint, ownerID uint) ([]models.Room, error) {
	q := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).Scopes(PaidScope())
	if len(ids) > 0 {
		q = q.Where("property_rooms.id IN ?", ids)
	}
	if ownerID != 0 {
		q = q.Scopes(OwnedBy(ownerID))
	}
	var list []models.Room
	err := q.Order("property_rooms.id ASC").Find(&list).Error
	return list, err
}

func (r *RoomRepository) Approve(ids []uint, expiry time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Model(&models.Room{}).Where("id IN ? AND levy_payment_status = ?", ids, domain.LevyPaid).Updates(map[string]interface{}{
		"levy_payment_status": domain.LevyApproved,
		"levy_expiry_date":    expiry,
	}).Error
}

// BookableFilter narrows the public room listing.
type BookableFilter struct {
	PropertyID uint
	Gender     string
	Limit      int
	Offset     int
}

// ListBookable returns available rooms of approved, live properties whose levy is in force on today.
func (r *RoomRepository) ListBookable(f BookableFilter, today time.Time) ([]models.Room, error) {
	q := r.db.Model(&models.Room{}).
		Scopes(BookableScope(today)).
		Joins("JOIN property ON property.id = property_rooms.property_id AND property.deleted = ? AND property.approved = ?", false, true).
		Where("property_rooms.status = ?", domain.RoomAvailable)
	if f.PropertyID != 0 {
		q = q.Where("property_rooms.property_id = ?", f.PropertyID)
	}
	if f.Gender != "" {
		q = q.Where("property_rooms.gender IN ?", []string{f.Gender, domain.GenderMixed})
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}
	var list []models.Room
	err := q.Preload("Property").Order("property_rooms.property_id ASC, property_rooms.room_number ASC").
		Limit(f.Limit).Offset(f.Offset).Find(&list).Error
	return list, err
}

// ListExpiringWithin returns approved rooms whose expiry falls between today and today+days inclusive.
func (r *RoomRepository) ListExpiringWithin(today time.Time, days int) ([]models.Room, error) {
	from := levyDay(today)
	until := levyDay(today.AddDate(0, 0, days+1))
	var list []models.Room
	err := r.db.Preload("Property").
		Where("levy_payment_status = ? AND levy_expiry_date IS NOT NULL AND levy_expiry_date >= ? AND levy_expiry_date < ?", domain.LevyApproved, from, until).
		Order("levy_expiry_date ASC").Find(&list).Error
	return list, err
}

// CountByEffectiveStatus returns platform-wide room counts per effective levy status.
func (r *RoomRepository) CountByEffectiveStatus(today time.Time) (map[string]int64, error) {
	scopes := map[string]func(*gorm.DB) *gorm.DB{
		string(levy.StatusPending):  PendingScope(),
		string(levy.StatusPaid):     PaidScope(),
		string(levy.StatusApproved): BookableScope(today),
		string(levy.StatusExpired):  ExpiredScope(today),
	}
	out := make(map[string]int64, len(scopes))
	for status, scope := range scopes {
		var n int64
		if err := r.db.Model(&models.Room{}).
			Joins("JOIN property ON property.id = property_rooms.property_id AND property.deleted = ?", false).
			Scopes(scope).Count(&n).Error; err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, nil
}

// OwnersOf returns, per property owner, how many of the rooms they own.
func (r *RoomRepository) OwnersOf(ids []uint) (map[uint]int, error) {
	out := map[uint]int{}
	if len(ids) == 0 {
		return out, nil
	}
	var rows []struct {
		OwnerID uint
		Count   int
	}
	err := r.db.Model(&models.Room{}).
		Select("property.owner_id AS owner_id, COUNT(*) AS count").
		Joins("JOIN property ON property.id = property_rooms.property_id").
		Where("property_rooms.id IN ?", ids).
		Group("property.owner_id").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.OwnerID] = row.Count
	}
	return out, nil
}
