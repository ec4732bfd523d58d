package repository

import (
	"time"

	"landlords/internal/domain"
	"landlords/pkg/levy"

	"gorm.io/gorm"
)

// The scopes below are the SQL form of levy.EffectiveStatus and must stay in
// step with it. Dates are compared as YYYY-MM-DD strings so the same query
// works on MySQL DATE columns and SQLite text dates.

func levyDay(today time.Time) string {
	return levy.Today(today).Format(levy.DateLayout)
}

// ExpiredScope matches approved rooms whose expiry date is before today.
func ExpiredScope(today time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("property_rooms.levy_payment_status = ? AND property_rooms.levy_expiry_date IS NOT NULL AND property_rooms.levy_expiry_date < ?",
			domain.LevyApproved, levyDay(today))
	}
}

// BookableScope matches rooms whose effective levy status is approved.
func BookableScope(today time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("property_rooms.levy_payment_status = ? AND (property_rooms.levy_expiry_date IS NULL OR property_rooms.levy_expiry_date >= ?)",
			domain.LevyApproved, levyDay(today))
	}
}

// PendingScope matches rooms that were never paid. Unknown stored values count as pending.
func PendingScope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("property_rooms.levy_payment_status NOT IN ?", []string{domain.LevyPaid, domain.LevyApproved})
	}
}

func PaidScope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("property_rooms.levy_payment_status = ?", domain.LevyPaid)
	}
}

// LevyDueScope matches rooms that must be covered by the owner's next levy payment.
func LevyDueScope(today time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(
			"property_rooms.levy_payment_status NOT IN ? OR (property_rooms.levy_payment_status = ? AND property_rooms.levy_expiry_date IS NOT NULL AND property_rooms.levy_expiry_date < ?)",
			[]string{domain.LevyPaid, domain.LevyApproved}, domain.LevyApproved, levyDay(today))
	}
}

// OwnedBy restricts rooms to non-deleted properties of the owner.
func OwnedBy(ownerID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("property_rooms.property_id IN (?)",
			db.Session(&gorm.Session{NewDB: true}).Table("property").Select("id").Where("owner_id = ? AND deleted = ?", ownerID, false))
	}
}
