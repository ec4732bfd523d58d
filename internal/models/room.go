package models

import (
	"time"

	"landlords/pkg/levy"
)

type Room struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	PropertyID         uint       `gorm:"not null;uniqueIndex:idx_room_property_number" json:"property_id"`
	RoomNumber         string     `gorm:"size:32;not null;uniqueIndex:idx_room_property_number" json:"room_number"`
	Capacity           int        `gorm:"not null;default:1" json:"capacity"`
	Gender             string     `gorm:"size:10;not null;default:'mixed'" json:"gender"`
	Status             string     `gorm:"size:20;not null;default:'available';index" json:"status"`
	LevyPaymentStatus  string     `gorm:"size:20;not null;default:'pending';index" json:"levy_payment_status"`
	LevyExpiryDate     *time.Time `gorm:"type:date;index" json:"levy_expiry_date"`
	RenewalCount       int        `gorm:"not null;default:0" json:"renewal_count"`
	PaymentAmountCents int64      `gorm:"not null;default:0" json:"payment_amount_cents"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	Property *Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
}

func (Room) TableName() string {
	return "property_rooms"
}

// EffectiveLevyStatus is the only place a room's levy state should be read from.
func (r *Room) EffectiveLevyStatus(now time.Time) levy.Status {
	return levy.EffectiveStatus(r.LevyPaymentStatus, r.LevyExpiryDate, now)
}

func (r *Room) Bookable(now time.Time) bool {
	return levy.Bookable(r.LevyPaymentStatus, r.LevyExpiryDate, now)
}
