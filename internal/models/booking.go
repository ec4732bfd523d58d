package models

import "time"

type Booking struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PropertyID uint      `gorm:"not null;index" json:"property_id"`
	RoomID     uint      `gorm:"not null;index" json:"room_id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	Status     string    `gorm:"size:20;not null;default:'pending';index" json:"status"` // pending, confirmed, paid, cancelled
	StartDate  time.Time `gorm:"type:date;not null" json:"start_date"`
	EndDate    time.Time `gorm:"type:date;not null" json:"end_date"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Room     *Room     `gorm:"foreignKey:RoomID" json:"room,omitempty"`
	Property *Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	User     *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Booking) TableName() string {
	return "bookings"
}
