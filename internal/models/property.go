package models

import "time"

// Property is a listing owned by a landlord. Deleted is a soft-delete flag kept
// separate from gorm's DeletedAt so deleted listings stay visible to admins.
type Property struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OwnerID    uint      `gorm:"not null;index" json:"owner_id"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	PriceCents int64     `gorm:"not null;default:0" json:"price_cents"`
	Location   string    `gorm:"size:255" json:"location"`
	Approved   bool      `gorm:"not null;default:false" json:"approved"`
	Deleted    bool      `gorm:"not null;default:false;index" json:"deleted"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Owner User   `gorm:"foreignKey:OwnerID" json:"-"`
	Rooms []Room `gorm:"foreignKey:PropertyID" json:"rooms,omitempty"`
}

func (Property) TableName() string {
	return "property"
}
