package models

import "time"

// Payment records money received, either a levy payment verified with the gateway
// or a booking payment. Reference is unique and doubles as the idempotency key.
type Payment struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	Kind                string     `gorm:"size:20;not null;index" json:"kind"`   // levy | booking
	Method              string     `gorm:"size:20;not null" json:"method"`       // gateway | cash
	OwnerID             *uint      `gorm:"index" json:"owner_id,omitempty"`      // levy payer
	BookingID           *uint      `gorm:"index" json:"booking_id,omitempty"`    // booking payments
	Provider            string     `gorm:"size:50" json:"provider"`
	Reference           string     `gorm:"size:255;not null;uniqueIndex" json:"reference"`
	AmountCents         int64      `gorm:"not null" json:"amount_cents"`
	Currency            string     `gorm:"size:3;not null" json:"currency"`
	Status              string     `gorm:"size:20;not null;index" json:"status"` // initiated | completed | pending
	PendingRooms        int        `gorm:"not null;default:0" json:"pending_rooms"`
	ExpiredRooms        int        `gorm:"not null;default:0" json:"expired_rooms"`
	RoomsCovered        int        `gorm:"not null;default:0" json:"rooms_covered"`
	DiscountCents       int64      `gorm:"not null;default:0" json:"discount_cents"`
	NeedsReconciliation bool       `gorm:"not null;default:false;index" json:"needs_reconciliation"`
	ReconciliationNote  string     `gorm:"size:255" json:"reconciliation_note,omitempty"`
	ReconciledAt        *time.Time `json:"reconciled_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}
