// Package levy holds the pure rules of the room levy: what an owner owes and
// what state a room is effectively in on a given day.
package levy

// Pricing describes the flat per-room fee and the volume discount.
type Pricing struct {
	FeePerRoomCents   int64
	DiscountThreshold int   // discount applies when room count is strictly greater
	DiscountPercent   int64 // 0..100
}

// DefaultPricing is 50.00 per room with 10% off above ten rooms.
var DefaultPricing = Pricing{
	FeePerRoomCents:   5000,
	DiscountThreshold: 10,
	DiscountPercent:   10,
}

// Quote is the amount an owner must pay to bring pending and expired rooms to paid.
type Quote struct {
	PendingRooms    int   `json:"pending_rooms"`
	ExpiredRooms    int   `json:"expired_rooms"`
	Rooms           int   `json:"rooms"`
	FeePerRoomCents int64 `json:"fee_per_room_cents"`
	SubtotalCents   int64 `json:"subtotal_cents"`
	DiscountCents   int64 `json:"discount_cents"`
	AmountDueCents  int64 `json:"amount_due_cents"`
	PaymentRequired bool  `json:"payment_required"`
}

// CalculateFee returns the quote for the given room counts. Negative counts are treated as zero.
func CalculateFee(pending, expired int, p Pricing) Quote {
	if pending < 0 {
		pending = 0
	}
	if expired < 0 {
		expired = 0
	}
	rooms := pending + expired
	q := Quote{
		PendingRooms:    pending,
		ExpiredRooms:    expired,
		Rooms:           rooms,
		FeePerRoomCents: p.FeePerRoomCents,
	}
	if rooms == 0 {
		return q
	}
	q.SubtotalCents = int64(rooms) * p.FeePerRoomCents
	if rooms > p.DiscountThreshold {
		q.DiscountCents = q.SubtotalCents * p.DiscountPercent / 100
	}
	q.AmountDueCents = q.SubtotalCents - q.DiscountCents
	q.PaymentRequired = q.AmountDueCents > 0
	return q
}
