package levy

import (
	"math"
	"time"
)

// Status is the effective levy state of a room on a given day.
type Status string

const (
	StatusPending  Status = "pending"
	StatusPaid     Status = "paid"
	StatusApproved Status = "approved"
	StatusExpired  Status = "expired"
)

// DateLayout is how levy expiry dates are compared and rendered.
const DateLayout = "2006-01-02"

// Today truncates t to midnight in its own location.
func Today(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// IsExpired reports whether the expiry date lies strictly before the day of now.
// A nil expiry never expires.
func IsExpired(expiry *time.Time, now time.Time) bool {
	if expiry == nil {
		return false
	}
	e := Today(expiry.In(now.Location()))
	return e.Before(Today(now))
}

// EffectiveStatus resolves the stored levy status and expiry into the state every
// caller must use. Only approved rooms can expire; paid rooms carry no expiry until approved.
func EffectiveStatus(stored string, expiry *time.Time, now time.Time) Status {
	switch stored {
	case string(StatusApproved):
		if IsExpired(expiry, now) {
			return StatusExpired
		}
		return StatusApproved
	case string(StatusPaid):
		return StatusPaid
	default:
		return StatusPending
	}
}

// Bookable reports whether tenants may see and book the room.
func Bookable(stored string, expiry *time.Time, now time.Time) bool {
	return EffectiveStatus(stored, expiry, now) == StatusApproved
}

// Due reports whether the room must be included in the owner's next levy payment.
func Due(stored string, expiry *time.Time, now time.Time) bool {
	s := EffectiveStatus(stored, expiry, now)
	return s == StatusPending || s == StatusExpired
}

// DaysRemaining returns whole days until expiry (negative once expired), or nil without an expiry.
func DaysRemaining(expiry *time.Time, now time.Time) *int {
	if expiry == nil {
		return nil
	}
	d := int(math.Round(Today(expiry.In(now.Location())).Sub(Today(now)).Hours() / 24))
	return &d
}

// ExpiryFrom returns the expiry date for an approval granted on now.
func ExpiryFrom(now time.Time, validityDays int) time.Time {
	return Today(now).AddDate(0, 0, validityDays)
}
