package repository

import (
	"time"

	"landlords/internal/domain"
	"landlords/internal/models"
	"landlords/pkg/levy"

	"gorm.io/gorm"
)

// LevyCounts tallies rooms by effective levy status.
type LevyCounts struct {
	Pending  int64 `json:"pending"`
	Paid     int64 `json:"paid"`
	Approved int64 `json:"approved"`
	Expired  int64 `json:"expired"`
	Total    int64 `json:"total"`
}

func (c *LevyCounts) add(s levy.Status) {
	c.Total++
	switch s {
	case levy.StatusPending:
		c.Pending++
	case levy.StatusPaid:
		c.Paid++
	case levy.StatusApproved:
		c.Approved++
	case levy.StatusExpired:
		c.Expired++
	}
}

type PropertyStats struct {
	PropertyID   uint   `json:"property_id"`
	PropertyName string `json:"property_name"`
	LevyCounts
}

type OwnerDashboard struct {
	Properties       []PropertyStats  `json:"properties"`
	Totals           LevyCounts       `json:"totals"`
	TotalProperties  int64            `json:"total_properties"`
	LevyPaidCents    int64            `json:"levy_paid_cents"`
	BookingPaidCents int64            `json:"booking_paid_cents"`
	Bookings         map[string]int64 `json:"bookings"`
}

type AdminDashboard struct {
	Users               map[string]int64 `json:"users"`
	TotalProperties     int64            `json:"total_properties"`
	Rooms               LevyCounts       `json:"rooms"`
	LevyRevenueCents    int64            `json:"levy_revenue_cents"`
	BookingRevenueCents int64            `json:"booking_revenue_cents"`
	NeedsReconciliation int64            `json:"needs_reconciliation"`
	Announcements       int64            `json:"announcements"`
}

type DashboardRepository struct {
	db       *gorm.DB
	users    *UserRepository
	rooms    *RoomRepository
	payments *PaymentRepository
	bookings *BookingRepository
}

func NewDashboardRepository(db *gorm.DB) *DashboardRepository {
	return &DashboardRepository{
		db:       db,
		users:    NewUserRepository(db),
		rooms:    NewRoomRepository(db),
		payments: NewPaymentRepository(db),
		bookings: NewBookingRepository(db),
	}
}

// OwnerDashboard aggregates the owner's properties. Rooms are classified with
// levy.EffectiveStatus; an owner with nothing gets zeros.
func (r *DashboardRepository) OwnerDashboard(ownerID uint, now time.Time) (*OwnerDashboard, error) {
	var props []models.Property
	if err := r.db.Select("id", "name").Where("owner_id = ? AND deleted = ?", ownerID, false).
		Order("id ASC").Find(&props).Error; err != nil {
		return nil, err
	}
	d := &OwnerDashboard{
		Properties:      make([]PropertyStats, 0, len(props)),
		TotalProperties: int64(len(props)),
		Bookings:        map[string]int64{},
	}
	if len(props) > 0 {
		ids := make([]uint, len(props))
		index := make(map[uint]int, len(props))
		for i, p := range props {
			ids[i] = p.ID
			index[p.ID] = i
			d.Properties = append(d.Properties, PropertyStats{PropertyID: p.ID, PropertyName: p.Name})
		}
		var rooms []models.Room
		if err := r.db.Select("id", "property_id", "levy_payment_status", "levy_expiry_date").
			Where("property_id IN ?", ids).Find(&rooms).Error; err != nil {
			return nil, err
		}
		for i := range rooms {
			s := rooms[i].EffectiveLevyStatus(now)
			d.Properties[index[rooms[i].PropertyID]].add(s)
			d.Totals.add(s)
		}
	}
	var err error
	if d.LevyPaidCents, err = r.payments.SumCompleted(domain.PaymentKindLevy, ownerID); err != nil {
		return nil, err
	}
	if d.BookingPaidCents, err = r.sumBookingPaymentsForOwner(ownerID); err != nil {
		return nil, err
	}
	if d.Bookings, err = r.bookings.CountByStatusForOwner(ownerID); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *DashboardRepository) sumBookingPaymentsForOwner(ownerID uint) (int64, error) {
	var total struct{ Total int64 }
	err := r.db.Model(&models.Payment{}).
		Select("COALESCE(SUM(payments.amount_cents), 0) AS total").
		Joins("JOIN bookings ON bookings.id = payments.booking_id").
		Joins("JOIN property ON property.id = bookings.property_id").
		Where("payments.kind = ? AND payments.status = ? AND property.owner_id = ?", domain.PaymentKindBooking, domain.PaymentCompleted, ownerID).
		Scan(&total).Error
	return total.Total, err
}

// AdminDashboard returns platform-wide totals.
func (r *DashboardRepository) AdminDashboard(now time.Time) (*AdminDashboard, error) {
	d := &AdminDashboard{}
	var err error
	if d.Users, err = r.users.CountByRole(); err != nil {
		return nil, err
	}
	if err = r.db.Model(&models.Property{}).Where("deleted = ?", false).Count(&d.TotalProperties).Error; err != nil {
		return nil, err
	}
	counts, err := r.rooms.CountByEffectiveStatus(now)
	if err != nil {
		return nil, err
	}
	d.Rooms = LevyCounts{
		Pending:  counts[string(levy.StatusPending)],
		Paid:     counts[string(levy.StatusPaid)],
		Approved: counts[string(levy.StatusApproved)],
		Expired:  counts[string(levy.StatusExpired)],
	}
	d.Rooms.Total = d.Rooms.Pending + d.Rooms.Paid + d.Rooms.Approved + d.Rooms.Expired
	if d.LevyRevenueCents, err = r.payments.SumCompleted(domain.PaymentKindLevy, 0); err != nil {
		return nil, err
	}
	if d.BookingRevenueCents, err = r.payments.SumCompleted(domain.PaymentKindBooking, 0); err != nil {
		return nil, err
	}
	if d.NeedsReconciliation, err = r.payments.CountNeedingReconciliation(); err != nil {
		return nil, err
	}
	if err = r.db.Model(&models.Announcement{}).Count(&d.Announcements).Error; err != nil {
		return nil, err
	}
	return d, nil
}
