package domain

const (
	RoleOwner   = "OWNER"
	RoleStudent = "STUDENT"
	RoleAdmin   = "ADMIN"
)

const (
	RoomAvailable   = "available"
	RoomOccupied    = "occupied"
	RoomMaintenance = "maintenance"
)

const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderMixed  = "mixed"
)

// Stored levy payment states. "expired" is derived, see pkg/levy.
const (
	LevyPending  = "pending"
	LevyPaid     = "paid"
	LevyApproved = "approved"
)

const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingPaid      = "paid"
	BookingCancelled = "cancelled"
)

// Levy payments start initiated when a checkout is opened and move to completed,
// or to pending while held for reconciliation.
const (
	PaymentInitiated = "initiated"
	PaymentCompleted = "completed"
	PaymentPending   = "pending"
)

const (
	PaymentKindLevy    = "levy"
	PaymentKindBooking = "booking"
)

const (
	PaymentMethodGateway = "gateway"
	PaymentMethodCash    = "cash"
)

const (
	TargetAll              = "all"
	TargetAdmin            = "admin"
	TargetMyProperties     = "my_properties"
	TargetSpecificProperty = "specific_property"
	TargetSpecificRoom     = "specific_room"
	TargetSpecificStudent  = "specific_student"
)

var TargetGroups = []string{
	TargetAll, TargetAdmin, TargetMyProperties,
	TargetSpecificProperty, TargetSpecificRoom, TargetSpecificStudent,
}

const (
	DeliveryQueued = "queued"
	DeliverySent   = "sent"
	DeliveryFailed = "failed"
)

const (
	NotifLevyVerified = "LEVY_PAYMENT_VERIFIED"
	NotifLevyApproved = "LEVY_APPROVED"
	NotifLevyExpiring = "LEVY_EXPIRING"
	NotifBookingPaid  = "BOOKING_PAID"
	NotifBookingNew   = "BOOKING_NEW"
)

// Setting keys that override levy pricing at runtime.
const (
	SettingLevyFeeCents          = "levy_fee_per_room_cents"
	SettingLevyDiscountThreshold = "levy_discount_threshold"
	SettingLevyDiscountPercent   = "levy_discount_percent"
)
