package service

import (
	"context"
	"strings"
	"time"

	"landlords/config"
	"landlords/internal/apperr"
	"landlords/internal/domain"
	"landlords/internal/logger"
	"landlords/internal/models"
	"landlords/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type BookingInput struct {
	RoomID    uint
	StartDate time.Time
	EndDate   time.Time
}

// bookingTransitions lists the status changes an owner may make.
var bookingTransitions = map[string][]string{
	domain.BookingPending:   {domain.BookingConfirmed, domain.BookingCancelled},
	domain.BookingConfirmed: {domain.BookingCancelled},
}

type BookingService struct {
	db       *gorm.DB
	cfg      config.LevyConfig
	bookings *repository.BookingRepository
	rooms    *repository.RoomRepository
	payments *repository.PaymentRepository
	notif    *NotificationService
	now      Clock
}

func NewBookingService(db *gorm.DB, cfg config.LevyConfig, bookings *repository.BookingRepository, rooms *repository.RoomRepository, payments *repository.PaymentRepository, notif *NotificationService) *BookingService {
	return &BookingService{db: db, cfg: cfg, bookings: bookings, rooms: rooms, payments: payments, notif: notif, now: utcNow}
}

func (s *BookingService) SetClock(c Clock) { s.now = c }

// Create books a room for a student. The room must be bookable today, available
// and below capacity; the check runs under a row lock on the room.
func (s *BookingService) Create(ctx context.Context, studentID uint, in BookingInput) (*models.Booking, error) {
	var errs []string
	if in.RoomID == 0 {
		errs = append(errs, "room_id is required")
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		errs = append(errs, "start_date and end_date are required")
	} else if !in.EndDate.After(in.StartDate) {
		errs = append(errs, "end_date must be after start_date")
	}
	if len(errs) > 0 {
		return nil, apperr.Validation(errs)
	}

	now := s.now()
	var (
		b        *models.Booking
		ownerID  uint
		roomName string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, err := s.rooms.WithTx(tx).LockForBooking(in.RoomID)
		if err != nil {
			if repository.IsNotFound(err) {
				return apperr.NotFound("room not found")
			}
			return err
		}
		if room.Property == nil || room.Property.Deleted || !room.Property.Approved ||
			room.Status != domain.RoomAvailable || !room.Bookable(now) {
			return apperr.ErrRoomNotBookable
		}
		bookings := s.bookings.WithTx(tx)
		active, err := bookings.CountActiveForRoom(room.ID)
		if err != nil {
			return err
		}
		if active >= int64(room.Capacity) {
			return apperr.ErrRoomNotBookable
		}
		b = &models.Booking{
			PropertyID: room.PropertyID,
			RoomID:     room.ID,
			UserID:     studentID,
			Status:     domain.BookingPending,
			StartDate:  in.StartDate,
			EndDate:    in.EndDate,
		}
		ownerID, roomName = room.Property.OwnerID, room.RoomNumber
		return bookings.Create(b)
	})
	if err != nil {
		return nil, err
	}
	logger.Logger.WithFields(logrus.Fields{"student_id": studentID, "room_id": in.RoomID, "booking_id": b.ID}).Info("booking created")
	s.notif.NotifyNewBooking(ownerID, b.ID, roomName)
	return b, nil
}

func (s *BookingService) ListMine(ctx context.Context, studentID uint) ([]models.Booking, error) {
	return s.bookings.ListByUser(studentID)
}

func (s *BookingService) ListForOwner(ctx context.Context, ownerID uint, status string) ([]models.Booking, error) {
	return s.bookings.ListByOwner(ownerID, status)
}

// UpdateStatus confirms or cancels a booking on one of the owner's properties.
func (s *BookingService) UpdateStatus(ctx context.Context, ownerID, bookingID uint, status string) (*models.Booking, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	var b *models.Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bookings := s.bookings.WithTx(tx)
		var err error
		b, err = bookings.LockOwned(bookingID, ownerID)
		if err != nil {
			if repository.IsNotFound(err) {
				return apperr.NotFound("booking not found")
			}
			return err
		}
		if !allowedTransition(b.Status, status) {
			return apperr.ErrInvalidTransition
		}
		b.Status = status
		return bookings.UpdateStatus(b.ID, status)
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func allowedTransition(from, to string) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// RecordCashPayment records money the owner received in hand and marks the booking paid.
func (s *BookingService) RecordCashPayment(ctx context.Context, ownerID, bookingID uint, amountCents int64) (*models.Payment, error) {
	if amountCents <= 0 {
		return nil, apperr.Validation([]string{"amount_cents must be positive"})
	}
	var (
		p         *models.Payment
		studentID uint
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bookings := s.bookings.WithTx(tx)
		b, err := bookings.LockOwned(bookingID, ownerID)
		if err != nil {
			if repository.IsNotFound(err) {
				return apperr.NotFound("booking not found")
			}
			return err
		}
		if b.Status != domain.BookingPending && b.Status != domain.BookingConfirmed {
			return apperr.ErrInvalidTransition
		}
		id := b.ID
		p = &models.Payment{
			Kind:        domain.PaymentKindBooking,
			Method:      domain.PaymentMethodCash,
			BookingID:   &id,
			Provider:    domain.PaymentMethodCash,
			Reference:   "cash-" + uuid.NewString(),
			AmountCents: amountCents,
			Currency:    s.cfg.Currency,
			Status:      domain.PaymentCompleted,
		}
		if err := s.payments.WithTx(tx).Create(p); err != nil {
			return err
		}
		studentID = b.UserID
		return bookings.UpdateStatus(b.ID, domain.BookingPaid)
	})
	if err != nil {
		return nil, err
	}
	logger.Logger.WithFields(logrus.Fields{"owner_id": ownerID, "booking_id": bookingID, "amount_cents": amountCents}).Info("cash payment recorded")
	s.notif.NotifyBookingPaid(studentID, bookingID, amountCents, p.Currency)
	return p, nil
}

// PaymentsForBooking lists payments of a booking visible to its owner or its student.
func (s *BookingService) PaymentsForBooking(ctx context.Context, userID, bookingID uint) ([]models.Payment, error) {
	b, err := s.bookings.GetByID(bookingID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.NotFound("booking not found")
		}
		return nil, err
	}
	if b.UserID != userID && (b.Property == nil || b.Property.OwnerID != userID) {
		return nil, apperr.Forbidden("not your booking")
	}
	return s.payments.ListByBooking(bookingID)
}
