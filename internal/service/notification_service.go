package service

import (
	"encoding/json"
	"fmt"

	"landlords/internal/domain"
	"landlords/internal/logger"
	"landlords/internal/models"
	"landlords/internal/repository"
	"landlords/pkg/levy"
)

type NotificationService struct {
	repo *repository.NotificationRepository
}

func NewNotificationService(repo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

func (s *NotificationService) Notify(userID uint, notifType, title, body string, data map[string]interface{}) error {
	var dataJSON string
	if data != nil {
		b, _ := json.Marshal(data)
		dataJSON = string(b)
	}
	return s.repo.Create(&models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
		Data:   dataJSON,
	})
}

// notify is Notify for callers that must not fail because a notification could not be stored.
func (s *NotificationService) notify(userID uint, notifType, title, body string, data map[string]interface{}) {
	if s == nil {
		return
	}
	if err := s.Notify(userID, notifType, title, body, data); err != nil {
		logger.Logger.WithError(err).WithField("user_id", userID).Warnf("notification %s not stored", notifType)
	}
}

func money(cents int64, currency string) string {
	return fmt.Sprintf("%s %d.%02d", currency, cents/100, cents%100)
}

func (s *NotificationService) NotifyLevyVerified(ownerID uint, reference string, rooms int, amountCents int64, currency string) {
	s.notify(ownerID, domain.NotifLevyVerified, "Levy payment received",
		fmt.Sprintf("Your payment of %s covers %d room(s). They are awaiting admin approval.", money(amountCents, currency), rooms),
		map[string]interface{}{"reference": reference, "rooms": rooms, "amount_cents": amountCents})
}

func (s *NotificationService) NotifyLevyApproved(ownerID uint, rooms int, expiry string) {
	s.notify(ownerID, domain.NotifLevyApproved, "Rooms approved",
		fmt.Sprintf("%d room(s) are now listed until %s.", rooms, expiry),
		map[string]interface{}{"rooms": rooms, "expiry_date": expiry})
}

// NotifyLevyExpiring reports the owner's soonest-expiring rooms; rooms must be ordered by expiry.
func (s *NotificationService) NotifyLevyExpiring(ownerID uint, rooms []models.Room, now Clock) {
	if len(rooms) == 0 {
		return
	}
	first := rooms[0]
	days := 0
	if d := levy.DaysRemaining(first.LevyExpiryDate, now()); d != nil {
		days = *d
	}
	ids := make([]uint, len(rooms))
	for i, r := range rooms {
		ids[i] = r.ID
	}
	s.notify(ownerID, domain.NotifLevyExpiring, "Levy expiring soon",
		fmt.Sprintf("%d room(s) stop being listed in %d day(s) unless the levy is renewed.", len(rooms), days),
		map[string]interface{}{"room_ids": ids, "days_remaining": days})
}

func (s *NotificationService) NotifyNewBooking(ownerID, bookingID uint, roomNumber string) {
	s.notify(ownerID, domain.NotifBookingNew, "New booking",
		"A tenant requested room "+roomNumber+".",
		map[string]interface{}{"booking_id": bookingID})
}

func (s *NotificationService) NotifyBookingPaid(studentID, bookingID uint, amountCents int64, currency string) {
	s.notify(studentID, domain.NotifBookingPaid, "Booking paid",
		"Your payment of "+money(amountCents, currency)+" was recorded.",
		map[string]interface{}{"booking_id": bookingID, "amount_cents": amountCents})
}
