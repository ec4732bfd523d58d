package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"landlords/internal/apperr"
	"landlords/internal/auth"
	"landlords/internal/domain"
	"landlords/internal/logger"
	"landlords/internal/models"
	"landlords/internal/repository"
	"landlords/pkg/mailer"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	retryBatch = 200
	retryAfter = time.Minute
)

type AnnouncementInput struct {
	Title       string
	Message     string
	TargetGroup string
	TargetID    *uint
	IsUrgent    bool
}

type AnnouncementResult struct {
	AnnouncementID uint `json:"announcement_id"`
	RecipientCount int  `json:"recipient_count"`
	SentCount      int  `json:"sent_count"`
	FailedCount    int  `json:"failed_count"`
}

type RetryReport struct {
	Attempted int `json:"attempted"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
}

// AnnouncementService resolves a target group into recipients, records one queued
// row per recipient and then delivers by email.
type AnnouncementService struct {
	db            *gorm.DB
	announcements *repository.AnnouncementRepository
	users         *repository.UserRepository
	properties    *repository.PropertyRepository
	rooms         *repository.RoomRepository
	mail          mailer.Mailer
	now           Clock
}

func NewAnnouncementService(db *gorm.DB, announcements *repository.AnnouncementRepository, users *repository.UserRepository, properties *repository.PropertyRepository, rooms *repository.RoomRepository, mail mailer.Mailer) *AnnouncementService {
	return &AnnouncementService{
		db:            db,
		announcements: announcements,
		users:         users,
		properties:    properties,
		rooms:         rooms,
		mail:          mail,
		now:           utcNow,
	}
}

func (s *AnnouncementService) SetClock(c Clock) { s.now = c }

func needsTargetID(group string) bool {
	switch group {
	case domain.TargetSpecificProperty, domain.TargetSpecificRoom, domain.TargetSpecificStudent:
		return true
	}
	return false
}

func validTarget(group string) bool {
	for _, g := range domain.TargetGroups {
		if g == group {
			return true
		}
	}
	return false
}

// Send stores the announcement with its recipients before any email goes out,
// then attempts each delivery once. Failed rows are left for RetryFailed.
func (s *AnnouncementService) Send(ctx context.Context, sender auth.Identity, in AnnouncementInput) (*AnnouncementResult, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Message = strings.TrimSpace(in.Message)
	in.TargetGroup = strings.ToLower(strings.TrimSpace(in.TargetGroup))
	var errs []string
	if in.Title == "" {
		errs = append(errs, "title is required")
	}
	if in.Message == "" {
		errs = append(errs, "message is required")
	}
	if len(errs) > 0 {
		return nil, apperr.Validation(errs)
	}
	if !validTarget(in.TargetGroup) {
		return nil, apperr.ErrInvalidTarget
	}
	if needsTargetID(in.TargetGroup) && (in.TargetID == nil || *in.TargetID == 0) {
		return nil, fmt.Errorf("%w: target_id is required for %s", apperr.ErrInvalidTarget, in.TargetGroup)
	}
	if in.TargetGroup == domain.TargetAll && !sender.IsAdmin() {
		return nil, apperr.Forbidden("only admins may announce to everyone")
	}

	users, err := s.resolveRecipients(sender, in)
	if err != nil {
		return nil, err
	}

	a := &models.Announcement{
		SenderID:    sender.UserID,
		Title:       in.Title,
		Message:     in.Message,
		TargetGroup: in.TargetGroup,
		TargetID:    in.TargetID,
		IsUrgent:    in.IsUrgent,
	}
	for _, u := range users {
		a.Recipients = append(a.Recipients, models.AnnouncementRecipient{
			UserID: u.ID,
			Email:  u.Email,
			Status: domain.DeliveryQueued,
		})
	}
	a.RecipientCount = len(a.Recipients)
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.announcements.WithTx(tx).Create(a)
	}); err != nil {
		return nil, err
	}

	log := logger.Logger.WithFields(logrus.Fields{"announcement_id": a.ID, "sender_id": sender.UserID, "target": in.TargetGroup})
	res := &AnnouncementResult{AnnouncementID: a.ID, RecipientCount: a.RecipientCount}
	for i := range a.Recipients {
		if s.deliver(ctx, a, &a.Recipients[i]) {
			res.SentCount++
		} else {
			res.FailedCount++
		}
	}
	if a.RecipientCount > 0 {
		if n, err := s.announcements.RefreshSentCount(a.ID); err != nil {
			log.WithError(err).Warn("could not refresh sent count")
		} else {
			res.SentCount = n
		}
	}
	log.Infof("announcement sent: recipients=%d sent=%d failed=%d", res.RecipientCount, res.SentCount, res.FailedCount)
	return res, nil
}

// deliver sends one email and records the outcome on its recipient row.
func (s *AnnouncementService) deliver(ctx context.Context, a *models.Announcement, rec *models.AnnouncementRecipient) bool {
	subject := a.Title
	if a.IsUrgent {
		subject = "[URGENT] " + subject
	}
	sendErr := s.mail.Send(ctx, mailer.Message{
		ToEmail: rec.Email,
		Subject: subject,
		Body:    a.Message,
	})
	log := logger.Logger.WithFields(logrus.Fields{"announcement_id": a.ID, "user_id": rec.UserID})
	if sendErr != nil {
		log.WithError(sendErr).Warn("announcement email failed")
	}
	if err := s.announcements.RecordAttempt(rec, sendErr, s.now()); err != nil {
		log.WithError(err).Error("could not record delivery attempt")
	}
	return sendErr == nil
}

func (s *AnnouncementService) resolveRecipients(sender auth.Identity, in AnnouncementInput) ([]models.User, error) {
	var (
		users []models.User
		err   error
	)
	switch in.TargetGroup {
	case domain.TargetAll:
		users, err = s.users.ListAllExcept(sender.UserID)
	case domain.TargetAdmin:
		users, err = s.users.ListByRole(domain.RoleAdmin, sender.UserID)
	case domain.TargetMyProperties:
		var ids []uint
		if ids, err = s.properties.IDsByOwner(sender.UserID); err == nil {
			users, err = s.announcements.StudentsWithBookings(ids, 0, sender.UserID)
		}
	case domain.TargetSpecificProperty:
		if err = s.checkPropertyTarget(sender, *in.TargetID); err == nil {
			users, err = s.announcements.StudentsWithBookings([]uint{*in.TargetID}, 0, sender.UserID)
		}
	case domain.TargetSpecificRoom:
		if err = s.checkRoomTarget(sender, *in.TargetID); err == nil {
			users, err = s.announcements.StudentsWithBookings(nil, *in.TargetID, sender.UserID)
		}
	case domain.TargetSpecificStudent:
		var u *models.User
		u, err = s.users.GetByID(*in.TargetID)
		if repository.IsNotFound(err) || (err == nil && !u.IsStudent()) {
			return nil, fmt.Errorf("%w: student %d not found", apperr.ErrInvalidTarget, *in.TargetID)
		}
		if err == nil && u.ID != sender.UserID {
			users = []models.User{*u}
		}
	}
	if err != nil {
		return nil, err
	}
	out := users[:0]
	for _, u := range users {
		if strings.TrimSpace(u.Email) != "" {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *AnnouncementService) checkPropertyTarget(sender auth.Identity, propertyID uint) error {
	p, err := s.properties.GetByID(propertyID)
	if repository.IsNotFound(err) {
		return fmt.Errorf("%w: property %d not found", apperr.ErrInvalidTarget, propertyID)
	}
	if err != nil {
		return err
	}
	if !sender.IsAdmin() && p.OwnerID != sender.UserID {
		return apperr.Forbidden("you do not own this property")
	}
	return nil
}

func (s *AnnouncementService) checkRoomTarget(sender auth.Identity, roomID uint) error {
	r, err := s.rooms.GetByID(roomID)
	if repository.IsNotFound(err) {
		return fmt.Errorf("%w: room %d not found", apperr.ErrInvalidTarget, roomID)
	}
	if err != nil {
		return err
	}
	if !sender.IsAdmin() && (r.Property == nil || r.Property.OwnerID != sender.UserID) {
		return apperr.Forbidden("you do not own this room")
	}
	return nil
}

// List returns the sender's announcements, or every announcement for an admin.
func (s *AnnouncementService) List(ctx context.Context, sender auth.Identity, limit, offset int) ([]models.Announcement, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	senderID := sender.UserID
	if sender.IsAdmin() {
		senderID = 0
	}
	return s.announcements.ListBySender(senderID, limit, offset)
}

// RetryFailed re-attempts queued and failed deliveries that have attempts left.
func (s *AnnouncementService) RetryFailed(ctx context.Context, maxAttempts int) (*RetryReport, error) {
	list, err := s.announcements.ListRetryable(maxAttempts, retryBatch, s.now().Add(-retryAfter))
	if err != nil {
		return nil, err
	}
	report := &RetryReport{}
	touched := map[uint]bool{}
	for i := range list {
		if ctx.Err() != nil {
			break
		}
		rec := &list[i]
		if rec.Announcement == nil {
			continue
		}
		report.Attempted++
		if s.deliver(ctx, rec.Announcement, rec) {
			report.Sent++
		} else {
			report.Failed++
		}
		touched[rec.AnnouncementID] = true
	}
	for id := range touched {
		if _, err := s.announcements.RefreshSentCount(id); err != nil {
			logger.Logger.WithError(err).WithField("announcement_id", id).Warn("could not refresh sent count")
		}
	}
	if report.Attempted > 0 {
		logger.Logger.Infof("announcement retry: attempted=%d sent=%d failed=%d", report.Attempted, report.Sent, report.Failed)
	}
	return report, nil
}
