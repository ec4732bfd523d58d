package service

import (
	"context"
	"testing"
	"time"

	"landlords/internal/apperr"
	"landlords/internal/auth"
	"landlords/internal/domain"
	"landlords/internal/models"
	"landlords/internal/repository"
	"landlords/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newAnnouncementService(db *gorm.DB, m *fakeMailer) *AnnouncementService {
	return NewAnnouncementService(db,
		repository.NewAnnouncementRepository(db),
		repository.NewUserRepository(db),
		repository.NewPropertyRepository(db),
		repository.NewRoomRepository(db),
		m,
	)
}

func identityOf(u *models.User) auth.Identity {
	return auth.Identity{UserID: u.ID, Email: u.Email, Role: u.Role}
}

func uintPtr(v uint) *uint { return &v }

func TestSendToStudentWithFailingEmail(t *testing.T) {
	db := testutil.NewDB(t)
	student := testutil.CreateUser(t, db, domain.RoleStudent, "student@example.com")
	owner := testutil.CreateUser(t, db, domain.RoleOwner, "owner@example.com")
	m := &fakeMailer{fail: map[string]bool{student.Email: true}}
	svc := newAnnouncementService(db, m)

	res, err := svc.Send(context.Background(), identityOf(owner), AnnouncementInput{
		Title:       "Water outage",
		Message:     "No water on Friday.",
		TargetGroup: domain.TargetSpecificStudent,
		TargetID:    uintPtr(student.ID),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.RecipientCount)
	assert.Zero(t, res.SentCount)
	assert.Equal(t, 1, res.FailedCount)

	var rows []models.AnnouncementRecipient
	require.NoError(t, db.Where("announcement_id = ?", res.AnnouncementID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.DeliveryFailed, rows[0].Status)
	assert.Equal(t, 1, rows[0].Attempts)
	assert.Nil(t, rows[0].SentAt)

	var a models.Announcement
	require.NoError(t, db.First(&a, res.AnnouncementID).Error)
	assert.Equal(t, 1, a.RecipientCount)
	assert.Zero(t, a.SentCount)
}

func TestSendToMyPropertiesSkipsCancelled(t *testing.T) {
	db := testutil.NewDB(t)
	owner := testutil.CreateUser(t, db, domain.RoleOwner, "owner@example.com")
	other := testutil.CreateUser(t, db, domain.RoleOwner, "other@example.com")
	s1 := testutil.CreateUser(t, db, domain.RoleStudent, "s1@example.com")
	s2 := testutil.CreateUser(t, db, domain.RoleStudent, "s2@example.com")
	s3 := testutil.CreateUser(t, db, domain.RoleStudent, "s3@example.com")
	_, mine := testutil.CreateProperty(t, db, owner.ID, "Hall A", testutil.RoomSpec{Number: "1"}, testutil.RoomSpec{Number: "2"})
	_, theirs := testutil.CreateProperty(t, db, other.ID, "Hall B", testutil.RoomSpec{Number: "1"})
	testutil.CreateBooking(t, db, mine[0], s1.ID, domain.BookingConfirmed)
	testutil.CreateBooking(t, db, mine[1], s1.ID, domain.BookingPending)
	testutil.CreateBooking(t, db, mine[1], s2.ID, domain.BookingCancelled)
	testutil.CreateBooking(t, db, theirs[0], s3.ID, domain.BookingPaid)
	m := &fakeMailer{}
	svc := newAnnouncementService(db, m)

	res, err := svc.Send(context.Background(), identityOf(owner), AnnouncementInput{
		Title: "Rent", Message: "Rent is due.", TargetGroup: domain.TargetMyProperties, IsUrgent: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.RecipientCount)
	assert.Equal(t, 1, res.SentCount)
	require.Len(t, m.sent, 1)
	assert.Equal(t, s1.Email, m.sent[0].ToEmail)
	assert.Equal(t, "[URGENT] Rent", m.sent[0].Subject)
}

func TestSendTargetChecks(t *testing.T) {
	db := testutil.NewDB(t)
	owner := testutil.CreateUser(t, db, domain.RoleOwner, "owner@example.com")
	other := testutil.CreateUser(t, db, domain.RoleOwner, "other@example.com")
	admin := testutil.CreateUser(t, db, domain.RoleAdmin, "admin@example.com")
	student := testutil.CreateUser(t, db, domain.RoleStudent, "student@example.com")
	p, rooms := testutil.CreateProperty(t, db, other.ID, "Hall B", testutil.RoomSpec{Number: "1"})
	testutil.CreateBooking(t, db, rooms[0], student.ID, domain.BookingConfirmed)
	svc := newAnnouncementService(db, &fakeMailer{})
	ctx := context.Background()
	base := AnnouncementInput{Title: "Hi", Message: "Hello"}

	cases := []struct {
		name  string
		as    *models.User
		group string
		id    *uint
		want  error
	}{
		{"unknown group", owner, "neighbours", nil, apperr.ErrInvalidTarget},
		{"missing target id", owner, domain.TargetSpecificRoom, nil, apperr.ErrInvalidTarget},
		{"owner to all", owner, domain.TargetAll, nil, apperr.ErrForbidden},
		{"someone else's property", owner, domain.TargetSpecificProperty, uintPtr(p.ID), apperr.ErrForbidden},
		{"someone else's room", owner, domain.TargetSpecificRoom, uintPtr(rooms[0].ID), apperr.ErrForbidden},
		{"missing property", owner, domain.TargetSpecificProperty, uintPtr(9999), apperr.ErrInvalidTarget},
		{"owner is not a student", owner, domain.TargetSpecificStudent, uintPtr(other.ID), apperr.ErrInvalidTarget},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := base
			in.TargetGroup = tc.group
			in.TargetID = tc.id
			_, err := svc.Send(ctx, identityOf(tc.as), in)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	_, err := svc.Send(ctx, identityOf(owner), AnnouncementInput{TargetGroup: domain.TargetAdmin})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	in := base
	in.TargetGroup = domain.TargetSpecificRoom
	in.TargetID = uintPtr(rooms[0].ID)
	res, err := svc.Send(ctx, identityOf(admin), in)
	require.NoError(t, err)
	assert.Equal(t, 1, res.RecipientCount)

	in = base
	in.TargetGroup = domain.TargetAll
	res, err = svc.Send(ctx, identityOf(admin), in)
	require.NoError(t, err)
	assert.Equal(t, 3, res.RecipientCount)

	in = base
	in.TargetGroup = domain.TargetAdmin
	res, err = svc.Send(ctx, identityOf(owner), in)
	require.NoError(t, err)
	assert.Equal(t, 1, res.RecipientCount)

	list, err := svc.List(ctx, identityOf(admin), 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 3)
	list, err = svc.List(ctx, identityOf(owner), 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRetryFailedDelivers(t *testing.T) {
	db := testutil.NewDB(t)
	student := testutil.CreateUser(t, db, domain.RoleStudent, "student@example.com")
	admin := testutil.CreateUser(t, db, domain.RoleAdmin, "admin@example.com")
	m := &fakeMailer{fail: map[string]bool{student.Email: true}}
	svc := newAnnouncementService(db, m)
	ctx := context.Background()

	res, err := svc.Send(ctx, identityOf(admin), AnnouncementInput{
		Title: "Notice", Message: "Inspection tomorrow.", TargetGroup: domain.TargetSpecificStudent, TargetID: uintPtr(student.ID),
	})
	require.NoError(t, err)
	require.Zero(t, res.SentCount)

	report, err := svc.RetryFailed(ctx, 5)
	require.NoError(t, err)
	assert.Zero(t, report.Attempted, "recent rows wait for the retry delay")

	svc.SetClock(func() time.Time { return time.Now().UTC().Add(time.Hour) })
	m.fail = nil
	report, err = svc.RetryFailed(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Attempted)
	assert.Equal(t, 1, report.Sent)

	var a models.Announcement
	require.NoError(t, db.First(&a, res.AnnouncementID).Error)
	assert.Equal(t, 1, a.SentCount)

	var rec models.AnnouncementRecipient
	require.NoError(t, db.Where("announcement_id = ?", a.ID).First(&rec).Error)
	assert.Equal(t, domain.DeliverySent, rec.Status)
	assert.Equal(t, 2, rec.Attempts)
	assert.Empty(t, rec.LastError)
}
