package repository

import (
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"landlords/internal/domain"
	"landlords/internal/models"
	"landlords/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStudentsWithBookings(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewAnnouncementRepository(db)
	owner := testutil.CreateUser(t, db, domain.RoleOwner, "owner@example.com")
	s1 := testutil.CreateUser(t, db, domain.RoleStudent, "s1@example.com")
	s2 := testutil.CreateUser(t, db, domain.RoleStudent, "s2@example.com")
	s3 := testutil.CreateUser(t, db, domain.RoleStudent, "s3@example.com")
	p, rooms := testutil.CreateProperty(t, db, owner.ID, "Hall A",
		testutil.RoomSpec{Number: "1", Levy: domain.LevyApproved},
		testutil.RoomSpec{Number: "2", Levy: domain.LevyApproved},
	)
	testutil.CreateBooking(t, db, rooms[0], s1.ID, domain.BookingConfirmed)
	testutil.CreateBooking(t, db, rooms[0], s1.ID, domain.BookingPaid)
	testutil.CreateBooking(t, db, rooms[1], s2.ID, domain.BookingPending)
	testutil.CreateBooking(t, db, rooms[1], s3.ID, domain.BookingCancelled)

	users, err := repo.StudentsWithBookings([]uint{p.ID}, 0, owner.ID)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, s1.ID, users[0].ID)
	assert.Equal(t, s2.ID, users[1].ID)

	users, err = repo.StudentsWithBookings(nil, rooms[1].ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, s2.ID, users[0].ID)

	users, err = repo.StudentsWithBookings(nil, 0, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestRecordAttemptAndRetryable(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewAnnouncementRepository(db)
	sender := testutil.CreateUser(t, db, domain.RoleAdmin, "admin@example.com")
	u := testutil.CreateUser(t, db, domain.RoleStudent, "s1@example.com")

	a := &models.Announcement{
		SenderID: sender.ID, Title: "Water", Message: "Off at noon", TargetGroup: domain.TargetAll, RecipientCount: 1,
		Recipients: []models.AnnouncementRecipient{{UserID: u.ID, Email: u.Email, Status: domain.DeliveryQueued}},
	}
	require.NoError(t, repo.Create(a))
	rec := a.Recipients[0]

	require.NoError(t, repo.RecordAttempt(&rec, errors.New("smtp down"), time.Now()))
	retry, err := repo.ListRetryable(3, 10, time.Now().Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, retry, 1)
	assert.Equal(t, domain.DeliveryFailed, retry[0].Status)
	assert.Equal(t, "smtp down", retry[0].LastError)
	require.NotNil(t, retry[0].Announcement)

	n, err := repo.RefreshSentCount(a.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, repo.RecordAttempt(&rec, nil, time.Now()))
	n, err = repo.RefreshSentCount(a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	retry, err = repo.ListRetryable(3, 10, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Empty(t, retry)
}

func TestRecordAttemptClipsLongErrors(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewAnnouncementRepository(db)
	sender := testutil.CreateUser(t, db, domain.RoleAdmin, "admin@example.com")
	u := testutil.CreateUser(t, db, domain.RoleStudent, "s1@example.com")
	a := &models.Announcement{
		SenderID: sender.ID, Title: "Water", Message: "Off at noon", TargetGroup: domain.TargetAll, RecipientCount: 1,
		Recipients: []models.AnnouncementRecipient{{UserID: u.ID, Email: u.Email, Status: domain.DeliveryQueued}},
	}
	require.NoError(t, repo.Create(a))
	rec := a.Recipients[0]

	// 511 ASCII bytes then a two-byte rune straddling the limit.
	msg := strings.Repeat("x", 511) + strings.Repeat("é", 10)
	require.NoError(t, repo.RecordAttempt(&rec, errors.New(msg), time.Now()))

	var got models.AnnouncementRecipient
	require.NoError(t, db.First(&got, rec.ID).Error)
	assert.True(t, utf8.ValidString(got.LastError))
	assert.Equal(t, strings.Repeat("x", 511), got.LastError)
}

func TestClipText(t *testing.T) {
	assert.Equal(t, "short", ClipText("short", 10))
	assert.Equal(t, "ab", ClipText("abcdef", 2))
	assert.Equal(t, "a", ClipText("aé", 2))
	assert.Equal(t, "aé", ClipText("aéb", 3))
}
