// Package testutil provides database fixtures shared by repository, service and handler tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"landlords/internal/database"
	"landlords/internal/domain"
	"landlords/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewDB opens a private in-memory SQLite database migrated with the production schema.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:landlords_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func CreateUser(t *testing.T, db *gorm.DB, role, email string) *models.User {
	t.Helper()
	u := &models.User{Name: email, Email: email, Role: role}
	require.NoError(t, db.Create(u).Error)
	return u
}

// RoomSpec describes a room fixture's levy state.
type RoomSpec struct {
	Number string
	Levy   string
	Expiry *time.Time
	Status string
}

func CreateProperty(t *testing.T, db *gorm.DB, ownerID uint, name string, rooms ...RoomSpec) (*models.Property, []models.Room) {
	t.Helper()
	p := &models.Property{OwnerID: ownerID, Name: name, Location: "Accra", Approved: true}
	require.NoError(t, db.Create(p).Error)
	out := make([]models.Room, 0, len(rooms))
	for _, spec := range rooms {
		status := spec.Status
		if status == "" {
			status = domain.RoomAvailable
		}
		levyStatus := spec.Levy
		if levyStatus == "" {
			levyStatus = domain.LevyPending
		}
		r := models.Room{
			PropertyID:         p.ID,
			RoomNumber:         spec.Number,
			Capacity:           2,
			Gender:             domain.GenderMixed,
			Status:             status,
			LevyPaymentStatus:  levyStatus,
			LevyExpiryDate:     spec.Expiry,
			PaymentAmountCents: 5000,
		}
		require.NoError(t, db.Create(&r).Error)
		out = append(out, r)
	}
	return p, out
}

// PendingRooms returns n pending room specs numbered from prefix-1.
func PendingRooms(prefix string, n int) []RoomSpec {
	specs := make([]RoomSpec, n)
	for i := range specs {
		specs[i] = RoomSpec{Number: fmt.Sprintf("%s-%d", prefix, i+1), Levy: domain.LevyPending}
	}
	return specs
}

func CreateBooking(t *testing.T, db *gorm.DB, room models.Room, userID uint, status string) *models.Booking {
	t.Helper()
	start := time.Now().AddDate(0, 0, 7)
	b := &models.Booking{
		PropertyID: room.PropertyID,
		RoomID:     room.ID,
		UserID:     userID,
		Status:     status,
		StartDate:  start,
		EndDate:    start.AddDate(0, 6, 0),
	}
	require.NoError(t, db.Create(b).Error)
	return b
}

// Date returns a pointer to midnight UTC of the day offset from now.
func Date(offsetDays int) *time.Time {
	y, m, d := time.Now().UTC().Date()
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offsetDays)
	return &t
}
