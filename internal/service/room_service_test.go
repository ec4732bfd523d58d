package service

import (
	"context"
	"testing"

	"landlords/internal/apperr"
	"landlords/internal/domain"
	"landlords/internal/repository"
	"landlords/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newRoomService(db *gorm.DB) *RoomService {
	return NewRoomService(db, testLevyConfig,
		repository.NewPropertyRepository(db),
		repository.NewRoomRepository(db),
		repository.NewSettingRepository(db),
	)
}

func TestCreatePropertyStartsRoomsPending(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newRoomService(db)
	owner := testutil.CreateUser(t, db, domain.RoleOwner, "owner@example.com")
	require.NoError(t, repository.NewSettingRepository(db).Set(domain.SettingLevyFeeCents, "7000"))

	p, err := svc.CreateProperty(context.Background(), owner.ID, PropertyInput{
		Name:  "Hall A",
		Rooms: []RoomInput{{RoomNumber: "1", Capacity: 2}, {RoomNumber: "2", Capacity: 1, Gender: domain.GenderFemale}},
	})
	require.NoError(t, err)
	require.Len(t, p.Rooms, 2)
	for _, r := range p.Rooms {
		assert.Equal(t, domain.LevyPending, r.LevyPaymentStatus)
		assert.Equal(t, int64(7000), r.PaymentAmountCents)
		assert.Equal(t, p.ID, r.PropertyID)
	}
	assert.Equal(t, domain.GenderMixed, p.Rooms[0].Gender)

	_, err = svc.CreateProperty(context.Background(), owner.ID, PropertyInput{
		Name:  "Hall B",
		Rooms: []RoomInput{{RoomNumber: "1", Capacity: 1}, {RoomNumber: "1", Capacity: 1}},
	})
	ae := apperr.From(err)
	assert.Equal(t, apperr.CodeValidation, ae.Code)
	assert.Contains(t, ae.Details, "rooms[1].room_number is duplicated")
}

func TestAddRoomAndDeleteProperty(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newRoomService(db)
	owner := testutil.CreateUser(t, db, domain.RoleOwner, "owner@example.com")
	other := testutil.CreateUser(t, db, domain.RoleOwner, "other@example.com")
	p, _ := testutil.CreateProperty(t, db, owner.ID, "Hall A", testutil.RoomSpec{Number: "1"})
	ctx := context.Background()

	_, err := svc.AddRoom(ctx, other.ID, p.ID, RoomInput{RoomNumber: "2", Capacity: 1})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	r, err := svc.AddRoom(ctx, owner.ID, p.ID, RoomInput{RoomNumber: "2", Capacity: 1})
	require.NoError(t, err)
	assert.Equal(t, domain.LevyPending, r.LevyPaymentStatus)

	_, err = svc.AddRoom(ctx, owner.ID, p.ID, RoomInput{RoomNumber: "2", Capacity: 1})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	assert.ErrorIs(t, svc.SoftDeleteProperty(ctx, other.ID, p.ID), apperr.ErrNotFound)
	require.NoError(t, svc.SoftDeleteProperty(ctx, owner.ID, p.ID))
	list, err := svc.ListOwnerProperties(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpdateRoomStatus(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newRoomService(db)
	owner := testutil.CreateUser(t, db, domain.RoleOwner, "owner@example.com")
	other := testutil.CreateUser(t, db, domain.RoleOwner, "other@example.com")
	p, rooms := testutil.CreateProperty(t, db, owner.ID, "Hall A",
		testutil.RoomSpec{Number: "1", Levy: domain.LevyApproved, Expiry: testutil.Date(10)},
		testutil.RoomSpec{Number: "2"},
	)
	ctx := context.Background()
	in := UpdateRoomInput{RoomID: rooms[0].ID, PropertyID: p.ID, RoomNumber: "1A", Capacity: 3, Gender: domain.GenderMale, Status: domain.RoomOccupied}

	_, err := svc.UpdateRoomStatus(ctx, other.ID, in)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	missing := in
	missing.RoomID = 9999
	_, err = svc.UpdateRoomStatus(ctx, owner.ID, missing)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	wrongProperty := in
	wrongProperty.PropertyID = p.ID + 1
	_, err = svc.UpdateRoomStatus(ctx, owner.ID, wrongProperty)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	clash := in
	clash.RoomNumber = "2"
	_, err = svc.UpdateRoomStatus(ctx, owner.ID, clash)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	invalid := in
	invalid.Status = "demolished"
	invalid.Capacity = 0
	_, err = svc.UpdateRoomStatus(ctx, owner.ID, invalid)
	ae := apperr.From(err)
	assert.Equal(t, apperr.CodeValidation, ae.Code)
	assert.Len(t, ae.Details, 2)

	got, err := svc.UpdateRoomStatus(ctx, owner.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "1A", got.RoomNumber)
	assert.Equal(t, 3, got.Capacity)
	assert.Equal(t, domain.RoomOccupied, got.Status)

	reloaded := reloadRooms(t, db, rooms[:1])[0]
	assert.Equal(t, domain.LevyApproved, reloaded.LevyPaymentStatus)
	assert.NotNil(t, reloaded.LevyExpiryDate)
	assert.Equal(t, domain.GenderMale, reloaded.Gender)
}

func TestListBookableUsesResolver(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newRoomService(db)
	owner := testutil.CreateUser(t, db, domain.RoleOwner, "owner@example.com")
	_, rooms := testutil.CreateProperty(t, db, owner.ID, "Hall A",
		testutil.RoomSpec{Number: "1", Levy: domain.LevyApproved, Expiry: testutil.Date(0)},
		testutil.RoomSpec{Number: "2", Levy: domain.LevyApproved, Expiry: testutil.Date(-1)},
		testutil.RoomSpec{Number: "3"},
	)

	list, err := svc.ListBookable(context.Background(), repository.BookableFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, rooms[0].ID, list[0].ID)

	_, err = svc.ListBookable(context.Background(), repository.BookableFilter{Gender: "other"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
