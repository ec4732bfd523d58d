package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"landlords/config"
	"landlords/internal/apperr"
	"landlords/internal/domain"
	"landlords/internal/logger"
	"landlords/internal/models"
	"landlords/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type RoomInput struct {
	RoomNumber string
	Capacity   int
	Gender     string
}

type PropertyInput struct {
	Name       string
	PriceCents int64
	Location   string
	Rooms      []RoomInput
}

// UpdateRoomInput is the owner-editable part of a room.
type UpdateRoomInput struct {
	RoomID     uint
	PropertyID uint
	RoomNumber string
	Capacity   int
	Gender     string
	Status     string
}

type RoomService struct {
	db         *gorm.DB
	cfg        config.LevyConfig
	properties *repository.PropertyRepository
	rooms      *repository.RoomRepository
	settings   *repository.SettingRepository
	now        Clock
}

func NewRoomService(db *gorm.DB, cfg config.LevyConfig, properties *repository.PropertyRepository, rooms *repository.RoomRepository, settings *repository.SettingRepository) *RoomService {
	return &RoomService{db: db, cfg: cfg, properties: properties, rooms: rooms, settings: settings, now: utcNow}
}

func (s *RoomService) SetClock(c Clock) { s.now = c }

func validGender(g string) bool {
	return g == domain.GenderMale || g == domain.GenderFemale || g == domain.GenderMixed
}

func validRoomStatus(st string) bool {
	return st == domain.RoomAvailable || st == domain.RoomOccupied || st == domain.RoomMaintenance
}

func checkRoom(prefix string, in RoomInput) []string {
	var errs []string
	if strings.TrimSpace(in.RoomNumber) == "" {
		errs = append(errs, prefix+"room_number is required")
	}
	if in.Capacity < 1 {
		errs = append(errs, prefix+"capacity must be at least 1")
	}
	if in.Gender != "" && !validGender(in.Gender) {
		errs = append(errs, prefix+"gender must be male, female or mixed")
	}
	return errs
}

func (s *RoomService) newRoom(propertyID uint, in RoomInput) models.Room {
	gender := in.Gender
	if gender == "" {
		gender = domain.GenderMixed
	}
	return models.Room{
		PropertyID:         propertyID,
		RoomNumber:         strings.TrimSpace(in.RoomNumber),
		Capacity:           in.Capacity,
		Gender:             gender,
		Status:             domain.RoomAvailable,
		LevyPaymentStatus:  domain.LevyPending,
		PaymentAmountCents: currentPricing(s.settings, s.cfg).FeePerRoomCents,
	}
}

// CreateProperty stores a property and its rooms. Every new room starts with its levy pending.
func (s *RoomService) CreateProperty(ctx context.Context, ownerID uint, in PropertyInput) (*models.Property, error) {
	var errs []string
	if strings.TrimSpace(in.Name) == "" {
		errs = append(errs, "name is required")
	}
	if in.PriceCents < 0 {
		errs = append(errs, "price_cents must not be negative")
	}
	seen := map[string]bool{}
	for i, r := range in.Rooms {
		prefix := fmt.Sprintf("rooms[%d].", i)
		errs = append(errs, checkRoom(prefix, r)...)
		n := strings.TrimSpace(r.RoomNumber)
		if n != "" && seen[n] {
			errs = append(errs, prefix+"room_number is duplicated")
		}
		seen[n] = true
	}
	if len(errs) > 0 {
		return nil, apperr.Validation(errs)
	}

	p := &models.Property{
		OwnerID:    ownerID,
		Name:       strings.TrimSpace(in.Name),
		PriceCents: in.PriceCents,
		Location:   strings.TrimSpace(in.Location),
	}
	for _, r := range in.Rooms {
		p.Rooms = append(p.Rooms, s.newRoom(0, r))
	}
	if err := s.properties.WithTx(s.db.WithContext(ctx)).Create(p); err != nil {
		return nil, err
	}
	logger.Logger.WithFields(logrus.Fields{"owner_id": ownerID, "property_id": p.ID, "rooms": len(p.Rooms)}).Info("property created")
	return p, nil
}

func (s *RoomService) AddRoom(ctx context.Context, ownerID, propertyID uint, in RoomInput) (*models.Room, error) {
	if errs := checkRoom("", in); len(errs) > 0 {
		return nil, apperr.Validation(errs)
	}
	if _, err := s.properties.GetOwned(propertyID, ownerID); err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.NotFound("property not found")
		}
		return nil, err
	}
	room := s.newRoom(propertyID, in)
	if err := s.rooms.Create(&room); err != nil {
		if _, lookupErr := s.rooms.GetByPropertyAndNumber(propertyID, room.RoomNumber); lookupErr == nil {
			return nil, apperr.New(http.StatusConflict, apperr.CodeConflict, "room number already exists in this property", apperr.ErrConflict)
		}
		return nil, err
	}
	return &room, nil
}

func (s *RoomService) ListOwnerProperties(ctx context.Context, ownerID uint) ([]models.Property, error) {
	return s.properties.ListByOwner(ownerID)
}

func (s *RoomService) SoftDeleteProperty(ctx context.Context, ownerID, propertyID uint) error {
	ok, err := s.properties.SoftDelete(propertyID, ownerID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("property not found")
	}
	return nil
}

// UpdateRoomStatus edits a room's number, capacity, gender and occupancy status.
// The levy columns are never touched here.
func (s *RoomService) UpdateRoomStatus(ctx context.Context, ownerID uint, in UpdateRoomInput) (*models.Room, error) {
	var errs []string
	if in.RoomID == 0 {
		errs = append(errs, "room_id is required")
	}
	if in.PropertyID == 0 {
		errs = append(errs, "property_id is required")
	}
	errs = append(errs, checkRoom("", RoomInput{RoomNumber: in.RoomNumber, Capacity: in.Capacity, Gender: in.Gender})...)
	if in.Gender == "" {
		errs = append(errs, "gender is required")
	}
	if !validRoomStatus(in.Status) {
		errs = append(errs, "status must be available, occupied or maintenance")
	}
	if len(errs) > 0 {
		return nil, apperr.Validation(errs)
	}

	room, err := s.rooms.GetOwned(in.RoomID, ownerID)
	if err != nil {
		if !repository.IsNotFound(err) {
			return nil, err
		}
		if _, other := s.rooms.GetByID(in.RoomID); other == nil {
			return nil, apperr.Forbidden("you do not own this room")
		}
		return nil, apperr.NotFound("room not found")
	}
	if room.PropertyID != in.PropertyID {
		return nil, apperr.Validation([]string{"room does not belong to property_id"})
	}
	number := strings.TrimSpace(in.RoomNumber)
	if number != room.RoomNumber {
		if clash, err := s.rooms.GetByPropertyAndNumber(room.PropertyID, number); err == nil && clash.ID != room.ID {
			return nil, apperr.New(http.StatusConflict, apperr.CodeConflict, "room number already exists in this property", apperr.ErrConflict)
		} else if err != nil && !repository.IsNotFound(err) {
			return nil, err
		}
	}
	room.RoomNumber = number
	room.Capacity = in.Capacity
	room.Gender = in.Gender
	room.Status = in.Status
	if err := s.rooms.UpdateDetails(room); err != nil {
		return nil, err
	}
	logger.Logger.WithFields(logrus.Fields{"owner_id": ownerID, "room_id": room.ID, "status": room.Status}).Info("room updated")
	return room, nil
}

// ListBookable returns rooms tenants may book today.
func (s *RoomService) ListBookable(ctx context.Context, f repository.BookableFilter) ([]models.Room, error) {
	if f.Gender != "" && !validGender(f.Gender) {
		return nil, apperr.Validation([]string{"gender must be male, female or mixed"})
	}
	return s.rooms.ListBookable(f, s.now())
}
