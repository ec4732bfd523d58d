package repository

import (
	"strconv"

	"landlords/internal/domain"
	"landlords/internal/logger"
	"landlords/internal/models"
	"landlords/pkg/levy"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

func (r *SettingRepository) Get(key string) (string, error) {
	var s models.SystemSetting
	if err := r.db.Where("`key` = ?", key).First(&s).Error; err != nil {
		return "", err
	}
	return s.Value, nil
}

func (r *SettingRepository) Set(key, value string) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&models.SystemSetting{Key: key, Value: value}).Error
}

func (r *SettingRepository) GetAll() ([]models.SystemSetting, error) {
	var list []models.SystemSetting
	err := r.db.Order("`key` ASC").Find(&list).Error
	return list, err
}

// SeedDefaults inserts default settings if they don't already exist.
func (r *SettingRepository) SeedDefaults(defaults map[string]string) error {
	for k, v := range defaults {
		var count int64
		if err := r.db.Model(&models.SystemSetting{}).Where("`key` = ?", k).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := r.db.Create(&models.SystemSetting{Key: k, Value: v}).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

// PricingDefaults renders p as setting values for SeedDefaults.
func PricingDefaults(p levy.Pricing) map[string]string {
	return map[string]string{
		domain.SettingLevyFeeCents:          strconv.FormatInt(p.FeePerRoomCents, 10),
		domain.SettingLevyDiscountThreshold: strconv.Itoa(p.DiscountThreshold),
		domain.SettingLevyDiscountPercent:   strconv.FormatInt(p.DiscountPercent, 10),
	}
}

// Pricing applies stored overrides on top of base. Unparseable or out-of-range values are ignored.
func (r *SettingRepository) Pricing(base levy.Pricing) levy.Pricing {
	p := base
	list, err := r.GetAll()
	if err != nil {
		logger.Logger.WithError(err).Warn("settings unavailable, using configured levy pricing")
		return p
	}
	for _, s := range list {
		n, err := strconv.ParseInt(s.Value, 10, 64)
		if err != nil || n < 0 {
			continue
		}
		switch s.Key {
		case domain.SettingLevyFeeCents:
			p.FeePerRoomCents = n
		case domain.SettingLevyDiscountThreshold:
			p.DiscountThreshold = int(n)
		case domain.SettingLevyDiscountPercent:
			if n <= 100 {
				p.DiscountPercent = n
			}
		}
	}
	return p
}
