package repository

import (
	"landlords/internal/models"

	"gorm.io/gorm"
)

type PropertyRepository struct {
	db *gorm.DB
}

func NewPropertyRepository(db *gorm.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

func (r *PropertyRepository) WithTx(tx *gorm.DB) *PropertyRepository {
	return &PropertyRepository{db: tx}
}

// Create inserts the property together with any rooms attached to it.
func (r *PropertyRepository) Create(p *models.Property) error {
	return r.db.Create(p).Error
}

func (r *PropertyRepository) GetByID(id uint) (*models.Property, error) {
	var p models.Property
	err := r.db.Where("deleted = ?", false).First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetOwned returns the property only if ownerID owns it.
func (r *PropertyRepository) GetOwned(id, ownerID uint) (*models.Property, error) {
	var p models.Property
	err := r.db.Where("id = ? AND owner_id = ? AND deleted = ?", id, ownerID, false).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PropertyRepository) ListByOwner(ownerID uint) ([]models.Property, error) {
	var list []models.Property
	err := r.db.Where("owner_id = ? AND deleted = ?", ownerID, false).
		Preload("Rooms", func(db *gorm.DB) *gorm.DB { return db.Order("room_number ASC") }).
		Order("id ASC").Find(&list).Error
	return list, err
}

func (r *PropertyRepository) IDsByOwner(ownerID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Property{}).Where("owner_id = ? AND deleted = ?", ownerID, false).Pluck("id", &ids).Error
	return ids, err
}

func (r *PropertyRepository) SoftDelete(id, ownerID uint) (bool, error) {
	res := r.db.Model(&models.Property{}).Where("id = ? AND owner_id = ? AND deleted = ?", id, ownerID, false).Update("deleted", true)
	return res.RowsAffected > 0, res.Error
}

func (r *PropertyRepository) Count() (int64, error) {
	var n int64
	err := r.db.Model(&models.Property{}).Where("deleted = ?", false).Count(&n).Error
	return n, err
}
