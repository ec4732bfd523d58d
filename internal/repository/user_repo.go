package repository

import (
	"landlords/internal/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(u *models.User) error {
	return r.db.Create(u).Error
}

func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	var u models.User
	err := r.db.First(&u, id).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	var u models.User
	err := r.db.Where("email = ?", email).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Update(u *models.User) error {
	return r.db.Save(u).Error
}

// ListByRole returns users with the role, optionally excluding one user.
func (r *UserRepository) ListByRole(role string, exclude uint) ([]models.User, error) {
	var list []models.User
	err := r.db.Where("role = ? AND id <> ?", role, exclude).Order("id ASC").Find(&list).Error
	return list, err
}

// ListAllExcept returns every user other than the given one.
func (r *UserRepository) ListAllExcept(exclude uint) ([]models.User, error) {
	var list []models.User
	err := r.db.Where("id <> ?", exclude).Order("id ASC").Find(&list).Error
	return list, err
}

// CountByRole returns user counts keyed by role.
func (r *UserRepository) CountByRole() (map[string]int64, error) {
	var rows []struct {
		Role  string
		Count int64
	}
	err := r.db.Model(&models.User{}).Select("role, COUNT(*) AS count").Group("role").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Role] = row.Count
	}
	return out, nil
}
