package database

import (
	"landlords/config"
	"landlords/internal/domain"
	"landlords/internal/logger"
	"landlords/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func NewDB(cfg *config.DatabaseConfig, env string) (*gorm.DB, error) {
	level := gormlogger.Error
	if env == "development" {
		level = gormlogger.Warn
	}
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Property{},
		&models.Room{},
		&models.Booking{},
		&models.Payment{},
		&models.Announcement{},
		&models.AnnouncementRecipient{},
		&models.Notification{},
		&models.SystemSetting{},
	)
}

// SeedAdmin creates the first admin account when a password is configured and no admin exists.
func SeedAdmin(db *gorm.DB, cfg *config.AdminSeedConfig) error {
	if cfg.Password == "" {
		logger.Logger.Info("ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}
	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", domain.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := &models.User{
		Name:         "Administrator",
		Email:        cfg.Email,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
	}
	if err := db.Create(admin).Error; err != nil {
		return err
	}
	logger.Logger.Infof("Seeded admin account %s", cfg.Email)
	return nil
}
