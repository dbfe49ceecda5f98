package db

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"webpulse/internal/config"
)

// Connect opens a GORM database connection using APP_DATABASE_URL (PostgreSQL URL).
func Connect(cfg *config.Config) (*gorm.DB, error) {
	dsn := strings.TrimSpace(cfg.DatabaseURL)
	if dsn == "" {
		return nil, errors.New("APP_DATABASE_URL is required (PostgreSQL URL)")
	}
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return nil, errors.New("APP_DATABASE_URL must be a postgres:// or postgresql:// URL")
	}

	// PrepareStmt: true prevents the GORM postgres migrator from forcing simple protocol
	// for "SELECT * FROM table LIMIT 1", which would otherwise trigger "insufficient arguments".
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{PrepareStmt: true})
	if err != nil {
		return nil, err
	}

	if err := Migrate(gdb); err != nil {
		return nil, err
	}

	return gdb, nil
}

// Migrate auto-migrates the core tables.
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&User{},
		&APIKey{},
		&Session{},
		&PageView{},
		&Event{},
		&DiagnosticResponse{},
	)
}

// EnsureBootstrapAdmin makes sure there is at least one admin user
// corresponding to the bootstrap credentials in config. If a user with
// that username already exists, it is left as-is.
func EnsureBootstrapAdmin(gdb *gorm.DB, cfg *config.Config) error {
	if cfg.AdminUser == "" || cfg.AdminPassword == "" {
		return nil
	}

	var count int64
	if err := gdb.Model(&User{}).Where("username = ?", cfg.AdminUser).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &User{
		Username:     cfg.AdminUser,
		Email:        cfg.AdminEmail,
		PasswordHash: string(hash),
		IsAdmin:      true,
		IsActive:     true,
	}

	return gdb.Create(admin).Error
}

// EnsureBootstrapAPIKey ensures the tracking key from config exists so a
// fresh deployment can accept beacons immediately. If the key already
// exists it is left as-is (including its Active flag).
func EnsureBootstrapAPIKey(gdb *gorm.DB, cfg *config.Config) error {
	if cfg.BootstrapAPIKey == "" {
		return nil
	}

	// Use Find so "not found" doesn't log as error.
	var existing APIKey
	if err := gdb.Where("key = ?", cfg.BootstrapAPIKey).Limit(1).Find(&existing).Error; err != nil {
		return err
	}
	if existing.ID != 0 {
		return nil
	}

	key := &APIKey{
		Key:    cfg.BootstrapAPIKey,
		Name:   cfg.BootstrapSiteName,
		Domain: cfg.BootstrapSiteDomain,
		Active: true,
	}

	return gdb.Create(key).Error
}
