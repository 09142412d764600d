package bootstrap

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"recruitment-service/internal/model"
	"recruitment-service/pkg/config"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// EnsureSuperAdmin creates the default super admin account if no super admin
// exists yet. Repeated startups are no-ops. When no password is configured a
// random one is generated and logged once, to be rotated on first login.
func EnsureSuperAdmin(db *gorm.DB, cfg *config.BootstrapConfig, log *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}

	var count int64
	if err := db.Model(&model.User{}).Where("role = ?", model.RoleSuperAdmin).Count(&count).Error; err != nil {
		return fmt.Errorf("count super admins: %w", err)
	}
	if count > 0 {
		return nil
	}

	password := cfg.AdminPassword
	generated := false
	if password == "" {
		buf := make([]byte, 16)
		if _, err := rand.Read(buf); err != nil {
			return fmt.Errorf("generate admin password: %w", err)
		}
		password = hex.EncodeToString(buf)
		generated = true
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := model.User{
		Username: cfg.AdminUsername,
		Email:    cfg.AdminEmail,
		Password: string(hashed),
		Role:     model.RoleSuperAdmin,
		Status:   model.UserStatusActive,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("create super admin: %w", err)
	}

	if generated {
		log.Warn("Created default super admin with generated password, rotate it immediately",
			zap.String("username", admin.Username),
			zap.String("password", password))
	} else {
		log.Info("Created default super admin", zap.String("username", admin.Username))
	}
	return nil
}
