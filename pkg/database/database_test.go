package database

import (
	"testing"

	"gorm.io/gorm/logger"
)

func TestGormConfigTranslatesDriverErrors(t *testing.T) {
	cfg := gormConfig(logger.Warn)
	if !cfg.TranslateError {
		t.Error("TranslateError must be enabled so unique violations surface as gorm.ErrDuplicatedKey")
	}
	if cfg.Logger == nil {
		t.Error("gorm logger not configured")
	}
}
