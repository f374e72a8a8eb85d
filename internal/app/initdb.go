package app

import (
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/partdepot/partdepot/internal/domain"
	"github.com/partdepot/partdepot/pkg/common"
)

func (a *Application) checkSuper() {
	const superUsername = "admin"
	const defaultPassword = "partdepot"

	hashedPassword, err := common.HashPassword(defaultPassword)
	if err != nil {
		zap.L().Error("failed to hash default password", zap.Error(err))
		return
	}

	var user domain.SysUser
	err = a.gormDB.Where("username = ?", superUsername).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := a.gormDB.Create(&domain.SysUser{
			ID:           common.UUIDint64(),
			Username:     superUsername,
			Email:        "admin@localhost",
			Password:     hashedPassword,
			FirstName:    "administrator",
			IsActive:     true,
			IsAdmin:      true,
			RegisteredAt: time.Now(),
		}).Error; err != nil {
			zap.L().Error("failed to create default super admin", zap.Error(err))
		} else {
			zap.L().Info("initialized default super admin account", zap.String("username", superUsername))
		}
		return
	case err != nil:
		zap.L().Error("failed to query super admin", zap.Error(err))
		return
	}

	resetPassword := strings.TrimSpace(user.Password) == ""
	resetAdmin := !user.IsAdmin
	resetActive := !user.IsActive

	if !resetPassword && !resetAdmin && !resetActive {
		return
	}

	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if resetPassword {
		updates["password"] = hashedPassword
	}
	if resetAdmin {
		updates["is_admin"] = true
	}
	if resetActive {
		updates["is_active"] = true
	}

	if err := a.gormDB.Model(&domain.SysUser{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
		zap.L().Error("failed to repair super admin account", zap.Error(err))
		return
	}

	zap.L().Warn("repaired default super admin account",
		zap.String("username", superUsername),
		zap.Bool("passwordReset", resetPassword),
		zap.Bool("adminReset", resetAdmin),
		zap.Bool("activated", resetActive))
}

// settingsSchema defines the seedable sys_config entries.
type settingsSchema struct {
	Key         string
	Default     string
	Description string
}

var defaultSettings = []settingsSchema{
	{Key: "cart.CartTTLHours", Default: "72", Description: "Hours before an untouched cart line is purged"},
	{Key: "inventory.SweepWorkers", Default: "4", Description: "Concurrent workers for the aggregate consistency sweep"},
	{Key: "inventory.LowStockThreshold", Default: "5", Description: "Stock total at or below which a part is flagged low"},
	{Key: "system.OpLogRetentionDays", Default: "365", Description: "Days of audit log history to keep"},
}

func (a *Application) checkSettings() {
	// Iterate over all configuration definitions, checking and initializing missing entries
	for sortid, schema := range defaultSettings {
		// Parse key: "category.name" -> category, name
		parts := strings.SplitN(schema.Key, ".", 2)
		if len(parts) != 2 {
			zap.L().Warn("invalid config key format", zap.String("key", schema.Key))
			continue
		}

		category := parts[0]
		name := parts[1]

		var count int64
		a.gormDB.Model(&domain.SysConfig{}).
			Where("type = ? and name = ?", category, name).
			Count(&count)

		if count == 0 {
			a.gormDB.Create(&domain.SysConfig{
				ID:     common.UUIDint64(),
				Sort:   sortid,
				Type:   category,
				Name:   name,
				Value:  schema.Default,
				Remark: schema.Description,
			})
			zap.L().Info("initialized config",
				zap.String("key", schema.Key),
				zap.String("default", schema.Default))
		}
	}
}
