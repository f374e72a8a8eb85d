package app

import (
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/partdepot/partdepot/config"
	"github.com/partdepot/partdepot/internal/category"
	"github.com/partdepot/partdepot/internal/inventory"
	"github.com/partdepot/partdepot/internal/ordering"
)

// DBProvider provides database access
type DBProvider interface {
	DB() *gorm.DB
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// SettingsProvider provides system settings access
type SettingsProvider interface {
	GetSettingsStringValue(category, key string) string
	GetSettingsInt64Value(category, key string) int64
	GetSettingsBoolValue(category, key string) bool
	SaveSettings(settings map[string]interface{}) error
}

// SchedulerProvider provides task scheduling capability
type SchedulerProvider interface {
	Scheduler() *cron.Cron
}

// ServiceProvider exposes the domain services handlers depend on
type ServiceProvider interface {
	InventoryService() *inventory.Service
	CategoryService() *category.Service
	CartService() *ordering.CartService
	CheckoutService() *ordering.CheckoutService
}

// AppContext combines all provider interfaces for full application context
// Handlers should depend on specific providers or this combined interface
type AppContext interface {
	DBProvider
	ConfigProvider
	SettingsProvider
	SchedulerProvider
	ServiceProvider

	// Application lifecycle methods
	MigrateDB(track bool) error
	InitDb()
	DropAll()
	// RunConsistencySweep recomputes every part aggregate immediately and
	// returns the number of parts whose cached total had drifted.
	RunConsistencySweep() (int, error)
}
