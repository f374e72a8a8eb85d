package app

import (
	"strings"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/partdepot/partdepot/internal/domain"
)

// Settings categories stored in sys_config.
const (
	SettingsCart      = "cart"
	SettingsInventory = "inventory"
)

// CartSettings groups the cart housekeeping knobs read by the daily job.
type CartSettings struct {
	TTLHours int64 `mapstructure:"CartTTLHours"`
}

// InventorySettings groups the consistency sweep knobs.
type InventorySettings struct {
	SweepWorkers int64 `mapstructure:"SweepWorkers"`
}

// SettingsManager caches sys_config rows with a short TTL so hot paths do
// not hit the database for every settings read.
type SettingsManager struct {
	app     *Application
	mu      sync.RWMutex
	cache   map[string]string
	loaded  time.Time
	cacheTl time.Duration
}

func NewSettingsManager(app *Application) *SettingsManager {
	return &SettingsManager{
		app:     app,
		cache:   make(map[string]string),
		cacheTl: 30 * time.Second,
	}
}

func (m *SettingsManager) reload() {
	var rows []domain.SysConfig
	if err := m.app.gormDB.Find(&rows).Error; err != nil {
		zap.L().Warn("failed to load settings", zap.Error(err))
		return
	}
	next := make(map[string]string, len(rows))
	for _, r := range rows {
		next[r.Type+"."+r.Name] = r.Value
	}
	m.cache = next
	m.loaded = time.Now()
}

func (m *SettingsManager) get(category, name string) string {
	m.mu.RLock()
	fresh := time.Since(m.loaded) < m.cacheTl
	v, ok := m.cache[category+"."+name]
	m.mu.RUnlock()
	if fresh && ok {
		return v
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if time.Since(m.loaded) >= m.cacheTl {
		m.reload()
	}
	return m.cache[category+"."+name]
}

func (m *SettingsManager) GetString(category, name string) string {
	return m.get(category, name)
}

func (m *SettingsManager) GetInt64(category, name string) int64 {
	return cast.ToInt64(m.get(category, name))
}

func (m *SettingsManager) GetBool(category, name string) bool {
	return cast.ToBool(m.get(category, name))
}

// Save persists settings given as "category.Name" keys and invalidates the
// cache.
func (m *SettingsManager) Save(settings map[string]interface{}) error {
	for key, value := range settings {
		parts := strings.SplitN(key, ".", 2)
		if len(parts) != 2 {
			continue
		}
		err := m.app.gormDB.Model(&domain.SysConfig{}).
			Where("type = ? and name = ?", parts[0], parts[1]).
			Update("value", cast.ToString(value)).Error
		if err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.loaded = time.Time{}
	m.mu.Unlock()
	return nil
}

// CartSettings decodes the cart category into its typed form.
func (m *SettingsManager) CartSettings() CartSettings {
	out := CartSettings{TTLHours: 72}
	m.decodeCategory(SettingsCart, &out)
	return out
}

// InventorySettings decodes the inventory category into its typed form.
func (m *SettingsManager) InventorySettings() InventorySettings {
	out := InventorySettings{SweepWorkers: 4}
	m.decodeCategory(SettingsInventory, &out)
	return out
}

func (m *SettingsManager) decodeCategory(category string, out interface{}) {
	var rows []domain.SysConfig
	if err := m.app.gormDB.Where("type = ?", category).Find(&rows).Error; err != nil {
		zap.L().Warn("failed to load settings category", zap.String("category", category), zap.Error(err))
		return
	}
	raw := make(map[string]interface{}, len(rows))
	for _, r := range rows {
		raw[r.Name] = r.Value
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		zap.L().Warn("settings decoder error", zap.Error(err))
		return
	}
	if err := decoder.Decode(raw); err != nil {
		zap.L().Warn("settings decode error", zap.String("category", category), zap.Error(err))
	}
}
