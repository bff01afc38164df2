package bank

import (
	"time"

	"github.com/snakecogs/cogvault/internal/filex"
	"github.com/snakecogs/cogvault/internal/timex"
	"github.com/snakecogs/cogvault/internal/vault"
)

// Settings are the per-tenant economy knobs, persisted as one JSON
// document keyed by tenant id.
type Settings struct {
	RegisterCredits int64          `json:"register_credits"`
	PaydayCredits   int64          `json:"payday_credits"`
	PaydayCooldown  timex.Duration `json:"payday_cooldown"`
	SlotMin         int64          `json:"slot_min"`
	SlotMax         int64          `json:"slot_max"`
	SlotCooldown    timex.Duration `json:"slot_cooldown"`
}

// DefaultSettings mirror the values tenants start with before an admin
// tunes anything.
func DefaultSettings() Settings {
	return Settings{
		RegisterCredits: 0,
		PaydayCredits:   120,
		PaydayCooldown:  timex.Duration{Duration: 5 * time.Minute},
		SlotMin:         5,
		SlotMax:         100,
		SlotCooldown:    timex.Duration{Duration: 0},
	}
}

// SettingsStore loads and persists per-tenant settings. Unknown tenants
// get defaults; the document is rewritten in full on every change.
type SettingsStore struct {
	path     string
	byTenant map[vault.TenantID]Settings
}

func NewSettingsStore(path string) *SettingsStore {
	return &SettingsStore{
		path:     path,
		byTenant: make(map[vault.TenantID]Settings),
	}
}

func (s *SettingsStore) Load() error {
	if !filex.IsValidJSON(s.path) {
		return nil
	}
	return filex.LoadJSON(s.path, &s.byTenant)
}

// Get returns the tenant's settings, falling back to defaults.
func (s *SettingsStore) Get(tenant vault.TenantID) Settings {
	if settings, ok := s.byTenant[tenant]; ok {
		return settings
	}
	return DefaultSettings()
}

// Set stores and persists the tenant's settings.
func (s *SettingsStore) Set(tenant vault.TenantID, settings Settings) error {
	s.byTenant[tenant] = settings
	return filex.SaveJSON(s.path, s.byTenant)
}

// Update applies fn to the tenant's current settings and persists.
func (s *SettingsStore) Update(tenant vault.TenantID, fn func(*Settings)) error {
	settings := s.Get(tenant)
	fn(&settings)
	return s.Set(tenant, settings)
}
