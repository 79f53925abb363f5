// Package config loads the memory engine's typed configuration: grounding
// weights and thresholds, temporal retention windows, storage pragmas, and
// license tier. Layering uses a viper instance per load, TOML as the
// on-disk format, environment variables as overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ruizrica/drift-sub006/internal/types"
)

// LicenseTier gates feature availability in the bridge and elsewhere.
type LicenseTier string

const (
	TierCommunity LicenseTier = "community"
	TierTeam      LicenseTier = "team"
	TierEnterprise LicenseTier = "enterprise"
)

func (t LicenseTier) Valid() bool {
	switch t {
	case TierCommunity, TierTeam, TierEnterprise:
		return true
	default:
		return false
	}
}

// GroundingConfig mirrors spec §6's grounding keys.
type GroundingConfig struct {
	Enabled              bool    `mapstructure:"enabled"`
	MaxMemoriesPerLoop   int     `mapstructure:"max_memories_per_loop"`
	BoostDelta           float64 `mapstructure:"boost_delta"`
	PartialPenalty       float64 `mapstructure:"partial_penalty"`
	WeakPenalty          float64 `mapstructure:"weak_penalty"`
	InvalidatedFloor     float64 `mapstructure:"invalidated_floor"`
	ContradictionDrop    float64 `mapstructure:"contradiction_drop"`
	FullGroundingInterval int    `mapstructure:"full_grounding_interval"`

	// EvidenceWeights overrides types.EvidenceType.DefaultWeight() per type.
	// Empty means "use defaults". Validate() requires the effective set to
	// sum to 1.0 within tolerance.
	EvidenceWeights map[types.EvidenceType]float64 `mapstructure:"evidence_weights"`
}

// TemporalConfig mirrors spec §6's temporal keys.
type TemporalConfig struct {
	SnapshotEventThreshold    int           `mapstructure:"snapshot_event_threshold"`
	PeriodicIntervalHours     int           `mapstructure:"periodic_interval_hours"`
	FullRetentionDays         int           `mapstructure:"full_retention_days"`
	MonthlyRetentionDays      int           `mapstructure:"monthly_retention_days"`
	EventCompactionAgeDays    int           `mapstructure:"event_compaction_age_days"`
	DriftDetectionWindowHours int           `mapstructure:"drift_detection_window_hours"`
	EpistemicAutoPromote      bool          `mapstructure:"epistemic_auto_promote"`
	MaterializedViewRefresh   time.Duration `mapstructure:"materialized_view_refresh"`
	AllowFutureClaims         bool          `mapstructure:"allow_future_claims"`
}

// StorageConfig mirrors spec §6's storage pragma keys.
type StorageConfig struct {
	Path           string `mapstructure:"path"`
	WAL            bool   `mapstructure:"wal"`
	SyncNormal     bool   `mapstructure:"sync_normal"`
	ForeignKeys    bool   `mapstructure:"foreign_keys"`
	BusyTimeoutMS  int    `mapstructure:"busy_timeout_ms"`
	CacheSizeKB    int    `mapstructure:"cache_size_kb"`
	MmapSizeBytes  int64  `mapstructure:"mmap_size_bytes"`
	TempStoreMemory bool  `mapstructure:"temp_store_memory"`
	MaxReaders     int    `mapstructure:"max_readers"`
}

// BridgeConfig configures the cross-store analysis bridge.
type BridgeConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Transport    string        `mapstructure:"transport"` // "attach" | "mysql"
	DSN          string        `mapstructure:"dsn"`
	DedupWindow  time.Duration `mapstructure:"dedup_window"`
}

// EngineConfig is the top-level configuration object.
type EngineConfig struct {
	Grounding GroundingConfig `mapstructure:"grounding"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Bridge    BridgeConfig    `mapstructure:"bridge"`
	License   LicenseTier     `mapstructure:"license_tier"`
}

// Default returns the engine's built-in defaults, per spec §6.
func Default() *EngineConfig {
	return &EngineConfig{
		Grounding: GroundingConfig{
			Enabled:               true,
			MaxMemoriesPerLoop:    500,
			BoostDelta:            0.05,
			PartialPenalty:        0.05,
			WeakPenalty:           0.15,
			InvalidatedFloor:      0.1,
			ContradictionDrop:     0.3,
			FullGroundingInterval: 10,
		},
		Temporal: TemporalConfig{
			SnapshotEventThreshold:    50,
			PeriodicIntervalHours:     168,
			FullRetentionDays:         180,
			MonthlyRetentionDays:      730,
			EventCompactionAgeDays:    180,
			DriftDetectionWindowHours: 168,
			EpistemicAutoPromote:      false,
			MaterializedViewRefresh:   time.Hour,
			AllowFutureClaims:         false,
		},
		Storage: StorageConfig{
			Path:            "memengine.db",
			WAL:             true,
			SyncNormal:      true,
			ForeignKeys:     true,
			BusyTimeoutMS:   5000,
			CacheSizeKB:     8 * 1024,
			MmapSizeBytes:   256 * 1024 * 1024,
			TempStoreMemory: true,
			MaxReaders:      4,
		},
		Bridge: BridgeConfig{
			Enabled:     false,
			Transport:   "attach",
			DedupWindow: 5 * time.Minute,
		},
		License: TierCommunity,
	}
}

// Load reads TOML configuration from path (if non-empty and present),
// layers environment variables prefixed MEMENGINE_, and falls back to
// Default() for anything unset. Env vars use "_" in place of ".", e.g.
// MEMENGINE_GROUNDING_BOOST_DELTA.
func Load(path string) (*EngineConfig, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix("memengine")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindDefaults(v, cfg)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
			}
		}
	}

	out := *cfg
	if err := v.Unmarshal(&out); err != nil {
		return nil, fmt.Errorf("config: failed to decode: %w", err)
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

// bindDefaults seeds viper with the struct defaults so unset TOML/env keys
// fall back to them rather than zero values after Unmarshal.
func bindDefaults(v *viper.Viper, cfg *EngineConfig) {
	v.SetDefault("grounding.enabled", cfg.Grounding.Enabled)
	v.SetDefault("grounding.max_memories_per_loop", cfg.Grounding.MaxMemoriesPerLoop)
	v.SetDefault("grounding.boost_delta", cfg.Grounding.BoostDelta)
	v.SetDefault("grounding.partial_penalty", cfg.Grounding.PartialPenalty)
	v.SetDefault("grounding.weak_penalty", cfg.Grounding.WeakPenalty)
	v.SetDefault("grounding.invalidated_floor", cfg.Grounding.InvalidatedFloor)
	v.SetDefault("grounding.contradiction_drop", cfg.Grounding.ContradictionDrop)
	v.SetDefault("grounding.full_grounding_interval", cfg.Grounding.FullGroundingInterval)

	v.SetDefault("temporal.snapshot_event_threshold", cfg.Temporal.SnapshotEventThreshold)
	v.SetDefault("temporal.periodic_interval_hours", cfg.Temporal.PeriodicIntervalHours)
	v.SetDefault("temporal.full_retention_days", cfg.Temporal.FullRetentionDays)
	v.SetDefault("temporal.monthly_retention_days", cfg.Temporal.MonthlyRetentionDays)
	v.SetDefault("temporal.event_compaction_age_days", cfg.Temporal.EventCompactionAgeDays)
	v.SetDefault("temporal.drift_detection_window_hours", cfg.Temporal.DriftDetectionWindowHours)
	v.SetDefault("temporal.epistemic_auto_promote", cfg.Temporal.EpistemicAutoPromote)
	v.SetDefault("temporal.materialized_view_refresh", cfg.Temporal.MaterializedViewRefresh)

	v.SetDefault("storage.path", cfg.Storage.Path)
	v.SetDefault("storage.wal", cfg.Storage.WAL)
	v.SetDefault("storage.sync_normal", cfg.Storage.SyncNormal)
	v.SetDefault("storage.foreign_keys", cfg.Storage.ForeignKeys)
	v.SetDefault("storage.busy_timeout_ms", cfg.Storage.BusyTimeoutMS)
	v.SetDefault("storage.cache_size_kb", cfg.Storage.CacheSizeKB)
	v.SetDefault("storage.mmap_size_bytes", cfg.Storage.MmapSizeBytes)
	v.SetDefault("storage.temp_store_memory", cfg.Storage.TempStoreMemory)
	v.SetDefault("storage.max_readers", cfg.Storage.MaxReaders)

	v.SetDefault("bridge.enabled", cfg.Bridge.Enabled)
	v.SetDefault("bridge.transport", cfg.Bridge.Transport)
	v.SetDefault("bridge.dedup_window", cfg.Bridge.DedupWindow)

	v.SetDefault("license_tier", string(cfg.License))
}

// Validate enforces cross-field invariants: evidence weights (if any are
// overridden) must still sum to 1.0, and the license tier must be one of
// the closed set.
func (c *EngineConfig) Validate() error {
	if !c.License.Valid() {
		return fmt.Errorf("config: invalid license_tier %q", c.License)
	}
	if c.Bridge.Transport != "attach" && c.Bridge.Transport != "mysql" {
		return fmt.Errorf("config: invalid bridge.transport %q", c.Bridge.Transport)
	}

	if len(c.Grounding.EvidenceWeights) > 0 {
		var sum float64
		for _, et := range types.AllEvidenceTypes {
			if w, ok := c.Grounding.EvidenceWeights[et]; ok {
				sum += w
			} else {
				sum += et.DefaultWeight()
			}
		}
		if sum < 0.99 || sum > 1.01 {
			return fmt.Errorf("config: evidence weights must sum to 1.0, got %f", sum)
		}
	}
	return nil
}

// EffectiveWeight returns the configured override for et, or its default.
func (c *GroundingConfig) EffectiveWeight(et types.EvidenceType) float64 {
	if w, ok := c.EvidenceWeights[et]; ok {
		return w
	}
	return et.DefaultWeight()
}
