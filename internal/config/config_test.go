package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ruizrica/drift-sub006/internal/config"
	"github.com/ruizrica/drift-sub006/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 500, cfg.Grounding.MaxMemoriesPerLoop)
	assert.Equal(t, config.TierCommunity, cfg.License)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, 0.05, cfg.Grounding.BoostDelta)
}

func TestLoadOverridesFromTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "memengine.toml")
	contents := `
license_tier = "team"

[grounding]
boost_delta = 0.1
max_memories_per_loop = 250

[storage]
busy_timeout_ms = 2000
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.1, cfg.Grounding.BoostDelta)
	assert.Equal(t, 250, cfg.Grounding.MaxMemoriesPerLoop)
	assert.Equal(t, 2000, cfg.Storage.BusyTimeoutMS)
	assert.Equal(t, config.TierTeam, cfg.License)
}

func TestValidateRejectsBadLicenseTier(t *testing.T) {
	cfg := config.Default()
	cfg.License = "bogus"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsMisweightedEvidence(t *testing.T) {
	cfg := config.Default()
	cfg.Grounding.EvidenceWeights = map[types.EvidenceType]float64{
		types.EvidencePatternConfidence: 0.5,
	}
	assert.Error(t, cfg.Validate())
}

func TestEffectiveWeightFallsBackToDefault(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, types.EvidencePatternConfidence.DefaultWeight(), cfg.Grounding.EffectiveWeight(types.EvidencePatternConfidence))

	cfg.Grounding.EvidenceWeights = map[types.EvidenceType]float64{
		types.EvidencePatternConfidence: 0.9,
	}
	assert.Equal(t, 0.9, cfg.Grounding.EffectiveWeight(types.EvidencePatternConfidence))
}
