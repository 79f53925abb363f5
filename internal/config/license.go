package config

// Feature is a closed set of gated capabilities checked by LicenseTier.Allows.
type Feature string

const (
	FeatureEventMappingBasic    Feature = "event_mapping_basic"
	FeatureManualGrounding      Feature = "manual_grounding"
	FeatureEventMappingFull     Feature = "event_mapping_full"
	FeatureScheduledGrounding   Feature = "scheduled_grounding"
	FeatureMCPTools             Feature = "mcp_tools"
	FeatureFullGroundingLoop    Feature = "full_grounding_loop"
	FeatureContradictionGen     Feature = "contradiction_generation"
	FeatureCrossDBAnalytics     Feature = "cross_db_analytics"
	FeatureAdaptiveWeights      Feature = "adaptive_weights"
	FeatureDecompositionTransfer Feature = "decomposition_transfer"
	FeatureCausalCorrections   Feature = "causal_corrections"
)

// community, team, and enterprise list the features unlocked starting at
// each tier — a feature present in community is implicitly present in team
// and enterprise too, per the tier hierarchy.
var communityFeatures = map[Feature]bool{
	FeatureEventMappingBasic: true,
	FeatureManualGrounding:   true,
}

var teamFeatures = map[Feature]bool{
	FeatureEventMappingFull:   true,
	FeatureScheduledGrounding: true,
	FeatureMCPTools:           true,
}

var enterpriseFeatures = map[Feature]bool{
	FeatureFullGroundingLoop:     true,
	FeatureContradictionGen:      true,
	FeatureCrossDBAnalytics:      true,
	FeatureAdaptiveWeights:       true,
	FeatureDecompositionTransfer: true,
	FeatureCausalCorrections:     true,
}

// Allows reports whether f is unlocked at tier t. Unknown features are
// always denied rather than defaulting to allowed.
func (t LicenseTier) Allows(f Feature) bool {
	if communityFeatures[f] {
		return true
	}
	if teamFeatures[f] {
		return t == TierTeam || t == TierEnterprise
	}
	if enterpriseFeatures[f] {
		return t == TierEnterprise
	}
	return false
}

// MaxEventTypes returns how many of the bridge's 21 analysis event types
// this tier maps: 5 for community, all 21 for team and enterprise.
func (t LicenseTier) MaxEventTypes() int {
	if t == TierCommunity {
		return 5
	}
	return 21
}

func (t LicenseTier) AllowsScheduledGrounding() bool { return t == TierTeam || t == TierEnterprise }
func (t LicenseTier) AllowsFullGrounding() bool       { return t == TierEnterprise }
func (t LicenseTier) AllowsMCPTools() bool            { return t == TierTeam || t == TierEnterprise }
func (t LicenseTier) AllowsCrossDBAnalytics() bool    { return t == TierEnterprise }
