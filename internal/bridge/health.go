package bridge

import (
	"context"

	"github.com/ruizrica/drift-sub006/internal/health"
)

// CheckAnalysisStore pings the attached/dialed analysis store. A nil
// transport (bridge disabled, or not yet configured) reports unhealthy with
// a distinguishing detail rather than panicking — matching spec §4.7's
// "missing tables / absent store is 'no data', not a crash" posture.
func CheckAnalysisStore(ctx context.Context, t *Transport) health.SubsystemCheck {
	if t == nil {
		return health.Unhealthy("analysis_store", "not configured")
	}
	if err := t.Ping(ctx); err != nil {
		return health.Unhealthy("analysis_store", err.Error())
	}
	return health.OK("analysis_store", "reachable")
}

// CheckBridgeStore pings the bridge's own local tables.
func CheckBridgeStore(ctx context.Context, s *Store) health.SubsystemCheck {
	if s == nil {
		return health.Unhealthy("bridge_store", "not configured")
	}
	if err := s.Ping(ctx); err != nil {
		return health.Unhealthy("bridge_store", err.Error())
	}
	return health.OK("bridge_store", "reachable")
}
