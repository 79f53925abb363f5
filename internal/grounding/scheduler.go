package grounding

import (
	"sync/atomic"

	"github.com/ruizrica/drift-sub006/internal/types"
)

// Scheduler decides, scan over scan, whether the post-scan grounding pass
// should be incremental (affected memories only) or full (every groundable
// memory) — the remaining four trigger types (scheduled, on-demand,
// memory-creation, memory-update) are driven directly by their caller and
// never go through OnScanComplete.
type Scheduler struct {
	scanCount             atomic.Uint32
	fullGroundingInterval uint32
}

// NewScheduler builds a Scheduler that runs a full pass every interval
// scans (interval <= 0 defaults to 10, matching the engine's configured
// default full_grounding_interval).
func NewScheduler(interval int) *Scheduler {
	if interval <= 0 {
		interval = 10
	}
	return &Scheduler{fullGroundingInterval: uint32(interval)}
}

// OnScanComplete advances the scan counter and returns the trigger type for
// the grounding pass that should follow this scan.
func (s *Scheduler) OnScanComplete() types.TriggerType {
	count := s.scanCount.Add(1)
	if count%s.fullGroundingInterval == 0 {
		return types.TriggerPostScanFull
	}
	return types.TriggerPostScanIncremental
}

// ScanCount returns the number of scans observed so far.
func (s *Scheduler) ScanCount() uint32 { return s.scanCount.Load() }

// Reset zeroes the scan counter, e.g. after a full grounding pass runs
// out-of-band (scheduled or on-demand) and the interval should restart.
func (s *Scheduler) Reset() { s.scanCount.Store(0) }

// IsFullGrounding reports whether trigger should run over every groundable
// memory rather than just the ones affected by the triggering scan.
func IsFullGrounding(trigger types.TriggerType) bool {
	return trigger == types.TriggerPostScanFull || trigger == types.TriggerScheduled || trigger == types.TriggerOnDemand
}
