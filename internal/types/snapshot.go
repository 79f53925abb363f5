package types

import "time"

// SnapshotReason records why a snapshot was created.
type SnapshotReason string

const (
	SnapshotEventThreshold SnapshotReason = "event-threshold"
	SnapshotPeriodic       SnapshotReason = "periodic"
	SnapshotPreOperation   SnapshotReason = "pre-operation"
	SnapshotOnDemand       SnapshotReason = "on-demand"
)

// Snapshot is a compressed materialization of a memory at an event frontier.
type Snapshot struct {
	SnapshotID string         `json:"snapshot_id"`
	MemoryID   string         `json:"memory_id"`
	SnapshotAt time.Time      `json:"snapshot_at"`
	EventID    int64          `json:"event_id"`
	Reason     SnapshotReason `json:"reason"`
	State      []byte         `json:"-"` // compressed, canonical-encoded Memory
}
