// Package telemetry wraps the engine's OpenTelemetry metric instruments.
// Rather than registering instruments against the global delegating
// provider at init() time, the engine threads a *Telemetry handle
// explicitly through storage, eventstore, snapshot, and bridge
// constructors — package-global telemetry is awkward
// to test and to run multiple engine instances side by side in one process.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
)

// Telemetry holds the named instruments used across the engine. Fields are
// exported so packages can reach their own instruments without a growing
// "record" facade method per metric.
type Telemetry struct {
	provider *sdkmetric.MeterProvider

	EventAppendTotal      metric.Int64Counter
	EventAppendRetries    metric.Int64Counter
	SnapshotCreatedTotal  metric.Int64Counter
	ReconstructDurationMS metric.Float64Histogram
	GroundingRunTotal     metric.Int64Counter
	GroundingDurationMS   metric.Float64Histogram
	BridgeIngestTotal     metric.Int64Counter
	BridgeIngestSkipped   metric.Int64Counter
	StorageBusyRetries    metric.Int64Counter
}

// New builds a Telemetry handle against a stdout-exporting MeterProvider by
// default, registering instruments once and reusing them for the life of
// the process, scoped to this handle instead of a package-global provider.
func New() (*Telemetry, error) {
	exporter, err := stdoutmetric.New(stdoutmetric.WithoutTimestamps())
	if err != nil {
		return nil, fmt.Errorf("telemetry: failed to build stdout exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
	)
	return newWithProvider(provider)
}

// NewWithProvider builds a Telemetry handle against a caller-supplied
// MeterProvider, for tests or for wiring an OTLP exporter in production.
func NewWithProvider(provider *sdkmetric.MeterProvider) (*Telemetry, error) {
	return newWithProvider(provider)
}

func newWithProvider(provider *sdkmetric.MeterProvider) (*Telemetry, error) {
	m := provider.Meter("github.com/ruizrica/drift-sub006/memengine")

	t := &Telemetry{provider: provider}
	var err error

	t.EventAppendTotal, err = m.Int64Counter("memengine.event.append_total",
		metric.WithDescription("Events appended to the event log"),
		metric.WithUnit("{event}"))
	if err != nil {
		return nil, err
	}
	t.EventAppendRetries, err = m.Int64Counter("memengine.event.append_retries",
		metric.WithDescription("Retries due to writer contention during event append"),
		metric.WithUnit("{retry}"))
	if err != nil {
		return nil, err
	}
	t.SnapshotCreatedTotal, err = m.Int64Counter("memengine.snapshot.created_total",
		metric.WithDescription("Snapshots created"),
		metric.WithUnit("{snapshot}"))
	if err != nil {
		return nil, err
	}
	t.ReconstructDurationMS, err = m.Float64Histogram("memengine.reconstruct.duration_ms",
		metric.WithDescription("Time to reconstruct a memory at a target instant"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	t.GroundingRunTotal, err = m.Int64Counter("memengine.grounding.run_total",
		metric.WithDescription("Grounding batch runs"),
		metric.WithUnit("{run}"))
	if err != nil {
		return nil, err
	}
	t.GroundingDurationMS, err = m.Float64Histogram("memengine.grounding.duration_ms",
		metric.WithDescription("Time to ground a single memory"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	t.BridgeIngestTotal, err = m.Int64Counter("memengine.bridge.ingest_total",
		metric.WithDescription("Analysis events translated into memories"),
		metric.WithUnit("{event}"))
	if err != nil {
		return nil, err
	}
	t.BridgeIngestSkipped, err = m.Int64Counter("memengine.bridge.ingest_skipped",
		metric.WithDescription("Analysis events skipped by dedup or license gating"),
		metric.WithUnit("{event}"))
	if err != nil {
		return nil, err
	}
	t.StorageBusyRetries, err = m.Int64Counter("memengine.storage.busy_retries",
		metric.WithDescription("Writer retries due to SQLITE_BUSY/SQLITE_LOCKED"),
		metric.WithUnit("{retry}"))
	if err != nil {
		return nil, err
	}

	return t, nil
}

// Shutdown flushes and stops the underlying MeterProvider.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil || t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}
