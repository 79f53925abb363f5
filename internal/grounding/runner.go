package grounding

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ruizrica/drift-sub006/internal/causal"
	"github.com/ruizrica/drift-sub006/internal/config"
	"github.com/ruizrica/drift-sub006/internal/eventstore"
	"github.com/ruizrica/drift-sub006/internal/snapshot"
	"github.com/ruizrica/drift-sub006/internal/types"
)

const defaultConcurrency = 5

// Runner executes the four-phase grounding pipeline — evidence collection,
// scoring, verdict + confidence adjustment, optional contradiction emission
// — against one memory at a time, and batches many memories behind a
// bounded worker pool, split as a per-item method plus a channel-fed
// worker-pool batch wrapper.
type Runner struct {
	events      *eventstore.Store
	snaps       *snapshot.Store
	history     *History
	causalStore *causal.Store // optional: nil skips causal edge creation
	registry    Registry
	cfg         config.GroundingConfig
	concurrency int
}

// NewRunner builds a Runner. causalStore may be nil if the caller doesn't
// want grounding results to also create causal edges.
func NewRunner(events *eventstore.Store, snaps *snapshot.Store, history *History, causalStore *causal.Store, cfg config.GroundingConfig) *Runner {
	return &Runner{
		events: events, snaps: snaps, history: history, causalStore: causalStore,
		registry: DefaultRegistry(), cfg: cfg, concurrency: defaultConcurrency,
	}
}

// GroundResult pairs a grounding record with the memory it was computed
// for, and the contradiction memory ID if one was generated.
type GroundResult struct {
	Memory          *types.Memory
	Record          *types.GroundingRecord
	ContradictionID string
	Err             error
}

// GroundSingle runs the full pipeline for one memory and persists its
// effects: a grounding_records row, a validated event, a confidence-changed
// event + snapshot if confidence moved, and a contradiction memory when
// warranted. analysisConn may be nil — collectors then uniformly report no
// data, which yields an insufficient-data verdict, exactly as if every
// table were missing.
func (r *Runner) GroundSingle(ctx context.Context, analysisConn *sql.Conn, m *types.Memory, preEvidence []types.Evidence) (*GroundResult, error) {
	start := time.Now()

	ec := BuildContext(m)
	var evidence []types.Evidence
	if analysisConn != nil || len(preEvidence) > 0 {
		evidence, _ = CollectAll(ctx, r.registry, analysisConn, ec, preEvidence)
	}
	evidence = ApplyWeights(evidence, &r.cfg)

	score, ok := Score(evidence)
	verdict, generatesContradiction := ClassifyVerdict(score, ok)
	newConfidence, adjustment := AdjustConfidence(m.Confidence, verdict, score, r.cfg)

	prev, err := r.history.Previous(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	var scoreDelta *float64
	if prev != nil {
		d := score - *prev
		scoreDelta = &d
	}

	record := &types.GroundingRecord{
		ID:                     uuid.NewString(),
		MemoryID:               m.ID,
		Verdict:                verdict,
		GroundingScore:         score,
		PreviousScore:          prev,
		ScoreDelta:             scoreDelta,
		Evidence:               evidence,
		ConfidenceAdjustment:   adjustment,
		GeneratesContradiction: generatesContradiction,
		DurationMS:             time.Since(start).Milliseconds(),
	}
	if err := r.history.Insert(ctx, record); err != nil {
		return nil, err
	}

	if err := r.recordValidation(ctx, m, newConfidence); err != nil {
		return nil, err
	}

	var contradictionID string
	if generatesContradiction {
		contradictionID, err = GenerateContradiction(ctx, r.events, r.snaps, m, record)
		if err != nil {
			return nil, err
		}
		if contradictionID != "" && r.causalStore != nil {
			if _, err := r.causalStore.AddGroundingEdge(ctx, m.ID, contradictionID, score); err != nil {
				return nil, fmt.Errorf("grounding: add causal edge: %w", err)
			}
		}
	}

	return &GroundResult{Memory: m, Record: record, ContradictionID: contradictionID}, nil
}

// recordValidation appends the EventValidated marker (grounding ran; detail
// lives in grounding_records) and, if confidence actually moved, an
// EventConfidenceChanged event plus a fresh snapshot carrying the new value.
func (r *Runner) recordValidation(ctx context.Context, m *types.Memory, newConfidence float64) error {
	if _, err := r.events.Append(ctx, &types.MemoryEvent{
		MemoryID: m.ID, Kind: types.EventValidated, Delta: json.RawMessage("{}"),
		Actor: types.Actor{Type: types.ActorSystem, ID: "grounding"},
	}); err != nil {
		return fmt.Errorf("grounding: append validated event: %w", err)
	}
	if newConfidence == m.Confidence {
		return nil
	}
	delta, err := json.Marshal(struct {
		New float64 `json:"new"`
	}{New: newConfidence})
	if err != nil {
		return fmt.Errorf("grounding: encode confidence delta: %w", err)
	}
	eventID, err := r.events.Append(ctx, &types.MemoryEvent{
		MemoryID: m.ID, Kind: types.EventConfidenceChanged, Delta: delta,
		Actor: types.Actor{Type: types.ActorSystem, ID: "grounding"},
	})
	if err != nil {
		return fmt.Errorf("grounding: append confidence-changed event: %w", err)
	}
	updated := m.Clone()
	updated.Confidence = newConfidence
	if _, err := r.snaps.Create(ctx, updated, eventID, types.SnapshotOnDemand); err != nil {
		return fmt.Errorf("grounding: snapshot after confidence change: %w", err)
	}
	m.Confidence = newConfidence
	return nil
}

// RunBatch grounds up to cfg.MaxMemoriesPerLoop memories from candidates
// through a bounded worker pool, tallying a GroundingSnapshot as it goes.
// Individual failures are collected and do not abort the loop.
func (r *Runner) RunBatch(ctx context.Context, candidates []*types.Memory, analysisConn *sql.Conn, trigger types.TriggerType) (*types.GroundingSnapshot, []error) {
	start := time.Now()
	snap := &types.GroundingSnapshot{Trigger: trigger}

	if len(candidates) > r.cfg.MaxMemoriesPerLoop {
		candidates = candidates[:r.cfg.MaxMemoriesPerLoop]
	}

	var groundable []*types.Memory
	for _, m := range candidates {
		if types.ClassifyGroundability(m.Kind) == types.GroundabilityNone {
			snap.NotGroundable++
			continue
		}
		groundable = append(groundable, m)
	}

	results := r.groundConcurrently(ctx, analysisConn, groundable)

	var errs []error
	var scoreSum float64
	var scored int
	for _, res := range results {
		if res.Err != nil {
			errs = append(errs, res.Err)
			snap.ErrorCount++
			continue
		}
		snap.TotalChecked++
		switch res.Record.Verdict {
		case types.VerdictValidated:
			snap.Validated++
		case types.VerdictPartial:
			snap.Partial++
		case types.VerdictWeak:
			snap.Weak++
		case types.VerdictInvalidated:
			snap.Invalidated++
		case types.VerdictInsufficient:
			snap.InsufficientData++
		}
		if res.Record.Verdict != types.VerdictInsufficient {
			scoreSum += res.Record.GroundingScore
			scored++
		}
		if res.ContradictionID != "" {
			snap.ContradictionsGenerated++
		}
	}
	if scored > 0 {
		snap.AvgGroundingScore = scoreSum / float64(scored)
	}
	snap.DurationMS = time.Since(start).Milliseconds()
	return snap, errs
}

func (r *Runner) groundConcurrently(ctx context.Context, analysisConn *sql.Conn, memories []*types.Memory) []*GroundResult {
	if len(memories) == 0 {
		return nil
	}
	workCh := make(chan *types.Memory, len(memories))
	resultCh := make(chan *GroundResult, len(memories))

	concurrency := r.concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range workCh {
				if ctx.Err() != nil {
					resultCh <- &GroundResult{Memory: m, Err: ctx.Err()}
					continue
				}
				res, err := r.GroundSingle(ctx, analysisConn, m, nil)
				if err != nil {
					resultCh <- &GroundResult{Memory: m, Err: err}
					continue
				}
				resultCh <- res
			}
		}()
	}

	for _, m := range memories {
		workCh <- m
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	out := make([]*GroundResult, 0, len(memories))
	for res := range resultCh {
		out = append(out, res)
	}
	return out
}
