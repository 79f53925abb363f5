package grounding

import (
	"context"
	"database/sql"

	"github.com/ruizrica/drift-sub006/internal/types"
)

// CollectorFunc queries the external analysis store for one evidence type.
// A nil *types.Evidence with a nil error means no data was found for ctx
// (the "None" outcome); a non-nil error means the collector failed (the
// "Err" outcome) — callers log and skip rather than failing the pipeline.
type CollectorFunc func(ctx context.Context, conn *sql.Conn, ec EvidenceContext) (*types.Evidence, error)

// Registry maps evidence types to their collector implementation.
type Registry map[types.EvidenceType]CollectorFunc

// DefaultRegistry returns the built-in collector for each of the twelve
// evidence types, querying the analysis-store tables named in the engine's
// external-interface contract (patterns, scan history, conventions,
// coverage, coupling, call-graph, error-handling, decisions, boundaries).
func DefaultRegistry() Registry {
	return Registry{
		types.EvidencePatternConfidence:    collectPatternConfidence,
		types.EvidencePatternOccurrence:    collectPatternOccurrence,
		types.EvidenceFalsePositiveRate:    collectFalsePositiveRate,
		types.EvidenceConstraintVerification: collectConstraintVerification,
		types.EvidenceCouplingMetric:       collectCouplingMetric,
		types.EvidenceDNAHealth:            collectDNAHealth,
		types.EvidenceTestCoverage:         collectTestCoverage,
		types.EvidenceErrorHandlingGaps:    collectErrorHandlingGaps,
		types.EvidenceDecisionEvidence:     collectDecisionEvidence,
		types.EvidenceBoundaryData:         collectBoundaryData,
		types.EvidenceTaintAnalysis:        collectTaintAnalysis,
		types.EvidenceCallGraphCoverage:    collectCallGraphCoverage,
	}
}

// CollectAll runs every collector in reg against conn for ec, skipping (and
// not reporting, beyond the returned skipped count) any None or Err outcome.
// If m already carries pre-populated evidence (the fast path: a caller that
// computed evidence up front, e.g. a test or an on-demand MCP check),
// preEvidence takes precedence over collector queries entirely.
func CollectAll(ctx context.Context, reg Registry, conn *sql.Conn, ec EvidenceContext, preEvidence []types.Evidence) ([]types.Evidence, int) {
	if len(preEvidence) > 0 {
		return preEvidence, 0
	}
	var (
		out     []types.Evidence
		skipped int
	)
	for _, et := range types.AllEvidenceTypes {
		collect, ok := reg[et]
		if !ok {
			continue
		}
		ev, err := collect(ctx, conn, ec)
		if err != nil || ev == nil {
			skipped++
			continue
		}
		out = append(out, *ev)
	}
	return out, skipped
}
