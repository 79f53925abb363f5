package grounding

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ruizrica/drift-sub006/internal/types"
)

// queryFloat runs query (expected to return exactly one float column) and
// returns nil, nil for "no data" — either no matching row, or the table
// itself doesn't exist in the attached analysis store, which the engine
// treats as absence of data rather than a collector failure.
func queryFloat(ctx context.Context, conn *sql.Conn, query string, args ...interface{}) (*float64, error) {
	var v float64
	err := conn.QueryRowContext(ctx, query, args...).Scan(&v)
	switch {
	case err == nil:
		return &v, nil
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case strings.Contains(err.Error(), "no such table"):
		return nil, nil
	default:
		return nil, fmt.Errorf("grounding: query evidence: %w", err)
	}
}

func evidence(et types.EvidenceType, desc string, driftValue float64, claim *float64, support float64) *types.Evidence {
	return &types.Evidence{
		Type:         et,
		Description:  desc,
		DriftValue:   driftValue,
		MemoryClaim:  claim,
		SupportScore: clamp01(support),
		Weight:       et.DefaultWeight(),
	}
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func collectPatternConfidence(ctx context.Context, conn *sql.Conn, ec EvidenceContext) (*types.Evidence, error) {
	if ec.PatternID == "" {
		return nil, nil
	}
	v, err := queryFloat(ctx, conn, `SELECT confidence FROM analysis.patterns WHERE pattern_id = ?`, ec.PatternID)
	if err != nil || v == nil {
		return nil, err
	}
	claim := ec.CurrentConfidence
	support := 1 - absf(*v-claim)
	return evidence(types.EvidencePatternConfidence,
		fmt.Sprintf("pattern %s confidence %.2f vs memory claim %.2f", ec.PatternID, *v, claim),
		*v, &claim, support), nil
}

func collectPatternOccurrence(ctx context.Context, conn *sql.Conn, ec EvidenceContext) (*types.Evidence, error) {
	if ec.PatternID == "" {
		return nil, nil
	}
	v, err := queryFloat(ctx, conn, `SELECT occurrence_rate FROM analysis.patterns WHERE pattern_id = ?`, ec.PatternID)
	if err != nil || v == nil {
		return nil, err
	}
	return evidence(types.EvidencePatternOccurrence,
		fmt.Sprintf("pattern %s occurs in %.0f%% of scanned files", ec.PatternID, *v*100), *v, nil, *v), nil
}

func collectFalsePositiveRate(ctx context.Context, conn *sql.Conn, ec EvidenceContext) (*types.Evidence, error) {
	if ec.PatternID == "" {
		return nil, nil
	}
	v, err := queryFloat(ctx, conn, `SELECT false_positive_rate FROM analysis.patterns WHERE pattern_id = ?`, ec.PatternID)
	if err != nil || v == nil {
		return nil, err
	}
	return evidence(types.EvidenceFalsePositiveRate,
		fmt.Sprintf("pattern %s false-positive rate %.2f", ec.PatternID, *v), *v, nil, 1-*v), nil
}

func collectConstraintVerification(ctx context.Context, conn *sql.Conn, ec EvidenceContext) (*types.Evidence, error) {
	if ec.ConstraintID == "" {
		return nil, nil
	}
	v, err := queryFloat(ctx, conn, `SELECT CAST(verified AS REAL) FROM analysis.constraints WHERE constraint_id = ?`, ec.ConstraintID)
	if err != nil || v == nil {
		return nil, err
	}
	return evidence(types.EvidenceConstraintVerification,
		fmt.Sprintf("constraint %s verified=%v", ec.ConstraintID, *v != 0), *v, nil, *v), nil
}

func collectCouplingMetric(ctx context.Context, conn *sql.Conn, ec EvidenceContext) (*types.Evidence, error) {
	if ec.ModulePath == "" {
		return nil, nil
	}
	v, err := queryFloat(ctx, conn, `SELECT coupling_score FROM analysis.coupling WHERE module_path = ?`, ec.ModulePath)
	if err != nil || v == nil {
		return nil, err
	}
	return evidence(types.EvidenceCouplingMetric,
		fmt.Sprintf("module %s coupling score %.2f", ec.ModulePath, *v), *v, nil, 1-*v), nil
}

func collectDNAHealth(ctx context.Context, conn *sql.Conn, ec EvidenceContext) (*types.Evidence, error) {
	if ec.ModulePath == "" && ec.Project == "" {
		return nil, nil
	}
	key := ec.ModulePath
	if key == "" {
		key = ec.Project
	}
	v, err := queryFloat(ctx, conn, `SELECT health_score FROM analysis.dna_health WHERE module_path = ?`, key)
	if err != nil || v == nil {
		return nil, err
	}
	return evidence(types.EvidenceDNAHealth, fmt.Sprintf("%s DNA health %.2f", key, *v), *v, nil, *v), nil
}

func collectTestCoverage(ctx context.Context, conn *sql.Conn, ec EvidenceContext) (*types.Evidence, error) {
	if ec.FilePath == "" && ec.ModulePath == "" {
		return nil, nil
	}
	key := ec.FilePath
	if key == "" {
		key = ec.ModulePath
	}
	v, err := queryFloat(ctx, conn, `SELECT coverage_pct FROM analysis.coverage WHERE file_path = ?`, key)
	if err != nil || v == nil {
		return nil, err
	}
	return evidence(types.EvidenceTestCoverage, fmt.Sprintf("%s test coverage %.0f%%", key, *v*100), *v, nil, *v), nil
}

func collectErrorHandlingGaps(ctx context.Context, conn *sql.Conn, ec EvidenceContext) (*types.Evidence, error) {
	if ec.FilePath == "" {
		return nil, nil
	}
	v, err := queryFloat(ctx, conn, `SELECT CAST(gap_count AS REAL) FROM analysis.error_handling WHERE file_path = ?`, ec.FilePath)
	if err != nil || v == nil {
		return nil, err
	}
	return evidence(types.EvidenceErrorHandlingGaps,
		fmt.Sprintf("%s has %.0f unhandled error paths", ec.FilePath, *v), *v, nil, 1-(*v)/10), nil
}

func collectDecisionEvidence(ctx context.Context, conn *sql.Conn, ec EvidenceContext) (*types.Evidence, error) {
	if ec.DecisionID == "" {
		return nil, nil
	}
	v, err := queryFloat(ctx, conn, `SELECT outcome_score FROM analysis.decisions WHERE decision_id = ?`, ec.DecisionID)
	if err != nil || v == nil {
		return nil, err
	}
	return evidence(types.EvidenceDecisionEvidence,
		fmt.Sprintf("decision %s outcome score %.2f", ec.DecisionID, *v), *v, nil, *v), nil
}

func collectBoundaryData(ctx context.Context, conn *sql.Conn, ec EvidenceContext) (*types.Evidence, error) {
	if ec.BoundaryID == "" {
		return nil, nil
	}
	v, err := queryFloat(ctx, conn, `SELECT confidence FROM analysis.boundaries WHERE boundary_id = ?`, ec.BoundaryID)
	if err != nil || v == nil {
		return nil, err
	}
	return evidence(types.EvidenceBoundaryData,
		fmt.Sprintf("boundary %s confidence %.2f", ec.BoundaryID, *v), *v, nil, *v), nil
}

func collectTaintAnalysis(ctx context.Context, conn *sql.Conn, ec EvidenceContext) (*types.Evidence, error) {
	if ec.FilePath == "" {
		return nil, nil
	}
	v, err := queryFloat(ctx, conn, `SELECT CAST(unsanitized_count AS REAL) FROM analysis.taint_analysis WHERE file_path = ?`, ec.FilePath)
	if err != nil || v == nil {
		return nil, err
	}
	return evidence(types.EvidenceTaintAnalysis,
		fmt.Sprintf("%s has %.0f unsanitized data-flow sites", ec.FilePath, *v), *v, nil, 1-(*v)/5), nil
}

func collectCallGraphCoverage(ctx context.Context, conn *sql.Conn, ec EvidenceContext) (*types.Evidence, error) {
	key := ec.FunctionID
	if key == "" {
		key = ec.FilePath
	}
	if key == "" {
		return nil, nil
	}
	v, err := queryFloat(ctx, conn, `SELECT resolved_ratio FROM analysis.call_graph WHERE function_id = ? OR file_path = ?`, key, key)
	if err != nil || v == nil {
		return nil, err
	}
	return evidence(types.EvidenceCallGraphCoverage,
		fmt.Sprintf("%s call graph resolved ratio %.2f", key, *v), *v, nil, *v), nil
}

func absf(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
