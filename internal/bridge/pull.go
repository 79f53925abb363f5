package bridge

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// AnalysisStatus summarizes a point-in-time read of the analysis store,
// the shape a host polls before deciding whether to pull fresh events.
type AnalysisStatus struct {
	LatestScanUnixSeconds *int64 `json:"latest_scan_unix_seconds"`
	MatchingPatternCount  int64  `json:"matching_pattern_count"`
}

// CountMatchingPatterns counts rows in the analysis store's
// pattern_confidence table whose pattern_id appears in patternIDs,
// chunking the IN-list into batches of maxChunkSize to stay within the
// transport's parameter-count limit (SQLite's default SQLITE_MAX_VARIABLE_NUMBER
// is 999; MySQL's placeholder limits are looser but the same batching keeps
// one code path for both transports).
func CountMatchingPatterns(ctx context.Context, t *Transport, patternIDs []string) (int64, error) {
	if len(patternIDs) == 0 {
		return 0, nil
	}

	var total int64
	table := t.TableName("pattern_confidence")
	for _, chunk := range ChunkStrings(patternIDs) {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",")
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE pattern_id IN (%s)", table, placeholders)

		args := make([]interface{}, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}

		var count int64
		if err := queryRowContext(ctx, t, query, args, &count); err != nil {
			if isNoSuchTable(err) {
				continue
			}
			return 0, fmt.Errorf("bridge: count matching patterns: %w", err)
		}
		total += count
	}
	return total, nil
}

// LatestScanTimestamp returns the most recent scan's unix timestamp from
// the analysis store's scan_history table, or nil if it has no rows yet
// (or the table doesn't exist — analysis stores may be provisioned before
// their first scan runs).
func LatestScanTimestamp(ctx context.Context, t *Transport) (*int64, error) {
	table := t.TableName("scan_history")
	query := fmt.Sprintf("SELECT MAX(created_at) FROM %s", table)

	var ts sql.NullInt64
	if err := queryRowContext(ctx, t, query, nil, &ts); err != nil {
		if isNoSuchTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("bridge: latest scan timestamp: %w", err)
	}
	if !ts.Valid {
		return nil, nil
	}
	return &ts.Int64, nil
}

// isNoSuchTable reports whether err came back from querying a table the
// analysis store hasn't created yet — treated as "no data" rather than a
// failure, since a store may be attached before its first scan runs.
func isNoSuchTable(err error) bool {
	return strings.Contains(err.Error(), "no such table")
}

// queryRowContext runs query over t's QueryContext and scans the first
// (and only) row into dest, using QueryContext rather than a dedicated
// QueryRowContext method since Transport must dispatch between the
// attach and mysql connection kinds uniformly.
func queryRowContext(ctx context.Context, t *Transport, query string, args []interface{}, dest interface{}) error {
	rows, err := t.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}
		return sql.ErrNoRows
	}
	if err := rows.Scan(dest); err != nil {
		return err
	}
	return rows.Err()
}
