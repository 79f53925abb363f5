// Package storage is the single-writer/multi-reader SQLite substrate that
// every other component (eventstore, snapshot, bridge) builds on. Pool
// shape, pragma tuning, and connection-string construction follow the
// teacher's internal/storage package.
package storage

import (
	"fmt"
	"strings"

	"github.com/ruizrica/drift-sub006/internal/config"
)

// ConnString builds a modernc.org/sqlite DSN with the pragmas from
// StorageConfig baked in. Readers get query_only in addition; the writer
// does not.
func ConnString(path string, cfg config.StorageConfig, readOnly bool) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}

	var b strings.Builder
	b.WriteString("file:")
	b.WriteString(path)
	sep := "?"
	write := func(pragma string) {
		b.WriteString(sep)
		b.WriteString(pragma)
		sep = "&"
	}

	if readOnly {
		write("mode=ro")
		write("_pragma=query_only(1)")
	}
	if cfg.WAL {
		write("_pragma=journal_mode(WAL)")
	}
	if cfg.SyncNormal {
		write("_pragma=synchronous(NORMAL)")
	}
	if cfg.ForeignKeys {
		write("_pragma=foreign_keys(ON)")
	}
	write(fmt.Sprintf("_pragma=busy_timeout(%d)", cfg.BusyTimeoutMS))
	write(fmt.Sprintf("_pragma=cache_size(-%d)", cfg.CacheSizeKB))
	write(fmt.Sprintf("_pragma=mmap_size(%d)", cfg.MmapSizeBytes))
	if cfg.TempStoreMemory {
		write("_pragma=temp_store(MEMORY)")
	}
	return b.String()
}
