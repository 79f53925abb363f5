// Package enginerr is the typed error taxonomy shared across the memory
// engine. Every error that crosses a package boundary is wrapped into an
// *Error so callers can branch on recovery behavior instead of string
// matching.
package enginerr

import (
	"errors"
	"fmt"
)

// Kind classifies an error by how a caller should react to it.
type Kind string

const (
	// KindTransient indicates the operation can be retried as-is (lock
	// contention, a busy connection, a timed-out context).
	KindTransient Kind = "transient"
	// KindUnavailable indicates a dependency (storage, bridge source,
	// telemetry exporter) is down and retries should back off longer.
	KindUnavailable Kind = "unavailable"
	// KindConfiguration indicates bad input that will never succeed on
	// retry without operator intervention.
	KindConfiguration Kind = "configuration"
	// KindData indicates the stored or requested data itself is invalid,
	// missing, or violates an invariant (no such memory, no such state).
	KindData Kind = "data"
	// KindBestEffort indicates the operation is allowed to fail silently
	// from the caller's perspective (e.g. a single grounding evidence
	// collector erroring out of twelve).
	KindBestEffort Kind = "best-effort"
)

// Error is the engine-wide structured error type.
type Error struct {
	Kind   Kind
	Code   string
	Op     string
	Entity string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Code)
	if e.Entity != "" {
		msg = fmt.Sprintf("%s %s: %s", e.Op, e.Entity, e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match on Kind+Code without comparing Err, and compares
// Entity only when the target sets one, so callers can do
// errors.Is(err, enginerr.ErrNoSuchMemory) against a sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Entity != "" && t.Entity != e.Entity {
		return false
	}
	return t.Kind == e.Kind && t.Code == e.Code
}

// New constructs an *Error.
func New(kind Kind, op, code string, err error) *Error {
	return &Error{Kind: kind, Op: op, Code: code, Err: err}
}

// WithEntity attaches an entity identifier (a memory ID, a store name) for
// logging and for Is-comparison scoping.
func (e *Error) WithEntity(entity string) *Error {
	cp := *e
	cp.Entity = entity
	return &cp
}

// Sentinels used with errors.Is. Construct comparable instances with Entity
// left blank so Is ignores it.
var (
	ErrNoSuchMemory          = &Error{Kind: KindData, Code: "no_such_memory"}
	ErrNoSuchState           = &Error{Kind: KindData, Code: "no_such_state"}
	ErrImmutableField        = &Error{Kind: KindData, Code: "immutable_field"}
	ErrLateArrivalRejected   = &Error{Kind: KindData, Code: "late_arrival_rejected"}
	ErrFutureClaimDisallowed = &Error{Kind: KindConfiguration, Code: "future_claim_disallowed"}
	ErrCyclicEdge            = &Error{Kind: KindData, Code: "cyclic_causal_edge"}
	ErrNotGroundable         = &Error{Kind: KindBestEffort, Code: "not_groundable"}
	ErrBusy                  = &Error{Kind: KindTransient, Code: "storage_busy"}
	ErrCorrupt               = &Error{Kind: KindUnavailable, Code: "storage_corrupt"}
	ErrBridgeUnavailable     = &Error{Kind: KindUnavailable, Code: "bridge_unavailable"}
	ErrLicenseGated          = &Error{Kind: KindConfiguration, Code: "license_gated"}
)

// IsTransient reports whether err (or any wrapped *Error) is retryable as-is.
func IsTransient(err error) bool { return kindIs(err, KindTransient) }

// IsUnavailable reports whether a dependency behind err is down.
func IsUnavailable(err error) bool { return kindIs(err, KindUnavailable) }

// IsBestEffort reports whether err may be logged and swallowed by a caller
// that's aggregating partial results (e.g. one evidence collector of twelve).
func IsBestEffort(err error) bool { return kindIs(err, KindBestEffort) }

// IsConfiguration reports whether err stems from bad input or a disallowed
// operation that retrying won't fix without operator intervention (e.g. a
// license tier that doesn't expose the requested event type).
func IsConfiguration(err error) bool { return kindIs(err, KindConfiguration) }

// IsData reports whether err stems from the stored or requested data itself
// violating an invariant (no such memory, a late arrival with a non-past
// valid_time).
func IsData(err error) bool { return kindIs(err, KindData) }

func kindIs(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}
