package eventstore

import "github.com/ruizrica/drift-sub006/internal/types"

// Upcaster migrates an event recorded under an older schema version to the
// current one before Apply sees it. The registry is applied in order on
// every read, not on write — old rows are never rewritten in place.
type Upcaster interface {
	CanUpcast(kind types.EventKind, schemaVersion uint16) bool
	Upcast(ev *types.MemoryEvent) *types.MemoryEvent
}

// UpcasterRegistry holds the ordered chain of upcasters applied on read.
type UpcasterRegistry struct {
	upcasters []Upcaster
}

// NewUpcasterRegistry builds an empty registry.
func NewUpcasterRegistry() *UpcasterRegistry {
	return &UpcasterRegistry{}
}

// DefaultUpcasterRegistry builds a registry seeded with the identity
// upcaster for schema version 1, the only version that exists today. New
// schema versions register their own upcaster here as they're introduced.
func DefaultUpcasterRegistry() *UpcasterRegistry {
	r := NewUpcasterRegistry()
	r.Register(v1IdentityUpcaster{})
	return r
}

// Register appends an upcaster to the chain.
func (r *UpcasterRegistry) Register(u Upcaster) {
	r.upcasters = append(r.upcasters, u)
}

// Upcast runs ev through every applicable upcaster in order. Events already
// at the current schema version pass through untouched (fast path).
func (r *UpcasterRegistry) Upcast(ev *types.MemoryEvent) *types.MemoryEvent {
	if ev.SchemaVersion >= types.CurrentSchemaVersion {
		return ev
	}
	for _, u := range r.upcasters {
		if u.CanUpcast(ev.Kind, ev.SchemaVersion) {
			ev = u.Upcast(ev)
		}
	}
	return ev
}

// v1IdentityUpcaster is a no-op upcaster for the initial schema version —
// it exists so the registry is never empty and so the pattern for adding a
// real upcaster (schema version 2+) is already in place.
type v1IdentityUpcaster struct{}

func (v1IdentityUpcaster) CanUpcast(_ types.EventKind, schemaVersion uint16) bool {
	return schemaVersion < 1
}

func (v1IdentityUpcaster) Upcast(ev *types.MemoryEvent) *types.MemoryEvent {
	ev.SchemaVersion = 1
	return ev
}
