package bridge

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrEventTypeGated is returned by Map, and propagated by IngestOne as an
// enginerr.KindConfiguration failure (not a skip), when the caller's license
// tier doesn't expose the requested analysis event type.
var ErrEventTypeGated = errors.New("bridge: event type not exposed at this license tier")

// AnalysisEvent is one row read from the external analysis store, already
// decoded into the shape the bridge understands. EntityID scopes
// deduplication: the same EventType with a different EntityID, or the same
// pair with different ExtraFields, is never treated as a duplicate.
type AnalysisEvent struct {
	EventType   AnalysisEventType
	EntityID    string
	Summary     string
	Confidence  *float64
	ExtraFields json.RawMessage
	OccurredAt  time.Time
}
