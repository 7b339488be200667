package collab

import (
	"sync"

	"github.com/inamate/timeline/backend-go/internal/command"
	"github.com/inamate/timeline/backend-go/internal/document"
	"github.com/inamate/timeline/backend-go/internal/engine"
)

// TimelineState is the authoritative timeline of one room. Operations from
// every collaborator are serialised through it in arrival order.
type TimelineState struct {
	mu        sync.Mutex
	eng       *engine.Engine
	serverSeq int64
	opLog     []OperationBroadcastPayload
	maxLog    int
}

const defaultOpLogSize = 1000

func NewTimelineState(eng *engine.Engine) *TimelineState {
	return &TimelineState{
		eng:    eng,
		opLog:  make([]OperationBroadcastPayload, 0),
		maxLog: defaultOpLogSize,
	}
}

// ApplyOperation runs op for userID against the engine. Accepted
// operations get the next server sequence number and enter the op log as
// the entry that is broadcast to the room; rejected ones leave both
// untouched.
func (ts *TimelineState) ApplyOperation(userID string, op command.Operation) (OperationBroadcastPayload, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	res, err := command.Apply(ts.eng, op)
	if err != nil {
		return OperationBroadcastPayload{}, err
	}

	ts.serverSeq++
	entry := OperationBroadcastPayload{
		Operation: op,
		UserID:    userID,
		ServerSeq: ts.serverSeq,
		Result:    res,
	}
	ts.opLog = append(ts.opLog, entry)
	if len(ts.opLog) > ts.maxLog {
		ts.opLog = ts.opLog[len(ts.opLog)-ts.maxLog:]
	}
	return entry, nil
}

// Snapshot returns the current state and the sequence number it reflects.
func (ts *TimelineState) Snapshot() (engine.State, int64) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.eng.State(), ts.serverSeq
}

func (ts *TimelineState) ServerSeq() int64 {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.serverSeq
}

// OpsSince returns logged operations with a sequence number greater than
// seq, oldest first, and the current server sequence. ok is false when the
// log no longer reaches back that far, or seq is ahead of the server, and
// the caller needs a full snapshot instead.
func (ts *TimelineState) OpsSince(seq int64) ([]OperationBroadcastPayload, int64, bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	first := ts.serverSeq - int64(len(ts.opLog)) + 1
	if seq+1 < first || seq > ts.serverSeq {
		return nil, ts.serverSeq, false
	}
	start := int(seq + 1 - first)
	return append([]OperationBroadcastPayload{}, ts.opLog[start:]...), ts.serverSeq, true
}

// PositionSuggestions places overlay markers against the current viewport.
func (ts *TimelineState) PositionSuggestions(in []document.Suggestion) []engine.PlacedSuggestion {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.eng.PositionSuggestions(in)
}
