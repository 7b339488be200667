package collab

import (
	"encoding/json"
	"log/slog"

	"github.com/inamate/timeline/backend-go/internal/command"
	"github.com/inamate/timeline/backend-go/internal/engine"
)

// Message is the websocket envelope. The server stamps ProjectID, ClientID
// and UserID on inbound messages; clients never choose them.
type Message struct {
	Type      string          `json:"type"`
	ProjectID string          `json:"projectId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	UserID    string          `json:"userId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

const (
	// Connection
	TypeWelcome = "welcome"
	TypeError   = "error"

	// Timeline sync
	TypeStateSync    = "state.sync"
	TypeStateRequest = "state.request"
	TypeStateOps     = "state.ops"

	TypeOpSubmit    = "op.submit"
	TypeOpAck       = "op.ack"
	TypeOpNack      = "op.nack"
	TypeOpBroadcast = "op.broadcast"

	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
)

type WelcomePayload struct {
	ClientID    string `json:"clientId"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	ProjectID   string `json:"projectId"`
}

// StateSyncPayload is a full timeline snapshot at ServerSeq.
type StateSyncPayload struct {
	State     engine.State `json:"state"`
	ServerSeq int64        `json:"serverSeq"`
}

// StateRequestPayload asks for a resync. With SinceSeq set the server
// replies with the missed operations (state.ops) when its log still holds
// them, and with a full snapshot otherwise.
type StateRequestPayload struct {
	SinceSeq *int64 `json:"sinceSeq,omitempty"`
}

// StateOpsPayload replays the broadcasts after a client's last seen
// sequence number, oldest first.
type StateOpsPayload struct {
	Operations []OperationBroadcastPayload `json:"operations"`
	ServerSeq  int64                       `json:"serverSeq"`
}

type OperationSubmitPayload struct {
	Operation command.Operation `json:"operation"`
}

type OperationAckPayload struct {
	OperationID     string         `json:"operationId"`
	ServerSeq       int64          `json:"serverSeq"`
	ServerTimestamp int64          `json:"serverTimestamp"`
	Result          command.Result `json:"result"`
}

// OperationNackPayload reports a rejected operation. Code is one of the
// command.Code values.
type OperationNackPayload struct {
	OperationID string `json:"operationId"`
	Code        string `json:"code"`
	Reason      string `json:"reason"`
}

// OperationBroadcastPayload is an accepted operation as other clients see
// it. Result carries the ids the server assigned, so peers apply the same
// clips and tracks the submitter got in its ack.
type OperationBroadcastPayload struct {
	Operation command.Operation `json:"operation"`
	UserID    string            `json:"userId"`
	ServerSeq int64             `json:"serverSeq"`
	Result    command.Result    `json:"result"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// PresencePayload is a collaborator's pointer, selection and playhead as
// they see it locally.
type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	Selection   []string   `json:"selection,omitempty"`
	Playhead    *float64   `json:"playhead,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
}

type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}

// newMessage marshals payload into an envelope of type typ.
func newMessage(typ string, payload any) *Message {
	raw, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal payload", "type", typ, "error", err)
	}
	return &Message{Type: typ, Payload: raw}
}
