package websocket

import "github.com/etepro/etepro-backend/internal/simulado"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionSelect   Action = "select"
	ActionNext     Action = "next"
	ActionPrevious Action = "previous"
	ActionJump     Action = "jump"
	ActionSubmit   Action = "submit"
	ActionPing     Action = "ping"
)

// RequestPayload carries every client action; fields unused by an action are
// left empty.
type RequestPayload struct {
	Action Action `json:"action"`
	QID    string `json:"q_id,omitempty"`
	Answer string `json:"ans,omitempty"`
	Index  *int   `json:"index,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState      Event = "state"
	EventTick       Event = "tick"
	EventSubmitting Event = "submitting"
	EventCompleted  Event = "completed"
	EventFailed     Event = "failed"
	EventError      Event = "error"
	EventPong       Event = "pong"
)

// StateResponse carries the full session view after any change.
type StateResponse struct {
	Event   Event          `json:"event"`
	Session *simulado.View `json:"session"`
}

type TickResponse struct {
	Event     Event `json:"event"`
	Remaining int   `json:"remaining"`
}

// ResultResponse is sent for completed and failed submissions. Error is set
// only for failed ones.
type ResultResponse struct {
	Event  Event             `json:"event"`
	Result *simulado.Outcome `json:"result"`
	Error  string            `json:"error,omitempty"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

// BareResponse is an event without a body (submitting, pong).
type BareResponse struct {
	Event Event `json:"event"`
}
