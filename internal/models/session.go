package models

import "time"

// TurnState is a step of the per-turn state machine.
type TurnState string

const (
	TurnIdle           TurnState = "idle"
	TurnValidating     TurnState = "validating"
	TurnBlocked        TurnState = "blocked"
	TurnBuilding       TurnState = "building"
	TurnSending        TurnState = "sending"
	TurnAppended       TurnState = "appended"
	TurnFailedNoAppend TurnState = "failed_no_append"
)

// TurnEvent is the journal record of one finished turn. It holds metadata
// only, never transcript text.
type TurnEvent struct {
	ID          int64     `json:"id"`
	SessionID   string    `json:"session_id"`
	State       TurnState `json:"state"`
	FileKind    string    `json:"file_kind,omitempty"`
	ErrorKind   string    `json:"error_kind,omitempty"`
	ErrorDetail string    `json:"error_detail,omitempty"`
	DurationMS  int64     `json:"duration_ms"`
	CreatedAt   time.Time `json:"created_at"`
}
