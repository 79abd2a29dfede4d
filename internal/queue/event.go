// Package queue defines message payloads exchanged over the message broker.
package queue

// Operation names carried in QueueChangedEvent.Op.
const (
	OpIssued    = "issued"
	OpClaimed   = "claimed"
	OpCompleted = "completed"
	OpSkipped   = "skipped"
)

// QueueChangedEvent is published whenever the verification queue
// mutates. It carries enough for downstream consumers to log or notify
// without querying the primary database.
type QueueChangedEvent struct {
	Op            string `json:"op"`
	TokenID       uint64 `json:"token_id"`
	TokenNumber   int    `json:"token_number"`
	StudentRollNo string `json:"student_roll_no"`
	VolunteerID   uint64 `json:"volunteer_id,omitempty"`
	At            string `json:"at"`
}
