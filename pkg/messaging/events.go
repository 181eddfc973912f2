package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventTypeInstructionApplied  = "instruction.applied"
	EventTypeInstructionRejected = "instruction.rejected"
	EventTypeAccountSnapshot     = "account.snapshot"
)

// Instruction outcomes
const (
	StatusApplied  = "applied"
	StatusRejected = "rejected"
)

// DefaultSubjectPrefix is prepended to event types to form NATS subjects.
const DefaultSubjectPrefix = "ledger"

// Event is the envelope every published payload travels in
type Event struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// InstructionEvent describes the outcome of one instruction
type InstructionEvent struct {
	Kind   string `json:"kind"`
	Client uint16 `json:"client"`
	Tx     uint32 `json:"tx"`
	Amount string `json:"amount,omitempty"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// AccountSnapshotEvent carries the final balances of one account
type AccountSnapshotEvent struct {
	RunID     string `json:"run_id"`
	Client    uint16 `json:"client"`
	Available string `json:"available"`
	Held      string `json:"held"`
	Total     string `json:"total"`
	Locked    bool   `json:"locked"`
}

// NewEvent creates a new event
func NewEvent(eventType string, data interface{}, source string) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now().UTC(),
		Data:      dataBytes,
	}, nil
}

// ParseEventData parses event data into the specified type
func ParseEventData[T any](event *Event) (*T, error) {
	var data T
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Subject joins a prefix and an event type into a subject name.
func Subject(prefix, eventType string) string {
	if prefix == "" {
		return eventType
	}
	return prefix + "." + eventType
}
