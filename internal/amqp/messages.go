package amqp

import (
	"encoding/json"
	"time"
)

// RecomputeRequestedMessage asks the worker to rebuild one owner's analytics
// aggregate. It carries only identifiers; the worker loads the snapshot from
// the database so a stale message body can never publish stale data.
type RecomputeRequestedMessage struct {
	OwnerID   string    `json:"ownerId"`
	RunID     string    `json:"runId"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRecomputeRequestedMessage creates a recompute request for an owner.
func NewRecomputeRequestedMessage(ownerID, runID, reason string) *RecomputeRequestedMessage {
	return &RecomputeRequestedMessage{
		OwnerID:   ownerID,
		RunID:     runID,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *RecomputeRequestedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecomputeRequestedMessageFromJSON creates a message from JSON bytes.
func RecomputeRequestedMessageFromJSON(data []byte) (*RecomputeRequestedMessage, error) {
	var msg RecomputeRequestedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
