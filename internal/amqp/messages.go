package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// EventKind names what happened to a goal.
type EventKind string

const (
	GoalCreated EventKind = "goal.created"
	GoalUpdated EventKind = "goal.updated"
)

func (k EventKind) Valid() bool {
	return k == GoalCreated || k == GoalUpdated
}

// GoalEventMessage carries only the goal id; consumers load the current
// record themselves.
type GoalEventMessage struct {
	ID        string    `json:"id"`
	GoalID    string    `json:"goal_id"`
	Kind      EventKind `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}

func NewGoalEventMessage(goalID string, kind EventKind) *GoalEventMessage {
	return &GoalEventMessage{
		ID:        uuid.NewString(),
		GoalID:    goalID,
		Kind:      kind,
		Timestamp: time.Now().UTC(),
	}
}

func (m *GoalEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// GoalEventMessageFromJSON decodes and sanity-checks a message body.
func GoalEventMessageFromJSON(data []byte) (*GoalEventMessage, error) {
	var msg GoalEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.GoalID == "" {
		return nil, errors.New("goal event without goal_id")
	}
	if !msg.Kind.Valid() {
		return nil, errors.New("unknown goal event kind " + string(msg.Kind))
	}
	return &msg, nil
}
