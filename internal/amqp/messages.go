package amqp

import (
	"encoding/json"
	"time"
)

// Event operations carried on the expense event stream.
const (
	OpCreated = "created"
	OpUpdated = "updated"
	OpDeleted = "deleted"
)

// ExpenseEvent is a lightweight message describing a ledger write. It
// carries only identifiers; consumers fetch the full row from storage,
// so a stale message never overwrites fresher data.
type ExpenseEvent struct {
	Op        string    `json:"op"`
	ExpenseID string    `json:"expense_id"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExpenseEvent builds an event stamped with the current time.
func NewExpenseEvent(op, expenseID, userID string) *ExpenseEvent {
	return &ExpenseEvent{
		Op:        op,
		ExpenseID: expenseID,
		UserID:    userID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes.
func (e *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ExpenseEventFromJSON parses an event from JSON bytes.
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var e ExpenseEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
