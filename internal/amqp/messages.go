package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RecordKind names the kind of record an event refers to.
type RecordKind string

const (
	KindIncome         RecordKind = "income"
	KindTransaction    RecordKind = "transaction"
	KindVehicleService RecordKind = "vehicle_service"
)

// Action is what happened to the record.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
)

// RecordChangedMessage announces that a record was written. It carries only
// identifiers; consumers re-read the record and rebuild what they derive
// from it.
type RecordChangedMessage struct {
	EventID   string     `json:"event_id"`
	Kind      RecordKind `json:"kind"`
	ID        int64      `json:"id"`
	Action    Action     `json:"action"`
	Year      int        `json:"year,omitempty"`
	Month     int        `json:"month,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

func NewRecordChangedMessage(kind RecordKind, id int64, action Action) *RecordChangedMessage {
	return &RecordChangedMessage{
		EventID:   uuid.NewString(),
		Kind:      kind,
		ID:        id,
		Action:    action,
		Timestamp: time.Now().UTC(),
	}
}

// WithPeriod sets the month the record falls in, when it has one.
func (m *RecordChangedMessage) WithPeriod(year, month int) *RecordChangedMessage {
	m.Year, m.Month = year, month
	return m
}

func (m *RecordChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RecordChangedMessageFromJSON(data []byte) (*RecordChangedMessage, error) {
	var msg RecordChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Kind == "" || msg.ID <= 0 {
		return nil, fmt.Errorf("invalid record changed message: kind=%q id=%d", msg.Kind, msg.ID)
	}
	return &msg, nil
}
