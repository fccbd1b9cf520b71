package amqp

import (
	"encoding/json"
	"time"
)

// Sync actions carried on the queue.
const (
	ActionUpsert = "upsert"
	ActionDelete = "delete"
)

// RecordSyncMessage is the lightweight queue payload for syncing one
// charging record to the export sheet. It carries only identifiers; the
// worker fetches the full record from the store.
type RecordSyncMessage struct {
	RecordID  string    `json:"recordId"`
	OwnerID   string    `json:"ownerId"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRecordSyncMessage creates a sync message for the given record.
func NewRecordSyncMessage(ownerID, recordID, action string) *RecordSyncMessage {
	return &RecordSyncMessage{
		RecordID:  recordID,
		OwnerID:   ownerID,
		Action:    action,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RecordSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordSyncMessageFromJSON creates a message from JSON bytes
func RecordSyncMessageFromJSON(data []byte) (*RecordSyncMessage, error) {
	var msg RecordSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
