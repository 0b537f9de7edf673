package amqp

import (
	"encoding/json"
	"time"

	"koinochrista/internal/core"
)

// Ledger event kinds.
const (
	EventExpenseRecorded = "expense_recorded"
	EventIncomeRecorded  = "income_recorded"
	EventPaymentRecorded = "payment_recorded"
	EventReserveRecorded = "reserve_recorded"
)

// LedgerEventMessage announces a new ledger row for (building, month).
// Consumers use it to invalidate cached statements for that month and every
// later month, and to refresh downstream exports. It carries only the row ID
// and scope; consumers re-read the ledger for full data.
type LedgerEventMessage struct {
	Kind       string    `json:"kind"`
	BuildingID int64     `json:"building_id"`
	RecordID   int64     `json:"record_id"`
	Year       int       `json:"year"`
	Month      int       `json:"month"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewLedgerEventMessage creates an event for a row dated in month m.
func NewLedgerEventMessage(kind string, buildingID, recordID int64, m core.Month) *LedgerEventMessage {
	return &LedgerEventMessage{
		Kind:       kind,
		BuildingID: buildingID,
		RecordID:   recordID,
		Year:       m.Year,
		Month:      m.Month,
		Timestamp:  time.Now(),
	}
}

// EventMonth returns the month the recorded row is dated in.
func (m *LedgerEventMessage) EventMonth() core.Month {
	return core.Month{Year: m.Year, Month: m.Month}
}

// ToJSON converts the message to JSON bytes.
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventMessageFromJSON creates a message from JSON bytes.
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
