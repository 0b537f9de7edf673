package amqp

import (
	"testing"
	"time"

	"koinochrista/internal/core"
)

func TestNewLedgerEventMessage(t *testing.T) {
	msg := NewLedgerEventMessage(EventExpenseRecorded, 7, 42, core.Month{Year: 2025, Month: 7})

	if msg.Kind != EventExpenseRecorded {
		t.Errorf("NewLedgerEventMessage() Kind = %v, want %v", msg.Kind, EventExpenseRecorded)
	}
	if msg.BuildingID != 7 {
		t.Errorf("NewLedgerEventMessage() BuildingID = %v, want 7", msg.BuildingID)
	}
	if msg.RecordID != 42 {
		t.Errorf("NewLedgerEventMessage() RecordID = %v, want 42", msg.RecordID)
	}
	if msg.Timestamp.IsZero() {
		t.Error("NewLedgerEventMessage() Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("NewLedgerEventMessage() Timestamp should be recent")
	}
}

func TestLedgerEventMessage_JSON(t *testing.T) {
	timestamp := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	msg := &LedgerEventMessage{
		Kind:       EventPaymentRecorded,
		BuildingID: 3,
		RecordID:   99,
		Year:       2025,
		Month:      7,
		Timestamp:  timestamp,
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := LedgerEventMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("LedgerEventMessageFromJSON() error = %v", err)
	}

	if parsed.Kind != msg.Kind {
		t.Errorf("Parsed Kind = %v, want %v", parsed.Kind, msg.Kind)
	}
	if parsed.BuildingID != msg.BuildingID {
		t.Errorf("Parsed BuildingID = %v, want %v", parsed.BuildingID, msg.BuildingID)
	}
	if parsed.RecordID != msg.RecordID {
		t.Errorf("Parsed RecordID = %v, want %v", parsed.RecordID, msg.RecordID)
	}
	if !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsed.Timestamp, msg.Timestamp)
	}
	if got := parsed.EventMonth(); got != (core.Month{Year: 2025, Month: 7}) {
		t.Errorf("EventMonth() = %v, want 2025-07", got)
	}
}

func TestLedgerEventMessage_InvalidJSON(t *testing.T) {
	invalidJSON := []byte(`{"building_id": "not_a_number"}`)

	_, err := LedgerEventMessageFromJSON(invalidJSON)
	if err == nil {
		t.Error("LedgerEventMessageFromJSON() should fail with invalid JSON")
	}
}
