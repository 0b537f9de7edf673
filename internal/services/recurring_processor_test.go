package services

import (
	"context"
	"testing"
	"time"

	"koinochrista/internal/core"
)

func TestRecurringProcessorMaterializesDueCharges(t *testing.T) {
	ctx := context.Background()
	store := seedStore()
	logger := testLogger()
	writes := NewLedgerService(store, nil, nil, logger)
	reads := NewStatementService(store, nil, logger)
	processor := NewRecurringProcessor(store, writes, logger)

	store.SeedRecurring(core.RecurringCharge{
		ID:          1,
		BuildingID:  1,
		CategoryID:  20,
		Amount:      core.Money{Cents: 9000},
		Every:       core.RepeatMonthly,
		StartDate:   core.NewDate(2025, 1, 5),
		Description: "elevator service contract",
	})

	now := time.Date(2025, 7, 5, 9, 0, 0, 0, time.UTC)
	processed, err := processor.ProcessDueCharges(ctx, now)
	if err != nil {
		t.Fatalf("ProcessDueCharges() error = %v", err)
	}
	if processed != 1 {
		t.Fatalf("processed = %d, want 1", processed)
	}

	st, err := reads.ComputeApartmentBalances(ctx, 1, core.Month{Year: 2025, Month: 7})
	if err != nil {
		t.Fatalf("ComputeApartmentBalances() error = %v", err)
	}
	// Equal split of 90.00 across three apartments.
	for _, line := range st.Apartments {
		if line.SharedShare.Cents != 3000 {
			t.Errorf("apartment %d shared share = %d, want 3000", line.ApartmentID, line.SharedShare.Cents)
		}
	}

	// A second run in the same month is a no-op.
	processed, err = processor.ProcessDueCharges(ctx, now.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("ProcessDueCharges() second run error = %v", err)
	}
	if processed != 0 {
		t.Errorf("second run processed = %d, want 0", processed)
	}
}

func TestRecurringProcessorSkipsChargesNotDue(t *testing.T) {
	ctx := context.Background()
	store := seedStore()
	logger := testLogger()
	processor := NewRecurringProcessor(store, NewLedgerService(store, nil, nil, logger), logger)

	store.SeedRecurring(core.RecurringCharge{
		ID:            1,
		BuildingID:    1,
		CategoryID:    20,
		Amount:        core.Money{Cents: 9000},
		Every:         core.RepeatMonthly,
		StartDate:     core.NewDate(2025, 1, 20),
		Description:   "elevator service contract",
		LastExecution: time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC),
	})

	// July 10th is before the anchor day.
	processed, err := processor.ProcessDueCharges(ctx, time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ProcessDueCharges() error = %v", err)
	}
	if processed != 0 {
		t.Errorf("processed = %d, want 0", processed)
	}
}
