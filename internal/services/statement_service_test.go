package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"koinochrista/internal/cache"
	"koinochrista/internal/core"
	"koinochrista/internal/ledger/memory"
	"koinochrista/internal/log"
)

func testLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func seedStore() *memory.Store {
	store := memory.New()
	store.SeedBuilding(core.Building{ID: 1, Name: "Odos Ermou 12", MillsTotal: 1000}, []core.Apartment{
		{ID: 1, BuildingID: 1, Number: "A1", Mills: 500},
		{ID: 2, BuildingID: 1, Number: "B1", Mills: 300},
		{ID: 3, BuildingID: 1, Number: "B2", Mills: 200},
	})
	store.SeedCategories([]core.ExpenseCategory{
		{ID: 10, Name: "Cleaning", GroupType: core.GroupOperational, Pool: core.PoolResident, Method: core.DistributeMills},
		{ID: 20, Name: "Elevator maintenance", GroupType: core.GroupSuppliers, Pool: core.PoolShared, Method: core.DistributeEqual},
	})
	return store
}

func TestStatementServiceComputeAndCache(t *testing.T) {
	ctx := context.Background()
	store := seedStore()
	c := cache.NewStatementCache(32, time.Minute)
	logger := testLogger()
	writes := NewLedgerService(store, c, nil, logger)
	reads := NewStatementService(store, c, logger)

	jul := core.Month{Year: 2025, Month: 7}
	if _, err := writes.RecordExpense(ctx, core.Expense{
		BuildingID:  1,
		CategoryID:  10,
		Amount:      core.Money{Cents: 13000},
		Date:        core.NewDate(2025, 7, 10),
		Description: "stairwell cleaning",
	}); err != nil {
		t.Fatalf("RecordExpense() error = %v", err)
	}

	st, err := reads.ComputeApartmentBalances(ctx, 1, jul)
	if err != nil {
		t.Fatalf("ComputeApartmentBalances() error = %v", err)
	}
	if len(st.Apartments) != 3 {
		t.Fatalf("expected 3 apartment lines, got %d", len(st.Apartments))
	}
	wantNets := []int64{6500, 3900, 2600}
	for i, want := range wantNets {
		if got := st.Apartments[i].NetObligation.Cents; got != want {
			t.Errorf("apartment %d net = %d, want %d", st.Apartments[i].ApartmentID, got, want)
		}
	}
	if !st.HasMonthlyActivity {
		t.Error("expected monthly activity")
	}

	// Second read must come from the cache and be identical.
	cached, err := reads.ComputeApartmentBalances(ctx, 1, jul)
	if err != nil {
		t.Fatalf("ComputeApartmentBalances() cached error = %v", err)
	}
	if cached != st {
		t.Error("expected the cached statement on the second read")
	}
}

func TestStatementServiceWriteInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	store := seedStore()
	c := cache.NewStatementCache(32, time.Minute)
	logger := testLogger()
	writes := NewLedgerService(store, c, nil, logger)
	reads := NewStatementService(store, c, logger)

	jul := core.Month{Year: 2025, Month: 7}
	if _, err := writes.RecordExpense(ctx, core.Expense{
		BuildingID:  1,
		CategoryID:  10,
		Amount:      core.Money{Cents: 13000},
		Date:        core.NewDate(2025, 7, 10),
		Description: "stairwell cleaning",
	}); err != nil {
		t.Fatalf("RecordExpense() error = %v", err)
	}
	before, err := reads.ComputeApartmentBalances(ctx, 1, jul)
	if err != nil {
		t.Fatalf("ComputeApartmentBalances() error = %v", err)
	}
	if before.Apartments[0].NetObligation.Cents != 6500 {
		t.Fatalf("unexpected net before payment: %d", before.Apartments[0].NetObligation.Cents)
	}

	if _, err := writes.RecordPayment(ctx, core.Payment{
		BuildingID:  1,
		ApartmentID: 1,
		Amount:      core.Money{Cents: 6500},
		Date:        core.NewDate(2025, 7, 20),
	}); err != nil {
		t.Fatalf("RecordPayment() error = %v", err)
	}

	after, err := reads.ComputeApartmentBalances(ctx, 1, jul)
	if err != nil {
		t.Fatalf("ComputeApartmentBalances() after payment error = %v", err)
	}
	if after.Apartments[0].NetObligation.Cents != 0 {
		t.Errorf("net after payment = %d, want 0", after.Apartments[0].NetObligation.Cents)
	}
	if after.Apartments[0].Status != core.StatusCurrent {
		t.Errorf("status after payment = %s, want current", after.Apartments[0].Status)
	}
}

func TestStatementServiceCarryForwardAcrossMonths(t *testing.T) {
	ctx := context.Background()
	store := seedStore()
	logger := testLogger()
	writes := NewLedgerService(store, nil, nil, logger)
	reads := NewStatementService(store, nil, logger)

	// July charge, no payments: balances carry into August.
	if _, err := writes.RecordExpense(ctx, core.Expense{
		BuildingID:  1,
		CategoryID:  10,
		Amount:      core.Money{Cents: 10000},
		Date:        core.NewDate(2025, 7, 5),
		Description: "cleaning",
	}); err != nil {
		t.Fatalf("RecordExpense() error = %v", err)
	}

	aug, err := reads.ComputeApartmentBalances(ctx, 1, core.Month{Year: 2025, Month: 8})
	if err != nil {
		t.Fatalf("ComputeApartmentBalances() error = %v", err)
	}
	if aug.HasMonthlyActivity {
		t.Error("august should have no activity of its own")
	}
	if got := aug.Apartments[0].PreviousBalance.Cents; got != 5000 {
		t.Errorf("august opening for apartment 1 = %d, want 5000", got)
	}
	if got := aug.Apartments[0].NetObligation.Cents; got != 5000 {
		t.Errorf("august net for apartment 1 = %d, want 5000", got)
	}

	// A month before any activity has all-zero lines.
	jun, err := reads.ComputeApartmentBalances(ctx, 1, core.Month{Year: 2025, Month: 6})
	if err != nil {
		t.Fatalf("ComputeApartmentBalances() june error = %v", err)
	}
	for _, line := range jun.Apartments {
		if line.NetObligation.Cents != 0 {
			t.Errorf("june net for apartment %d = %d, want 0", line.ApartmentID, line.NetObligation.Cents)
		}
	}
}

func TestStatementServiceUnknownBuilding(t *testing.T) {
	ctx := context.Background()
	reads := NewStatementService(seedStore(), nil, testLogger())

	if _, err := reads.ComputeApartmentBalances(ctx, 99, core.Month{Year: 2025, Month: 7}); err == nil {
		t.Fatal("expected error for unknown building")
	}
}

func TestStatementServiceReserveState(t *testing.T) {
	ctx := context.Background()
	store := seedStore()
	logger := testLogger()
	writes := NewLedgerService(store, nil, nil, logger)
	reads := NewStatementService(store, nil, logger)

	if _, err := writes.RecordReserveTransaction(ctx, core.ReserveTransaction{
		BuildingID: 1,
		Amount:     core.Money{Cents: 5000},
		Date:       core.NewDate(2025, 6, 1),
		Memo:       "contributions",
	}); err != nil {
		t.Fatalf("RecordReserveTransaction() error = %v", err)
	}
	if _, err := writes.RecordReserveTransaction(ctx, core.ReserveTransaction{
		BuildingID: 1,
		Amount:     core.Money{Cents: -2000},
		Date:       core.NewDate(2025, 7, 15),
		Memo:       "pump repair",
	}); err != nil {
		t.Fatalf("RecordReserveTransaction() error = %v", err)
	}

	jun, err := reads.ReserveState(ctx, 1, core.Month{Year: 2025, Month: 6})
	if err != nil {
		t.Fatalf("ReserveState() error = %v", err)
	}
	if jun.Balance.Cents != 5000 || !jun.HasActivity {
		t.Errorf("june reserve = %+v, want balance 5000 with activity", jun)
	}

	jul, err := reads.ReserveState(ctx, 1, core.Month{Year: 2025, Month: 7})
	if err != nil {
		t.Fatalf("ReserveState() error = %v", err)
	}
	if jul.Balance.Cents != 3000 {
		t.Errorf("july reserve balance = %d, want 3000", jul.Balance.Cents)
	}

	aug, err := reads.ReserveState(ctx, 1, core.Month{Year: 2025, Month: 8})
	if err != nil {
		t.Fatalf("ReserveState() error = %v", err)
	}
	if aug.Balance.Cents != 3000 || aug.HasActivity {
		t.Errorf("august reserve = %+v, want balance 3000 without activity", aug)
	}
}

func TestLedgerServiceRejectsInvalidRows(t *testing.T) {
	ctx := context.Background()
	writes := NewLedgerService(seedStore(), nil, nil, testLogger())

	if _, err := writes.RecordExpense(ctx, core.Expense{
		BuildingID:  1,
		CategoryID:  10,
		Amount:      core.Money{Cents: -50},
		Date:        core.NewDate(2025, 7, 1),
		Description: "negative",
	}); err != core.ErrInvalidAmount {
		t.Errorf("RecordExpense() error = %v, want ErrInvalidAmount", err)
	}

	if _, err := writes.RecordPayment(ctx, core.Payment{
		BuildingID: 1,
		Amount:     core.Money{Cents: 100},
		Date:       core.NewDate(2025, 7, 1),
	}); err != core.ErrMissingApartment {
		t.Errorf("RecordPayment() error = %v, want ErrMissingApartment", err)
	}

	if _, err := writes.RecordReserveTransaction(ctx, core.ReserveTransaction{
		BuildingID: 1,
		Date:       core.NewDate(2025, 7, 1),
	}); err != core.ErrInvalidAmount {
		t.Errorf("RecordReserveTransaction() error = %v, want ErrInvalidAmount", err)
	}
}
