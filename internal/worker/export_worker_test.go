package worker

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"koinochrista/internal/amqp"
	"koinochrista/internal/cache"
	"koinochrista/internal/core"
	exportmem "koinochrista/internal/export/memory"
	"koinochrista/internal/ledger/memory"
	"koinochrista/internal/log"
	"koinochrista/internal/services"
)

func testLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func seedStore() *memory.Store {
	store := memory.New()
	store.SeedBuilding(core.Building{ID: 1, Name: "Odos Ermou 12", MillsTotal: 1000}, []core.Apartment{
		{ID: 1, BuildingID: 1, Number: "A1", Mills: 600},
		{ID: 2, BuildingID: 1, Number: "A2", Mills: 400},
	})
	store.SeedCategories([]core.ExpenseCategory{
		{ID: 10, Name: "Cleaning", GroupType: core.GroupOperational, Pool: core.PoolResident, Method: core.DistributeMills},
	})
	return store
}

func TestExportWorkerHandleLedgerEvent(t *testing.T) {
	ctx := context.Background()
	store := seedStore()
	logger := testLogger()
	c := cache.NewStatementCache(16, time.Minute)
	statements := services.NewStatementService(store, c, logger)
	sink := exportmem.New()
	w := NewExportWorker(statements, sink, c, logger)

	id, err := store.AppendExpense(ctx, core.Expense{
		BuildingID:  1,
		CategoryID:  10,
		Amount:      core.Money{Cents: 10000},
		Date:        core.NewDate(2025, 7, 3),
		Description: "cleaning",
	})
	if err != nil {
		t.Fatalf("AppendExpense() error = %v", err)
	}

	msg := amqp.NewLedgerEventMessage(amqp.EventExpenseRecorded, 1, id, core.Month{Year: 2025, Month: 7})
	if err := w.HandleLedgerEvent(ctx, msg); err != nil {
		t.Fatalf("HandleLedgerEvent() error = %v", err)
	}

	st, ok := sink.Get(1, "2025-07")
	if !ok {
		t.Fatal("expected exported statement")
	}
	if got := st.Apartments[0].NetObligation.Cents; got != 6000 {
		t.Errorf("exported net for apartment 1 = %d, want 6000", got)
	}
}

func TestExportWorkerStalesCacheBeforeRecompute(t *testing.T) {
	ctx := context.Background()
	store := seedStore()
	logger := testLogger()
	c := cache.NewStatementCache(16, time.Minute)
	statements := services.NewStatementService(store, c, logger)
	sink := exportmem.New()
	w := NewExportWorker(statements, sink, c, logger)

	jul := core.Month{Year: 2025, Month: 7}

	// Prime the worker's cache with the empty month, then write a row
	// behind its back. The event must force a recompute.
	if _, err := statements.ComputeApartmentBalances(ctx, 1, jul); err != nil {
		t.Fatalf("ComputeApartmentBalances() error = %v", err)
	}
	id, err := store.AppendExpense(ctx, core.Expense{
		BuildingID:  1,
		CategoryID:  10,
		Amount:      core.Money{Cents: 5000},
		Date:        core.NewDate(2025, 7, 15),
		Description: "cleaning",
	})
	if err != nil {
		t.Fatalf("AppendExpense() error = %v", err)
	}

	msg := amqp.NewLedgerEventMessage(amqp.EventExpenseRecorded, 1, id, jul)
	if err := w.HandleLedgerEvent(ctx, msg); err != nil {
		t.Fatalf("HandleLedgerEvent() error = %v", err)
	}

	st, ok := sink.Get(1, "2025-07")
	if !ok {
		t.Fatal("expected exported statement")
	}
	if !st.HasMonthlyActivity {
		t.Error("exported statement should reflect the new expense, not the cached empty month")
	}
}

func TestExportWorkerDropsInvalidMonth(t *testing.T) {
	ctx := context.Background()
	store := seedStore()
	logger := testLogger()
	statements := services.NewStatementService(store, nil, logger)
	sink := exportmem.New()
	w := NewExportWorker(statements, sink, nil, logger)

	msg := &amqp.LedgerEventMessage{Kind: amqp.EventExpenseRecorded, BuildingID: 1, Year: 2025, Month: 13}
	if err := w.HandleLedgerEvent(ctx, msg); err != nil {
		t.Fatalf("HandleLedgerEvent() should drop invalid months, got %v", err)
	}
	if sink.Count() != 0 {
		t.Error("nothing should be exported for an invalid event")
	}
}
