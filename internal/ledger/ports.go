// Package ledger defines the storage ports the statement engine reads from
// and the write side records into. Implementations: internal/storage
// (SQLite) and internal/ledger/memory (development and tests).
package ledger

import (
	"context"
	"time"

	"koinochrista/internal/core"
)

// BuildingReader serves the reference data a computation starts from.
type BuildingReader interface {
	GetBuilding(ctx context.Context, id int64) (core.Building, error)
	ListApartments(ctx context.Context, buildingID int64) ([]core.Apartment, error)
	ListCategories(ctx context.Context) (map[int64]core.ExpenseCategory, error)
}

// MonthReader serves ledger rows scoped to a single month. Implementations
// must filter strictly by the month's calendar bounds; the engine re-checks
// with its temporal leakage guard.
type MonthReader interface {
	ListExpenses(ctx context.Context, buildingID int64, m core.Month) ([]core.Expense, error)
	ListIncomes(ctx context.Context, buildingID int64, m core.Month) ([]core.Income, error)
	ListPayments(ctx context.Context, buildingID int64, m core.Month) ([]core.Payment, error)
	ListReadings(ctx context.Context, buildingID int64, m core.Month) (map[int64]int64, error)

	// ListReserveTransactions returns all reserve movements dated on or
	// before the end of the given month, oldest first.
	ListReserveTransactions(ctx context.Context, buildingID int64, through core.Month) ([]core.ReserveTransaction, error)

	// FirstActivityMonth returns the earliest month with any ledger entry
	// for the building; ok is false when the ledger is empty.
	FirstActivityMonth(ctx context.Context, buildingID int64) (core.Month, bool, error)
}

// Writer records new ledger rows. Each append returns the stored row ID.
type Writer interface {
	AppendExpense(ctx context.Context, e core.Expense) (int64, error)
	AppendIncome(ctx context.Context, i core.Income) (int64, error)
	AppendPayment(ctx context.Context, p core.Payment) (int64, error)
	AppendReserveTransaction(ctx context.Context, tx core.ReserveTransaction) (int64, error)
}

// RecurringStore manages standing charge templates for the recurring worker.
type RecurringStore interface {
	ListActiveRecurringCharges(ctx context.Context, now time.Time) ([]core.RecurringCharge, error)
	MarkRecurringExecuted(ctx context.Context, id int64, at time.Time) error
}

// Store is the full ledger surface.
type Store interface {
	BuildingReader
	MonthReader
	Writer
	RecurringStore
}
