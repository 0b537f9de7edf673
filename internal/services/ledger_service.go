package services

import (
	"context"
	"fmt"

	"koinochrista/internal/amqp"
	"koinochrista/internal/cache"
	"koinochrista/internal/core"
	"koinochrista/internal/ledger"
	"koinochrista/internal/log"
)

// LedgerService is the write side: it validates and appends ledger rows,
// stales the cached statements the new row can affect, and announces the
// write over AMQP. The AMQP publish is best effort; the row is already
// durable when it fails.
type LedgerService struct {
	store      ledger.Store
	cache      *cache.StatementCache
	amqpClient *amqp.Client
	logger     *log.Logger
}

func NewLedgerService(store ledger.Store, c *cache.StatementCache, amqpClient *amqp.Client, logger *log.Logger) *LedgerService {
	return &LedgerService{
		store:      store,
		cache:      c,
		amqpClient: amqpClient,
		logger:     logger.WithComponent(log.ComponentLedger),
	}
}

// RecordExpense validates and appends an expense.
func (s *LedgerService) RecordExpense(ctx context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}
	if _, err := s.store.GetBuilding(ctx, e.BuildingID); err != nil {
		return 0, err
	}

	id, err := s.store.AppendExpense(ctx, e)
	if err != nil {
		return 0, fmt.Errorf("append expense: %w", err)
	}

	s.recorded(ctx, amqp.EventExpenseRecorded, e.BuildingID, id, core.MonthOf(e.Date.Time))
	return id, nil
}

// RecordIncome validates and appends an income.
func (s *LedgerService) RecordIncome(ctx context.Context, i core.Income) (int64, error) {
	if err := i.Validate(); err != nil {
		return 0, err
	}
	if _, err := s.store.GetBuilding(ctx, i.BuildingID); err != nil {
		return 0, err
	}

	id, err := s.store.AppendIncome(ctx, i)
	if err != nil {
		return 0, fmt.Errorf("append income: %w", err)
	}

	s.recorded(ctx, amqp.EventIncomeRecorded, i.BuildingID, id, core.MonthOf(i.Date.Time))
	return id, nil
}

// RecordPayment validates and appends an apartment payment.
func (s *LedgerService) RecordPayment(ctx context.Context, p core.Payment) (int64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	if _, err := s.store.GetBuilding(ctx, p.BuildingID); err != nil {
		return 0, err
	}

	id, err := s.store.AppendPayment(ctx, p)
	if err != nil {
		return 0, fmt.Errorf("append payment: %w", err)
	}

	s.recorded(ctx, amqp.EventPaymentRecorded, p.BuildingID, id, core.MonthOf(p.Date.Time))
	return id, nil
}

// RecordReserveTransaction appends a reserve fund movement. Withdrawals are
// negative amounts; a zero amount is rejected.
func (s *LedgerService) RecordReserveTransaction(ctx context.Context, tx core.ReserveTransaction) (int64, error) {
	if err := tx.Date.Validate(); err != nil {
		return 0, err
	}
	if tx.Amount.IsZero() {
		return 0, core.ErrInvalidAmount
	}
	if _, err := s.store.GetBuilding(ctx, tx.BuildingID); err != nil {
		return 0, err
	}

	id, err := s.store.AppendReserveTransaction(ctx, tx)
	if err != nil {
		return 0, fmt.Errorf("append reserve transaction: %w", err)
	}

	s.recorded(ctx, amqp.EventReserveRecorded, tx.BuildingID, id, core.MonthOf(tx.Date.Time))
	return id, nil
}

// recorded runs the post-write fanout: cache invalidation for the row's
// month (and transitively every later month) plus the AMQP announcement.
func (s *LedgerService) recorded(ctx context.Context, kind string, buildingID, recordID int64, m core.Month) {
	if s.cache != nil {
		s.cache.Invalidate(buildingID, m)
	}

	s.logger.InfoContext(ctx, "Recorded ledger row",
		"kind", kind,
		log.FieldBuildingID, buildingID,
		log.FieldRecordID, recordID,
		log.FieldMonth, m.String())

	if s.amqpClient == nil {
		return
	}
	msg := amqp.NewLedgerEventMessage(kind, buildingID, recordID, m)
	if err := s.amqpClient.PublishLedgerEvent(ctx, msg); err != nil {
		// Row is stored; the export worker catches up on the next event.
		s.logger.ErrorContext(ctx, "Failed to publish ledger event",
			"kind", kind,
			log.FieldBuildingID, buildingID,
			log.FieldRecordID, recordID,
			log.FieldError, err)
	}
}
