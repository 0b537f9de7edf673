package services

import (
	"context"
	"fmt"
	"time"

	"koinochrista/internal/core"
	"koinochrista/internal/ledger"
	"koinochrista/internal/log"
)

// RecurringProcessor materializes due recurring charges into expense rows.
type RecurringProcessor struct {
	store  ledger.RecurringStore
	ledger *LedgerService
	logger *log.Logger
}

func NewRecurringProcessor(store ledger.RecurringStore, ledgerService *LedgerService, logger *log.Logger) *RecurringProcessor {
	return &RecurringProcessor{
		store:  store,
		ledger: ledgerService,
		logger: logger.WithComponent(log.ComponentRecurring),
	}
}

// ProcessDueCharges checks every active recurring charge and records an
// expense for each one that is due. A failure on one charge does not stop
// the rest; the count of materialized charges is returned.
func (p *RecurringProcessor) ProcessDueCharges(ctx context.Context, now time.Time) (int, error) {
	if p.store == nil || p.ledger == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	charges, err := p.store.ListActiveRecurringCharges(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list active recurring charges: %w", err)
	}

	p.logger.InfoContext(ctx, "Processing recurring charges",
		"total_active", len(charges),
		"processing_date", now.Format("2006-01-02"))

	processed := 0
	for _, rc := range charges {
		checker, err := GetDuenessChecker(rc.Every)
		if err != nil {
			p.logger.ErrorContext(ctx, "Skipping recurring charge",
				log.FieldRecordID, rc.ID,
				log.FieldError, err)
			continue
		}
		if !checker.IsDue(rc.LastExecution, now, rc.StartDate) {
			continue
		}

		expense := core.Expense{
			BuildingID:  rc.BuildingID,
			CategoryID:  rc.CategoryID,
			Amount:      rc.Amount,
			Date:        core.Date{Time: now.UTC().Truncate(24 * time.Hour)},
			Description: rc.Description,
		}
		id, err := p.ledger.RecordExpense(ctx, expense)
		if err != nil {
			p.logger.ErrorContext(ctx, "Failed to record expense from recurring charge",
				log.FieldRecordID, rc.ID,
				"description", rc.Description,
				log.FieldError, err)
			continue
		}

		if err := p.store.MarkRecurringExecuted(ctx, rc.ID, now); err != nil {
			// Expense is recorded; the charge will look due again next run.
			p.logger.ErrorContext(ctx, "Failed to mark recurring charge executed",
				log.FieldRecordID, rc.ID,
				log.FieldError, err)
		}

		processed++
		p.logger.InfoContext(ctx, "Materialized recurring charge",
			log.FieldRecordID, rc.ID,
			"expense_id", id,
			log.FieldBuildingID, rc.BuildingID,
			"description", rc.Description,
			log.FieldAmountCents, rc.Amount.Cents,
			"frequency", rc.Every)
	}

	p.logger.InfoContext(ctx, "Recurring charge processing complete",
		"processed", processed,
		"total_checked", len(charges))
	return processed, nil
}
