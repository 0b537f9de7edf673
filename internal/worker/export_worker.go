// Package worker reacts to ledger events by recomputing and re-exporting
// the affected statements.
package worker

import (
	"context"
	"fmt"

	"koinochrista/internal/amqp"
	"koinochrista/internal/cache"
	"koinochrista/internal/export"
	"koinochrista/internal/log"
	"koinochrista/internal/services"
)

// ExportWorker consumes ledger events, recomputes the statement for the
// affected month and pushes it to the export sink. The worker keeps its own
// statement cache, so the event must stale it before recomputing.
type ExportWorker struct {
	statements *services.StatementService
	writer     export.StatementWriter
	cache      *cache.StatementCache
	logger     *log.Logger
}

func NewExportWorker(statements *services.StatementService, writer export.StatementWriter, c *cache.StatementCache, logger *log.Logger) *ExportWorker {
	return &ExportWorker{
		statements: statements,
		writer:     writer,
		cache:      c,
		logger:     logger.WithComponent(log.ComponentExport),
	}
}

// HandleLedgerEvent processes a single ledger event from AMQP.
func (w *ExportWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	m := msg.EventMonth()
	if err := m.Validate(); err != nil {
		// Malformed events are dropped, requeueing cannot fix them.
		w.logger.ErrorContext(ctx, "Dropping ledger event with invalid month",
			"kind", msg.Kind,
			log.FieldBuildingID, msg.BuildingID,
			log.FieldRecordID, msg.RecordID,
			log.FieldError, err)
		return nil
	}

	if w.cache != nil {
		w.cache.Invalidate(msg.BuildingID, m)
	}

	st, err := w.statements.ComputeApartmentBalances(ctx, msg.BuildingID, m)
	if err != nil {
		return fmt.Errorf("compute statement %d %s: %w", msg.BuildingID, m, err)
	}

	if err := w.writer.WriteStatement(ctx, st); err != nil {
		return fmt.Errorf("write statement %d %s: %w", msg.BuildingID, m, err)
	}

	w.logger.InfoContext(ctx, "Exported statement for ledger event",
		"kind", msg.Kind,
		log.FieldBuildingID, msg.BuildingID,
		log.FieldMonth, m.String(),
		log.FieldRecordID, msg.RecordID)
	return nil
}
