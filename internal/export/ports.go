// Package export defines the outbound port for publishing computed
// statements to external sinks. Adapters: export/google (Google Sheets) and
// export/memory (tests).
package export

import (
	"context"

	"koinochrista/internal/core"
)

// StatementWriter publishes a computed monthly statement. Writing the same
// (building, month) again replaces the previous export.
type StatementWriter interface {
	WriteStatement(ctx context.Context, st *core.Statement) error
}
