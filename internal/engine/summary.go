package engine

import "koinochrista/internal/core"

// Summarize rolls per-apartment lines up into building totals. Pure
// aggregation with no side effects; safe to recompute on every request.
func Summarize(lines []core.ApartmentBalance) core.Summary {
	var s core.Summary
	for _, line := range lines {
		net := line.NetObligation.Cents
		if net > 0 {
			s.TotalObligations.Cents += net
		}
		s.TotalNetObligations.Cents += net
		s.TotalPayments.Cents += line.TotalPayments.Cents

		switch line.Status {
		case core.StatusCritical:
			s.CriticalCount++
			s.DebtCount++
		case core.StatusDebt:
			s.DebtCount++
		case core.StatusCredit:
			s.CreditCount++
		default:
			s.ActiveCount++
		}
	}
	return s
}
