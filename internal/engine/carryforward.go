package engine

import "koinochrista/internal/core"

// OpeningBalances resolves each apartment's opening balance for a month:
// the net obligation from the immediately preceding month's statement, or
// zero when no prior month exists. Only the prior month's closing state may
// feed this; current-month mutations never do.
func OpeningBalances(prev *core.Statement, apartments []core.Apartment) map[int64]int64 {
	openings := make(map[int64]int64, len(apartments))
	for _, a := range apartments {
		openings[a.ID] = 0
	}
	if prev == nil {
		return openings
	}
	for _, line := range prev.Apartments {
		if _, ok := openings[line.ApartmentID]; ok {
			openings[line.ApartmentID] = line.NetObligation.Cents
		}
	}
	return openings
}

// guardMonthData is the temporal-leakage check: every record handed to a
// month's computation must be dated inside that month. A record from any
// other month aborts the whole request rather than producing a
// plausible-looking wrong balance.
func guardMonthData(m core.Month, data MonthData) error {
	for _, e := range data.Expenses {
		if !e.Date.In(m) {
			return &core.TemporalLeakageGuardError{Month: m, Date: e.Date}
		}
	}
	for _, i := range data.Incomes {
		if !i.Date.In(m) {
			return &core.TemporalLeakageGuardError{Month: m, Date: i.Date}
		}
	}
	for _, p := range data.Payments {
		if !p.Date.In(m) {
			return &core.TemporalLeakageGuardError{Month: m, Date: p.Date}
		}
	}
	for _, tx := range data.ReserveTxs {
		if !tx.Date.In(m) {
			return &core.TemporalLeakageGuardError{Month: m, Date: tx.Date}
		}
	}
	return nil
}
