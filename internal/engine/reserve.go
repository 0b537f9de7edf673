package engine

import (
	"koinochrista/internal/core"
)

// ReserveContributions computes each apartment's reserve-fund contribution
// for the month, distributed by participation mills.
//
// Two building configurations are supported:
//   - a fixed monthly amount (ReserveMonthly), or
//   - a goal (ReserveGoal + ReserveDeadline), where the month's total is the
//     outstanding remainder divided by the months left through the deadline.
//
// balanceBefore is the reserve balance as of the end of the prior month.
// A building with neither configuration contributes nothing.
func ReserveContributions(b core.Building, m core.Month, apartments []core.Apartment, balanceBefore core.Money) map[int64]int64 {
	total := reserveMonthlyTotal(b, m, balanceBefore)

	shares := make(map[int64]int64, len(apartments))
	for _, a := range apartments {
		shares[a.ID] = 0
	}
	if total <= 0 || len(apartments) == 0 {
		return shares
	}

	weights := make(map[int64]int64, len(apartments))
	for _, a := range apartments {
		weights[a.ID] = a.Mills
	}
	return distributeWeighted(total, apartments, weights)
}

func reserveMonthlyTotal(b core.Building, m core.Month, balanceBefore core.Money) int64 {
	if b.ReserveMonthly.Cents > 0 {
		return b.ReserveMonthly.Cents
	}
	if b.ReserveGoal.Cents > 0 && !b.ReserveDeadline.IsZero() {
		remaining := b.ReserveGoal.Cents - balanceBefore.Cents
		if remaining <= 0 {
			return 0
		}
		monthsLeft := m.MonthsUntil(b.ReserveDeadline)
		if monthsLeft < 1 {
			// Past the deadline the whole remainder is due.
			monthsLeft = 1
		}
		return remaining / int64(monthsLeft)
	}
	return 0
}

// ReserveBalance computes the reserve-fund position as of the end of month m
// from the building's dated reserve transactions. Only transactions dated on
// or before the last day of m count toward the balance; HasActivity reports
// whether any transaction fell inside m itself, so historical months without
// ledger entries are not presented as live figures.
func ReserveBalance(buildingID int64, txs []core.ReserveTransaction, m core.Month) core.ReserveState {
	_, end := m.Bounds()
	state := core.ReserveState{BuildingID: buildingID}
	for _, tx := range txs {
		if !tx.Date.Before(end) {
			continue
		}
		state.Balance = state.Balance.Add(tx.Amount)
		if tx.Date.In(m) {
			state.HasActivity = true
		}
	}
	return state
}
