package engine

import (
	"fmt"
	"sort"

	"koinochrista/internal/core"
)

// CheckMills verifies the building's mills invariant: apartment participation
// mills must sum to the configured total. Runs before any distribution; a
// violation is fatal for the whole request.
func CheckMills(b core.Building, apartments []core.Apartment) error {
	var sum int64
	for _, a := range apartments {
		sum += a.Mills
	}
	if sum != b.MillsTotal {
		return &core.InconsistentMillsError{BuildingID: b.ID, Got: sum, Want: b.MillsTotal}
	}
	return nil
}

// Distribute splits a positive amount (in cents) across apartments using the
// given method. The returned shares always satisfy the conservation rule:
// they sum to exactly the input amount, with the integer rounding remainder
// assigned to the apartment with the lowest ID.
//
// readings supplies per-apartment consumption units for the month and is only
// consulted for the consumption method. fixedShares is only consulted for the
// fixed_amount method.
func Distribute(
	amount int64,
	method core.DistributionMethod,
	apartments []core.Apartment,
	readings map[int64]int64,
	fixedShares map[int64]core.Money,
) (map[int64]int64, error) {
	if len(apartments) == 0 {
		return nil, core.ErrNoApartments
	}
	if amount < 0 {
		return nil, fmt.Errorf("%w: negative distribution amount %d", core.ErrInvalidAmount, amount)
	}

	switch method {
	case core.DistributeEqual:
		weights := make(map[int64]int64, len(apartments))
		for _, a := range apartments {
			weights[a.ID] = 1
		}
		return distributeWeighted(amount, apartments, weights), nil

	case core.DistributeMills:
		weights := make(map[int64]int64, len(apartments))
		for _, a := range apartments {
			weights[a.ID] = a.Mills
		}
		return distributeWeighted(amount, apartments, weights), nil

	case core.DistributeConsumption:
		var missing []int64
		weights := make(map[int64]int64, len(apartments))
		var total int64
		for _, a := range apartments {
			units, ok := readings[a.ID]
			if !ok {
				missing = append(missing, a.ID)
				continue
			}
			weights[a.ID] = units
			total += units
		}
		if len(missing) > 0 {
			sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
			return nil, &core.MissingConsumptionDataError{ApartmentIDs: missing}
		}
		if total == 0 {
			// All readings zero: there is no consumption to apportion by.
			return nil, &core.MissingConsumptionDataError{}
		}
		return distributeWeighted(amount, apartments, weights), nil

	case core.DistributeFixed:
		shares := make(map[int64]int64, len(apartments))
		known := make(map[int64]bool, len(apartments))
		for _, a := range apartments {
			known[a.ID] = true
			shares[a.ID] = 0
		}
		var sum int64
		for id, m := range fixedShares {
			if !known[id] {
				return nil, fmt.Errorf("%w: fixed share for apartment %d outside building", core.ErrMissingApartment, id)
			}
			shares[id] = m.Cents
			sum += m.Cents
		}
		if sum != amount {
			return nil, core.ErrFixedShareMismatch
		}
		return shares, nil

	default:
		return nil, fmt.Errorf("unknown distribution method %q", method)
	}
}

// distributeWeighted computes floor(amount * weight_i / totalWeight) per
// apartment and assigns the leftover cents to the lowest apartment ID, so
// the shares reconcile to the exact input amount.
func distributeWeighted(amount int64, apartments []core.Apartment, weights map[int64]int64) map[int64]int64 {
	var totalWeight int64
	lowest := apartments[0].ID
	for _, a := range apartments {
		totalWeight += weights[a.ID]
		if a.ID < lowest {
			lowest = a.ID
		}
	}

	shares := make(map[int64]int64, len(apartments))
	if totalWeight == 0 {
		// Degenerate weights; the whole amount lands on the lowest ID so
		// conservation still holds.
		for _, a := range apartments {
			shares[a.ID] = 0
		}
		shares[lowest] = amount
		return shares
	}

	var assigned int64
	for _, a := range apartments {
		share := amount * weights[a.ID] / totalWeight
		shares[a.ID] = share
		assigned += share
	}
	shares[lowest] += amount - assigned
	return shares
}
