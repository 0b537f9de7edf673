// Package engine implements the monthly common-expense distribution and
// apartment balance computation. Every function here is pure: inputs are
// pre-fetched ledger data, outputs are computed statements. Retrieval and
// caching live in internal/services so the arithmetic stays testable
// without a database.
package engine

import "koinochrista/internal/core"

// Catalog is the category reference data, keyed by category ID.
type Catalog map[int64]core.ExpenseCategory

// Classification is the resolved billing target for one ledger record: the
// payer pool it charges and the display group it rolls up under.
type Classification struct {
	Pool   core.PayerPool
	Group  string
	Method core.DistributionMethod
}

// Classify resolves a record's category into its payer pool and distribution
// group. A category that does not resolve, or resolves to invalid reference
// data, yields an UnknownCategoryError: the record must be excluded and
// reported, never defaulted.
func (c Catalog) Classify(categoryID, recordID int64) (Classification, error) {
	cat, ok := c[categoryID]
	if !ok {
		return Classification{}, &core.UnknownCategoryError{RecordID: recordID, CategoryID: categoryID}
	}
	if !cat.Pool.IsValid() || !cat.Method.IsValid() {
		return Classification{}, &core.UnknownCategoryError{RecordID: recordID, CategoryID: categoryID}
	}
	group := cat.CategoryType
	if group == "" {
		group = cat.Name
	}
	return Classification{Pool: cat.Pool, Group: group, Method: cat.Method}, nil
}
