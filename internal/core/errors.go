package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrEmptyDescription = errors.New("empty description")
	ErrMissingCategory  = errors.New("missing category reference")
	ErrMissingApartment = errors.New("missing apartment reference")
	ErrNoApartments     = errors.New("building has no apartments")
	ErrBuildingNotFound = errors.New("building not found")

	// ErrFixedShareMismatch marks a fixed_amount expense whose listed
	// per-apartment shares do not sum to the expense amount.
	ErrFixedShareMismatch = errors.New("fixed shares do not sum to expense amount")
)

// UnknownCategoryError marks an expense or income whose category reference
// does not resolve. The record is excluded from totals and surfaced as a
// data-quality warning; it is never silently defaulted, since a wrongly
// classified expense corrupts obligations for every apartment.
type UnknownCategoryError struct {
	RecordID   int64
	CategoryID int64
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %d on record %d", e.CategoryID, e.RecordID)
}

// MissingConsumptionDataError marks a consumption-distributed expense that
// lacks a reading for one or more apartments. Defaulting a missing reading
// to zero would wrongly exempt that apartment, so the expense stays
// undistributed instead.
type MissingConsumptionDataError struct {
	ExpenseID    int64
	ApartmentIDs []int64
}

func (e *MissingConsumptionDataError) Error() string {
	return fmt.Sprintf("expense %d: no consumption reading for apartments %v", e.ExpenseID, e.ApartmentIDs)
}

// InconsistentMillsError means a building's apartment participation mills do
// not sum to the configured total. Fatal for the whole request: every
// mills-based distribution would be silently wrong.
type InconsistentMillsError struct {
	BuildingID int64
	Got        int64
	Want       int64
}

func (e *InconsistentMillsError) Error() string {
	return fmt.Sprintf("building %d: participation mills sum to %d, expected %d", e.BuildingID, e.Got, e.Want)
}

// TemporalLeakageGuardError is the defensive check tripping when a month's
// computation is handed data dated outside that month. Aborting beats
// returning a plausible-looking wrong number.
type TemporalLeakageGuardError struct {
	Month Month
	Date  Date
}

func (e *TemporalLeakageGuardError) Error() string {
	return fmt.Sprintf("record dated %s leaked into computation for %s", e.Date.Format("2006-01-02"), e.Month)
}
