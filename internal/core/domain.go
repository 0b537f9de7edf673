package core

import (
	"fmt"
	"strings"
	"time"
)

// PayerPool identifies who is billed for an expense category.
type PayerPool string

const (
	PoolResident PayerPool = "resident"
	PoolOwner    PayerPool = "owner"
	PoolShared   PayerPool = "shared"
)

// IsValid returns true for a known payer pool.
func (p PayerPool) IsValid() bool {
	switch p {
	case PoolResident, PoolOwner, PoolShared:
		return true
	default:
		return false
	}
}

// DistributionMethod selects the algorithm splitting an expense across
// apartments.
type DistributionMethod string

const (
	DistributeEqual       DistributionMethod = "equal"
	DistributeMills       DistributionMethod = "mills"
	DistributeConsumption DistributionMethod = "consumption"
	DistributeFixed       DistributionMethod = "fixed_amount"
)

// IsValid returns true for a known distribution method.
func (d DistributionMethod) IsValid() bool {
	switch d {
	case DistributeEqual, DistributeMills, DistributeConsumption, DistributeFixed:
		return true
	default:
		return false
	}
}

// GroupType is the coarse expense grouping used for display sections.
type GroupType string

const (
	GroupFixed         GroupType = "fixed"
	GroupOperational   GroupType = "operational"
	GroupCollaborators GroupType = "collaborators"
	GroupSuppliers     GroupType = "suppliers"
	GroupStaff         GroupType = "staff"
	GroupTaxesLegal    GroupType = "taxes_legal"
	GroupOther         GroupType = "other"
)

// FeeMode selects how the building's management fee is split.
type FeeMode string

const (
	FeeFlat  FeeMode = "flat"  // equal split across apartments
	FeeMills FeeMode = "mills" // mills-weighted split
)

type (
	// Building is the top-level tenant unit. Apartments belong to exactly
	// one building. MillsTotal is the fixed constant the apartments'
	// participation mills must sum to (typically 1000 or 10000).
	Building struct {
		ID         int64
		Name       string
		MillsTotal int64

		// Reserve fund configuration. Either a fixed monthly amount, or a
		// goal plus deadline from which the monthly amount is derived.
		ReserveMonthly  Money
		ReserveGoal     Money
		ReserveDeadline Month // zero when unset

		// Management fee charged to the resident pool every month.
		ManagementFee     Money
		ManagementFeeMode FeeMode
	}

	// Apartment is a billable unit inside a building. Number is the
	// human-readable label and may contain Greek letters ("Α1").
	Apartment struct {
		ID         int64
		BuildingID int64
		Number     string
		OwnerName  string
		TenantName string
		Mills      int64
		FloorArea  float64 // optional, square meters
	}

	// ExpenseCategory is static reference data mapping a category to its
	// payer pool and distribution method. The pool is an explicit stored
	// attribute, never inferred from display labels.
	ExpenseCategory struct {
		ID           int64
		Name         string
		GroupType    GroupType
		CategoryType string
		Pool         PayerPool
		Method       DistributionMethod
	}

	// Expense is a single charge against a building, dated to a calendar
	// day. FixedShares is only consulted for the fixed_amount method and
	// maps apartment IDs to their stated share.
	Expense struct {
		ID          int64
		BuildingID  int64
		CategoryID  int64
		Amount      Money
		Date        Date
		Description string
		FixedShares map[int64]Money
	}

	// Income is money received by the building (e.g. renting out common
	// areas). It is classified and distributed like an expense and reduces
	// the pool its category belongs to.
	Income struct {
		ID          int64
		BuildingID  int64
		CategoryID  int64
		Amount      Money
		Date        Date
		Description string
	}

	// Payment is money received from a specific apartment against its
	// obligations.
	Payment struct {
		ID          int64
		BuildingID  int64
		ApartmentID int64
		Amount      Money
		Date        Date
		Description string
	}

	// ConsumptionReading is a per-apartment metered quantity (e.g. heating
	// units) for one month, required by consumption-based distribution.
	ConsumptionReading struct {
		BuildingID  int64
		ApartmentID int64
		Month       Month
		Units       int64
	}

	// ReserveTransaction is a dated movement of the building's reserve
	// fund: positive for contributions paid in, negative for withdrawals.
	ReserveTransaction struct {
		ID         int64
		BuildingID int64
		Amount     Money
		Date       Date
		Memo       string
	}

	// RecurringCharge is a standing building expense (elevator contract,
	// cleaning crew) materialized into the expense ledger on schedule.
	RecurringCharge struct {
		ID            int64
		BuildingID    int64
		CategoryID    int64
		Amount        Money
		Every         RepetitionType
		StartDate     Date
		EndDate       Date // zero for open-ended
		Description   string
		LastExecution time.Time
	}
)

// RepetitionType is the schedule of a recurring charge.
type RepetitionType string

const (
	RepeatMonthly   RepetitionType = "monthly"
	RepeatQuarterly RepetitionType = "quarterly"
	RepeatYearly    RepetitionType = "yearly"
)

// IsValid returns true for a known repetition type.
func (r RepetitionType) IsValid() bool {
	switch r {
	case RepeatMonthly, RepeatQuarterly, RepeatYearly:
		return true
	default:
		return false
	}
}

// Validate checks a recurring charge for storable shape.
func (rc RecurringCharge) Validate() error {
	if err := rc.StartDate.Validate(); err != nil {
		return err
	}
	if !rc.EndDate.IsZero() && rc.EndDate.Before(rc.StartDate.Time) {
		return ErrInvalidDate
	}
	if !rc.Every.IsValid() {
		return fmt.Errorf("invalid repetition type %q", rc.Every)
	}
	if len(strings.TrimSpace(rc.Description)) == 0 {
		return ErrEmptyDescription
	}
	if rc.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if rc.CategoryID <= 0 {
		return ErrMissingCategory
	}
	return nil
}

// Date is a calendar day. The time component is always midnight UTC.
type Date struct {
	time.Time
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Validate checks the date is set and within calendar ranges.
func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// In reports whether the date falls within the given month.
func (d Date) In(m Month) bool {
	return d.Year() == m.Year && int(d.Time.Month()) == m.Month
}

// Validate checks an expense for storable shape.
func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if e.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if e.CategoryID <= 0 {
		return ErrMissingCategory
	}
	return nil
}

// Validate checks an income for storable shape.
func (i Income) Validate() error {
	if err := i.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(i.Description)) == 0 {
		return ErrEmptyDescription
	}
	if i.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if i.CategoryID <= 0 {
		return ErrMissingCategory
	}
	return nil
}

// Validate checks a payment for storable shape.
func (p Payment) Validate() error {
	if err := p.Date.Validate(); err != nil {
		return err
	}
	if p.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if p.ApartmentID <= 0 {
		return ErrMissingApartment
	}
	return nil
}
