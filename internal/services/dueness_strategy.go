package services

import (
	"fmt"
	"time"

	"koinochrista/internal/core"
)

// DuenessChecker decides whether a recurring charge should be materialized
// now, given when it last ran and when its schedule anchors.
type DuenessChecker interface {
	IsDue(lastExecution, now time.Time, startDate core.Date) bool
}

// MonthlyChecker fires once per calendar month, on or after the start date's
// day of month.
type MonthlyChecker struct{}

func (MonthlyChecker) IsDue(lastExecution, now time.Time, startDate core.Date) bool {
	if lastExecution.IsZero() {
		return true
	}

	// Already processed this month?
	if lastExecution.Year() == now.Year() && lastExecution.Month() == now.Month() {
		return false
	}

	return now.Day() >= targetDayInMonth(now, startDate.Day())
}

// QuarterlyChecker fires once per quarter, in the months that are a multiple
// of three after the start month.
type QuarterlyChecker struct{}

func (QuarterlyChecker) IsDue(lastExecution, now time.Time, startDate core.Date) bool {
	monthsSinceStart := core.MonthOf(startDate.Time).MonthsUntil(core.MonthOf(now)) - 1
	if monthsSinceStart < 0 || monthsSinceStart%3 != 0 {
		return false
	}

	if lastExecution.IsZero() {
		return true
	}

	// Already processed this quarter's month?
	if lastExecution.Year() == now.Year() && lastExecution.Month() == now.Month() {
		return false
	}

	return now.Day() >= targetDayInMonth(now, startDate.Day())
}

// YearlyChecker fires once per year, on or after the start date's month and
// day.
type YearlyChecker struct{}

func (YearlyChecker) IsDue(lastExecution, now time.Time, startDate core.Date) bool {
	if !lastExecution.IsZero() && lastExecution.Year() == now.Year() {
		return false
	}

	targetMonth := int(startDate.Time.Month())
	if int(now.Month()) < targetMonth {
		return false
	}
	if int(now.Month()) == targetMonth {
		return now.Day() >= targetDayInMonth(now, startDate.Day())
	}
	return true
}

// targetDayInMonth clamps the anchor day to the current month's length, so a
// charge anchored on the 31st still fires in February.
func targetDayInMonth(now time.Time, targetDay int) int {
	lastDayOfMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if targetDay > lastDayOfMonth {
		return lastDayOfMonth
	}
	return targetDay
}

var duenessStrategies = map[core.RepetitionType]DuenessChecker{
	core.RepeatMonthly:   MonthlyChecker{},
	core.RepeatQuarterly: QuarterlyChecker{},
	core.RepeatYearly:    YearlyChecker{},
}

// GetDuenessChecker returns the checker for a repetition type.
func GetDuenessChecker(frequency core.RepetitionType) (DuenessChecker, error) {
	checker, ok := duenessStrategies[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown repetition type: %s", frequency)
	}
	return checker, nil
}
