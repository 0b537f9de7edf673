package core

import (
	"fmt"
	"time"
)

// Month is the sole temporal partition key for every computation: a
// (year, month) pair. All ledger queries and statement computations are
// scoped to exactly one Month.
type Month struct {
	Year  int
	Month int // 1-12
}

// NewMonth builds a Month, normalizing out-of-range month values by rolling
// into adjacent years (month 0 becomes December of the prior year).
func NewMonth(year, month int) Month {
	for month < 1 {
		month += 12
		year--
	}
	for month > 12 {
		month -= 12
		year++
	}
	return Month{Year: year, Month: month}
}

// MonthOf returns the Month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: int(t.Month())}
}

// ParseMonth parses "YYYY-MM".
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return Month{Year: t.Year(), Month: int(t.Month())}, nil
}

// IsZero reports whether the month is unset.
func (m Month) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// Validate checks the month is set and the month component is in range.
func (m Month) Validate() error {
	if m.IsZero() || m.Month < 1 || m.Month > 12 {
		return fmt.Errorf("%w: %d-%d", ErrInvalidMonth, m.Year, m.Month)
	}
	return nil
}

// String formats as "YYYY-MM".
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, m.Month)
}

// Key returns a totally ordered integer key (months since year zero),
// usable for comparisons and cache keys.
func (m Month) Key() int {
	return m.Year*12 + (m.Month - 1)
}

// Prev returns the immediately preceding month.
func (m Month) Prev() Month {
	return NewMonth(m.Year, m.Month-1)
}

// Next returns the immediately following month.
func (m Month) Next() Month {
	return NewMonth(m.Year, m.Month+1)
}

// Before reports whether m is strictly earlier than other.
func (m Month) Before(other Month) bool {
	return m.Key() < other.Key()
}

// After reports whether m is strictly later than other.
func (m Month) After(other Month) bool {
	return m.Key() > other.Key()
}

// Bounds returns the first instant of the month and the first instant of the
// next month (half-open interval [start, end)).
func (m Month) Bounds() (start, end time.Time) {
	start = time.Date(m.Year, time.Month(m.Month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// MonthsUntil returns the number of months from m through other inclusive.
// Returns 0 when other is before m.
func (m Month) MonthsUntil(other Month) int {
	n := other.Key() - m.Key() + 1
	if n < 0 {
		return 0
	}
	return n
}
