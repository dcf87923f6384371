package core

import (
	"fmt"
	"strings"
	"time"
)

// Month is a calendar month bucket, represented canonically by its first
// day. Budgets are keyed by Month; expense aggregation uses the half-open
// interval [Start, Next.Start).
type Month struct {
	Year int
	Mon  time.Month
}

// ParseMonth parses a month in YYYY-MM form.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return Month{}, Validation("month", "must be a valid month in YYYY-MM form")
	}
	return Month{Year: t.Year(), Mon: t.Month()}, nil
}

// MonthOf normalizes any date to its month bucket. This is the single
// normalization point for every handler and query touching Budget.Month.
func MonthOf(d Date) Month {
	return Month{Year: d.Year(), Mon: d.Time.Month()}
}

// CurrentMonth returns the month bucket containing now.
func CurrentMonth() Month {
	now := time.Now().UTC()
	return Month{Year: now.Year(), Mon: now.Month()}
}

// Next returns the following calendar month, wrapping December into
// January of the next year.
func (m Month) Next() Month {
	if m.Mon == time.December {
		return Month{Year: m.Year + 1, Mon: time.January}
	}
	return Month{Year: m.Year, Mon: m.Mon + 1}
}

// Prev returns the preceding calendar month.
func (m Month) Prev() Month {
	if m.Mon == time.January {
		return Month{Year: m.Year - 1, Mon: time.December}
	}
	return Month{Year: m.Year, Mon: m.Mon - 1}
}

// Start returns the first day of the month at UTC midnight.
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Mon, 1, 0, 0, 0, 0, time.UTC)
}

// Contains reports whether d falls inside [m.Start, m.Next().Start).
func (m Month) Contains(d Date) bool {
	t := d.Time
	return !t.Before(m.Start()) && t.Before(m.Next().Start())
}

// String formats the month in YYYY-MM form.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Mon))
}

// IsZero reports whether the month is unset.
func (m Month) IsZero() bool {
	return m.Year == 0 && m.Mon == 0
}
