package core

import (
	"fmt"
	"time"
)

// Month identifies a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing d.
func MonthOf(d Date) Month {
	return Month{Year: d.Year(), Month: d.Time.Month()}
}

// ParseMonth parses a YYYY-MM string.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q: must be YYYY-MM", s)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// Start is the first day of the month.
func (m Month) Start() Date {
	return NewDate(m.Year, m.Month, 1)
}

// End is the last day of the month.
func (m Month) End() Date {
	return Date{Time: m.Start().AddDate(0, 1, -1)}
}

func (m Month) Prev() Month {
	return MonthOf(Date{Time: m.Start().AddDate(0, -1, 0)})
}

func (m Month) Next() Month {
	return MonthOf(Date{Time: m.Start().AddDate(0, 1, 0)})
}

// Contains reports whether d falls within [Start, End].
func (m Month) Contains(d Date) bool {
	return !d.IsZero() && d.Year() == m.Year && d.Time.Month() == m.Month
}

// After reports whether m is strictly later than o.
func (m Month) After(o Month) bool {
	if m.Year != o.Year {
		return m.Year > o.Year
	}
	return m.Month > o.Month
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}
