// Package calendar counts working days.
package calendar

import (
	"time"

	"github.com/garyjia/leave-approval/internal/application/port"
)

// WeekdayCounter counts Monday through Friday, minus configured holidays
type WeekdayCounter struct {
	holidays map[string]bool
}

// NewWeekdayCounter creates a counter that skips the given holiday dates
func NewWeekdayCounter(holidays []time.Time) *WeekdayCounter {
	h := make(map[string]bool, len(holidays))
	for _, d := range holidays {
		h[key(d)] = true
	}
	return &WeekdayCounter{holidays: h}
}

// BusinessDays counts working days in the inclusive range; a reversed range counts 0
func (c *WeekdayCounter) BusinessDays(start, end time.Time) int {
	start, end = day(start), day(end)
	n := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		if c.holidays[key(d)] {
			continue
		}
		n++
	}
	return n
}

// IsHoliday reports whether d is a configured holiday
func (c *WeekdayCounter) IsHoliday(d time.Time) bool {
	return c.holidays[key(d)]
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func key(t time.Time) string {
	return day(t).Format("2006-01-02")
}

var _ port.BusinessDayCounter = (*WeekdayCounter)(nil)
