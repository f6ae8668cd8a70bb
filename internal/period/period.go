// Package period holds the calendar arithmetic behind every view: period
// boundaries, shifting, range membership and the top-bar range label.
//
// All functions are pure. Week boundaries depend on the Calendar's
// WeekStart, which defaults to Sunday.
package period

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Unit is the granularity of the calendar view.
type Unit string

const (
	Day   Unit = "day"
	Week  Unit = "week"
	Month Unit = "month"
)

// Units lists the supported units in display order.
var Units = []Unit{Day, Week, Month}

// ParseUnit accepts "day", "week" or "month" (case-insensitive).
func ParseUnit(s string) (Unit, error) {
	switch Unit(strings.ToLower(strings.TrimSpace(s))) {
	case Day:
		return Day, nil
	case Week:
		return Week, nil
	case Month:
		return Month, nil
	}
	return "", fmt.Errorf("period: unknown unit %q", s)
}

func (u Unit) Valid() bool {
	return u == Day || u == Week || u == Month
}

// ErrEmptyRange is returned by FormatRange when neither bound is set.
var ErrEmptyRange = errors.New("period: at least one of from and to must be set")

// Range is a from/to pair. A zero time.Time marks a missing bound.
type Range struct {
	From time.Time
	To   time.Time
}

// Complete reports whether both bounds are set.
func (r Range) Complete() bool {
	return !r.From.IsZero() && !r.To.IsZero()
}

// Calendar fixes the week start and display location for all arithmetic.
type Calendar struct {
	WeekStart time.Weekday
	Location  *time.Location
}

// New returns a Calendar. A nil loc means time.Local.
func New(weekStart time.Weekday, loc *time.Location) Calendar {
	if loc == nil {
		loc = time.Local
	}
	return Calendar{WeekStart: weekStart, Location: loc}
}

func (c Calendar) loc() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// DaysInMonth returns the number of days in month of year.
func DaysInMonth(month time.Month, year int) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// WeekdayOffset is the 0-based column of t's weekday when weeks start on
// c.WeekStart.
func (c Calendar) WeekdayOffset(t time.Time) int {
	return (int(t.In(c.loc()).Weekday()) - int(c.WeekStart) + 7) % 7
}

// StartOf returns the first instant of the day, week or month containing t.
func (c Calendar) StartOf(t time.Time, u Unit) time.Time {
	t = t.In(c.loc())
	y, m, d := t.Date()
	switch u {
	case Week:
		return time.Date(y, m, d-c.WeekdayOffset(t), 0, 0, 0, 0, c.loc())
	case Month:
		return time.Date(y, m, 1, 0, 0, 0, 0, c.loc())
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, c.loc())
	}
}

// EndOf returns the last instant (one nanosecond before the next period) of
// the day, week or month containing t.
func (c Calendar) EndOf(t time.Time, u Unit) time.Time {
	start := c.StartOf(t, u)
	var next time.Time
	switch u {
	case Week:
		next = start.AddDate(0, 0, 7)
	case Month:
		next = start.AddDate(0, 1, 0)
	default:
		next = start.AddDate(0, 0, 1)
	}
	return next.Add(-time.Nanosecond)
}

// Bounds returns StartOf and EndOf as a Range.
func (c Calendar) Bounds(t time.Time, u Unit) Range {
	return Range{From: c.StartOf(t, u), To: c.EndOf(t, u)}
}

// Add shifts t by amount units. Month shifts clamp to the length of the
// target month, and a date on the last day of its month lands on the last
// day of the target month. Wall-clock time of day is preserved.
func (c Calendar) Add(t time.Time, amount int, u Unit) time.Time {
	t = t.In(c.loc())
	switch u {
	case Week:
		return t.AddDate(0, 0, 7*amount)
	case Month:
		y, m, d := t.Date()
		hh, mm, ss := t.Clock()
		target := time.Date(y, m+time.Month(amount), 1, 0, 0, 0, 0, c.loc())
		ty, tm, _ := target.Date()
		last := DaysInMonth(tm, ty)
		if d == DaysInMonth(m, y) || d > last {
			d = last
		}
		return time.Date(ty, tm, d, hh, mm, ss, t.Nanosecond(), c.loc())
	default:
		return t.AddDate(0, 0, amount)
	}
}

// SameDay reports whether a and b fall on the same calendar day.
func (c Calendar) SameDay(a, b time.Time) bool {
	ay, am, ad := a.In(c.loc()).Date()
	by, bm, bd := b.In(c.loc()).Date()
	return ay == by && am == bm && ad == bd
}

// InRange reports whether t's day lies within r, compared by calendar day.
// Both ends are included unless excludeEnds is set. A missing bound leaves
// that side open.
func (c Calendar) InRange(t time.Time, r Range, excludeEnds bool) bool {
	day := c.StartOf(t, Day)
	if !r.From.IsZero() {
		from := c.StartOf(r.From, Day)
		if excludeEnds {
			if !day.After(from) {
				return false
			}
		} else if day.Before(from) {
			return false
		}
	}
	if !r.To.IsZero() {
		to := c.StartOf(r.To, Day)
		if excludeEnds {
			if !day.Before(to) {
				return false
			}
		} else if day.After(to) {
			return false
		}
	}
	return true
}

const (
	layoutDay      = "02"
	layoutDayMonth = "02 January"
	layoutFull     = "02 January 2006"
)

// FormatRange renders the top-bar label for r.
//
//	one bound      "05 March 2024"
//	same month     "05 - 20 March 2024"
//	same year      "05 March - 02 April 2024"
//	otherwise      "20 December 2023 - 05 January 2024"
func (c Calendar) FormatRange(r Range) (string, error) {
	from, to := r.From, r.To
	switch {
	case from.IsZero() && to.IsZero():
		return "", ErrEmptyRange
	case to.IsZero():
		return from.In(c.loc()).Format(layoutFull), nil
	case from.IsZero():
		return to.In(c.loc()).Format(layoutFull), nil
	}

	from, to = from.In(c.loc()), to.In(c.loc())
	switch {
	case from.Year() == to.Year() && from.Month() == to.Month():
		return from.Format(layoutDay) + " - " + to.Format(layoutFull), nil
	case from.Year() == to.Year():
		return from.Format(layoutDayMonth) + " - " + to.Format(layoutFull), nil
	default:
		return from.Format(layoutFull) + " - " + to.Format(layoutFull), nil
	}
}
