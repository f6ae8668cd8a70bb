package grid

import (
	"time"

	"interviewcal/internal/model"
	"interviewcal/internal/period"
)

// Cell is one day of the month matrix.
type Cell struct {
	Date time.Time `json:"date"`
	// InMonth is false for the leading/trailing days borrowed from the
	// adjacent months to complete the first and last week.
	InMonth bool `json:"in_month"`
}

// BuildMonth returns the whole weeks covering month/year. Every row has
// exactly 7 cells; there are 4 to 6 rows depending on alignment.
func BuildMonth(cal period.Calendar, month time.Month, year int) [][]Cell {
	loc := cal.Location
	if loc == nil {
		loc = time.Local
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	lead := cal.WeekdayOffset(first)
	days := period.DaysInMonth(month, year)

	total := lead + days
	if rem := total % 7; rem != 0 {
		total += 7 - rem
	}

	weeks := make([][]Cell, 0, total/7)
	week := make([]Cell, 0, 7)
	for i := 0; i < total; i++ {
		// time.Date normalizes day offsets outside 1..days into the
		// previous/next month.
		d := time.Date(year, month, 1-lead+i, 0, 0, 0, 0, loc)
		week = append(week, Cell{
			Date:    d,
			InMonth: i >= lead && i < lead+days,
		})
		if len(week) == 7 {
			weeks = append(weeks, week)
			week = make([]Cell, 0, 7)
		}
	}
	return weeks
}

// EventsOn returns the interviews starting on the same calendar day as day.
func EventsOn(cal period.Calendar, day time.Time, events []model.Interview) []model.Interview {
	var out []model.Interview
	for _, ev := range events {
		if cal.SameDay(ev.StartTime, day) {
			out = append(out, ev)
		}
	}
	return out
}

// DaysOf lists the start of every day inside r, in order. The week view
// uses it to lay out one column per day.
func DaysOf(cal period.Calendar, r period.Range) []time.Time {
	if !r.Complete() {
		return nil
	}
	var out []time.Time
	for d := cal.StartOf(r.From, period.Day); !d.After(r.To); d = cal.Add(d, 1, period.Day) {
		out = append(out, d)
	}
	return out
}
