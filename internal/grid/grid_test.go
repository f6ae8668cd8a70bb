package grid

import (
	"testing"
	"time"

	"interviewcal/internal/model"
	"interviewcal/internal/period"
)

func TestBuildMonthWholeWeeksForEveryMonth(t *testing.T) {
	for _, ws := range []time.Weekday{time.Sunday, time.Monday} {
		cal := period.New(ws, time.UTC)
		for year := 2020; year <= 2026; year++ {
			for m := time.January; m <= time.December; m++ {
				weeks := BuildMonth(cal, m, year)
				if len(weeks) < 4 || len(weeks) > 6 {
					t.Fatalf("%v %d (%v): %d rows", m, year, ws, len(weeks))
				}
				seen := map[int]bool{}
				for _, w := range weeks {
					if len(w) != 7 {
						t.Fatalf("%v %d: row length %d", m, year, len(w))
					}
					if w[0].Date.Weekday() != ws {
						t.Fatalf("%v %d: row starts on %v", m, year, w[0].Date.Weekday())
					}
					for _, c := range w {
						if c.InMonth {
							if c.Date.Month() != m {
								t.Fatalf("in-month cell %v outside %v", c.Date, m)
							}
							seen[c.Date.Day()] = true
						} else if c.Date.Month() == m {
							t.Fatalf("cell %v flagged outside but belongs to %v", c.Date, m)
						}
					}
				}
				if len(seen) != period.DaysInMonth(m, year) {
					t.Fatalf("%v %d: %d in-month days, want %d", m, year, len(seen), period.DaysInMonth(m, year))
				}
			}
		}
	}
}

func TestBuildMonthLeadingAndTrailing(t *testing.T) {
	cal := period.New(time.Sunday, time.UTC)
	// March 2024 starts on a Friday: five leading days from February.
	weeks := BuildMonth(cal, time.March, 2024)
	first := weeks[0]
	if first[0].Date.Day() != 25 || first[0].Date.Month() != time.February {
		t.Fatalf("first cell = %v", first[0].Date)
	}
	if !first[5].InMonth || first[5].Date.Day() != 1 {
		t.Fatalf("day 1 not at column 5: %+v", first[5])
	}
	last := weeks[len(weeks)-1]
	if last[6].Date.Month() != time.April || last[6].Date.Day() != 6 {
		t.Fatalf("last cell = %v", last[6].Date)
	}
}

func TestBuildMonthNoEmptyTrailingWeek(t *testing.T) {
	cal := period.New(time.Sunday, time.UTC)
	// February 2015 starts on Sunday and has 28 days: exactly 4 rows.
	weeks := BuildMonth(cal, time.February, 2015)
	if len(weeks) != 4 {
		t.Fatalf("rows = %d, want 4", len(weeks))
	}
	for _, c := range weeks[3] {
		if !c.InMonth {
			t.Fatalf("unexpected padding cell %v", c.Date)
		}
	}
}

func TestBuildMonthDeterministic(t *testing.T) {
	cal := period.New(time.Sunday, time.UTC)
	a := BuildMonth(cal, time.August, 2025)
	b := BuildMonth(cal, time.August, 2025)
	if len(a) != len(b) {
		t.Fatalf("row counts differ")
	}
	for i := range a {
		for j := range a[i] {
			if !a[i][j].Date.Equal(b[i][j].Date) || a[i][j].InMonth != b[i][j].InMonth {
				t.Fatalf("cell %d/%d differs", i, j)
			}
		}
	}
}

func TestEventsOn(t *testing.T) {
	cal := period.New(time.Sunday, time.UTC)
	events := []model.Interview{
		{ID: "a", StartTime: time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)},
		{ID: "b", StartTime: time.Date(2024, 3, 5, 23, 30, 0, 0, time.UTC)},
		{ID: "c", StartTime: time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)},
	}
	got := EventsOn(cal, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), events)
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("got %+v", got)
	}
}

func TestDaysOf(t *testing.T) {
	cal := period.New(time.Sunday, time.UTC)
	week := cal.Bounds(time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC), period.Week)
	days := DaysOf(cal, week)
	if len(days) != 7 {
		t.Fatalf("days = %d", len(days))
	}
	if days[0].Weekday() != time.Sunday || days[6].Weekday() != time.Saturday {
		t.Fatalf("week runs %v..%v", days[0].Weekday(), days[6].Weekday())
	}
	if DaysOf(cal, period.Range{From: week.From}) != nil {
		t.Fatalf("incomplete range must yield nil")
	}
}
