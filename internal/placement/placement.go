// Package placement lays out one day's interviews: vertical position from
// the start minute, columns among interviews sharing a start minute, and a
// color per slot that avoids repeating its neighbours.
package placement

import (
	"slices"
	"time"

	"interviewcal/internal/model"
)

const minutesPerDay = 24 * 60

// DefaultDuration applies to interviews without a recorded duration.
const DefaultDuration = 60 * time.Minute

// Slot is the rendered position of one interview. Percentages are relative
// to the day column.
type Slot struct {
	Event model.Interview `json:"event"`

	Top    float64 `json:"top"`
	Height float64 `json:"height"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`

	// Column is the index inside the group of interviews that start at the
	// same minute; Overlap is the size of that group.
	Column  int `json:"column"`
	Overlap int `json:"overlap"`

	Color string `json:"color"`
	Past  bool   `json:"past"`

	// TimeLabel is "3:04 PM - 4:04 PM" in the display location.
	TimeLabel string `json:"time_label"`
}

type Engine struct {
	Palette         []string
	PastColor       string
	DefaultDuration time.Duration
	Location        *time.Location
	Now             func() time.Time
}

func (e Engine) loc() *time.Location {
	if e.Location == nil {
		return time.Local
	}
	return e.Location
}

func (e Engine) duration() time.Duration {
	if e.DefaultDuration <= 0 {
		return DefaultDuration
	}
	return e.DefaultDuration
}

func (e Engine) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

type group struct {
	minute int
	events []model.Interview
}

// Layout places events that all fall on the same day. Groups are handled
// in chronological order; inside a group the input order is kept.
func (e Engine) Layout(events []model.Interview) []Slot {
	groups := e.groupByMinute(events)
	now := e.now()

	// last color handed out per start minute; earlier groups are always
	// filled in before later ones look them up
	last := make(map[int]string, len(groups))

	slots := make([]Slot, 0, len(events))
	for _, g := range groups {
		overlap := len(g.events)
		width := 100 / float64(overlap)

		for i, iv := range g.events {
			above, hasAbove := last[g.minute-60]
			color := e.pick(i, last[g.minute], above, hasAbove)
			last[g.minute] = color

			start := iv.StartTime.In(e.loc())
			dur := iv.Duration(e.duration())
			past := iv.StartTime.Before(now)

			s := Slot{
				Event:     iv,
				Top:       float64(g.minute) / minutesPerDay * 100,
				Height:    dur.Minutes() / minutesPerDay * 100,
				Left:      width * float64(i),
				Width:     width,
				Column:    i,
				Overlap:   overlap,
				Color:     color,
				Past:      past,
				TimeLabel: start.Format("3:04 PM") + " - " + start.Add(dur).Format("3:04 PM"),
			}
			if past {
				s.Color = e.PastColor
			}
			slots = append(slots, s)
		}
	}
	return slots
}

// pick scans the palette from index and returns the first color that
// differs from prev and from above. It returns "" when none qualifies.
func (e Engine) pick(index int, prev, above string, hasAbove bool) string {
	n := len(e.Palette)
	for i := 0; i < n; i++ {
		c := e.Palette[(index+i)%n]
		if c == prev {
			continue
		}
		if hasAbove && c == above {
			continue
		}
		return c
	}
	return ""
}

func (e Engine) groupByMinute(events []model.Interview) []group {
	byMinute := make(map[int]int)
	var groups []group
	for _, iv := range events {
		m := e.minuteOfDay(iv.StartTime)
		idx, ok := byMinute[m]
		if !ok {
			idx = len(groups)
			byMinute[m] = idx
			groups = append(groups, group{minute: m})
		}
		groups[idx].events = append(groups[idx].events, iv)
	}
	slices.SortStableFunc(groups, func(a, b group) int { return a.minute - b.minute })
	return groups
}

func (e Engine) minuteOfDay(t time.Time) int {
	t = t.In(e.loc())
	return t.Hour()*60 + t.Minute()
}

// NowOffset is the top percentage of the current-time indicator.
func (e Engine) NowOffset(now time.Time) float64 {
	return float64(e.minuteOfDay(now)) / minutesPerDay * 100
}
