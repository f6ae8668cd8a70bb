package ics

import (
	"slices"
	"time"

	"github.com/teambition/rrule-go"

	appLog "interviewcal/internal/log"
	"interviewcal/internal/model"
	"interviewcal/internal/period"
)

// DefaultOccurrenceCap bounds how many instances one series may produce in
// a single expansion.
const DefaultOccurrenceCap = 2000

// Expansion turns parsed events into concrete occurrences inside Window,
// converted to Location.
type Expansion struct {
	Window   period.Range
	Location *time.Location
	Cap      int
}

// Run expands events and returns the occurrences sorted by start, plus the
// UIDs whose series hit the cap.
func (x Expansion) Run(events []vevent) (occ []model.Occurrence, truncated []string) {
	if x.Location == nil {
		x.Location = time.Local
	}
	if x.Cap <= 0 {
		x.Cap = DefaultOccurrenceCap
	}

	series := make(map[string][]vevent)
	overrides := make(map[string][]vevent)
	var order []string
	for _, ev := range events {
		if ev.recurrenceID != nil {
			overrides[ev.uid] = append(overrides[ev.uid], ev)
			continue
		}
		if _, seen := series[ev.uid]; !seen {
			order = append(order, ev.uid)
		}
		series[ev.uid] = append(series[ev.uid], ev)
	}

	for _, uid := range order {
		for _, ev := range series[uid] {
			got, capped := x.expandOne(ev, overrides[uid])
			occ = append(occ, got...)
			if capped && !slices.Contains(truncated, uid) {
				truncated = append(truncated, uid)
				appLog.Warn("overlay series truncated", "uid", uid, "cap", x.Cap)
			}
		}
	}

	slices.SortStableFunc(occ, func(a, b model.Occurrence) int { return a.Start.Compare(b.Start) })
	return occ, truncated
}

func (x Expansion) expandOne(ev vevent, overrides []vevent) ([]model.Occurrence, bool) {
	if ev.rrule == "" {
		if !x.overlaps(ev.start, ev.end) {
			return nil, false
		}
		return []model.Occurrence{x.occurrence(pickOverride(ev, overrides, ev.start))}, false
	}

	rule, err := rrule.StrToRRule(ev.rrule)
	if err != nil {
		appLog.Error("overlay RRULE rejected", err, "uid", ev.uid, "rrule", ev.rrule)
		return nil, false
	}
	rule.DTStart(ev.start)

	var set rrule.Set
	set.RRule(rule)
	for _, ex := range ev.exdates {
		set.ExDate(ex.In(ev.start.Location()))
	}

	dur := ev.end.Sub(ev.start)
	// widen by the duration so instances that started before the window but
	// still run into it are kept
	from := x.Window.From.Add(-dur).In(ev.start.Location())
	to := x.Window.To.In(ev.start.Location())
	starts := set.Between(from, to, true)

	capped := len(starts) > x.Cap
	if capped {
		starts = starts[:x.Cap]
	}

	out := make([]model.Occurrence, 0, len(starts))
	for _, s := range starts {
		inst := ev
		inst.start = s
		inst.end = s.Add(dur)
		if ev.allDay {
			day := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, s.Location())
			inst.start, inst.end = day, day.AddDate(0, 0, 1)
		}
		inst = pickOverride(inst, overrides, inst.start)
		if !x.overlaps(inst.start, inst.end) {
			continue
		}
		out = append(out, x.occurrence(inst))
	}
	return out, capped
}

// pickOverride returns the override whose RECURRENCE-ID is at, if any. The
// highest SEQUENCE wins among duplicates.
func pickOverride(ev vevent, overrides []vevent, at time.Time) vevent {
	found := false
	best := ev
	for _, o := range overrides {
		if o.recurrenceID == nil || !o.recurrenceID.Equal(at) {
			continue
		}
		if !found || o.sequence > best.sequence {
			best, found = o, true
		}
	}
	return best
}

func (x Expansion) overlaps(start, end time.Time) bool {
	return !end.Before(x.Window.From) && !start.After(x.Window.To)
}

func (x Expansion) occurrence(ev vevent) model.Occurrence {
	start := ev.start.In(x.Location)
	return model.Occurrence{
		SourceID:    ev.feed.ID,
		UID:         ev.uid,
		InstanceKey: start.Format(time.RFC3339),
		Summary:     ev.summary,
		Location:    ev.location,
		AllDay:      ev.allDay,
		Start:       start,
		End:         ev.end.In(x.Location),
	}
}
