package ics

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "interviewcal/internal/log"
)

// vevent is one VEVENT before recurrence expansion.
type vevent struct {
	feed Feed

	uid      string
	sequence int
	summary  string
	location string

	start, end time.Time
	allDay     bool

	rrule   string
	exdates []time.Time
	// recurrenceID is set on an override of one instance of a series.
	recurrenceID *time.Time
}

// parse reads every VEVENT of body. Events without a UID are skipped.
func parse(feed Feed, body []byte) ([]vevent, error) {
	if len(body) == 0 {
		return nil, errors.New("ics: empty body")
	}
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	out := make([]vevent, 0, len(cal.Events()))
	for _, ve := range cal.Events() {
		ev, err := readEvent(feed, ve)
		if err != nil {
			appLog.Warn("skipping overlay event", "feed", feed.ID, "reason", err.Error())
			continue
		}
		out = append(out, ev)
	}
	appLog.Debug("overlay parsed", "feed", feed.ID, "events", len(out))
	return out, nil
}

func readEvent(feed Feed, ve *ical.VEvent) (vevent, error) {
	ev := vevent{feed: feed}

	ev.uid = value(ve, ical.ComponentPropertyUniqueId)
	if ev.uid == "" {
		return ev, errors.New("missing UID")
	}
	if n, err := strconv.Atoi(strings.TrimSpace(value(ve, ical.ComponentPropertySequence))); err == nil {
		ev.sequence = n
	}
	ev.summary = value(ve, ical.ComponentPropertySummary)
	ev.location = value(ve, ical.ComponentPropertyLocation)

	start, err := ve.GetStartAt()
	if err != nil {
		return ev, err
	}
	ev.start = start
	if end, err := ve.GetEndAt(); err == nil {
		ev.end = end
	} else {
		ev.end = start
	}

	if p := ve.GetProperty(ical.ComponentPropertyDtStart); p != nil {
		ev.allDay = strings.EqualFold(param(p, "VALUE"), "DATE") || !strings.Contains(p.Value, "T")
	}
	if ev.allDay && !ev.end.After(ev.start) {
		ev.end = ev.start.AddDate(0, 0, 1)
	}

	ev.rrule = value(ve, ical.ComponentPropertyRrule)

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		loc := zone(param(p, "TZID"), start.Location())
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseStamp(part, loc); err == nil {
				ev.exdates = append(ev.exdates, t)
			}
		}
	}

	if p := ve.GetProperty(ical.ComponentProperty("RECURRENCE-ID")); p != nil {
		if t, err := parseStamp(p.Value, zone(param(p, "TZID"), start.Location())); err == nil {
			ev.recurrenceID = &t
		}
	}
	return ev, nil
}

func value(ve *ical.VEvent, prop ical.ComponentProperty) string {
	if p := ve.GetProperty(prop); p != nil {
		return p.Value
	}
	return ""
}

func param(p *ical.IANAProperty, name string) string {
	if vs := p.ICalParameters[name]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func zone(tzid string, fallback *time.Location) *time.Location {
	if tzid != "" {
		if loc, err := time.LoadLocation(tzid); err == nil {
			return loc
		}
	}
	return fallback
}

// parseStamp reads DATE, floating DATE-TIME and UTC DATE-TIME values.
func parseStamp(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.New("empty value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}
