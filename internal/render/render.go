// Package render builds the calendar pages served under /calendar/{unit}.
// The root element carries data-ready="true" once the page has data, which
// the snapshot capture waits for.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"interviewcal/internal/grid"
	"interviewcal/internal/model"
	"interviewcal/internal/period"
	"interviewcal/internal/placement"
)

//go:embed templates/*.html
var templates embed.FS

// Input is everything a page is built from.
type Input struct {
	Calendar period.Calendar
	Unit     period.Unit
	Window   period.Window
	Events   []model.Interview
	Overlays []model.Occurrence
	Loading  bool
	Err      string
	Engine   placement.Engine
	Now      time.Time
	BasePath string
}

type MonthCell struct {
	Date     time.Time
	InMonth  bool
	Today    bool
	Events   []model.Interview
	Overlays []model.Occurrence
}

type DayColumn struct {
	Date     time.Time
	Today    bool
	Slots    []placement.Slot
	Overlays []model.Occurrence
}

// Page is the template model.
type Page struct {
	Unit       period.Unit
	Units      []period.Unit
	Breadcrumb string
	// Ready marks the page as complete for the snapshot browser. A built
	// page is final; Loading only adds the banner.
	Ready      bool
	Loading    bool
	Err        string

	Weekdays []string
	Month    [][]MonthCell
	Days     []DayColumn

	// NowOffset is set when today is on screen.
	NowOffset   float64
	ShowNowLine bool
	BasePath    string
}

// Build derives the page model. It never fails: an unlabelled window gives
// an empty breadcrumb.
func Build(in Input) Page {
	cal := in.Calendar
	p := Page{
		Unit:     in.Unit,
		Units:    period.Units,
		Loading:  in.Loading,
		Err:      in.Err,
		Ready:    true,
		Weekdays: weekdays(cal),
		BasePath: in.BasePath,
	}
	if label, err := cal.FormatRange(in.Window.Bounds()); err == nil {
		p.Breadcrumb = label
	}

	switch in.Unit {
	case period.Month:
		p.Month = buildMonth(in)
	default:
		p.Days = buildDays(in)
		for _, d := range p.Days {
			if d.Today {
				p.ShowNowLine = true
				p.NowOffset = in.Engine.NowOffset(in.Now)
			}
		}
	}
	return p
}

func buildMonth(in Input) [][]MonthCell {
	cal := in.Calendar
	anchor := in.Window.Anchor()
	if anchor.IsZero() {
		anchor = in.Now
	}
	if loc := cal.Location; loc != nil {
		anchor = anchor.In(loc)
	}

	weeks := grid.BuildMonth(cal, anchor.Month(), anchor.Year())
	out := make([][]MonthCell, 0, len(weeks))
	for _, week := range weeks {
		row := make([]MonthCell, 0, len(week))
		for _, c := range week {
			row = append(row, MonthCell{
				Date:     c.Date,
				InMonth:  c.InMonth,
				Today:    cal.SameDay(c.Date, in.Now),
				Events:   grid.EventsOn(cal, c.Date, in.Events),
				Overlays: overlaysOn(cal, c.Date, in.Overlays),
			})
		}
		out = append(out, row)
	}
	return out
}

func buildDays(in Input) []DayColumn {
	cal := in.Calendar
	days := grid.DaysOf(cal, in.Window.Bounds())
	out := make([]DayColumn, 0, len(days))
	for _, d := range days {
		out = append(out, DayColumn{
			Date:     d,
			Today:    cal.SameDay(d, in.Now),
			Slots:    in.Engine.Layout(grid.EventsOn(cal, d, in.Events)),
			Overlays: overlaysOn(cal, d, in.Overlays),
		})
	}
	return out
}

func overlaysOn(cal period.Calendar, day time.Time, occ []model.Occurrence) []model.Occurrence {
	var out []model.Occurrence
	for _, o := range occ {
		if cal.SameDay(o.Start, day) {
			out = append(out, o)
		}
	}
	return out
}

func weekdays(cal period.Calendar) []string {
	out := make([]string, 7)
	for i := range out {
		out[i] = time.Weekday((int(cal.WeekStart) + i) % 7).String()[:3]
	}
	return out
}

// Renderer executes the embedded templates.
type Renderer struct {
	t *template.Template
}

func New() (*Renderer, error) {
	t, err := template.New("calendar").Funcs(template.FuncMap{
		"pct":      func(f float64) string { return fmt.Sprintf("%.4f%%", f) },
		"day":      func(t time.Time) string { return t.Format("2") },
		"dayLabel": func(t time.Time) string { return t.Format("Mon 02 Jan") },
		"clock":    func(t time.Time) string { return t.Format("3:04 PM") },
	}).ParseFS(templates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("render: parse templates: %w", err)
	}
	return &Renderer{t: t}, nil
}

func (r *Renderer) Calendar(w io.Writer, p Page) error {
	return r.t.ExecuteTemplate(w, "calendar.html", p)
}
