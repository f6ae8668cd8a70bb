package ics

import (
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"interviewcal/internal/model"
)

// ProductID identifies documents produced by Export.
const ProductID = "-//interviewcal//interview calendar//EN"

// Export renders interviews as a published iCalendar document. Interviews
// without a duration last def.
func Export(interviews []model.Interview, def time.Duration, now time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)

	for _, iv := range interviews {
		ev := cal.AddEvent(iv.ID + "@interviewcal")
		ev.SetDtStampTime(now.UTC())
		if !iv.UpdatedAt.IsZero() {
			ev.SetModifiedAt(iv.UpdatedAt.UTC())
		}
		ev.SetStartAt(iv.StartTime.UTC())
		ev.SetEndAt(iv.StartTime.Add(iv.Duration(def)).UTC())
		ev.SetSummary(iv.Title())
		if iv.Location != "" {
			ev.SetLocation(iv.Location)
		}
		if d := describe(iv); d != "" {
			ev.SetDescription(d)
		}
		for _, p := range iv.Interviewers {
			if p.Email != "" {
				ev.AddAttendee("mailto:"+p.Email, ical.WithCN(p.Name))
			}
		}
	}
	return cal.Serialize()
}

func describe(iv model.Interview) string {
	var lines []string
	if iv.Job != nil && iv.Job.Title != "" {
		lines = append(lines, "Job: "+iv.Job.Title)
	}
	if names := iv.InterviewerNames(); names != "" {
		lines = append(lines, "Interviewer(s): "+names)
	}
	if iv.Status != "" {
		lines = append(lines, "Status: "+iv.Status)
	}
	if iv.Notes != "" {
		lines = append(lines, iv.Notes)
	}
	return strings.Join(lines, "\n")
}
