package model

import (
	"strings"
	"time"
)

// BusinessArea groups interviewers and jobs by department.
type BusinessArea struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Job struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
	UpdatedAt   time.Time `json:"updated_at,omitzero"`
}

type Interviewer struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Designation string    `json:"designation,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
	UpdatedAt   time.Time `json:"updated_at,omitzero"`
}

type Interviewee struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Resume    string    `json:"resume,omitempty"`
	Comments  string    `json:"comments,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// Interview is a scheduled interview as served by the backend. The wire
// field names follow the backend (date_time, interviewer, business_area).
type Interview struct {
	ID           string        `json:"id"`
	Interviewers []Interviewer `json:"interviewer"`
	BusinessArea *BusinessArea `json:"business_area,omitempty"`
	Job          *Job          `json:"job,omitempty"`
	Tags         []string      `json:"tags,omitempty"`
	StartTime    time.Time     `json:"date_time"`

	// DurationMinutes is optional; zero means "unspecified".
	DurationMinutes int `json:"duration,omitempty"`

	Location    string       `json:"location,omitempty"`
	Status      string       `json:"status,omitempty"`
	Notes       string       `json:"notes,omitempty"`
	Interviewee *Interviewee `json:"interviewee,omitempty"`
	CreatedAt   time.Time    `json:"createdAt,omitzero"`
	UpdatedAt   time.Time    `json:"updatedAt,omitzero"`
}

// Duration returns the interview length, or def when none was recorded.
func (iv Interview) Duration(def time.Duration) time.Duration {
	if iv.DurationMinutes <= 0 {
		return def
	}
	return time.Duration(iv.DurationMinutes) * time.Minute
}

// InterviewerIDs lists the ids of the assigned interviewers in order.
func (iv Interview) InterviewerIDs() []string {
	ids := make([]string, 0, len(iv.Interviewers))
	for _, p := range iv.Interviewers {
		if p.ID != "" {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// HasInterviewer reports whether userID is among the interviewers.
func (iv Interview) HasInterviewer(userID string) bool {
	for _, p := range iv.Interviewers {
		if p.ID == userID {
			return true
		}
	}
	return false
}

// Title is the label shown for the interview in every view.
func (iv Interview) Title() string {
	if iv.Interviewee != nil && iv.Interviewee.Name != "" {
		return "Interview with " + iv.Interviewee.Name
	}
	return "Interview"
}

// InterviewerNames joins the interviewer names with ", ".
func (iv Interview) InterviewerNames() string {
	names := make([]string, 0, len(iv.Interviewers))
	for _, p := range iv.Interviewers {
		names = append(names, p.Name)
	}
	return strings.Join(names, ", ")
}

// Occurrence is a single concrete instance of an external overlay event
// (after recurrence expansion and timezone normalization).
type Occurrence struct {
	SourceID string `json:"source_id"`
	UID      string `json:"uid"`

	// InstanceKey identifies one occurrence of a recurring event; it is the
	// local start time in RFC3339.
	InstanceKey string `json:"instance_key"`

	Summary  string `json:"summary"`
	Location string `json:"location,omitempty"`
	AllDay   bool   `json:"all_day"`

	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
