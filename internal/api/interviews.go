package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"interviewcal/internal/model"
)

// FilteredEventsRequest is the body of POST /interviews/filteredInterview.
type FilteredEventsRequest struct {
	From         string   `json:"from"`
	To           string   `json:"to"`
	Job          string   `json:"job,omitempty"`
	BusinessArea string   `json:"business_area,omitempty"`
	Interviewer  []string `json:"interviewer,omitempty"`
	Interviewee  string   `json:"interviewee,omitempty"`
}

// ISOString formats t the way the backend expects (UTC, millisecond
// precision, trailing Z).
func ISOString(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// FilteredInterviews lists the interviews inside the request window.
func (c *Client) FilteredInterviews(ctx context.Context, req FilteredEventsRequest) ([]model.Interview, error) {
	var resp struct {
		Interviews []model.Interview `json:"interviews"`
	}
	if err := c.do(ctx, http.MethodPost, "/interviews/filteredInterview", req, &resp); err != nil {
		return nil, err
	}
	if resp.Interviews == nil {
		resp.Interviews = []model.Interview{}
	}
	return resp.Interviews, nil
}

func (c *Client) GetInterview(ctx context.Context, id string) (model.Interview, error) {
	var resp struct {
		Interview model.Interview `json:"interview"`
	}
	err := c.do(ctx, http.MethodGet, "/interviews/"+url.PathEscape(id), nil, &resp)
	return resp.Interview, err
}

func (c *Client) DeleteInterview(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/interviews/"+url.PathEscape(id), nil, nil)
}

// InterviewRequest is the create/update body for an interview.
type InterviewRequest struct {
	Interviewer  []string `json:"interviewer,omitempty"`
	BusinessArea string   `json:"business_area,omitempty"`
	Job          string   `json:"job,omitempty"`
	DateTime     string   `json:"date_time"`
	Duration     int      `json:"duration,omitempty"`
	Location     string   `json:"location,omitempty"`
	Notes        string   `json:"notes,omitempty"`
	Interviewee  string   `json:"interviewee,omitempty"`
}

// SaveInterview creates an interview (empty id, POST /interviews/) or
// overwrites an existing one (POST /interviews/{id}).
func (c *Client) SaveInterview(ctx context.Context, id string, req InterviewRequest) (model.Interview, error) {
	path := "/interviews/"
	if id != "" {
		path = "/interviews/" + url.PathEscape(id)
	}
	var resp struct {
		Message   string          `json:"message"`
		Interview model.Interview `json:"interview"`
	}
	err := c.do(ctx, http.MethodPost, path, req, &resp)
	return resp.Interview, err
}

// InterviewPatch is the partial body of PUT /interviews/{id}. Nil fields
// are left out.
type InterviewPatch struct {
	Interviewer *[]string `json:"interviewer,omitempty"`
	Interviewee *string   `json:"interviewee,omitempty"`
	Status      *string   `json:"status,omitempty"`
}

func (c *Client) PatchInterview(ctx context.Context, id string, patch InterviewPatch) (model.Interview, error) {
	var resp struct {
		Interview model.Interview `json:"interview"`
	}
	err := c.do(ctx, http.MethodPut, "/interviews/"+url.PathEscape(id), patch, &resp)
	return resp.Interview, err
}
