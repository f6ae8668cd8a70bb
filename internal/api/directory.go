package api

import (
	"context"
	"net/http"

	"interviewcal/internal/model"
)

// SearchJobs backs the role typeahead.
func (c *Client) SearchJobs(ctx context.Context, title string) ([]model.Job, error) {
	var out []model.Job
	err := c.do(ctx, http.MethodPost, "/jobs/search", map[string]string{"title": title}, &out)
	return out, err
}

func (c *Client) CreateJob(ctx context.Context, title, description string) (model.Job, error) {
	in := map[string]string{"title": title, "description": description}
	var resp struct {
		Message string    `json:"message"`
		Job     model.Job `json:"job"`
	}
	err := c.do(ctx, http.MethodPost, "/jobs", in, &resp)
	return resp.Job, err
}

func (c *Client) SearchInterviewers(ctx context.Context, text string) ([]model.Interviewer, error) {
	var out []model.Interviewer
	err := c.do(ctx, http.MethodPost, "/interviewers/search", map[string]string{"text": text}, &out)
	return out, err
}

func (c *Client) SearchInterviewees(ctx context.Context, text string) ([]model.Interviewee, error) {
	var out []model.Interviewee
	err := c.do(ctx, http.MethodPost, "/interviewees/search", map[string]string{"text": text}, &out)
	return out, err
}

// CreateIntervieweeRequest is the body of POST /interviewees.
type CreateIntervieweeRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Comments string `json:"comments,omitempty"`
}

func (c *Client) CreateInterviewee(ctx context.Context, req CreateIntervieweeRequest) (model.Interviewee, error) {
	var resp struct {
		Message     string            `json:"message"`
		Interviewee model.Interviewee `json:"interviewee"`
	}
	err := c.do(ctx, http.MethodPost, "/interviewees", req, &resp)
	return resp.Interviewee, err
}

func (c *Client) BusinessAreas(ctx context.Context) ([]model.BusinessArea, error) {
	var out []model.BusinessArea
	err := c.do(ctx, http.MethodGet, "/businessareas/", nil, &out)
	return out, err
}
