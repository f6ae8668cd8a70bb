// Package wizard is the three-step create/edit interview flow:
// job, then interview, then interviewee.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"interviewcal/internal/api"
	appLog "interviewcal/internal/log"
	"interviewcal/internal/model"
	"interviewcal/internal/store"
)

// ErrInvalidTransition is returned when an operation is not allowed in the
// current step.
var ErrInvalidTransition = errors.New("wizard: invalid transition")

type Step int

const (
	Closed Step = iota
	JobStep
	InterviewStep
	IntervieweeStep
)

func (s Step) String() string {
	switch s {
	case JobStep:
		return "job"
	case InterviewStep:
		return "interview"
	case IntervieweeStep:
		return "interviewee"
	default:
		return "closed"
	}
}

func (s Step) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

type Mode string

const (
	Create Mode = "create"
	Edit   Mode = "edit"
)

// State is the current step plus everything collected so far.
type State struct {
	Step Step `json:"step"`
	Mode Mode `json:"mode,omitempty"`

	InterviewID string             `json:"interview_id,omitempty"`
	Job         *model.Job         `json:"job,omitempty"`
	Interview   *model.Interview   `json:"interview,omitempty"`
	Interviewee *model.Interviewee `json:"interviewee,omitempty"`
}

type Backend interface {
	GetInterview(ctx context.Context, id string) (model.Interview, error)
	CreateJob(ctx context.Context, title, description string) (model.Job, error)
	SaveInterview(ctx context.Context, id string, req api.InterviewRequest) (model.Interview, error)
	CreateInterviewee(ctx context.Context, req api.CreateIntervieweeRequest) (model.Interviewee, error)
	PatchInterview(ctx context.Context, id string, patch api.InterviewPatch) (model.Interview, error)
}

// Refetcher is notified after a completed flow.
type Refetcher interface {
	Fetch(ctx context.Context) error
}

type Wizard struct {
	api   Backend
	after Refetcher
	st    *store.Store[State]

	// serializes transitions, including their backend calls
	mu sync.Mutex
}

func New(b Backend, after Refetcher) *Wizard {
	return &Wizard{api: b, after: after, st: store.New(State{})}
}

func (w *Wizard) Get() State { return w.st.Get() }

func (w *Wizard) Subscribe(fn func(State)) (unsubscribe func()) {
	return w.st.Subscribe(fn)
}

// Open starts the flow at the job step. A non-empty interviewID opens it in
// edit mode with every step pre-filled from the stored interview.
func (w *Wizard) Open(ctx context.Context, interviewID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	next := State{Step: JobStep, Mode: Create}
	if interviewID != "" {
		iv, err := w.api.GetInterview(ctx, interviewID)
		if err != nil {
			return fmt.Errorf("wizard: load interview %s: %w", interviewID, err)
		}
		next.Mode = Edit
		next.InterviewID = iv.ID
		next.Interview = &iv
		next.Job = iv.Job
		next.Interviewee = iv.Interviewee
	}
	w.st.Set(next)
	appLog.Debug("wizard opened", "mode", string(next.Mode), "interview", interviewID)
	return nil
}

// SubmitJob picks an existing job or creates one, then moves to the
// interview step.
func (w *Wizard) SubmitJob(ctx context.Context, in JobInput) (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	cur := w.st.Get()
	if cur.Step != JobStep {
		return cur, transitionError(cur.Step, "submit job")
	}
	if err := validate(in); err != nil {
		return cur, err
	}

	job := model.Job{ID: in.ID, Title: in.Title, Description: in.Description}
	if in.ID == "" {
		created, err := w.api.CreateJob(ctx, in.Title, in.Description)
		if err != nil {
			return cur, fmt.Errorf("wizard: create job: %w", err)
		}
		job = created
	} else if cur.Job != nil && cur.Job.ID == in.ID && job.Title == "" {
		job = *cur.Job
	}

	w.st.Update(func(s *State) {
		s.Job = &job
		s.Step = InterviewStep
	})
	return w.st.Get(), nil
}

// SubmitInterview creates or updates the interview, then moves to the
// interviewee step. An edit that changes nothing skips the request.
func (w *Wizard) SubmitInterview(ctx context.Context, in InterviewInput) (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	cur := w.st.Get()
	if cur.Step != InterviewStep {
		return cur, transitionError(cur.Step, "submit interview")
	}
	if err := validate(in); err != nil {
		return cur, err
	}

	req := in.request()
	if req.Job == "" && cur.Job != nil {
		req.Job = cur.Job.ID
	}

	if cur.Interview != nil && cur.InterviewID != "" && sameRequest(requestOf(*cur.Interview), req) {
		appLog.Debug("wizard: interview unchanged", "id", cur.InterviewID)
		w.st.Update(func(s *State) { s.Step = IntervieweeStep })
		return w.st.Get(), nil
	}

	saved, err := w.api.SaveInterview(ctx, cur.InterviewID, req)
	if err != nil {
		return cur, fmt.Errorf("wizard: save interview: %w", err)
	}
	if saved.ID == "" {
		saved.ID = cur.InterviewID
	}
	appLog.Info("interview saved", "id", saved.ID, "mode", string(cur.Mode))

	w.st.Update(func(s *State) {
		s.Interview = &saved
		s.InterviewID = saved.ID
		s.Step = IntervieweeStep
	})
	return w.st.Get(), nil
}

// SubmitInterviewee picks or creates the interviewee, attaches it to the
// interview and closes the wizard. The event cache is refetched on
// success.
func (w *Wizard) SubmitInterviewee(ctx context.Context, in IntervieweeInput) (model.Interview, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	cur := w.st.Get()
	if cur.Step != IntervieweeStep {
		return model.Interview{}, transitionError(cur.Step, "submit interviewee")
	}
	if err := validate(in); err != nil {
		return model.Interview{}, err
	}
	if cur.InterviewID == "" {
		return model.Interview{}, fmt.Errorf("%w: no interview to attach to", ErrInvalidTransition)
	}

	person := model.Interviewee{ID: in.ID, Name: in.Name, Email: in.Email, Comments: in.Comments}
	if in.ID == "" {
		created, err := w.api.CreateInterviewee(ctx, api.CreateIntervieweeRequest{
			Name:     in.Name,
			Email:    in.Email,
			Comments: in.Comments,
		})
		if err != nil {
			return model.Interview{}, fmt.Errorf("wizard: create interviewee: %w", err)
		}
		person = created
	}

	updated, err := w.api.PatchInterview(ctx, cur.InterviewID, api.InterviewPatch{Interviewee: &person.ID})
	if err != nil {
		return model.Interview{}, fmt.Errorf("wizard: attach interviewee: %w", err)
	}
	if updated.ID == "" && cur.Interview != nil {
		updated = *cur.Interview
	}
	updated.Interviewee = &person
	appLog.Info("interviewee attached", "interview", cur.InterviewID, "interviewee", person.ID)

	w.st.Set(State{})
	if w.after != nil {
		_ = w.after.Fetch(ctx)
	}
	return updated, nil
}

// Back returns to the previous step. There is nothing before the job step.
func (w *Wizard) Back() (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	cur := w.st.Get()
	switch cur.Step {
	case IntervieweeStep:
		cur.Step = InterviewStep
	case InterviewStep:
		cur.Step = JobStep
	default:
		return cur, transitionError(cur.Step, "back")
	}
	w.st.Set(cur)
	return cur, nil
}

// Close discards the flow and everything collected.
func (w *Wizard) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.st.Set(State{})
}

func transitionError(from Step, op string) error {
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, op, from)
}

// requestOf rebuilds the request that would reproduce iv.
func requestOf(iv model.Interview) api.InterviewRequest {
	req := api.InterviewRequest{
		Interviewer: iv.InterviewerIDs(),
		DateTime:    api.ISOString(iv.StartTime),
		Duration:    iv.DurationMinutes,
		Location:    iv.Location,
		Notes:       iv.Notes,
	}
	if iv.BusinessArea != nil {
		req.BusinessArea = iv.BusinessArea.ID
	}
	if iv.Job != nil {
		req.Job = iv.Job.ID
	}
	return req
}

func sameRequest(a, b api.InterviewRequest) bool {
	return slices.Equal(a.Interviewer, b.Interviewer) &&
		a.BusinessArea == b.BusinessArea &&
		a.Job == b.Job &&
		a.DateTime == b.DateTime &&
		a.Duration == b.Duration &&
		a.Location == b.Location &&
		a.Notes == b.Notes
}

func (in InterviewInput) request() api.InterviewRequest {
	return api.InterviewRequest{
		Interviewer:  slices.Clone(in.Interviewers),
		BusinessArea: in.BusinessArea,
		Job:          in.Job,
		DateTime:     api.ISOString(in.DateTime),
		Duration:     in.DurationMinutes,
		Location:     in.Location,
		Notes:        in.Notes,
	}
}
