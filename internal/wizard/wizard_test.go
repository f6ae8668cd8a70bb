package wizard

import (
	"context"
	"errors"
	"testing"
	"time"

	"interviewcal/internal/api"
	"interviewcal/internal/model"
)

type fakeAPI struct {
	stored map[string]model.Interview

	jobsCreated  []string
	saves        []string
	saveReqs     []api.InterviewRequest
	created      []api.CreateIntervieweeRequest
	patchedIDs   []string
	attachedWith []string
}

func (f *fakeAPI) GetInterview(_ context.Context, id string) (model.Interview, error) {
	iv, ok := f.stored[id]
	if !ok {
		return model.Interview{}, &api.StatusError{Method: "GET", Path: "/interviews/" + id, Status: 404}
	}
	return iv, nil
}

func (f *fakeAPI) CreateJob(_ context.Context, title, description string) (model.Job, error) {
	f.jobsCreated = append(f.jobsCreated, title)
	return model.Job{ID: "job-new", Title: title, Description: description}, nil
}

func (f *fakeAPI) SaveInterview(_ context.Context, id string, req api.InterviewRequest) (model.Interview, error) {
	f.saves = append(f.saves, id)
	f.saveReqs = append(f.saveReqs, req)
	if id == "" {
		id = "iv-new"
	}
	return model.Interview{ID: id}, nil
}

func (f *fakeAPI) CreateInterviewee(_ context.Context, req api.CreateIntervieweeRequest) (model.Interviewee, error) {
	f.created = append(f.created, req)
	return model.Interviewee{ID: "person-new", Name: req.Name, Email: req.Email}, nil
}

func (f *fakeAPI) PatchInterview(_ context.Context, id string, p api.InterviewPatch) (model.Interview, error) {
	f.patchedIDs = append(f.patchedIDs, id)
	if p.Interviewee != nil {
		f.attachedWith = append(f.attachedWith, *p.Interviewee)
	}
	return model.Interview{ID: id}, nil
}

type countingFetch struct{ n int }

func (c *countingFetch) Fetch(context.Context) error {
	c.n++
	return nil
}

var slot = time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

func TestCreateFlow(t *testing.T) {
	f := &fakeAPI{}
	fetch := &countingFetch{}
	w := New(f, fetch)
	ctx := context.Background()

	if err := w.Open(ctx, ""); err != nil {
		t.Fatal(err)
	}
	if st := w.Get(); st.Step != JobStep || st.Mode != Create {
		t.Fatalf("state = %+v", st)
	}

	st, err := w.SubmitJob(ctx, JobInput{Title: "Backend Engineer", Description: "Owns the scheduling API"})
	if err != nil {
		t.Fatal(err)
	}
	if st.Step != InterviewStep || st.Job.ID != "job-new" {
		t.Fatalf("state = %+v", st)
	}

	st, err = w.SubmitInterview(ctx, InterviewInput{Interviewers: []string{"u1"}, DateTime: slot, DurationMinutes: 45})
	if err != nil {
		t.Fatal(err)
	}
	if st.Step != IntervieweeStep || st.InterviewID != "iv-new" {
		t.Fatalf("state = %+v", st)
	}
	if f.saves[0] != "" || f.saveReqs[0].Job != "job-new" || f.saveReqs[0].DateTime != "2024-03-05T10:00:00.000Z" {
		t.Fatalf("save = %q %+v", f.saves[0], f.saveReqs[0])
	}

	iv, err := w.SubmitInterviewee(ctx, IntervieweeInput{Name: "Grace", Email: "grace@example.test"})
	if err != nil {
		t.Fatal(err)
	}
	if iv.Interviewee == nil || iv.Interviewee.ID != "person-new" {
		t.Fatalf("interview = %+v", iv)
	}
	if len(f.attachedWith) != 1 || f.patchedIDs[0] != "iv-new" {
		t.Fatalf("patches = %v %v", f.patchedIDs, f.attachedWith)
	}
	if st := w.Get(); st.Step != Closed || st.Job != nil {
		t.Fatalf("wizard not reset: %+v", st)
	}
	if fetch.n != 1 {
		t.Fatalf("refetches = %d", fetch.n)
	}
}

func TestEditPrefillAndUnchangedSkip(t *testing.T) {
	stored := model.Interview{
		ID:              "iv1",
		Interviewers:    []model.Interviewer{{ID: "u1"}},
		Job:             &model.Job{ID: "j1", Title: "SRE"},
		StartTime:       slot,
		DurationMinutes: 30,
		Interviewee:     &model.Interviewee{ID: "p1", Name: "Linus"},
	}
	f := &fakeAPI{stored: map[string]model.Interview{"iv1": stored}}
	w := New(f, nil)
	ctx := context.Background()

	if err := w.Open(ctx, "iv1"); err != nil {
		t.Fatal(err)
	}
	st := w.Get()
	if st.Mode != Edit || st.Job.ID != "j1" || st.Interviewee.ID != "p1" || st.InterviewID != "iv1" {
		t.Fatalf("prefill = %+v", st)
	}

	if _, err := w.SubmitJob(ctx, JobInput{ID: "j1"}); err != nil {
		t.Fatal(err)
	}
	if w.Get().Job.Title != "SRE" {
		t.Fatalf("job lost its title: %+v", w.Get().Job)
	}
	if _, err := w.SubmitInterview(ctx, InterviewInput{Interviewers: []string{"u1"}, DateTime: slot, DurationMinutes: 30}); err != nil {
		t.Fatal(err)
	}
	if len(f.saves) != 0 {
		t.Fatalf("unchanged edit must not save: %v", f.saves)
	}

	if _, err := w.Back(); err != nil {
		t.Fatal(err)
	}
	if _, err := w.SubmitInterview(ctx, InterviewInput{Interviewers: []string{"u1", "u2"}, DateTime: slot, DurationMinutes: 30}); err != nil {
		t.Fatal(err)
	}
	if len(f.saves) != 1 || f.saves[0] != "iv1" {
		t.Fatalf("saves = %v", f.saves)
	}
}

func TestValidation(t *testing.T) {
	f := &fakeAPI{}
	w := New(f, nil)
	ctx := context.Background()
	_ = w.Open(ctx, "")

	_, err := w.SubmitJob(ctx, JobInput{Title: "QA", Description: "short"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v", err)
	}
	if _, ok := verr.Fields["title"]; !ok {
		t.Fatalf("fields = %v", verr.Fields)
	}
	if _, ok := verr.Fields["description"]; !ok {
		t.Fatalf("fields = %v", verr.Fields)
	}

	if _, err := w.SubmitJob(ctx, JobInput{}); !errors.As(err, &verr) {
		t.Fatalf("empty job err = %v", err)
	}
	if len(f.jobsCreated) != 0 || w.Get().Step != JobStep {
		t.Fatalf("invalid input must not advance")
	}

	if _, err := w.SubmitJob(ctx, JobInput{ID: "j1"}); err != nil {
		t.Fatal(err)
	}
	_, err = w.SubmitInterview(ctx, InterviewInput{})
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v", err)
	}
	if _, ok := verr.Fields["interviewer"]; !ok {
		t.Fatalf("fields = %v", verr.Fields)
	}
	if _, ok := verr.Fields["date_time"]; !ok {
		t.Fatalf("fields = %v", verr.Fields)
	}

	if _, err := w.SubmitInterview(ctx, InterviewInput{Interviewers: []string{"u1"}, DateTime: slot}); err != nil {
		t.Fatal(err)
	}
	_, err = w.SubmitInterviewee(ctx, IntervieweeInput{Name: "Ken", Email: "not-an-email"})
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v", err)
	}
	if _, ok := verr.Fields["interviewee_email"]; !ok {
		t.Fatalf("fields = %v", verr.Fields)
	}
}

func TestInvalidTransitions(t *testing.T) {
	w := New(&fakeAPI{}, nil)
	ctx := context.Background()

	if _, err := w.SubmitJob(ctx, JobInput{ID: "j1"}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("submit while closed: %v", err)
	}
	_ = w.Open(ctx, "")
	if _, err := w.Back(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("back from job: %v", err)
	}
	if _, err := w.SubmitInterviewee(ctx, IntervieweeInput{ID: "p1"}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("skip ahead: %v", err)
	}

	_, _ = w.SubmitJob(ctx, JobInput{ID: "j1"})
	w.Close()
	if st := w.Get(); st.Step != Closed || st.Job != nil {
		t.Fatalf("close did not reset: %+v", st)
	}
}

func TestOpenUnknownInterview(t *testing.T) {
	w := New(&fakeAPI{}, nil)
	if err := w.Open(context.Background(), "missing"); !api.IsNotFound(err) {
		t.Fatalf("err = %v", err)
	}
	if w.Get().Step != Closed {
		t.Fatalf("failed open must stay closed")
	}
}
