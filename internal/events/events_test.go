package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"interviewcal/internal/api"
	"interviewcal/internal/model"
	"interviewcal/internal/period"
	"interviewcal/internal/view"
)

type fixedView struct{ st view.State }

func (f fixedView) Get() view.State { return f.st }

func marchView() fixedView {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 23, 59, 59, 999_000_000, time.UTC)
	return fixedView{st: view.State{Unit: period.Month, Window: period.Span(from, to)}}
}

type fakeBackend struct {
	mu    sync.Mutex
	calls []api.FilteredEventsRequest
	fn    func(api.FilteredEventsRequest) ([]model.Interview, error)

	deleted []string
	patches map[string][]string
	byID    map[string]model.Interview
}

func (f *fakeBackend) FilteredInterviews(_ context.Context, req api.FilteredEventsRequest) ([]model.Interview, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	return f.fn(req)
}

func (f *fakeBackend) GetInterview(_ context.Context, id string) (model.Interview, error) {
	iv, ok := f.byID[id]
	if !ok {
		return model.Interview{}, &api.StatusError{Method: "GET", Path: "/interviews/" + id, Status: 404}
	}
	return iv, nil
}

func (f *fakeBackend) DeleteInterview(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeBackend) PatchInterview(_ context.Context, id string, p api.InterviewPatch) (model.Interview, error) {
	if f.patches == nil {
		f.patches = map[string][]string{}
	}
	f.patches[id] = *p.Interviewer
	return model.Interview{ID: id}, nil
}

func listOf(ids ...string) []model.Interview {
	out := make([]model.Interview, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Interview{ID: id})
	}
	return out
}

func TestFetchIncompleteWindowIsNoop(t *testing.T) {
	b := &fakeBackend{fn: func(api.FilteredEventsRequest) ([]model.Interview, error) {
		t.Fatal("backend must not be called")
		return nil, nil
	}}
	v := fixedView{st: view.State{Unit: period.Month, Window: period.Span(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Time{})}}
	s := NewStore(v, b)

	var notified int
	s.Subscribe(func(State) { notified++ })

	if err := s.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if notified != 0 {
		t.Fatalf("state changed %d times", notified)
	}
	if st := s.Get(); st.Loading || st.Err != "" || len(st.Events) != 0 {
		t.Fatalf("state = %+v", st)
	}
}

func TestFetchReplacesEventsAndSendsFilter(t *testing.T) {
	b := &fakeBackend{fn: func(api.FilteredEventsRequest) ([]model.Interview, error) {
		return listOf("a", "b"), nil
	}}
	s := NewStore(marchView(), b)
	s.SetFilter(&Filter{Job: "j1", Interviewers: []string{"u1"}})
	if len(b.calls) != 0 {
		t.Fatalf("SetFilter must not fetch")
	}

	var sawLoading bool
	s.Subscribe(func(st State) {
		if st.Loading {
			sawLoading = true
		}
	})

	if err := s.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	st := s.Get()
	if len(st.Events) != 2 || st.Loading || st.Err != "" {
		t.Fatalf("state = %+v", st)
	}
	if !sawLoading {
		t.Fatalf("loading was never observed")
	}

	req := b.calls[0]
	if req.From != "2024-03-01T00:00:00.000Z" || req.To != "2024-03-31T23:59:59.999Z" {
		t.Fatalf("window = %s..%s", req.From, req.To)
	}
	if req.Job != "j1" || len(req.Interviewer) != 1 || req.Interviewer[0] != "u1" {
		t.Fatalf("filter not applied: %+v", req)
	}
}

func TestFetchFailureKeepsEventsThenClears(t *testing.T) {
	fail := true
	b := &fakeBackend{}
	b.fn = func(api.FilteredEventsRequest) ([]model.Interview, error) {
		if fail {
			return nil, errors.New("boom")
		}
		return listOf("c"), nil
	}
	s := NewStore(marchView(), b)

	fail = false
	if err := s.Fetch(context.Background()); err != nil {
		t.Fatal(err)
	}

	fail = true
	if err := s.Fetch(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	st := s.Get()
	if st.Err != FetchErrorMessage {
		t.Fatalf("err = %q", st.Err)
	}
	if len(st.Events) != 1 || st.Events[0].ID != "c" {
		t.Fatalf("events = %+v", st.Events)
	}
	if st.Loading {
		t.Fatalf("loading stuck")
	}

	fail = false
	if err := s.Fetch(context.Background()); err != nil {
		t.Fatal(err)
	}
	if st := s.Get(); st.Err != "" {
		t.Fatalf("err not cleared: %q", st.Err)
	}
}

// overlapping runs two fetches where the first one resolves last.
func overlapping(t *testing.T, opts ...Option) State {
	t.Helper()
	releaseFirst := make(chan struct{})
	firstStarted := make(chan struct{})

	var n int
	var mu sync.Mutex
	b := &fakeBackend{fn: func(api.FilteredEventsRequest) ([]model.Interview, error) {
		mu.Lock()
		n++
		call := n
		mu.Unlock()
		if call == 1 {
			close(firstStarted)
			<-releaseFirst
			return listOf("old"), nil
		}
		return listOf("new"), nil
	}}
	s := NewStore(marchView(), b, opts...)

	done := make(chan struct{})
	go func() {
		_ = s.Fetch(context.Background())
		close(done)
	}()
	<-firstStarted

	if err := s.Fetch(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !s.Get().Loading {
		t.Fatalf("loading must stay true while the first fetch is in flight")
	}
	close(releaseFirst)
	<-done
	return s.Get()
}

func TestOverlappingFetchLastResolvedWins(t *testing.T) {
	st := overlapping(t)
	if st.Events[0].ID != "old" {
		t.Fatalf("events = %+v", st.Events)
	}
	if st.Loading {
		t.Fatalf("loading stuck")
	}
}

func TestOverlappingFetchDropStale(t *testing.T) {
	st := overlapping(t, WithDropStale(true))
	if st.Events[0].ID != "new" {
		t.Fatalf("events = %+v", st.Events)
	}
}

func TestWatchFetchesOnViewChange(t *testing.T) {
	called := make(chan struct{}, 4)
	b := &fakeBackend{fn: func(api.FilteredEventsRequest) ([]model.Interview, error) {
		called <- struct{}{}
		return listOf("x"), nil
	}}
	cal := period.New(time.Sunday, time.UTC)
	vs := view.NewStore(cal, view.WithNow(func() time.Time {
		return time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)
	}))
	s := NewStore(vs, b)
	stop := s.Watch(context.Background(), vs)
	defer stop()

	vs.Next()
	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("no fetch after view change")
	}
	b.mu.Lock()
	from := b.calls[0].From
	b.mu.Unlock()
	if from != "2024-04-01T00:00:00.000Z" {
		t.Fatalf("from = %s", from)
	}
}

func TestActionsJoinLeaveDelete(t *testing.T) {
	iv := model.Interview{ID: "iv1", Interviewers: []model.Interviewer{{ID: "u1"}}}
	b := &fakeBackend{
		fn:   func(api.FilteredEventsRequest) ([]model.Interview, error) { return []model.Interview{iv}, nil },
		byID: map[string]model.Interview{"iv1": iv},
	}
	s := NewStore(marchView(), b)
	a := NewActions(b, s)
	ctx := context.Background()

	if err := a.JoinAsInterviewer(ctx, "iv1", "u2"); err != nil {
		t.Fatal(err)
	}
	if got := b.patches["iv1"]; len(got) != 2 || got[1] != "u2" {
		t.Fatalf("join patch = %v", got)
	}

	if err := a.LeaveAsInterviewer(ctx, "iv1", "u1"); err != nil {
		t.Fatal(err)
	}
	if got := b.patches["iv1"]; len(got) != 0 {
		t.Fatalf("leave patch = %v", got)
	}

	if err := a.Delete(ctx, "iv1"); err != nil {
		t.Fatal(err)
	}
	if len(b.deleted) != 1 {
		t.Fatalf("deleted = %v", b.deleted)
	}
	if len(b.calls) != 3 {
		t.Fatalf("expected a refetch per action, got %d", len(b.calls))
	}
}

func TestActionsUnknownInterview(t *testing.T) {
	b := &fakeBackend{fn: func(api.FilteredEventsRequest) ([]model.Interview, error) { return nil, nil }}
	a := NewActions(b, NewStore(marchView(), b))
	err := a.JoinAsInterviewer(context.Background(), "nope", "u1")
	if !api.IsNotFound(err) {
		t.Fatalf("err = %v", err)
	}
}

func TestSettleWaitsForInflightFetch(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	b := &fakeBackend{fn: func(api.FilteredEventsRequest) ([]model.Interview, error) {
		close(started)
		<-release
		return listOf("late"), nil
	}}
	s := NewStore(marchView(), b)

	if err := s.Settle(context.Background()); err != nil {
		t.Fatalf("Settle while idle: %v", err)
	}

	go func() { _ = s.Fetch(context.Background()) }()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := s.Settle(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Settle during fetch = %v", err)
	}

	close(release)
	if err := s.Settle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if st := s.Get(); st.Loading || len(st.Events) != 1 || st.Events[0].ID != "late" {
		t.Fatalf("state after settle = %+v", st)
	}
}

func TestLoadRangeLeavesStateAlone(t *testing.T) {
	b := &fakeBackend{fn: func(api.FilteredEventsRequest) ([]model.Interview, error) {
		return listOf("w1"), nil
	}}
	s := NewStore(marchView(), b)
	s.SetFilter(&Filter{BusinessArea: "ba1"})

	var notified int
	s.Subscribe(func(State) { notified++ })

	r := period.Range{
		From: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 3, 16, 23, 59, 59, 999_000_000, time.UTC),
	}
	got, err := s.LoadRange(context.Background(), r)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "w1" {
		t.Fatalf("loaded = %+v", got)
	}
	if notified != 0 || len(s.Get().Events) != 0 {
		t.Fatalf("cache touched: notified=%d events=%v", notified, s.Get().Events)
	}
	req := b.calls[0]
	if req.From != "2024-03-10T00:00:00.000Z" || req.BusinessArea != "ba1" {
		t.Fatalf("request = %+v", req)
	}

	if _, err := s.LoadRange(context.Background(), period.Range{From: r.From}); !errors.Is(err, period.ErrEmptyRange) {
		t.Fatalf("incomplete range err = %v", err)
	}
}
