// Package events caches the interviews of the selected window and is the
// single feed for all calendar views.
package events

import (
	"context"
	"fmt"
	"sync"

	"interviewcal/internal/api"
	appLog "interviewcal/internal/log"
	"interviewcal/internal/model"
	"interviewcal/internal/period"
	"interviewcal/internal/store"
	"interviewcal/internal/view"
)

// FetchErrorMessage is the generic message stored on fetch failure.
const FetchErrorMessage = "Failed to fetch events"

// Filter narrows fetches independently of the window.
type Filter struct {
	Job          string   `json:"job,omitempty"`
	BusinessArea string   `json:"business_area,omitempty"`
	Interviewers []string `json:"interviewer,omitempty"`
	Interviewee  string   `json:"interviewee,omitempty"`
}

// State is the cache snapshot.
type State struct {
	Events  []model.Interview
	Loading bool
	// Err is empty unless the last completed fetch failed.
	Err    string
	Filter *Filter
}

// Backend is the subset of the API client the cache needs.
type Backend interface {
	FilteredInterviews(ctx context.Context, req api.FilteredEventsRequest) ([]model.Interview, error)
}

// Windower reports the window to fetch for.
type Windower interface {
	Get() view.State
}

type Store struct {
	st      *store.Store[State]
	view    Windower
	backend Backend

	dropStale bool

	mu       sync.Mutex
	inflight int
	idle     chan struct{} // closed when inflight drops to zero
	seq      uint64
	applied  uint64
}

type Option func(*Store)

// WithDropStale discards responses that resolve after a newer fetch was
// started. Without it the last response to arrive wins, whatever its
// start order.
func WithDropStale(on bool) Option {
	return func(s *Store) { s.dropStale = on }
}

func NewStore(v Windower, backend Backend, opts ...Option) *Store {
	s := &Store{
		st:      store.New(State{Events: []model.Interview{}}),
		view:    v,
		backend: backend,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) Get() State { return s.st.Get() }

func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	return s.st.Subscribe(fn)
}

// SetFilter replaces the active filter. It does not fetch.
func (s *Store) SetFilter(f *Filter) {
	var cp *Filter
	if f != nil {
		v := *f
		v.Interviewers = append([]string(nil), f.Interviewers...)
		cp = &v
	}
	s.st.Update(func(st *State) { st.Filter = cp })
}

// Fetch loads the interviews of the current view window. An incomplete
// window is a silent no-op. On failure the previous events are kept and
// Err is set; the error is also returned.
func (s *Store) Fetch(ctx context.Context) error {
	r := s.view.Get().Window.Bounds()
	if !r.Complete() {
		appLog.Debug("events: skipping fetch for incomplete window")
		return nil
	}
	req := request(r, s.st.Get().Filter)

	seq := s.begin()
	defer s.finish()

	list, err := s.backend.FilteredInterviews(ctx, req)
	if err != nil {
		appLog.Error("events: fetch failed", err, "from", req.From, "to", req.To)
		if !s.accept(seq) {
			return err
		}
		s.st.Update(func(st *State) { st.Err = FetchErrorMessage })
		return err
	}

	if !s.accept(seq) {
		appLog.Debug("events: dropping stale response", "seq", seq)
		return nil
	}
	s.st.Update(func(st *State) {
		st.Events = list
		st.Err = ""
	})
	appLog.Debug("events: fetched", "count", len(list), "from", req.From, "to", req.To)
	return nil
}

// LoadRange fetches the interviews of r with the active filter and returns
// them without touching the cache state.
func (s *Store) LoadRange(ctx context.Context, r period.Range) ([]model.Interview, error) {
	if !r.Complete() {
		return nil, period.ErrEmptyRange
	}
	req := request(r, s.st.Get().Filter)
	list, err := s.backend.FilteredInterviews(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("events: load %s..%s: %w", req.From, req.To, err)
	}
	return list, nil
}

// Settle blocks until no fetch is in flight or ctx is done.
func (s *Store) Settle(ctx context.Context) error {
	s.mu.Lock()
	if s.inflight == 0 {
		s.mu.Unlock()
		return nil
	}
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}

func request(r period.Range, f *Filter) api.FilteredEventsRequest {
	req := api.FilteredEventsRequest{
		From: api.ISOString(r.From),
		To:   api.ISOString(r.To),
	}
	if f != nil {
		req.Job = f.Job
		req.BusinessArea = f.BusinessArea
		req.Interviewer = append([]string(nil), f.Interviewers...)
		req.Interviewee = f.Interviewee
	}
	return req
}

func (s *Store) begin() uint64 {
	s.mu.Lock()
	if s.inflight == 0 {
		s.idle = make(chan struct{})
	}
	s.inflight++
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	s.st.Update(func(st *State) { st.Loading = true })
	return seq
}

func (s *Store) finish() {
	s.mu.Lock()
	s.inflight--
	loading := s.inflight > 0
	if !loading {
		close(s.idle)
	}
	s.mu.Unlock()

	s.st.Update(func(st *State) { st.Loading = loading })
}

// accept decides whether the response of fetch seq may be written.
func (s *Store) accept(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dropStale && seq < s.applied {
		return false
	}
	if seq > s.applied {
		s.applied = seq
	}
	return true
}

// Watch refetches whenever the view changes. Fetches run on their own
// goroutine so overlapping navigation produces overlapping requests. The
// returned stop function unsubscribes.
func (s *Store) Watch(ctx context.Context, v *view.Store) (stop func()) {
	return v.Subscribe(func(view.State) {
		go func() {
			_ = s.Fetch(ctx)
		}()
	})
}
