// Package view is the single source of truth for what the user is looking
// at: the active unit and the selected window.
package view

import (
	"time"

	appLog "interviewcal/internal/log"
	"interviewcal/internal/period"
	"interviewcal/internal/store"
)

// State is the view snapshot handed to subscribers.
type State struct {
	Unit   period.Unit
	Window period.Window
}

// Store owns State. It is mutated only through Today, SetUnit, Next,
// Previous and OnDateChange.
type Store struct {
	st  *store.Store[State]
	cal period.Calendar
	now func() time.Time
}

type Option func(*Store)

// WithNow overrides the clock.
func WithNow(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore starts on the month containing now.
func NewStore(cal period.Calendar, opts ...Option) *Store {
	s := &Store{cal: cal, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	s.st = store.New(State{
		Unit:   period.Month,
		Window: period.SpanOf(cal.Bounds(s.now(), period.Month)),
	})
	return s
}

func (s *Store) Calendar() period.Calendar { return s.cal }

func (s *Store) Get() State { return s.st.Get() }

// Subscribe registers fn for every state change.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	return s.st.Subscribe(fn)
}

// Today re-centers the window on the current period of the active unit.
func (s *Store) Today() {
	now := s.now()
	s.st.Update(func(st *State) {
		st.Window = period.SpanOf(s.cal.Bounds(now, st.Unit))
	})
}

// SetUnit switches granularity and always re-centers on now.
func (s *Store) SetUnit(u period.Unit) {
	if !u.Valid() {
		appLog.Warn("view: ignoring invalid unit", "unit", string(u))
		return
	}
	now := s.now()
	s.st.Update(func(st *State) {
		st.Unit = u
		st.Window = period.SpanOf(s.cal.Bounds(now, u))
	})
}

// Next shifts the window one unit forward, keeping its shape.
func (s *Store) Next() {
	s.shift(1)
}

// Previous shifts the window one unit back, keeping its shape.
func (s *Store) Previous() {
	s.shift(-1)
}

func (s *Store) shift(amount int) {
	s.st.Update(func(st *State) {
		st.Window = st.Window.Shift(s.cal, amount, st.Unit)
	})
}

// OnDateChange applies a date picked by the user. In week unit the window
// becomes the full week containing the picked date. In day and month units
// the window is stored as given, except that a single date in day unit is
// widened to that day's bounds.
func (s *Store) OnDateChange(w period.Window) {
	if w.Kind() == period.WindowNone {
		return
	}
	s.st.Update(func(st *State) {
		switch st.Unit {
		case period.Week:
			anchor := w.Anchor()
			if anchor.IsZero() {
				st.Window = w
				return
			}
			st.Window = period.SpanOf(s.cal.Bounds(anchor, period.Week))
		case period.Day:
			if at, ok := w.Instant(); ok {
				st.Window = period.SpanOf(s.cal.Bounds(at, period.Day))
				return
			}
			st.Window = w
		default:
			st.Window = w
		}
	})
}

// Breadcrumb is the top-bar label for the current window.
func (s *Store) Breadcrumb() (string, error) {
	return s.cal.FormatRange(s.Get().Window.Bounds())
}

// Path is the router path reflecting the active unit.
func (s *Store) Path() string {
	return PathFor(s.Get().Unit)
}

func PathFor(u period.Unit) string {
	return "/calendar/" + string(u)
}
