// Package lookup backs the wizard typeaheads with debounced backend
// searches.
package lookup

import (
	"context"
	"errors"
	"strings"
	"time"

	"interviewcal/internal/debounce"
	appLog "interviewcal/internal/log"
	"interviewcal/internal/model"
)

// ErrSuperseded is returned to a search replaced by a newer keystroke.
var ErrSuperseded = debounce.ErrSuperseded

// Kind names a typeahead.
type Kind string

const (
	Jobs         Kind = "jobs"
	Interviewers Kind = "interviewers"
	Interviewees Kind = "interviewees"
)

func (k Kind) Valid() bool {
	switch k {
	case Jobs, Interviewers, Interviewees:
		return true
	}
	return false
}

type Backend interface {
	SearchJobs(ctx context.Context, title string) ([]model.Job, error)
	SearchInterviewers(ctx context.Context, text string) ([]model.Interviewer, error)
	SearchInterviewees(ctx context.Context, text string) ([]model.Interviewee, error)
	BusinessAreas(ctx context.Context) ([]model.BusinessArea, error)
}

// Option is one typeahead entry.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	// Detail is a secondary line, the email for people.
	Detail string `json:"detail,omitempty"`
}

// Searcher keeps one debouncer per typeahead so typing in one field never
// cancels another.
type Searcher struct {
	backend Backend
	deb     map[Kind]*debounce.Debouncer
}

func New(b Backend, wait time.Duration) *Searcher {
	return &Searcher{
		backend: b,
		deb: map[Kind]*debounce.Debouncer{
			Jobs:         debounce.New(wait),
			Interviewers: debounce.New(wait),
			Interviewees: debounce.New(wait),
		},
	}
}

// Search runs a debounced query. An empty query is sent as is; the backend
// answers it with the full list that seeds the dropdowns.
func (s *Searcher) Search(ctx context.Context, kind Kind, query string) ([]Option, error) {
	d, ok := s.deb[kind]
	if !ok {
		return nil, &UnknownKindError{Kind: string(kind)}
	}
	query = strings.TrimSpace(query)

	var out []Option
	err := d.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.query(ctx, kind, query)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrSuperseded) {
			appLog.Error("lookup failed", err, "kind", string(kind), "query", query)
		}
		return nil, err
	}
	return out, nil
}

func (s *Searcher) query(ctx context.Context, kind Kind, q string) ([]Option, error) {
	switch kind {
	case Jobs:
		jobs, err := s.backend.SearchJobs(ctx, q)
		if err != nil {
			return nil, err
		}
		out := make([]Option, 0, len(jobs))
		for _, j := range jobs {
			out = append(out, Option{ID: j.ID, Label: j.Title})
		}
		return out, nil
	case Interviewers:
		people, err := s.backend.SearchInterviewers(ctx, q)
		if err != nil {
			return nil, err
		}
		out := make([]Option, 0, len(people))
		for _, p := range people {
			out = append(out, Option{ID: p.ID, Label: p.Name, Detail: p.Email})
		}
		return out, nil
	default:
		people, err := s.backend.SearchInterviewees(ctx, q)
		if err != nil {
			return nil, err
		}
		out := make([]Option, 0, len(people))
		for _, p := range people {
			out = append(out, Option{ID: p.ID, Label: p.Name, Detail: p.Email})
		}
		return out, nil
	}
}

// BusinessAreas lists every area. It is not debounced.
func (s *Searcher) BusinessAreas(ctx context.Context) ([]Option, error) {
	areas, err := s.backend.BusinessAreas(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Option, 0, len(areas))
	for _, a := range areas {
		out = append(out, Option{ID: a.ID, Label: a.Name})
	}
	return out, nil
}

// Close stops all debouncers.
func (s *Searcher) Close() {
	for _, d := range s.deb {
		d.Stop()
	}
}

type UnknownKindError struct {
	Kind string
}

func (e *UnknownKindError) Error() string {
	return "lookup: unknown kind " + e.Kind
}
