package ics

import (
	"context"
	"errors"
	"time"

	"interviewcal/internal/config"
	appLog "interviewcal/internal/log"
	"interviewcal/internal/model"
	"interviewcal/internal/period"
	"interviewcal/internal/store"
)

// OverlayState is the expanded overlay occurrences for one window.
type OverlayState struct {
	Window      period.Range       `json:"window"`
	Occurrences []model.Occurrence `json:"occurrences"`
	Truncated   []string           `json:"truncated,omitempty"`
	Errors      []string           `json:"errors,omitempty"`
	UpdatedAt   time.Time          `json:"updated_at,omitzero"`
}

// Overlays keeps the occurrences of all configured feeds for the current
// view window.
type Overlays struct {
	fetcher *Fetcher
	feeds   []Feed
	loc     *time.Location
	st      *store.Store[OverlayState]
}

func FeedsFromConfig(list []config.OverlayConfig) []Feed {
	out := make([]Feed, 0, len(list))
	for _, o := range list {
		out = append(out, Feed{ID: o.ID, Name: o.Name, URL: o.URL})
	}
	return out
}

func NewOverlays(f *Fetcher, feeds []Feed, loc *time.Location) *Overlays {
	return &Overlays{
		fetcher: f,
		feeds:   feeds,
		loc:     loc,
		st:      store.New(OverlayState{Occurrences: []model.Occurrence{}}),
	}
}

func (o *Overlays) Get() OverlayState { return o.st.Get() }

func (o *Overlays) Feeds() []Feed { return o.feeds }

// Refresh re-reads every feed and expands it over r. An incomplete window
// or an empty feed list is a no-op. Feeds that fail are reported in the
// returned error and in State.Errors; the others still update.
func (o *Overlays) Refresh(ctx context.Context, r period.Range) error {
	if !r.Complete() || len(o.feeds) == 0 {
		return nil
	}

	payloads, errs := o.fetcher.FetchAll(ctx, o.feeds)
	var events []vevent
	for _, p := range payloads {
		evs, err := parse(p.Feed, p.Body)
		if err != nil {
			appLog.Error("overlay parse failed", err, "feed", p.Feed.ID)
			errs = append(errs, err)
			continue
		}
		events = append(events, evs...)
	}

	occ, truncated := Expansion{Window: r, Location: o.loc}.Run(events)
	if occ == nil {
		occ = []model.Occurrence{}
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	o.st.Set(OverlayState{
		Window:      r,
		Occurrences: occ,
		Truncated:   truncated,
		Errors:      msgs,
		UpdatedAt:   time.Now(),
	})
	appLog.Info("overlays refreshed", "feeds", len(o.feeds), "occurrences", len(occ))
	return errors.Join(errs...)
}
