// Package ics reads external calendar feeds shown as overlays next to the
// interviews, and exports the cached interviews as an iCalendar document.
package ics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"interviewcal/internal/config"
	appLog "interviewcal/internal/log"
)

// Feed is one subscribed ICS URL.
type Feed struct {
	ID   string
	Name string
	URL  string
}

// Payload is the body of a feed, fresh or replayed from disk.
type Payload struct {
	Feed   Feed
	Body   []byte
	Cached bool
}

type cacheMeta struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	StoredAt     time.Time `json:"stored_at"`
}

// Fetcher downloads feeds with conditional requests and keeps the last good
// body per URL under dir. Any failure falls back to that body when one
// exists.
type Fetcher struct {
	http *http.Client
	dir  string
}

func NewFetcher(dir string, timeout time.Duration) *Fetcher {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "interviewcal-ics")
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{http: &http.Client{Timeout: timeout}, dir: dir}
}

// FetchAll returns the payloads that could be obtained; failing feeds are
// logged and reported in errs.
func (f *Fetcher) FetchAll(ctx context.Context, feeds []Feed) (out []Payload, errs []error) {
	for _, feed := range feeds {
		p, err := f.Fetch(ctx, feed)
		if err != nil {
			appLog.Error("overlay fetch failed", err, "feed", feed.ID, "url", redact(feed.URL))
			errs = append(errs, fmt.Errorf("feed %s: %w", feed.ID, err))
			continue
		}
		out = append(out, p)
	}
	return out, errs
}

func (f *Fetcher) Fetch(ctx context.Context, feed Feed) (Payload, error) {
	if feed.URL == "" {
		return Payload{}, errors.New("empty feed url")
	}
	dir := f.entryDir(feed.URL)
	meta, body := f.load(dir)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return Payload{}, err
	}
	if meta.ETag != "" {
		req.Header.Set("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" {
		req.Header.Set("If-Modified-Since", meta.LastModified)
	}

	fallback := func(cause error) (Payload, error) {
		if len(body) == 0 {
			return Payload{}, cause
		}
		appLog.Warn("overlay served from cache", "feed", feed.ID, "cause", cause.Error())
		return Payload{Feed: feed, Body: body, Cached: true}, nil
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return fallback(err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		if len(body) == 0 {
			return Payload{}, errors.New("304 without a cached body")
		}
		appLog.Debug("overlay not modified", "feed", feed.ID)
		return Payload{Feed: feed, Body: body, Cached: true}, nil
	case http.StatusOK:
	default:
		return fallback(errors.New(resp.Status))
	}

	fresh, err := io.ReadAll(resp.Body)
	if err != nil {
		return fallback(err)
	}
	next := cacheMeta{
		URL:          feed.URL,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
		StoredAt:     time.Now().UTC(),
	}
	if err := f.store(dir, next, fresh); err != nil {
		appLog.Error("overlay cache write failed", err, "feed", feed.ID)
	}
	appLog.Info("overlay fetched", "feed", feed.ID, "url", redact(feed.URL), "bytes", len(fresh))
	return Payload{Feed: feed, Body: fresh}, nil
}

func (f *Fetcher) entryDir(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return filepath.Join(f.dir, hex.EncodeToString(sum[:8]))
}

func (f *Fetcher) load(dir string) (cacheMeta, []byte) {
	var meta cacheMeta
	body, err := os.ReadFile(filepath.Join(dir, "body.ics"))
	if err != nil {
		return meta, nil
	}
	if raw, err := os.ReadFile(filepath.Join(dir, "meta.json")); err == nil {
		_ = json.Unmarshal(raw, &meta)
	}
	return meta, body
}

// store writes the body before the metadata so the validators never refer
// to a body that is not on disk.
func (f *Fetcher) store(dir string, meta cacheMeta, body []byte) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	if err := config.WriteFileAtomic(filepath.Join(dir, "body.ics"), body, ".body-*"); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return config.WriteFileAtomic(filepath.Join(dir, "meta.json"), raw, ".meta-*")
}

// redact keeps scheme and host only; feed URLs often embed secrets.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "(redacted)"
	}
	return u.Scheme + "://" + u.Host + "/..."
}
