// Package capture renders a calendar page in headless Chromium and stores
// it as a PNG, served back as /preview.png.
package capture

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"interviewcal/internal/config"
	appLog "interviewcal/internal/log"
)

const (
	DefaultWidth   = 1280
	DefaultHeight  = 960
	DefaultTimeout = 30 * time.Second

	// ReadySelector matches the page root once its data is in.
	ReadySelector = `[data-ready="true"]`
)

type Options struct {
	// URL of a /calendar/{unit} page.
	URL string
	// Output is the PNG path; it is replaced atomically.
	Output string

	Width   int
	Height  int
	Timeout time.Duration
}

func (o *Options) normalize() error {
	if o.URL == "" {
		return errors.New("capture: URL is required")
	}
	if o.Output == "" {
		return errors.New("capture: output path is required")
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return nil
}

// Snapshot loads opts.URL, waits for ReadySelector and writes a full-page
// screenshot to opts.Output.
func Snapshot(parent context.Context, opts Options) error {
	if err := opts.normalize(); err != nil {
		return err
	}

	ctx, cancel := chromedp.NewContext(parent)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, opts.Timeout)
	defer cancelTimeout()

	started := time.Now()
	var png []byte
	err := chromedp.Run(ctx,
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(ReadySelector, chromedp.ByQuery),
		chromedp.FullScreenshot(&png, 100),
	)
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	if err := config.WriteFileAtomic(opts.Output, png, ".preview-*.png"); err != nil {
		return fmt.Errorf("capture: write %s: %w", opts.Output, err)
	}
	appLog.Info("snapshot written", "url", opts.URL, "output", opts.Output, "bytes", len(png), "elapsed", time.Since(started))
	return nil
}
