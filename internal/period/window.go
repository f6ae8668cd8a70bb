package period

import "time"

// WindowKind tags which variant a Window holds.
type WindowKind int

const (
	// WindowNone is the zero Window: nothing selected.
	WindowNone WindowKind = iota
	WindowSingle
	WindowSpan
)

func (k WindowKind) String() string {
	switch k {
	case WindowSingle:
		return "single"
	case WindowSpan:
		return "span"
	default:
		return "none"
	}
}

// Window is the selected time window: either a single instant or a from/to
// span. Construct it with Single or Span; switch on Kind to handle it.
type Window struct {
	kind WindowKind
	at   time.Time
	span Range
}

func Single(t time.Time) Window {
	return Window{kind: WindowSingle, at: t}
}

// Span builds a range window. Bounds may be zero while a picker is half
// filled in; such a window is incomplete.
func Span(from, to time.Time) Window {
	return Window{kind: WindowSpan, span: Range{From: from, To: to}}
}

func SpanOf(r Range) Window {
	return Span(r.From, r.To)
}

func (w Window) Kind() WindowKind { return w.kind }

// Instant returns the single instant; ok is false for other kinds.
func (w Window) Instant() (time.Time, bool) {
	if w.kind != WindowSingle {
		return time.Time{}, false
	}
	return w.at, true
}

// Range returns the span; ok is false for other kinds.
func (w Window) Range() (Range, bool) {
	if w.kind != WindowSpan {
		return Range{}, false
	}
	return w.span, true
}

// Bounds collapses the window into a Range: a single instant t becomes
// {t, t}.
func (w Window) Bounds() Range {
	switch w.kind {
	case WindowSingle:
		return Range{From: w.at, To: w.at}
	case WindowSpan:
		return w.span
	default:
		return Range{}
	}
}

// Anchor is the date that best represents the window: the instant, or the
// span's from bound (its to bound when from is missing).
func (w Window) Anchor() time.Time {
	switch w.kind {
	case WindowSingle:
		return w.at
	case WindowSpan:
		if !w.span.From.IsZero() {
			return w.span.From
		}
		return w.span.To
	default:
		return time.Time{}
	}
}

// Shift moves the window by amount units, keeping its shape. Missing span
// bounds stay missing.
func (w Window) Shift(c Calendar, amount int, u Unit) Window {
	switch w.kind {
	case WindowSingle:
		return Single(c.Add(w.at, amount, u))
	case WindowSpan:
		r := w.span
		if !r.From.IsZero() {
			r.From = c.Add(r.From, amount, u)
		}
		if !r.To.IsZero() {
			r.To = c.Add(r.To, amount, u)
		}
		return SpanOf(r)
	default:
		return w
	}
}

// Equal compares kind and instants.
func (w Window) Equal(o Window) bool {
	if w.kind != o.kind {
		return false
	}
	switch w.kind {
	case WindowSingle:
		return w.at.Equal(o.at)
	case WindowSpan:
		return w.span.From.Equal(o.span.From) && w.span.To.Equal(o.span.To)
	default:
		return true
	}
}
