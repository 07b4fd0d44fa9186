package window

import (
	"io"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultSlack is the number of live items allowed beyond the items that
	// cover the viewport.
	DefaultSlack = 2
	// DefaultMaxItems caps the items processed per rebuild.
	DefaultMaxItems = 512
)

// Observer receives renderer instrumentation callbacks.
type Observer interface {
	OnRebuild(live, created int, d time.Duration)
}

type noopObserver struct{}

func (noopObserver) OnRebuild(int, int, time.Duration) {}

type options struct {
	slack    int
	maxItems int
	header   Fixed
	footer   Fixed
	logger   *slog.Logger
	logEvery rate.Limit
	observer Observer
}

// Option configures a Renderer.
type Option func(*options)

// WithSlack sets how many items beyond the viewport may be live. Zero
// disables the partial-row overscan.
func WithSlack(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.slack = n
		}
	}
}

// WithMaxItems caps the number of items a single rebuild processes.
func WithMaxItems(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxItems = n
		}
	}
}

// WithHeader sets a fixed header that follows horizontal scroll.
func WithHeader(f Fixed) Option {
	return func(o *options) { o.header = f }
}

// WithFooter sets a fixed footer that follows horizontal scroll.
func WithFooter(f Fixed) Option {
	return func(o *options) { o.footer = f }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithWarnRate limits how often repeated warnings (failed measurement,
// capped passes) are logged.
func WithWarnRate(every time.Duration) Option {
	return func(o *options) { o.logEvery = rate.Every(every) }
}

// WithObserver sets the instrumentation observer.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{
		slack:    DefaultSlack,
		maxItems: DefaultMaxItems,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		logEvery: rate.Every(time.Second),
		observer: noopObserver{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
