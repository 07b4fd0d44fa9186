package store

import (
	"io"
	"log/slog"
	"time"
)

// Observer receives store instrumentation callbacks.
type Observer interface {
	OnMutation(kind EventKind, d time.Duration)
	OnIndexRebuild(live int, d time.Duration)
}

// NoopObserver discards all callbacks.
type NoopObserver struct{}

func (NoopObserver) OnMutation(EventKind, time.Duration) {}
func (NoopObserver) OnIndexRebuild(int, time.Duration)   {}

type options struct {
	logger   *slog.Logger
	observer Observer
}

// Option configures a Store.
type Option func(*options)

// WithLogger sets the logger used for assertions and diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
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
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		observer: NoopObserver{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
