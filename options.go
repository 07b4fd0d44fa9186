package x4grid

import (
	"log/slog"

	"github.com/rlibre/x4grid/query"
	"github.com/rlibre/x4grid/source"
	"github.com/rlibre/x4grid/window"
)

type options struct {
	filter           query.Filter
	sort             query.Sort
	shortcut         bool
	metricsCollector MetricsCollector
	logger           *Logger
	sourceOptions    []source.Option
	rendererOptions  []window.Option
	dedupe           bool
}

// Option configures a Grid.
type Option func(*options)

// WithFilter sets the view's initial filter.
func WithFilter(f query.Filter) Option {
	return func(o *options) { o.filter = f }
}

// WithSort sets the view's initial sort.
func WithSort(s query.Sort) Option {
	return func(o *options) { o.sort = s }
}

// WithValueChangeShortcut makes value-only updates re-sort the view
// without re-filtering it. Only safe when updates never touch fields the
// active filter reads.
func WithValueChangeShortcut() Option {
	return func(o *options) { o.shortcut = true }
}

// WithMetricsCollector configures a metrics collector. Pass nil to disable
// metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &x4grid.BasicMetricsCollector{}
//	g := x4grid.New(schema, x4grid.WithMetricsCollector(metrics))
//	// ... use g ...
//	stats := metrics.GetStats()
//	fmt.Printf("Mutations: %d, Avg latency: %dns\n", stats.MutationCount, stats.MutationAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging. Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithSourceOptions sets the options Load passes to its loader, such as
// a codec or a resource controller.
func WithSourceOptions(opts ...source.Option) Option {
	return func(o *options) { o.sourceOptions = append(o.sourceOptions, opts...) }
}

// WithLoadDedupe makes Load keep only the last record per id across
// sources instead of failing on duplicates.
func WithLoadDedupe() Option {
	return func(o *options) { o.dedupe = true }
}

// WithRendererOptions sets default options for every renderer Attach
// creates. Options passed to Attach take precedence.
func WithRendererOptions(opts ...window.Option) Option {
	return func(o *options) { o.rendererOptions = append(o.rendererOptions, opts...) }
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
