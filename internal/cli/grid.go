package cli

import (
	"context"
	"log/slog"
	"os"
	"slices"

	"github.com/rlibre/x4grid"
	"github.com/rlibre/x4grid/record"
	"github.com/rlibre/x4grid/source"
)

// session is a loaded grid plus what is needed to reload it.
type session struct {
	cfg     GridConfig
	grid    *x4grid.Grid
	sources []source.Source
	logger  *x4grid.Logger
}

// resolveConfig merges the definition file, positional sources and flags.
func resolveConfig(opts *RootOptions, args []string) (GridConfig, bool, error) {
	cfg := DefaultConfig()
	inferred := true
	if opts.Config != "" {
		var err error
		if cfg, err = LoadConfig(opts.Config); err != nil {
			return GridConfig{}, false, err
		}
		inferred = false
	}
	if len(args) > 0 {
		cfg.Sources = args
	}
	if opts.Filter != "" {
		cfg.Filter = opts.Filter
	}
	if opts.Sort != "" {
		cfg.Sort = opts.Sort
	}
	return cfg, inferred, nil
}

func openSession(ctx context.Context, opts *RootOptions, args []string) (*session, error) {
	cfg, inferred, err := resolveConfig(opts, args)
	if err != nil {
		return nil, err
	}

	level, err := parseLevel(opts.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := x4grid.NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	srcOpts, err := cfg.SourceOptions()
	if err != nil {
		return nil, err
	}
	srcOpts = append(srcOpts, source.WithLogger(logger.Logger))
	sources, err := cfg.OpenSources(ctx, srcOpts...)
	if err != nil {
		return nil, err
	}

	gridOpts := []x4grid.Option{x4grid.WithLogger(logger), x4grid.WithSourceOptions(srcOpts...)}
	if cfg.Dedupe {
		gridOpts = append(gridOpts, x4grid.WithLoadDedupe())
	}

	s := &session{cfg: cfg, sources: sources, logger: logger}

	if inferred {
		// Without a definition file the fields come from the data.
		recs, err := source.NewLoader(sources, source.WithLoaderOptions(srcOpts...)).Load(ctx)
		if err != nil {
			return nil, err
		}
		s.cfg.Fields = InferFields(cfg.ID, recs)
		schema, err := s.cfg.Schema()
		if err != nil {
			return nil, err
		}
		for i, rec := range recs {
			recs[i] = schema.Normalize(rec)
		}
		if cfg.Dedupe {
			recs = source.Dedupe(recs, cfg.ID)
		}
		s.grid = x4grid.New(schema, gridOpts...)
		if err := s.grid.SetAll(ctx, recs); err != nil {
			s.grid.Close()
			return nil, err
		}
	} else {
		schema, err := cfg.Schema()
		if err != nil {
			return nil, err
		}
		s.grid = x4grid.New(schema, gridOpts...)
		if err := s.grid.Load(ctx, sources...); err != nil {
			s.grid.Close()
			return nil, err
		}
	}

	if err := s.grid.FilterText(s.cfg.Filter); err != nil {
		s.grid.Close()
		return nil, err
	}
	if err := s.grid.SortText(s.cfg.Sort); err != nil {
		s.grid.Close()
		return nil, err
	}
	return s, nil
}

func (s *session) reload(ctx context.Context) error {
	return s.grid.Load(ctx, s.sources...)
}

func (s *session) close() {
	s.grid.Close()
}

// InferFields returns an untyped field per key seen in recs, id first and
// the rest in name order.
func InferFields(idField string, recs []record.Record) []FieldConfig {
	seen := map[string]struct{}{idField: {}}
	var names []string
	for _, rec := range recs {
		for k := range rec {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				names = append(names, k)
			}
		}
	}
	slices.Sort(names)

	fields := make([]FieldConfig, 0, len(names)+1)
	fields = append(fields, FieldConfig{Name: idField})
	for _, n := range names {
		fields = append(fields, FieldConfig{Name: n})
	}
	return fields
}
