package cli

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rlibre/x4grid/codec"
	"github.com/rlibre/x4grid/record"
	"github.com/rlibre/x4grid/resource"
	"github.com/rlibre/x4grid/source"
)

// FieldConfig declares one schema field.
type FieldConfig struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Required bool   `yaml:"required,omitempty"`
	Indexed  bool   `yaml:"indexed,omitempty"`
	// Width is the column width in the terminal grid. Zero picks a default.
	Width int `yaml:"width,omitempty"`
}

// LimitsConfig maps onto resource.Config.
type LimitsConfig struct {
	MaxConcurrentFetches int64   `yaml:"max_concurrent_fetches,omitempty"`
	FetchesPerSecond     float64 `yaml:"fetches_per_second,omitempty"`
	MemoryLimitBytes     int64   `yaml:"memory_limit_bytes,omitempty"`
	IOLimitBytesPerSec   int64   `yaml:"io_limit_bytes_per_sec,omitempty"`
}

// GridConfig is a grid definition file.
type GridConfig struct {
	ID      string        `yaml:"id"`
	Fields  []FieldConfig `yaml:"fields"`
	Filter  string        `yaml:"filter,omitempty"`
	Sort    string        `yaml:"sort,omitempty"`
	Sources []string      `yaml:"sources,omitempty"`
	Codec   string        `yaml:"codec,omitempty"`
	Dedupe  bool          `yaml:"dedupe,omitempty"`

	Region  string `yaml:"region,omitempty"`
	Profile string `yaml:"profile,omitempty"`

	Limits LimitsConfig `yaml:"limits,omitempty"`
}

// DefaultConfig is used when no definition file is given: every field is
// untyped and the id field is "id".
func DefaultConfig() GridConfig {
	return GridConfig{
		ID:     "id",
		Fields: []FieldConfig{{Name: "id"}},
	}
}

// LoadConfig reads a grid definition from path.
func LoadConfig(path string) (GridConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return GridConfig{}, fmt.Errorf("failed to read grid definition: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes a YAML grid definition.
func ParseConfig(data []byte) (GridConfig, error) {
	cfg := DefaultConfig()
	cfg.Fields = nil
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return GridConfig{}, fmt.Errorf("failed to parse grid definition: %w", err)
	}
	if cfg.ID == "" {
		cfg.ID = "id"
	}
	if len(cfg.Fields) == 0 {
		cfg.Fields = []FieldConfig{{Name: cfg.ID}}
	}
	return cfg, nil
}

// Schema builds the record schema.
func (c GridConfig) Schema() (*record.Schema, error) {
	fields := make([]record.FieldDescriptor, 0, len(c.Fields))
	for _, f := range c.Fields {
		t, err := record.ParseFieldType(f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		fields = append(fields, record.FieldDescriptor{
			Name:     f.Name,
			Type:     t,
			Required: f.Required,
			Indexed:  f.Indexed,
		})
	}
	return record.NewSchema(c.ID, fields...)
}

// SourceOptions returns the codec and resource controller for fetches.
func (c GridConfig) SourceOptions() ([]source.Option, error) {
	cd, ok := codec.ByName(c.Codec)
	if !ok {
		return nil, fmt.Errorf("unknown codec %q", c.Codec)
	}
	rc := resource.NewController(resource.Config{
		MaxConcurrentFetches: c.Limits.MaxConcurrentFetches,
		FetchesPerSecond:     c.Limits.FetchesPerSecond,
		MemoryLimitBytes:     c.Limits.MemoryLimitBytes,
		IOLimitBytesPerSec:   c.Limits.IOLimitBytesPerSec,
	})
	return []source.Option{source.WithCodec(cd), source.WithController(rc)}, nil
}

// OpenSources resolves every source location.
func (c GridConfig) OpenSources(ctx context.Context, opts ...source.Option) ([]source.Source, error) {
	if len(c.Sources) == 0 {
		return nil, fmt.Errorf("no sources configured")
	}
	loc := source.Location{Region: c.Region, Profile: c.Profile}
	out := make([]source.Source, 0, len(c.Sources))
	for _, raw := range c.Sources {
		src, err := loc.Open(ctx, raw, opts...)
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", raw, err)
		}
		out = append(out, src)
	}
	return out, nil
}

// Columns returns the display columns with their widths.
func (c GridConfig) Columns() []FieldConfig {
	cols := make([]FieldConfig, len(c.Fields))
	for i, f := range c.Fields {
		if f.Width <= 0 {
			f.Width = 16
		}
		cols[i] = f
	}
	return cols
}
