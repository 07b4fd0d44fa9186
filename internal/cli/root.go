// Package cli implements the x4grid command line.
package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Config   string
	Filter   string
	Sort     string
	LogLevel string
	Format   string
}

// ValidFormats lists the query output formats.
var ValidFormats = []string{"text", "json", "ndjson"}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "x4grid",
		Short:         "Filter, sort and browse record sets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if _, err := parseLevel(opts.LogLevel); err != nil {
				return err
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "grid definition file (YAML)")
	cmd.PersistentFlags().StringVarP(&opts.Filter, "filter", "f", "", `filter, e.g. "age >= 18 and city = paris"`)
	cmd.PersistentFlags().StringVarP(&opts.Sort, "sort", "s", "", `sort, e.g. "city,-age"`)
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|ndjson)")

	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewBrowseCommand(opts))

	return cmd
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}
