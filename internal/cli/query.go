package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/rlibre/x4grid/codec"
	"github.com/rlibre/x4grid/record"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Offset int
	Limit  int
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query [source...]",
		Short: "Print the filtered and sorted records",
		Long: `Load records from one or more sources, apply the filter and sort, and
print the result.

Sources are local paths, "-" for stdin, s3://bucket/key,
minio://host/bucket/key or dynamodb://table.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, opts, args)
		},
	}

	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "skip the first n rows")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "print at most n rows (0 for all)")

	return cmd
}

func runQuery(cmd *cobra.Command, opts *QueryOptions, args []string) error {
	s, err := openSession(cmd.Context(), opts.RootOptions, args)
	if err != nil {
		return err
	}
	defer s.close()

	rows := s.grid.Rows()
	start := min(max(opts.Offset, 0), len(rows))
	rows = rows[start:]
	if opts.Limit > 0 && opts.Limit < len(rows) {
		rows = rows[:opts.Limit]
	}

	out := cmd.OutOrStdout()
	switch opts.Format {
	case "json":
		data, err := codec.EncodeRecords(codec.Default, rows)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	case "ndjson":
		data, err := codec.EncodeNDJSON(codec.Default, rows)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	default:
		return writeTable(out, s.cfg.Columns(), rows)
	}
}

var headerStyle = lipgloss.NewStyle().Bold(true)

func writeTable(w io.Writer, cols []FieldConfig, rows []record.Record) error {
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Name
	}
	if _, err := fmt.Fprintln(w, headerStyle.Render(formatRow(cols, header))); err != nil {
		return err
	}
	for _, rec := range rows {
		if _, err := fmt.Fprintln(w, formatRow(cols, cells(cols, rec))); err != nil {
			return err
		}
	}
	return nil
}

func cells(cols []FieldConfig, rec record.Record) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		v := rec.Get(c.Name)
		if !v.IsNull() {
			out[i] = v.String()
		}
	}
	return out
}

func formatRow(cols []FieldConfig, values []string) string {
	var b strings.Builder
	for i, c := range cols {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(fit(values[i], c.Width))
	}
	return strings.TrimRight(b.String(), " ")
}

// fit pads or truncates s to width display cells.
func fit(s string, width int) string {
	if lipgloss.Width(s) > width {
		runes := []rune(s)
		for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
			runes = runes[:len(runes)-1]
		}
		return string(runes) + "…"
	}
	return s + strings.Repeat(" ", width-lipgloss.Width(s))
}
