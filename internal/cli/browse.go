package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/rlibre/x4grid/record"
	"github.com/rlibre/x4grid/source"
	"github.com/rlibre/x4grid/window"
)

// BrowseOptions holds flags for the browse command.
type BrowseOptions struct {
	*RootOptions
	Watch bool
}

// NewBrowseCommand creates the browse command.
func NewBrowseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BrowseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "browse [source...]",
		Short: "Browse records in a scrollable terminal grid",
		Long: `Browse records in a terminal grid. Only the visible rows are bound to
row items; scrolling recycles them.

Keys: up/down, pgup/pgdown, home/end move the selection; left/right scroll
horizontally; "/" edits the filter; "s" edits the sort; q quits.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(cmd, opts, args)
		},
	}

	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "reload when a local source file changes")

	return cmd
}

func runBrowse(cmd *cobra.Command, opts *BrowseOptions, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	s, err := openSession(ctx, opts.RootOptions, args)
	if err != nil {
		return err
	}
	defer s.close()

	m := newBrowseModel(ctx, s)
	defer m.close()

	if opts.Watch {
		w, err := watchLocal(s)
		if err != nil {
			return err
		}
		if w != nil {
			defer w.Close()
			go w.Run(ctx)
			m.watcher = w
		}
	}

	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

// watchLocal watches the single local file source, if there is one.
func watchLocal(s *session) (*source.Watcher, error) {
	if len(s.cfg.Sources) != 1 || strings.Contains(s.cfg.Sources[0], "://") || s.cfg.Sources[0] == "-" {
		return nil, nil
	}
	return source.NewWatcher(s.cfg.Sources[0], source.WithWatchLogger(s.logger.Logger))
}

var (
	selectedStyle = lipgloss.NewStyle().Reverse(true)
	statusStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// rowItem is a one-line row bound to a record by the renderer.
type rowItem struct {
	m        *browseModel
	index    int
	key      record.Value
	offset   int
	selected bool
	visible  bool
	text     string
}

func (r *rowItem) Bind(index int, key record.Value) {
	r.index, r.key = index, key
	r.text = ""
	if rec, ok := r.m.session.grid.Get(key); ok {
		r.text = formatRow(r.m.cols, cells(r.m.cols, rec))
	}
}

func (r *rowItem) Reposition(offset int) { r.offset = offset }
func (r *rowItem) Restyle(selected bool) { r.selected = selected }
func (r *rowItem) Show()                 { r.visible = true }
func (r *rowItem) Hide()                 { r.visible = false }
func (r *rowItem) Reset()                { r.key, r.text, r.selected = record.Value{}, "", false }
func (r *rowItem) Extent() int           { return 1 }
func (r *rowItem) Destroy()              { r.visible = false }

// header follows horizontal scroll.
type header struct {
	x int
}

func (h *header) SetOffset(x int) { h.x = x }

type editMode uint8

const (
	editNone editMode = iota
	editFilter
	editSort
)

type reloadMsg struct{}

type browseModel struct {
	ctx      context.Context
	session  *session
	renderer *window.Renderer
	header   *header
	cols     []FieldConfig
	watcher  *source.Watcher

	width, height int
	scrollX       int

	mode  editMode
	input string
	err   error
}

func newBrowseModel(ctx context.Context, s *session) *browseModel {
	m := &browseModel{
		ctx:     ctx,
		session: s,
		header:  &header{},
		cols:    s.cfg.Columns(),
	}
	m.renderer = s.grid.Attach(
		window.FactoryFunc(func() window.Item { return &rowItem{m: m} }),
		window.WithHeader(m.header),
	)
	return m
}

func (m *browseModel) close() {
	m.session.grid.Detach(m.renderer)
}

func (m *browseModel) Init() tea.Cmd {
	return m.waitReload()
}

func (m *browseModel) waitReload() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	c := m.watcher.C()
	return func() tea.Msg {
		if _, ok := <-c; !ok {
			return nil
		}
		return reloadMsg{}
	}
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.renderer.SetViewport(m.bodyHeight())
	case reloadMsg:
		m.err = m.session.reload(m.ctx)
		cmd = m.waitReload()
	case tea.KeyMsg:
		if m.mode != editNone {
			m.edit(msg)
		} else if m.navigate(msg) {
			return m, tea.Quit
		}
	}
	m.renderer.Tick()
	return m, cmd
}

// navigate handles keys outside edit mode and reports whether to quit.
func (m *browseModel) navigate(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "q", "ctrl+c":
		return true
	case "down", "j":
		m.renderer.Move(window.Next)
	case "up", "k":
		m.renderer.Move(window.Prev)
	case "pgdown", " ":
		m.renderer.Move(window.PageNext)
	case "pgup":
		m.renderer.Move(window.PagePrev)
	case "home", "g":
		m.renderer.Move(window.First)
	case "end", "G":
		m.renderer.Move(window.Last)
	case "right", "l":
		m.scrollX += 8
		m.renderer.ScrollX(m.scrollX)
	case "left", "h":
		m.scrollX = max(0, m.scrollX-8)
		m.renderer.ScrollX(m.scrollX)
	case "/":
		m.mode, m.input = editFilter, filterText(m)
	case "s":
		m.mode, m.input = editSort, sortText(m)
	}
	return false
}

func filterText(m *browseModel) string {
	if f := m.session.grid.View().FilterSpec(); f != nil {
		return f.String()
	}
	return ""
}

func sortText(m *browseModel) string {
	if srt := m.session.grid.View().SortSpec(); len(srt) > 0 {
		return srt.String()
	}
	return ""
}

func (m *browseModel) edit(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = editNone
	case tea.KeyEnter:
		if m.mode == editFilter {
			m.err = m.session.grid.FilterText(m.input)
		} else {
			m.err = m.session.grid.SortText(m.input)
		}
		m.mode = editNone
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.input += " "
	case tea.KeyRunes:
		m.input += string(msg.Runes)
	}
}

func (m *browseModel) bodyHeight() int {
	return max(0, m.height-2)
}

func (m *browseModel) View() string {
	var b strings.Builder

	names := make([]string, len(m.cols))
	for i, c := range m.cols {
		names[i] = c.Name
	}
	b.WriteString(headerStyle.Render(m.clip(formatRow(m.cols, names), m.header.x)))
	b.WriteByte('\n')

	lines := make([]string, m.bodyHeight())
	var items []*rowItem
	for _, it := range m.renderer.Items() {
		if row, ok := it.(*rowItem); ok && row.visible {
			items = append(items, row)
		}
	}
	slices.SortFunc(items, func(a, b *rowItem) int { return a.offset - b.offset })
	for _, row := range items {
		if row.offset < 0 || row.offset >= len(lines) {
			continue
		}
		line := m.clip(row.text, m.header.x)
		if row.selected {
			line = selectedStyle.Render(line)
		}
		lines[row.offset] = line
	}
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteByte('\n')
	b.WriteString(m.status())
	return b.String()
}

func (m *browseModel) status() string {
	switch m.mode {
	case editFilter:
		return "filter: " + m.input + "█"
	case editSort:
		return "sort: " + m.input + "█"
	}
	if m.err != nil {
		return errorStyle.Render(m.err.Error())
	}
	stats := m.renderer.Stats()
	return statusStyle.Render(fmt.Sprintf("%d/%d rows  %d items  %d reused",
		m.session.grid.Count(), m.session.grid.Store().Count(), m.renderer.Live(), stats.Reused))
}

// clip drops the first x cells and truncates to the terminal width.
func (m *browseModel) clip(s string, x int) string {
	r := []rune(s)
	if x >= len(r) {
		return ""
	}
	r = r[x:]
	if m.width > 0 && len(r) > m.width {
		r = r[:m.width]
	}
	return string(r)
}
