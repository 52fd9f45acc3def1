package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	tgerrors "github.com/matzehuels/thoughtgraph/pkg/errors"
	"github.com/matzehuels/thoughtgraph/pkg/graph"
	"github.com/matzehuels/thoughtgraph/pkg/pipeline"
	"github.com/matzehuels/thoughtgraph/pkg/viewer"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listChosenStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)

	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
	bannerStyle = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
)

const (
	defaultListHeight = 20
	maxValueWidth     = 60
)

// inspectCommand creates the inspect command, a terminal graph viewer.
func (c *CLI) inspectCommand() *cobra.Command {
	var repair bool

	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Browse a thought graph in the terminal",
		Long: `Browse a thought graph in the terminal. Nodes are listed level by level.
Use ↑/↓ to move, enter to show a node's attributes, esc to clear the
selection, r to reload the file and q to quit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd.Context(), args[0], repair)
		},
	}

	cmd.Flags().BoolVar(&repair, "repair", false, "repair malformed JSON before parsing")

	return cmd
}

func (c *CLI) runInspect(ctx context.Context, input string, repair bool) error {
	runner, err := c.newRunner(true)
	if err != nil {
		return err
	}
	defer runner.Close()

	opts := c.pipelineOptions()
	// The TUI owns the terminal.
	opts.Logger = log.New(io.Discard)
	if c.verbose {
		opts.Logger = loggerFromContext(ctx)
	}
	if repair {
		opts.Repair = true
	}

	load := func(ctx context.Context) (*pipeline.Result, error) {
		return runner.Execute(ctx, input, opts)
	}
	res, err := load(ctx)
	if err != nil {
		return err
	}

	sess := viewer.NewSession(appName)
	sess.Load(ctx, res)

	p := tea.NewProgram(newInspectModel(ctx, sess, load), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}

// =============================================================================
// inspectModel - Terminal viewer over a viewer.Session
// =============================================================================

// reloadMsg carries the outcome of re-reading the input file.
type reloadMsg struct {
	res *pipeline.Result
	err error
}

// inspectModel is the bubbletea model for the terminal viewer.
type inspectModel struct {
	ctx     context.Context
	session *viewer.Session
	load    func(context.Context) (*pipeline.Result, error)

	order  []string // node IDs, band by band
	cursor int
	offset int
	height int
	status string
}

func newInspectModel(ctx context.Context, sess *viewer.Session, load func(context.Context) (*pipeline.Result, error)) inspectModel {
	m := inspectModel{ctx: ctx, session: sess, load: load, height: defaultListHeight}
	m.order = nodeOrder(sess.Snapshot())
	return m
}

// nodeOrder flattens the layout bands into one list, top band first.
func nodeOrder(snap viewer.Snapshot) []string {
	if snap.Layout == nil {
		return nil
	}
	var ids []string
	for _, band := range snap.Layout.Bands {
		ids = append(ids, band...)
	}
	return ids
}

func (m inspectModel) Init() tea.Cmd {
	return nil
}

func (m inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if h := msg.Height - 8; h > 3 {
			m.height = h
		}
		m.clampOffset()

	case reloadMsg:
		if msg.err != nil {
			m.session.Fail(m.ctx, msg.err)
			m.order, m.cursor, m.offset = nil, 0, 0
			m.status = ""
			return m, nil
		}
		m.session.Load(m.ctx, msg.res)
		m.order = nodeOrder(m.session.Snapshot())
		m.cursor = min(m.cursor, max(len(m.order)-1, 0))
		m.clampOffset()
		m.status = "reloaded"

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
			m.clampOffset()
		case "down", "j":
			if m.cursor < len(m.order)-1 {
				m.cursor++
			}
			m.clampOffset()
		case "enter":
			if len(m.order) == 0 {
				return m, nil
			}
			if _, err := m.session.Select(m.ctx, m.order[m.cursor]); err != nil {
				m.status = tgerrors.UserMessage(err)
			} else {
				m.status = ""
			}
		case "esc":
			m.session.Deselect(m.ctx)
			m.status = ""
		case "r":
			m.status = "reloading..."
			ctx, load := m.ctx, m.load
			return m, func() tea.Msg {
				res, err := load(ctx)
				return reloadMsg{res: res, err: err}
			}
		}
	}
	return m, nil
}

func (m *inspectModel) clampOffset() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func (m inspectModel) View() string {
	snap := m.session.Snapshot()

	var b strings.Builder
	b.WriteString(StyleTitle.Render(snap.Source))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  esc clear  r reload  q quit"))
	b.WriteString("\n")
	if snap.Err != nil {
		b.WriteString(bannerStyle.Render(iconError + " " + tgerrors.UserMessage(snap.Err)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if !snap.HasGraph() {
		b.WriteString(listDimStyle.Render("No graph loaded"))
		return b.String()
	}

	list := m.listView(snap)
	panel := panelStyle.Render(detailView(snap))
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, list, "  ", panel))
	b.WriteString("\n\n")

	footer := fmt.Sprintf("  [%d/%d]  %d edges  %s layout", m.cursor+1, len(m.order), snap.Graph.EdgeCount(), snap.Layout.Mode)
	if m.status != "" {
		footer += "  " + m.status
	}
	b.WriteString(listDimStyle.Render(footer))
	return b.String()
}

func (m inspectModel) listView(snap viewer.Snapshot) string {
	var selected string
	if snap.Selected != nil {
		selected = snap.Selected.ID
	}

	end := min(m.offset+m.height, len(m.order))
	lines := make([]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		id := m.order[i]
		n, _ := snap.Graph.Node(id)
		pos, _ := snap.Layout.Position(id)

		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		text := fmt.Sprintf("%s%-3d %s", cursor, pos.Level, truncate(snap.Graph.Label(n), 40))

		switch {
		case id == selected:
			lines = append(lines, listChosenStyle.Render(text))
		case i == m.cursor:
			lines = append(lines, listSelectedStyle.Render(text))
		default:
			lines = append(lines, listNormalStyle.Render(text))
		}
	}
	return strings.Join(lines, "\n")
}

// detailView renders the attribute panel for the selected node.
func detailView(snap viewer.Snapshot) string {
	n := snap.Selected
	if n == nil {
		return listDimStyle.Render("Select a node to see its attributes")
	}

	rows := [][]string{{"id", n.ID}}
	for _, key := range sortedKeys(n.Attrs) {
		rows = append(rows, []string{key, truncate(formatAttr(n.Attrs[key]), maxValueWidth)})
	}
	rows = append(rows,
		[]string{"parents", strings.Join(snap.Graph.Parents(n.ID), ", ")},
		[]string{"children", strings.Join(snap.Graph.Children(n.ID), ", ")},
	)

	keyStyle := lipgloss.NewStyle().Foreground(colorGray)
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return keyStyle
			}
			return StyleValue
		})

	return StyleTitle.Render(snap.Graph.Label(n)) + "\n" + t.Render()
}

func sortedKeys(attrs graph.Attrs) []string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// formatAttr renders a JSON attribute value on one line.
func formatAttr(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case nil:
		return "null"
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
