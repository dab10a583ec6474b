package cli

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/tilegrid/pkg/grid"
	"github.com/matzehuels/tilegrid/pkg/pipeline"
	"github.com/matzehuels/tilegrid/pkg/sink"
)

// previewCommand creates the preview command, an interactive terminal view
// of a grid whose container can be resized with the arrow keys.
func (c *CLI) previewCommand() *cobra.Command {
	var (
		flags gridFlags
		step  float64
	)

	cmd := &cobra.Command{
		Use:   "preview [file.html]",
		Short: "Resize a grid interactively in the terminal",
		Long: `Resize a grid interactively in the terminal.

The container is laid out once, then left/right (or h/l) shrink and grow
its width. Each resize goes through the grid's debounced resize handling,
so the view updates once the grid settles again. Press q to quit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.build(cmd, args[0])
			if err != nil {
				return err
			}
			return c.runPreview(cmd, opts, step)
		},
	}

	flags.register(cmd, true)
	cmd.Flags().Float64Var(&step, "step", 40, "px added or removed per key press")
	registerCompletions(cmd)

	return cmd
}

func (c *CLI) runPreview(cmd *cobra.Command, opts pipeline.Options, step float64) error {
	ctx := cmd.Context()
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	doc, container, err := pipeline.Parse(opts)
	if err != nil {
		return err
	}
	l, err := pipeline.NewLayout(container, opts)
	if err != nil {
		return err
	}
	defer l.Close()

	runCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	err = l.Run(runCtx, doc, opts)
	cancel()
	if err != nil {
		return err
	}

	g := l.Grid
	m := newPreviewModel(sink.Capture(g), step, func(width float64) {
		container.SetStyleProperty("width", strconv.FormatFloat(width, 'f', -1, 64)+"px")
		g.NotifyResize()
	})

	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
		tea.WithAltScreen())
	sub := g.RenderComplete().On(func(grid.RenderCompleteEvent) {
		p.Send(layoutMsg{snap: sink.Capture(g)})
	})
	defer g.RenderComplete().Off(sub)

	_, err = p.Run()
	return err
}

// =============================================================================
// Model
// =============================================================================

// layoutMsg carries the placement after a render pass.
type layoutMsg struct {
	snap sink.Snapshot
}

type previewModel struct {
	snap     sink.Snapshot
	width    float64 // requested container width
	step     float64
	resize   func(width float64)
	passes   int
	pending  bool
	cols     int
	quitting bool
}

func newPreviewModel(snap sink.Snapshot, step float64, resize func(float64)) previewModel {
	return previewModel{
		snap:   snap,
		width:  snap.Width,
		step:   max(step, 1),
		resize: resize,
		cols:   80,
	}
}

func (m previewModel) Init() tea.Cmd { return nil }

func (m previewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "left", "h":
			return m.resizeBy(-m.step), nil
		case "right", "l":
			return m.resizeBy(m.step), nil
		}
	case tea.WindowSizeMsg:
		m.cols = msg.Width
	case layoutMsg:
		m.snap = msg.snap
		m.passes++
		m.pending = false
	}
	return m, nil
}

func (m previewModel) resizeBy(delta float64) previewModel {
	width := max(m.width+delta, m.step)
	if width == m.width {
		return m
	}
	m.width = width
	m.pending = true
	if m.resize != nil {
		m.resize(width)
	}
	return m
}

var (
	previewBox    = lipgloss.NewStyle().Foreground(colorCyan)
	previewStatus = lipgloss.NewStyle().Foreground(colorGray)
)

func (m previewModel) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n", StyleTitle.Render(m.snap.Kind), previewStatus.Render(
		fmt.Sprintf("%gpx × %gpx · %d items · %d passes", m.snap.Width, m.snap.Height, len(m.snap.Items), m.passes)))

	cell := m.snap.Width / float64(max(m.cols-2, 10))
	b.WriteString(previewBox.Render(drawGrid(m.snap, cell)))
	b.WriteString("\n\n")

	status := "←/→ resize · q quit"
	if m.pending {
		status = fmt.Sprintf("resizing to %gpx...", m.width)
	}
	b.WriteString(previewStatus.Render(status))
	return b.String()
}

// drawGrid draws each item as a box of terminal cells. cell is the number of
// px per column; rows are twice as tall as columns are wide.
func drawGrid(snap sink.Snapshot, cell float64) string {
	if cell <= 0 {
		cell = 1
	}
	width, height := snap.Bounds()
	cols := int(math.Ceil(width / cell))
	rows := int(math.Ceil(height / (2 * cell)))
	if cols == 0 || rows == 0 {
		return ""
	}

	canvas := make([][]rune, rows)
	for y := range canvas {
		canvas[y] = []rune(strings.Repeat(" ", cols))
	}
	set := func(x, y int, r rune) {
		if y >= 0 && y < rows && x >= 0 && x < cols {
			canvas[y][x] = r
		}
	}

	for _, it := range snap.Items {
		x0 := int(math.Round(it.Rect.Left / cell))
		y0 := int(math.Round(it.Rect.Top / (2 * cell)))
		x1 := max(int(math.Round((it.Rect.Left+it.Rect.Width)/cell))-1, x0)
		y1 := max(int(math.Round((it.Rect.Top+it.Rect.Height)/(2*cell)))-1, y0)

		for x := x0 + 1; x < x1; x++ {
			set(x, y0, '─')
			set(x, y1, '─')
		}
		for y := y0 + 1; y < y1; y++ {
			set(x0, y, '│')
			set(x1, y, '│')
		}
		set(x0, y0, '┌')
		set(x1, y0, '┐')
		set(x0, y1, '└')
		set(x1, y1, '┘')

		if y1-y0 >= 2 {
			for i, r := range strconv.Itoa(it.Index) {
				if x0+1+i < x1 {
					set(x0+1+i, y0+1, r)
				}
			}
		}
	}

	lines := make([]string, rows)
	for y, line := range canvas {
		lines[y] = strings.TrimRight(string(line), " ")
	}
	return strings.Join(lines, "\n")
}
