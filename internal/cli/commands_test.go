package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/tilegrid/pkg/errors"
	"github.com/matzehuels/tilegrid/pkg/grid"
	"github.com/matzehuels/tilegrid/pkg/grid/frame"
	"github.com/matzehuels/tilegrid/pkg/grid/justified"
	"github.com/matzehuels/tilegrid/pkg/sink"
)

const page = `<html><body>
<div id="grid" style="width: 600px;">
  <div data-grid-key="a" style="width: 200px; height: 100px;"></div>
  <div data-grid-key="b" style="width: 200px; height: 150px;"></div>
  <div data-grid-key="c" style="width: 200px; height: 120px;"></div>
  <div data-grid-key="d" style="width: 200px; height: 80px;"></div>
</div>
</body></html>`

func writePage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "page.html")
	if err := os.WriteFile(path, []byte(page), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// run executes the root command and returns what it wrote to stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, logs bytes.Buffer
	c := New(&logs, LogInfo)
	root := c.RootCommand()
	root.SetOut(&out)
	root.SetErr(&logs)
	root.SetIn(strings.NewReader(page))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// =============================================================================
// layout
// =============================================================================

func TestLayoutCommand(t *testing.T) {
	input := writePage(t)
	base := filepath.Join(filepath.Dir(input), "out")

	if _, err := run(t, "layout", input, "--no-cache", "-f", "json,svg", "-o", base); err != nil {
		t.Fatalf("layout error: %v", err)
	}

	data, err := os.ReadFile(base + ".json")
	if err != nil {
		t.Fatalf("json output: %v", err)
	}
	snap, err := sink.ParseJSON(data)
	if err != nil {
		t.Fatalf("ParseJSON() error: %v", err)
	}
	if snap.Kind != "masonry" {
		t.Errorf("Kind = %q, want masonry", snap.Kind)
	}
	if len(snap.Items) != 4 {
		t.Errorf("got %d items, want 4", len(snap.Items))
	}

	svg, err := os.ReadFile(base + ".svg")
	if err != nil {
		t.Fatalf("svg output: %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Error("svg output has no <svg> element")
	}
}

func TestLayoutCommandDefaultOutput(t *testing.T) {
	input := writePage(t)
	if _, err := run(t, "layout", input, "--no-cache", "-k", "packing", "--gap", "4"); err != nil {
		t.Fatalf("layout error: %v", err)
	}

	out := filepath.Join(filepath.Dir(input), "page.grid.html")
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("html output: %v", err)
	}
	if !strings.Contains(string(data), "absolute") {
		t.Errorf("html output has no positioned items:\n%s", data)
	}
	orig, _ := os.ReadFile(input)
	if string(orig) != page {
		t.Error("layout overwrote its input")
	}
}

func TestLayoutCommandStdout(t *testing.T) {
	out, err := run(t, "layout", "-", "--no-cache", "-k", "justified", "-f", "json", "-o", "-")
	if err != nil {
		t.Fatalf("layout error: %v", err)
	}
	var snap sink.Snapshot
	if err := json.Unmarshal([]byte(out), &snap); err != nil {
		t.Fatalf("stdout is not a snapshot: %v\n%s", err, out)
	}
	if snap.Kind != "justified" {
		t.Errorf("Kind = %q, want justified", snap.Kind)
	}
}

func TestLayoutCommandConfig(t *testing.T) {
	input := writePage(t)
	cfg := filepath.Join(filepath.Dir(input), "grid.toml")
	toml := "kind = \"masonry\"\nformats = [\"json\"]\n\n[grid]\ngap = 10\n\n[masonry]\ncolumn = 2\n"
	if err := os.WriteFile(cfg, []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "layout", input, "--no-cache", "-c", cfg, "-o", "-")
	if err != nil {
		t.Fatalf("layout error: %v", err)
	}
	snap, err := sink.ParseJSON([]byte(out))
	if err != nil {
		t.Fatalf("ParseJSON() error: %v", err)
	}
	lefts := map[float64]bool{}
	for _, it := range snap.Items {
		lefts[it.Rect.Left] = true
	}
	if len(lefts) != 2 {
		t.Errorf("items use %d columns, want 2: %+v", len(lefts), snap.Items)
	}
}

func TestLayoutCommandErrors(t *testing.T) {
	input := writePage(t)
	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"kind", []string{"-k", "bento"}, errors.ErrCodeInvalidKind},
		{"format", []string{"-f", "gif"}, errors.ErrCodeInvalidFormat},
		{"selector", []string{"-s", "#missing"}, errors.ErrCodeContainerNotFound},
		{"options", []string{"--options", "{column"}, errors.ErrCodeInvalidOption},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"layout", input, "--no-cache", "-o", "-", "-f", "json"}, tt.args...)
			_, err := run(t, args...)
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}

	if _, err := run(t, "layout", input, "--no-cache", "-f", "json,svg", "-o", "-"); err == nil {
		t.Error("expected error for several formats on stdout")
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input, output, format string
		single                bool
		want                  string
	}{
		{"page.html", "", "html", true, "page.grid.html"},
		{"page.html", "", "svg", false, "page.grid.svg"},
		{"page.html", "out.svg", "svg", true, "out.svg"},
		{"page.html", "out", "png", false, "out.png"},
		{"page.html", "out.json", "svg", false, "out.svg"},
		{"-", "", "json", true, "grid.grid.json"},
		{"page.html", "-", "json", true, "-"},
	}
	for _, tt := range tests {
		if got := outputPath(tt.input, tt.output, tt.format, tt.single); got != tt.want {
			t.Errorf("outputPath(%q, %q, %q, %v) = %q, want %q",
				tt.input, tt.output, tt.format, tt.single, got, tt.want)
		}
	}
}

// =============================================================================
// frame
// =============================================================================

func TestFrameCommand(t *testing.T) {
	out, err := run(t, "frame", "1 1 2", "1 1 3", "4 . 3")
	if err != nil {
		t.Fatalf("frame error: %v", err)
	}
	for _, want := range []string{"TYPE", "columns", "outline"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, err = run(t, "frame", "--json", "1 1 2 | 1 1 3")
	if err != nil {
		t.Fatalf("frame --json error: %v", err)
	}
	var layout frame.Layout
	if err := json.Unmarshal([]byte(out), &layout); err != nil {
		t.Fatalf("output is not a layout: %v", err)
	}
	if len(layout.Rects) != 3 || layout.Columns != 3 || layout.Rows != 2 {
		t.Errorf("layout = %+v", layout)
	}
}

func TestFrameCommandInvalid(t *testing.T) {
	_, err := run(t, "frame", "1 x 2")
	if !errors.Is(err, errors.ErrCodeInvalidFrame) {
		t.Errorf("error = %v, want INVALID_FRAME", err)
	}
}

// =============================================================================
// rows
// =============================================================================

func TestRowsCommand(t *testing.T) {
	input := writePage(t)

	out, err := run(t, "rows", input)
	if err != nil {
		t.Fatalf("rows error: %v", err)
	}
	if !strings.HasPrefix(out, "digraph rows") {
		t.Errorf("output is not DOT:\n%s", out)
	}

	out, err = run(t, "rows", input, "-f", "json")
	if err != nil {
		t.Fatalf("rows -f json error: %v", err)
	}
	var graph justified.Graph
	if err := json.Unmarshal([]byte(out), &graph); err != nil {
		t.Fatalf("output is not a graph: %v", err)
	}
	if graph.Nodes != 5 {
		t.Errorf("Nodes = %d, want 5", graph.Nodes)
	}
	if len(graph.Path) < 2 || graph.Path[0] != 0 || graph.Path[len(graph.Path)-1] != 4 {
		t.Errorf("Path = %v, want 0 ... 4", graph.Path)
	}

	if _, err := run(t, "rows", input, "-f", "gif"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("error = %v, want INVALID_FORMAT", err)
	}
}

// =============================================================================
// preview
// =============================================================================

func TestDrawGrid(t *testing.T) {
	snap := sink.Snapshot{
		Width:  40,
		Height: 20,
		Items:  []sink.Item{{Index: 0, Rect: grid.Rect{Width: 40, Height: 20}}},
	}
	want := "┌────────┐\n│0       │\n└────────┘"
	if got := drawGrid(snap, 4); got != want {
		t.Errorf("drawGrid() =\n%s\nwant\n%s", got, want)
	}

	if got := drawGrid(sink.Snapshot{}, 4); got != "" {
		t.Errorf("empty snapshot drew %q", got)
	}
}

func TestPreviewModel(t *testing.T) {
	var widths []float64
	m := newPreviewModel(sink.Snapshot{Kind: "masonry", Width: 100}, 40, func(w float64) {
		widths = append(widths, w)
	})

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRight})
	m = next.(previewModel)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m = next.(previewModel)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m = next.(previewModel)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m = next.(previewModel)

	if want := []float64{140, 100, 60, 40}; !slices.Equal(widths, want) {
		t.Errorf("resized to %v, want %v", widths, want)
	}
	if !m.pending {
		t.Error("model should wait for the next layout")
	}
	if !strings.Contains(m.View(), "resizing to 40px") {
		t.Errorf("view = %q", m.View())
	}

	next, _ = m.Update(layoutMsg{snap: sink.Snapshot{Kind: "masonry", Width: 40}})
	m = next.(previewModel)
	if m.pending || m.passes != 1 || m.snap.Width != 40 {
		t.Errorf("after layout: pending=%v passes=%d width=%g", m.pending, m.passes, m.snap.Width)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should return tea.Quit")
	}
}
