package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/tilegrid/pkg/grid/frame"
)

// frameCommand creates the frame command, which parses a frame template and
// prints the rectangles a frame grid would fill.
func (c *CLI) frameCommand() *cobra.Command {
	var (
		file   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "frame [template...]",
		Short: "Parse a frame template and print its rectangles",
		Long: `Parse a frame template and print its rectangles.

A template lists rows of cell numbers; equal numbers form one rectangle and
"." or "_" leaves a cell empty. Rows are separated by newlines, "|" or ";".
Each argument is read as one row.`,
		Example: `  tilegrid frame "1 1 2" "1 1 3" "4 . 3"
  tilegrid frame --file hero.frame --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, "\n")
			if file != "" {
				data, err := readInput(cmd, file)
				if err != nil {
					return fmt.Errorf("read %s: %w", file, err)
				}
				text = data
			}
			cells, err := frame.ParseTemplate(text)
			if err != nil {
				return err
			}
			layout := frame.Parse(cells)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(layout)
			}
			printFrame(cmd.OutOrStdout(), cells, layout)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "read the template from a file (\"-\" for stdin)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the parsed layout as JSON")

	return cmd
}

// printFrame writes the normalized template, a table of rectangles and the
// grid dimensions.
func printFrame(w io.Writer, cells [][]int, layout frame.Layout) {
	fmt.Fprintln(w, StyleTitle.Render("Template"))
	fmt.Fprintln(w, frame.FormatTemplate(cells))
	fmt.Fprintln(w)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorGray)).
		Headers("TYPE", "INLINE", "CONTENT", "WIDTH", "HEIGHT")
	for _, r := range layout.Rects {
		t.Row(strconv.Itoa(r.Type), strconv.Itoa(r.InlinePos), strconv.Itoa(r.ContentPos),
			strconv.Itoa(r.InlineSize), strconv.Itoa(r.ContentSize))
	}
	fmt.Fprintln(w, t.String())

	outline := make([]string, len(layout.Outline))
	for i, v := range layout.Outline {
		outline[i] = strconv.Itoa(v)
	}
	fmt.Fprintf(w, "%s %d\n", StyleDim.Render("columns"), layout.Columns)
	fmt.Fprintf(w, "%s %d\n", StyleDim.Render("rows   "), layout.Rows)
	fmt.Fprintf(w, "%s [%s]\n", StyleDim.Render("outline"), strings.Join(outline, " "))
}
