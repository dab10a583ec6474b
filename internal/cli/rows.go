package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tilegrid/pkg/errors"
	"github.com/matzehuels/tilegrid/pkg/grid"
	"github.com/matzehuels/tilegrid/pkg/grid/justified"
	"github.com/matzehuels/tilegrid/pkg/pipeline"
	"github.com/matzehuels/tilegrid/pkg/sink"
)

// rowsCommand creates the rows command, which exports the row graph a
// justified grid searched to pick its rows.
func (c *CLI) rowsCommand() *cobra.Command {
	var (
		flags  gridFlags
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "rows [file.html]",
		Short: "Export the row graph of a justified layout",
		Long: `Export the row graph of a justified layout.

Nodes are cut points between items and every edge is a candidate row with
its cost. The chosen rows are drawn bold. DOT is written to stdout unless
-o is given; svg and png are rendered with Graphviz.`,
		Example: `  tilegrid rows gallery.html --width 1200 -f svg -o rows.svg
  tilegrid rows gallery.html | dot -Tpng > rows.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.kind = justified.Name
			opts, err := flags.build(cmd, args[0])
			if err != nil {
				return err
			}

			spinner := newSpinnerWithContext(cmd.Context(), "Laying out justified grid...")
			spinner.Start()
			data, err := rowGraph(cmd.Context(), opts, format, spinner.Update)
			if err != nil {
				spinner.StopWithError("Row graph failed")
				return err
			}
			spinner.Stop()
			path := output
			if path == "" {
				path = "-"
				if format != "dot" && format != pipeline.FormatJSON {
					path = trimExt(args[0]) + ".rows." + format
				}
			}
			if err := writeOutput(cmd, path, data); err != nil {
				return err
			}
			if path != "-" {
				printSuccess("Row graph written")
				printFile(path)
			}
			return nil
		},
	}

	flags.register(cmd, false)
	cmd.Flags().StringVarP(&format, "format", "f", "dot", "output format: dot, json, svg, png")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (\"-\" for stdout)")
	_ = cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"dot", "json", "svg", "png"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// rowGraph lays out the document as a justified grid and exports the row
// graph of the settled items. stage reports progress.
func rowGraph(ctx context.Context, opts pipeline.Options, format string, stage func(string)) ([]byte, error) {
	switch format {
	case "dot", pipeline.FormatJSON, pipeline.FormatSVG, pipeline.FormatPNG:
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: dot, json, svg, png)", format)
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	doc, container, err := pipeline.Parse(opts)
	if err != nil {
		return nil, err
	}
	l, err := pipeline.NewLayout(container, opts)
	if err != nil {
		return nil, err
	}
	defer l.Close()

	runCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	if err := l.Run(runCtx, doc, opts); err != nil {
		return nil, err
	}

	stage("Searching rows...")
	s, ok := l.Grid.Strategy().(*justified.Strategy)
	if !ok {
		return nil, errors.New(errors.ErrCodeInternal, "%s grid has no row graph", l.Grid.Kind())
	}
	var graph justified.Graph
	l.Grid.Inspect(func(env grid.Env, items []*grid.Item) {
		graph = s.PathGraph(env, items)
	})
	opts.Logger.Debug("row graph", "nodes", graph.Nodes, "edges", len(graph.Edges), "rows", len(graph.Path)-1)

	switch format {
	case pipeline.FormatJSON:
		data, err := json.MarshalIndent(graph, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode row graph: %w", err)
		}
		return append(data, '\n'), nil
	case "dot":
		return []byte(sink.RowsDOT(graph)), nil
	}
	stage("Rendering with Graphviz...")
	return sink.RenderDOT(ctx, sink.RowsDOT(graph), format)
}
