package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tilegrid/pkg/pipeline"
	"github.com/matzehuels/tilegrid/pkg/snapshot"
)

// layoutCommand creates the layout command, the full parse → layout → render
// pipeline on one document.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		flags   gridFlags
		formats string
		output  string
		noCache bool
		save    bool
		opts    pipeline.Options
	)

	cmd := &cobra.Command{
		Use:   "layout [file.html]",
		Short: "Lay out the grid container of an HTML document",
		Long: `Lay out the grid container of an HTML document.

The container's children are measured (images and videos from their files),
placed by the chosen grid kind, and written back as absolute positions. The
result can be exported as the positioned HTML, a JSON snapshot with the grid
status, or an SVG, PDF or PNG drawing of the item rectangles.

Use "-" to read the document from stdin. Layouts are cached locally; the
cache key covers the document, the container size and every grid option.`,
		Example: `  tilegrid layout gallery.html -k justified --width 1200
  tilegrid layout page.html -c grid.toml -f svg,png -o out
  cat page.html | tilegrid layout - -f json -o -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			built, err := flags.build(cmd, args[0])
			if err != nil {
				return err
			}
			built.Labels = opts.Labels
			built.Palette = opts.Palette
			built.Scale = opts.Scale
			built.Refresh = opts.Refresh
			if formats != "" {
				built.Formats = pipeline.ParseFormats(formats)
			}
			return c.runLayout(cmd, args[0], built, output, noCache, save)
		},
	}

	flags.register(cmd, true)
	cmd.Flags().StringVarP(&formats, "format", "f", "", "output formats, comma separated: html (default), json, svg, pdf, png")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, or base name for several formats (\"-\" for stdout)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "lay out again even if cached")
	cmd.Flags().BoolVar(&opts.Labels, "labels", false, "label items in SVG output")
	cmd.Flags().StringVar(&opts.Palette, "palette", "", "item colors: pastel (default), mono")
	cmd.Flags().Float64Var(&opts.Scale, "scale", 0, "PNG scale factor (default 2)")
	cmd.Flags().BoolVar(&save, "save", false, "store the result as a snapshot and print its id")
	registerCompletions(cmd)

	return cmd
}

// runLayout executes the pipeline and writes each artifact.
func (c *CLI) runLayout(cmd *cobra.Command, input string, opts pipeline.Options, output string, noCache, save bool) error {
	ctx := cmd.Context()
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	quiet := output == "-"
	if quiet && len(opts.Formats) > 1 {
		return fmt.Errorf("stdout output takes a single format, got %s", strings.Join(opts.Formats, ","))
	}

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	result, err := c.execute(ctx, runner, opts, quiet)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Laid out %d items", result.Stats.ItemCount))

	var written []string
	for _, format := range opts.Formats {
		path := outputPath(input, output, format, len(opts.Formats) == 1)
		if err := writeOutput(cmd, path, result.Artifacts[format]); err != nil {
			return err
		}
		written = append(written, path)
	}

	var id string
	if save {
		store, err := snapshot.NewFileStore("")
		if err != nil {
			return fmt.Errorf("open snapshot store: %w", err)
		}
		rec := snapshot.New(opts.Kind, result.DocHash, result.Snapshot, snapshot.DefaultTTL)
		if err := store.Set(ctx, rec); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		id = rec.ID
	}
	if quiet {
		return nil
	}

	printSuccess("Layout complete (%s)", opts.Kind)
	for _, path := range written {
		printFile(path)
	}
	printStats(result.Stats.ItemCount, result.Stats.PassCount, result.CacheInfo.LayoutHit)
	if len(result.ContentErrors) > 0 {
		printWarning("%d items failed to load media: %v", len(result.ContentErrors), result.ContentErrors)
	}
	if id != "" {
		printKeyValue("Snapshot", id)
	}
	if opts.Kind == "justified" {
		printNextStep("Inspect rows", "tilegrid rows "+input)
	}
	return nil
}

func (c *CLI) execute(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options, quiet bool) (*pipeline.Result, error) {
	if quiet {
		return runner.Execute(ctx, opts)
	}
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Laying out %s grid...", opts.Kind))
	spinner.Start()
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return nil, err
	}
	spinner.Stop()
	return result, nil
}
