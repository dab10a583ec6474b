package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tilegrid/pkg/errors"
	"github.com/matzehuels/tilegrid/pkg/httputil"
	"github.com/matzehuels/tilegrid/pkg/pipeline"
)

// mediaSizeTTL is how long remote media sizes stay cached.
const mediaSizeTTL = 7 * 24 * time.Hour

// gridFlags are the flags shared by commands that build a grid.
type gridFlags struct {
	kind     string
	selector string
	width    float64
	height   float64
	gap      float64
	config   string
	options  string
	baseDir  string
	timeout  time.Duration
	fetch    bool
}

func (f *gridFlags) register(cmd *cobra.Command, withKind bool) {
	if withKind {
		cmd.Flags().StringVarP(&f.kind, "kind", "k", "", "grid kind: masonry (default), justified, frame, packing")
	}
	cmd.Flags().StringVarP(&f.selector, "selector", "s", "", "CSS selector of the container (default \"#grid\")")
	cmd.Flags().Float64Var(&f.width, "width", 0, "container width override in px")
	cmd.Flags().Float64Var(&f.height, "height", 0, "container height override in px")
	cmd.Flags().Float64Var(&f.gap, "gap", 0, "space between items in px")
	cmd.Flags().StringVarP(&f.config, "config", "c", "", "grid.toml with pipeline, grid and kind options")
	cmd.Flags().StringVar(&f.options, "options", "", "kind options as a JSON object")
	cmd.Flags().StringVar(&f.baseDir, "base-dir", "", "directory for relative media sources (default: the input's directory)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", pipeline.DefaultTimeout, "how long media may take to load")
	cmd.Flags().BoolVar(&f.fetch, "fetch", false, "load http(s) media to measure it")
}

// build assembles pipeline options for the document at input. Flags win
// over the config file.
func (f *gridFlags) build(cmd *cobra.Command, input string) (pipeline.Options, error) {
	html, err := readInput(cmd, input)
	if err != nil {
		return pipeline.Options{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", input)
	}

	opts := pipeline.Options{
		HTML:     html,
		Source:   input,
		Kind:     f.kind,
		Selector: f.selector,
		Width:    f.width,
		Height:   f.height,
		Timeout:  f.timeout,
		BaseDir:  f.baseDir,
		Logger:   loggerFromContext(cmd.Context()),
	}
	if opts.BaseDir == "" && input != "-" {
		opts.BaseDir = filepath.Dir(input)
	}
	if f.options != "" {
		if !json.Valid([]byte(f.options)) {
			return opts, errors.New(errors.ErrCodeInvalidOption, "--options is not a JSON object")
		}
		opts.KindOptions = json.RawMessage(f.options)
	}

	if f.config != "" {
		cfg, err := pipeline.LoadConfig(f.config)
		if err != nil {
			return opts, err
		}
		cfg.Apply(&opts)
		if opts.KindOptions != nil {
			opts.Decode = nil
		}
	}
	if cmd.Flags().Changed("gap") {
		base := opts.BaseOptions()
		base.Gap = f.gap
		opts.Grid = &base
	}

	if f.fetch {
		opts.HTTPClient = httputil.NewClient()
		if sizes, err := httputil.NewCache("", mediaSizeTTL); err == nil {
			opts.SizeCache = sizes
		} else {
			opts.Logger.Warn("media size cache disabled", "err", err)
		}
	}
	return opts, nil
}

// outputPath picks where one artifact goes: the -o path when a single
// format is written, else "<input>.grid.<format>" or "<output>.<format>".
func outputPath(input, output, format string, single bool) string {
	if single && output != "" {
		return output
	}
	if output != "" {
		return trimExt(output) + "." + format
	}
	if input == "-" {
		input = "grid"
	}
	return trimExt(input) + ".grid." + format
}

func trimExt(path string) string {
	return path[:len(path)-len(filepath.Ext(path))]
}

// writeOutput writes data to path, or to stdout for "-".
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	return nil
}
