// Package cli implements the tilegrid command-line interface.
//
// The CLI lays out the grid container of an HTML document with one of the
// placement strategies and writes the result as HTML, JSON, SVG, PDF or PNG.
// It is built using cobra and logs with charmbracelet/log.
//
// # Commands
//
//   - layout: Run the parse → layout → render pipeline on a document
//   - frame: Parse and print a frame template
//   - rows: Export the row graph a justified grid searched
//   - preview: Resize a grid interactively in the terminal
//   - serve: Serve the pipeline over HTTP
//   - cache: Manage the layout and media caches
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging and
// --log-file to copy logs to a rotated file. Loggers are passed through
// context.Context.
package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/matzehuels/tilegrid/pkg/buildinfo"
	"github.com/matzehuels/tilegrid/pkg/cache"
	"github.com/matzehuels/tilegrid/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "tilegrid"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	out     io.Writer
	logFile *lumberjack.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		out:    w,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// SetLogFile copies log output to a rotated file at path.
func (c *CLI) SetLogFile(path string) {
	if c.logFile != nil {
		c.logFile.Close()
	}
	c.logFile = newLogFile(path)
	c.Logger.SetOutput(io.MultiWriter(c.out, c.logFile))
}

// Close releases the log file, if any.
func (c *CLI) Close() error {
	if c.logFile == nil {
		return nil
	}
	return c.logFile.Close()
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	var (
		verbose bool
		logFile string
	)

	root := &cobra.Command{
		Use:          appName,
		Short:        "Tilegrid lays out HTML grids",
		Long:         `Tilegrid positions the children of an HTML container with masonry, justified, frame or packing layouts and exports the result.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				c.SetLogLevel(LogDebug)
			}
			if logFile != "" {
				c.SetLogFile(logFile)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&logFile, "log-file", "", "also write logs to this file (rotated)")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.frameCommand())
	root.AddCommand(c.rowsCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cc, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cc, nil, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if _, err := cache.DefaultDir(); err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache("")
}

// =============================================================================
// Input
// =============================================================================

// readInput reads a document from path, or from stdin when path is "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}
