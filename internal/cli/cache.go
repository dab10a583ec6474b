package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tilegrid/pkg/cache"
	"github.com/matzehuels/tilegrid/pkg/httputil"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the layout and media caches",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove cached layouts, artifacts and media sizes",
		RunE: func(cmd *cobra.Command, args []string) error {
			layoutDir, mediaDir, err := cacheDirs()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			if _, err := os.Stat(layoutDir); os.IsNotExist(err) {
				printInfo("Cache is empty")
				return nil
			}

			layouts, media, err := clearCaches(layoutDir, mediaDir)
			if err != nil {
				return err
			}
			printSuccess("Cleared %d cached entries and %d media sizes", layouts, media)
			printDetail("Directory: %s", layoutDir)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			layoutDir, mediaDir, err := cacheDirs()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), layoutDir)
			fmt.Fprintln(cmd.OutOrStdout(), mediaDir)
			return nil
		},
	}
}

func cacheDirs() (layoutDir, mediaDir string, err error) {
	if layoutDir, err = cache.DefaultDir(); err != nil {
		return "", "", err
	}
	if mediaDir, err = httputil.DefaultDir(); err != nil {
		return "", "", err
	}
	return layoutDir, mediaDir, nil
}

// clearCaches empties both caches and reports how many entries each held.
func clearCaches(layoutDir, mediaDir string) (layouts, media int, err error) {
	fc, err := cache.NewFileCache(layoutDir)
	if err != nil {
		return 0, 0, err
	}
	if layouts, err = fc.Clear(); err != nil {
		return layouts, 0, err
	}

	entries, err := os.ReadDir(mediaDir)
	if os.IsNotExist(err) {
		return layouts, 0, nil
	}
	if err != nil {
		return layouts, 0, err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(mediaDir, e.Name())); err != nil && !os.IsNotExist(err) {
			return layouts, media, err
		}
		media++
	}
	return layouts, media, nil
}
