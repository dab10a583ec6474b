package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tilegrid/internal/server"
	"github.com/matzehuels/tilegrid/pkg/cache"
	"github.com/matzehuels/tilegrid/pkg/httputil"
	"github.com/matzehuels/tilegrid/pkg/pipeline"
	"github.com/matzehuels/tilegrid/pkg/snapshot"
)

type serveFlags struct {
	addr        string
	redis       string
	mongo       string
	mongoDB     string
	snapshotDir string
	mediaDir    string
	snapshotTTL time.Duration
	fetch       bool
	noCache     bool
}

// serveCommand creates the serve command, which exposes the pipeline over
// HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout pipeline over HTTP",
		Long: `Serve the layout pipeline over HTTP.

Routes:
  POST /v1/layout           lay out a document sent as JSON
  GET  /v1/snapshots/{id}   fetch a saved layout
  GET  /healthz             build information

Layouts are cached in Redis with --redis, else on disk. Snapshots are stored
in MongoDB with --mongo, else on disk.`,
		Example: `  tilegrid serve --addr :8080
  tilegrid serve --redis redis://localhost:6379/0 --mongo mongodb://localhost:27017`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&flags.redis, "redis", "", "Redis URL for the layout cache")
	cmd.Flags().StringVar(&flags.mongo, "mongo", "", "MongoDB URI for the snapshot store")
	cmd.Flags().StringVar(&flags.mongoDB, "mongo-db", "tilegrid", "MongoDB database")
	cmd.Flags().StringVar(&flags.snapshotDir, "snapshot-dir", "", "snapshot directory when --mongo is not set")
	cmd.Flags().StringVar(&flags.mediaDir, "media-dir", "", "directory for relative media sources")
	cmd.Flags().DurationVar(&flags.snapshotTTL, "snapshot-ttl", snapshot.DefaultTTL, "lifetime of saved layouts")
	cmd.Flags().BoolVar(&flags.fetch, "fetch", false, "load http(s) media to measure it")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable the layout cache")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, flags serveFlags) error {
	layouts, err := c.serveCache(ctx, flags)
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(layouts, nil, c.Logger)
	defer runner.Close()

	store, err := c.serveStore(ctx, flags)
	if err != nil {
		return err
	}
	defer store.Close()

	cfg := server.Config{
		Runner:      runner,
		Store:       store,
		Logger:      c.Logger,
		MediaDir:    flags.mediaDir,
		Fetch:       flags.fetch,
		SnapshotTTL: flags.snapshotTTL,
	}
	if flags.fetch {
		if sizes, err := httputil.NewCache("", mediaSizeTTL); err == nil {
			cfg.SizeCache = sizes
		} else {
			c.Logger.Warn("media size cache disabled", "err", err)
		}
	}

	c.Logger.Info("listening", "addr", flags.addr)
	return server.New(cfg).ListenAndServe(ctx, flags.addr)
}

func (c *CLI) serveCache(ctx context.Context, flags serveFlags) (cache.Cache, error) {
	switch {
	case flags.noCache:
		return cache.NewNullCache(), nil
	case flags.redis != "":
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{URL: flags.redis})
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		c.Logger.Info("layout cache", "backend", "redis")
		return rc, nil
	}
	fc, err := cache.NewFileCache("")
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	c.Logger.Info("layout cache", "backend", "file", "dir", fc.Dir())
	return fc, nil
}

func (c *CLI) serveStore(ctx context.Context, flags serveFlags) (snapshot.Store, error) {
	if flags.mongo != "" {
		ms, err := snapshot.NewMongoStore(ctx, snapshot.MongoConfig{URI: flags.mongo, Database: flags.mongoDB})
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		c.Logger.Info("snapshot store", "backend", "mongo")
		return ms, nil
	}
	fs, err := snapshot.NewFileStore(flags.snapshotDir)
	if err != nil {
		return nil, err
	}
	c.Logger.Info("snapshot store", "backend", "file", "dir", fs.Path())
	return fs, nil
}
