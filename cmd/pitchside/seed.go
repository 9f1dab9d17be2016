package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eringen/pitchside"
	"github.com/eringen/pitchside/content"
	"github.com/eringen/pitchside/seed"
)

var seedFlags struct {
	db    string
	dir   string
	redis string
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load starter content into the database",
	Long: `Writes the built-in home page, footer, pages, news posts and clubs into
the database. Documents that already exist (same type and uid) are replaced
and the shared Redis cache, when configured, is purged.

Use --dir to load YAML documents from a directory instead.`,
	RunE: runSeed,
}

func init() {
	f := seedCmd.Flags()
	f.StringVar(&seedFlags.db, "db", pitchside.EnvOr("DATABASE_PATH", "data/pitchside.db"), "SQLite database path")
	f.StringVar(&seedFlags.dir, "dir", "", "Directory of .yaml documents (default: built-in content)")
	f.StringVar(&seedFlags.redis, "redis", pitchside.EnvOr("REDIS_URL", ""), "Redis URL of the shared content cache to purge")
}

func runSeed(cmd *cobra.Command, args []string) error {
	var (
		docs []content.Document
		err  error
	)
	if seedFlags.dir != "" {
		docs, err = seed.Load(os.DirFS(seedFlags.dir), ".")
	} else {
		docs, err = seed.Default()
	}
	if err != nil {
		return err
	}

	store, err := content.NewStore(seedFlags.db)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := seed.Apply(cmd.Context(), store, docs)
	if err != nil {
		return err
	}
	if seedFlags.redis != "" {
		cache, err := content.NewRedisBackend(cmd.Context(), seedFlags.redis, "pitchside", 0)
		if err != nil {
			return fmt.Errorf("purge cache: %w", err)
		}
		defer cache.Close()
		if err := cache.Purge(cmd.Context()); err != nil {
			return fmt.Errorf("purge cache: %w", err)
		}
	}
	logger.Info("seeded", zap.Int("documents", n), zap.String("db", seedFlags.db))
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d documents into %s\n", n, seedFlags.db)
	return nil
}
