package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/portalmap/internal/config"
	"github.com/matzehuels/portalmap/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the rendered artifact cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached artifact",
		Long: `Remove every cached artifact from the configured backend. The file
backend is cleared by default; use --cache redis to clear the keys under
the redis prefix instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			return clearCache(cmd.Context(), cfg)
		},
	}
	cmd.Flags().String("cache", cache.BackendFile, "backend to clear: file or redis")
	cmd.Flags().String("cache-dir", "", "file cache directory")
	cmd.Flags().String("redis-addr", "", "redis address")
	return cmd
}

// clearCache clears the configured backend. With caching disabled the
// file cache is cleared, since that is where earlier runs may have written.
func clearCache(ctx context.Context, cfg *config.Config) error {
	backend := cfg.Cache.Backend
	if backend == cache.BackendNone {
		backend = cache.BackendFile
	}
	switch backend {
	case cache.BackendRedis:
		rc, err := cache.NewRedisCache(ctx, cfg.CacheConfig().Redis)
		if err != nil {
			return err
		}
		defer rc.Close()
		n, err := rc.Clear(ctx)
		if err != nil {
			return fmt.Errorf("clear redis cache: %w", err)
		}
		printSuccess("Cleared %d cached entries", n)
		printDetail("Redis: %s (prefix %q)", cfg.Redis.Addr, cfg.Redis.Prefix)
		return nil

	case cache.BackendFile:
		dir, err := fileCacheDir(cfg)
		if err != nil {
			return err
		}
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			printInfo("Cache is empty")
			return nil
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return err
		}
		n, err := fc.Clear()
		if err != nil {
			return fmt.Errorf("clear file cache: %w", err)
		}
		printSuccess("Cleared %d cached entries", n)
		printDetail("Directory: %s", dir)
		return nil

	default:
		return fmt.Errorf("unknown cache backend %q", backend)
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Print the file cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			dir, err := fileCacheDir(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
	cmd.Flags().String("cache-dir", "", "file cache directory")
	return cmd
}

func fileCacheDir(cfg *config.Config) (string, error) {
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	dir, err := cache.DefaultDir()
	if err != nil {
		return "", fmt.Errorf("get cache dir: %w", err)
	}
	return dir, nil
}
