package cmd

import (
	"fmt"
	"time"

	"github.com/matheuskafuri/prepmine/internal/cache"
	"github.com/matheuskafuri/prepmine/internal/config"
	"github.com/spf13/cobra"
)

var flagSweepOlderThan string

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove expired pages from the local cache",
	Long: `Delete cached pages whose age has passed the freshness window and reclaim
disk space. Expired pages are already invisible to lookups, so sweeping is
purely housekeeping and safe to run at any time.

Uses the cache_ttl value from config (default: 7d) unless overridden with
--older-than.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		db, err := cache.Open(config.CachePath(), cfg.CacheTTLDuration())
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		defer db.Close()

		var removed int64
		if flagSweepOlderThan != "" {
			maxAge, err := parseAge(flagSweepOlderThan)
			if err != nil {
				return fmt.Errorf("invalid --older-than value: %w", err)
			}
			removed, err = db.Sweep(maxAge)
			if err != nil {
				return fmt.Errorf("sweeping: %w", err)
			}
		} else {
			removed, err = db.SweepExpired()
			if err != nil {
				return fmt.Errorf("sweeping: %w", err)
			}
		}

		if removed == 0 {
			fmt.Println("Nothing to sweep.")
		} else {
			fmt.Printf("Swept %d page(s).\n", removed)
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		dbPath := config.CachePath()
		db, err := cache.Open(dbPath, cfg.CacheTTLDuration())
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		defer db.Close()

		stats, err := db.Stats()
		if err != nil {
			return fmt.Errorf("reading stats: %w", err)
		}
		size, err := db.Size()
		if err != nil {
			return fmt.Errorf("reading size: %w", err)
		}

		fmt.Printf("Cache: %s\n", dbPath)
		fmt.Printf("Pages: %d (%d fresh, %d expired)\n", stats.Total, stats.Valid, stats.Expired)
		fmt.Printf("Freshness window: %s\n", formatDuration(db.TTL()))
		fmt.Printf("Size: %s\n", formatBytes(size))
		return nil
	},
}

func init() {
	sweepCmd.Flags().StringVar(&flagSweepOlderThan, "older-than", "", "override the freshness window (e.g., 3d, 72h)")
}

// parseAge accepts Go durations plus a day suffix, so "3d" works.
func parseAge(s string) (time.Duration, error) {
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}
	return time.ParseDuration(s)
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days > 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dh", int(d.Hours()))
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
