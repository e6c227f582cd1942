package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/matheuskafuri/prepmine/internal/cache"
	"github.com/matheuskafuri/prepmine/internal/classify"
	"github.com/matheuskafuri/prepmine/internal/config"
	"github.com/matheuskafuri/prepmine/internal/tui"
	"github.com/matheuskafuri/prepmine/internal/update"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagConfig string
	flagFocus  string
)

var rootCmd = &cobra.Command{
	Use:   "prepmine",
	Short: "Interview prep knowledge miner",
	Long: "prepmine digs through coding sites, tutorials, and discussion feeds for pages\n" +
		"worth studying before an interview, scores them against your target role, and\n" +
		"keeps everything in a local cache you can browse offline.",
	RunE: runBrowse,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.Flags().StringVar(&flagFocus, "focus", "", "start on one category (coding, design, ml, sql, behavioral, company, general)")

	rootCmd.AddCommand(mineCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(versionCmd)
}

// runBrowse opens the two-pane browser over whatever the cache holds.
func runBrowse(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := cache.Open(config.CachePath(), cfg.CacheTTLDuration())
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer db.Close()

	var focus classify.Category
	if flagFocus != "" {
		focus, err = classify.ResolveAlias(flagFocus)
		if err != nil {
			return err
		}
	}

	return tui.Run(tui.RunOpts{
		DB:       db,
		MinScore: cfg.MinScore,
		Focus:    focus,
	})
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("prepmine %s (commit: %s, built: %s)\n", version, commit, date)

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()
		if res := update.Check(ctx, version); res != nil {
			fmt.Printf("A newer version is available: %s\n", res.LatestVersion)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
