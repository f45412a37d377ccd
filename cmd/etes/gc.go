package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/etesdev/etes/pkg/github"
	"github.com/etesdev/etes/pkg/registry"
)

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Remove stale executables and exit",
	Long: `Run one garbage collection pass over the executable registry.

The live commit set is fetched from GitHub first: executables whose
build or trigger commit is a release or a green pull request head are
kept, as is anything younger than thirty days. Everything else is
removed.

The server performs the same sweep at startup; this command exists for
cron-style housekeeping on hosts where the server runs for months.`,
	RunE: runGC,
}

func init() {
	rootCmd.AddCommand(gcCmd)
}

func runGC(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	gh := github.New(cfg)
	if err := gh.Update(cmd.Context()); err != nil {
		return fmt.Errorf("failed to fetch GitHub data: %w", err)
	}

	kept, removed, err := registry.New(cfg.BinDir).Sweep(gh.ValidCommits())
	if err != nil {
		return err
	}

	fmt.Printf("Swept %s: %d kept, %d removed\n", cfg.BinDir, kept, removed)
	return nil
}
