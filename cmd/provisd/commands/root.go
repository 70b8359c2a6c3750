// Package commands wires the provisd CLI: provision, deprovision, refresh,
// watch and the run journal.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	settingsPath string
	verbose      bool
)

// Execute runs the root command.
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "provisd",
		Short: "provisd - host identity and bootstrap reconciler",
		Long: `provisd reconciles OS user accounts, their SSH authorized-key material and
sudoer membership against a declared target, and bootstraps the isolated
interpreter environment the agent package is installed into.

Steps are delivered as payloads under the assets directory, one subdirectory
per step id. Every mutating command supports a dry run (the default); pass
--apply to mutate the host.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	rootCmd.PersistentFlags().StringVarP(&settingsPath, "settings", "c", "", "settings file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(newProvisionCommand())
	rootCmd.AddCommand(newDeprovisionCommand())
	rootCmd.AddCommand(newRefreshCommand())
	rootCmd.AddCommand(newWatchCommand())
	rootCmd.AddCommand(newRunsCommand())

	return rootCmd
}
