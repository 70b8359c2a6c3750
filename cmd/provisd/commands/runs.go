package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newRunsCommand() *cobra.Command {
	var limit int
	var events bool

	cmd := &cobra.Command{
		Use:   "runs [RUN_ID]",
		Short: "Inspect the reconciliation run journal",
		Long: `Runs lists the recorded reconciliation runs, newest first, or shows a
single run by id. Requires journal_path to be set in the settings file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), cmd.Root().Version)
			if err != nil {
				return err
			}
			defer rt.close(cmd.Context())

			if rt.journal == nil {
				return fmt.Errorf("no journal configured; set journal_path in the settings file")
			}

			var out any
			if len(args) == 1 {
				run, err := rt.journal.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out = run
				if events {
					evs, err := rt.journal.ListEvents(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					out = map[string]any{"run": run, "events": evs}
				}
			} else {
				runs, err := rt.journal.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out = runs
			}

			encoded, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list")
	cmd.Flags().BoolVar(&events, "events", false, "include the event log when showing a single run")
	return cmd
}
