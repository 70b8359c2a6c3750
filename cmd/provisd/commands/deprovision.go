package commands

import (
	"context"

	"github.com/spf13/cobra"
)

func newDeprovisionCommand() *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "deprovision STEP ID",
		Short: "Remove everything the declared state describes",
		Long: `Deprovision treats the entire declared configuration of STEP as removals:
for users that is the whole declared identity set run through the deletion
phase only, for venv and bootstrap it is the environment and the installed
agent package.

Without --apply this is a dry run.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			step, id := args[0], args[1]
			rt, err := newRuntime(cmd.Context(), cmd.Root().Version)
			if err != nil {
				return err
			}
			defer rt.close(cmd.Context())

			s, err := rt.buildStep(cmd.Context(), step, id)
			if err != nil {
				return err
			}

			return rt.journaled(cmd.Context(), "deprovision", step, apply, func(ctx context.Context, runID string) error {
				return s.Deprovision(ctx, apply)
			})
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "mutate the host (default is dry run)")
	return cmd
}
