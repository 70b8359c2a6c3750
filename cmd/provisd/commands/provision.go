package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/provisd/provisd/pkg/engine"
)

func newProvisionCommand() *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "provision STEP ID",
		Short: "Converge the host towards the declared state",
		Long: `Provision recomputes the diff between the declared configuration of STEP
(payload at <assets>/<ID>/payload) and the observed host state, then applies
the resulting plan in a fixed order: deletes, adds, updates, sudoer file.

Without --apply this is a dry run: the identical plan is enumerated and
logged with zero host mutation.`,
		Example: `  # Preview the plan
  provisd provision users deploy-7c2a

  # Apply it
  provisd provision users deploy-7c2a --apply`,
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

			return rt.journaled(cmd.Context(), "provision", step, apply, func(ctx context.Context, runID string) error {
				if users, ok := s.(*engine.UsersStep); ok {
					diff, err := users.Plan(ctx)
					if err != nil {
						return err
					}
					rt.metrics.RecordPlan(len(diff.ToAdd), len(diff.ToUpdate), len(diff.ToDelete))
					rt.journalPlan(ctx, runID, diff)
				}
				return s.Provision(ctx, apply)
			})
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "mutate the host (default is dry run)")
	return cmd
}
