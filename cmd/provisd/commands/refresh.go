package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newRefreshCommand() *cobra.Command {
	var pre bool

	cmd := &cobra.Command{
		Use:   "refresh STEP ID",
		Short: "Report the declared or converged state",
		Long: `Refresh reloads the declared configuration of STEP and prints it as JSON.

With --pre the declared target is printed verbatim: what a provision run is
about to enforce. Without it the output is filtered to what is already
satisfied on the host: for users the identities whose live classification is
present, for venv and bootstrap the probed readiness and install flags.

Refresh is read-only; it never mutates host state.`,
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

			refreshed, err := s.Refresh(cmd.Context(), pre)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(refreshed.State(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().BoolVar(&pre, "pre", false, "print the declared target instead of the converged subset")
	return cmd
}
