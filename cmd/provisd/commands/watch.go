package commands

import (
	"context"
	"net/http"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/provisd/provisd/pkg/config"
	"github.com/provisd/provisd/pkg/engine"
)

func newWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch ID",
		Short: "Report drift whenever the users payload changes",
		Long: `Watch observes the payload of a users step and, on every change and once
at startup, logs the plan a provision run would apply. It is a standing
read-only drift report: no host mutation ever happens in watch mode.

When metrics are enabled the Prometheus scrape endpoint is served for the
lifetime of the watch.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			rt, err := newRuntime(cmd.Context(), cmd.Root().Version)
			if err != nil {
				return err
			}
			defer rt.close(cmd.Context())

			if rt.settings.Metrics.Enabled {
				go func() {
					addr := rt.settings.Metrics.ListenAddress
					rt.log.Info().Str("addr", addr).Msg("serving metrics")
					if err := http.ListenAndServe(addr, rt.metrics.Handler()); err != nil {
						rt.log.Error().Err(err).Msg("metrics server stopped")
					}
				}()
			}

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return err
			}
			defer watcher.Close()

			payloadDir := filepath.Join(rt.settings.AssetsDir, id)
			if err := watcher.Add(payloadDir); err != nil {
				return err
			}
			rt.log.Info().Str("dir", payloadDir).Msg("watching payload")

			report := func(ctx context.Context) {
				if err := rt.reportDrift(ctx, id); err != nil {
					rt.log.Error().Err(err).Msg("drift report failed")
				}
			}
			report(cmd.Context())

			for {
				select {
				case <-cmd.Context().Done():
					return nil
				case ev, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if filepath.Base(ev.Name) != config.PayloadFile {
						continue
					}
					if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
						continue
					}
					rt.log.Info().Str("payload", ev.Name).Msg("payload changed")
					report(cmd.Context())
				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					rt.log.Error().Err(err).Msg("watch error")
				}
			}
		},
	}

	return cmd
}

// reportDrift logs the plan a provision run would apply right now.
func (rt *runtime) reportDrift(ctx context.Context, id string) error {
	s, err := rt.buildStep(ctx, "users", id)
	if err != nil {
		return err
	}
	users := s.(*engine.UsersStep)

	diff, err := users.Plan(ctx)
	if err != nil {
		return err
	}
	rt.metrics.RecordPlan(len(diff.ToAdd), len(diff.ToUpdate), len(diff.ToDelete))

	if diff.Empty() {
		rt.log.Info().Msg("host converged, no drift")
		return nil
	}
	// The dry-run executor pass prints the would-be plan line by line.
	return users.Provision(ctx, false)
}
