package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/provisd/provisd/pkg/bootstrap"
	"github.com/provisd/provisd/pkg/config"
	"github.com/provisd/provisd/pkg/engine"
	"github.com/provisd/provisd/pkg/host"
	"github.com/provisd/provisd/pkg/stores"
	"github.com/provisd/provisd/pkg/telemetry"
)

// runtime bundles everything a command needs after settings are loaded.
type runtime struct {
	settings config.Settings
	log      zerolog.Logger
	metrics  *telemetry.Metrics
	tracer   *telemetry.Tracer
	journal  *stores.SQLiteStore
}

// newRuntime loads settings and builds the shared collaborators. The journal
// is optional; everything else always exists.
func newRuntime(ctx context.Context, version string) (*runtime, error) {
	settings, err := config.LoadSettings(settingsPath)
	if err != nil {
		return nil, err
	}
	if verbose {
		settings.Logging.Level = "debug"
	}

	log := telemetry.NewLogger(settings.Logging)

	tracer, err := telemetry.NewTracer(settings.Tracing, version)
	if err != nil {
		return nil, err
	}

	rt := &runtime{
		settings: settings,
		log:      log,
		metrics:  telemetry.NewMetrics(settings.Metrics.Enabled),
		tracer:   tracer,
	}

	if settings.JournalPath != "" {
		journal, err := stores.NewSQLiteStore(settings.JournalPath)
		if err != nil {
			return nil, err
		}
		if err := journal.Init(ctx); err != nil {
			return nil, err
		}
		rt.journal = journal
	}

	return rt, nil
}

// close releases the runtime's resources.
func (rt *runtime) close(ctx context.Context) {
	if rt.journal != nil {
		if err := rt.journal.Close(); err != nil {
			rt.log.Warn().Err(err).Msg("failed to close journal")
		}
	}
	if err := rt.tracer.Shutdown(ctx); err != nil {
		rt.log.Warn().Err(err).Msg("failed to shut down tracer")
	}
}

// buildStep constructs the step named by the CLI from its payload.
func (rt *runtime) buildStep(ctx context.Context, step, id string) (engine.Step, error) {
	runner := host.NewRunner(rt.log)

	switch step {
	case "users":
		source := config.NewUsersSource(rt.settings.AssetsDir, id)
		desired, err := source.Load(ctx)
		if err != nil {
			return nil, err
		}
		h := host.New(host.Config{
			UIDMin:      rt.settings.UIDMin,
			UIDMax:      rt.settings.UIDMax,
			SudoersPath: rt.settings.SudoersPath,
			PasswdPath:  "/etc/passwd",
		}, runner, rt.log)
		exec := engine.NewExecutor(h, rt.log)
		return engine.NewUsersStep(desired, source, h, exec), nil

	case "venv":
		payload, err := config.LoadVenv(rt.settings.AssetsDir, id)
		if err != nil {
			return nil, err
		}
		return bootstrap.NewVenvStep(payload, rt.settings.AssetsDir, runner, rt.log), nil

	case "bootstrap":
		payload, err := config.LoadBootstrap(rt.settings.AssetsDir, id)
		if err != nil {
			return nil, err
		}
		return bootstrap.NewBootstrapStep(payload, rt.settings.AssetsDir, runner, rt.log), nil

	default:
		return nil, fmt.Errorf("unknown step %q", step)
	}
}

// journaled wraps a command invocation with run journaling, metrics and a
// trace span. fn runs exactly once either way; journaling never blocks the
// reconciliation itself.
func (rt *runtime) journaled(ctx context.Context, command, step string, apply bool, fn func(ctx context.Context, runID string) error) error {
	ctx, span := rt.tracer.Start(ctx, "provisd."+command)
	defer span.End()

	runID := uuid.New().String()
	started := time.Now().UTC()
	if rt.journal != nil {
		run := &stores.Run{
			ID:        runID,
			Step:      step,
			Command:   command,
			Apply:     apply,
			Status:    stores.RunStatusRunning,
			StartedAt: started,
		}
		if err := rt.journal.CreateRun(ctx, run); err != nil {
			rt.log.Warn().Err(err).Msg("failed to journal run start")
		}
	}

	err := fn(ctx, runID)

	status := stores.RunStatusSucceeded
	var errMsg *string
	if err != nil {
		status = stores.RunStatusFailed
		msg := err.Error()
		errMsg = &msg
	}
	if rt.journal != nil {
		if jerr := rt.journal.CompleteRun(ctx, runID, status, errMsg); jerr != nil {
			rt.log.Warn().Err(jerr).Msg("failed to journal run completion")
		}
	}
	rt.metrics.RecordRun(command, string(status), time.Since(started))

	return err
}

// journalPlan records the computed plan of a users step as journal events.
func (rt *runtime) journalPlan(ctx context.Context, runID string, diff engine.Diff) {
	if rt.journal == nil {
		return
	}
	record := func(identity, message string) {
		ev := &stores.Event{RunID: runID, Level: stores.EventLevelInfo, Identity: identity, Message: message}
		if err := rt.journal.AppendEvent(ctx, ev); err != nil {
			rt.log.Warn().Err(err).Msg("failed to journal event")
		}
	}
	for _, id := range diff.ToDelete {
		record(id.Name, "removing user")
	}
	for _, id := range diff.ToAdd {
		record(id.Name, "adding user")
	}
	for _, id := range diff.ToUpdate {
		record(id.Name, "updating user key")
	}
}
