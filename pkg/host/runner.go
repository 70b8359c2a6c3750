package host

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/rs/zerolog"

	"github.com/provisd/provisd/pkg/engine"
)

// Runner executes external commands with both output streams captured. A
// non-zero exit yields a *engine.CommandError carrying the captured streams.
type Runner interface {
	Run(ctx context.Context, argv ...string) (stdout, stderr string, err error)
}

type execRunner struct {
	log zerolog.Logger
}

// NewRunner creates the os/exec backed runner.
func NewRunner(log zerolog.Logger) Runner {
	return &execRunner{log: log.With().Str("component", "runner").Logger()}
}

func (r *execRunner) Run(ctx context.Context, argv ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.log.Debug().Strs("argv", argv).Msg("running command")
	if err := cmd.Run(); err != nil {
		return stdout.String(), stderr.String(),
			engine.NewCommandError(argv, stdout.String(), stderr.String(), err)
	}
	return stdout.String(), stderr.String(), nil
}
