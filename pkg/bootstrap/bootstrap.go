package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/provisd/provisd/pkg/config"
	"github.com/provisd/provisd/pkg/engine"
	"github.com/provisd/provisd/pkg/host"
)

// DefaultAgentPackage is installed when the payload names no package.
const DefaultAgentPackage = "provisd-agent"

// BootstrapStep installs the agent wheel into an interpreter environment. It
// implements engine.Step.
type BootstrapStep struct {
	payload   config.BootstrapPayload
	assetsDir string
	runner    host.Runner
	log       zerolog.Logger
}

// NewBootstrapStep builds the step from a decoded payload.
func NewBootstrapStep(payload config.BootstrapPayload, assetsDir string, runner host.Runner, log zerolog.Logger) *BootstrapStep {
	return &BootstrapStep{
		payload:   payload,
		assetsDir: assetsDir,
		runner:    runner,
		log:       log.With().Str("component", "bootstrap").Str("id", payload.ID).Logger(),
	}
}

func (s *BootstrapStep) venv() Venv {
	return Venv{AssetsDir: s.assetsDir, ID: s.payload.VenvResourceID}
}

// wheelPath resolves the declared wheel under the step's asset subtree.
// Absolute declared paths are re-rooted so the wheel always comes from the
// delivered assets.
func (s *BootstrapStep) wheelPath() string {
	whl := strings.TrimPrefix(s.payload.Whl, "/")
	return filepath.Join(s.assetsDir, s.payload.ID, whl)
}

func (s *BootstrapStep) packageName() string {
	if s.payload.PackageName != "" {
		return s.payload.PackageName
	}
	return DefaultAgentPackage
}

// Name implements engine.Step.
func (s *BootstrapStep) Name() string { return "bootstrap" }

// State implements engine.Step.
func (s *BootstrapStep) State() any { return s.payload }

// Installed reports the install flag of the last refresh.
func (s *BootstrapStep) Installed() bool { return s.payload.Installed }

// Provision installs the wheel into the environment.
func (s *BootstrapStep) Provision(ctx context.Context, apply bool) error {
	s.log.Info().Str("wheel", s.wheelPath()).Bool("apply", apply).Msg("installing agent package")
	if !apply {
		return nil
	}
	_, _, err := s.runner.Run(ctx, s.venv().Pip(), "install", "--require-virtualenv", s.wheelPath())
	return err
}

// Deprovision uninstalls the package and removes the step's asset subtree.
func (s *BootstrapStep) Deprovision(ctx context.Context, apply bool) error {
	s.log.Info().Str("package", s.packageName()).Bool("apply", apply).Msg("uninstalling agent package")
	if !apply {
		return nil
	}
	if _, _, err := s.runner.Run(ctx, s.venv().Pip(), "uninstall", "--require-virtualenv", "-y", s.packageName()); err != nil {
		return err
	}
	return os.RemoveAll(filepath.Join(s.assetsDir, s.payload.ID))
}

// pipPackage is one entry of `pip list --format json`.
type pipPackage struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Refresh reloads the declared payload. Post-refresh asks the environment's
// pip for its installed packages and reports whether the agent package is
// among them.
func (s *BootstrapStep) Refresh(ctx context.Context, pre bool) (engine.Step, error) {
	payload, err := config.LoadBootstrap(s.assetsDir, s.payload.ID)
	if err != nil {
		return nil, err
	}
	next := *s
	next.payload = payload
	if pre {
		return &next, nil
	}

	stdout, _, err := s.runner.Run(ctx, next.venv().Pip(), "list", "--require-virtualenv", "--format", "json")
	if err != nil {
		// An unready environment means "not installed", mirroring the venv
		// probe; the declared payload is returned untouched.
		return &next, nil
	}
	var packages []pipPackage
	if err := json.Unmarshal([]byte(stdout), &packages); err != nil {
		return nil, fmt.Errorf("failed to parse pip list output: %w", err)
	}
	next.payload.Installed = pipHasPackage(next.packageName(), packages)
	return &next, nil
}

func pipHasPackage(name string, packages []pipPackage) bool {
	for _, p := range packages {
		if p.Name == name {
			return true
		}
	}
	return false
}
