// Package bootstrap implements the interpreter-environment steps: an
// isolated venv and the agent package installed into it. Both implement the
// same Step contract as the users step; the reconciliation engine treats them
// as opaque peers.
package bootstrap

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/provisd/provisd/pkg/config"
	"github.com/provisd/provisd/pkg/engine"
	"github.com/provisd/provisd/pkg/host"
)

// systemPython bootstraps environments; everything after creation goes
// through the environment's own executables.
const systemPython = "/usr/bin/python3"

// Venv locates an interpreter environment inside the assets directory.
type Venv struct {
	AssetsDir string
	ID        string
}

// Path is the environment root.
func (v Venv) Path() string { return filepath.Join(v.AssetsDir, v.ID, "venv") }

// Python is the environment's interpreter.
func (v Venv) Python() string { return filepath.Join(v.Path(), "bin", "python3") }

// Pip is the environment's package installer.
func (v Venv) Pip() string { return filepath.Join(v.Path(), "bin", "pip") }

// VenvStep provisions an isolated interpreter environment. It implements
// engine.Step.
type VenvStep struct {
	payload   config.VenvPayload
	assetsDir string
	runner    host.Runner
	log       zerolog.Logger
}

// NewVenvStep builds the step from a decoded payload.
func NewVenvStep(payload config.VenvPayload, assetsDir string, runner host.Runner, log zerolog.Logger) *VenvStep {
	return &VenvStep{
		payload:   payload,
		assetsDir: assetsDir,
		runner:    runner,
		log:       log.With().Str("component", "venv").Str("id", payload.ID).Logger(),
	}
}

func (s *VenvStep) venv() Venv {
	return Venv{AssetsDir: s.assetsDir, ID: s.payload.ID}
}

// Name implements engine.Step.
func (s *VenvStep) Name() string { return "venv" }

// State implements engine.Step.
func (s *VenvStep) State() any { return s.payload }

// Ready reports the readiness flag of the last refresh.
func (s *VenvStep) Ready() bool { return s.payload.Ready }

// Provision creates the environment.
func (s *VenvStep) Provision(ctx context.Context, apply bool) error {
	s.log.Info().Str("path", s.venv().Path()).Bool("apply", apply).Msg("creating interpreter environment")
	if !apply {
		return nil
	}
	_, _, err := s.runner.Run(ctx, systemPython, "-m", "venv", s.venv().Path())
	return err
}

// Deprovision removes the environment tree.
func (s *VenvStep) Deprovision(ctx context.Context, apply bool) error {
	s.log.Info().Str("path", s.venv().Path()).Bool("apply", apply).Msg("removing interpreter environment")
	if !apply {
		return nil
	}
	return os.RemoveAll(s.venv().Path())
}

// Refresh reloads the declared payload. Post-refresh probes the environment's
// interpreter and reports readiness; a failing probe is "not ready", not an
// error.
func (s *VenvStep) Refresh(ctx context.Context, pre bool) (engine.Step, error) {
	payload, err := config.LoadVenv(s.assetsDir, s.payload.ID)
	if err != nil {
		return nil, err
	}
	next := *s
	next.payload = payload
	if pre {
		return &next, nil
	}
	if _, _, err := s.runner.Run(ctx, next.venv().Python(), "--version"); err == nil {
		next.payload.Ready = true
	}
	return &next, nil
}
