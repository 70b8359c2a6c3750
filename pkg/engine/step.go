package engine

import (
	"context"

	"github.com/rs/zerolog"
)

// Step is the uniform contract a driver uses to sequence heterogeneous
// resource kinds without knowing the entity behind them. The users step and
// the interpreter-environment steps all implement it.
type Step interface {
	// Name identifies the step for selection and logging.
	Name() string

	// Provision converges the host towards the declared state. With apply
	// unset it only reports the plan (dry run).
	Provision(ctx context.Context, apply bool) error

	// Deprovision removes everything the declared state describes. With
	// apply unset it only reports.
	Deprovision(ctx context.Context, apply bool) error

	// Refresh reloads the declared configuration and returns a step
	// describing either the intended state (pre) or the subset already
	// satisfied on the host (post). It never mutates host state.
	Refresh(ctx context.Context, pre bool) (Step, error)

	// State exposes the step's declared state for reporting.
	State() any
}

// Driver holds an ordered list of steps and invokes them uniformly.
type Driver struct {
	steps []Step
	log   zerolog.Logger
}

// NewDriver creates a driver over the given steps.
func NewDriver(log zerolog.Logger, steps ...Step) *Driver {
	return &Driver{steps: steps, log: log.With().Str("component", "driver").Logger()}
}

// Provision runs the provision operation of every step matching name; an
// empty name matches all steps.
func (d *Driver) Provision(ctx context.Context, name string, apply bool) error {
	for _, s := range d.match(name) {
		d.log.Info().Str("step", s.Name()).Bool("apply", apply).Msg("provisioning step")
		if err := s.Provision(ctx, apply); err != nil {
			return err
		}
	}
	return nil
}

// Deprovision runs the deprovision operation of every matching step.
func (d *Driver) Deprovision(ctx context.Context, name string, apply bool) error {
	for _, s := range d.match(name) {
		d.log.Info().Str("step", s.Name()).Bool("apply", apply).Msg("deprovisioning step")
		if err := s.Deprovision(ctx, apply); err != nil {
			return err
		}
	}
	return nil
}

// Refresh refreshes every matching step and returns the refreshed steps in
// driver order.
func (d *Driver) Refresh(ctx context.Context, name string, pre bool) ([]Step, error) {
	var out []Step
	for _, s := range d.match(name) {
		refreshed, err := s.Refresh(ctx, pre)
		if err != nil {
			return nil, err
		}
		out = append(out, refreshed)
	}
	return out, nil
}

func (d *Driver) match(name string) []Step {
	if name == "" {
		return d.steps
	}
	var out []Step
	for _, s := range d.steps {
		if s.Name() == name {
			out = append(out, s)
		}
	}
	return out
}
