package engine

import "context"

// Source reloads the declared users configuration. The decoding transport is
// external; the engine only ever sees the decoded DesiredSet.
type Source interface {
	Load(ctx context.Context) (DesiredSet, error)
}

// Observer reads the live host state: the manageable accounts plus the
// sudoer-file membership.
type Observer interface {
	Observed(ctx context.Context) (ObservedSet, error)
}

// UsersStep reconciles the declared identity set against the host. It
// implements Step.
type UsersStep struct {
	desired  DesiredSet
	source   Source
	observer Observer
	exec     *Executor

	// override replaces the live observed state when set. Used by tests and
	// by callers that already hold a snapshot.
	override *ObservedSet
}

// NewUsersStep builds the users step from a decoded desired set and its
// collaborators.
func NewUsersStep(desired DesiredSet, source Source, observer Observer, exec *Executor) *UsersStep {
	return &UsersStep{desired: desired, source: source, observer: observer, exec: exec}
}

// WithObserved returns a copy of the step that reconciles against the given
// snapshot instead of reading the live host.
func (s *UsersStep) WithObserved(obs ObservedSet) *UsersStep {
	c := *s
	c.override = &obs
	return &c
}

// Name implements Step.
func (s *UsersStep) Name() string { return "users" }

// State implements Step.
func (s *UsersStep) State() any { return s.desired }

// Desired exposes the declared target.
func (s *UsersStep) Desired() DesiredSet { return s.desired }

func (s *UsersStep) observed(ctx context.Context) (ObservedSet, error) {
	if s.override != nil {
		return *s.override, nil
	}
	return s.observer.Observed(ctx)
}

// Plan computes the current diff without applying it.
func (s *UsersStep) Plan(ctx context.Context) (Diff, error) {
	obs, err := s.observed(ctx)
	if err != nil {
		return Diff{}, err
	}
	return ComputeDiff(s.desired, obs), nil
}

// Provision recomputes the diff against the observed state and applies it.
// It never trusts a caller-supplied diff as authoritative for mutation.
func (s *UsersStep) Provision(ctx context.Context, apply bool) error {
	diff, err := s.Plan(ctx)
	if err != nil {
		return err
	}
	return s.exec.Apply(ctx, diff, !apply)
}

// Deprovision treats the entire declared identity set as deletions and runs
// only the deletion phase.
func (s *UsersStep) Deprovision(ctx context.Context, apply bool) error {
	ids := append([]Identity(nil), s.desired.Identities...)
	sortIdentities(ids)
	return s.exec.Delete(ctx, ids, !apply)
}

// Refresh reloads the declared configuration. With pre set it returns the
// declared target verbatim; otherwise it retains only the identities whose
// live classification is present. Refresh is read-only either way.
func (s *UsersStep) Refresh(ctx context.Context, pre bool) (Step, error) {
	declared, err := s.source.Load(ctx)
	if err != nil {
		return nil, err
	}
	next := *s
	next.desired = declared
	if pre {
		return &next, nil
	}

	obs, err := next.observed(ctx)
	if err != nil {
		return nil, err
	}
	byName := obs.byName()
	converged := make([]Identity, 0, len(declared.Identities))
	for _, d := range declared.Identities {
		if Classify(d, byName).Status == StatusPresent {
			converged = append(converged, d)
		}
	}
	next.desired = DesiredSet{Identities: converged, Ignore: declared.Ignore}
	return &next, nil
}
