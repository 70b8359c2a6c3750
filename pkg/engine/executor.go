package engine

import (
	"context"

	"github.com/rs/zerolog"
)

// HostOps is the set of side-effecting host mutations the executor drives.
// Implementations must fail with a *CommandError on non-zero exit of the
// underlying command.
type HostOps interface {
	// CreateAccount creates the OS account with a home directory, granting
	// the administrative group when admin is set.
	CreateAccount(ctx context.Context, name string, admin bool) error

	// DeleteAccount removes the OS account together with its home tree.
	DeleteAccount(ctx context.Context, name string) error

	// WriteCredential writes decoded key material to path, creating parent
	// directories with restrictive permissions, and chowns it to owner.
	WriteCredential(ctx context.Context, path, key, owner string) error

	// WriteSudoerFile rewrites the sudoer file wholesale, one rule line per
	// name, replacing any prior content.
	WriteSudoerFile(ctx context.Context, names []string) error

	// DeleteSudoerFile removes the sudoer file entirely.
	DeleteSudoerFile(ctx context.Context) error
}

// Executor applies a Diff through injected host mutations in a fixed order:
// deletes, then adds, then updates, then the sudoer-file snapshot. Execution
// is strictly sequential; the account database and the sudoer file are
// host-wide shared resources and concurrent mutation is unsafe.
type Executor struct {
	ops HostOps
	log zerolog.Logger
}

// NewExecutor creates an executor over the given host mutations.
func NewExecutor(ops HostOps, log zerolog.Logger) *Executor {
	return &Executor{ops: ops, log: log.With().Str("component", "executor").Logger()}
}

// Apply executes the plan. With dryRun set it performs the identical
// enumeration and logging with zero external mutation, so a dry run can never
// raise a mutation error. The first failing mutation aborts the remaining
// plan; already-applied steps are not rolled back.
func (e *Executor) Apply(ctx context.Context, diff Diff, dryRun bool) error {
	e.log.Info().
		Int("add", len(diff.ToAdd)).
		Int("update", len(diff.ToUpdate)).
		Int("delete", len(diff.ToDelete)).
		Strs("sudoers", diff.FinalSudoers).
		Bool("dry_run", dryRun).
		Msg("applying plan")

	if err := e.Delete(ctx, diff.ToDelete, dryRun); err != nil {
		return err
	}

	for _, id := range diff.ToAdd {
		e.log.Info().Str("user", id.Name).Bool("dry_run", dryRun).Msg("adding user")
		if dryRun {
			continue
		}
		if err := e.ops.CreateAccount(ctx, id.Name, id.Sudo); err != nil {
			return err
		}
		if id.Key != "" {
			if err := e.ops.WriteCredential(ctx, id.AuthorizedKeysPath(), id.Key, id.Name); err != nil {
				return err
			}
		}
	}

	for _, id := range diff.ToUpdate {
		// Update rewrites only the credential at the identity's existing
		// home path; there is no account-level mutation.
		e.log.Info().Str("user", id.Name).Bool("dry_run", dryRun).Msg("updating user key")
		if dryRun || id.Key == "" {
			continue
		}
		if err := e.ops.WriteCredential(ctx, id.AuthorizedKeysPath(), id.Key, id.Name); err != nil {
			return err
		}
	}

	if len(diff.FinalSudoers) > 0 {
		e.log.Info().Strs("sudoers", diff.FinalSudoers).Bool("dry_run", dryRun).Msg("writing sudoer file")
		if !dryRun {
			if err := e.ops.WriteSudoerFile(ctx, diff.FinalSudoers); err != nil {
				return err
			}
		}
	} else {
		e.log.Info().Bool("dry_run", dryRun).Msg("no sudoer users declared, removing sudoer file")
		if !dryRun {
			if err := e.ops.DeleteSudoerFile(ctx); err != nil {
				return err
			}
		}
	}

	return nil
}

// Delete runs the deletion phase alone. Deprovisioning uses it directly with
// the entire declared identity set.
func (e *Executor) Delete(ctx context.Context, ids []Identity, dryRun bool) error {
	for _, id := range ids {
		e.log.Info().Str("user", id.Name).Bool("dry_run", dryRun).Msg("removing user")
		if dryRun {
			continue
		}
		if err := e.ops.DeleteAccount(ctx, id.Name); err != nil {
			return err
		}
	}
	return nil
}
