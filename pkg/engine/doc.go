// Package engine implements the host reconciliation core of provisd.
//
// The engine compares a declared set of managed identities (user accounts,
// their SSH authorized-key material and sudoer membership) against the state
// observed on the host and produces a minimal, idempotent action plan:
//
//   - Classify evaluates a single identity as missing, present or outdated.
//   - ComputeDiff turns a DesiredSet and an ObservedSet into a Diff of
//     add/update/delete identity sets plus a total sudoer-file snapshot.
//   - Executor applies a Diff through injected host mutations in a fixed
//     order, with a dry-run mode that only reports.
//   - Step is the uniform provision/deprovision/refresh contract that lets a
//     Driver sequence heterogeneous resource kinds (identities, interpreter
//     environments) without knowing their internals.
//
// Observed state is always an explicit value threaded through the call, never
// hidden cache state: repeated passes within one process see exactly what they
// were handed. Mutation failures surface as *CommandError carrying the failing
// command's captured output streams; the remaining plan is not executed and
// applied steps are not rolled back. A later pass diffs against the new
// observed state, which makes reconciliation eventually idempotent across
// restarts even though a single pass is not atomic.
package engine
