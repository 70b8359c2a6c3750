package engine

import "sort"

// ComputeDiff compares the declared target against the observed host state
// and returns the action plan.
//
// An identity appears in at most one of ToAdd, ToUpdate and ToDelete. Names
// in desired.Ignore are never deletion candidates. The sudoer sets are
// computed as a total snapshot of the desired sudo identities against the
// observed sudoer-file membership, independent of the per-identity actions.
func ComputeDiff(desired DesiredSet, observed ObservedSet) Diff {
	byName := observed.byName()

	var toAdd, toUpdate []Identity
	existing := make(map[string]bool)

	for _, d := range desired.Identities {
		o, ok := byName[d.Name]
		switch {
		case !ok:
			toAdd = append(toAdd, d)

		case d.Key != o.Key || d.Sudo != o.Sudo || d.HomeDir() != o.Home:
			// The update keeps whatever home the observed identity already
			// has; an update only ever rewrites credential material and
			// sudoer membership, never the home directory itself.
			u := Identity{Name: d.Name, Key: d.Key, Sudo: d.Sudo, Home: o.Home}
			if u.Home == "" {
				u.Home = d.HomeDir()
			}
			toUpdate = append(toUpdate, u)
			byName[d.Name] = u

		default:
			existing[d.Name] = true
		}
	}

	handled := make(map[string]bool, len(toUpdate)+len(existing))
	for _, u := range toUpdate {
		handled[u.Name] = true
	}
	for name := range existing {
		handled[name] = true
	}
	ignored := make(map[string]bool, len(desired.Ignore))
	for _, name := range desired.Ignore {
		ignored[name] = true
	}

	var toDelete []Identity
	for name, o := range byName {
		if handled[name] || ignored[name] {
			continue
		}
		toDelete = append(toDelete, o)
	}

	finalSudoers := make([]string, 0)
	for _, d := range desired.Identities {
		if d.Sudo {
			finalSudoers = append(finalSudoers, d.Name)
		}
	}

	diff := Diff{
		Final:           append([]Identity(nil), desired.Identities...),
		ToAdd:           toAdd,
		ToUpdate:        toUpdate,
		ToDelete:        toDelete,
		FinalSudoers:    finalSudoers,
		SudoersToAdd:    subtract(finalSudoers, observed.SudoerNames),
		SudoersToDelete: subtract(observed.SudoerNames, finalSudoers),
	}

	// Deterministic plan order for logging, journaling and tests.
	sortIdentities(diff.ToAdd)
	sortIdentities(diff.ToUpdate)
	sortIdentities(diff.ToDelete)
	sort.Strings(diff.FinalSudoers)
	sort.Strings(diff.SudoersToAdd)
	sort.Strings(diff.SudoersToDelete)

	return diff
}

// subtract returns the members of a that are not in b.
func subtract(a, b []string) []string {
	in := make(map[string]bool, len(b))
	for _, s := range b {
		in[s] = true
	}
	out := make([]string, 0)
	for _, s := range a {
		if !in[s] {
			out = append(out, s)
		}
	}
	return out
}
