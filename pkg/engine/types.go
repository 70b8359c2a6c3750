package engine

import (
	"path"
	"sort"
)

// Identity is a managed account entry.
type Identity struct {
	// Name is the login name and the unique key of the identity.
	Name string `json:"name" validate:"required"`

	// Home is the home directory. Empty means the default of /home/<name>.
	Home string `json:"home,omitempty"`

	// Key is the base64-encoded authorized_keys material, empty when the
	// identity has no credential.
	Key string `json:"key,omitempty"`

	// Sudo grants passwordless administrative privilege via the sudoer file.
	Sudo bool `json:"sudo"`
}

// HomeDir resolves the effective home directory, defaulting to /home/<name>.
func (i Identity) HomeDir() string {
	if i.Home != "" {
		return i.Home
	}
	return path.Join("/home", i.Name)
}

// AuthorizedKeysPath is where the identity's credential material lives.
func (i Identity) AuthorizedKeysPath() string {
	return path.Join(i.HomeDir(), ".ssh", "authorized_keys")
}

// DesiredSet is the declared target configuration for identities.
type DesiredSet struct {
	// Identities are the accounts that must exist on the host.
	Identities []Identity `json:"users" validate:"dive"`

	// Ignore names identities that must never be deleted even when absent
	// from Identities. It is a permanent allow-list, not a managed set.
	Ignore []string `json:"ignore,omitempty"`
}

// ObservedSet is the live state read from the host, or an explicit override
// supplied by a caller (tests, the refresh step's internal pass).
type ObservedSet struct {
	Identities  []Identity
	SudoerNames []string
}

// byName indexes the observed identities for classifier and diff lookups.
func (o ObservedSet) byName() map[string]Identity {
	m := make(map[string]Identity, len(o.Identities))
	for _, id := range o.Identities {
		m[id.Name] = id
	}
	return m
}

// Diff is the computed action plan between a DesiredSet and an ObservedSet.
// It is computed fresh per reconciliation pass, consumed immediately by the
// executor and discarded; it has no persisted form.
type Diff struct {
	// Final is the declared target, unconditionally.
	Final []Identity

	ToAdd    []Identity
	ToUpdate []Identity
	ToDelete []Identity

	// FinalSudoers is always the total snapshot of desired sudo identities,
	// never an incremental result.
	FinalSudoers    []string
	SudoersToAdd    []string
	SudoersToDelete []string
}

// Empty reports whether the plan contains no actions at all.
func (d Diff) Empty() bool {
	return len(d.ToAdd) == 0 && len(d.ToUpdate) == 0 && len(d.ToDelete) == 0 &&
		len(d.SudoersToAdd) == 0 && len(d.SudoersToDelete) == 0
}

func sortIdentities(ids []Identity) {
	sort.Slice(ids, func(a, b int) bool { return ids[a].Name < ids[b].Name })
}
