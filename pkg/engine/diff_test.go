package engine

import (
	"reflect"
	"sort"
	"testing"
)

func testUser(name string) Identity {
	return Identity{Name: name, Home: "/home/" + name, Key: name + "-some-key"}
}

func names(ids []Identity) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.Name)
	}
	sort.Strings(out)
	return out
}

func TestComputeDiffEmptyBothSides(t *testing.T) {
	diff := ComputeDiff(DesiredSet{}, ObservedSet{})
	if !diff.Empty() {
		t.Fatalf("expected empty diff, got %+v", diff)
	}
}

func TestComputeDiffDeletesUnwantedUser(t *testing.T) {
	// Nothing desired, one user observed.
	diff := ComputeDiff(
		DesiredSet{},
		ObservedSet{Identities: []Identity{testUser("user1")}},
	)

	if got := names(diff.ToDelete); !reflect.DeepEqual(got, []string{"user1"}) {
		t.Fatalf("ToDelete = %v, want [user1]", got)
	}
	if len(diff.ToAdd) != 0 || len(diff.ToUpdate) != 0 {
		t.Fatalf("unexpected add/update sets: %+v", diff)
	}
	if len(diff.FinalSudoers) != 0 {
		t.Fatalf("FinalSudoers = %v, want empty", diff.FinalSudoers)
	}
}

func TestComputeDiffAddsMissingUser(t *testing.T) {
	// One sudo user desired, nothing observed.
	desired := testUser("user1")
	desired.Sudo = true

	diff := ComputeDiff(
		DesiredSet{Identities: []Identity{desired}},
		ObservedSet{},
	)

	if got := names(diff.ToAdd); !reflect.DeepEqual(got, []string{"user1"}) {
		t.Fatalf("ToAdd = %v, want [user1]", got)
	}
	if !reflect.DeepEqual(diff.FinalSudoers, []string{"user1"}) {
		t.Fatalf("FinalSudoers = %v, want [user1]", diff.FinalSudoers)
	}
	if !reflect.DeepEqual(diff.SudoersToAdd, []string{"user1"}) {
		t.Fatalf("SudoersToAdd = %v, want [user1]", diff.SudoersToAdd)
	}
}

func TestComputeDiffNoChangeForIdenticalSets(t *testing.T) {
	users := []Identity{testUser("user1")}
	diff := ComputeDiff(
		DesiredSet{Identities: users},
		ObservedSet{Identities: users},
	)
	if !diff.Empty() {
		t.Fatalf("expected empty diff, got %+v", diff)
	}
}

func TestComputeDiffReplacesChangedUser(t *testing.T) {
	diff := ComputeDiff(
		DesiredSet{Identities: []Identity{testUser("user1")}},
		ObservedSet{Identities: []Identity{testUser("user2")}},
	)

	if got := names(diff.ToAdd); !reflect.DeepEqual(got, []string{"user1"}) {
		t.Fatalf("ToAdd = %v, want [user1]", got)
	}
	if got := names(diff.ToDelete); !reflect.DeepEqual(got, []string{"user2"}) {
		t.Fatalf("ToDelete = %v, want [user2]", got)
	}
}

func TestComputeDiffPreservesObservedHome(t *testing.T) {
	// Same user, different key, observed home /root. The update
	// must keep the observed home, never the declared default.
	observed := testUser("user1")
	observed.Home = "/root"
	observed.Key = "some-other-key"

	diff := ComputeDiff(
		DesiredSet{Identities: []Identity{testUser("user1")}},
		ObservedSet{Identities: []Identity{observed}},
	)

	if len(diff.ToUpdate) != 1 {
		t.Fatalf("ToUpdate = %+v, want exactly one entry", diff.ToUpdate)
	}
	u := diff.ToUpdate[0]
	if u.Home != "/root" {
		t.Fatalf("updated home = %q, want observed /root", u.Home)
	}
	if u.Key != "user1-some-key" {
		t.Fatalf("updated key = %q, want desired key", u.Key)
	}
	if len(diff.ToDelete) != 0 {
		t.Fatalf("updated user leaked into ToDelete: %+v", diff.ToDelete)
	}
}

func TestComputeDiffRespectsIgnoreList(t *testing.T) {
	// user2 and user3 exist but are on the ignore list.
	diff := ComputeDiff(
		DesiredSet{
			Identities: []Identity{testUser("user1")},
			Ignore:     []string{"user2", "user3"},
		},
		ObservedSet{Identities: []Identity{
			testUser("user1"), testUser("user2"), testUser("user3"),
		}},
	)

	if !diff.Empty() {
		t.Fatalf("expected empty diff, got %+v", diff)
	}
}

func TestComputeDiffIgnoredUserNeverDeleted(t *testing.T) {
	diff := ComputeDiff(
		DesiredSet{Ignore: []string{"user1"}},
		ObservedSet{Identities: []Identity{testUser("user1")}},
	)
	if len(diff.ToDelete) != 0 {
		t.Fatalf("ignored user in ToDelete: %+v", diff.ToDelete)
	}
}

func TestComputeDiffActionSetsAreDisjoint(t *testing.T) {
	changed := testUser("user2")
	changed.Key = "stale"

	diff := ComputeDiff(
		DesiredSet{Identities: []Identity{testUser("user1"), testUser("user2")}},
		ObservedSet{Identities: []Identity{changed, testUser("user3")}},
	)

	seen := make(map[string]string)
	for set, ids := range map[string][]Identity{
		"add": diff.ToAdd, "update": diff.ToUpdate, "delete": diff.ToDelete,
	} {
		for _, id := range ids {
			if prev, dup := seen[id.Name]; dup {
				t.Fatalf("%s appears in both %s and %s", id.Name, prev, set)
			}
			seen[id.Name] = set
		}
	}
}

func TestComputeDiffSudoerTotality(t *testing.T) {
	admin := testUser("user1")
	admin.Sudo = true

	diff := ComputeDiff(
		DesiredSet{Identities: []Identity{admin, testUser("user2")}},
		ObservedSet{
			Identities:  []Identity{admin, testUser("user2")},
			SudoerNames: []string{"user2", "stray"},
		},
	)

	// FinalSudoers is a total snapshot of the desired sudo names, independent
	// of the prior file content.
	if !reflect.DeepEqual(diff.FinalSudoers, []string{"user1"}) {
		t.Fatalf("FinalSudoers = %v, want [user1]", diff.FinalSudoers)
	}
	if !reflect.DeepEqual(diff.SudoersToAdd, []string{"user1"}) {
		t.Fatalf("SudoersToAdd = %v, want [user1]", diff.SudoersToAdd)
	}
	if !reflect.DeepEqual(diff.SudoersToDelete, []string{"stray", "user2"}) {
		t.Fatalf("SudoersToDelete = %v, want [stray user2]", diff.SudoersToDelete)
	}
}

func TestComputeDiffFinalIsDeclaredTarget(t *testing.T) {
	desired := DesiredSet{Identities: []Identity{testUser("user1"), testUser("user2")}}
	diff := ComputeDiff(desired, ObservedSet{})
	if !reflect.DeepEqual(diff.Final, desired.Identities) {
		t.Fatalf("Final = %+v, want the declared target unchanged", diff.Final)
	}
}

func TestComputeDiffSudoFlagChangeTriggersUpdate(t *testing.T) {
	observed := testUser("user1")
	desired := testUser("user1")
	desired.Sudo = true

	diff := ComputeDiff(
		DesiredSet{Identities: []Identity{desired}},
		ObservedSet{Identities: []Identity{observed}},
	)

	if len(diff.ToUpdate) != 1 || !diff.ToUpdate[0].Sudo {
		t.Fatalf("ToUpdate = %+v, want sudo update for user1", diff.ToUpdate)
	}
}
