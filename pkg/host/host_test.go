package host

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

type fakeRunner struct {
	commands [][]string
}

func (f *fakeRunner) Run(_ context.Context, argv ...string) (string, string, error) {
	f.commands = append(f.commands, argv)
	return "", "", nil
}

func newTestHost(t *testing.T) (*Host, *fakeRunner, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := Config{
		UIDMin:      1000,
		UIDMax:      2000,
		SudoersPath: filepath.Join(dir, "sudoers"),
		PasswdPath:  filepath.Join(dir, "passwd"),
	}
	runner := &fakeRunner{}
	return New(cfg, runner, zerolog.Nop()), runner, dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSudoerNamesMissingFileIsEmptySet(t *testing.T) {
	h, _, _ := newTestHost(t)
	names, err := h.SudoerNames()
	if err != nil {
		t.Fatalf("SudoerNames failed: %v", err)
	}
	if names != nil {
		t.Fatalf("names = %v, want nil", names)
	}
}

func TestSudoerNamesParsesFirstToken(t *testing.T) {
	h, _, _ := newTestHost(t)
	writeFile(t, h.cfg.SudoersPath,
		"user1 ALL=(ALL:ALL) NOPASSWD:ALL\n\nuser2 ALL=(ALL:ALL) NOPASSWD:ALL\n")

	names, err := h.SudoerNames()
	if err != nil {
		t.Fatalf("SudoerNames failed: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"user1", "user2"}) {
		t.Fatalf("names = %v, want [user1 user2]", names)
	}
}

func TestWriteSudoerFileRewritesWholesale(t *testing.T) {
	h, _, _ := newTestHost(t)
	writeFile(t, h.cfg.SudoersPath, "stale ALL=(ALL:ALL) NOPASSWD:ALL\n")

	if err := h.WriteSudoerFile(context.Background(), []string{"user1", "user2"}); err != nil {
		t.Fatalf("WriteSudoerFile failed: %v", err)
	}

	data, err := os.ReadFile(h.cfg.SudoersPath)
	if err != nil {
		t.Fatal(err)
	}
	want := "user1 ALL=(ALL:ALL) NOPASSWD:ALL\nuser2 ALL=(ALL:ALL) NOPASSWD:ALL\n"
	if string(data) != want {
		t.Fatalf("sudoer file = %q, want %q", data, want)
	}
	if strings.Contains(string(data), "stale") {
		t.Fatal("prior content survived the rewrite")
	}
}

func TestDeleteSudoerFileToleratesAbsence(t *testing.T) {
	h, _, _ := newTestHost(t)
	if err := h.DeleteSudoerFile(context.Background()); err != nil {
		t.Fatalf("DeleteSudoerFile on absent file failed: %v", err)
	}

	writeFile(t, h.cfg.SudoersPath, "user1 ALL=(ALL:ALL) NOPASSWD:ALL\n")
	if err := h.DeleteSudoerFile(context.Background()); err != nil {
		t.Fatalf("DeleteSudoerFile failed: %v", err)
	}
	if _, err := os.Stat(h.cfg.SudoersPath); !os.IsNotExist(err) {
		t.Fatal("sudoer file still present after delete")
	}
}

func TestObservedFiltersByUIDRange(t *testing.T) {
	h, _, dir := newTestHost(t)

	home1 := filepath.Join(dir, "home1")
	home2 := filepath.Join(dir, "home2")
	writeFile(t, h.cfg.PasswdPath, strings.Join([]string{
		"root:x:0:0:root:/root:/bin/bash",
		"daemon:x:1:1:daemon:/usr/sbin:/usr/sbin/nologin",
		"user1:x:1000:1000::" + home1 + ":/bin/bash",
		"user2:x:1500:1500::" + home2 + ":/bin/bash",
		"svc:x:3000:3000::/srv/svc:/bin/false",
		"broken:line",
		"",
	}, "\n"))
	writeFile(t, h.cfg.SudoersPath, "user2 ALL=(ALL:ALL) NOPASSWD:ALL\n")

	if err := os.MkdirAll(filepath.Join(home1, ".ssh"), 0o700); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(home1, ".ssh", "authorized_keys"), "ssh-ed25519 AAAA user1")

	obs, err := h.Observed(context.Background())
	if err != nil {
		t.Fatalf("Observed failed: %v", err)
	}

	if len(obs.Identities) != 2 {
		t.Fatalf("identities = %+v, want user1 and user2 only", obs.Identities)
	}
	u1, u2 := obs.Identities[0], obs.Identities[1]
	if u1.Name != "user1" || u2.Name != "user2" {
		t.Fatalf("identities = %+v, want user1 and user2", obs.Identities)
	}
	if u1.Home != home1 {
		t.Fatalf("user1 home = %q, want %q", u1.Home, home1)
	}

	wantKey := base64.StdEncoding.EncodeToString([]byte("ssh-ed25519 AAAA user1"))
	if u1.Key != wantKey {
		t.Fatalf("user1 key = %q, want base64 of the credential file", u1.Key)
	}
	if u2.Key != "" {
		t.Fatalf("user2 key = %q, want empty for missing credential", u2.Key)
	}

	if u1.Sudo || !u2.Sudo {
		t.Fatalf("sudo flags = %t/%t, want user2 only", u1.Sudo, u2.Sudo)
	}
	if !reflect.DeepEqual(obs.SudoerNames, []string{"user2"}) {
		t.Fatalf("SudoerNames = %v, want [user2]", obs.SudoerNames)
	}
}

func TestReadCredentialUnreadableIsEmpty(t *testing.T) {
	home := t.TempDir()
	// A regular file where the .ssh directory should be makes the read fail
	// regardless of the uid the tests run under.
	writeFile(t, filepath.Join(home, ".ssh"), "not a directory")

	if key := ReadCredential(home); key != "" {
		t.Fatalf("key = %q, want empty for unreadable credential", key)
	}
}

func TestReadCredentialAbsentIsEmpty(t *testing.T) {
	if key := ReadCredential(t.TempDir()); key != "" {
		t.Fatalf("key = %q, want empty for absent credential", key)
	}
}

func TestCreateAccountArgv(t *testing.T) {
	h, runner, _ := newTestHost(t)

	if err := h.CreateAccount(context.Background(), "user1", false); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	if err := h.CreateAccount(context.Background(), "user2", true); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	want := [][]string{
		{"/usr/sbin/useradd", "-m", "-U", "user1"},
		{"/usr/sbin/useradd", "-m", "-U", "-G", "sudo", "user2"},
	}
	if !reflect.DeepEqual(runner.commands, want) {
		t.Fatalf("commands = %v, want %v", runner.commands, want)
	}
}

func TestDeleteAccountRemovesHome(t *testing.T) {
	h, runner, _ := newTestHost(t)

	if err := h.DeleteAccount(context.Background(), "user1"); err != nil {
		t.Fatalf("DeleteAccount failed: %v", err)
	}
	want := [][]string{{"/usr/sbin/userdel", "-r", "user1"}}
	if !reflect.DeepEqual(runner.commands, want) {
		t.Fatalf("commands = %v, want %v", runner.commands, want)
	}
}
