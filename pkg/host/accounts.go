package host

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/provisd/provisd/pkg/engine"
)

// Config controls how the host is read and mutated.
type Config struct {
	// UIDMin and UIDMax bound the UID range of accounts considered
	// manageable. Accounts outside the range are invisible to the engine.
	UIDMin int
	UIDMax int

	// SudoersPath is the sudoer file owned by provisd.
	SudoersPath string

	// PasswdPath is the account database file. Overridable for tests.
	PasswdPath string
}

// DefaultConfig returns the production host configuration.
func DefaultConfig() Config {
	return Config{
		UIDMin:      1000,
		UIDMax:      2000,
		SudoersPath: "/etc/sudoers.d/provisd",
		PasswdPath:  "/etc/passwd",
	}
}

// Host reads and mutates the local account database, credential files and the
// sudoer file. It implements engine.Observer and engine.HostOps.
type Host struct {
	cfg    Config
	runner Runner
	log    zerolog.Logger
}

// New creates a host over the given runner.
func New(cfg Config, runner Runner, log zerolog.Logger) *Host {
	return &Host{cfg: cfg, runner: runner, log: log.With().Str("component", "host").Logger()}
}

// Observed reads the live host state once: every manageable account with its
// credential and sudoer membership, plus the raw sudoer-file names. Callers
// thread the returned value explicitly through the reconciliation pass.
func (h *Host) Observed(ctx context.Context) (engine.ObservedSet, error) {
	sudoers, err := h.SudoerNames()
	if err != nil {
		return engine.ObservedSet{}, err
	}
	inSudoers := make(map[string]bool, len(sudoers))
	for _, name := range sudoers {
		inSudoers[name] = true
	}

	ids, err := h.listAccounts()
	if err != nil {
		return engine.ObservedSet{}, err
	}
	for i := range ids {
		ids[i].Key = ReadCredential(ids[i].Home)
		ids[i].Sudo = inSudoers[ids[i].Name]
	}

	return engine.ObservedSet{Identities: ids, SudoerNames: sudoers}, nil
}

// listAccounts parses the passwd database and returns the entries in the
// manageable UID range as identities with name and home populated.
func (h *Host) listAccounts() ([]engine.Identity, error) {
	data, err := os.ReadFile(h.cfg.PasswdPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", h.cfg.PasswdPath, err)
	}

	var ids []engine.Identity
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// name:passwd:uid:gid:gecos:home:shell
		fields := strings.Split(line, ":")
		if len(fields) < 7 {
			continue
		}
		uid, err := strconv.Atoi(fields[2])
		if err != nil {
			continue
		}
		if uid < h.cfg.UIDMin || uid > h.cfg.UIDMax {
			continue
		}
		ids = append(ids, engine.Identity{Name: fields[0], Home: fields[5]})
	}
	return ids, nil
}

// CreateAccount implements engine.HostOps. The account gets a home directory
// and a matching primary group; admin adds it to the sudo group.
func (h *Host) CreateAccount(ctx context.Context, name string, admin bool) error {
	argv := []string{"/usr/sbin/useradd", "-m", "-U"}
	if admin {
		argv = append(argv, "-G", "sudo")
	}
	argv = append(argv, name)
	_, _, err := h.runner.Run(ctx, argv...)
	return err
}

// DeleteAccount implements engine.HostOps. The home tree is removed together
// with the account.
func (h *Host) DeleteAccount(ctx context.Context, name string) error {
	_, _, err := h.runner.Run(ctx, "/usr/sbin/userdel", "-r", name)
	return err
}
