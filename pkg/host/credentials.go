package host

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
)

// ReadCredential returns the base64 encoding of the authorized_keys file
// under home. Not-present and permission-denied both return the empty string:
// an unreadable credential is "no credential", never a hard error, so that a
// protected home directory classifies as outdated instead of failing the
// whole pass.
func ReadCredential(home string) string {
	b, err := os.ReadFile(filepath.Join(home, ".ssh", "authorized_keys"))
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(b)
}

// WriteCredential implements engine.HostOps. It decodes the base64 key
// material, creates the parent directory with restrictive permissions, writes
// the file and chowns both to the owning account.
func (h *Host) WriteCredential(ctx context.Context, path, key, owner string) error {
	blob, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return fmt.Errorf("failed to decode key material for %s: %w", owner, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	if err := os.WriteFile(path, blob, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	u, err := user.Lookup(owner)
	if err != nil {
		return fmt.Errorf("failed to look up account %s: %w", owner, err)
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return fmt.Errorf("invalid uid for %s: %w", owner, err)
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return fmt.Errorf("invalid gid for %s: %w", owner, err)
	}
	for _, p := range []string{dir, path} {
		if err := os.Chown(p, uid, gid); err != nil {
			return fmt.Errorf("failed to chown %s: %w", p, err)
		}
	}
	return nil
}
