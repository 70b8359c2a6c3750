package host

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// SudoerNames parses the sudoer file and returns the first whitespace
// delimited token of every non-empty line. A missing file is an empty set.
func (h *Host) SudoerNames() ([]string, error) {
	data, err := os.ReadFile(h.cfg.SudoersPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", h.cfg.SudoersPath, err)
	}

	var names []string
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		names = append(names, fields[0])
	}
	return names, nil
}

// WriteSudoerFile implements engine.HostOps. The file is rewritten wholesale,
// one passwordless rule per name, replacing any prior content.
func (h *Host) WriteSudoerFile(ctx context.Context, names []string) error {
	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "%s ALL=(ALL:ALL) NOPASSWD:ALL\n", name)
	}
	if err := os.WriteFile(h.cfg.SudoersPath, []byte(b.String()), 0o440); err != nil {
		return fmt.Errorf("failed to write %s: %w", h.cfg.SudoersPath, err)
	}
	return nil
}

// DeleteSudoerFile implements engine.HostOps. Removing an already-absent file
// is not an error; the next pass would converge to the same state anyway.
func (h *Host) DeleteSudoerFile(ctx context.Context) error {
	err := os.Remove(h.cfg.SudoersPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", h.cfg.SudoersPath, err)
	}
	return nil
}
