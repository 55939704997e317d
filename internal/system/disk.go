// Package system answers questions about the machine an install runs on.
package system

import (
	"fmt"
	"syscall"

	"github.com/dustin/go-humanize"
)

// FreeSpace returns the bytes available to unprivileged users on the
// volume holding path.
func FreeSpace(path string) (uint64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, fmt.Errorf("disk space for %s: %w", path, err)
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}

// InsufficientSpaceError reports a volume too small for an install.
type InsufficientSpaceError struct {
	Path      string
	Required  uint64
	Available uint64
}

func (e *InsufficientSpaceError) Error() string {
	return fmt.Sprintf("not enough disk space in %s: need %s, %s free",
		e.Path, humanize.Bytes(e.Required), humanize.Bytes(e.Available))
}

// EnsureFreeSpace fails when the volume holding path has less than
// required bytes plus a 10% margin for filesystem overhead.
func EnsureFreeSpace(path string, required uint64) error {
	if required == 0 {
		return nil
	}
	available, err := FreeSpace(path)
	if err != nil {
		return err
	}
	need := required + required/10
	if available < need {
		return &InsufficientSpaceError{Path: path, Required: need, Available: available}
	}
	return nil
}
