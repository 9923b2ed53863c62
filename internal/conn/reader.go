package conn

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
)

// TableReader produces the raw data rows of one kernel socket table.
type TableReader interface {
	ReadTable(t Transport) ([]string, error)
}

// ProcReader reads socket tables from a procfs mount. Every call
// re-reads current kernel state; nothing is cached between ticks.
type ProcReader struct {
	// Root is the procfs mount point, normally /proc. Tests point it
	// at a fixture tree.
	Root string
}

// NewProcReader returns a reader over the standard /proc mount.
func NewProcReader() *ProcReader {
	return &ProcReader{Root: "/proc"}
}

// ReadTable returns the table's rows in kernel emission order with the
// fixed header row stripped. A missing table maps to
// ErrSourceUnavailable and an unreadable one to ErrPermissionDenied;
// both come back with an empty row set so the caller can report and
// carry on with the other transport.
func (r *ProcReader) ReadTable(t Transport) ([]string, error) {
	path := filepath.Join(r.Root, "net", string(t))

	f, err := os.Open(path)
	if err != nil {
		switch {
		case os.IsNotExist(err):
			return nil, fmt.Errorf("%w: %s", ErrSourceUnavailable, path)
		case os.IsPermission(err):
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		default:
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		// Header-only or empty table: zero rows, not an error.
		return nil, scanner.Err()
	}

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return lines, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, nil
}
