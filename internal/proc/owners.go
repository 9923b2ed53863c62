// Package proc provides best-effort socket-to-process enrichment by
// scanning the /proc filesystem. Everything here degrades to empty
// results on error: processes exit mid-scan and fd directories of other
// users are unreadable without privileges, neither of which should
// disturb the connection snapshot itself.
package proc

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Owner identifies the process holding a socket.
type Owner struct {
	PID  int
	Name string
}

// Owners scans root (normally /proc) and maps socket inodes to their
// owning processes. Sockets whose owner cannot be determined are simply
// absent from the map.
func Owners(root string) map[uint64]Owner {
	owners := make(map[uint64]Owner)

	entries, err := os.ReadDir(root)
	if err != nil {
		return owners
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}

		fdDir := filepath.Join(root, entry.Name(), "fd")
		fds, err := os.ReadDir(fdDir)
		if err != nil {
			// Exited or not ours to inspect.
			continue
		}

		var name string
		for _, fd := range fds {
			target, err := os.Readlink(filepath.Join(fdDir, fd.Name()))
			if err != nil || !strings.HasPrefix(target, "socket:[") {
				continue
			}
			inode, err := strconv.ParseUint(strings.TrimSuffix(strings.TrimPrefix(target, "socket:["), "]"), 10, 64)
			if err != nil {
				continue
			}
			if name == "" {
				name = processName(root, entry.Name())
			}
			owners[inode] = Owner{PID: pid, Name: name}
		}
	}

	return owners
}

// processName reads /proc/[pid]/comm, falling back to the first word of
// cmdline for kernel threads that hide comm.
func processName(root, pid string) string {
	if data, err := os.ReadFile(filepath.Join(root, pid, "comm")); err == nil {
		if name := strings.TrimSpace(string(data)); name != "" {
			return name
		}
	}
	if data, err := os.ReadFile(filepath.Join(root, pid, "cmdline")); err == nil {
		cmdline, _, _ := strings.Cut(string(data), "\x00")
		return filepath.Base(strings.TrimSpace(cmdline))
	}
	return ""
}
