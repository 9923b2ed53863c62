package proc

import (
	"os"
	"path/filepath"
	"testing"
)

// fakeProc builds a minimal /proc tree with one process holding sockets.
func fakeProc(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	fdDir := filepath.Join(root, "1234", "fd")
	if err := os.MkdirAll(fdDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "1234", "comm"), []byte("nginx\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Socket fds are symlinks to socket:[inode]; the targets dangle,
	// which matches real /proc behavior for Readlink.
	if err := os.Symlink("socket:[999]", filepath.Join(fdDir, "3")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("socket:[1001]", filepath.Join(fdDir, "4")); err != nil {
		t.Fatal(err)
	}
	// Non-socket fd, ignored.
	if err := os.Symlink("/dev/null", filepath.Join(fdDir, "0")); err != nil {
		t.Fatal(err)
	}

	// Non-pid directory, ignored.
	if err := os.MkdirAll(filepath.Join(root, "net"), 0o755); err != nil {
		t.Fatal(err)
	}

	return root
}

func TestOwners(t *testing.T) {
	owners := Owners(fakeProc(t))

	if len(owners) != 2 {
		t.Fatalf("expected 2 socket owners, got %d", len(owners))
	}
	for _, inode := range []uint64{999, 1001} {
		o, ok := owners[inode]
		if !ok {
			t.Fatalf("inode %d missing", inode)
		}
		if o.PID != 1234 || o.Name != "nginx" {
			t.Errorf("inode %d: got %+v, want {1234 nginx}", inode, o)
		}
	}
}

func TestOwnersMissingRoot(t *testing.T) {
	owners := Owners(filepath.Join(t.TempDir(), "missing"))
	if len(owners) != 0 {
		t.Errorf("expected empty map, got %d entries", len(owners))
	}
}

func TestUsernameFallback(t *testing.T) {
	// A uid with no passwd entry resolves to its numeric form.
	if got := Username(4294967294); got != "4294967294" {
		t.Errorf("Username(4294967294) = %q", got)
	}
	// Cached second lookup returns the same answer.
	if got := Username(4294967294); got != "4294967294" {
		t.Errorf("cached Username = %q", got)
	}
}
