package conn

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const tableHeader = "  sl  local_address rem_address   st tx_queue rx_queue tr tm->when retrnsmt   uid  timeout inode"

// writeTable lays down a fixture socket table under a fake proc root.
func writeTable(t *testing.T, root string, transport Transport, content string) {
	t.Helper()
	dir := filepath.Join(root, "net")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, string(transport)), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestReadTableSkipsHeader(t *testing.T) {
	root := t.TempDir()
	writeTable(t, root, TCP, tableHeader+"\n"+listenLine+"\n")

	r := &ProcReader{Root: root}
	lines, err := r.ReadTable(TCP)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected 1 data line, got %d", len(lines))
	}
	if lines[0] != listenLine {
		t.Errorf("unexpected line: %q", lines[0])
	}
}

func TestReadTableHeaderOnly(t *testing.T) {
	root := t.TempDir()
	writeTable(t, root, TCP, tableHeader+"\n")

	r := &ProcReader{Root: root}
	lines, err := r.ReadTable(TCP)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("expected 0 data lines, got %d", len(lines))
	}
}

func TestReadTableMissing(t *testing.T) {
	r := &ProcReader{Root: t.TempDir()}
	lines, err := r.ReadTable(TCP6)
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("expected no lines, got %d", len(lines))
	}
}

func TestReadTablePermissionDenied(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root bypasses file permissions")
	}

	root := t.TempDir()
	writeTable(t, root, TCP, tableHeader+"\n")
	if err := os.Chmod(filepath.Join(root, "net", "tcp"), 0o000); err != nil {
		t.Fatal(err)
	}

	r := &ProcReader{Root: root}
	_, err := r.ReadTable(TCP)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestSnapshotOrderAndRecovery(t *testing.T) {
	root := t.TempDir()
	ipv6Line := "   0: 00000000000000000000000001000000:0050 00000000000000000000000000000000:0000 0A 00000000:00000000 00:00000000 00000000     0        0 31980"
	writeTable(t, root, TCP, tableHeader+"\n"+listenLine+"\n")
	writeTable(t, root, TCP6, tableHeader+"\n"+ipv6Line+"\n")

	s := &Scanner{Reader: &ProcReader{Root: root}, Decoder: &Decoder{}}
	conns, reported := s.Snapshot(TCP, TCP6)
	if len(reported) != 0 {
		t.Fatalf("unexpected conditions: %v", reported)
	}
	if len(conns) != 2 {
		t.Fatalf("expected 2 records, got %d", len(conns))
	}
	if conns[0].Transport != TCP || conns[1].Transport != TCP6 {
		t.Errorf("ipv4 records must precede ipv6: %s, %s", conns[0].Transport, conns[1].Transport)
	}
}

func TestSnapshotMissingTableDoesNotStopOthers(t *testing.T) {
	root := t.TempDir()
	writeTable(t, root, TCP, tableHeader+"\n"+listenLine+"\n")
	// No tcp6 table at all.

	s := &Scanner{Reader: &ProcReader{Root: root}, Decoder: &Decoder{}}
	conns, reported := s.Snapshot(TCP, TCP6)
	if len(conns) != 1 {
		t.Fatalf("expected 1 record from the surviving table, got %d", len(conns))
	}
	if len(reported) != 1 || !errors.Is(reported[0], ErrSourceUnavailable) {
		t.Fatalf("expected one ErrSourceUnavailable condition, got %v", reported)
	}
}
