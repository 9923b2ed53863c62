package conn

import (
	"errors"
	"fmt"
)

// Sentinel errors for the two non-fatal table read failures. Both mean
// "no data this tick", not "stop watching".
var (
	// ErrSourceUnavailable means the kernel table for a transport does
	// not exist, e.g. a kernel built without IPv6.
	ErrSourceUnavailable = errors.New("socket table unavailable")

	// ErrPermissionDenied means the caller may not read the table.
	ErrPermissionDenied = errors.New("socket table permission denied")
)

// MalformedLineError reports a single table row that failed to decode.
// The rest of the table is unaffected.
type MalformedLineError struct {
	Transport Transport
	Line      string
	Err       error
}

func (e *MalformedLineError) Error() string {
	return fmt.Sprintf("malformed %s line %q: %v", e.Transport, e.Line, e.Err)
}

func (e *MalformedLineError) Unwrap() error {
	return e.Err
}
