// Package conn decodes the kernel's TCP socket tables (/proc/net/tcp
// and /proc/net/tcp6) into structured connection records and applies
// state, address and port filters before the records reach any display
// layer.
package conn

import "fmt"

// Transport identifies which kernel socket table a record came from.
type Transport string

const (
	TCP  Transport = "tcp"
	TCP6 Transport = "tcp6"
)

// IPv6 reports whether the transport's table uses 128-bit addresses.
func (t Transport) IPv6() bool {
	return t == TCP6
}

// State is a TCP protocol state as named by the kernel.
type State string

const (
	StateEstablished State = "ESTABLISHED"
	StateSynSent     State = "SYN_SENT"
	StateSynRecv     State = "SYN_RECV"
	StateFinWait1    State = "FIN_WAIT1"
	StateFinWait2    State = "FIN_WAIT2"
	StateTimeWait    State = "TIME_WAIT"
	StateClose       State = "CLOSE"
	StateCloseWait   State = "CLOSE_WAIT"
	StateLastAck     State = "LAST_ACK"
	StateListen      State = "LISTEN"
	StateClosing     State = "CLOSING"
	StateUnknown     State = "UNKNOWN"
)

// stateNames maps the kernel's numeric state codes to their names.
var stateNames = map[uint8]State{
	0x01: StateEstablished,
	0x02: StateSynSent,
	0x03: StateSynRecv,
	0x04: StateFinWait1,
	0x05: StateFinWait2,
	0x06: StateTimeWait,
	0x07: StateClose,
	0x08: StateCloseWait,
	0x09: StateLastAck,
	0x0A: StateListen,
	0x0B: StateClosing,
}

// StateFromCode resolves a kernel state code to its name. Codes outside
// the table resolve to StateUnknown rather than failing.
func StateFromCode(code uint8) State {
	if s, ok := stateNames[code]; ok {
		return s
	}
	return StateUnknown
}

// ValidStateName reports whether name is a recognized state name,
// including UNKNOWN. Used to validate filter input before a scan.
func ValidStateName(name string) bool {
	if State(name) == StateUnknown {
		return true
	}
	for _, s := range stateNames {
		if State(name) == s {
			return true
		}
	}
	return false
}

// Connection is one decoded row of a kernel socket table. It is built
// fresh from each snapshot and never mutated afterwards.
type Connection struct {
	Transport Transport
	State     State
	LocalAddr string
	LocalPort uint16
	PeerAddr  string
	PeerPort  uint16

	// UID is the socket owner, valid only when HasUID is set. The uid
	// column is best-effort: older or trimmed table layouts may not
	// carry it.
	UID    uint32
	HasUID bool

	// Inode links the socket to /proc/[pid]/fd entries for process
	// enrichment. Zero when the column is absent.
	Inode uint64

	// Process is filled in by enrichment, may be empty.
	Process string
}

// Local returns the local endpoint as addr:port.
func (c Connection) Local() string {
	return fmt.Sprintf("%s:%d", c.LocalAddr, c.LocalPort)
}

// Peer returns the peer endpoint as addr:port.
func (c Connection) Peer() string {
	return fmt.Sprintf("%s:%d", c.PeerAddr, c.PeerPort)
}

// String returns a human-readable representation of the connection.
func (c Connection) String() string {
	return fmt.Sprintf("%s %s %s -> %s", c.Transport, c.State, c.Local(), c.Peer())
}
