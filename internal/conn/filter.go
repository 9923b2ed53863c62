package conn

// Filter selects connections by state, address and port. A zero Filter
// matches everything. Axes are independent; applying them in any order
// yields the same result set.
type Filter struct {
	// State matches the resolved state name exactly. Empty disables.
	State State

	// Addr matches either endpoint address by exact string equality.
	// Empty disables.
	Addr string

	// Port matches either endpoint port when HasPort is set. Port 0 is
	// a real (wildcard endpoint) value and stays filterable, so the
	// axis needs an explicit enable.
	Port    uint16
	HasPort bool
}

// Active reports whether any filter axis is set.
func (f Filter) Active() bool {
	return f.State != "" || f.Addr != "" || f.HasPort
}

// Match reports whether the connection passes every active axis,
// short-circuiting on the first failing one.
func (f Filter) Match(c Connection) bool {
	if f.State != "" && c.State != f.State {
		return false
	}
	if f.Addr != "" && c.LocalAddr != f.Addr && c.PeerAddr != f.Addr {
		return false
	}
	if f.HasPort && c.LocalPort != f.Port && c.PeerPort != f.Port {
		return false
	}
	return true
}
