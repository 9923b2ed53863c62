package conn

import (
	"encoding/hex"
	"fmt"
	"net/netip"
	"strconv"
	"strings"
)

// Column offsets in a /proc/net/tcp{,6} row after splitting on
// whitespace. Layout:
//
//	sl local_address rem_address st tx_queue:rx_queue tr:tm->when retrnsmt uid timeout inode ...
const (
	fieldLocal = 1
	fieldPeer  = 2
	fieldState = 3
	fieldUID   = 7
	fieldInode = 9

	// A row is decodable once it carries slot, both endpoints and the
	// state code. uid and inode are extracted only when present.
	minFields = 4
)

// DecodeLine decodes one raw table row into a Connection. Filters are
// not applied here; see Decoder.
func DecodeLine(t Transport, line string) (Connection, error) {
	fields := strings.Fields(line)
	if len(fields) < minFields {
		return Connection{}, fmt.Errorf("expected at least %d fields, got %d", minFields, len(fields))
	}

	localAddr, localPort, err := decodeEndpoint(t, fields[fieldLocal])
	if err != nil {
		return Connection{}, fmt.Errorf("local endpoint: %w", err)
	}

	peerAddr, peerPort, err := decodeEndpoint(t, fields[fieldPeer])
	if err != nil {
		return Connection{}, fmt.Errorf("peer endpoint: %w", err)
	}

	state, err := decodeState(fields[fieldState])
	if err != nil {
		return Connection{}, fmt.Errorf("state: %w", err)
	}

	c := Connection{
		Transport: t,
		State:     state,
		LocalAddr: localAddr.String(),
		LocalPort: localPort,
		PeerAddr:  peerAddr.String(),
		PeerPort:  peerPort,
	}

	// uid and inode are best-effort: kernel layouts vary, so a missing
	// or unparsable column leaves the field unset instead of rejecting
	// the row.
	if len(fields) > fieldUID {
		if uid, err := strconv.ParseUint(fields[fieldUID], 10, 32); err == nil {
			c.UID = uint32(uid)
			c.HasUID = true
		}
	}
	if len(fields) > fieldInode {
		if inode, err := strconv.ParseUint(fields[fieldInode], 10, 64); err == nil {
			c.Inode = inode
		}
	}

	return c, nil
}

// decodeEndpoint splits an ADDRHEX:PORTHEX field and decodes both halves.
func decodeEndpoint(t Transport, field string) (netip.Addr, uint16, error) {
	addrHex, portHex, ok := strings.Cut(field, ":")
	if !ok || strings.Contains(portHex, ":") {
		return netip.Addr{}, 0, fmt.Errorf("expected ADDR:PORT, got %q", field)
	}

	var addr netip.Addr
	var err error
	if t.IPv6() {
		addr, err = decodeIPv6(addrHex)
	} else {
		addr, err = decodeIPv4(addrHex)
	}
	if err != nil {
		return netip.Addr{}, 0, err
	}

	port, err := decodePort(portHex)
	if err != nil {
		return netip.Addr{}, 0, err
	}

	return addr, port, nil
}

// decodePort parses a 16-bit port from exactly 4 hex digits.
func decodePort(portHex string) (uint16, error) {
	if len(portHex) != 4 {
		return 0, fmt.Errorf("port %q: expected 4 hex digits", portHex)
	}
	port, err := strconv.ParseUint(portHex, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("port %q: %w", portHex, err)
	}
	return uint16(port), nil
}

// decodeIPv4 decodes the kernel's 8-hex-digit IPv4 encoding: a 32-bit
// little-endian word, so the printed octets are the hex byte pairs read
// back to front.
func decodeIPv4(addrHex string) (netip.Addr, error) {
	if len(addrHex) != 8 {
		return netip.Addr{}, fmt.Errorf("ipv4 address %q: expected 8 hex digits", addrHex)
	}
	b, err := hex.DecodeString(addrHex)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("ipv4 address %q: %w", addrHex, err)
	}
	return netip.AddrFrom4([4]byte{b[3], b[2], b[1], b[0]}), nil
}

// decodeIPv6 decodes the kernel's 32-hex-digit IPv6 encoding: four
// 32-bit little-endian words. Each 4-byte chunk is reversed in place,
// chunk order is preserved.
func decodeIPv6(addrHex string) (netip.Addr, error) {
	if len(addrHex) != 32 {
		return netip.Addr{}, fmt.Errorf("ipv6 address %q: expected 32 hex digits", addrHex)
	}
	b, err := hex.DecodeString(addrHex)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("ipv6 address %q: %w", addrHex, err)
	}

	var ip [16]byte
	for chunk := 0; chunk < 4; chunk++ {
		for i := 0; i < 4; i++ {
			ip[chunk*4+i] = b[chunk*4+3-i]
		}
	}
	return netip.AddrFrom16(ip), nil
}

// decodeState resolves the 2-hex-digit state code. Unrecognized codes
// are a valid record with StateUnknown; non-hex input is a format error.
func decodeState(stateHex string) (State, error) {
	if len(stateHex) != 2 {
		return "", fmt.Errorf("code %q: expected 2 hex digits", stateHex)
	}
	code, err := strconv.ParseUint(stateHex, 16, 8)
	if err != nil {
		return "", fmt.Errorf("code %q: %w", stateHex, err)
	}
	return StateFromCode(uint8(code)), nil
}

// Decoder turns raw table rows into Connection records, skipping
// malformed rows and applying its filter as the final stage.
type Decoder struct {
	Filter Filter

	// Report, when set, receives one *MalformedLineError per rejected
	// row. Rejections never abort the batch.
	Report func(error)
}

// DecodeAll decodes every row in order. Rows that fail to decode are
// reported and skipped; records that fail the filter are silently
// discarded.
func (d *Decoder) DecodeAll(t Transport, lines []string) []Connection {
	var conns []Connection
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		c, err := DecodeLine(t, line)
		if err != nil {
			if d.Report != nil {
				d.Report(&MalformedLineError{Transport: t, Line: line, Err: err})
			}
			continue
		}
		if !d.Filter.Match(c) {
			continue
		}
		conns = append(conns, c)
	}
	return conns
}
