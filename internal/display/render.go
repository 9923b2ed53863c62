// Package display renders connection snapshots for the console. It is a
// thin consumer of the decode pipeline: records in, text or JSON out.
package display

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/AScotM/tcpwatch/internal/conn"
	"github.com/AScotM/tcpwatch/internal/proc"
)

// Options controls table rendering.
type Options struct {
	NoColor   bool
	ShowOwner bool // include USER and PROCESS columns
}

// Table writes the records as an aligned text table.
func Table(w io.Writer, conns []conn.Connection, opts Options) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	if opts.ShowOwner {
		fmt.Fprintln(tw, "NETID\tSTATE\tLOCAL\tPEER\tUSER\tPROCESS")
	} else {
		fmt.Fprintln(tw, "NETID\tSTATE\tLOCAL\tPEER")
	}

	for _, c := range conns {
		state := string(c.State)
		if !opts.NoColor {
			state = StateStyle(c.State).Render(state)
		}

		if opts.ShowOwner {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				c.Transport, state, c.Local(), c.Peer(), ownerUser(c), c.Process)
		} else {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
				c.Transport, state, c.Local(), c.Peer())
		}
	}
	return tw.Flush()
}

// ownerUser renders the uid column, empty when the table row did not
// carry one.
func ownerUser(c conn.Connection) string {
	if !c.HasUID {
		return ""
	}
	return proc.Username(c.UID)
}

// JSON writes the records as an indented JSON array.
func JSON(w io.Writer, conns []conn.Connection) error {
	type jsonConn struct {
		Transport string  `json:"transport"`
		State     string  `json:"state"`
		LocalAddr string  `json:"local_address"`
		LocalPort uint16  `json:"local_port"`
		PeerAddr  string  `json:"peer_address"`
		PeerPort  uint16  `json:"peer_port"`
		OwnerUID  *uint32 `json:"owner_uid,omitempty"`
		Process   string  `json:"process,omitempty"`
	}

	out := make([]jsonConn, len(conns))
	for i, c := range conns {
		out[i] = jsonConn{
			Transport: string(c.Transport),
			State:     string(c.State),
			LocalAddr: c.LocalAddr,
			LocalPort: c.LocalPort,
			PeerAddr:  c.PeerAddr,
			PeerPort:  c.PeerPort,
			Process:   c.Process,
		}
		if c.HasUID {
			uid := c.UID
			out[i].OwnerUID = &uid
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
