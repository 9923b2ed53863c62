package cli

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/AScotM/tcpwatch/internal/config"
	"github.com/AScotM/tcpwatch/internal/conn"
	"github.com/AScotM/tcpwatch/internal/proc"
)

// Filter and view flags shared by list, watch and the TUI root.
var (
	filterState string
	filterAddr  string
	filterPort  int
	sortBy      string
	ipv4Only    bool
	ipv6Only    bool
	noOwner     bool
)

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&filterState, "state", "", "Filter by state name (e.g. LISTEN, ESTABLISHED)")
	cmd.Flags().StringVar(&filterAddr, "addr", "", "Filter by local or peer address (exact match)")
	cmd.Flags().IntVar(&filterPort, "port", -1, "Filter by local or peer port")
	cmd.Flags().BoolVarP(&ipv4Only, "ipv4", "4", false, "Sample only the IPv4 table")
	cmd.Flags().BoolVarP(&ipv6Only, "ipv6", "6", false, "Sample only the IPv6 table")
	cmd.Flags().StringVar(&sortBy, "sort", "", "Sort by: state, local, peer, port (default kernel order)")
	cmd.Flags().BoolVar(&noOwner, "no-owner", false, "Skip uid and process resolution")
}

// buildFilter combines config defaults with command-line overrides.
func buildFilter(cmd *cobra.Command, cfg *config.Config) (conn.Filter, error) {
	f := conn.Filter{
		State: conn.State(cfg.FilterState),
		Addr:  cfg.FilterAddress,
	}
	if cfg.FilterPort >= 0 {
		f.Port = uint16(cfg.FilterPort)
		f.HasPort = true
	}

	if cmd.Flags().Changed("state") {
		f.State = conn.State(filterState)
	}
	if cmd.Flags().Changed("addr") {
		f.Addr = filterAddr
	}
	if cmd.Flags().Changed("port") {
		if filterPort < 0 || filterPort > 65535 {
			return conn.Filter{}, fmt.Errorf("port filter %d out of range 0-65535", filterPort)
		}
		f.Port = uint16(filterPort)
		f.HasPort = true
	}

	if f.State != "" && !conn.ValidStateName(string(f.State)) {
		return conn.Filter{}, fmt.Errorf("unknown state filter %q", f.State)
	}

	return f, nil
}

// transports returns the tables to sample, IPv4 first.
func transports(cfg *config.Config) []conn.Transport {
	switch {
	case ipv4Only && !ipv6Only:
		return []conn.Transport{conn.TCP}
	case ipv6Only && !ipv4Only:
		return []conn.Transport{conn.TCP6}
	}
	switch cfg.Families {
	case "4":
		return []conn.Transport{conn.TCP}
	case "6":
		return []conn.Transport{conn.TCP6}
	default:
		return []conn.Transport{conn.TCP, conn.TCP6}
	}
}

func refreshInterval(cfg *config.Config) time.Duration {
	seconds := cfg.RefreshInterval
	if watchCmd.Flags().Changed("interval") {
		seconds = watchInterval
	}
	if seconds < 1 {
		seconds = 1
	}
	return time.Duration(seconds) * time.Second
}

// snapshot runs one tick of the pipeline: read both tables, decode,
// filter, then optionally enrich with owning processes. Reported
// conditions go to stderr and never fail the tick.
func snapshot(filter conn.Filter, tables []conn.Transport, owners bool) []conn.Connection {
	scanner := conn.NewScanner(filter, func(err error) {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	})

	conns, reported := scanner.Snapshot(tables...)
	for _, err := range reported {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	if owners {
		enrich(conns)
	}
	return conns
}

// enrich fills in process names via the socket inode map.
func enrich(conns []conn.Connection) {
	owners := proc.Owners("/proc")
	if len(owners) == 0 {
		return
	}
	for i := range conns {
		if o, ok := owners[conns[i].Inode]; ok && conns[i].Inode != 0 {
			conns[i].Process = fmt.Sprintf("%s(%d)", o.Name, o.PID)
		}
	}
}

// sortConnections orders records for display. An empty key keeps kernel
// emission order.
func sortConnections(conns []conn.Connection, key string) {
	switch key {
	case "state":
		sort.SliceStable(conns, func(i, j int) bool { return conns[i].State < conns[j].State })
	case "local":
		sort.SliceStable(conns, func(i, j int) bool { return conns[i].Local() < conns[j].Local() })
	case "peer":
		sort.SliceStable(conns, func(i, j int) bool { return conns[i].Peer() < conns[j].Peer() })
	case "port":
		sort.SliceStable(conns, func(i, j int) bool {
			if conns[i].LocalPort != conns[j].LocalPort {
				return conns[i].LocalPort < conns[j].LocalPort
			}
			return conns[i].PeerPort < conns[j].PeerPort
		})
	}
}

func validSortKey(key string) bool {
	switch key {
	case "", "state", "local", "peer", "port":
		return true
	}
	return false
}
