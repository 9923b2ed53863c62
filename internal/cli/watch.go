package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/AScotM/tcpwatch/internal/config"
	"github.com/AScotM/tcpwatch/internal/conn"
	"github.com/AScotM/tcpwatch/internal/display"
)

var (
	watchInterval int
	watchAlert    bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Redraw the connection table periodically",
	Long: `Continuously decode the kernel socket tables and redraw the result.

With --alert, takes a baseline of the current connections and exits with
code 1 as soon as a connection outside the baseline appears. Nothing is
written to disk; the baseline lives only for the run.`,
}

func init() {
	watchCmd.RunE = runWatch
	watchCmd.Flags().IntVar(&watchInterval, "interval", 2, "Refresh interval in seconds")
	watchCmd.Flags().BoolVar(&watchAlert, "alert", false, "Alert and exit on new connections")
	addFilterFlags(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	filter, err := buildFilter(cmd, cfg)
	if err != nil {
		return err
	}
	if !validSortKey(sortBy) {
		return fmt.Errorf("unknown sort key %q", sortBy)
	}

	if watchAlert {
		return runWatchAlert(cfg, filter)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	ticker := time.NewTicker(refreshInterval(cfg))
	defer ticker.Stop()

	// Initial tick before the first interval elapses.
	if err := watchOnce(cfg, filter); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nStopped watching.")
			return nil
		case <-ticker.C:
			if err := watchOnce(cfg, filter); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
		}
	}
}

func watchOnce(cfg *config.Config, filter conn.Filter) error {
	owners := cfg.ShowOwner && !noOwner
	conns := snapshot(filter, transports(cfg), owners)
	sortConnections(conns, sortBy)

	// Clear screen.
	fmt.Print("\033[2J\033[H")

	byState := make(map[conn.State]int)
	for _, c := range conns {
		byState[c.State]++
	}
	fmt.Printf("tcpwatch | Total: %d  EST: %d  LISTEN: %d  TIME_WAIT: %d | %s | Ctrl+C to stop\n\n",
		len(conns),
		byState[conn.StateEstablished],
		byState[conn.StateListen],
		byState[conn.StateTimeWait],
		time.Now().Format("15:04:05"))

	if len(conns) == 0 {
		fmt.Println("No connections matching filter.")
		return nil
	}

	return display.Table(os.Stdout, conns, display.Options{
		NoColor:   noColor || cfg.NoColor,
		ShowOwner: owners,
	})
}

func runWatchAlert(cfg *config.Config, filter conn.Filter) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	tables := transports(cfg)

	// Baseline scan. Owner enrichment is deferred until something new
	// shows up.
	baseline := makeConnKeySet(snapshot(filter, tables, false))

	if !jsonOutput {
		fmt.Printf("Monitoring %d connection(s) for newcomers... (interval: %s)\n",
			len(baseline), refreshInterval(cfg))
	}

	ticker := time.NewTicker(refreshInterval(cfg))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if !jsonOutput {
				fmt.Println("\nStopped watching.")
			}
			return nil
		case <-ticker.C:
			current := snapshot(filter, tables, false)
			newConns := findNewConnections(current, baseline)
			if len(newConns) == 0 {
				continue
			}

			if cfg.ShowOwner && !noOwner {
				enrich(newConns)
			}
			if jsonOutput {
				if err := display.JSON(os.Stdout, newConns); err != nil {
					return err
				}
			} else {
				fmt.Printf("\nALERT: %d new connection(s) detected!\n\n", len(newConns))
				if err := display.Table(os.Stdout, newConns, display.Options{
					NoColor:   noColor || cfg.NoColor,
					ShowOwner: cfg.ShowOwner && !noOwner,
				}); err != nil {
					return err
				}
			}
			return &alertExitError{count: len(newConns)}
		}
	}
}

// connKey identifies a connection across ticks for alerting purposes
// only; the decode pipeline itself has no cross-tick identity.
func connKey(c conn.Connection) string {
	return fmt.Sprintf("%s|%s|%s", c.Transport, c.Local(), c.Peer())
}

func makeConnKeySet(conns []conn.Connection) map[string]struct{} {
	keys := make(map[string]struct{}, len(conns))
	for _, c := range conns {
		keys[connKey(c)] = struct{}{}
	}
	return keys
}

func findNewConnections(current []conn.Connection, baseline map[string]struct{}) []conn.Connection {
	var fresh []conn.Connection
	for _, c := range current {
		if _, exists := baseline[connKey(c)]; !exists {
			fresh = append(fresh, c)
		}
	}
	return fresh
}

// alertExitError is returned when --alert detects new connections.
// The CLI should exit with code 1.
type alertExitError struct {
	count int
}

func (e *alertExitError) Error() string {
	return fmt.Sprintf("alert: %d new connection(s) detected", e.count)
}
