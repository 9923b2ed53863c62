package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AScotM/tcpwatch/internal/config"
	"github.com/AScotM/tcpwatch/internal/display"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show current TCP connections once",
	Long:  "Decode the kernel socket tables once and print the connection records.",
	RunE:  runList,
}

func init() {
	addFilterFlags(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
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

	owners := cfg.ShowOwner && !noOwner
	conns := snapshot(filter, transports(cfg), owners)
	sortConnections(conns, sortBy)

	if jsonOutput {
		return display.JSON(os.Stdout, conns)
	}
	return display.Table(os.Stdout, conns, display.Options{
		NoColor:   noColor || cfg.NoColor,
		ShowOwner: owners,
	})
}
