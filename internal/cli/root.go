package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/AScotM/tcpwatch/internal/config"
	"github.com/AScotM/tcpwatch/internal/tui"
)

var (
	// Set via ldflags at build time.
	version = "dev"

	// Global flags.
	jsonOutput bool
	configPath string
	noColor    bool
)

var rootCmd = &cobra.Command{
	Use:   "tcpwatch",
	Short: "Live viewer for the kernel TCP socket tables",
	Long: `tcpwatch decodes /proc/net/tcp and /proc/net/tcp6 into readable
connection records and keeps them on screen with state, address and
port filters. Launch without subcommands for interactive TUI mode.`,
	Version: version,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		filter, err := buildFilter(cmd, cfg)
		if err != nil {
			return err
		}

		p := tea.NewProgram(tui.New(tui.Settings{
			Version:    version,
			Transports: transports(cfg),
			Filter:     filter,
			Interval:   refreshInterval(cfg),
			ShowOwner:  cfg.ShowOwner,
		}), tea.WithAltScreen())
		_, err = p.Run()
		return err
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("tcpwatch %s\n", version))
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	addFilterFlags(rootCmd)

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(watchCmd)
}
