package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	serverAddr string
	portCode   string
	verbose    bool
)

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "quayplan",
		Short: "QuayPlan CLI - berth planning for the quayplan daemon",
		Long: `QuayPlan CLI talks to the quayplan daemon over its HTTP API.

Examples:
  quayplan vessel add --name "MSC Anna" --type CONTAINER --loa 366 --beam 51 --draft 15.2
  quayplan suggest --vessel 3 --eta 2026-09-01T06:00:00Z --dwell 24
  quayplan schedule allocate --vessel 3 --berth 7 --eta 2026-09-01T06:00:00Z --etd 2026-09-02T06:00:00Z
  quayplan schedule berthing 12
  quayplan dashboard
  quayplan conflicts list`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", getDefaultServer(),
		"Daemon HTTP address")
	rootCmd.PersistentFlags().StringVar(&portCode, "port-code", "",
		"Port code (defaults to the daemon's configured port)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output")

	rootCmd.AddCommand(NewVesselCommand())
	rootCmd.AddCommand(NewBerthCommand())
	rootCmd.AddCommand(NewScheduleCommand())
	rootCmd.AddCommand(NewSuggestCommand())
	rootCmd.AddCommand(NewDashboardCommand())
	rootCmd.AddCommand(NewConflictsCommand())
	rootCmd.AddCommand(NewHealthCommand())

	return rootCmd
}

// getDefaultServer returns the default daemon address
func getDefaultServer() string {
	if addr := os.Getenv("QUAYPLAN_SERVER"); addr != "" {
		return addr
	}
	return "http://localhost:8080"
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
