package cli

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

// NewBerthCommand creates the berth command group
func NewBerthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "berth",
		Short: "Manage berths and their maintenance",
	}
	cmd.AddCommand(newBerthListCommand())
	cmd.AddCommand(newBerthStatusCommand())
	cmd.AddCommand(newBerthMaintenanceCommand())
	return cmd
}

func newBerthListCommand() *cobra.Command {
	var terminalID int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List berths",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if terminalID > 0 {
				q.Set("terminalId", strconv.Itoa(terminalID))
			}
			ctx, cancel := commandContext()
			defer cancel()
			var out []map[string]interface{}
			if err := NewDaemonClient(serverAddr).Get(ctx, "/berths", q, &out); err != nil {
				return err
			}
			printJSON(out)
			return nil
		},
	}
	cmd.Flags().IntVar(&terminalID, "terminal", 0, "Filter by terminal ID")
	return cmd
}

func newBerthStatusCommand() *cobra.Command {
	var terminalID int
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the live berth board",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if terminalID > 0 {
				q.Set("terminalId", strconv.Itoa(terminalID))
			}
			ctx, cancel := commandContext()
			defer cancel()
			var out map[string]interface{}
			if err := NewDaemonClient(serverAddr).Get(ctx, "/dashboard/berth-status", q, &out); err != nil {
				return err
			}
			printJSON(out)
			return nil
		},
	}
	cmd.Flags().IntVar(&terminalID, "terminal", 0, "Filter by terminal ID")
	return cmd
}

func newBerthMaintenanceCommand() *cobra.Command {
	var start, end string
	cmd := &cobra.Command{
		Use:   "maintenance <berth-id>",
		Short: "Schedule a maintenance window on a berth",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseTimeFlag(start, "start")
			if err != nil {
				return err
			}
			to, err := parseTimeFlag(end, "end")
			if err != nil {
				return err
			}
			body := map[string]interface{}{"start": from, "end": to}
			ctx, cancel := commandContext()
			defer cancel()
			var out map[string]interface{}
			path := fmt.Sprintf("/berths/%s/maintenance", args[0])
			if err := NewDaemonClient(serverAddr).Post(ctx, path, body, &out); err != nil {
				return err
			}
			printJSON(out)
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "Window start, RFC 3339 (required)")
	cmd.Flags().StringVar(&end, "end", "", "Window end, RFC 3339 (required)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}
