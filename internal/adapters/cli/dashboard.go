package cli

import (
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

// NewDashboardCommand creates the dashboard command
func NewDashboardCommand() *cobra.Command {
	var terminalID int
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the operator overview",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if terminalID > 0 {
				q.Set("terminalId", strconv.Itoa(terminalID))
			}
			ctx, cancel := commandContext()
			defer cancel()
			var out map[string]interface{}
			if err := NewDaemonClient(serverAddr).Get(ctx, "/dashboard/metrics", q, &out); err != nil {
				return err
			}
			printJSON(out)
			return nil
		},
	}
	cmd.Flags().IntVar(&terminalID, "terminal", 0, "Filter by terminal ID")
	return cmd
}
