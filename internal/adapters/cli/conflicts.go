package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewConflictsCommand creates the conflicts command group
func NewConflictsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conflicts",
		Short: "Inspect and resolve schedule conflicts",
	}
	cmd.AddCommand(newConflictsListCommand())
	cmd.AddCommand(newConflictsResolveCommand())
	cmd.AddCommand(newAlertsCommand())
	return cmd
}

func newConflictsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List open conflicts with their resolution options",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext()
			defer cancel()
			var out map[string]interface{}
			if err := NewDaemonClient(serverAddr).Get(ctx, "/conflicts", nil, &out); err != nil {
				return err
			}
			printJSON(out)
			return nil
		},
	}
}

func newConflictsResolveCommand() *cobra.Command {
	var (
		strategy string
		target   int
		berthID  int
		eta      string
		etd      string
	)
	cmd := &cobra.Command{
		Use:   "resolve <conflict-id>",
		Short: "Apply a resolution option to a conflict",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]interface{}{
				"strategy":         strategy,
				"targetScheduleId": target,
			}
			if berthID > 0 {
				body["newBerthId"] = berthID
			}
			if eta != "" {
				when, err := parseTimeFlag(eta, "eta")
				if err != nil {
					return err
				}
				body["newEta"] = when
			}
			if etd != "" {
				when, err := parseTimeFlag(etd, "etd")
				if err != nil {
					return err
				}
				body["newEtd"] = when
			}
			ctx, cancel := commandContext()
			defer cancel()
			var out map[string]interface{}
			path := fmt.Sprintf("/conflicts/%s/resolve", args[0])
			if err := NewDaemonClient(serverAddr).Post(ctx, path, body, &out); err != nil {
				return err
			}
			printJSON(out)
			return nil
		},
	}
	cmd.Flags().StringVar(&strategy, "strategy", "",
		"Resolution strategy (DELAY_SECOND, SHIFT_TO_ALTERNATE_BERTH, SWAP_SCHEDULES, EXPEDITE, TRUNCATE_STAY)")
	cmd.Flags().IntVar(&target, "schedule", 0, "Schedule the option targets (required)")
	cmd.Flags().IntVar(&berthID, "berth", 0, "New berth for shift strategies")
	cmd.Flags().StringVar(&eta, "eta", "", "New arrival, RFC 3339")
	cmd.Flags().StringVar(&etd, "etd", "", "New departure, RFC 3339")
	_ = cmd.MarkFlagRequired("strategy")
	_ = cmd.MarkFlagRequired("schedule")
	return cmd
}

func newAlertsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Show unread alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext()
			defer cancel()
			var out map[string]interface{}
			if err := NewDaemonClient(serverAddr).Get(ctx, "/dashboard/alerts", nil, &out); err != nil {
				return err
			}
			printJSON(out)
			return nil
		},
	}
	return cmd
}
