package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewScheduleCommand creates the schedule command group
func NewScheduleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Allocate and progress berth schedules",
	}
	cmd.AddCommand(newScheduleAllocateCommand())
	cmd.AddCommand(newScheduleListCommand())
	cmd.AddCommand(newScheduleMilestoneCommand("arrival", "Record the vessel's arrival (ATA)"))
	cmd.AddCommand(newScheduleMilestoneCommand("berthing", "Record the vessel all-fast alongside (ATB)"))
	cmd.AddCommand(newScheduleMilestoneCommand("departure", "Record the vessel's departure (ATD)"))
	cmd.AddCommand(newScheduleCancelCommand())
	cmd.AddCommand(newScheduleRescheduleCommand())
	cmd.AddCommand(newScheduleETACommand())
	cmd.AddCommand(newScheduleClearAllCommand())
	return cmd
}

func newScheduleAllocateCommand() *cobra.Command {
	var (
		vesselID int
		berthID  int
		eta      string
		etd      string
		notes    string
		override bool
	)
	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Commit a vessel to a berth window",
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseTimeFlag(eta, "eta")
			if err != nil {
				return err
			}
			to, err := parseTimeFlag(etd, "etd")
			if err != nil {
				return err
			}
			body := map[string]interface{}{
				"vesselId": vesselID,
				"berthId":  berthID,
				"eta":      from,
				"etd":      to,
			}
			if notes != "" {
				body["notes"] = notes
			}
			if portCode != "" {
				body["portCode"] = portCode
			}
			if override {
				body["governmentOverride"] = true
			}
			ctx, cancel := commandContext()
			defer cancel()
			var out map[string]interface{}
			if err := NewDaemonClient(serverAddr).Post(ctx, "/schedules", body, &out); err != nil {
				return err
			}
			printJSON(out)
			return nil
		},
	}
	cmd.Flags().IntVar(&vesselID, "vessel", 0, "Vessel ID (required)")
	cmd.Flags().IntVar(&berthID, "berth", 0, "Berth ID (required)")
	cmd.Flags().StringVar(&eta, "eta", "", "Planned arrival, RFC 3339 (required)")
	cmd.Flags().StringVar(&etd, "etd", "", "Planned departure, RFC 3339 (required)")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes")
	cmd.Flags().BoolVar(&override, "government-override", false,
		"Preempt a contracted window claim (GOVERNMENT calls only)")
	_ = cmd.MarkFlagRequired("vessel")
	_ = cmd.MarkFlagRequired("berth")
	_ = cmd.MarkFlagRequired("eta")
	_ = cmd.MarkFlagRequired("etd")
	return cmd
}

func newScheduleListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext()
			defer cancel()
			var out []map[string]interface{}
			if err := NewDaemonClient(serverAddr).Get(ctx, "/schedules", nil, &out); err != nil {
				return err
			}
			printJSON(out)
			return nil
		},
	}
}

func newScheduleMilestoneCommand(milestone, short string) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   fmt.Sprintf("%s <schedule-id>", milestone),
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			when, err := parseTimeFlag(at, "at")
			if err != nil {
				return err
			}
			body := map[string]interface{}{}
			if !when.IsZero() {
				body["at"] = when
			}
			ctx, cancel := commandContext()
			defer cancel()
			var out map[string]interface{}
			path := fmt.Sprintf("/schedules/%s/%s", args[0], milestone)
			if err := NewDaemonClient(serverAddr).Post(ctx, path, body, &out); err != nil {
				return err
			}
			printJSON(out)
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "Milestone time, RFC 3339 (defaults to now)")
	return cmd
}

func newScheduleCancelCommand() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "cancel <schedule-id>",
		Short: "Cancel a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]interface{}{}
			if reason != "" {
				body["reason"] = reason
			}
			ctx, cancel := commandContext()
			defer cancel()
			var out map[string]interface{}
			path := fmt.Sprintf("/schedules/%s/cancel", args[0])
			if err := NewDaemonClient(serverAddr).Post(ctx, path, body, &out); err != nil {
				return err
			}
			printJSON(out)
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "Cancellation reason")
	return cmd
}

func newScheduleRescheduleCommand() *cobra.Command {
	var (
		berthID int
		eta     string
		etd     string
	)
	cmd := &cobra.Command{
		Use:   "move <schedule-id>",
		Short: "Reschedule to a new berth and/or window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseTimeFlag(eta, "eta")
			if err != nil {
				return err
			}
			to, err := parseTimeFlag(etd, "etd")
			if err != nil {
				return err
			}
			body := map[string]interface{}{
				"newEta": from,
				"newEtd": to,
			}
			if berthID > 0 {
				body["newBerthId"] = berthID
			}
			if portCode != "" {
				body["portCode"] = portCode
			}
			ctx, cancel := commandContext()
			defer cancel()
			var out map[string]interface{}
			path := fmt.Sprintf("/schedules/%s/reschedule", args[0])
			if err := NewDaemonClient(serverAddr).Put(ctx, path, body, &out); err != nil {
				return err
			}
			printJSON(out)
			return nil
		},
	}
	cmd.Flags().IntVar(&berthID, "berth", 0, "New berth ID (omit to keep)")
	cmd.Flags().StringVar(&eta, "eta", "", "New arrival, RFC 3339 (required)")
	cmd.Flags().StringVar(&etd, "etd", "", "New departure, RFC 3339 (required)")
	_ = cmd.MarkFlagRequired("eta")
	_ = cmd.MarkFlagRequired("etd")
	return cmd
}

func newScheduleETACommand() *cobra.Command {
	var eta string
	cmd := &cobra.Command{
		Use:   "eta <schedule-id>",
		Short: "Move the predicted arrival of a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			when, err := parseTimeFlag(eta, "eta")
			if err != nil {
				return err
			}
			body := map[string]interface{}{"newEta": when, "source": "AGENT"}
			ctx, cancel := commandContext()
			defer cancel()
			var out map[string]interface{}
			path := fmt.Sprintf("/schedules/%s/eta", args[0])
			if err := NewDaemonClient(serverAddr).Put(ctx, path, body, &out); err != nil {
				return err
			}
			printJSON(out)
			return nil
		},
	}
	cmd.Flags().StringVar(&eta, "eta", "", "New predicted arrival, RFC 3339 (required)")
	_ = cmd.MarkFlagRequired("eta")
	return cmd
}

func newScheduleClearAllCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear-all",
		Short: "Wipe all schedules, conflicts, and alerts (sandbox only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to wipe without --yes")
			}
			ctx, cancel := commandContext()
			defer cancel()
			var out map[string]interface{}
			if err := NewDaemonClient(serverAddr).Delete(ctx, "/schedules/clear-all", &out); err != nil {
				return err
			}
			printJSON(out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the wipe")
	return cmd
}
