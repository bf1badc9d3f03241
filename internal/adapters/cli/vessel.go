package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVesselCommand creates the vessel command group
func NewVesselCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vessel",
		Short: "Manage vessel records",
	}
	cmd.AddCommand(newVesselAddCommand())
	cmd.AddCommand(newVesselListCommand())
	cmd.AddCommand(newVesselHistoryCommand())
	return cmd
}

func newVesselAddCommand() *cobra.Command {
	var (
		name      string
		imo       string
		mmsi      string
		vtype     string
		loa       float64
		beam      float64
		draft     float64
		gt        float64
		cargoType string
		volume    float64
		priority  string
		hazmat    string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a vessel",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]interface{}{
				"name":      name,
				"type":      vtype,
				"loa":       loa,
				"beam":      beam,
				"draft":     draft,
				"cargoType": cargoType,
			}
			if imo != "" {
				body["imo"] = imo
			}
			if mmsi != "" {
				body["mmsi"] = mmsi
			}
			if gt > 0 {
				body["grossTonnage"] = gt
			}
			if volume > 0 {
				body["cargoVolume"] = volume
			}
			if priority != "" {
				body["priorityClass"] = priority
			}
			if hazmat != "" {
				body["hazmatClass"] = hazmat
			}

			ctx, cancel := commandContext()
			defer cancel()
			var out map[string]interface{}
			if err := NewDaemonClient(serverAddr).Post(ctx, "/vessels", body, &out); err != nil {
				return err
			}
			printJSON(out)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Vessel name (required)")
	cmd.Flags().StringVar(&imo, "imo", "", "IMO number")
	cmd.Flags().StringVar(&mmsi, "mmsi", "", "MMSI for AIS matching")
	cmd.Flags().StringVar(&vtype, "type", "GENERAL", "Vessel type (CONTAINER, BULK, TANKER, RORO, GENERAL, LNG)")
	cmd.Flags().Float64Var(&loa, "loa", 0, "Length overall in meters (required)")
	cmd.Flags().Float64Var(&beam, "beam", 0, "Beam in meters (required)")
	cmd.Flags().Float64Var(&draft, "draft", 0, "Draft in meters (required)")
	cmd.Flags().Float64Var(&gt, "gt", 0, "Gross tonnage")
	cmd.Flags().StringVar(&cargoType, "cargo", "", "Cargo type")
	cmd.Flags().Float64Var(&volume, "volume", 0, "Cargo volume (TEU or MT)")
	cmd.Flags().StringVar(&priority, "priority", "", "Priority class (GOVERNMENT..LOW)")
	cmd.Flags().StringVar(&hazmat, "hazmat", "", "IMDG hazmat class")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("loa")
	_ = cmd.MarkFlagRequired("beam")
	_ = cmd.MarkFlagRequired("draft")
	return cmd
}

func newVesselListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered vessels",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext()
			defer cancel()
			var out []map[string]interface{}
			if err := NewDaemonClient(serverAddr).Get(ctx, "/vessels", nil, &out); err != nil {
				return err
			}
			printJSON(out)
			return nil
		},
	}
}

func newVesselHistoryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history <vessel-id>",
		Short: "Show a vessel's call performance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext()
			defer cancel()
			var out map[string]interface{}
			path := fmt.Sprintf("/vessels/%s/history", args[0])
			if err := NewDaemonClient(serverAddr).Get(ctx, path, nil, &out); err != nil {
				return err
			}
			printJSON(out)
			return nil
		},
	}
}
