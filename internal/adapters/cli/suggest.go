package cli

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

// NewSuggestCommand creates the suggestion command
func NewSuggestCommand() *cobra.Command {
	var (
		vesselID int
		eta      string
		dwell    float64
		topN     int
	)
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Rank berth options for a vessel call",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if eta != "" {
				if _, err := parseTimeFlag(eta, "eta"); err != nil {
					return err
				}
				q.Set("eta", eta)
			}
			if dwell > 0 {
				q.Set("dwellHours", strconv.FormatFloat(dwell, 'f', -1, 64))
			}
			if topN > 0 {
				q.Set("topN", strconv.Itoa(topN))
			}
			if portCode != "" {
				q.Set("portCode", portCode)
			}
			ctx, cancel := commandContext()
			defer cancel()
			var out map[string]interface{}
			path := fmt.Sprintf("/suggestions/berth/%d", vesselID)
			if err := NewDaemonClient(serverAddr).Get(ctx, path, q, &out); err != nil {
				return err
			}
			printJSON(out)
			return nil
		},
	}
	cmd.Flags().IntVar(&vesselID, "vessel", 0, "Vessel ID (required)")
	cmd.Flags().StringVar(&eta, "eta", "", "Preferred arrival, RFC 3339 (defaults to now)")
	cmd.Flags().Float64Var(&dwell, "dwell", 0, "Requested stay in hours (default 24)")
	cmd.Flags().IntVar(&topN, "top", 0, "Maximum suggestions to return")
	_ = cmd.MarkFlagRequired("vessel")
	return cmd
}
