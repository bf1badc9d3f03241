package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewHealthCommand creates the health command
func NewHealthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check daemon liveness",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext()
			defer cancel()
			status, err := NewDaemonClient(serverAddr).Health(ctx)
			if err != nil {
				return err
			}
			fmt.Println(status)
			return nil
		},
	}
}
