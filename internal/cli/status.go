package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vpn-cli/vpnctl/internal/domain"
	"github.com/vpn-cli/vpnctl/internal/util"
)

var statusCmd = &cobra.Command{
	Use:   "status <provider>",
	Short: "Show whether the VPN is connected",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := domain.ParseProviderKind(args[0])
		if err != nil {
			util.ExitWithCode(util.ExitInvalidInput, "Error: %v", err)
		}

		adapter, err := buildAdapter(kind)
		if err != nil {
			util.ExitWithCode(util.ExitInvalidInput, "Error: %v", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		connected, err := adapter.Status(ctx)
		if err != nil {
			return util.WrapError(err, "status check failed")
		}
		if connected {
			fmt.Println("Connected")
		} else {
			fmt.Println("Disconnected")
		}
		return nil
	},
}
