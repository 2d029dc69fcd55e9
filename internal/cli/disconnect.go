package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vpn-cli/vpnctl/internal/domain"
	"github.com/vpn-cli/vpnctl/internal/store"
	"github.com/vpn-cli/vpnctl/internal/util"
)

var disconnectCmd = &cobra.Command{
	Use:   "disconnect <provider>",
	Short: "Disconnect the active VPN session",
	Long: `Invoke the external client's disconnect command once. Failures are
surfaced immediately; there is no retry.`,
	Args: cobra.ExactArgs(1),
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

		err = adapter.Disconnect(ctx)
		recordOperation(&domain.Operation{
			Type:    "disconnect",
			Success: err == nil,
		})
		if err != nil {
			return util.WrapError(err, "disconnect failed")
		}
		fmt.Println("Disconnected")
		return nil
	},
}

// recordOperation appends an audit entry. Best effort.
func recordOperation(op *domain.Operation) {
	err := withStore(func(st store.ProfileStore) error {
		return st.LogOperation(op)
	})
	if err != nil {
		logger.Warn("failed to record operation", zap.Error(err))
	}
}
