package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vpn-cli/vpnctl/internal/domain"
)

var supportedCmd = &cobra.Command{
	Use:   "supported",
	Short: "List supported VPN providers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, kind := range domain.SupportedProviders() {
			configured := "not configured"
			if _, err := cfg.ClientPath(kind); err == nil {
				configured = "configured"
			}
			fmt.Printf("%s\t(%s)\n", kind, configured)
		}
		return nil
	},
}
