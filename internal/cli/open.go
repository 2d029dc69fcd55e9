package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vpn-cli/vpnctl/internal/domain"
	"github.com/vpn-cli/vpnctl/internal/util"
)

var openCmd = &cobra.Command{
	Use:   "open <provider>",
	Short: "Launch the external client's own UI",
	Long: `Launch the graphical client that ships alongside the configured
command line binary. Useful when a connection needs interactive steps
the command line client cannot answer.`,
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

		if err := adapter.Open(); err != nil {
			return util.WrapError(err, "failed to open client UI")
		}
		fmt.Println("Client UI launched")
		return nil
	},
}
