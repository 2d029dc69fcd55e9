package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vpn-cli/vpnctl/internal/config"
	"github.com/vpn-cli/vpnctl/internal/domain"
	"github.com/vpn-cli/vpnctl/internal/util"
)

var setPathCmd = &cobra.Command{
	Use:   "set-path <provider> <path>",
	Short: "Configure the external client binary for a provider",
	Long: `Record the path of the external client binary used for a provider.
The path is stored in the config file, not the encrypted store.

Example:
  vpnctl set-path cisco /opt/cisco/anyconnect/bin/vpncli`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := domain.ParseProviderKind(args[0])
		if err != nil {
			util.ExitWithCode(util.ExitInvalidInput, "Error: %v", err)
		}
		path := args[1]

		if info, err := os.Stat(path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %s is not accessible: %v\n", path, err)
		} else if info.IsDir() {
			util.ExitWithCode(util.ExitInvalidInput, "Error: %s is a directory", path)
		}

		cfg.SetClientPath(kind, path)
		if err := config.SaveConfig(cfg, cfgFile); err != nil {
			return util.WrapError(err, "failed to save config")
		}

		fmt.Printf("Client for %s set to %s\n", kind, path)
		return nil
	},
}
