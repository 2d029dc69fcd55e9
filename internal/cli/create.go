package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vpn-cli/vpnctl/internal/domain"
	"github.com/vpn-cli/vpnctl/internal/store"
	"github.com/vpn-cli/vpnctl/internal/util"
)

var (
	createHost     string
	createUser     string
	createPassword string
	createForce    bool
)

var createCmd = &cobra.Command{
	Use:   "create <provider> <name>",
	Short: "Create a named VPN profile",
	Long: `Create a named profile in the encrypted store. Host, username, and
password can be passed as flags or entered interactively; the password
prompt never echoes.

Example:
  vpnctl create cisco office
  vpnctl create forti lab --host vpn.lab.example.com --user alice`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := domain.ParseProviderKind(args[0])
		if err != nil {
			util.ExitWithCode(util.ExitInvalidInput, "Error: %v", err)
		}
		name := args[1]

		host := createHost
		if host == "" {
			if host, err = PromptInput("Host: "); err != nil {
				return err
			}
		}
		user := createUser
		if user == "" {
			if user, err = PromptInput("Username: "); err != nil {
				return err
			}
		}
		password := createPassword
		if password == "" {
			if password, err = PromptPassword("Password: "); err != nil {
				return err
			}
		}

		profile := &domain.Profile{
			Name:     name,
			Host:     host,
			Username: user,
			Secret:   password,
			Provider: kind,
		}
		if err := profile.Validate(); err != nil {
			util.ExitWithCode(util.ExitInvalidInput, "Error: %v", err)
		}

		if err := saveProfile(profile, createForce); err != nil {
			if errors.Is(err, store.ErrProfileExists) {
				util.ExitWithCode(util.ExitInvalidInput, "Error: profile %q already exists, use --force to overwrite", name)
			}
			return err
		}

		fmt.Printf("Created profile %q (%s)\n", name, kind)
		return nil
	},
}

func init() {
	createCmd.Flags().StringVarP(&createHost, "host", "H", "", "VPN host")
	createCmd.Flags().StringVarP(&createUser, "user", "U", "", "VPN username")
	createCmd.Flags().StringVarP(&createPassword, "password", "P", "", "VPN password (prompted when omitted)")
	createCmd.Flags().BoolVarP(&createForce, "force", "f", false, "Overwrite an existing profile")
}
