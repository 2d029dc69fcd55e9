package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vpn-cli/vpnctl/internal/clipboard"
	"github.com/vpn-cli/vpnctl/internal/domain"
	"github.com/vpn-cli/vpnctl/internal/store"
	"github.com/vpn-cli/vpnctl/internal/util"
)

var (
	showSecret bool
	showCopy   bool
)

// clipboardTimeout is how long a copied secret stays on the clipboard
// before it is cleared.
const clipboardTimeout = 30 * time.Second

var showCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a saved profile",
	Long: `Show a saved profile. The secret is masked unless --secret is given;
--copy puts it on the clipboard instead and clears it after 30 seconds.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		var profile *domain.Profile
		err := withStore(func(st store.ProfileStore) error {
			p, err := st.Get(name)
			if err != nil {
				return err
			}
			profile = p
			return nil
		})
		if err != nil {
			if errors.Is(err, store.ErrProfileNotFound) {
				util.ExitWithCode(util.ExitInvalidInput, "Error: profile %q not found", name)
			}
			return err
		}

		fmt.Printf("Name:     %s\n", profile.Name)
		fmt.Printf("Provider: %s\n", profile.Provider)
		fmt.Printf("Host:     %s\n", profile.Host)
		fmt.Printf("Username: %s\n", profile.Username)
		fmt.Printf("Created:  %s\n", profile.CreatedAt.Local().Format(time.RFC1123))
		fmt.Printf("Updated:  %s\n", profile.UpdatedAt.Local().Format(time.RFC1123))

		switch {
		case showCopy:
			if !clipboard.IsAvailable() {
				return errors.New("clipboard is not available on this system")
			}
			if err := clipboard.CopyWithTimeout(profile.Secret, clipboardTimeout); err != nil {
				return util.WrapError(err, "failed to copy password")
			}
			fmt.Printf("Password copied to clipboard (clears in %s)\n", clipboardTimeout)
		case showSecret:
			fmt.Printf("Password: %s\n", profile.Secret)
		default:
			fmt.Println("Password: ********")
		}
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVarP(&showSecret, "secret", "s", false, "Print the password in clear text")
	showCmd.Flags().BoolVarP(&showCopy, "copy", "c", false, "Copy the password to the clipboard")
}
