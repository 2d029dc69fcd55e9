package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vpn-cli/vpnctl/internal/domain"
	"github.com/vpn-cli/vpnctl/internal/store"
)

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved profile",
	Long: `Delete a saved profile. Deleting a name that does not exist is not an
error. Asks for confirmation unless --yes is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		if !deleteYes {
			answer, err := PromptInput(fmt.Sprintf("Delete profile %q? [y/N]: ", name))
			if err != nil {
				return err
			}
			if strings.ToLower(answer) != "y" {
				fmt.Println("Aborted")
				return nil
			}
		}

		err := withStore(func(st store.ProfileStore) error {
			if err := st.Delete(name); err != nil {
				return err
			}
			return st.LogOperation(&domain.Operation{
				Type:    "delete",
				Profile: name,
				Success: true,
			})
		})
		if err != nil {
			return err
		}

		fmt.Printf("Deleted profile %q\n", name)
		return nil
	},
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Skip the confirmation prompt")
}
