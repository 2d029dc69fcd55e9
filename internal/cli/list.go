package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vpn-cli/vpnctl/internal/domain"
	"github.com/vpn-cli/vpnctl/internal/store"
	"github.com/vpn-cli/vpnctl/internal/util"
)

var listType string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved VPN profiles",
	Long: `List saved profiles in insertion order. Secrets are never printed.

Example:
  vpnctl list
  vpnctl list --type cisco`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var kind domain.ProviderKind
		if listType != "" {
			var err error
			kind, err = domain.ParseProviderKind(listType)
			if err != nil {
				util.ExitWithCode(util.ExitInvalidInput, "Error: %v", err)
			}
		}

		var profiles []*domain.Profile
		err := withStore(func(st store.ProfileStore) error {
			var err error
			profiles, err = st.List(kind)
			return err
		})
		if err != nil {
			return err
		}

		if len(profiles) == 0 {
			fmt.Println("No profiles found")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tPROVIDER\tHOST\tUSER\tUPDATED")
		for _, p := range profiles {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				p.Name, p.Provider, p.Host, p.Username,
				p.UpdatedAt.Local().Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

func init() {
	listCmd.Flags().StringVarP(&listType, "type", "t", "", "Only list profiles for this provider")
}
