package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vpn-cli/vpnctl/internal/domain"
	"github.com/vpn-cli/vpnctl/internal/store"
)

var auditLimit int

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show the operation history",
	Long:  `Show recorded operations, oldest first. Secrets never appear here.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var ops []*domain.Operation
		err := withStore(func(st store.ProfileStore) error {
			var err error
			ops, err = st.AuditLog()
			return err
		})
		if err != nil {
			return err
		}

		if auditLimit > 0 && len(ops) > auditLimit {
			ops = ops[len(ops)-auditLimit:]
		}
		if len(ops) == 0 {
			fmt.Println("No operations recorded")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tOPERATION\tPROFILE\tRESULT\tDETAIL")
		for _, op := range ops {
			result := "ok"
			if !op.Success {
				result = "failed"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				op.Timestamp.Local().Format("2006-01-02 15:04:05"),
				op.Type, op.Profile, result, op.Detail)
		}
		return w.Flush()
	},
}

func init() {
	auditCmd.Flags().IntVarP(&auditLimit, "limit", "n", 0, "Only show the most recent N entries")
}
