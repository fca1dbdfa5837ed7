package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func sessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List stored sessions and their remote fingerprints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			infos, err := wire.Sessions.ListSessions(passphrase)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PEER\tFINGERPRINT\tSTATES\tPENDING")
			for _, in := range infos {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%t\n", in.Peer, in.RemoteFingerprint, in.States, in.PendingPreKey)
			}
			return tw.Flush()
		},
	}
}
