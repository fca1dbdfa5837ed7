package commands

import (
	"time"

	"github.com/spf13/cobra"
)

// recv: fetch and decrypt queued messages.
func recvCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "recv",
		Short: "Fetch and decrypt your queued messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			if err := requireRelay(); err != nil {
				return err
			}
			user, err := me()
			if err != nil {
				return err
			}
			msgs, err := wire.Messages.ReceiveMessage(cmd.Context(), passphrase, user, limit)
			for _, m := range msgs {
				ts := time.Unix(m.Timestamp, 0).Format(time.DateTime)
				printf(cmd, "%s [%s] %s\n", ts, m.From, m.Plaintext)
			}
			return err
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum messages to fetch (0 for all)")
	return cmd
}
