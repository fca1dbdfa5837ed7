package commands

import (
	"github.com/spf13/cobra"

	"axolotl/internal/domain"
)

// send <peer> <message>: encrypt and send a message to <peer>.
func sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <peer> <message>",
		Short: "Encrypt and send a message to a peer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			if err := requireRelay(); err != nil {
				return err
			}
			from, err := me()
			if err != nil {
				return err
			}
			if err := wire.Messages.SendMessage(cmd.Context(), passphrase, from, domain.Username(args[0]), []byte(args[1])); err != nil {
				return err
			}
			printf(cmd, "sent\n")
			return nil
		},
	}
}
