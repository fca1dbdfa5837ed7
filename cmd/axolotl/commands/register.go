package commands

import (
	"github.com/spf13/cobra"

	"axolotl/internal/domain"
)

func registerCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Generate prekeys and publish their bundles to the relay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			if err := requireRelay(); err != nil {
				return err
			}
			if !cmd.Flags().Changed("count") {
				count = wire.Config.PreKeyBatch
			}
			n, err := wire.PreKeys.RegisterPreKeys(cmd.Context(), passphrase, domain.Username(args[0]), count)
			if err != nil {
				return err
			}
			printf(cmd, "Registered %d prekey bundles for %s\n", n, args[0])
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 0, "one-time prekeys to generate (default from config)")
	return cmd
}
