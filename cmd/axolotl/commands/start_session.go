package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"axolotl/internal/domain"
)

// startSessionCmd fetches a peer's prekey bundle and persists a new session
// with them.
func startSessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start-session <peer>",
		Short: "Establish a secure session with a peer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			if err := requireRelay(); err != nil {
				return err
			}
			info, err := wire.Sessions.InitiateSession(cmd.Context(), passphrase, domain.Username(args[0]))
			if err != nil {
				return fmt.Errorf("starting session with %q: %w", args[0], err)
			}
			printf(cmd, "Session created with %s.\nRemote fingerprint: %s\n", info.Peer, info.RemoteFingerprint)
			return nil
		},
	}
}
