package interfaces

import (
	"context"

	"axolotl/internal/keys"

	domaintypes "axolotl/internal/domain/types"
)

// RelayClient is how we talk to the relay server, all with context.
type RelayClient interface {
	RegisterPreKeyBundles(ctx context.Context, username domaintypes.Username, bundles []*keys.PreKeyBundle) error
	FetchPreKeyBundle(ctx context.Context, username domaintypes.Username) (*keys.PreKeyBundle, error)

	SendMessage(ctx context.Context, envelope domaintypes.Envelope) error
	FetchMessages(
		ctx context.Context,
		username domaintypes.Username,
		limit int,
	) ([]domaintypes.Envelope, error)
	AckMessages(ctx context.Context, username domaintypes.Username, count int) error
}
