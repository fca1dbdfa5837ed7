package types

// PublishedPreKey is one serialised keys.PreKeyBundle as held by the relay.
type PublishedPreKey struct {
	ID     uint16 `json:"id"`
	Bundle []byte `json:"bundle"`
}
