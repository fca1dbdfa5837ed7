package types

// AccountProfile records which relay the local identity is registered on.
type AccountProfile struct {
	RelayURL     string   `json:"relay_url"`
	Username     Username `json:"username"`
	RegisteredAt int64    `json:"registered_at"`
}
