package types

// Envelope is what the relay queues and forwards. Payload is a serialised
// message.Message; the relay never looks inside it.
type Envelope struct {
	ID        string   `json:"id,omitempty"`
	From      Username `json:"from"`
	To        Username `json:"to"`
	Payload   []byte   `json:"payload"`
	Timestamp int64    `json:"timestamp"`
}

// DecryptedMessage is what MessageService.ReceiveMessage returns.
type DecryptedMessage struct {
	ID        string   `json:"id,omitempty"`
	From      Username `json:"from"`
	To        Username `json:"to"`
	Plaintext []byte   `json:"plaintext"`
	Timestamp int64    `json:"timestamp"`
}
