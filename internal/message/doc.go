// Package message holds the two ratchet envelopes and their wire format.
//
// A serialised message is one type byte followed by a CBOR map:
//
//	1  CipherMessage  {0: session_tag, 1: counter, 2: previous_counter,
//	                   3: ratchet_key, 4: cipher_text}
//	2  PreKeyMessage  {0: prekey_id, 1: base_key, 2: identity_key,
//	                   3: CipherMessage map}
package message
