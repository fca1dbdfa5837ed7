// Package codec is the binary encoding shared by every serialised entity.
//
// Values are CBOR maps keyed by small unsigned integers. Encoding goes through
// Marshal, which emits struct fields tagged `cbor:"N,keyasint"` in declaration
// order, so a schema's wire layout is the order of its Go struct. Integers
// use the shortest big-endian form and byte strings are length-prefixed.
//
// Decoding goes through DecodeMap. Fields may appear in any order, unknown
// tags are kept but never consulted, and typed accessors report missing or
// mistyped fields as *FieldError. The decoder rejects duplicate keys,
// indefinite-length items, CBOR tags and trailing bytes, so a value has
// exactly one accepted encoding per field set.
//
// # Errors
//
//   - ErrMalformed: the bytes are not a well-formed value of this profile.
//   - ErrMissingField: a required tag never appeared.
//   - ErrInvalidField: a tag appeared with the wrong type, length or range.
package codec
