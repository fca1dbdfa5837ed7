package codec

import (
	"math"

	"github.com/fxamacker/cbor/v2"
)

// Map is a decoded integer-keyed CBOR map awaiting typed field access.
type Map struct {
	name   string
	fields map[uint64]cbor.RawMessage
}

// DecodeMap parses data as a single map named name (used in errors).
func DecodeMap(name string, data []byte) (*Map, error) {
	if len(data) == 0 {
		return nil, malformed(name, errEmpty)
	}
	if major := data[0] >> 5; major != 5 {
		return nil, malformed(name, errNotMap)
	}
	fields := make(map[uint64]cbor.RawMessage)
	if err := unmarshal(data, &fields); err != nil {
		return nil, malformed(name, err)
	}
	return &Map{name: name, fields: fields}, nil
}

// Name returns the schema name the map was decoded as.
func (m *Map) Name() string { return m.name }

// Len returns the number of fields, known or not.
func (m *Map) Len() int { return len(m.fields) }

// Has reports whether tag is present, whatever its value.
func (m *Map) Has(tag uint64) bool {
	_, ok := m.fields[tag]
	return ok
}

// IsNull reports whether tag is absent or holds null/undefined.
func (m *Map) IsNull(tag uint64) bool {
	raw, ok := m.fields[tag]
	if !ok {
		return true
	}
	return len(raw) == 1 && (raw[0] == 0xf6 || raw[0] == 0xf7)
}

// Raw returns the encoded value at tag.
func (m *Map) Raw(tag uint64) ([]byte, error) {
	raw, ok := m.fields[tag]
	if !ok {
		return nil, missing(m.name, tag)
	}
	return raw, nil
}

// Bytes returns the byte string at tag.
func (m *Map) Bytes(tag uint64) ([]byte, error) {
	raw, err := m.Raw(tag)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || raw[0]>>5 != 2 {
		return nil, invalid(m.name, tag, "want byte string")
	}
	var out []byte
	if err := unmarshal(raw, &out); err != nil {
		return nil, invalid(m.name, tag, "%v", err)
	}
	return out, nil
}

// FixedBytes returns the byte string at tag, which must be n bytes long.
func (m *Map) FixedBytes(tag uint64, n int) ([]byte, error) {
	b, err := m.Bytes(tag)
	if err != nil {
		return nil, err
	}
	if len(b) != n {
		return nil, invalid(m.name, tag, "want %d bytes, got %d", n, len(b))
	}
	return b, nil
}

// Uint returns the unsigned integer at tag, which must not exceed max.
func (m *Map) Uint(tag uint64, max uint64) (uint64, error) {
	raw, err := m.Raw(tag)
	if err != nil {
		return 0, err
	}
	if len(raw) == 0 || raw[0]>>5 != 0 {
		return 0, invalid(m.name, tag, "want unsigned integer")
	}
	var v uint64
	if err := unmarshal(raw, &v); err != nil {
		return 0, invalid(m.name, tag, "%v", err)
	}
	if v > max {
		return 0, invalid(m.name, tag, "%d exceeds %d", v, max)
	}
	return v, nil
}

// Uint8 is Uint bounded to a byte.
func (m *Map) Uint8(tag uint64) (uint8, error) {
	v, err := m.Uint(tag, math.MaxUint8)
	return uint8(v), err
}

// Uint16 is Uint bounded to 16 bits.
func (m *Map) Uint16(tag uint64) (uint16, error) {
	v, err := m.Uint(tag, math.MaxUint16)
	return uint16(v), err
}

// Uint32 is Uint bounded to 32 bits.
func (m *Map) Uint32(tag uint64) (uint32, error) {
	v, err := m.Uint(tag, math.MaxUint32)
	return uint32(v), err
}

// Array returns the encoded elements of the array at tag.
func (m *Map) Array(tag uint64) ([][]byte, error) {
	raw, err := m.Raw(tag)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || raw[0]>>5 != 4 {
		return nil, invalid(m.name, tag, "want array")
	}
	var items []cbor.RawMessage
	if err := unmarshal(raw, &items); err != nil {
		return nil, invalid(m.name, tag, "%v", err)
	}
	out := make([][]byte, len(items))
	for i, it := range items {
		out[i] = it
	}
	return out, nil
}
