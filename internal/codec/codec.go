package codec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// maxNesting bounds recursion; the deepest schema (a Session) is well
// below it.
const maxNesting = 16

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.EncOptions{
		Sort:          cbor.SortNone,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		TagsMd:        cbor.TagsForbidden,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("codec: enc mode: %v", err))
	}
	decMode, err = cbor.DecOptions{
		DupMapKey:       cbor.DupMapKeyEnforcedAPF,
		IndefLength:     cbor.IndefLengthForbidden,
		TagsMd:          cbor.TagsForbidden,
		MaxNestedLevels: maxNesting,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("codec: dec mode: %v", err))
	}
}

// Marshal encodes v with the package profile.
func Marshal(v any) ([]byte, error) {
	b, err := encMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("codec: encode %T: %w", v, err)
	}
	return b, nil
}

// Raw is an already-encoded value embedded verbatim by Marshal.
type Raw = cbor.RawMessage

// Null is the encoding of an absent optional value.
var Null = Raw{0xf6}

func unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}
