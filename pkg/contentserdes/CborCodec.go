package contentserdes

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// MediaTypeCBOR is the media type of the Concise Binary Object Representation
const MediaTypeCBOR = "application/cbor"

// CborCodec converts values to and from CBOR.
// Maps decode as map[string]interface{} to match the JSON codec. Integers decode as
// uint64 or int64, so the round trip of other integer types is lossy in width.
type CborCodec struct {
	encMode cbor.EncMode
	decMode cbor.DecMode
}

// GetMediaType returns application/cbor
func (codec *CborCodec) GetMediaType() string {
	return MediaTypeCBOR
}

// ValueToBytes marshals the value using canonical CBOR. nil results in an empty payload.
func (codec *CborCodec) ValueToBytes(value interface{}, params map[string]string) ([]byte, error) {
	if value == nil {
		return []byte{}, nil
	}
	return codec.encMode.Marshal(value)
}

// BytesToValue unmarshals a CBOR payload. An empty payload results in nil.
func (codec *CborCodec) BytesToValue(body []byte, params map[string]string) (interface{}, error) {
	var value interface{}
	if len(body) == 0 {
		return nil, nil
	}
	err := codec.decMode.Unmarshal(body, &value)
	return value, err
}

// NewCborCodec creates a CBOR codec
func NewCborCodec() *CborCodec {
	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic("NewCborCodec: invalid encoding options: " + err.Error())
	}
	decMode, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]interface{}(nil)),
	}.DecMode()
	if err != nil {
		panic("NewCborCodec: invalid decoding options: " + err.Error())
	}
	return &CborCodec{encMode: encMode, decMode: decMode}
}
