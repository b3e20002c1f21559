package contentserdes

import (
	"encoding/json"
	"fmt"

	"github.com/farshidtz/senml/v2"
	"github.com/farshidtz/senml/v2/codec"
)

// SenML media types
const (
	MediaTypeSenmlJSON = "application/senml+json"
	MediaTypeSenmlCBOR = "application/senml+cbor"
)

// SenmlCodec converts SenML packs to and from one of the SenML media types.
// Values decode as senml.Pack. Besides senml.Pack, records and JSON-like values with the
// SenML structure can be encoded.
type SenmlCodec struct {
	mediaType string
}

// GetMediaType returns the SenML media type of this codec
func (sc *SenmlCodec) GetMediaType() string {
	return sc.mediaType
}

// ValueToBytes encodes a pack. nil results in an empty payload.
func (sc *SenmlCodec) ValueToBytes(value interface{}, params map[string]string) ([]byte, error) {
	if value == nil {
		return []byte{}, nil
	}
	pack, err := toPack(value)
	if err != nil {
		return nil, err
	}
	return codec.Encode(sc.mediaType, pack)
}

// BytesToValue decodes a pack. An empty payload results in nil.
func (sc *SenmlCodec) BytesToValue(body []byte, params map[string]string) (interface{}, error) {
	if len(body) == 0 {
		return nil, nil
	}
	pack, err := codec.Decode(sc.mediaType, body)
	if err != nil {
		return nil, err
	}
	return pack, nil
}

// toPack converts supported values to a senml pack
func toPack(value interface{}) (senml.Pack, error) {
	switch v := value.(type) {
	case senml.Pack:
		return v, nil
	case []senml.Record:
		return senml.Pack(v), nil
	case senml.Record:
		return senml.Pack{v}, nil
	}
	// values decoded from JSON, eg []interface{} of record maps
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var pack senml.Pack
	if err = json.Unmarshal(raw, &pack); err != nil {
		return nil, fmt.Errorf("value of type %T is not a SenML pack: %s", value, err)
	}
	return pack, nil
}

// NewSenmlCodec creates a codec for application/senml+json or application/senml+cbor
func NewSenmlCodec(mediaType string) *SenmlCodec {
	if mediaType == "" {
		mediaType = MediaTypeSenmlJSON
	}
	return &SenmlCodec{mediaType: mediaType}
}
