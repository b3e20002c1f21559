package contentserdes

import (
	"encoding/json"

	"github.com/wostzone/wostconsumer-go/api"
)

// Additional JSON based media types
const (
	MediaTypeLDJSON = "application/ld+json"
	MediaTypeTDJSON = "application/td+json"
)

// JsonCodec converts values to and from JSON
type JsonCodec struct {
	mediaType string
}

// GetMediaType returns the JSON media type this codec is registered with
func (codec *JsonCodec) GetMediaType() string {
	return codec.mediaType
}

// ValueToBytes marshals the value to JSON. nil results in an empty payload.
func (codec *JsonCodec) ValueToBytes(value interface{}, params map[string]string) ([]byte, error) {
	if value == nil {
		return []byte{}, nil
	}
	return json.Marshal(value)
}

// BytesToValue unmarshals JSON. Objects become map[string]interface{} and numbers float64.
// An empty payload results in nil.
func (codec *JsonCodec) BytesToValue(body []byte, params map[string]string) (interface{}, error) {
	var value interface{}
	if len(body) == 0 {
		return nil, nil
	}
	err := json.Unmarshal(body, &value)
	return value, err
}

// NewJsonCodec creates a JSON codec for the given media type
//  mediaType such as application/json or application/ld+json. "" for application/json.
func NewJsonCodec(mediaType string) *JsonCodec {
	if mediaType == "" {
		mediaType = api.DefaultMediaType
	}
	return &JsonCodec{mediaType: mediaType}
}
