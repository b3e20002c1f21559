package contentserdes

import "fmt"

// MediaTypeOctetStream is the media type of raw binary payloads
const MediaTypeOctetStream = "application/octet-stream"

// OctetStreamCodec passes byte payloads through unmodified
type OctetStreamCodec struct{}

// GetMediaType returns application/octet-stream
func (codec *OctetStreamCodec) GetMediaType() string {
	return MediaTypeOctetStream
}

// ValueToBytes accepts []byte and string values
func (codec *OctetStreamCodec) ValueToBytes(value interface{}, params map[string]string) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return []byte{}, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	return nil, fmt.Errorf("value of type %T is not a byte array", value)
}

// BytesToValue returns the payload as []byte. An empty payload results in nil.
func (codec *OctetStreamCodec) BytesToValue(body []byte, params map[string]string) (interface{}, error) {
	if len(body) == 0 {
		return nil, nil
	}
	return body, nil
}

// NewOctetStreamCodec creates the binary pass-through codec
func NewOctetStreamCodec() *OctetStreamCodec {
	return &OctetStreamCodec{}
}
