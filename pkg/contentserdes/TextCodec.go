package contentserdes

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MediaTypeText is the plain text media type
const MediaTypeText = "text/plain"

// TextCodec converts values to and from UTF-8 text.
// This codec is lossy for non-string values: they are written using their default
// formatting and read back as strings.
type TextCodec struct {
	mediaType string
}

// GetMediaType returns the text media type of this codec
func (codec *TextCodec) GetMediaType() string {
	return codec.mediaType
}

// ValueToBytes writes strings as-is and other values in their default format
func (codec *TextCodec) ValueToBytes(value interface{}, params map[string]string) ([]byte, error) {
	if err := checkCharset(params); err != nil {
		return nil, err
	}
	switch v := value.(type) {
	case nil:
		return []byte{}, nil
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case fmt.Stringer:
		return []byte(v.String()), nil
	default:
		return []byte(fmt.Sprint(v)), nil
	}
}

// BytesToValue returns the payload as a string. An empty payload results in nil.
func (codec *TextCodec) BytesToValue(body []byte, params map[string]string) (interface{}, error) {
	if err := checkCharset(params); err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, nil
	}
	if !utf8.Valid(body) {
		return nil, fmt.Errorf("payload is not valid utf-8 text")
	}
	return string(body), nil
}

// only utf-8 and its ascii subset are supported
func checkCharset(params map[string]string) error {
	charset := strings.ToLower(params["charset"])
	if charset != "" && charset != "utf-8" && charset != "utf8" && charset != "us-ascii" {
		return fmt.Errorf("charset '%s' is not supported", charset)
	}
	return nil
}

// NewTextCodec creates a text codec for the given media type, eg text/plain or text/html
func NewTextCodec(mediaType string) *TextCodec {
	if mediaType == "" {
		mediaType = MediaTypeText
	}
	return &TextCodec{mediaType: mediaType}
}
