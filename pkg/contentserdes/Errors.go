package contentserdes

import "errors"

// ErrUnsupportedMediaType is returned when no codec is registered for a media type
var ErrUnsupportedMediaType = errors.New("unsupported media type")

// ErrEncode is returned when a codec is unable to serialize a value
var ErrEncode = errors.New("encoding failed")

// ErrDecode is returned when a codec is unable to deserialize a payload
var ErrDecode = errors.New("decoding failed")
