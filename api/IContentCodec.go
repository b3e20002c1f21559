package api

// IContentCodec converts between application values and the bytes of one media type.
// Codecs are stateless and safe for concurrent use.
type IContentCodec interface {
	// GetMediaType returns the media type without parameters, eg "application/json"
	GetMediaType() string

	// ValueToBytes serializes the value. A nil value serializes to the codec's empty payload.
	//  params are the media type parameters, eg charset
	ValueToBytes(value interface{}, params map[string]string) ([]byte, error)

	// BytesToValue deserializes the payload. An empty payload deserializes to nil.
	//  params are the media type parameters, eg charset
	BytesToValue(body []byte, params map[string]string) (interface{}, error)
}
