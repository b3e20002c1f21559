// Package contentserdes with the registry of content codecs for converting between
// application values and encoded content
package contentserdes

import (
	"fmt"
	"mime"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/wostzone/wostconsumer-go/api"
)

// ContentSerdes holds the codecs by media type.
// Conversions are safe for concurrent use, also while codecs are added.
type ContentSerdes struct {
	codecs      map[string]api.IContentCodec
	updateMutex sync.RWMutex
}

// AddCodec adds or replaces the codec for its media type
func (serdes *ContentSerdes) AddCodec(codec api.IContentCodec) {
	mediaType := strings.ToLower(codec.GetMediaType())
	logrus.Debugf("ContentSerdes.AddCodec: %s", mediaType)
	serdes.updateMutex.Lock()
	defer serdes.updateMutex.Unlock()
	serdes.codecs[mediaType] = codec
}

// GetSupportedMediaTypes returns the media types that have a codec
func (serdes *ContentSerdes) GetSupportedMediaTypes() []string {
	serdes.updateMutex.RLock()
	defer serdes.updateMutex.RUnlock()
	mediaTypes := make([]string, 0, len(serdes.codecs))
	for mediaType := range serdes.codecs {
		mediaTypes = append(mediaTypes, mediaType)
	}
	return mediaTypes
}

// IsSupported returns true if a codec exists for the media type. Parameters are ignored.
func (serdes *ContentSerdes) IsSupported(mediaType string) bool {
	_, err := serdes.getCodec(mediaType)
	return err == nil
}

// getCodec returns the codec for the media type and the media type parameters
func (serdes *ContentSerdes) getCodec(mediaType string) (api.IContentCodec, error) {
	codec, _, err := serdes.lookup(mediaType)
	return codec, err
}

func (serdes *ContentSerdes) lookup(mediaType string) (api.IContentCodec, map[string]string, error) {
	baseType, params := ParseMediaType(mediaType)
	serdes.updateMutex.RLock()
	codec, found := serdes.codecs[baseType]
	serdes.updateMutex.RUnlock()
	if !found {
		return nil, params, fmt.Errorf("%w: '%s'", ErrUnsupportedMediaType, mediaType)
	}
	return codec, params, nil
}

// ValueToContent encodes a value into content of the given media type.
//  value to encode. nil encodes to the codec's empty payload.
//  mediaType of the content, including optional parameters. "" for the default media type.
// Returns ErrUnsupportedMediaType or ErrEncode on failure.
func (serdes *ContentSerdes) ValueToContent(value interface{}, mediaType string) (api.Content, error) {
	if mediaType == "" {
		mediaType = api.DefaultMediaType
	}
	codec, params, err := serdes.lookup(mediaType)
	if err != nil {
		logrus.Errorf("ContentSerdes.ValueToContent: %s", err)
		return api.Content{}, err
	}
	body, err := codec.ValueToBytes(value, params)
	if err != nil {
		err = fmt.Errorf("%w: as '%s': %s", ErrEncode, mediaType, err)
		logrus.Errorf("ContentSerdes.ValueToContent: %s", err)
		return api.Content{}, err
	}
	return api.Content{MediaType: mediaType, Body: body}, nil
}

// ContentToValue decodes content into a value.
//  content to decode
//  fallbackMediaType is used when the content has no media type
// Returns ErrUnsupportedMediaType or ErrDecode on failure.
func (serdes *ContentSerdes) ContentToValue(content api.Content, fallbackMediaType string) (interface{}, error) {
	mediaType := content.MediaType
	if mediaType == "" {
		mediaType = fallbackMediaType
	}
	if mediaType == "" {
		mediaType = api.DefaultMediaType
	}
	codec, params, err := serdes.lookup(mediaType)
	if err != nil {
		logrus.Errorf("ContentSerdes.ContentToValue: %s", err)
		return nil, err
	}
	value, err := codec.BytesToValue(content.Body, params)
	if err != nil {
		err = fmt.Errorf("%w: as '%s': %s", ErrDecode, mediaType, err)
		logrus.Errorf("ContentSerdes.ContentToValue: %s", err)
		return nil, err
	}
	return value, nil
}

// ParseMediaType splits a media type into its lower case base type and parameters.
// Malformed parameters are ignored.
func ParseMediaType(mediaType string) (baseType string, params map[string]string) {
	baseType, params, err := mime.ParseMediaType(mediaType)
	if err != nil {
		baseType = strings.TrimSpace(strings.Split(mediaType, ";")[0])
		params = make(map[string]string)
	}
	return strings.ToLower(baseType), params
}

// NewContentSerdes creates a codec registry without codecs
func NewContentSerdes() *ContentSerdes {
	serdes := &ContentSerdes{
		codecs: make(map[string]api.IContentCodec),
	}
	return serdes
}

// NewDefaultContentSerdes creates a codec registry with all codecs of this package:
// JSON, plain text, octet-stream, CBOR, SenML JSON and SenML CBOR
func NewDefaultContentSerdes() *ContentSerdes {
	serdes := NewContentSerdes()
	serdes.AddCodec(NewJsonCodec(api.DefaultMediaType))
	serdes.AddCodec(NewJsonCodec(MediaTypeLDJSON))
	serdes.AddCodec(NewJsonCodec(MediaTypeTDJSON))
	serdes.AddCodec(NewTextCodec(MediaTypeText))
	serdes.AddCodec(NewOctetStreamCodec())
	serdes.AddCodec(NewCborCodec())
	serdes.AddCodec(NewSenmlCodec(MediaTypeSenmlJSON))
	serdes.AddCodec(NewSenmlCodec(MediaTypeSenmlCBOR))
	return serdes
}

var defaultSerdes *ContentSerdes
var defaultOnce sync.Once

// Default returns the shared codec registry with the default codecs
func Default() *ContentSerdes {
	defaultOnce.Do(func() {
		defaultSerdes = NewDefaultContentSerdes()
	})
	return defaultSerdes
}
