package contentserdes_test

import (
	"errors"
	"testing"

	"github.com/farshidtz/senml/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wostzone/wostconsumer-go/api"
	"github.com/wostzone/wostconsumer-go/pkg/contentserdes"
)

func TestRoundTripJson(t *testing.T) {
	logrus.Infof("--- TestRoundTripJson ---")
	serdes := contentserdes.NewDefaultContentSerdes()
	values := []interface{}{
		map[string]interface{}{"x": float64(1), "name": "lamp", "on": true},
		[]interface{}{"a", float64(2), nil},
		"hello",
		float64(21.5),
		false,
		nil,
	}
	for _, value := range values {
		content, err := serdes.ValueToContent(value, api.DefaultMediaType)
		require.NoError(t, err)
		assert.Equal(t, api.DefaultMediaType, content.MediaType)
		value2, err := serdes.ContentToValue(content, api.DefaultMediaType)
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(value, value2))
	}
}

func TestRoundTripText(t *testing.T) {
	serdes := contentserdes.NewDefaultContentSerdes()
	content, err := serdes.ValueToContent("hello world", "text/plain; charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(content.Body))
	value, err := serdes.ContentToValue(content, "")
	require.NoError(t, err)
	assert.Equal(t, "hello world", value)

	// numbers are written in their default format and read back as text
	content, err = serdes.ValueToContent(42, contentserdes.MediaTypeText)
	require.NoError(t, err)
	assert.Equal(t, "42", string(content.Body))

	_, err = serdes.ValueToContent("text", "text/plain; charset=latin1")
	assert.True(t, errors.Is(err, contentserdes.ErrEncode))
}

func TestRoundTripOctetStream(t *testing.T) {
	serdes := contentserdes.NewDefaultContentSerdes()
	data := []byte{1, 2, 3, 255}
	content, err := serdes.ValueToContent(data, contentserdes.MediaTypeOctetStream)
	require.NoError(t, err)
	value, err := serdes.ContentToValue(content, "")
	require.NoError(t, err)
	assert.Equal(t, data, value)

	_, err = serdes.ValueToContent(3.14, contentserdes.MediaTypeOctetStream)
	assert.True(t, errors.Is(err, contentserdes.ErrEncode))
}

func TestRoundTripCbor(t *testing.T) {
	serdes := contentserdes.NewDefaultContentSerdes()
	values := []interface{}{
		map[string]interface{}{"name": "lamp", "brightness": 0.5, "on": true},
		[]interface{}{"a", "b"},
		"hello",
		uint64(7),
		int64(-7),
		nil,
	}
	for _, value := range values {
		content, err := serdes.ValueToContent(value, contentserdes.MediaTypeCBOR)
		require.NoError(t, err)
		value2, err := serdes.ContentToValue(content, "")
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(value, value2))
	}
}

func TestRoundTripSenml(t *testing.T) {
	serdes := contentserdes.NewDefaultContentSerdes()
	temperature := 21.5
	pack := senml.Pack{
		{BaseName: "urn:dev:ow:10e2073a01080063:", Name: "temp", Unit: "Cel", Value: &temperature},
		{Name: "label", StringValue: "kitchen"},
	}
	for _, mediaType := range []string{contentserdes.MediaTypeSenmlJSON, contentserdes.MediaTypeSenmlCBOR} {
		content, err := serdes.ValueToContent(pack, mediaType)
		require.NoError(t, err)
		value, err := serdes.ContentToValue(content, "")
		require.NoError(t, err)
		pack2, ok := value.(senml.Pack)
		require.True(t, ok)
		require.Len(t, pack2, 2)
		assert.Equal(t, "temp", pack2[0].Name)
		require.NotNil(t, pack2[0].Value)
		assert.Equal(t, temperature, *pack2[0].Value)
		assert.Equal(t, "kitchen", pack2[1].StringValue)
	}
}

func TestFallbackMediaType(t *testing.T) {
	serdes := contentserdes.NewDefaultContentSerdes()
	content := api.Content{Body: []byte("plain text")}
	// without media type the fallback is used
	value, err := serdes.ContentToValue(content, contentserdes.MediaTypeText)
	require.NoError(t, err)
	assert.Equal(t, "plain text", value)

	// the content media type takes precedence over the fallback
	content = api.Content{MediaType: api.DefaultMediaType, Body: []byte(`{"x":1}`)}
	value, err = serdes.ContentToValue(content, contentserdes.MediaTypeText)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"x": float64(1)}, value)
}

func TestUnsupportedMediaType(t *testing.T) {
	serdes := contentserdes.NewDefaultContentSerdes()
	_, err := serdes.ValueToContent("value", "application/x-unknown")
	assert.True(t, errors.Is(err, contentserdes.ErrUnsupportedMediaType))

	_, err = serdes.ContentToValue(api.Content{MediaType: "image/png", Body: []byte{1}}, "")
	assert.True(t, errors.Is(err, contentserdes.ErrUnsupportedMediaType))
	assert.False(t, serdes.IsSupported("image/png"))
	assert.True(t, serdes.IsSupported("Application/JSON; charset=utf-8"))
}

func TestDecodeError(t *testing.T) {
	serdes := contentserdes.NewDefaultContentSerdes()
	_, err := serdes.ContentToValue(api.Content{MediaType: api.DefaultMediaType, Body: []byte("{bad json")}, "")
	assert.True(t, errors.Is(err, contentserdes.ErrDecode))

	_, err = serdes.ValueToContent(make(chan int), api.DefaultMediaType)
	assert.True(t, errors.Is(err, contentserdes.ErrEncode))
}

func TestEmptyPayload(t *testing.T) {
	serdes := contentserdes.Default()
	content, err := serdes.ValueToContent(nil, "")
	require.NoError(t, err)
	assert.Equal(t, api.DefaultMediaType, content.MediaType)
	assert.Empty(t, content.Body)
	value, err := serdes.ContentToValue(content, "")
	assert.NoError(t, err)
	assert.Nil(t, value)
}

func TestParseMediaType(t *testing.T) {
	base, params := contentserdes.ParseMediaType("Text/Plain; charset=UTF-8")
	assert.Equal(t, "text/plain", base)
	assert.Equal(t, "UTF-8", params["charset"])

	base, _ = contentserdes.ParseMediaType("application/json;;bad")
	assert.Equal(t, "application/json", base)
	assert.Contains(t, contentserdes.Default().GetSupportedMediaTypes(), contentserdes.MediaTypeCBOR)
}
