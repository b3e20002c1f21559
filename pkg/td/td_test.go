package td_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wostzone/wostconsumer-go/api"
	"github.com/wostzone/wostconsumer-go/pkg/td"
)

const testTD = `{
  "@context": "https://www.w3.org/2019/wot/td/v1",
  "id": "urn:test:thing1",
  "title": "Thing 1",
  "base": "http://localhost:8080/things/thing1/",
  "securityDefinitions": {
    "basic_sc": {"scheme": "basic", "in": "header"},
    "token_sc": {"scheme": "bearer", "format": "jwt", "alg": "ES256"}
  },
  "security": ["basic_sc", "token_sc"],
  "links": [{"href": "http://localhost:8080/docs", "rel": "help"}],
  "properties": {
    "temperature": {
      "type": "number",
      "minimum": -40,
      "maximum": 120,
      "readOnly": true,
      "observable": true,
      "forms": [
        {"href": "properties/temperature", "op": "readproperty"},
        {"href": "mqtt://localhost:1883/thing1/temperature", "contentType": "application/senml+json", "mqv:topic": "thing1/temperature"}
      ]
    }
  },
  "actions": {
    "reset": {
      "input": {"type": "string"},
      "forms": [{"href": "actions/reset", "mediaType": "text/plain", "htv:methodName": "PUT"}]
    }
  },
  "events": {
    "overheated": {
      "data": {"type": "boolean"},
      "forms": [{"href": "nats://localhost:4222/thing1/overheated"}]
    }
  }
}`

func TestParseTD(t *testing.T) {
	logrus.Infof("--- TestParseTD ---")
	tdoc, err := td.ParseTD(testTD)
	require.NoError(t, err)
	assert.Equal(t, "urn:test:thing1", tdoc.ID)
	assert.Equal(t, "Thing 1", tdoc.Name)
	assert.Len(t, tdoc.Links, 1)

	prop := tdoc.Properties["temperature"]
	require.NotNil(t, prop)
	require.Len(t, prop.Forms, 2)
	assert.True(t, prop.Observable)
	assert.True(t, prop.ReadOnly)
	// base resolution and default content type
	assert.Equal(t, "http://localhost:8080/things/thing1/properties/temperature", prop.Forms[0].Href)
	assert.Equal(t, api.DefaultMediaType, prop.Forms[0].MediaType)
	assert.Equal(t, []string{api.OpReadProperty}, prop.Forms[0].Op)
	// absolute hrefs are kept and hints are preserved
	assert.Equal(t, "mqtt://localhost:1883/thing1/temperature", prop.Forms[1].Href)
	assert.Equal(t, "application/senml+json", prop.Forms[1].MediaType)
	assert.Equal(t, "thing1/temperature", prop.Forms[1].Hint("mqv:topic"))
	assert.True(t, prop.Forms[1].HasOp(api.OpWriteProperty))
	assert.Equal(t, "number", prop.Schema[api.WoTDataType])
	_, hasForms := prop.Schema[api.WoTForms]
	assert.False(t, hasForms)

	action := tdoc.Actions["reset"]
	require.NotNil(t, action)
	// legacy mediaType field
	assert.Equal(t, "text/plain", action.Forms[0].MediaType)
	assert.Equal(t, "PUT", action.Forms[0].Hint("htv:methodName"))
	assert.Equal(t, "string", action.Input[api.WoTDataType])

	event := tdoc.Events["overheated"]
	require.NotNil(t, event)
	assert.Equal(t, "nats://localhost:4222/thing1/overheated", event.Forms[0].Href)
	assert.Equal(t, "boolean", event.Data[api.WoTDataType])
}

func TestParseTDSecurity(t *testing.T) {
	logrus.Infof("--- TestParseTDSecurity ---")
	tdoc, err := td.ParseTD(testTD)
	require.NoError(t, err)
	require.Len(t, tdoc.Security, 2)
	assert.Equal(t, api.SecSchemeBasic, tdoc.Security[0].Scheme)
	assert.Equal(t, api.SecInHeader, tdoc.Security[0].In)
	assert.Equal(t, api.SecSchemeBearer, tdoc.Security[1].Scheme)
	assert.Equal(t, "ES256", tdoc.Security[1].Alg)

	// single name
	tdoc, err = td.ParseTD(`{"title":"t1", "securityDefinitions":{"nosec_sc":{"scheme":"nosec"}}, "security":"nosec_sc"}`)
	require.NoError(t, err)
	require.Len(t, tdoc.Security, 1)
	assert.Equal(t, api.SecSchemeNoSec, tdoc.Security[0].Scheme)

	// legacy inline scheme objects
	tdoc, err = td.ParseTD(`{"name":"t1", "security":[{"scheme":"apikey", "in":"query", "name":"key"}]}`)
	require.NoError(t, err)
	require.Len(t, tdoc.Security, 1)
	assert.Equal(t, "key", tdoc.Security[0].Name)
	assert.Equal(t, "t1", tdoc.Name)

	// no security
	tdoc, err = td.ParseTD(`{"title":"t1"}`)
	require.NoError(t, err)
	assert.Empty(t, tdoc.Security)
}

func TestParseTDInvalidSecurity(t *testing.T) {
	logrus.Infof("--- TestParseTDInvalidSecurity ---")
	_, err := td.ParseTD(`{"title":"t1", "security":"missing_sc"}`)
	assert.True(t, errors.Is(err, td.ErrInvalidSecurity))

	_, err = td.ParseTD(`{"title":"t1", "securityDefinitions":{"x":{"scheme":"magic"}}, "security":"x"}`)
	assert.True(t, errors.Is(err, td.ErrInvalidSecurity))

	_, err = td.ParseTD(`{"title":"t1", "security":[{"scheme":"apikey", "in":"uri"}]}`)
	assert.True(t, errors.Is(err, td.ErrInvalidSecurity))
}

func TestParseTDInvalid(t *testing.T) {
	logrus.Infof("--- TestParseTDInvalid ---")
	_, err := td.ParseTD(`not json`)
	assert.True(t, errors.Is(err, td.ErrInvalidTD))

	// missing title
	_, err = td.ParseTD(`{"id":"urn:1"}`)
	assert.True(t, errors.Is(err, td.ErrInvalidTD))

	// form without href
	_, err = td.ParseTD(`{"title":"t1", "properties":{"p1":{"forms":[{"op":"readproperty"}]}}}`)
	assert.True(t, errors.Is(err, td.ErrInvalidTD))
}

func TestGetField(t *testing.T) {
	logrus.Infof("--- TestGetField ---")
	tdoc, err := td.ParseTD(testTD)
	require.NoError(t, err)
	val, found := tdoc.Get(api.WoTID)
	assert.True(t, found)
	assert.Equal(t, "urn:test:thing1", val)
	val, found = tdoc.Get(api.WoTSecurity)
	assert.True(t, found)
	assert.Len(t, val, 2)
	// raw field without normalized counterpart
	val, found = tdoc.Get(api.WoTAtContext)
	assert.True(t, found)
	assert.Equal(t, "https://www.w3.org/2019/wot/td/v1", val)
	_, found = tdoc.Get("notafield")
	assert.False(t, found)
}

func TestValidateValue(t *testing.T) {
	logrus.Infof("--- TestValidateValue ---")
	tdoc, err := td.ParseTD(testTD)
	require.NoError(t, err)
	schema := tdoc.Properties["temperature"].Schema
	assert.NoError(t, td.ValidateValue(schema, 21.5))
	err = td.ValidateValue(schema, 500)
	assert.True(t, errors.Is(err, td.ErrSchemaValidation))
	err = td.ValidateValue(schema, "hot")
	assert.True(t, errors.Is(err, td.ErrSchemaValidation))
	// no schema accepts anything
	assert.NoError(t, td.ValidateValue(nil, "anything"))
}

func TestCreateTD(t *testing.T) {
	logrus.Infof("--- TestCreateTD ---")
	thingID := td.CreateThingID("test", "thing1", api.DeviceTypeSensor)
	thing := td.CreateTD(thingID, "Thing 1", api.DeviceTypeSensor)
	assert.NotNil(t, thing)
	td.SetTDBase(thing, "http://localhost:8080/")
	td.SetThingDescription(thing, "Thing 1", "First thing")

	td.AddTDSecurity(thing, "basic_sc", api.SecurityScheme{Scheme: api.SecSchemeBasic, In: api.SecInHeader})

	// Define TD property
	prop := td.CreateTDProperty("Prop1", "First property", api.PropertyTypeConfig, td.IntegerSchema(1, 10),
		td.CreateForm("properties/prop1", "", api.OpReadProperty, api.OpWriteProperty))
	td.SetTDPropertyEnum(prop, 1, 2, 3)
	td.SetTDPropertyUnit(prop, "C")
	td.SetTDPropertyObservable(prop, true)
	td.AddTDProperty(thing, "prop1", prop)
	// invalid prop should not blow up
	td.AddTDProperty(thing, "prop2", nil)

	// Define event
	ev1 := td.CreateTDEvent("ev1", "First event", td.StringSchema(0, 0), td.CreateForm("events/ev1", ""))
	td.AddTDEvent(thing, "ev1", ev1)
	td.AddTDEvent(thing, "ev2", nil)

	// Define action with an object input
	input := td.ObjectSchema(map[string]interface{}{
		"level": td.NumberSchema(0, 100),
		"tags":  td.ArraySchema(td.StringSchema(1, 10), 0, 3),
	}, "level")
	ac1 := td.CreateTDAction("action1", "First action", input, td.BoolSchema(),
		td.CreateForm("actions/action1", ""))
	td.AddTDAction(thing, "action1", ac1)
	td.AddTDAction(thing, "action2", nil)

	// The created TD must parse
	tdJSON, err := json.Marshal(thing)
	require.NoError(t, err)
	tdoc, err := td.ParseTD(string(tdJSON))
	require.NoError(t, err)
	assert.Equal(t, thingID, tdoc.ID)
	require.Len(t, tdoc.Security, 1)
	assert.Equal(t, api.SecSchemeBasic, tdoc.Security[0].Scheme)
	require.Contains(t, tdoc.Properties, "prop1")
	assert.False(t, tdoc.Properties["prop1"].ReadOnly)
	assert.Equal(t, "http://localhost:8080/properties/prop1", tdoc.Properties["prop1"].Forms[0].Href)
	assert.Len(t, tdoc.Properties["prop1"].Forms[0].Op, 2)
	assert.NoError(t, td.ValidateValue(tdoc.Properties["prop1"].Schema, 2))
	assert.Error(t, td.ValidateValue(tdoc.Properties["prop1"].Schema, 5))
	require.Contains(t, tdoc.Actions, "action1")
	inSchema := tdoc.Actions["action1"].Input
	assert.NoError(t, td.ValidateValue(inSchema, map[string]interface{}{"level": 50, "tags": []interface{}{"a"}}))
	assert.Error(t, td.ValidateValue(inSchema, map[string]interface{}{"tags": []interface{}{"a"}}))
	assert.Error(t, td.ValidateValue(inSchema, map[string]interface{}{"level": 50, "tags": []interface{}{"a", "b", "c", "d"}}))
	require.Contains(t, tdoc.Events, "ev1")

	td.RemoveTDProperty(thing, "prop1")
	assert.Empty(t, thing[api.WoTProperties])
}
