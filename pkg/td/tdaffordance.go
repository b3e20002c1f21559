package td

import "github.com/wostzone/wostconsumer-go/api"

// Data schema and interaction affordance builders.
// Schemas are plain maps so they can be used as property definition, action input and output,
// and event data alike.

// BoolSchema returns a boolean data schema
func BoolSchema() map[string]interface{} {
	return map[string]interface{}{api.WoTDataType: api.DataTypeBool}
}

// IntegerSchema returns an integer data schema with optional limits.
// Limits are left out when min and max are both 0.
func IntegerSchema(min int, max int) map[string]interface{} {
	schema := map[string]interface{}{api.WoTDataType: api.DataTypeInt}
	if min != 0 || max != 0 {
		schema["minimum"] = min
		schema["maximum"] = max
	}
	return schema
}

// NumberSchema returns a floating point data schema with optional limits.
// Limits are left out when min and max are both 0.
func NumberSchema(min float64, max float64) map[string]interface{} {
	schema := map[string]interface{}{api.WoTDataType: api.DataTypeNumber}
	if min != 0 || max != 0 {
		schema["minimum"] = min
		schema["maximum"] = max
	}
	return schema
}

// StringSchema returns a string data schema. A maxLength of 0 means no length restriction.
func StringSchema(minLength int, maxLength int) map[string]interface{} {
	schema := map[string]interface{}{api.WoTDataType: api.DataTypeString}
	if maxLength > 0 {
		schema["minLength"] = minLength
		schema["maxLength"] = maxLength
	}
	return schema
}

// ArraySchema returns an array data schema
//  items schema of each array item, nil to allow any item
//  maxItems maximum nr of items, 0 for unlimited
func ArraySchema(items map[string]interface{}, minItems uint, maxItems uint) map[string]interface{} {
	schema := map[string]interface{}{api.WoTDataType: api.DataTypeArray}
	if items != nil {
		schema["items"] = items
	}
	if maxItems > 0 {
		schema["minItems"] = minItems
		schema["maxItems"] = maxItems
	}
	return schema
}

// ObjectSchema returns an object data schema
//  properties schema of each object field by field name
//  required names of fields that must be present
func ObjectSchema(properties map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{api.WoTDataType: api.DataTypeObject}
	if properties != nil {
		schema[api.WoTProperties] = properties
	}
	if len(required) > 0 {
		schema[api.WoTRequired] = required
	}
	return schema
}

// describe adds title and description to an affordance
func describe(affordance map[string]interface{}, title string, description string) {
	affordance[api.WoTTitle] = title
	if description != "" {
		affordance[api.WoTDescription] = description
	}
}

// CreateTDProperty creates a property affordance.
// The data schema fields are copied into the property itself, as properties are data schemas.
// Only configuration properties are writable.
//  propType is the @type of the property
//  schema with the property data schema, nil for untyped properties
//  forms created with CreateForm
func CreateTDProperty(title string, description string, propType api.ThingPropType,
	schema map[string]interface{}, forms ...map[string]interface{}) map[string]interface{} {

	prop := make(map[string]interface{}, len(schema)+5)
	for key, val := range schema {
		prop[key] = val
	}
	prop[api.WoTAtType] = propType
	describe(prop, title, description)
	prop[api.WoTReadOnly] = propType != api.PropertyTypeConfig
	prop[api.WoTForms] = forms
	return prop
}

// SetTDPropertyObservable marks the property as observable
func SetTDPropertyObservable(prop map[string]interface{}, observable bool) {
	prop[api.WoTObservable] = observable
}

// SetTDPropertyEnum restricts the property value to the given values
func SetTDPropertyEnum(prop map[string]interface{}, enumValues ...interface{}) {
	prop["enum"] = enumValues
}

func SetTDPropertyUnit(prop map[string]interface{}, unit string) {
	prop[api.WoTUnit] = unit
}

// CreateTDAction creates an action affordance
//  input schema of the action input, nil if the action takes no input
//  output schema of the action result, nil if the action has no result
func CreateTDAction(title string, description string,
	input map[string]interface{}, output map[string]interface{},
	forms ...map[string]interface{}) map[string]interface{} {

	action := make(map[string]interface{})
	describe(action, title, description)
	if input != nil {
		action[api.WoTInput] = input
	}
	if output != nil {
		action[api.WoTOutput] = output
	}
	action[api.WoTForms] = forms
	return action
}

// CreateTDEvent creates an event affordance
//  data schema of the event payload, nil if the event carries no data
func CreateTDEvent(title string, description string,
	data map[string]interface{}, forms ...map[string]interface{}) map[string]interface{} {

	event := make(map[string]interface{})
	describe(event, title, description)
	if data != nil {
		event[api.WoTData] = data
	}
	event[api.WoTForms] = forms
	return event
}
