// Package api with the WoT Thing Description vocabulary used by the consumer
package api

// TimeFormat used for the TD 'created' and 'modified' fields
const TimeFormat = "2006-01-02T15:04:05.000-0700"

// DefaultMediaType is the TD default content type of forms that do not declare one
const DefaultMediaType = "application/json"

// Thing Description document top level fields
const (
	WoTAtContext           = "@context"
	WoTAtType              = "@type"
	WoTActions             = "actions"
	WoTBase                = "base"
	WoTCreated             = "created"
	WoTDescription         = "description"
	WoTEvents              = "events"
	WoTForms               = "forms"
	WoTID                  = "id"
	WoTLinks               = "links"
	WoTModified            = "modified"
	WoTName                = "name" // legacy TD drafts use name instead of title
	WoTProperties          = "properties"
	WoTSecurity            = "security"
	WoTSecurityDefinitions = "securityDefinitions"
	WoTSupport             = "support"
	WoTTitle               = "title"
	WoTVersion             = "version"
)

// Affordance and data schema fields
const (
	WoTData       = "data"
	WoTDataType   = "type"
	WoTInput      = "input"
	WoTObservable = "observable"
	WoTOutput     = "output"
	WoTReadOnly   = "readOnly"
	WoTRequired   = "required"
	WoTUnit       = "unit"
	WoTWriteOnly  = "writeOnly"
)

// Form fields
const (
	WoTContentType = "contentType"
	WoTHref        = "href"
	WoTMediaType   = "mediaType" // legacy TD drafts use mediaType instead of contentType
	WoTOperation   = "op"
	WoTSubprotocol = "subprotocol"
)

// Security scheme fields
const (
	WoTSecAlg           = "alg"
	WoTSecAuthorization = "authorization"
	WoTSecFormat        = "format"
	WoTSecIn            = "in"
	WoTSecName          = "name"
	WoTSecScheme        = "scheme"
)

// Form operation types
const (
	OpReadProperty    = "readproperty"
	OpWriteProperty   = "writeproperty"
	OpObserveProperty = "observeproperty"
	OpInvokeAction    = "invokeaction"
	OpSubscribeEvent  = "subscribeevent"
)

// Data types of a data schema
const (
	DataTypeArray  = "array"
	DataTypeBool   = "boolean"
	DataTypeInt    = "integer"
	DataTypeNull   = "null"
	DataTypeNumber = "number"
	DataTypeObject = "object"
	DataTypeString = "string"
)

// DeviceType is the TD @type of a Thing
type DeviceType string

// Common device types
const (
	DeviceTypeSensor     DeviceType = "sensor"
	DeviceTypeSwitch     DeviceType = "switch"
	DeviceTypeThermostat DeviceType = "thermostat"
	DeviceTypeLight      DeviceType = "light"
	DeviceTypeService    DeviceType = "service"
)

// ThingPropType is the @type of a TD property
type ThingPropType string

// Property types. Configuration properties are writable.
const (
	PropertyTypeAttr   ThingPropType = "attr"
	PropertyTypeConfig ThingPropType = "configuration"
	PropertyTypeInput  ThingPropType = "input"
	PropertyTypeOutput ThingPropType = "output"
	PropertyTypeState  ThingPropType = "state"
)

// ThingTD contains the Thing Description document as a JSON object
type ThingTD map[string]interface{}
