package td

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/sirupsen/logrus"
	"github.com/wostzone/wostconsumer-go/api"
)

// DataSchema describes the data of a property, action input/output or event
type DataSchema map[string]interface{}

// InteractionAffordance holds the fields shared by properties, actions and events
type InteractionAffordance struct {
	Name        string
	Title       string
	Description string
	// Forms in the order declared in the TD, with hrefs resolved against the TD base
	Forms []api.Form
}

// PropertyAffordance of a parsed TD. The property itself is its data schema.
type PropertyAffordance struct {
	InteractionAffordance
	Schema     DataSchema
	Observable bool
	ReadOnly   bool
	WriteOnly  bool
}

// ActionAffordance of a parsed TD
type ActionAffordance struct {
	InteractionAffordance
	Input      DataSchema
	Output     DataSchema
	Safe       bool
	Idempotent bool
}

// EventAffordance of a parsed TD
type EventAffordance struct {
	InteractionAffordance
	Data DataSchema
}

// ThingDescription is the normalized model of a TD document
type ThingDescription struct {
	ID          string
	Name        string
	Description string
	Base        string
	// Security holds the security schemes that apply to all interactions, in declaration order
	Security   []api.SecurityScheme
	Links      []interface{}
	Forms      []api.Form
	Properties map[string]*PropertyAffordance
	Actions    map[string]*ActionAffordance
	Events     map[string]*EventAffordance
	// raw is the decoded document for fields that have no normalized counterpart
	raw map[string]interface{}
}

// Get returns the value of a TD field. Normalized fields take precedence over the raw document.
// Supported normalized fields are id, title, name, description, base, security and links.
//  field is the name of the top level field, eg "id"
// Returns the value and true, or nil and false if the TD doesn't have the field
func (tdoc *ThingDescription) Get(field string) (interface{}, bool) {
	switch field {
	case api.WoTID:
		return tdoc.ID, true
	case api.WoTTitle, api.WoTName:
		return tdoc.Name, true
	case api.WoTBase:
		if tdoc.Base != "" {
			return tdoc.Base, true
		}
	case api.WoTSecurity:
		return tdoc.Security, true
	case api.WoTLinks:
		return tdoc.Links, true
	}
	val, found := tdoc.raw[field]
	return val, found
}

// ParseTD parses and normalizes a JSON encoded Thing Description.
// The document is first validated against the TD document schema. Form hrefs are resolved
// against the TD base, form content types default to application/json and the security
// names are resolved to their definitions.
//  doc is the JSON encoded TD document
// Returns the normalized TD or an error if the document is not a valid TD
func ParseTD(doc string) (*ThingDescription, error) {
	if err := ValidateTD(doc); err != nil {
		return nil, err
	}
	raw := make(map[string]interface{})
	if err := json.Unmarshal([]byte(doc), &raw); err != nil {
		logrus.Errorf("ParseTD: Failed decoding TD: %s", err)
		return nil, fmt.Errorf("%w: %s", ErrInvalidTD, err)
	}
	tdoc := &ThingDescription{
		ID:          getString(raw, api.WoTID),
		Name:        getString(raw, api.WoTTitle),
		Description: getString(raw, api.WoTDescription),
		Base:        getString(raw, api.WoTBase),
		Properties:  make(map[string]*PropertyAffordance),
		Actions:     make(map[string]*ActionAffordance),
		Events:      make(map[string]*EventAffordance),
		raw:         raw,
	}
	if tdoc.Name == "" {
		tdoc.Name = getString(raw, api.WoTName)
	}
	if links, ok := raw[api.WoTLinks].([]interface{}); ok {
		tdoc.Links = links
	}
	var err error
	tdoc.Security, err = parseSecurity(raw)
	if err != nil {
		return nil, err
	}
	tdoc.Forms, err = parseForms(tdoc.Base, raw[api.WoTForms])
	if err != nil {
		return nil, err
	}

	for name, affordance := range getObjectMap(raw, api.WoTProperties) {
		iaff, err := parseInteraction(tdoc.Base, name, affordance)
		if err != nil {
			return nil, err
		}
		schema := make(DataSchema)
		for key, val := range affordance {
			if key != api.WoTForms {
				schema[key] = val
			}
		}
		tdoc.Properties[name] = &PropertyAffordance{
			InteractionAffordance: iaff,
			Schema:                schema,
			Observable:            getBool(affordance, api.WoTObservable),
			ReadOnly:              getBool(affordance, api.WoTReadOnly),
			WriteOnly:             getBool(affordance, api.WoTWriteOnly),
		}
	}
	for name, affordance := range getObjectMap(raw, api.WoTActions) {
		iaff, err := parseInteraction(tdoc.Base, name, affordance)
		if err != nil {
			return nil, err
		}
		tdoc.Actions[name] = &ActionAffordance{
			InteractionAffordance: iaff,
			Input:                 getSchema(affordance, api.WoTInput),
			Output:                getSchema(affordance, api.WoTOutput),
			Safe:                  getBool(affordance, "safe"),
			Idempotent:            getBool(affordance, "idempotent"),
		}
	}
	for name, affordance := range getObjectMap(raw, api.WoTEvents) {
		iaff, err := parseInteraction(tdoc.Base, name, affordance)
		if err != nil {
			return nil, err
		}
		tdoc.Events[name] = &EventAffordance{
			InteractionAffordance: iaff,
			Data:                  getSchema(affordance, api.WoTData),
		}
	}
	logrus.Debugf("ParseTD: Thing '%s' has %d properties, %d actions and %d events",
		tdoc.ID, len(tdoc.Properties), len(tdoc.Actions), len(tdoc.Events))
	return tdoc, nil
}

// parse the fields shared by all affordances
func parseInteraction(base string, name string, affordance map[string]interface{}) (InteractionAffordance, error) {
	forms, err := parseForms(base, affordance[api.WoTForms])
	if err != nil {
		return InteractionAffordance{}, fmt.Errorf("%w: affordance '%s': %s", ErrInvalidTD, name, err)
	}
	return InteractionAffordance{
		Name:        name,
		Title:       getString(affordance, api.WoTTitle),
		Description: getString(affordance, api.WoTDescription),
		Forms:       forms,
	}, nil
}

// parseForms converts a list of form objects into api.Form
// The form href is resolved against base. The media type defaults to application/json.
func parseForms(base string, formList interface{}) ([]api.Form, error) {
	list, _ := formList.([]interface{})
	forms := make([]api.Form, 0, len(list))
	var baseURL *url.URL
	if base != "" {
		var err error
		baseURL, err = url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid base '%s'", ErrInvalidTD, base)
		}
	}
	for _, item := range list {
		formObj, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: form is not an object", ErrInvalidTD)
		}
		form := api.Form{Hints: make(map[string]interface{})}
		href := getString(formObj, api.WoTHref)
		hrefURL, err := url.Parse(href)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid href '%s'", ErrInvalidTD, href)
		}
		if baseURL != nil {
			hrefURL = baseURL.ResolveReference(hrefURL)
		}
		form.Href = hrefURL.String()

		form.MediaType = getString(formObj, api.WoTContentType)
		if form.MediaType == "" {
			form.MediaType = getString(formObj, api.WoTMediaType)
		}
		if form.MediaType == "" {
			form.MediaType = api.DefaultMediaType
		}
		switch op := formObj[api.WoTOperation].(type) {
		case string:
			form.Op = []string{op}
		case []interface{}:
			for _, o := range op {
				if opName, ok := o.(string); ok {
					form.Op = append(form.Op, opName)
				}
			}
		}
		form.Subprotocol = getString(formObj, api.WoTSubprotocol)

		for key, val := range formObj {
			switch key {
			case api.WoTHref, api.WoTContentType, api.WoTMediaType, api.WoTOperation, api.WoTSubprotocol:
			default:
				form.Hints[key] = val
			}
		}
		forms = append(forms, form)
	}
	return forms, nil
}

// parseSecurity resolves the TD security field into a list of schemes.
// The security field holds a definition name, a list of definition names, or inline scheme
// objects as used by older TD versions.
func parseSecurity(raw map[string]interface{}) ([]api.SecurityScheme, error) {
	definitions := getObjectMap(raw, api.WoTSecurityDefinitions)
	var entries []interface{}
	switch sec := raw[api.WoTSecurity].(type) {
	case nil:
		return nil, nil
	case string:
		entries = []interface{}{sec}
	case []interface{}:
		entries = sec
	case map[string]interface{}:
		entries = []interface{}{sec}
	default:
		return nil, fmt.Errorf("%w: unexpected security type %T", ErrInvalidSecurity, sec)
	}
	schemes := make([]api.SecurityScheme, 0, len(entries))
	for _, entry := range entries {
		var schemeObj map[string]interface{}
		switch e := entry.(type) {
		case string:
			def, found := definitions[e]
			if !found {
				logrus.Errorf("parseSecurity: Security definition '%s' not found", e)
				return nil, fmt.Errorf("%w: unknown security definition '%s'", ErrInvalidSecurity, e)
			}
			schemeObj = def
		case map[string]interface{}:
			schemeObj = e
		default:
			return nil, fmt.Errorf("%w: unexpected security entry %T", ErrInvalidSecurity, entry)
		}
		scheme, err := parseSecurityScheme(schemeObj)
		if err != nil {
			return nil, err
		}
		schemes = append(schemes, scheme)
	}
	return schemes, nil
}

// parseSecurityScheme converts and validates a single security scheme object
func parseSecurityScheme(schemeObj map[string]interface{}) (api.SecurityScheme, error) {
	scheme := api.SecurityScheme{
		Scheme:        getString(schemeObj, api.WoTSecScheme),
		Description:   getString(schemeObj, api.WoTDescription),
		In:            getString(schemeObj, api.WoTSecIn),
		Name:          getString(schemeObj, api.WoTSecName),
		Format:        getString(schemeObj, api.WoTSecFormat),
		Alg:           getString(schemeObj, api.WoTSecAlg),
		Authorization: getString(schemeObj, api.WoTSecAuthorization),
	}
	switch scheme.Scheme {
	case api.SecSchemeNoSec, api.SecSchemeBasic, api.SecSchemeDigest, api.SecSchemeBearer,
		api.SecSchemeAPIKey, api.SecSchemePSK, api.SecSchemeCert, api.SecSchemeOAuth2:
	default:
		return scheme, fmt.Errorf("%w: unsupported scheme '%s'", ErrInvalidSecurity, scheme.Scheme)
	}
	switch scheme.In {
	case "", api.SecInHeader, api.SecInQuery, api.SecInBody, api.SecInCookie:
	default:
		return scheme, fmt.Errorf("%w: invalid credentials location '%s'", ErrInvalidSecurity, scheme.In)
	}
	return scheme, nil
}

func getString(obj map[string]interface{}, key string) string {
	val, _ := obj[key].(string)
	return val
}

func getBool(obj map[string]interface{}, key string) bool {
	val, _ := obj[key].(bool)
	return val
}

func getSchema(obj map[string]interface{}, key string) DataSchema {
	val, _ := obj[key].(map[string]interface{})
	return val
}

// getObjectMap returns the name-keyed map of objects in obj[key], skipping non-object entries
func getObjectMap(obj map[string]interface{}, key string) map[string]map[string]interface{} {
	result := make(map[string]map[string]interface{})
	entries, _ := obj[key].(map[string]interface{})
	for name, entry := range entries {
		if entryObj, ok := entry.(map[string]interface{}); ok {
			result[name] = entryObj
		}
	}
	return result
}
