// Package td with Thing Description creation and parsing
package td

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wostzone/wostconsumer-go/api"
)

// addAffordance adds or replaces an affordance in one of the interaction sections of the TD
func addAffordance(td api.ThingTD, section string, name string, affordance map[string]interface{}) {
	if affordance == nil {
		logrus.Errorf("td.addAffordance: %s '%s' is nil. Ignored.", section, name)
		return
	}
	affordances, _ := td[section].(map[string]interface{})
	if affordances == nil {
		affordances = make(map[string]interface{})
		td[section] = affordances
	}
	affordances[name] = affordance
}

// AddTDAction adds or replaces an action created with CreateTDAction
func AddTDAction(td api.ThingTD, name string, action map[string]interface{}) {
	addAffordance(td, api.WoTActions, name, action)
}

// AddTDEvent adds or replaces an event created with CreateTDEvent
func AddTDEvent(td api.ThingTD, name string, event map[string]interface{}) {
	addAffordance(td, api.WoTEvents, name, event)
}

// AddTDProperty adds or replaces a property created with CreateTDProperty
func AddTDProperty(td api.ThingTD, name string, property map[string]interface{}) {
	addAffordance(td, api.WoTProperties, name, property)
}

// AddTDSecurity adds a security definition to the TD and appends it to the security
// schemes that apply to all interactions of the Thing.
//  td is a TD created with 'CreateTD'
//  name of the security definition
//  scheme describing the authentication method
func AddTDSecurity(td api.ThingTD, name string, scheme api.SecurityScheme) {
	secDef := map[string]interface{}{api.WoTSecScheme: scheme.Scheme}
	if scheme.In != "" {
		secDef[api.WoTSecIn] = scheme.In
	}
	if scheme.Name != "" {
		secDef[api.WoTSecName] = scheme.Name
	}
	if scheme.Format != "" {
		secDef[api.WoTSecFormat] = scheme.Format
	}
	if scheme.Alg != "" {
		secDef[api.WoTSecAlg] = scheme.Alg
	}
	if scheme.Authorization != "" {
		secDef[api.WoTSecAuthorization] = scheme.Authorization
	}
	secDefs := td[api.WoTSecurityDefinitions].(map[string]interface{})
	secDefs[name] = secDef

	security, _ := td[api.WoTSecurity].([]string)
	td[api.WoTSecurity] = append(security, name)
}

// RemoveTDProperty removes a property from the TD
func RemoveTDProperty(td api.ThingTD, name string) {
	props, _ := td[api.WoTProperties].(map[string]interface{})
	delete(props, name)
}

// SetTDBase sets the base URI that relative form hrefs are resolved against
func SetTDBase(td api.ThingTD, base string) {
	td[api.WoTBase] = base
}

// SetThingDescription sets the title and description of the Thing
func SetThingDescription(td api.ThingTD, title string, description string) {
	td[api.WoTTitle] = title
	td[api.WoTDescription] = description
}

// CreateForm creates a form for use in an affordance
//  href of the resource, absolute or relative to the TD base
//  contentType of the payload. Use "" for the default application/json
//  ops operations the form supports, eg api.OpReadProperty. None for all operations.
func CreateForm(href string, contentType string, ops ...string) map[string]interface{} {
	form := map[string]interface{}{api.WoTHref: href}
	if contentType != "" {
		form[api.WoTContentType] = contentType
	}
	if len(ops) > 0 {
		form[api.WoTOperation] = ops
	}
	return form
}

// CreateThingID returns the URN "urn:{zone}:{deviceID}:{deviceType}" used as Thing ID
func CreateThingID(zone string, deviceID string, deviceType api.DeviceType) string {
	return fmt.Sprintf("urn:%s:%s:%s", zone, deviceID, deviceType)
}

// CreateTD creates a new Thing Description document without affordances and without security.
// Use AddTDSecurity to declare the security of the Thing.
//  thingID is the unique ID of the Thing
//  title of the Thing for presentation
//  deviceType of the Thing, or "" if not known
func CreateTD(thingID string, title string, deviceType api.DeviceType) api.ThingTD {
	td := make(api.ThingTD)
	td[api.WoTAtContext] = "https://www.w3.org/2019/wot/td/v1"
	td[api.WoTID] = thingID
	td[api.WoTTitle] = title
	if deviceType != "" {
		td[api.WoTAtType] = deviceType
	}
	td[api.WoTCreated] = time.Now().Format(api.TimeFormat)
	for _, section := range []string{api.WoTActions, api.WoTEvents, api.WoTProperties, api.WoTSecurityDefinitions} {
		td[section] = make(map[string]interface{})
	}
	return td
}
