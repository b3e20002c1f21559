package consumedthing

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wostzone/wostconsumer-go/pkg/contentserdes"
	"github.com/wostzone/wostconsumer-go/pkg/td"
)

// Property is the handle of a property of a consumed Thing
type Property struct {
	interaction
	Affordance *td.PropertyAffordance
	validate   bool
}

// Get reads and decodes the property value
func (prop *Property) Get(ctx context.Context) (interface{}, error) {
	return prop.read(ctx)
}

// Set encodes the value with the form media type and writes it
// If value validation is enabled the value must match the property data schema.
func (prop *Property) Set(ctx context.Context, value interface{}) (err error) {
	start := time.Now()
	defer func() { prop.resolver.Metrics.observeInteraction(prop.resolver.ThingID, prop.kind, start, err) }()

	if prop.validate && prop.Affordance != nil {
		if err = td.ValidateValue(prop.Affordance.Schema, value); err != nil {
			logrus.Errorf("Property.Set: Value for property '%s' rejected: %s", prop.name, err)
			return err
		}
	}
	client, form, err := prop.resolver.GetClientFor(prop.forms)
	if err != nil {
		return err
	}
	content, err := prop.serdes.ValueToContent(value, form.MediaType)
	if err != nil {
		return err
	}
	logrus.Infof("Property.Set: Thing '%s' writing %s with '%v'", prop.resolver.ThingName, form.Href, value)
	err = client.WriteResource(ctx, form, content)
	if err != nil {
		logrus.Warningf("Property.Set: Failed writing property '%s': %s", prop.name, err)
	}
	return err
}

// Observe invokes the handler with each change notification of the property value.
// Returns ErrNotSupported if the protocol client cannot deliver notifications.
func (prop *Property) Observe(ctx context.Context, handler func(value interface{})) (unsubscribe func(), err error) {
	return prop.subscribe(ctx, handler)
}

// NewProperty creates a property handle
//  resolver shared by all interactions of the Thing
//  serdes to encode and decode values
//  affordance of the property from the TD
//  validate values against the property data schema before writing
func NewProperty(resolver *Resolver, serdes *contentserdes.ContentSerdes,
	affordance *td.PropertyAffordance, validate bool) *Property {
	return &Property{
		interaction: interaction{
			name:     affordance.Name,
			kind:     KindProperty,
			forms:    affordance.Forms,
			resolver: resolver,
			serdes:   serdes,
		},
		Affordance: affordance,
		validate:   validate,
	}
}
