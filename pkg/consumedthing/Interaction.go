package consumedthing

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wostzone/wostconsumer-go/api"
	"github.com/wostzone/wostconsumer-go/pkg/contentserdes"
)

// Interaction kinds used in logging and metrics
const (
	KindProperty = "property"
	KindAction   = "action"
	KindEvent    = "event"
)

// interaction holds what property, action and event handles have in common
type interaction struct {
	name     string
	kind     string
	forms    []api.Form
	resolver *Resolver
	serdes   *contentserdes.ContentSerdes
}

// GetName returns the name of the interaction in the TD
func (ia *interaction) GetName() string {
	return ia.name
}

// GetForms returns the forms of the interaction
func (ia *interaction) GetForms() []api.Form {
	return ia.forms
}

// read the resource and decode its content
// If the content has no media type the form media type is used.
func (ia *interaction) read(ctx context.Context) (value interface{}, err error) {
	start := time.Now()
	defer func() { ia.resolver.Metrics.observeInteraction(ia.resolver.ThingID, ia.kind, start, err) }()

	client, form, err := ia.resolver.GetClientFor(ia.forms)
	if err != nil {
		return nil, err
	}
	logrus.Infof("Interaction.read: Thing '%s' reading %s '%s' at %s",
		ia.resolver.ThingName, ia.kind, ia.name, form.Href)
	content, err := client.ReadResource(ctx, form)
	if err != nil {
		logrus.Warningf("Interaction.read: Failed reading %s '%s': %s", ia.kind, ia.name, err)
		return nil, err
	}
	return ia.serdes.ContentToValue(content, form.MediaType)
}

// subscribe to notifications of the resource and pass the decoded values to the handler
// Notifications that fail to decode are logged and dropped.
func (ia *interaction) subscribe(ctx context.Context, handler func(value interface{})) (func(), error) {
	client, form, err := ia.resolver.GetClientFor(ia.forms)
	if err != nil {
		return nil, err
	}
	subClient, ok := client.(api.ISubscriptionClient)
	if !ok {
		logrus.Errorf("Interaction.subscribe: Client for %s does not support notifications", form.Href)
		return nil, ErrNotSupported
	}
	logrus.Infof("Interaction.subscribe: Thing '%s' subscribing to %s '%s' at %s",
		ia.resolver.ThingName, ia.kind, ia.name, form.Href)
	return subClient.SubscribeResource(ctx, form, func(content api.Content) {
		value, err := ia.serdes.ContentToValue(content, form.MediaType)
		if err != nil {
			logrus.Warningf("Interaction.subscribe: Dropped %s '%s' notification: %s", ia.kind, ia.name, err)
			return
		}
		handler(value)
	})
}
