// Package consumedthing with the consumer side of Thing interactions
package consumedthing

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/wostzone/wostconsumer-go/api"
	"github.com/wostzone/wostconsumer-go/pkg/contentserdes"
	"github.com/wostzone/wostconsumer-go/pkg/td"
	"golang.org/x/sync/errgroup"
)

// Options for creating a consumed Thing
type Options struct {
	// Serdes converts values to content. Default is contentserdes.Default()
	Serdes *contentserdes.ContentSerdes
	// Metrics to record interactions with, or nil
	Metrics *Metrics
	// ValidateValues validates property writes and action inputs against the TD data schema
	ValidateValues bool
}

// ConsumedThing is the consumer's view of a remote Thing described by a TD.
// All interactions of the Thing share one protocol client per scheme.
type ConsumedThing struct {
	tdDoc      string
	tdModel    *td.ThingDescription
	resolver   *Resolver
	Properties map[string]*Property
	Actions    map[string]*Action
	Events     map[string]*Event
}

// GetThingDescription returns the TD document this Thing was created with, unmodified
func (cThing *ConsumedThing) GetThingDescription() string {
	return cThing.tdDoc
}

// GetModel returns the parsed TD
func (cThing *ConsumedThing) GetModel() *td.ThingDescription {
	return cThing.tdModel
}

// GetClientCache returns the client cache shared by the interactions of this Thing
func (cThing *ConsumedThing) GetClientCache() *ClientCache {
	return cThing.resolver.Cache
}

// Get returns a field of the parsed TD, eg "id", "name", "security" or "links"
func (cThing *ConsumedThing) Get(field string) (interface{}, bool) {
	return cThing.tdModel.Get(field)
}

// GetID returns the Thing ID
func (cThing *ConsumedThing) GetID() string {
	return cThing.tdModel.ID
}

// GetName returns the Thing name from its TD title
func (cThing *ConsumedThing) GetName() string {
	return cThing.tdModel.Name
}

// ReadProperty reads the value of the named property
// Returns ErrNotFound if the Thing has no such property
func (cThing *ConsumedThing) ReadProperty(ctx context.Context, name string) (interface{}, error) {
	prop, found := cThing.Properties[name]
	if !found {
		return nil, fmt.Errorf("%w: property '%s'", ErrNotFound, name)
	}
	return prop.Get(ctx)
}

// ReadProperties reads multiple properties concurrently
//  names of the properties to read. All properties when empty.
// Returns a map of property name to value, or the first error that occurred
func (cThing *ConsumedThing) ReadProperties(ctx context.Context, names ...string) (map[string]interface{}, error) {
	if len(names) == 0 {
		for name := range cThing.Properties {
			names = append(names, name)
		}
	}
	values := make(map[string]interface{}, len(names))
	valuesMutex := sync.Mutex{}
	group, groupCtx := errgroup.WithContext(ctx)
	for _, name := range names {
		propName := name
		group.Go(func() error {
			value, err := cThing.ReadProperty(groupCtx, propName)
			if err != nil {
				return err
			}
			valuesMutex.Lock()
			values[propName] = value
			valuesMutex.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return values, nil
}

// WriteProperty writes the value of the named property
// Returns ErrNotFound if the Thing has no such property
func (cThing *ConsumedThing) WriteProperty(ctx context.Context, name string, value interface{}) error {
	prop, found := cThing.Properties[name]
	if !found {
		return fmt.Errorf("%w: property '%s'", ErrNotFound, name)
	}
	return prop.Set(ctx, value)
}

// ObserveProperty invokes the handler with each new value of the named property
func (cThing *ConsumedThing) ObserveProperty(
	ctx context.Context, name string, handler func(value interface{})) (func(), error) {
	prop, found := cThing.Properties[name]
	if !found {
		return nil, fmt.Errorf("%w: property '%s'", ErrNotFound, name)
	}
	return prop.Observe(ctx, handler)
}

// InvokeAction runs the named action
//  input is nil for actions without input
// Returns ErrNotFound if the Thing has no such action
func (cThing *ConsumedThing) InvokeAction(ctx context.Context, name string, input interface{}) (interface{}, error) {
	action, found := cThing.Actions[name]
	if !found {
		return nil, fmt.Errorf("%w: action '%s'", ErrNotFound, name)
	}
	return action.Run(ctx, input)
}

// ReadEvent reads the last value of the named event
func (cThing *ConsumedThing) ReadEvent(ctx context.Context, name string) (interface{}, error) {
	event, found := cThing.Events[name]
	if !found {
		return nil, fmt.Errorf("%w: event '%s'", ErrNotFound, name)
	}
	return event.Get(ctx)
}

// SubscribeEvent invokes the handler with the data of each occurrence of the named event
func (cThing *ConsumedThing) SubscribeEvent(
	ctx context.Context, name string, handler func(value interface{})) (func(), error) {
	event, found := cThing.Events[name]
	if !found {
		return nil, fmt.Errorf("%w: event '%s'", ErrNotFound, name)
	}
	return event.Subscribe(ctx, handler)
}

// NewConsumedThing creates a consumed Thing from its TD document.
// Each property, action and event of the TD gets a handle. All handles share a new
// empty client cache.
//  tdDoc is the JSON encoded TD. It is kept as-is.
//  registry of the host providing protocol clients and credentials
//  options with serdes, metrics and value validation. nil for defaults.
// Returns an error if the TD cannot be parsed
func NewConsumedThing(tdDoc string, registry api.IClientRegistry, options *Options) (*ConsumedThing, error) {
	if options == nil {
		options = &Options{}
	}
	serdes := options.Serdes
	if serdes == nil {
		serdes = contentserdes.Default()
	}
	tdModel, err := td.ParseTD(tdDoc)
	if err != nil {
		logrus.Errorf("NewConsumedThing: Invalid TD: %s", err)
		return nil, err
	}
	if len(tdModel.Security) > 1 {
		logrus.Infof("NewConsumedThing: Thing '%s' has %d security schemes", tdModel.Name, len(tdModel.Security))
	}
	resolver := &Resolver{
		ThingName: tdModel.Name,
		ThingID:   tdModel.ID,
		Security:  tdModel.Security,
		Cache:     NewClientCache(),
		Registry:  registry,
		Metrics:   options.Metrics,
	}
	cThing := &ConsumedThing{
		tdDoc:      tdDoc,
		tdModel:    tdModel,
		resolver:   resolver,
		Properties: make(map[string]*Property, len(tdModel.Properties)),
		Actions:    make(map[string]*Action, len(tdModel.Actions)),
		Events:     make(map[string]*Event, len(tdModel.Events)),
	}
	for name, affordance := range tdModel.Properties {
		cThing.Properties[name] = NewProperty(resolver, serdes, affordance, options.ValidateValues)
	}
	for name, affordance := range tdModel.Actions {
		cThing.Actions[name] = NewAction(resolver, serdes, affordance, options.ValidateValues)
	}
	for name, affordance := range tdModel.Events {
		cThing.Events[name] = NewEvent(resolver, serdes, affordance)
	}
	logrus.Infof("NewConsumedThing: Thing '%s' (%s) with %d properties, %d actions and %d events",
		tdModel.Name, tdModel.ID, len(cThing.Properties), len(cThing.Actions), len(cThing.Events))
	return cThing, nil
}
