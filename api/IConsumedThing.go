// Package api with the consumed Thing interface definition
package api

import "context"

// IConsumedThing is the consumer's view of a remote Thing.
// Interactions are addressed by the names of the affordances in the Thing Description.
type IConsumedThing interface {
	// GetThingDescription returns the Thing Description document exactly as it was provided
	GetThingDescription() string

	// Get returns a field of the normalized Thing Description, eg "id", "name" or "links"
	// Returns false if the field does not exist.
	Get(field string) (value interface{}, found bool)

	// ReadProperty reads and decodes the value of a property
	ReadProperty(ctx context.Context, name string) (interface{}, error)

	// WriteProperty encodes and writes a property value
	WriteProperty(ctx context.Context, name string, value interface{}) error

	// InvokeAction invokes an action with an optional input and returns the decoded output
	//  input is nil for actions without input
	InvokeAction(ctx context.Context, name string, input interface{}) (interface{}, error)

	// ReadEvent reads the last value of an event
	ReadEvent(ctx context.Context, name string) (interface{}, error)

	// SubscribeEvent invokes the handler with each decoded event value.
	// Returns a function to end the subscription.
	SubscribeEvent(ctx context.Context, name string, handler func(value interface{})) (unsubscribe func(), err error)
}
