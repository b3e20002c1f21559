package consumedthing

import (
	"context"

	"github.com/wostzone/wostconsumer-go/pkg/contentserdes"
	"github.com/wostzone/wostconsumer-go/pkg/td"
)

// Event is the handle of an event of a consumed Thing
type Event struct {
	interaction
	Affordance *td.EventAffordance
}

// Get reads the last value of the event
func (event *Event) Get(ctx context.Context) (interface{}, error) {
	return event.read(ctx)
}

// Subscribe invokes the handler with the decoded data of each event.
// Returns ErrNotSupported if the protocol client cannot deliver notifications.
func (event *Event) Subscribe(ctx context.Context, handler func(value interface{})) (unsubscribe func(), err error) {
	return event.subscribe(ctx, handler)
}

// NewEvent creates an event handle
func NewEvent(resolver *Resolver, serdes *contentserdes.ContentSerdes, affordance *td.EventAffordance) *Event {
	return &Event{
		interaction: interaction{
			name:     affordance.Name,
			kind:     KindEvent,
			forms:    affordance.Forms,
			resolver: resolver,
			serdes:   serdes,
		},
		Affordance: affordance,
	}
}
