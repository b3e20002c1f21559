package consumedthing

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wostzone/wostconsumer-go/pkg/contentserdes"
	"github.com/wostzone/wostconsumer-go/pkg/td"
)

// Action is the handle of an action of a consumed Thing
type Action struct {
	interaction
	Affordance *td.ActionAffordance
	validate   bool
}

// Run invokes the action and returns its decoded output
//  input of the action or nil when the action has no input. nil is encoded as defined
//  by the codec of the form media type, eg an empty body for JSON.
// Returns the decoded output, or nil if the action has no output
func (action *Action) Run(ctx context.Context, input interface{}) (output interface{}, err error) {
	start := time.Now()
	defer func() { action.resolver.Metrics.observeInteraction(action.resolver.ThingID, action.kind, start, err) }()

	if action.validate && action.Affordance != nil && input != nil {
		if err = td.ValidateValue(action.Affordance.Input, input); err != nil {
			logrus.Errorf("Action.Run: Input for action '%s' rejected: %s", action.name, err)
			return nil, err
		}
	}
	client, form, err := action.resolver.GetClientFor(action.forms)
	if err != nil {
		return nil, err
	}
	content, err := action.serdes.ValueToContent(input, form.MediaType)
	if err != nil {
		return nil, err
	}
	logrus.Infof("Action.Run: Thing '%s' invoking %s with '%v'", action.resolver.ThingName, form.Href, input)
	result, err := client.InvokeResource(ctx, form, content)
	if err != nil {
		logrus.Warningf("Action.Run: Failed invoking action '%s': %s", action.name, err)
		return nil, err
	}
	return action.serdes.ContentToValue(result, form.MediaType)
}

// NewAction creates an action handle
//  validate the action input against the input data schema before invoking
func NewAction(resolver *Resolver, serdes *contentserdes.ContentSerdes,
	affordance *td.ActionAffordance, validate bool) *Action {
	return &Action{
		interaction: interaction{
			name:     affordance.Name,
			kind:     KindAction,
			forms:    affordance.Forms,
			resolver: resolver,
			serdes:   serdes,
		},
		Affordance: affordance,
		validate:   validate,
	}
}
