// Package api with the protocol client interface definition
package api

import "context"

// IProtocolClient is a transport client for one protocol scheme, eg http, mqtt or nats.
// A consumed Thing holds at most one client per scheme and shares it between all its
// interactions. Implementations must be safe for concurrent use.
//
// Failures and timeouts of the underlying transport are returned as errors. Clients do their
// own retries if any; the caller does not retry.
type IProtocolClient interface {
	// ReadResource reads the resource described by the form.
	//  form with the href and protocol hints of the resource
	// Returns the content. The content MediaType is empty if the protocol did not report one.
	ReadResource(ctx context.Context, form Form) (Content, error)

	// WriteResource writes the encoded content to the resource described by the form.
	WriteResource(ctx context.Context, form Form, content Content) error

	// InvokeResource invokes the resource described by the form with the encoded input and
	// returns the output. The output MediaType is empty if the protocol did not report one.
	InvokeResource(ctx context.Context, form Form, content Content) (Content, error)

	// SetSecurity configures authentication of this client.
	// This is invoked once, before the client is used.
	//  security is the ordered list of schemes declared by the Thing
	//  credentials to use with the scheme, or nil if the host has none for this Thing
	// Returns an error if none of the schemes is supported or credentials are missing.
	SetSecurity(security []SecurityScheme, credentials *Credentials) error

	// Stop the client and close its connections
	Stop()
}

// ISubscriptionClient is implemented by protocol clients that can deliver notifications,
// eg MQTT and NATS. Observation of properties and events use this when available.
type ISubscriptionClient interface {
	// SubscribeResource subscribes to notifications of the resource described by the form.
	//  handler is invoked with each notification. It must not block.
	// Returns a function to end the subscription.
	SubscribeResource(ctx context.Context, form Form, handler func(content Content)) (unsubscribe func(), err error)
}
