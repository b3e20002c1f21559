// Package api with the protocol client registry interface definition
package api

// IClientFactory creates protocol clients for a single scheme
type IClientFactory interface {
	// GetScheme returns the URI scheme this factory creates clients for, eg "https"
	GetScheme() string

	// GetClient creates a new client instance.
	// Returns an error if the client cannot be created, eg missing certificates
	GetClient() (IProtocolClient, error)
}

// IClientRegistry is provided by the host of consumed Things, eg the servient.
// It maps schemes to client factories and provides the credentials of Things.
type IClientRegistry interface {
	// HasClientFor returns true if a client factory is registered for the scheme
	HasClientFor(scheme string) bool

	// GetClientFor creates a new client for the scheme.
	// Returns an error if no factory is registered or the factory failed.
	GetClientFor(scheme string) (IProtocolClient, error)

	// GetCredentials returns the credentials for accessing the Thing with the given ID,
	// or nil if the host has none.
	GetCredentials(thingID string) *Credentials
}
