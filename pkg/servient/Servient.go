// Package servient with the host of consumed Things. The servient provides the protocol
// clients and credentials that consumed Things use to interact with remote Things.
package servient

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/wostzone/wostconsumer-go/api"
	"github.com/wostzone/wostconsumer-go/pkg/consumedthing"
)

// ErrShutdown is returned when consuming a Thing or creating a client after Shutdown
var ErrShutdown = errors.New("servient is shut down")

// ICredentialsProvider provides the credentials of Things, eg the credentials store
type ICredentialsProvider interface {
	GetCredentials(thingID string) *api.Credentials
}

// Servient is the client side host of consumed Things.
// It implements the api.IClientRegistry interface.
type Servient struct {
	factories   map[string]api.IClientFactory
	credentials ICredentialsProvider
	options     consumedthing.Options
	clients     []api.IProtocolClient
	things      map[string]*consumedthing.ConsumedThing
	onShutdown  []func()
	isShutdown  bool
	updateMutex sync.RWMutex
}

// AddClientFactory registers a factory for its scheme, replacing an existing factory
func (servient *Servient) AddClientFactory(factory api.IClientFactory) {
	scheme := strings.ToLower(factory.GetScheme())
	servient.updateMutex.Lock()
	defer servient.updateMutex.Unlock()
	logrus.Infof("Servient.AddClientFactory: scheme '%s'", scheme)
	servient.factories[scheme] = factory
}

// RemoveClientFactory removes the factory of a scheme
func (servient *Servient) RemoveClientFactory(scheme string) {
	servient.updateMutex.Lock()
	defer servient.updateMutex.Unlock()
	delete(servient.factories, strings.ToLower(scheme))
}

// GetSchemes returns the sorted schemes with a registered factory
func (servient *Servient) GetSchemes() []string {
	servient.updateMutex.RLock()
	defer servient.updateMutex.RUnlock()
	schemes := make([]string, 0, len(servient.factories))
	for scheme := range servient.factories {
		schemes = append(schemes, scheme)
	}
	sort.Strings(schemes)
	return schemes
}

// HasClientFor returns true if a client factory is registered for the scheme
func (servient *Servient) HasClientFor(scheme string) bool {
	servient.updateMutex.RLock()
	defer servient.updateMutex.RUnlock()
	_, found := servient.factories[strings.ToLower(scheme)]
	return found
}

// GetClientFor creates a new client for the scheme. The client is stopped on Shutdown.
func (servient *Servient) GetClientFor(scheme string) (api.IProtocolClient, error) {
	servient.updateMutex.RLock()
	factory, found := servient.factories[strings.ToLower(scheme)]
	isShutdown := servient.isShutdown
	servient.updateMutex.RUnlock()
	if isShutdown {
		return nil, ErrShutdown
	}
	if !found {
		logrus.Errorf("Servient.GetClientFor: No client factory for scheme '%s'", scheme)
		return nil, fmt.Errorf("%w: '%s'", consumedthing.ErrNoClientFactory, scheme)
	}
	client, err := factory.GetClient()
	if err != nil {
		logrus.Errorf("Servient.GetClientFor: Factory for scheme '%s' failed: %s", scheme, err)
		return nil, err
	}
	// shutdown can happen while the factory creates the client
	servient.updateMutex.Lock()
	isShutdown = servient.isShutdown
	if !isShutdown {
		servient.clients = append(servient.clients, client)
	}
	servient.updateMutex.Unlock()
	if isShutdown {
		logrus.Warningf("Servient.GetClientFor: Shutdown while creating client for scheme '%s'", scheme)
		client.Stop()
		return nil, ErrShutdown
	}
	logrus.Infof("Servient.GetClientFor: Created client for scheme '%s'", scheme)
	return client, nil
}

// GetCredentials returns the credentials for accessing a Thing, or nil if there are none
func (servient *Servient) GetCredentials(thingID string) *api.Credentials {
	servient.updateMutex.RLock()
	provider := servient.credentials
	servient.updateMutex.RUnlock()
	if provider == nil {
		return nil
	}
	return provider.GetCredentials(thingID)
}

// SetCredentialsProvider sets the provider of Thing credentials
func (servient *Servient) SetCredentialsProvider(provider ICredentialsProvider) {
	servient.updateMutex.Lock()
	defer servient.updateMutex.Unlock()
	servient.credentials = provider
}

// Consume creates a consumed Thing from its TD and keeps it by Thing ID.
// Consuming a TD with the ID of an existing Thing replaces it.
//  tdDoc is the JSON encoded TD
func (servient *Servient) Consume(tdDoc string) (*consumedthing.ConsumedThing, error) {
	servient.updateMutex.RLock()
	isShutdown := servient.isShutdown
	options := servient.options
	servient.updateMutex.RUnlock()
	if isShutdown {
		return nil, ErrShutdown
	}
	cThing, err := consumedthing.NewConsumedThing(tdDoc, servient, &options)
	if err != nil {
		return nil, err
	}
	servient.updateMutex.Lock()
	defer servient.updateMutex.Unlock()
	if cThing.GetID() != "" {
		servient.things[cThing.GetID()] = cThing
	}
	return cThing, nil
}

// GetThing returns a consumed Thing by its ID, or nil if not consumed
func (servient *Servient) GetThing(thingID string) *consumedthing.ConsumedThing {
	servient.updateMutex.RLock()
	defer servient.updateMutex.RUnlock()
	return servient.things[thingID]
}

// GetThingIDs returns the sorted IDs of the consumed Things
func (servient *Servient) GetThingIDs() []string {
	servient.updateMutex.RLock()
	defer servient.updateMutex.RUnlock()
	ids := make([]string, 0, len(servient.things))
	for id := range servient.things {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// OnShutdown adds a function to invoke on Shutdown, after the clients are stopped
func (servient *Servient) OnShutdown(handler func()) {
	servient.updateMutex.Lock()
	defer servient.updateMutex.Unlock()
	servient.onShutdown = append(servient.onShutdown, handler)
}

// Shutdown stops all clients created by this servient. The consumed Things can no
// longer be used.
func (servient *Servient) Shutdown() {
	servient.updateMutex.Lock()
	clients := servient.clients
	handlers := servient.onShutdown
	servient.clients = nil
	servient.onShutdown = nil
	servient.things = make(map[string]*consumedthing.ConsumedThing)
	servient.isShutdown = true
	servient.updateMutex.Unlock()

	logrus.Infof("Servient.Shutdown: Stopping %d clients", len(clients))
	for _, client := range clients {
		client.Stop()
	}
	for _, handler := range handlers {
		handler()
	}
}

// NewServient creates a servient without client factories
//  credentials provides Thing credentials, or nil if Things don't need them
//  options for consumed Things, or nil for defaults
func NewServient(credentials ICredentialsProvider, options *consumedthing.Options) *Servient {
	servient := &Servient{
		factories:   make(map[string]api.IClientFactory),
		credentials: credentials,
		things:      make(map[string]*consumedthing.ConsumedThing),
	}
	if options != nil {
		servient.options = *options
	}
	return servient
}
