package consumedthing_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wostzone/wostconsumer-go/api"
)

// fakeClient records the requests it receives
type fakeClient struct {
	scheme        string
	updateMutex   sync.Mutex
	securityCalls int
	security      []api.SecurityScheme
	credentials   *api.Credentials
	securityErr   error
	readContent   api.Content
	invokeResult  api.Content
	transportErr  error
	lastForm      api.Form
	written       []api.Content
	invoked       []api.Content
	stopped       bool
}

func (client *fakeClient) ReadResource(ctx context.Context, form api.Form) (api.Content, error) {
	client.updateMutex.Lock()
	defer client.updateMutex.Unlock()
	client.lastForm = form
	return client.readContent, client.transportErr
}

func (client *fakeClient) WriteResource(ctx context.Context, form api.Form, content api.Content) error {
	client.updateMutex.Lock()
	defer client.updateMutex.Unlock()
	client.lastForm = form
	client.written = append(client.written, content)
	return client.transportErr
}

func (client *fakeClient) InvokeResource(ctx context.Context, form api.Form, content api.Content) (api.Content, error) {
	client.updateMutex.Lock()
	defer client.updateMutex.Unlock()
	client.lastForm = form
	client.invoked = append(client.invoked, content)
	return client.invokeResult, client.transportErr
}

func (client *fakeClient) SetSecurity(security []api.SecurityScheme, credentials *api.Credentials) error {
	client.updateMutex.Lock()
	defer client.updateMutex.Unlock()
	client.securityCalls++
	client.security = security
	client.credentials = credentials
	return client.securityErr
}

func (client *fakeClient) Stop() {
	client.updateMutex.Lock()
	defer client.updateMutex.Unlock()
	client.stopped = true
}

// fakeSubscriptionClient also delivers notifications to the last subscribed handler
type fakeSubscriptionClient struct {
	fakeClient
	handler func(content api.Content)
}

func (client *fakeSubscriptionClient) SubscribeResource(
	ctx context.Context, form api.Form, handler func(content api.Content)) (func(), error) {
	client.handler = handler
	return func() { client.handler = nil }, nil
}

// fakeRegistry creates fakeClients for its supported schemes and records the calls made
type fakeRegistry struct {
	updateMutex sync.Mutex
	supported   map[string]bool
	hasCalls    []string
	getCalls    []string
	created     []api.IProtocolClient
	credentials map[string]*api.Credentials
	// createDelay slows down client creation to widen race windows
	createDelay time.Duration
	// createErr is returned by GetClientFor when set
	createErr error
	// newClient overrides the default fakeClient creation
	newClient func(scheme string) api.IProtocolClient
}

var errCreate = errors.New("create failed")

func (reg *fakeRegistry) HasClientFor(scheme string) bool {
	reg.updateMutex.Lock()
	defer reg.updateMutex.Unlock()
	reg.hasCalls = append(reg.hasCalls, scheme)
	return reg.supported[scheme]
}

func (reg *fakeRegistry) GetClientFor(scheme string) (api.IProtocolClient, error) {
	time.Sleep(reg.createDelay)
	reg.updateMutex.Lock()
	defer reg.updateMutex.Unlock()
	reg.getCalls = append(reg.getCalls, scheme)
	if reg.createErr != nil {
		return nil, reg.createErr
	}
	var client api.IProtocolClient
	if reg.newClient != nil {
		client = reg.newClient(scheme)
	} else {
		client = &fakeClient{scheme: scheme}
	}
	reg.created = append(reg.created, client)
	return client, nil
}

func (reg *fakeRegistry) GetCredentials(thingID string) *api.Credentials {
	return reg.credentials[thingID]
}

// resetCalls clears the recorded calls
func (reg *fakeRegistry) resetCalls() {
	reg.updateMutex.Lock()
	defer reg.updateMutex.Unlock()
	reg.hasCalls = nil
	reg.getCalls = nil
}

func newFakeRegistry(schemes ...string) *fakeRegistry {
	reg := &fakeRegistry{
		supported:   make(map[string]bool),
		credentials: make(map[string]*api.Credentials),
	}
	for _, scheme := range schemes {
		reg.supported[scheme] = true
	}
	return reg
}
