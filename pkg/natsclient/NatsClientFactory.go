package natsclient

import (
	"crypto/tls"
	"time"

	"github.com/wostzone/wostconsumer-go/api"
)

// NatsScheme is the URI scheme of NATS forms
const NatsScheme = "nats"

// NatsClientFactory creates NATS clients
type NatsClientFactory struct {
	tlsConfig *tls.Config
	timeout   time.Duration
}

// GetScheme returns nats
func (factory *NatsClientFactory) GetScheme() string {
	return NatsScheme
}

// GetClient returns a new NatsClient
func (factory *NatsClientFactory) GetClient() (api.IProtocolClient, error) {
	return NewNatsClient(factory.tlsConfig, factory.timeout), nil
}

// NewNatsClientFactory creates a factory for nats clients
func NewNatsClientFactory(tlsConfig *tls.Config, timeout time.Duration) *NatsClientFactory {
	return &NatsClientFactory{tlsConfig: tlsConfig, timeout: timeout}
}
