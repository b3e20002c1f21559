package httpclient

import (
	"crypto/tls"
	"time"

	"github.com/wostzone/wostconsumer-go/api"
)

// HttpClientFactory creates HTTP clients for the http or https scheme
type HttpClientFactory struct {
	scheme    string
	tlsConfig *tls.Config
	timeout   time.Duration
}

// GetScheme returns http or https
func (factory *HttpClientFactory) GetScheme() string {
	return factory.scheme
}

// GetClient returns a new HttpClient
func (factory *HttpClientFactory) GetClient() (api.IProtocolClient, error) {
	return NewHttpClient(factory.tlsConfig, factory.timeout), nil
}

// NewHttpClientFactory creates a factory for http or https clients
//  scheme is "http" or "https"
//  tlsConfig for https connections, nil for system defaults
//  timeout of requests
func NewHttpClientFactory(scheme string, tlsConfig *tls.Config, timeout time.Duration) *HttpClientFactory {
	return &HttpClientFactory{scheme: scheme, tlsConfig: tlsConfig, timeout: timeout}
}
