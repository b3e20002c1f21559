package servient

import (
	"crypto/tls"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/wostzone/wostconsumer-go/api"
	"github.com/wostzone/wostconsumer-go/pkg/certs"
	"github.com/wostzone/wostconsumer-go/pkg/config"
	"github.com/wostzone/wostconsumer-go/pkg/consumedthing"
	"github.com/wostzone/wostconsumer-go/pkg/credentials"
	"github.com/wostzone/wostconsumer-go/pkg/fileclient"
	"github.com/wostzone/wostconsumer-go/pkg/httpclient"
	"github.com/wostzone/wostconsumer-go/pkg/mqttclient"
	"github.com/wostzone/wostconsumer-go/pkg/natsclient"
)

// loadTLSConfig returns the client TLS configuration, or nil to use the system defaults
// when no certificates are configured
func loadTLSConfig(cfg *config.ConsumerConfig) (*tls.Config, error) {
	if cfg.CaCertFile == "" && cfg.ClientCertFile == "" {
		return nil, nil
	}
	return certs.LoadTLSConfig(
		config.AbsPath(cfg.CertsFolder, cfg.CaCertFile),
		config.AbsPath(cfg.CertsFolder, cfg.ClientCertFile),
		config.AbsPath(cfg.CertsFolder, cfg.ClientKeyFile))
}

// newClientFactory returns the factory of a protocol scheme
func newClientFactory(scheme string, tlsConfig *tls.Config, timeout time.Duration) (api.IClientFactory, error) {
	switch scheme {
	case "http", "https":
		return httpclient.NewHttpClientFactory(scheme, tlsConfig, timeout), nil
	case "mqtt", "mqtts":
		return mqttclient.NewMqttClientFactory(scheme, tlsConfig, timeout), nil
	case natsclient.NatsScheme:
		return natsclient.NewNatsClientFactory(tlsConfig, timeout), nil
	case fileclient.FileScheme:
		return fileclient.NewFileClientFactory(), nil
	}
	return nil, fmt.Errorf("unknown protocol '%s'", scheme)
}

// NewDefaultServient creates a servient with the client factories of the configured protocols,
// the credentials store and optional metrics.
// The credentials store is reloaded when its file changes and closed on Shutdown.
//  cfg with the consumer configuration
func NewDefaultServient(cfg *config.ConsumerConfig) (*Servient, error) {
	tlsConfig, err := loadTLSConfig(cfg)
	if err != nil {
		logrus.Errorf("NewDefaultServient: Invalid TLS configuration: %s", err)
		return nil, err
	}
	options := &consumedthing.Options{ValidateValues: cfg.ValidateValues}
	if cfg.Metrics {
		options.Metrics, err = consumedthing.NewMetrics(prometheus.DefaultRegisterer)
		if err != nil {
			logrus.Errorf("NewDefaultServient: Unable to register metrics: %s", err)
			return nil, err
		}
	}
	servient := NewServient(nil, options)

	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	for _, scheme := range cfg.Protocols {
		factory, err := newClientFactory(scheme, tlsConfig, timeout)
		if err != nil {
			logrus.Errorf("NewDefaultServient: %s", err)
			return nil, err
		}
		servient.AddClientFactory(factory)
	}

	if cfg.CredentialsFile != "" {
		store := credentials.NewCredentialsStore(config.AbsPath(cfg.ConfigFolder, cfg.CredentialsFile))
		if err = store.Open(true); err != nil {
			logrus.Errorf("NewDefaultServient: Unable to open credentials store: %s", err)
			return nil, err
		}
		servient.SetCredentialsProvider(store)
		servient.OnShutdown(store.Close)
	}
	return servient, nil
}
