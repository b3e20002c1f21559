package mqttclient

import (
	"crypto/tls"
	"time"

	"github.com/wostzone/wostconsumer-go/api"
)

// MqttClientFactory creates MQTT clients for the mqtt or mqtts scheme
type MqttClientFactory struct {
	scheme    string
	tlsConfig *tls.Config
	timeout   time.Duration
}

// GetScheme returns mqtt or mqtts
func (factory *MqttClientFactory) GetScheme() string {
	return factory.scheme
}

// GetClient returns a new MqttClient
func (factory *MqttClientFactory) GetClient() (api.IProtocolClient, error) {
	return NewMqttClient(factory.tlsConfig, factory.timeout), nil
}

// NewMqttClientFactory creates a factory for mqtt or mqtts clients
func NewMqttClientFactory(scheme string, tlsConfig *tls.Config, timeout time.Duration) *MqttClientFactory {
	return &MqttClientFactory{scheme: scheme, tlsConfig: tlsConfig, timeout: timeout}
}
