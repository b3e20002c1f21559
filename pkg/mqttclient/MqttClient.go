// Package mqttclient with the MQTT protocol client for consuming Things
package mqttclient

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wostzone/wostconsumer-go/api"
)

// Form hints of the MQTT protocol binding
const (
	HintTopic  = "mqv:topic"
	HintFilter = "mqv:filter"
)

// Default broker ports
const (
	DefaultPort    = 1883
	DefaultTLSPort = 8883
)

// ErrNoSupportedSecurity is returned by SetSecurity when none of the schemes can be used
var ErrNoSupportedSecurity = errors.New("no supported security scheme")

// ErrMissingCredentials is returned by SetSecurity when the credentials for the scheme are missing
var ErrMissingCredentials = errors.New("missing credentials for security scheme")

// MqttClient is the protocol client for mqtt and mqtts forms.
// It keeps a connection for each broker the forms refer to.
type MqttClient struct {
	tlsConfig   *tls.Config
	timeout     time.Duration
	connections map[string]*BrokerConnection
	userName    string
	password    string
	stopped     bool
	updateMutex sync.Mutex
}

// BrokerURL returns the paho broker URL for the href of a form
//  href with the mqtt or mqtts scheme, eg mqtt://localhost:1883/things/thing1/events/alarm
func BrokerURL(href string) (string, error) {
	u, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	var scheme string
	var port int
	switch strings.ToLower(u.Scheme) {
	case "mqtt", "tcp":
		scheme, port = "tcp", DefaultPort
	case "mqtts", "ssl", "tls":
		scheme, port = "ssl", DefaultTLSPort
	default:
		return "", fmt.Errorf("unsupported scheme '%s' in '%s'", u.Scheme, href)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("missing broker host in '%s'", href)
	}
	hostPort := u.Host
	if u.Port() == "" {
		hostPort = net.JoinHostPort(u.Hostname(), fmt.Sprint(port))
	}
	return fmt.Sprintf("%s://%s", scheme, hostPort), nil
}

// FormTopic returns the topic of a form from its topic hint or href path
//  subscribe selects the filter hint when available
func FormTopic(form api.Form, subscribe bool) string {
	if subscribe {
		if filter := form.Hint(HintFilter); filter != "" {
			return filter
		}
	}
	if topic := form.Hint(HintTopic); topic != "" {
		return topic
	}
	u, err := url.Parse(form.Href)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}

// topicMatches returns true if the topic matches the subscription filter with + and # wildcards
func topicMatches(filter string, topic string) bool {
	filterParts := strings.Split(filter, "/")
	topicParts := strings.Split(topic, "/")
	for i, part := range filterParts {
		if part == "#" {
			return true
		}
		if i >= len(topicParts) {
			return false
		}
		if part != "+" && part != topicParts[i] {
			return false
		}
	}
	return len(filterParts) == len(topicParts)
}

// getConnection returns the connection with the broker of the form, connecting on first use
func (cl *MqttClient) getConnection(form api.Form) (*BrokerConnection, error) {
	brokerURL, err := BrokerURL(form.Href)
	if err != nil {
		logrus.Errorf("MqttClient.getConnection: %s", err)
		return nil, err
	}
	cl.updateMutex.Lock()
	if cl.stopped {
		cl.updateMutex.Unlock()
		return nil, errors.New("client is stopped")
	}
	conn, found := cl.connections[brokerURL]
	userName, password := cl.userName, cl.password
	var tlsConfig *tls.Config
	if strings.HasPrefix(brokerURL, "ssl") {
		tlsConfig = cl.tlsConfig
		if tlsConfig == nil {
			tlsConfig = &tls.Config{}
		}
	}
	cl.updateMutex.Unlock()
	if found {
		return conn, nil
	}

	// connecting can take up to the timeout, don't block other brokers or Stop
	conn = NewBrokerConnection(brokerURL, cl.timeout)
	err = conn.Connect(tlsConfig, userName, password)
	if err != nil {
		return nil, err
	}
	cl.updateMutex.Lock()
	existing, found := cl.connections[brokerURL]
	stopped := cl.stopped
	if !found && !stopped {
		cl.connections[brokerURL] = conn
	}
	cl.updateMutex.Unlock()
	if stopped {
		conn.Disconnect()
		return nil, errors.New("client is stopped")
	} else if found {
		// another caller connected first
		conn.Disconnect()
		return existing, nil
	}
	return conn, nil
}

// ReadResource waits for the next message on the topic of the form. Retained messages are
// received immediately.
// The content has no media type as MQTT 3 does not report one.
func (cl *MqttClient) ReadResource(ctx context.Context, form api.Form) (api.Content, error) {
	conn, err := cl.getConnection(form)
	if err != nil {
		return api.Content{}, err
	}
	topic := FormTopic(form, true)
	received := make(chan []byte, 1)
	receiverID, err := conn.Subscribe(topic, func(payload []byte) {
		select {
		case received <- payload:
		default:
		}
	})
	if err != nil {
		return api.Content{}, err
	}
	defer conn.Unsubscribe(topic, receiverID)

	ctx, cancel := context.WithTimeout(ctx, cl.timeout)
	defer cancel()
	select {
	case payload := <-received:
		return api.Content{Body: payload}, nil
	case <-ctx.Done():
		logrus.Warningf("MqttClient.ReadResource: No message on topic '%s': %s", topic, ctx.Err())
		return api.Content{}, ctx.Err()
	}
}

// WriteResource publishes the content to the topic of the form
func (cl *MqttClient) WriteResource(ctx context.Context, form api.Form, content api.Content) error {
	conn, err := cl.getConnection(form)
	if err != nil {
		return err
	}
	return conn.Publish(FormTopic(form, false), content.Body)
}

// InvokeResource publishes the input to the topic of the form.
// MQTT has no response so the output is empty.
func (cl *MqttClient) InvokeResource(ctx context.Context, form api.Form, content api.Content) (api.Content, error) {
	err := cl.WriteResource(ctx, form, content)
	return api.Content{}, err
}

// SubscribeResource subscribes to messages on the topic or filter of the form
func (cl *MqttClient) SubscribeResource(
	ctx context.Context, form api.Form, handler func(content api.Content)) (func(), error) {

	conn, err := cl.getConnection(form)
	if err != nil {
		return nil, err
	}
	topic := FormTopic(form, true)
	receiverID, err := conn.Subscribe(topic, func(payload []byte) {
		handler(api.Content{Body: payload})
	})
	if err != nil {
		return nil, err
	}
	return func() { conn.Unsubscribe(topic, receiverID) }, nil
}

// SetSecurity selects the first of the schemes this client supports: nosec, basic or cert.
// Basic credentials are used as the broker username and password.
func (cl *MqttClient) SetSecurity(security []api.SecurityScheme, credentials *api.Credentials) error {
	var creds api.Credentials
	if credentials != nil {
		creds = *credentials
	}
	cl.updateMutex.Lock()
	defer cl.updateMutex.Unlock()
	for _, scheme := range security {
		switch scheme.Scheme {
		case api.SecSchemeNoSec:
		case api.SecSchemeBasic:
			if creds.Username == "" {
				return fmt.Errorf("%w '%s'", ErrMissingCredentials, scheme.Scheme)
			}
			cl.userName = creds.Username
			cl.password = creds.Password
		case api.SecSchemeCert:
			if creds.ClientCertFile == "" || creds.ClientKeyFile == "" {
				return fmt.Errorf("%w '%s'", ErrMissingCredentials, scheme.Scheme)
			}
			clientCert, err := tls.LoadX509KeyPair(creds.ClientCertFile, creds.ClientKeyFile)
			if err != nil {
				logrus.Errorf("MqttClient.SetSecurity: Invalid client certificate: %s", err)
				return err
			}
			tlsConfig := &tls.Config{}
			if cl.tlsConfig != nil {
				tlsConfig = cl.tlsConfig.Clone()
			}
			tlsConfig.Certificates = []tls.Certificate{clientCert}
			cl.tlsConfig = tlsConfig
		default:
			logrus.Infof("MqttClient.SetSecurity: Scheme '%s' not supported", scheme.Scheme)
			continue
		}
		logrus.Infof("MqttClient.SetSecurity: Using scheme '%s'", scheme.Scheme)
		return nil
	}
	return ErrNoSupportedSecurity
}

// Stop disconnects from all brokers
func (cl *MqttClient) Stop() {
	cl.updateMutex.Lock()
	connections := cl.connections
	cl.connections = make(map[string]*BrokerConnection)
	cl.stopped = true
	cl.updateMutex.Unlock()
	logrus.Infof("MqttClient.Stop: Disconnecting from %d brokers", len(connections))
	for _, conn := range connections {
		conn.Disconnect()
	}
}

// NewMqttClient creates a MQTT client. Connections are made on first use.
//  tlsConfig for mqtts brokers, created with certs.LoadTLSConfig. nil for system defaults.
//  timeout of connecting, publishing and reading
func NewMqttClient(tlsConfig *tls.Config, timeout time.Duration) *MqttClient {
	if timeout <= 0 {
		timeout = ConnectionTimeoutSec * time.Second
	}
	cl := &MqttClient{
		tlsConfig:   tlsConfig,
		timeout:     timeout,
		connections: make(map[string]*BrokerConnection),
	}
	return cl
}
