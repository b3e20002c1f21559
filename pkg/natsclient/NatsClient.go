// Package natsclient with the NATS protocol client for consuming Things
package natsclient

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
	"github.com/wostzone/wostconsumer-go/api"
)

// HintSubject is the form field holding the NATS subject. Without it the subject is derived
// from the href path.
const HintSubject = "nats:subject"

// HeaderContentType is the message header with the media type of the payload
const HeaderContentType = "Content-Type"

// ErrNoSupportedSecurity is returned by SetSecurity when none of the schemes can be used
var ErrNoSupportedSecurity = errors.New("no supported security scheme")

// ErrMissingCredentials is returned by SetSecurity when the credentials for the scheme are missing
var ErrMissingCredentials = errors.New("missing credentials for security scheme")

// NatsClient is the protocol client for nats forms. Reads and action invocations use
// request-reply, writes are published and observations subscribe to the subject.
// A connection is kept for each server the forms refer to.
type NatsClient struct {
	tlsConfig   *tls.Config
	timeout     time.Duration
	connections map[string]*nats.Conn
	authOpts    []nats.Option
	stopped     bool
	updateMutex sync.Mutex
}

// FormSubject returns the subject of a form from its subject hint or href path, eg
// nats://localhost:4222/things/thing1/properties/level has subject things.thing1.properties.level
func FormSubject(form api.Form) string {
	if subject := form.Hint(HintSubject); subject != "" {
		return subject
	}
	u, err := url.Parse(form.Href)
	if err != nil {
		return ""
	}
	return strings.ReplaceAll(strings.Trim(u.Path, "/"), "/", ".")
}

// ServerURL returns the URL of the NATS server of a form href
func ServerURL(href string) (string, error) {
	u, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	if strings.ToLower(u.Scheme) != "nats" || u.Host == "" {
		return "", fmt.Errorf("not a nats server url '%s'", href)
	}
	return "nats://" + u.Host, nil
}

// getConnection returns the connection to the server of the form, connecting on first use
func (cl *NatsClient) getConnection(form api.Form) (*nats.Conn, error) {
	serverURL, err := ServerURL(form.Href)
	if err != nil {
		logrus.Errorf("NatsClient.getConnection: %s", err)
		return nil, err
	}
	cl.updateMutex.Lock()
	if cl.stopped {
		cl.updateMutex.Unlock()
		return nil, errors.New("client is stopped")
	}
	if conn, found := cl.connections[serverURL]; found && !conn.IsClosed() {
		cl.updateMutex.Unlock()
		return conn, nil
	}
	opts := []nats.Option{
		nats.Name("wotconsumer"),
		nats.Timeout(cl.timeout),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logrus.Warningf("NatsClient: Disconnected from %s: %v", serverURL, err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logrus.Warningf("NatsClient: Reconnected to %s", serverURL)
		}),
	}
	if cl.tlsConfig != nil {
		opts = append(opts, nats.Secure(cl.tlsConfig))
	}
	opts = append(opts, cl.authOpts...)
	cl.updateMutex.Unlock()

	// connecting can take up to the timeout, don't block other servers or Stop
	logrus.Infof("NatsClient.getConnection: Connecting to %s", serverURL)
	conn, err := nats.Connect(serverURL, opts...)
	if err != nil {
		logrus.Errorf("NatsClient.getConnection: Unable to connect to %s: %s", serverURL, err)
		return nil, err
	}
	cl.updateMutex.Lock()
	existing, found := cl.connections[serverURL]
	useExisting := found && !existing.IsClosed()
	stopped := cl.stopped
	if !useExisting && !stopped {
		cl.connections[serverURL] = conn
	}
	cl.updateMutex.Unlock()
	if stopped {
		conn.Close()
		return nil, errors.New("client is stopped")
	} else if useExisting {
		// another caller connected first
		conn.Close()
		return existing, nil
	}
	return conn, nil
}

// request sends a request to the subject of the form and waits for the reply
func (cl *NatsClient) request(ctx context.Context, form api.Form, content *api.Content) (api.Content, error) {
	conn, err := cl.getConnection(form)
	if err != nil {
		return api.Content{}, err
	}
	msg := nats.NewMsg(FormSubject(form))
	if content != nil {
		msg.Data = content.Body
		if content.MediaType != "" {
			msg.Header.Set(HeaderContentType, content.MediaType)
		}
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cl.timeout)
		defer cancel()
	}
	logrus.Infof("NatsClient.request: subject=%s", msg.Subject)
	reply, err := conn.RequestMsgWithContext(ctx, msg)
	if err != nil {
		logrus.Errorf("NatsClient.request: subject=%s: %s", msg.Subject, err)
		return api.Content{}, err
	}
	return api.Content{MediaType: reply.Header.Get(HeaderContentType), Body: reply.Data}, nil
}

// ReadResource requests the value from the subject of the form
func (cl *NatsClient) ReadResource(ctx context.Context, form api.Form) (api.Content, error) {
	return cl.request(ctx, form, nil)
}

// WriteResource publishes the content on the subject of the form
func (cl *NatsClient) WriteResource(ctx context.Context, form api.Form, content api.Content) error {
	conn, err := cl.getConnection(form)
	if err != nil {
		return err
	}
	msg := nats.NewMsg(FormSubject(form))
	msg.Data = content.Body
	if content.MediaType != "" {
		msg.Header.Set(HeaderContentType, content.MediaType)
	}
	logrus.Infof("NatsClient.WriteResource: subject=%s", msg.Subject)
	return conn.PublishMsg(msg)
}

// InvokeResource sends the input as a request on the subject of the form and returns the reply
func (cl *NatsClient) InvokeResource(ctx context.Context, form api.Form, content api.Content) (api.Content, error) {
	return cl.request(ctx, form, &content)
}

// SubscribeResource subscribes to messages on the subject of the form
func (cl *NatsClient) SubscribeResource(
	ctx context.Context, form api.Form, handler func(content api.Content)) (func(), error) {

	conn, err := cl.getConnection(form)
	if err != nil {
		return nil, err
	}
	subject := FormSubject(form)
	sub, err := conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(api.Content{MediaType: msg.Header.Get(HeaderContentType), Body: msg.Data})
	})
	if err != nil {
		logrus.Errorf("NatsClient.SubscribeResource: subject=%s: %s", subject, err)
		return nil, err
	}
	return func() {
		if err2 := sub.Unsubscribe(); err2 != nil {
			logrus.Warningf("NatsClient: Unsubscribe from %s: %s", subject, err2)
		}
	}, nil
}

// SetSecurity selects the first of the schemes this client supports: nosec, basic, bearer or cert
func (cl *NatsClient) SetSecurity(security []api.SecurityScheme, credentials *api.Credentials) error {
	var creds api.Credentials
	if credentials != nil {
		creds = *credentials
	}
	for _, scheme := range security {
		var authOpts []nats.Option
		switch scheme.Scheme {
		case api.SecSchemeNoSec:
		case api.SecSchemeBasic:
			if creds.Username == "" {
				return fmt.Errorf("%w '%s'", ErrMissingCredentials, scheme.Scheme)
			}
			authOpts = append(authOpts, nats.UserInfo(creds.Username, creds.Password))
		case api.SecSchemeBearer:
			if creds.Token == "" {
				return fmt.Errorf("%w '%s'", ErrMissingCredentials, scheme.Scheme)
			}
			authOpts = append(authOpts, nats.Token(creds.Token))
		case api.SecSchemeCert:
			if creds.ClientCertFile == "" || creds.ClientKeyFile == "" {
				return fmt.Errorf("%w '%s'", ErrMissingCredentials, scheme.Scheme)
			}
			authOpts = append(authOpts, nats.ClientCert(creds.ClientCertFile, creds.ClientKeyFile))
		default:
			logrus.Infof("NatsClient.SetSecurity: Scheme '%s' not supported", scheme.Scheme)
			continue
		}
		cl.updateMutex.Lock()
		cl.authOpts = authOpts
		cl.updateMutex.Unlock()
		logrus.Infof("NatsClient.SetSecurity: Using scheme '%s'", scheme.Scheme)
		return nil
	}
	return ErrNoSupportedSecurity
}

// Stop drains the subscriptions and closes all connections
func (cl *NatsClient) Stop() {
	cl.updateMutex.Lock()
	connections := cl.connections
	cl.connections = make(map[string]*nats.Conn)
	cl.stopped = true
	cl.updateMutex.Unlock()
	logrus.Infof("NatsClient.Stop: Closing %d connections", len(connections))
	for _, conn := range connections {
		if err := conn.Drain(); err != nil {
			conn.Close()
		}
	}
}

// NewNatsClient creates a NATS client. Connections are made on first use.
//  tlsConfig for TLS connections, nil for plain connections
//  timeout of connecting and requests
func NewNatsClient(tlsConfig *tls.Config, timeout time.Duration) *NatsClient {
	if timeout <= 0 {
		timeout = nats.DefaultTimeout
	}
	cl := &NatsClient{
		tlsConfig:   tlsConfig,
		timeout:     timeout,
		connections: make(map[string]*nats.Conn),
	}
	return cl
}
