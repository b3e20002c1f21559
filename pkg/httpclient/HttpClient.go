// Package httpclient with the HTTP(S) protocol client for consuming Things
package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wostzone/wostconsumer-go/api"
)

// HintMethodName is the form field that overrides the default HTTP method of an operation
const HintMethodName = "htv:methodName"

// DefaultAPIKeyHeader is used for apikey security without a name
const DefaultAPIKeyHeader = "X-API-Key"

// ErrNoSupportedSecurity is returned by SetSecurity when none of the schemes can be used
var ErrNoSupportedSecurity = errors.New("no supported security scheme")

// ErrMissingCredentials is returned by SetSecurity when the credentials for the scheme are missing
var ErrMissingCredentials = errors.New("missing credentials for security scheme")

// StatusError is returned when the server responds with an error status
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (err *StatusError) Error() string {
	return fmt.Sprintf("%s: %s", err.Status, err.Body)
}

// HttpClient is the protocol client for http and https forms
type HttpClient struct {
	httpClient  *http.Client
	security    *api.SecurityScheme
	credentials api.Credentials
	updateMutex sync.RWMutex
}

// ReadResource reads the resource with GET, unless the form says otherwise
func (cl *HttpClient) ReadResource(ctx context.Context, form api.Form) (api.Content, error) {
	return cl.invoke(ctx, form, http.MethodGet, nil)
}

// WriteResource writes the content with PUT, unless the form says otherwise
func (cl *HttpClient) WriteResource(ctx context.Context, form api.Form, content api.Content) error {
	_, err := cl.invoke(ctx, form, http.MethodPut, &content)
	return err
}

// InvokeResource invokes the resource with POST, unless the form says otherwise
func (cl *HttpClient) InvokeResource(ctx context.Context, form api.Form, content api.Content) (api.Content, error) {
	return cl.invoke(ctx, form, http.MethodPost, &content)
}

// invoke a HTTP method and read the response
//  form with the href to invoke and optional method hint
//  defaultMethod to use if the form has no method hint
//  content to send or nil to send no body
func (cl *HttpClient) invoke(
	ctx context.Context, form api.Form, defaultMethod string, content *api.Content) (api.Content, error) {

	var body io.Reader
	cl.updateMutex.RLock()
	httpClient := cl.httpClient
	cl.updateMutex.RUnlock()
	if httpClient == nil {
		logrus.Errorf("HttpClient.invoke: '%s'. Client is stopped", form.Href)
		return api.Content{}, errors.New("client is stopped")
	}
	method := form.Hint(HintMethodName)
	if method == "" {
		method = defaultMethod
	}
	logrus.Infof("HttpClient.invoke: %s: %s", method, form.Href)

	if content != nil {
		body = bytes.NewReader(content.Body)
	}
	req, err := http.NewRequestWithContext(ctx, method, form.Href, body)
	if err != nil {
		return api.Content{}, err
	}
	if content != nil && content.MediaType != "" {
		req.Header.Set("Content-Type", content.MediaType)
	}
	if form.MediaType != "" {
		req.Header.Set("Accept", form.MediaType)
	}
	cl.applySecurity(req)

	resp, err := httpClient.Do(req)
	if err != nil {
		logrus.Errorf("HttpClient.invoke: %s %s: %s", method, form.Href, err)
		return api.Content{}, err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return api.Content{}, err
	}
	if resp.StatusCode >= 400 {
		err = &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(respBody)}
		logrus.Errorf("HttpClient.invoke: Error %s %s: %s", method, form.Href, err)
		return api.Content{}, err
	}
	return api.Content{MediaType: resp.Header.Get("Content-Type"), Body: respBody}, nil
}

// applySecurity adds the credentials to the request
func (cl *HttpClient) applySecurity(req *http.Request) {
	cl.updateMutex.RLock()
	defer cl.updateMutex.RUnlock()
	if cl.security == nil {
		return
	}
	switch cl.security.Scheme {
	case api.SecSchemeBasic:
		req.SetBasicAuth(cl.credentials.Username, cl.credentials.Password)
	case api.SecSchemeBearer:
		req.Header.Set("Authorization", "Bearer "+cl.credentials.Token)
	case api.SecSchemeAPIKey:
		name := cl.security.Name
		if name == "" {
			name = DefaultAPIKeyHeader
		}
		switch cl.security.In {
		case api.SecInQuery:
			query := req.URL.Query()
			query.Set(name, cl.credentials.APIKey)
			req.URL.RawQuery = query.Encode()
		case api.SecInCookie:
			req.AddCookie(&http.Cookie{Name: name, Value: cl.credentials.APIKey})
		default:
			req.Header.Set(name, cl.credentials.APIKey)
		}
	}
}

// SetSecurity selects the first of the schemes this client supports: nosec, basic, bearer
// or apikey. Certificate authentication is configured through the TLS configuration.
func (cl *HttpClient) SetSecurity(security []api.SecurityScheme, credentials *api.Credentials) error {
	var creds api.Credentials
	if credentials != nil {
		creds = *credentials
	}
	for _, scheme := range security {
		var hasCreds bool
		switch scheme.Scheme {
		case api.SecSchemeNoSec, api.SecSchemeCert:
			hasCreds = true
		case api.SecSchemeBasic:
			hasCreds = creds.Username != ""
		case api.SecSchemeBearer:
			hasCreds = creds.Token != ""
		case api.SecSchemeAPIKey:
			hasCreds = creds.APIKey != ""
		default:
			logrus.Infof("HttpClient.SetSecurity: Scheme '%s' not supported", scheme.Scheme)
			continue
		}
		if !hasCreds {
			logrus.Errorf("HttpClient.SetSecurity: No credentials for scheme '%s'", scheme.Scheme)
			return fmt.Errorf("%w '%s'", ErrMissingCredentials, scheme.Scheme)
		}
		selected := scheme
		cl.updateMutex.Lock()
		cl.security = &selected
		cl.credentials = creds
		cl.updateMutex.Unlock()
		logrus.Infof("HttpClient.SetSecurity: Using scheme '%s'", scheme.Scheme)
		return nil
	}
	return ErrNoSupportedSecurity
}

// Stop the client and close idle connections
func (cl *HttpClient) Stop() {
	cl.updateMutex.Lock()
	defer cl.updateMutex.Unlock()
	logrus.Infof("HttpClient.Stop: Stopping HTTP client")

	if cl.httpClient != nil {
		cl.httpClient.CloseIdleConnections()
		cl.httpClient = nil
	}
}

// NewHttpClient creates a new HTTP(S) client
//  tlsConfig for https, created with certs.LoadTLSConfig. nil to use the system defaults.
//  timeout of requests. 0 for no timeout.
func NewHttpClient(tlsConfig *tls.Config, timeout time.Duration) *HttpClient {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsConfig
	cl := &HttpClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
	}
	return cl
}
