// Package testthing with an HTTP Thing for testing consumers and protocol clients
package testthing

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/justinas/alice"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"github.com/wostzone/wostconsumer-go/api"
	"github.com/wostzone/wostconsumer-go/pkg/contentserdes"
	"github.com/wostzone/wostconsumer-go/pkg/td"
)

// Names of the affordances of the test thing
const (
	PropTemperature = "temperature"
	PropSetpoint    = "setpoint"
	PropLabel       = "label"
	PropCounter     = "counter"
	ActionIncrement = "increment"
	ActionReset     = "reset"
	EventOverheated = "overheated"
)

// TestThing is a Thing served over HTTP(S) with a few properties, actions and events.
// Its TD is generated for the address it listens on.
type TestThing struct {
	Name          string
	ID            string
	Authenticator *Authenticator
	baseURL       string
	tlsConfig     *tls.Config
	httpServer    *http.Server
	router        *mux.Router
	values        map[string]interface{}
	events        map[string]interface{}
	updateMutex   sync.RWMutex
}

// GetBaseURL returns the base URL of the running thing
func (tt *TestThing) GetBaseURL() string {
	return tt.baseURL
}

// GetTD returns the TD of the running thing
func (tt *TestThing) GetTD() api.ThingTD {
	thing := td.CreateTD(tt.ID, tt.Name, api.DeviceTypeThermostat)
	td.SetTDBase(thing, fmt.Sprintf("%s/things/%s/", tt.baseURL, tt.Name))
	switch tt.Authenticator.scheme {
	case api.SecSchemeBasic:
		td.AddTDSecurity(thing, "basic_sc", api.SecurityScheme{Scheme: api.SecSchemeBasic, In: api.SecInHeader})
	case api.SecSchemeBearer:
		td.AddTDSecurity(thing, "bearer_sc", api.SecurityScheme{
			Scheme: api.SecSchemeBearer, Format: "jwt", Alg: "ES256", In: api.SecInHeader})
	default:
		td.AddTDSecurity(thing, "nosec_sc", api.SecurityScheme{Scheme: api.SecSchemeNoSec})
	}

	prop := td.CreateTDProperty("Temperature", "Current temperature", api.PropertyTypeState,
		td.NumberSchema(-40, 120), td.CreateForm("properties/temperature", "", api.OpReadProperty))
	td.SetTDPropertyUnit(prop, "C")
	td.AddTDProperty(thing, PropTemperature, prop)

	prop = td.CreateTDProperty("Setpoint", "Temperature setpoint", api.PropertyTypeConfig,
		td.NumberSchema(5, 30), td.CreateForm("properties/setpoint", "", api.OpReadProperty, api.OpWriteProperty))
	td.AddTDProperty(thing, PropSetpoint, prop)

	prop = td.CreateTDProperty("Label", "Display label", api.PropertyTypeConfig, td.StringSchema(0, 40),
		td.CreateForm("properties/label", contentserdes.MediaTypeText, api.OpReadProperty, api.OpWriteProperty))
	td.AddTDProperty(thing, PropLabel, prop)

	prop = td.CreateTDProperty("Counter", "Number of increments", api.PropertyTypeState,
		td.IntegerSchema(0, 0), td.CreateForm("properties/counter", "", api.OpReadProperty))
	td.AddTDProperty(thing, PropCounter, prop)

	action := td.CreateTDAction("Increment", "Add the input to the counter",
		td.IntegerSchema(0, 0), td.IntegerSchema(0, 0), td.CreateForm("actions/increment", ""))
	td.AddTDAction(thing, ActionIncrement, action)

	action = td.CreateTDAction("Reset", "Reset the counter", nil, nil, td.CreateForm("actions/reset", ""))
	td.AddTDAction(thing, ActionReset, action)

	event := td.CreateTDEvent("Overheated", "Temperature exceeds the setpoint", td.BoolSchema(),
		td.CreateForm("events/overheated", ""))
	td.AddTDEvent(thing, EventOverheated, event)
	return thing
}

// GetTDJSON returns the JSON encoded TD of the running thing
func (tt *TestThing) GetTDJSON() string {
	tdJSON, _ := json.MarshalIndent(tt.GetTD(), "", "  ")
	return string(tdJSON)
}

// GetValue returns the current value of a property
func (tt *TestThing) GetValue(name string) interface{} {
	tt.updateMutex.RLock()
	defer tt.updateMutex.RUnlock()
	return tt.values[name]
}

// SetValue sets the value of a property and updates the overheated event
func (tt *TestThing) SetValue(name string, value interface{}) {
	tt.updateMutex.Lock()
	defer tt.updateMutex.Unlock()
	tt.values[name] = value
	temperature, _ := tt.values[PropTemperature].(float64)
	setpoint, _ := tt.values[PropSetpoint].(float64)
	tt.events[EventOverheated] = temperature > setpoint
}

// handleReadProperty returns the property value in the form media type
func (tt *TestThing) handleReadProperty(resp http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)["name"]
	tt.updateMutex.RLock()
	value, found := tt.values[name]
	tt.updateMutex.RUnlock()
	if !found {
		http.Error(resp, "unknown property", http.StatusNotFound)
		return
	}
	if name == PropLabel {
		resp.Header().Set("Content-Type", contentserdes.MediaTypeText)
		_, _ = fmt.Fprint(resp, value)
		return
	}
	tt.writeJSON(resp, value)
}

// handleWriteProperty updates a writable property
func (tt *TestThing) handleWriteProperty(resp http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)["name"]
	if GetRole(req) != RoleOperator {
		http.Error(resp, "not allowed", http.StatusForbidden)
		return
	}
	body, _ := io.ReadAll(req.Body)
	var value interface{}
	switch name {
	case PropLabel:
		value = string(body)
	case PropSetpoint:
		var setpoint float64
		if err := json.Unmarshal(body, &setpoint); err != nil {
			http.Error(resp, err.Error(), http.StatusBadRequest)
			return
		}
		value = setpoint
	default:
		http.Error(resp, "property is not writable", http.StatusMethodNotAllowed)
		return
	}
	logrus.Infof("TestThing.handleWriteProperty: %s = %v", name, value)
	tt.SetValue(name, value)
	resp.WriteHeader(http.StatusNoContent)
}

// handleInvokeAction runs an action
func (tt *TestThing) handleInvokeAction(resp http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)["name"]
	if GetRole(req) != RoleOperator {
		http.Error(resp, "not allowed", http.StatusForbidden)
		return
	}
	body, _ := io.ReadAll(req.Body)
	switch name {
	case ActionIncrement:
		increment := 1
		if len(body) > 0 {
			if err := json.Unmarshal(body, &increment); err != nil {
				http.Error(resp, err.Error(), http.StatusBadRequest)
				return
			}
		}
		tt.updateMutex.Lock()
		counter, _ := tt.values[PropCounter].(int)
		counter += increment
		tt.values[PropCounter] = counter
		tt.updateMutex.Unlock()
		tt.writeJSON(resp, counter)
	case ActionReset:
		tt.updateMutex.Lock()
		tt.values[PropCounter] = 0
		tt.updateMutex.Unlock()
		resp.WriteHeader(http.StatusNoContent)
	default:
		http.Error(resp, "unknown action", http.StatusNotFound)
	}
}

// handleReadEvent returns the last value of an event
func (tt *TestThing) handleReadEvent(resp http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)["name"]
	tt.updateMutex.RLock()
	value, found := tt.events[name]
	tt.updateMutex.RUnlock()
	if !found {
		http.Error(resp, "unknown event", http.StatusNotFound)
		return
	}
	tt.writeJSON(resp, value)
}

func (tt *TestThing) handleGetTD(resp http.ResponseWriter, req *http.Request) {
	resp.Header().Set("Content-Type", contentserdes.MediaTypeTDJSON)
	_, _ = resp.Write([]byte(tt.GetTDJSON()))
}

func (tt *TestThing) writeJSON(resp http.ResponseWriter, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		http.Error(resp, err.Error(), http.StatusInternalServerError)
		return
	}
	resp.Header().Set("Content-Type", api.DefaultMediaType)
	_, _ = resp.Write(data)
}

// loggingHandler logs each request and its duration
func loggingHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(resp http.ResponseWriter, req *http.Request) {
		t1 := time.Now()
		next.ServeHTTP(resp, req)
		logrus.Infof("TestThing: \"%s %s %s\" %v", req.Method, req.URL.String(), req.Proto, time.Since(t1))
	})
}

// recoverHandler turns handler panics into a 500 response
func recoverHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(resp http.ResponseWriter, req *http.Request) {
		defer func() {
			if r := recover(); r != nil {
				logrus.Errorf("TestThing: PANIC: %v\n%s", r, debug.Stack())
				http.Error(resp, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(resp, req)
	})
}

// Start listening on a free port of the loopback interface
// Returns the base URL of the thing
func (tt *TestThing) Start() (string, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		logrus.Errorf("TestThing.Start: Unable to listen: %s", err)
		return "", err
	}
	scheme := "http"
	if tt.tlsConfig != nil {
		scheme = "https"
		listener = tls.NewListener(listener, tt.tlsConfig)
	}
	tt.baseURL = fmt.Sprintf("%s://%s", scheme, listener.Addr().String())
	logrus.Infof("TestThing.Start: Thing '%s' listening on %s", tt.Name, tt.baseURL)

	chain := alice.New(loggingHandler, recoverHandler, cors.AllowAll().Handler)
	tt.httpServer = &http.Server{
		Handler:           chain.Then(tt.router),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		err2 := tt.httpServer.Serve(listener)
		if err2 != nil && err2 != http.ErrServerClosed {
			logrus.Errorf("TestThing.Start: Serve: %s", err2)
		}
	}()
	return tt.baseURL, nil
}

// Stop the server and close all connections
func (tt *TestThing) Stop() {
	logrus.Infof("TestThing.Stop: Stopping thing '%s'", tt.Name)
	if tt.httpServer != nil {
		_ = tt.httpServer.Shutdown(context.Background())
	}
}

// NewTestThing creates a test thing. Use Start/Stop to run it.
//  name of the thing used in its ID and paths
//  scheme of its security: api.SecSchemeNoSec, api.SecSchemeBasic or api.SecSchemeBearer
//  tlsConfig with the server certificate to serve https, or nil for http
func NewTestThing(name string, scheme string, tlsConfig *tls.Config) *TestThing {
	tt := &TestThing{
		Name:          name,
		ID:            td.CreateThingID("test", name, api.DeviceTypeThermostat),
		Authenticator: NewAuthenticator(scheme),
		tlsConfig:     tlsConfig,
		router:        mux.NewRouter(),
		values: map[string]interface{}{
			PropTemperature: 21.5,
			PropSetpoint:    20.0,
			PropLabel:       "living room",
			PropCounter:     0,
		},
		events: map[string]interface{}{EventOverheated: true},
	}
	tt.router.HandleFunc("/things/{thing}/td", tt.handleGetTD).Methods(http.MethodGet)

	thingRouter := tt.router.PathPrefix("/things/" + name).Subrouter()
	thingRouter.Use(tt.Authenticator.Handler)
	thingRouter.HandleFunc("/properties/{name}", tt.handleReadProperty).Methods(http.MethodGet)
	thingRouter.HandleFunc("/properties/{name}", tt.handleWriteProperty).Methods(http.MethodPut)
	thingRouter.HandleFunc("/actions/{name}", tt.handleInvokeAction).Methods(http.MethodPost)
	thingRouter.HandleFunc("/events/{name}", tt.handleReadEvent).Methods(http.MethodGet)
	return tt
}
