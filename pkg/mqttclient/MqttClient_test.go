package mqttclient_test

import (
	"context"
	"net"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wostzone/wostconsumer-go/api"
	"github.com/wostzone/wostconsumer-go/pkg/mqttclient"
)

// MQTT_TEST_BROKER holds the URL of a broker to run the pub/sub tests against, eg mqtt://localhost:1883
const testBrokerEnv = "MQTT_TEST_BROKER"

const testTimeout = 3 * time.Second

func TestBrokerURL(t *testing.T) {
	logrus.Infof("--- TestBrokerURL ---")
	brokerURL, err := mqttclient.BrokerURL("mqtt://localhost/things/thing1")
	require.NoError(t, err)
	assert.Equal(t, "tcp://localhost:1883", brokerURL)

	brokerURL, err = mqttclient.BrokerURL("mqtts://broker.local:8884/things")
	require.NoError(t, err)
	assert.Equal(t, "ssl://broker.local:8884", brokerURL)

	brokerURL, err = mqttclient.BrokerURL("mqtts://10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "ssl://10.0.0.1:8883", brokerURL)

	_, err = mqttclient.BrokerURL("http://localhost/things")
	assert.Error(t, err)
	_, err = mqttclient.BrokerURL("mqtt:///things")
	assert.Error(t, err)
}

func TestFormTopic(t *testing.T) {
	logrus.Infof("--- TestFormTopic ---")
	form := api.Form{Href: "mqtt://localhost:1883/things/thing1/properties/level"}
	assert.Equal(t, "things/thing1/properties/level", mqttclient.FormTopic(form, false))

	form.Hints = map[string]interface{}{
		mqttclient.HintTopic:  "thing1/level",
		mqttclient.HintFilter: "thing1/+",
	}
	assert.Equal(t, "thing1/level", mqttclient.FormTopic(form, false))
	assert.Equal(t, "thing1/+", mqttclient.FormTopic(form, true))
}

func TestSetSecurity(t *testing.T) {
	logrus.Infof("--- TestSetSecurity ---")
	cl := mqttclient.NewMqttClient(nil, testTimeout)
	defer cl.Stop()

	err := cl.SetSecurity([]api.SecurityScheme{{Scheme: api.SecSchemeNoSec}}, nil)
	assert.NoError(t, err)
	err = cl.SetSecurity([]api.SecurityScheme{{Scheme: api.SecSchemeBasic}}, nil)
	assert.ErrorIs(t, err, mqttclient.ErrMissingCredentials)
	err = cl.SetSecurity([]api.SecurityScheme{{Scheme: api.SecSchemeBearer}, {Scheme: api.SecSchemeBasic}},
		&api.Credentials{Username: "user1", Password: "pass1"})
	assert.NoError(t, err)
	err = cl.SetSecurity([]api.SecurityScheme{{Scheme: api.SecSchemeCert}},
		&api.Credentials{ClientCertFile: "missing.pem", ClientKeyFile: "missing.pem"})
	assert.Error(t, err)
	err = cl.SetSecurity([]api.SecurityScheme{{Scheme: api.SecSchemeOAuth2}}, nil)
	assert.ErrorIs(t, err, mqttclient.ErrNoSupportedSecurity)
}

func TestNoBroker(t *testing.T) {
	logrus.Infof("--- TestNoBroker ---")
	factory := mqttclient.NewMqttClientFactory("mqtt", nil, time.Second)
	assert.Equal(t, "mqtt", factory.GetScheme())
	cl, err := factory.GetClient()
	require.NoError(t, err)
	defer cl.Stop()

	// nothing listens on port 1
	form := api.Form{Href: "mqtt://127.0.0.1:1/things/thing1/properties/level"}
	_, err = cl.ReadResource(context.Background(), form)
	assert.Error(t, err)
	err = cl.WriteResource(context.Background(), form, api.Content{Body: []byte("1")})
	assert.Error(t, err)
}

func TestPubSub(t *testing.T) {
	logrus.Infof("--- TestPubSub ---")
	broker := os.Getenv(testBrokerEnv)
	if broker == "" {
		t.Skipf("%s not set", testBrokerEnv)
	}
	ctx := context.Background()
	cl := mqttclient.NewMqttClient(nil, testTimeout)
	defer cl.Stop()
	form := api.Form{Href: broker + "/wotconsumer/test/thing1/events/alarm"}

	received := make(chan []byte, 10)
	unsubscribe, err := cl.SubscribeResource(ctx, form, func(content api.Content) {
		received <- content.Body
	})
	require.NoError(t, err)

	_, err = cl.InvokeResource(ctx, form, api.Content{Body: []byte("true")})
	require.NoError(t, err)
	select {
	case payload := <-received:
		assert.Equal(t, "true", string(payload))
	case <-time.After(testTimeout):
		assert.Fail(t, "no message received")
	}

	// read waits for the next message
	go func() {
		time.Sleep(200 * time.Millisecond)
		_ = cl.WriteResource(ctx, form, api.Content{Body: []byte("false")})
	}()
	content, err := cl.ReadResource(ctx, form)
	require.NoError(t, err)
	assert.Equal(t, "false", string(content.Body))
	assert.Empty(t, content.MediaType)

	unsubscribe()
	_ = cl.WriteResource(ctx, form, api.Content{Body: []byte("true")})
	time.Sleep(200 * time.Millisecond)
	assert.Len(t, received, 1)
}

func TestStopWhileConnecting(t *testing.T) {
	logrus.Infof("--- TestStopWhileConnecting ---")
	// a broker that accepts connections but never answers
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()
	cl := mqttclient.NewMqttClient(nil, 2*time.Second)
	form := api.Form{Href: "mqtt://" + listener.Addr().String() + "/things/thing1/properties/level"}
	readResult := make(chan error, 1)
	go func() {
		_, err := cl.ReadResource(context.Background(), form)
		readResult <- err
	}()
	time.Sleep(200 * time.Millisecond)

	// stop must not wait for the pending connection
	start := time.Now()
	cl.Stop()
	assert.True(t, time.Since(start) < time.Second)
	assert.Error(t, <-readResult)
}
