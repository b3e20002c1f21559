package mqttclient

import (
	"crypto/tls"
	"errors"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ConnectionTimeoutSec constant with connection and reconnection timeouts
const ConnectionTimeoutSec = 20

// ErrNotConnected is returned when publishing or subscribing without a broker connection
var ErrNotConnected = errors.New("no connection with broker")

// topicSubscription holds the receivers of a topic for dispatching and re-subscribing after reconnect
type topicSubscription struct {
	topic     string
	receivers map[uint64]func(payload []byte)
}

// BrokerConnection is a connection to a single MQTT broker.
// Subscriptions are restored after a reconnect as a clean session is used.
type BrokerConnection struct {
	clientID      string
	brokerURL     string // tcp://host:port or ssl://host:port
	qos           byte
	timeout       time.Duration
	pahoClient    pahomqtt.Client
	subscriptions map[string]*topicSubscription
	nextID        uint64
	updateMutex   sync.Mutex
}

// Connect to the broker
// Returns an error if the connection cannot be established within the timeout
//  tlsConfig for ssl:// brokers, nil for tcp://
//  userName and password to authenticate with. Use "" to ignore
func (bc *BrokerConnection) Connect(tlsConfig *tls.Config, userName string, password string) error {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(bc.brokerURL)
	opts.SetClientID(bc.clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(bc.timeout)
	opts.SetMaxReconnectInterval(60 * time.Second)
	// CleanSession disables persistence as client IDs are unique per connection
	opts.SetCleanSession(true)
	opts.SetKeepAlive(ConnectionTimeoutSec * time.Second)
	opts.SetOnConnectHandler(func(client pahomqtt.Client) {
		logrus.Warningf("BrokerConnection.onConnect: Connected to broker at %s. ClientId=%s",
			bc.brokerURL, bc.clientID)
		bc.resubscribe()
	})
	opts.SetConnectionLostHandler(func(client pahomqtt.Client, err error) {
		logrus.Warningf("BrokerConnection.onConnectionLost: Disconnected from broker %s. Error %s, ClientId=%s",
			bc.brokerURL, err, bc.clientID)
	})
	if tlsConfig != nil {
		opts.SetTLSConfig(tlsConfig)
	}
	if userName != "" {
		opts.SetUsername(userName)
		opts.SetPassword(password)
	}
	logrus.Infof("BrokerConnection.Connect: Connecting to MQTT broker %s with clientID %s",
		bc.brokerURL, bc.clientID)

	pahoClient := pahomqtt.NewClient(opts)
	bc.updateMutex.Lock()
	bc.pahoClient = pahoClient
	bc.updateMutex.Unlock()

	token := pahoClient.Connect()
	if !token.WaitTimeout(bc.timeout) {
		logrus.Errorf("BrokerConnection.Connect: Connecting to broker on %s timed out", bc.brokerURL)
		pahoClient.Disconnect(0)
		return errors.New("timeout connecting to broker " + bc.brokerURL)
	}
	if err := token.Error(); err != nil {
		logrus.Errorf("BrokerConnection.Connect: Connecting to broker on %s failed: %s", bc.brokerURL, err)
		return err
	}
	return nil
}

// Disconnect from the broker and remove all subscriptions
func (bc *BrokerConnection) Disconnect() {
	bc.updateMutex.Lock()
	pahoClient := bc.pahoClient
	bc.pahoClient = nil
	bc.subscriptions = make(map[string]*topicSubscription)
	bc.updateMutex.Unlock()

	if pahoClient != nil {
		logrus.Warningf("BrokerConnection.Disconnect: Client %s from %s", bc.clientID, bc.brokerURL)
		pahoClient.Disconnect(250)
	}
}

// IsConnected returns true if the connection with the broker is established
func (bc *BrokerConnection) IsConnected() bool {
	bc.updateMutex.Lock()
	defer bc.updateMutex.Unlock()
	return bc.pahoClient != nil && bc.pahoClient.IsConnected()
}

// Publish a message to a topic
func (bc *BrokerConnection) Publish(topic string, message []byte) error {
	bc.updateMutex.Lock()
	pahoClient := bc.pahoClient
	bc.updateMutex.Unlock()
	if pahoClient == nil || !pahoClient.IsConnected() {
		logrus.Warnf("BrokerConnection.Publish: Unable to publish to %s. No connection with broker.", topic)
		return ErrNotConnected
	}
	logrus.Infof("BrokerConnection.Publish: topic=%s, qos=%d", topic, bc.qos)
	token := pahoClient.Publish(topic, bc.qos, false, message)
	if !token.WaitTimeout(bc.timeout) {
		return errors.New("timeout publishing to " + topic)
	}
	err := token.Error()
	if err != nil {
		logrus.Warnf("BrokerConnection.Publish: Error during publish on topic %s: %v", topic, err)
	}
	return err
}

// Subscribe to a topic. Multiple receivers can subscribe to the same topic.
// Returns the ID of the receiver for use with Unsubscribe.
//  topic to subscribe to. This supports mqtt wildcards such as + and #
//  handler receives the message payload
func (bc *BrokerConnection) Subscribe(topic string, handler func(payload []byte)) (uint64, error) {
	bc.updateMutex.Lock()
	pahoClient := bc.pahoClient
	if pahoClient == nil {
		bc.updateMutex.Unlock()
		return 0, ErrNotConnected
	}
	bc.nextID++
	receiverID := bc.nextID
	subscription, exists := bc.subscriptions[topic]
	if !exists {
		subscription = &topicSubscription{topic: topic, receivers: make(map[uint64]func([]byte))}
		bc.subscriptions[topic] = subscription
	}
	subscription.receivers[receiverID] = handler
	bc.updateMutex.Unlock()
	if exists {
		return receiverID, nil
	}

	// the lock is not held while waiting as paho delivers messages on the same route
	logrus.Infof("BrokerConnection.Subscribe: topic %s, qos %d", topic, bc.qos)
	token := pahoClient.Subscribe(topic, bc.qos, bc.topicHandler(topic))
	var err error
	if !token.WaitTimeout(bc.timeout) {
		err = errors.New("timeout subscribing to " + topic)
	} else {
		err = token.Error()
	}
	if err != nil {
		logrus.Errorf("BrokerConnection.Subscribe: Error subscribing to %s: %s", topic, err)
		bc.Unsubscribe(topic, receiverID)
		return 0, err
	}
	return receiverID, nil
}

// Unsubscribe a receiver from a topic
// The broker subscription ends when the last receiver is removed.
func (bc *BrokerConnection) Unsubscribe(topic string, receiverID uint64) {
	bc.updateMutex.Lock()
	defer bc.updateMutex.Unlock()
	subscription := bc.subscriptions[topic]
	if subscription == nil {
		logrus.Warningf("BrokerConnection.Unsubscribe: Subscription on topic %s didn't exist. Ignored", topic)
		return
	}
	delete(subscription.receivers, receiverID)
	if len(subscription.receivers) == 0 {
		logrus.Infof("BrokerConnection.Unsubscribe: topic %s", topic)
		delete(bc.subscriptions, topic)
		if bc.pahoClient != nil {
			bc.pahoClient.Unsubscribe(topic)
		}
	}
}

// topicHandler returns the paho message handler of a subscription topic.
// Paho invokes the handler of every subscription whose filter matches the message, so each
// handler only dispatches to the receivers of its own topic.
func (bc *BrokerConnection) topicHandler(topic string) pahomqtt.MessageHandler {
	return func(client pahomqtt.Client, msg pahomqtt.Message) {
		bc.dispatch(topic, msg.Topic(), msg.Payload())
	}
}

// dispatch passes a message payload to the receivers of a subscription topic
//  topic the subscription topic, possibly with wildcards
//  msgTopic the topic the message was published on
func (bc *BrokerConnection) dispatch(topic string, msgTopic string, payload []byte) {
	bc.updateMutex.Lock()
	receivers := make([]func([]byte), 0)
	subscription := bc.subscriptions[topic]
	if subscription != nil && topicMatches(topic, msgTopic) {
		for _, handler := range subscription.receivers {
			receivers = append(receivers, handler)
		}
	}
	bc.updateMutex.Unlock()
	logrus.Debugf("BrokerConnection.dispatch: subscription=%s, topic=%s, receivers=%d",
		topic, msgTopic, len(receivers))
	for _, handler := range receivers {
		handler(payload)
	}
}

// resubscribe to the topics after establishing a connection.
// Paho drops the subscriptions after disconnect when using a clean session.
func (bc *BrokerConnection) resubscribe() {
	bc.updateMutex.Lock()
	defer bc.updateMutex.Unlock()
	if bc.pahoClient == nil {
		return
	}
	logrus.Infof("BrokerConnection.resubscribe to %d topics", len(bc.subscriptions))
	for topic := range bc.subscriptions {
		bc.pahoClient.Subscribe(topic, bc.qos, bc.topicHandler(topic))
	}
}

// NewBrokerConnection creates a connection instance to a broker. Use Connect to connect.
// A unique client ID is generated for each connection.
//  brokerURL to connect to, eg tcp://localhost:1883 or ssl://localhost:8883
//  timeout for connecting, publishing and subscribing
func NewBrokerConnection(brokerURL string, timeout time.Duration) *BrokerConnection {
	bc := &BrokerConnection{
		clientID:      "wotconsumer-" + uuid.New().String(),
		brokerURL:     brokerURL,
		qos:           1,
		timeout:       timeout,
		subscriptions: make(map[string]*topicSubscription),
	}
	return bc
}
