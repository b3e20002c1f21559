package mqttclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTopicMatches(t *testing.T) {
	assert.True(t, topicMatches("things/thing1/events/alarm", "things/thing1/events/alarm"))
	assert.True(t, topicMatches("things/+/events/alarm", "things/thing1/events/alarm"))
	assert.True(t, topicMatches("things/#", "things/thing1/events/alarm"))
	assert.True(t, topicMatches("#", "things"))
	assert.False(t, topicMatches("things/+/events", "things/thing1/events/alarm"))
	assert.False(t, topicMatches("things/thing2/#", "things/thing1/events/alarm"))
	assert.False(t, topicMatches("things/thing1/events/alarm/x", "things/thing1/events/alarm"))
}

func TestDispatchOverlappingTopics(t *testing.T) {
	bc := NewBrokerConnection("tcp://localhost:1883", time.Second)
	wildcardCount := 0
	exactCount := 0
	bc.subscriptions["things/+/events/alarm"] = &topicSubscription{
		topic:     "things/+/events/alarm",
		receivers: map[uint64]func([]byte){1: func([]byte) { wildcardCount++ }},
	}
	bc.subscriptions["things/thing1/events/alarm"] = &topicSubscription{
		topic:     "things/thing1/events/alarm",
		receivers: map[uint64]func([]byte){2: func([]byte) { exactCount++ }},
	}

	// paho calls the handler of each matching subscription once
	msgTopic := "things/thing1/events/alarm"
	for topic := range bc.subscriptions {
		bc.dispatch(topic, msgTopic, []byte("true"))
	}
	assert.Equal(t, 1, wildcardCount)
	assert.Equal(t, 1, exactCount)

	// only the wildcard subscription matches another thing
	bc.dispatch("things/+/events/alarm", "things/thing2/events/alarm", []byte("true"))
	assert.Equal(t, 2, wildcardCount)
	assert.Equal(t, 1, exactCount)

	// unknown subscriptions are ignored
	bc.dispatch("things/thing3/#", "things/thing3/events/alarm", nil)
	assert.Equal(t, 2, wildcardCount)
}
