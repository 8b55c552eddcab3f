package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTOptions configure the MQTT sink.
type MQTTOptions struct {
	Broker      string // host:port
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
}

// MQTTSink publishes snapshots to <prefix>/channelinfo.
type MQTTSink struct {
	client mqtt.Client
	topic  string
}

// NewMQTTSink connects to the broker.
func NewMQTTSink(o MQTTOptions) (*MQTTSink, error) {
	if o.Broker == "" {
		return nil, fmt.Errorf("MQTT broker address is required")
	}
	if o.TopicPrefix == "" {
		o.TopicPrefix = "electric"
	}
	if o.ClientID == "" {
		o.ClientID = "electric-notifier"
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", o.Broker))
	opts.SetClientID(o.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(10 * time.Second)
	if o.Username != "" {
		opts.SetUsername(o.Username)
	}
	if o.Password != "" {
		opts.SetPassword(o.Password)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
	}
	return newMQTTSink(client, o.TopicPrefix), nil
}

func newMQTTSink(client mqtt.Client, prefix string) *MQTTSink {
	return &MQTTSink{client: client, topic: prefix + "/channelinfo"}
}

type mqttPayload struct {
	Source string    `json:"source"`
	Reason string    `json:"reason"`
	Taken  time.Time `json:"taken"`
	Info   string    `json:"info"`
}

// Write publishes the snapshot with QoS 1 and waits for the broker until ctx is done.
func (m *MQTTSink) Write(ctx context.Context, s Snapshot) error {
	body, err := json.Marshal(mqttPayload{Source: s.Source, Reason: s.Reason, Taken: s.Taken, Info: string(s.Data)})
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	token := m.client.Publish(m.topic, 1, false, body)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return fmt.Errorf("publishing to %s: %w", m.topic, ctx.Err())
	}
}

// Close disconnects from the MQTT broker.
func (m *MQTTSink) Close() error {
	if m.client != nil && m.client.IsConnected() {
		m.client.Disconnect(250)
	}
	return nil
}
