package alert

import (
	"context"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/couchcryptid/water-quality-monitor/internal/domain"
)

// MQTTNotifier publishes alerts to an MQTT topic, for deployments where the
// field network already runs a broker.
type MQTTNotifier struct {
	client mqtt.Client
	topic  string
}

// NewMQTTNotifier connects to the broker and returns a notifier publishing
// to the given topic.
func NewMQTTNotifier(brokerURL, clientID, topic string) (*MQTTNotifier, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect to MQTT broker: %w", token.Error())
	}

	return &MQTTNotifier{client: client, topic: topic}, nil
}

// Send publishes the alert at QoS 1. The context's deadline bounds the wait
// for broker acknowledgement.
func (n *MQTTNotifier) Send(ctx context.Context, message string) error {
	token := n.client.Publish(n.topic, 1, false, []byte(message))

	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("%w: publish to %s: %v", domain.ErrNotifyFailed, n.topic, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: publish to %s: %v", domain.ErrNotifyFailed, n.topic, ctx.Err())
	}
}

// Close disconnects from the broker, allowing in-flight publishes a short
// grace period.
func (n *MQTTNotifier) Close() {
	n.client.Disconnect(250)
}
