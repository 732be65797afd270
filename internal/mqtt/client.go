package mqtt

import (
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

const opTimeout = 10 * time.Second

// Transport is the subset of the broker client the publisher and command
// handler need.
type Transport interface {
	Publish(topic string, payload []byte) error
	Subscribe(topic string, handler paho.MessageHandler) error
}

// Client wraps the Paho MQTT client. Subscriptions are remembered and
// replayed on every (re)connect.
type Client struct {
	client    paho.Client
	brokerURL string
	mu        sync.Mutex
	subs      map[string]paho.MessageHandler
}

// NewClient creates a new MQTT client but does not connect.
func NewClient(brokerURL, clientID string) *Client {
	c := &Client{
		brokerURL: brokerURL,
		subs:      make(map[string]paho.MessageHandler),
	}

	opts := paho.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetKeepAlive(30 * time.Second).
		// Handlers publish replies and events, so each message gets its
		// own goroutine instead of blocking paho's router.
		SetOrderMatters(false).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warn().Err(err).Str("broker", brokerURL).Msg("mqtt connection lost")
		}).
		SetOnConnectHandler(c.onConnect)

	c.client = paho.NewClient(opts)
	return c
}

func (c *Client) onConnect(pc paho.Client) {
	log.Info().Str("broker", c.brokerURL).Msg("mqtt connected")

	c.mu.Lock()
	subs := make(map[string]paho.MessageHandler, len(c.subs))
	for topic, h := range c.subs {
		subs[topic] = h
	}
	c.mu.Unlock()

	// Tokens are not awaited inside the connect handler.
	for topic, h := range subs {
		token := pc.Subscribe(topic, 1, h)
		go func() {
			if token.WaitTimeout(opTimeout) && token.Error() != nil {
				log.Error().Err(token.Error()).Str("topic", topic).Msg("mqtt resubscribe failed")
			}
		}()
	}
}

// Connect attempts to connect to the broker.
// Returns an error if connection fails, but does not block indefinitely.
// Retries continue in the background after a timeout.
func (c *Client) Connect() error {
	token := c.client.Connect()
	if !token.WaitTimeout(opTimeout) {
		return &TimeoutError{Op: "connect", Topic: c.brokerURL}
	}
	return token.Error()
}

// Subscribe subscribes to a topic with the given handler at QoS 1. While
// disconnected the subscription is only recorded and made on connect.
func (c *Client) Subscribe(topic string, handler paho.MessageHandler) error {
	c.mu.Lock()
	c.subs[topic] = handler
	c.mu.Unlock()

	if !c.client.IsConnected() {
		return nil
	}

	token := c.client.Subscribe(topic, 1, handler)
	if !token.WaitTimeout(opTimeout) {
		return &TimeoutError{Op: "subscribe", Topic: topic}
	}
	return token.Error()
}

// Publish sends payload to topic at QoS 1, not retained.
func (c *Client) Publish(topic string, payload []byte) error {
	token := c.client.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(opTimeout) {
		return &TimeoutError{Op: "publish", Topic: topic}
	}
	return token.Error()
}

// Disconnect cleanly disconnects from the broker.
func (c *Client) Disconnect() {
	c.client.Disconnect(1000)
}

// IsConnected returns true if the client is connected.
func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}

// TimeoutError indicates a broker operation did not complete in time.
type TimeoutError struct {
	Op    string
	Topic string
}

func (e *TimeoutError) Error() string {
	return "mqtt " + e.Op + " timeout: " + e.Topic
}
