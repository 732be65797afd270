package mqtt

import (
	"encoding/json"
	"fmt"

	"github.com/AaronLay10/TreasureLand/internal/events"
)

// Publisher forwards game events to <prefix>/events/<event name>.
type Publisher struct {
	transport Transport
	prefix    string
}

// NewPublisher creates an events.Sink that publishes through t.
func NewPublisher(t Transport, prefix string) *Publisher {
	return &Publisher{transport: t, prefix: prefix}
}

// Topic returns the topic an event with the given name is published to.
func (p *Publisher) Topic(name string) string {
	return fmt.Sprintf("%s/events/%s", p.prefix, name)
}

// Write implements events.Sink.
func (p *Publisher) Write(e events.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return p.transport.Publish(p.Topic(e.Name), data)
}
