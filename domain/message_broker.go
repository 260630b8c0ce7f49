package domain

import (
	"context"
	"time"
)

// Topics and routing keys carried by the broker.
const (
	SessionEventsTopic = "session.events"
	TranscriptKey      = "transcript"
)

// MessageBroker fans published payloads out to every live subscriber of a
// topic and routing key.
type MessageBroker interface {
	// Publish sends a message to a specific topic with a routing key
	Publish(ctx context.Context, topic string, routingKey string, message []byte) error

	// Subscribe delivers messages for topic and routingKey until ctx is done.
	Subscribe(ctx context.Context, topic string, routingKey string) (<-chan Envelope, error)

	Close() error
}

// Envelope is a payload received from the broker.
type Envelope struct {
	Topic      string
	RoutingKey string
	Payload    []byte
	Timestamp  time.Time
}
