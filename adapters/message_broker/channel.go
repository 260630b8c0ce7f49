package message_broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/satriahrh/campus-chat/domain"
	"github.com/satriahrh/campus-chat/utils/log"
	"go.uber.org/zap"
)

const subscriberBuffer = 100

type subscription struct {
	ch chan domain.Envelope
}

// ChannelMessageBroker implements MessageBroker in process using Go
// channels. Every subscriber of a topic/routing key gets its own buffered
// channel; a subscriber that falls behind loses messages instead of
// stalling publishers.
type ChannelMessageBroker struct {
	mu     sync.RWMutex
	topics map[string]map[*subscription]struct{}
	closed bool
}

func NewChannelMessageBroker() *ChannelMessageBroker {
	return &ChannelMessageBroker{
		topics: make(map[string]map[*subscription]struct{}),
	}
}

// makeKey creates a unique key for topic and routingKey
func makeKey(topic, routingKey string) string {
	return topic + ":" + routingKey
}

// Publish sends a message to every subscriber of topic and routingKey.
func (b *ChannelMessageBroker) Publish(ctx context.Context, topic string, routingKey string, message []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("message broker is closed")
	}

	msg := domain.Envelope{
		Topic:      topic,
		RoutingKey: routingKey,
		Payload:    message,
		Timestamp:  time.Now(),
	}

	key := makeKey(topic, routingKey)
	for sub := range b.topics[key] {
		select {
		case sub.ch <- msg:
		default:
			log.WithCtx(ctx).Warn("Subscriber channel full, dropping message", zap.String("key", key))
		}
	}

	log.WithCtx(ctx).Debug("Message published to topic",
		zap.String("topic", topic),
		zap.String("routingKey", routingKey),
		zap.Int("subscribers", len(b.topics[key])),
		zap.Int("payload_size", len(message)))
	return nil
}

// Subscribe registers a new subscriber. Its channel is closed once ctx is
// done or the broker is closed.
func (b *ChannelMessageBroker) Subscribe(ctx context.Context, topic string, routingKey string) (<-chan domain.Envelope, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("message broker is closed")
	}

	key := makeKey(topic, routingKey)
	subs, exists := b.topics[key]
	if !exists {
		subs = make(map[*subscription]struct{})
		b.topics[key] = subs
	}
	sub := &subscription{ch: make(chan domain.Envelope, subscriberBuffer)}
	subs[sub] = struct{}{}

	go func() {
		<-ctx.Done()
		b.unsubscribe(key, sub)
	}()

	log.WithCtx(ctx).Info("Subscribed to topic", zap.String("topic", topic), zap.String("routingKey", routingKey))
	return sub.ch, nil
}

func (b *ChannelMessageBroker) unsubscribe(key string, sub *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.topics[key]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	close(sub.ch)
	if len(subs) == 0 {
		delete(b.topics, key)
	}
}

// Close closes the message broker and every subscriber channel
func (b *ChannelMessageBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	b.closed = true

	for key, subs := range b.topics {
		for sub := range subs {
			close(sub.ch)
		}
		log.With(zap.String("key", key)).Debug("Closed topic subscribers")
	}

	b.topics = make(map[string]map[*subscription]struct{})

	log.With().Info("Message broker closed")
	return nil
}

// GetTopicCount returns the number of topics with live subscribers
func (b *ChannelMessageBroker) GetTopicCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics)
}

func (b *ChannelMessageBroker) IsClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}
