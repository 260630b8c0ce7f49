package message_broker

import (
	"context"
	"encoding/json"

	"github.com/satriahrh/campus-chat/domain"
	"github.com/satriahrh/campus-chat/utils/log"
	"go.uber.org/zap"
)

// SessionEventPublisher forwards chat session events onto the broker, where
// the websocket server picks them up.
type SessionEventPublisher struct {
	broker domain.MessageBroker
}

func NewSessionEventPublisher(broker domain.MessageBroker) *SessionEventPublisher {
	return &SessionEventPublisher{broker: broker}
}

// Publish has the shape of usecase.EventSink. Failures are logged only; a
// lost event costs a re-render, never a turn.
func (p *SessionEventPublisher) Publish(ctx context.Context, event domain.SessionEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.WithCtx(ctx).Error("Failed to marshal session event", zap.Error(err))
		return
	}

	// Session contexts are cancelled on close, yet the closing event must
	// still go out.
	ctx = context.WithoutCancel(ctx)
	if err := p.broker.Publish(ctx, domain.SessionEventsTopic, domain.TranscriptKey, payload); err != nil {
		log.WithCtx(ctx).Warn("Failed to publish session event",
			zap.String("type", string(event.Type)),
			zap.Error(err))
	}
}
