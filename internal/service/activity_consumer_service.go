package service

import (
	"context"
	"encoding/json"

	"career-counselor-be/internal/pkg/logger"
	"career-counselor-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// activityConsumerService turns chat activity events into structured log
// entries. This is where a masked provider failure becomes visible to
// monitoring, even though the end user only ever sees reply text.
type activityConsumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	log       logger.ILogger
}

func NewActivityConsumerService(pubSub *gochannel.GoChannel, topicName string, log logger.ILogger) IConsumerService {
	return &activityConsumerService{
		pubSub:    pubSub,
		topicName: topicName,
		log:       log,
	}
}

func (cs *activityConsumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *activityConsumerService) processMessage(msg *message.Message) {
	var event events.BaseEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		cs.log.Error("activity", "failed to unmarshal event", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	if event.Type == events.TypeAIReplyGenerated {
		if degraded, ok := event.Data["degraded"].(bool); ok && degraded {
			cs.log.Warn("activity", "ai reply degraded to fallback", event.Data)
			msg.Ack()
			return
		}
	}

	cs.log.Info("activity", event.Type, event.Data)
	msg.Ack()
}
