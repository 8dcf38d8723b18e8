package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"
)

// KafkaPublisher writes events with one shared writer; the topic is chosen per message.
type KafkaPublisher struct {
	writer *kafkaGo.Writer
	prefix string
}

func NewKafkaPublisher(brokers []string, prefix string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafkaGo.Writer{
			Addr:                   kafkaGo.TCP(brokers...),
			Balancer:               &kafkaGo.Hash{},
			RequiredAcks:           kafkaGo.RequireOne,
			AllowAutoTopicCreation: true,
			BatchTimeout:           10 * time.Millisecond,
		},
		prefix: prefix,
	}
}

func (k *KafkaPublisher) Publish(ctx context.Context, key string, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return k.writer.WriteMessages(ctx, kafkaGo.Message{
		Topic: Topic(k.prefix, e.Type),
		Key:   []byte(key),
		Value: payload,
		Headers: []kafkaGo.Header{
			{Key: "event-type", Value: []byte(e.Type)},
		},
	})
}

func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}

// Consume reads topic as part of groupID and calls handler with each decoded event until ctx is done.
func Consume(ctx context.Context, brokers []string, topic, groupID string, logger *log.Logger, handler func(ctx context.Context, e Event) error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})
	defer reader.Close()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Printf("events: consumer topic=%s shutting down", topic)
				return
			}
			logger.Printf("events: read topic=%s error=%v", topic, err)
			continue
		}

		var e Event
		if err := json.Unmarshal(msg.Value, &e); err != nil {
			logger.Printf("events: decode topic=%s offset=%d error=%v", topic, msg.Offset, err)
			continue
		}
		if err := handler(ctx, e); err != nil {
			logger.Printf("events: handle topic=%s id=%s error=%v", topic, e.ID, err)
		}
	}
}
