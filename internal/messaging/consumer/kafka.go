package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"verichain/config"
	"verichain/internal/models"
)

// KafkaConsumer implements the Consumer interface on a kafka-go reader.
type KafkaConsumer struct {
	reader *kafka.Reader
	logger *log.Logger
}

// NewKafkaConsumer creates a new KafkaConsumer instance.
func NewKafkaConsumer(cfg config.KafkaConsumerConfig, logger *log.Logger) (*KafkaConsumer, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" || cfg.GroupID == "" {
		return nil, errors.New("incomplete kafka configuration: brokers, topic, group_id are all required")
	}

	sessionTimeout, err := time.ParseDuration(cfg.SessionTimeout)
	if err != nil {
		logger.Printf("Warning: Invalid session_timeout '%s', using default 30s", cfg.SessionTimeout)
		sessionTimeout = 30 * time.Second
	}
	heartbeatInterval, err := time.ParseDuration(cfg.HeartbeatInterval)
	if err != nil {
		logger.Printf("Warning: Invalid heartbeat_interval '%s', using default 3s", cfg.HeartbeatInterval)
		heartbeatInterval = 3 * time.Second
	}

	readerConfig := kafka.ReaderConfig{
		Brokers:           cfg.Brokers,
		GroupID:           cfg.GroupID,
		Topic:             cfg.Topic,
		MinBytes:          10e3,
		MaxBytes:          10e6,
		MaxWait:           1 * time.Second,
		CommitInterval:    time.Second,
		SessionTimeout:    sessionTimeout,
		HeartbeatInterval: heartbeatInterval,
		StartOffset:       kafka.FirstOffset,
	}
	if cfg.AutoOffsetReset == "latest" {
		readerConfig.StartOffset = kafka.LastOffset
	}

	r := kafka.NewReader(readerConfig)

	logger.Printf("Kafka consumer created, Brokers: %v, Topic: %s, GroupID: %s", cfg.Brokers, cfg.Topic, cfg.GroupID)

	return &KafkaConsumer{reader: r, logger: logger}, nil
}

// Consume reads one notification from Kafka.
func (k *KafkaConsumer) Consume(ctx context.Context) (n *models.Notification, ack func(success bool), err error) {
	kafkaMsg, err := k.reader.FetchMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, nil, ctx.Err()
		}
		return nil, nil, err
	}

	var notification models.Notification
	if err := json.Unmarshal(kafkaMsg.Value, &notification); err != nil {
		k.logger.Printf("Failed to deserialize notification (Offset: %d): %v. Message will be discarded.", kafkaMsg.Offset, err)
		_ = k.reader.CommitMessages(ctx, kafkaMsg) // commit so a poison message cannot block the partition
		return nil, nil, fmt.Errorf("notification deserialization failed: %w", err)
	}

	ackCallback := func(success bool) {
		commitCtx := context.Background()
		if success {
			if err := k.reader.CommitMessages(commitCtx, kafkaMsg); err != nil {
				k.logger.Printf("Failed to commit offset %d: %v", kafkaMsg.Offset, err)
			}
		} else {
			k.logger.Printf("NACK received for offset %d (notification %s). Offset will not be committed.",
				kafkaMsg.Offset, notification.NotificationID)
		}
	}

	return &notification, ackCallback, nil
}

// Close closes the Kafka reader.
func (k *KafkaConsumer) Close() error {
	k.logger.Println("Closing Kafka consumer...")
	return k.reader.Close()
}

var _ Consumer = (*KafkaConsumer)(nil)
