package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/retailbank-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

// KafkaWriter abstracts the kafka writer for testability
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// alertEvent is the wire shape of a published alert
type alertEvent struct {
	Address   string    `json:"address"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// KafkaNotifier publishes alert events to a Kafka topic instead of sending
// email directly; a downstream consumer owns actual delivery.
type KafkaNotifier struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

// NewKafkaNotifier creates an alert event producer and ensures the topic exists
func NewKafkaNotifier(logger *slog.Logger, cfg *config.KafkaConfig) (*KafkaNotifier, error) {
	if cfg.AlertTopic == "" {
		return nil, fmt.Errorf("kafka alert topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for alert producer: %w", err)
	}
	defer conn.Close()

	if err := createTopicIfNotExists(conn, cfg.AlertTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure alert topic %s exists: %w", cfg.AlertTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.AlertTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        true, // alerts are fire-and-forget
		WriteTimeout: cfg.WriteTimeout,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to write alert events asynchronously", "topic", cfg.AlertTopic, "error", err, "count", len(messages))
			} else {
				logger.Debug("Successfully wrote alert events asynchronously", "topic", cfg.AlertTopic, "count", len(messages))
			}
		},
	}

	return &KafkaNotifier{
		logger: logger,
		writer: writer,
		topic:  cfg.AlertTopic,
	}, nil
}

// Send publishes the alert as an event keyed by the recipient address
func (n *KafkaNotifier) Send(ctx context.Context, address, subject, body string) error {
	value, err := json.Marshal(alertEvent{
		Address:   address,
		Subject:   subject,
		Body:      body,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal alert event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(address),
		Value: value,
	}

	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		n.logger.Error("Failed to publish alert event",
			"topic", n.topic,
			"address", address,
			"error", err,
		)
		return fmt.Errorf("failed to publish alert event to %s: %w", n.topic, err)
	}

	n.logger.Debug("Published alert event", "topic", n.topic, "address", address)
	return nil
}

// Close flushes and closes the underlying writer
func (n *KafkaNotifier) Close() error {
	n.logger.Info("Closing Kafka alert producer", "topic", n.topic)
	if err := n.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", n.topic, err)
	}
	return nil
}

// createTopicIfNotExists creates the topic if not found, retrying partition reads
func createTopicIfNotExists(conn *kafka.Conn, topicName string, numPartitions, replicationFactor int, log *slog.Logger) error {
	var partitions []kafka.Partition
	var err error

	log.Info("Checking if Kafka topic exists", "topic", topicName)
	for i := 0; i < 5; i++ {
		partitions, err = conn.ReadPartitions(topicName)
		if err == nil {
			break
		}
		log.Warn("Failed to read partitions, retrying...", "topic", topicName, "attempt", i+1, "error", err)
		time.Sleep(2 * time.Second)
	}

	if len(partitions) == 0 {
		log.Info("Kafka topic does not exist or is not accessible, attempting to create it", "topic", topicName)
		topicConfig := kafka.TopicConfig{
			Topic:             topicName,
			NumPartitions:     numPartitions,
			ReplicationFactor: replicationFactor,
		}
		if topicConfig.NumPartitions == 0 {
			topicConfig.NumPartitions = 1
		}
		if topicConfig.ReplicationFactor == 0 {
			topicConfig.ReplicationFactor = 1
		}

		if creationErr := conn.CreateTopics(topicConfig); creationErr != nil {
			return fmt.Errorf("failed to create kafka topic %s: %w", topicName, creationErr)
		}
		log.Info("Successfully created Kafka topic", "topic", topicName)
	} else {
		log.Info("Kafka topic already exists", "topic", topicName)
	}
	return nil
}
