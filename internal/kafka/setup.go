package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hayaat-app/payment-service/pkg/logger"
	kafkaGo "github.com/segmentio/kafka-go"
)

// Топики событий подписок.
const (
	TopicSubscriptionActivated = "subscription.activated"
	TopicSubscriptionRenewed   = "subscription.renewed"
)

// EnsureTopics проверяет и создает топики событий подписок.
// Вызывается один раз при старте сервиса.
func EnsureTopics(brokers []string, log *logger.Logger) error {
	requiredTopics := []kafkaGo.TopicConfig{
		{
			Topic:             TopicSubscriptionActivated,
			NumPartitions:     3,
			ReplicationFactor: 1,
		},
		{
			Topic:             TopicSubscriptionRenewed,
			NumPartitions:     3,
			ReplicationFactor: 1,
		},
	}

	if len(brokers) == 0 || brokers[0] == "" {
		return errors.New("kafka broker address is empty")
	}

	connCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, err := kafkaGo.DialContext(connCtx, "tcp", brokers[0])
	if err != nil {
		log.Errorw("Failed to connect to Kafka broker for topic creation", "broker", brokers[0], "error", err)
		return fmt.Errorf("kafka connection failed: %w", err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		log.Errorw("Failed to read partitions from Kafka", "error", err)
		return fmt.Errorf("kafka read partitions failed: %w", err)
	}

	existingTopics := make(map[string]bool)
	for _, p := range partitions {
		existingTopics[p.Topic] = true
	}

	var topicsToCreate []kafkaGo.TopicConfig
	for _, tc := range requiredTopics {
		if !existingTopics[tc.Topic] {
			topicsToCreate = append(topicsToCreate, tc)
		}
	}

	if len(topicsToCreate) == 0 {
		log.Debugw("All required Kafka topics already exist")
		return nil
	}

	if err := conn.CreateTopics(topicsToCreate...); err != nil {
		// Гонка со вторым инстансом сервиса при старте - не ошибка
		if errors.Is(err, kafkaGo.TopicAlreadyExists) {
			log.Warnw("Kafka topics already existed during creation attempt")
			return nil
		}
		log.Errorw("Failed to create Kafka topics", "error", err)
		return fmt.Errorf("kafka create topics failed: %w", err)
	}

	log.Infow("Kafka topics created", "count", len(topicsToCreate))
	return nil
}
