package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/hayaat-app/payment-service/internal/domain"
	"github.com/hayaat-app/payment-service/internal/kafka"
	"github.com/hayaat-app/payment-service/pkg/logger"
)

// SubscriptionEvent представляет событие подписки для Kafka
type SubscriptionEvent struct {
	SubscriptionID  string    `json:"subscription_id"`
	UserID          string    `json:"user_id"`
	Tier            string    `json:"tier"`
	Amount          float64   `json:"amount"`
	SubscriptionEnd time.Time `json:"subscription_end"`
	Timestamp       time.Time `json:"timestamp"`
}

// SubscriptionProducer интерфейс для публикации событий подписок.
// Публикация best-effort: ошибка брокера логируется вызывающей стороной
// и не влияет на результат подтверждения платежа.
type SubscriptionProducer interface {
	PublishSubscriptionActivated(ctx context.Context, sub *domain.Subscription) error
	PublishSubscriptionRenewed(ctx context.Context, sub *domain.Subscription) error
	Close() error
}

type kafkaSubscriptionProducer struct {
	producer sarama.SyncProducer
	log      *logger.Logger
}

// NewKafkaSubscriptionProducer создает новый продюсер событий подписок
func NewKafkaSubscriptionProducer(producer sarama.SyncProducer, log *logger.Logger) SubscriptionProducer {
	return &kafkaSubscriptionProducer{
		producer: producer,
		log:      log,
	}
}

// PublishSubscriptionActivated публикует событие активации подписки
func (p *kafkaSubscriptionProducer) PublishSubscriptionActivated(ctx context.Context, sub *domain.Subscription) error {
	return p.publishEvent(kafka.TopicSubscriptionActivated, sub)
}

// PublishSubscriptionRenewed публикует событие продления подписки
func (p *kafkaSubscriptionProducer) PublishSubscriptionRenewed(ctx context.Context, sub *domain.Subscription) error {
	return p.publishEvent(kafka.TopicSubscriptionRenewed, sub)
}

// publishEvent сериализует и отправляет событие подписки
func (p *kafkaSubscriptionProducer) publishEvent(topic string, sub *domain.Subscription) error {
	event := SubscriptionEvent{
		SubscriptionID:  sub.ID.String(),
		UserID:          sub.UserID,
		Tier:            sub.Tier,
		Amount:          sub.Amount,
		SubscriptionEnd: sub.SubscriptionEnd,
		Timestamp:       time.Now(),
	}

	messageValue, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal subscription event: %w", err)
	}

	// Ключ - ID подписки: события одной подписки попадают в одну партицию
	message := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(sub.ID.String()),
		Value: sarama.ByteEncoder(messageValue),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("event_type"),
				Value: []byte(topic),
			},
		},
		Timestamp: time.Now(),
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to publish subscription event: %w", err)
	}

	p.log.Info("Published subscription event to topic %s: partition=%d offset=%d",
		topic, partition, offset)

	return nil
}

// Close закрывает продюсер
func (p *kafkaSubscriptionProducer) Close() error {
	return p.producer.Close()
}
