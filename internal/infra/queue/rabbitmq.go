package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"kejebe-backend/internal/domain"
	"kejebe-backend/internal/infra/metrics"
)

// RabbitFeedEvents публикует и читает события показа главной страницы
// через RabbitMQ.
type RabbitFeedEvents struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
}

// NewRabbitFeedEvents подключается к брокеру и объявляет очередь.
func NewRabbitFeedEvents(amqpURL, queue string) (*RabbitFeedEvents, error) {
	if amqpURL == "" {
		return nil, errors.New("amqp url is empty")
	}
	if queue == "" {
		return nil, errors.New("queue name is empty")
	}
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("подключение к rabbitmq: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("открытие канала: %w", err)
	}
	if _, err := channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("объявление очереди: %w", err)
	}
	return &RabbitFeedEvents{conn: conn, channel: channel, queue: queue}, nil
}

var _ domain.FeedEventPublisher = (*RabbitFeedEvents)(nil)

// PublishFeedView публикует событие показа.
func (q *RabbitFeedEvents) PublishFeedView(ctx context.Context, event domain.FeedViewEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("сериализация события: %w", err)
	}
	start := time.Now()
	err = q.channel.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         payload,
	})
	metrics.ObserveNetworkRequest("rabbitmq", "publish", q.queue, start, err)
	if err != nil {
		return fmt.Errorf("публикация события: %w", err)
	}
	return nil
}

// Consume читает события из очереди и передаёт их обработчику. Ошибка
// обработчика оставляет сообщение в очереди через nack с requeue.
func (q *RabbitFeedEvents) Consume(ctx context.Context, handle func(context.Context, domain.FeedViewEvent) error) error {
	deliveries, err := q.channel.ConsumeWithContext(ctx, q.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("подписка на очередь: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("канал доставки закрыт")
			}
			var event domain.FeedViewEvent
			if err := json.Unmarshal(delivery.Body, &event); err != nil {
				// Нечитаемое сообщение не вернётся в очередь.
				_ = delivery.Nack(false, false)
				continue
			}
			if err := handle(ctx, event); err != nil {
				_ = delivery.Nack(false, true)
				continue
			}
			_ = delivery.Ack(false)
		}
	}
}

// Close закрывает канал и соединение.
func (q *RabbitFeedEvents) Close() error {
	if err := q.channel.Close(); err != nil {
		_ = q.conn.Close()
		return err
	}
	return q.conn.Close()
}
