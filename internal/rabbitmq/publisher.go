package rabbitmq

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"

	"github.com/ainexo/declair/internal/models"
)

// PublishMessage публикует сообщение в RabbitMQ.
func PublishMessage(ch *amqp.Channel, exchange string, routingkey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(
		exchange,
		routingkey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// EmailPublisher публикует почтовые задания в очередь исходящих писем.
type EmailPublisher struct {
	ch *amqp.Channel
}

// NewEmailPublisher создает публикатор поверх открытого канала.
func NewEmailPublisher(ch *amqp.Channel) *EmailPublisher {
	return &EmailPublisher{ch: ch}
}

// PublishEmailJob публикует задание на отправку письма.
func (p *EmailPublisher) PublishEmailJob(job models.EmailJob) error {
	return PublishMessage(p.ch, Exchange, "outbound", job)
}
