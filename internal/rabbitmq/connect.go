// Package rabbitmq содержит обвязку для работы с очередью почтовых заданий.
package rabbitmq

import (
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

func Connect(connection string, retries int, delay time.Duration) (*amqp.Connection, error) {
	const op = "rabbitmq.Connect"
	var conn *amqp.Connection
	var err error

	for range retries {
		conn, err = amqp.Dial(connection)
		if err == nil {
			return conn, nil
		}
		time.Sleep(delay)
	}

	return nil, fmt.Errorf("%s: %w", op, err)
}
