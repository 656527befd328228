package mq

import (
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName = "events"
)

const heartbeat = 10 * time.Second

// NewConnection dials RabbitMQ and registers the connection under name.
func NewConnection(url, name string) (*amqp091.Connection, error) {
	conn, err := amqp091.DialConfig(url, connectionConfig(name))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ as %q: %w", name, err)
	}
	return conn, nil
}

func connectionConfig(name string) amqp091.Config {
	props := amqp091.NewConnectionProperties()
	if name != "" {
		props.SetClientConnectionName(name)
	}
	return amqp091.Config{
		Heartbeat:  heartbeat,
		Locale:     "en_US",
		Properties: props,
	}
}

// DeclareExchange declares the events exchange.
func DeclareExchange(ch *amqp091.Channel) error {
	return ch.ExchangeDeclare(
		ExchangeName,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
}
