// Package rabbitmq fans product changes and restock orders out to other processes.
package rabbitmq

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/streadway/amqp"
)

// Queue names.
const (
	ChangesQueue = "inventory_changes"
	RestockQueue = "restock_orders"
)

// ChangeEvent tells consumers that data at Address changed.
type ChangeEvent struct {
	Address   string    `json:"address"`
	ChangedAt time.Time `json:"changed_at"`
}

// Channel is the part of *amqp.Channel the client uses.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel Channel
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// NewClient connects to RabbitMQ and declares the queues the client uses.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	client, err := NewClientWithChannel(ch)
	if err != nil {
		conn.Close()
		return nil, err
	}
	client.conn = conn

	log.Printf("RabbitMQ client connected; queues %s and %s declared.", ChangesQueue, RestockQueue)
	return client, nil
}

// NewClientWithChannel builds a client on an already open channel.
func NewClientWithChannel(ch Channel) (*Client, error) {
	for _, queue := range []string{ChangesQueue, RestockQueue} {
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			ch.Close()
			return nil, fmt.Errorf("failed to declare %s: %w", queue, err)
		}
	}
	return &Client{channel: ch}, nil
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors while closing RabbitMQ client: %v", errs)
	}
	return nil
}

// PublishChange publishes a ChangeEvent for address.
func (c *Client) PublishChange(address string) error {
	return c.publish(ChangesQueue, ChangeEvent{Address: address, ChangedAt: time.Now().UTC()})
}

// PublishRestockOrder publishes a restock order as JSON. The order type is left to the
// caller so this package stays free of application models.
func (c *Client) PublishRestockOrder(order any) error {
	return c.publish(RestockQueue, order)
}

// ChangeObserver returns a function suitable for registering with a change registry:
// every change it sees is forwarded to the changes queue.
func (c *Client) ChangeObserver() func(address string) {
	return func(address string) {
		if err := c.PublishChange(address); err != nil {
			log.Printf("Failed to publish change for %s: %v", address, err)
		}
	}
}

func (c *Client) publish(queue string, payload any) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message for %s: %w", queue, err)
	}

	err = c.channel.Publish(
		"",    // default exchange
		queue, // routing key: the queue name
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", queue, err)
	}
	return nil
}

// ConsumeChanges delivers every ChangeEvent on the changes queue to handler.
// Messages the handler rejects are requeued; undecodable messages are dropped.
func (c *Client) ConsumeChanges(handler func(ChangeEvent) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(
		ChangesQueue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	log.Printf(" [*] Waiting for inventory changes on %s", ChangesQueue)

	go func() {
		for msg := range msgs {
			handleDelivery(msg, handler)
		}
	}()
	return nil
}

// Acknowledger is the part of amqp.Delivery used to settle a message.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func handleDelivery(msg amqp.Delivery, handler func(ChangeEvent) error) {
	settle(msg.Body, msg, handler)
}

func settle(body []byte, ack Acknowledger, handler func(ChangeEvent) error) {
	var event ChangeEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Printf("Dropping undecodable change event: %v", err)
		if err := ack.Nack(false, false); err != nil {
			log.Printf("Error nacking message: %v", err)
		}
		return
	}

	if err := handler(event); err != nil {
		log.Printf("Error processing change for %s: %v", event.Address, err)
		if err := ack.Nack(false, true); err != nil {
			log.Printf("Error nacking message: %v", err)
		}
		return
	}
	if err := ack.Ack(false); err != nil {
		log.Printf("Error acking message: %v", err)
	}
}
