package services

import (
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// MailQueue publishes mail jobs to RabbitMQ for at-least-once delivery with no
// ordering guarantee. Without a broker it degrades to a fire-and-forget direct
// send, so callers never block on delivery either way.
type MailQueue struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	mailer  Mailer
}

// NewMailQueue connects to the broker and declares the durable mail queue. An
// empty URL yields a queue in direct-send fallback mode.
func NewMailQueue(url, queue string, mailer Mailer) (*MailQueue, error) {
	q := &MailQueue{queue: queue, mailer: mailer}
	if url == "" {
		return q, nil
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	q.conn = conn
	q.channel = ch
	return q, nil
}

// Enqueue schedules a mail job. Fire and forget: failures are logged, never
// returned to the caller.
func (q *MailQueue) Enqueue(msg MailMessage) {
	if q.channel == nil {
		go func() {
			if err := q.mailer.Send(msg); err != nil {
				log.Printf("[Mail] direct send failed: %v", err)
			}
		}()
		return
	}

	body, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[Mail] failed to encode job: %v", err)
		return
	}

	if err := q.channel.Publish(
		"",
		q.queue,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Timestamp:    time.Now(),
			Body:         body,
		},
	); err != nil {
		log.Printf("[Mail] failed to publish job: %v", err)
	}
}

// Consume processes queued mail jobs until the channel closes. Failed sends
// are requeued once via nack.
func (q *MailQueue) Consume() error {
	if q.channel == nil {
		return nil
	}

	deliveries, err := q.channel.Consume(
		q.queue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return err
	}

	for d := range deliveries {
		var msg MailMessage
		if err := json.Unmarshal(d.Body, &msg); err != nil {
			log.Printf("[Mail] dropping malformed job: %v", err)
			_ = d.Ack(false)
			continue
		}

		if err := q.mailer.Send(msg); err != nil {
			log.Printf("[Mail] delivery failed, requeueing: %v", err)
			_ = d.Nack(false, !d.Redelivered)
			continue
		}

		_ = d.Ack(false)
	}

	return nil
}

// Close releases the broker connection.
func (q *MailQueue) Close() {
	if q.channel != nil {
		_ = q.channel.Close()
	}
	if q.conn != nil {
		_ = q.conn.Close()
	}
}
