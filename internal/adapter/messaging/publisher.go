package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/streadway/amqp"

	"github.com/okabakkie/marketplace/internal/port"
)

// RabbitPublisher pushes reservation events to a topic exchange for the
// notification collaborator. A circuit breaker keeps a dead broker from
// adding latency to every reservation.
type RabbitPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	breaker  *gobreaker.CircuitBreaker
}

func NewRabbitPublisher(url, exchange string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "reservation-events",
		MaxRequests: 3,
		Interval:    15 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.WithFields(log.Fields{
				"circuit": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("event publisher circuit state changed")
		},
	})

	return &RabbitPublisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		breaker:  breaker,
	}, nil
}

func (p *RabbitPublisher) PublishReservationEvent(ctx context.Context, ev port.ReservationEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	_, err = p.breaker.Execute(func() (interface{}, error) {
		return nil, p.channel.Publish(
			p.exchange,
			ev.Type,
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				Body:         body,
				DeliveryMode: amqp.Persistent,
				MessageId:    ev.ID,
				Timestamp:    ev.OccurredAt,
				Headers: amqp.Table{
					"reservation_id": ev.ReservationID,
					"vendor_id":      ev.VendorID,
					"event_type":     ev.Type,
				},
			},
		)
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

func (p *RabbitPublisher) Close() {
	p.channel.Close()
	p.conn.Close()
}

// NopPublisher is used when no broker is configured; events are dropped
// after a debug log.
type NopPublisher struct{}

func (NopPublisher) PublishReservationEvent(ctx context.Context, ev port.ReservationEvent) error {
	log.WithField("event_type", ev.Type).Debug("no broker configured, dropping event")
	return nil
}
