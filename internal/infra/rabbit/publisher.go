package rabbit

import (
	"context"
	"encoding/json"
	"fmt"

	"livequiz-service/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// GameExchange is the topic exchange all session lifecycle events go to.
	GameExchange = "game.events"

	SessionStartedKey  = "session.started"
	SessionFinishedKey = "session.finished"
)

// Publisher emits session lifecycle events to RabbitMQ so downstream
// consumers (history, analytics) can react without the engine knowing them.
type Publisher struct {
	channel *amqp.Channel
}

// NewPublisher opens a channel on the connection and declares the exchange.
func NewPublisher(conn *amqp.Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		GameExchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Publisher{channel: ch}, nil
}

type sessionStartedEvent struct {
	SessionID string `json:"sessionId"`
	QuizID    string `json:"quizId"`
	Pin       string `json:"pin"`
}

func (p *Publisher) PublishSessionStarted(ctx context.Context, sessionID, quizID, pin string) error {
	return p.publish(ctx, SessionStartedKey, sessionStartedEvent{
		SessionID: sessionID,
		QuizID:    quizID,
		Pin:       pin,
	})
}

func (p *Publisher) PublishSessionFinished(ctx context.Context, result domain.GameResult) error {
	return p.publish(ctx, SessionFinishedKey, result)
}

func (p *Publisher) publish(ctx context.Context, key string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", key, err)
	}
	if err := p.channel.PublishWithContext(ctx,
		GameExchange,
		key,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	); err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	return nil
}

// Close releases the channel.
func (p *Publisher) Close() error {
	return p.channel.Close()
}
