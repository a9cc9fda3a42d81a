package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Publisher sends a JSON payload to a named queue. *Connection is the
// production implementation.
type Publisher interface {
	PublishJSON(ctx context.Context, queue string, data any) error
}

// Producer publishes round events to the queue
type Producer struct {
	pub Publisher
}

// NewProducer creates a new queue producer
func NewProducer(pub Publisher) *Producer {
	return &Producer{pub: pub}
}

// PublishRound publishes a round-completed event, filling in a missing ID
// and timestamp.
func (p *Producer) PublishRound(ctx context.Context, event *RoundEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CompletedAt.IsZero() {
		event.CompletedAt = time.Now()
	}

	if err := p.pub.PublishJSON(ctx, RoundQueueName, event); err != nil {
		return fmt.Errorf("failed to publish round event: %w", err)
	}

	slog.Info("published round event",
		"event_id", event.ID,
		"player_id", event.PlayerID,
		"round_id", event.RoundID,
		"passed", event.Passed,
	)
	return nil
}

var _ Publisher = (*Connection)(nil)
