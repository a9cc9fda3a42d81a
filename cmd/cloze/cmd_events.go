package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/zmuhls/cloze-reader-sub000/internal/queue"
)

// cmdEvents prints round-completed events as JSON lines until interrupted.
func cmdEvents() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := setup(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.Queue.URL == "" {
		return errors.New("queue.url (or RABBITMQ_URL) is not set")
	}

	conn, err := queue.NewConnection(a.cfg.Queue.URL)
	if err != nil {
		return fmt.Errorf("connect to rabbitmq: %w", err)
	}
	defer conn.Close()

	consumer := queue.NewConsumer(conn, printEvent(os.Stdout), queue.DefaultConsumerConfig())
	if err := consumer.Start(ctx); err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Listening on %s (Ctrl-C to stop)\n", queue.RoundQueueName)
	<-ctx.Done()
	consumer.Stop()
	return nil
}

// printEvent returns a handler writing each event as one JSON line.
func printEvent(w io.Writer) queue.EventHandler {
	enc := json.NewEncoder(w)
	return func(_ context.Context, event queue.RoundEvent) error {
		return enc.Encode(event)
	}
}
