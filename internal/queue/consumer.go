// This file holds the consumer that listens to the activity queue and
// appends one line per event to logs/activity.log.
package queue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/cinelog/internal/logging"
)

// ConsumerConfig configures StartActivityConsumer.
type ConsumerConfig struct {
	URL     string
	Queue   string
	LogPath string // defaults to logs/activity.log
}

// StartActivityConsumer connects to RabbitMQ, declares the queue (durable)
// and consumes messages until ctx is cancelled.  Each message is appended to
// the activity log.  Dial failures are retried with exponential backoff
// capped at 30s; a closed delivery channel triggers a reconnect.
func StartActivityConsumer(ctx context.Context, cfg ConsumerConfig) error {
	if cfg.LogPath == "" {
		cfg.LogPath = filepath.Join("logs", "activity.log")
	}

	backoff := time.Second
	for {
		conn, err := amqp.Dial(cfg.URL)
		if err != nil {
			logging.Warn().Err(err).Dur("retry_in", backoff).Msg("activity-consumer: failed to dial broker")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, cfg)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logging.Warn().Err(err).Msg("activity-consumer: consume loop ended, reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, cfg ConsumerConfig) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logging.Warn().Err(err).Msg("activity-consumer: set QoS failed")
	}
	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	logging.Info().Str("queue", cfg.Queue).Msg("activity-consumer: consuming")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := appendEvent(cfg.LogPath, d.Body); err != nil {
				logging.Error().Err(err).Msg("activity-consumer: handle message failed")
				_ = d.Nack(false, false) // reject without requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func appendEvent(path string, body []byte) error {
	var ev ActivityEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" {
		return errors.New("event without type")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if err := writeLine(f, ev); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// writeLine renders one event as a single human-friendly line.
func writeLine(w io.Writer, ev ActivityEvent) error {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s | user_id=%d", ev.At.UTC().Format(time.RFC3339), ev.Type, ev.UserID)
	if ev.MovieID != 0 {
		fmt.Fprintf(&b, " | movie_id=%d", ev.MovieID)
	}
	if ev.ReviewID != 0 {
		fmt.Fprintf(&b, " | review_id=%d", ev.ReviewID)
	}
	if ev.Rating != 0 {
		fmt.Fprintf(&b, " | rating=%d", ev.Rating)
	}
	if ev.Status != "" {
		fmt.Fprintf(&b, " | status=%s", ev.Status)
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}
