package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/studypulse/studypulse-backend/internal/platform/logger"
)

// Notifier dispatches critical alerts to the external notification layer.
type Notifier interface {
	Notify(ctx context.Context, recipient, severity, message string) error
	Close() error
}

type notification struct {
	Recipient string    `json:"recipient"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	SentAt    time.Time `json:"sent_at"`
}

type redisNotifier struct {
	log     *logger.Logger
	rdb     *redis.Client
	channel string
}

// NewRedisNotifier publishes notifications on a redis channel for the
// delivery workers to pick up. Requires REDIS_ADDR.
func NewRedisNotifier(log *logger.Logger) (Notifier, error) {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ch := strings.TrimSpace(os.Getenv("REDIS_NOTIFY_CHANNEL"))
	if ch == "" {
		ch = "alerts.notify"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisNotifier{
		log:     log.With("service", "RedisNotifier"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (n *redisNotifier) Notify(ctx context.Context, recipient, severity, message string) error {
	raw, err := json.Marshal(notification{
		Recipient: recipient,
		Severity:  severity,
		Message:   message,
		SentAt:    time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	if err := n.rdb.Publish(ctx, n.channel, raw).Err(); err != nil {
		n.log.Error("publish notification failed", "error", err)
		return err
	}
	return nil
}

func (n *redisNotifier) Close() error {
	return n.rdb.Close()
}

type logNotifier struct {
	log *logger.Logger
}

// NewLogNotifier is the fallback when redis is not configured; dispatches are
// written to the log only.
func NewLogNotifier(log *logger.Logger) Notifier {
	return &logNotifier{log: log.With("service", "LogNotifier")}
}

func (n *logNotifier) Notify(_ context.Context, recipient, severity, message string) error {
	n.log.Warn("notification dispatch",
		"recipient", recipient,
		"severity", severity,
		"message", message,
	)
	return nil
}

func (n *logNotifier) Close() error { return nil }
