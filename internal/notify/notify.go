package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Notification is a short user-facing message such as a conversion summary.
type Notification struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// New builds a Notification with a fresh id and timestamp.
func New(title, description string) Notification {
	return Notification{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
}

// Notifier delivers notifications fire-and-forget; delivery errors are logged, never returned.
type Notifier interface {
	Notify(ctx context.Context, title, description string)
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, title, description string) {
	slog.Info("notification", "title", title, "description", description)
}

// Publisher is the subset of *redis.Client used for delivery.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisNotifier publishes notifications as JSON on a Redis pub/sub channel.
type RedisNotifier struct {
	pub     Publisher
	channel string
}

// NewRedisNotifier creates a notifier publishing on channel.
func NewRedisNotifier(pub Publisher, channel string) *RedisNotifier {
	return &RedisNotifier{pub: pub, channel: channel}
}

// NewRedisClient parses a redis:// URL into a client.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func (n *RedisNotifier) Notify(ctx context.Context, title, description string) {
	payload, err := json.Marshal(New(title, description))
	if err != nil {
		slog.Error("notify: failed to marshal notification", "error", err)
		return
	}
	if err := n.pub.Publish(ctx, n.channel, payload).Err(); err != nil {
		slog.Warn("notify: failed to publish", "channel", n.channel, "error", err)
	}
}

// Multi fans a notification out to every notifier in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, title, description string) {
	for _, n := range m {
		n.Notify(ctx, title, description)
	}
}
