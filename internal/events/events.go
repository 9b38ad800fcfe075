// Package events publishes grid change notifications so that open
// availability views can refresh without polling.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	TypeBooked    = "booked"
	TypeCancelled = "cancelled"
)

// GridChange describes one cell that changed state after a commit.
type GridChange struct {
	Type       string    `json:"type"`
	ClubID     int64     `json:"clubId"`
	Sport      string    `json:"sport"`
	Date       string    `json:"date"`
	CourtIndex int64     `json:"courtIndex"`
	SlotIndex  int64     `json:"slotIndex"`
	BookingID  int64     `json:"bookingId"`
	At         time.Time `json:"at"`
}

// Publisher delivers grid changes. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, change GridChange) error
}

// NopPublisher drops every change.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, GridChange) error { return nil }

// redisClient is the subset of *redis.Client used for publishing.
type redisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisPublisher publishes changes as JSON on a per-club channel.
type RedisPublisher struct {
	client redisClient
	prefix string
}

type Options struct {
	Addr          string
	Password      string
	ChannelPrefix string
}

// NewRedisPublisher connects to redis and verifies the connection.
func NewRedisPublisher(ctx context.Context, opts Options) (*RedisPublisher, *redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return newRedisPublisher(client, opts.ChannelPrefix), client, nil
}

func newRedisPublisher(client redisClient, prefix string) *RedisPublisher {
	if prefix == "" {
		prefix = "courtbook"
	}
	return &RedisPublisher{client: client, prefix: prefix}
}

// Channel returns the channel name for a club.
func (p *RedisPublisher) Channel(clubID int64) string {
	return Channel(p.prefix, clubID)
}

// Channel formats <prefix>:club:<clubID>.
func Channel(prefix string, clubID int64) string {
	return fmt.Sprintf("%s:club:%d", prefix, clubID)
}

func (p *RedisPublisher) Publish(ctx context.Context, change GridChange) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal grid change: %w", err)
	}
	if err := p.client.Publish(ctx, p.Channel(change.ClubID), payload).Err(); err != nil {
		return fmt.Errorf("publish grid change: %w", err)
	}
	return nil
}

// PublishQuietly sends change and logs failures. Booking outcomes never
// depend on the feed.
func PublishQuietly(ctx context.Context, publisher Publisher, change GridChange) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, change); err != nil {
		log.Ctx(ctx).Warn().
			Err(err).
			Int64("club_id", change.ClubID).
			Int64("booking_id", change.BookingID).
			Str("type", change.Type).
			Msg("Failed to publish grid change")
	}
}
