// Package messaging carries domain events between the command services and
// the mission consumers over Redis Streams. Delivery is at least once:
// messages a consumer never acknowledges are re-claimed and redelivered.
package messaging

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Sender is the outbound half of the transport, consumed by EventPublisher.
type Sender interface {
	Send(ctx context.Context, topic string, payload []byte) error
}

// Consumer is the inbound half. The handler returns true to acknowledge the
// delivery; unacknowledged messages come back through the pending-claim path.
type Consumer interface {
	Consume(ctx context.Context, topic, group, consumer string, handler func(ctx context.Context, payload []byte) bool) error
}

// StreamTransport implements both halves on Redis Streams with consumer
// groups (XADD / XREADGROUP / XACK / XAUTOCLAIM).
type StreamTransport struct {
	client *redis.Client

	// ReadBlock bounds each XREADGROUP wait; MinIdle is how long a pending
	// delivery may sit unacknowledged before another consumer claims it.
	ReadBlock time.Duration
	MinIdle   time.Duration
}

func NewStreamTransport(client *redis.Client) *StreamTransport {
	return &StreamTransport{
		client:    client,
		ReadBlock: 5 * time.Second,
		MinIdle:   time.Minute,
	}
}

func (t *StreamTransport) Send(ctx context.Context, topic string, payload []byte) error {
	return t.client.XAdd(ctx, &redis.XAddArgs{
		Stream: topic,
		Values: map[string]interface{}{
			"id":   uuid.NewString(),
			"body": payload,
		},
	}).Err()
}

// Consume runs the delivery loop until ctx is cancelled. Each iteration
// first re-claims stale pending entries, then reads new ones.
func (t *StreamTransport) Consume(ctx context.Context, topic, group, consumer string, handler func(ctx context.Context, payload []byte) bool) error {
	if err := t.ensureGroup(ctx, topic, group); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		t.claimPending(ctx, topic, group, consumer, handler)

		streams, err := t.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: consumer,
			Streams:  []string{topic, ">"},
			Count:    16,
			Block:    t.ReadBlock,
		}).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logrus.WithError(err).WithField("topic", topic).Warn("stream read failed, retrying")
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				t.deliver(ctx, topic, group, msg, handler)
			}
		}
	}
}

func (t *StreamTransport) ensureGroup(ctx context.Context, topic, group string) error {
	err := t.client.XGroupCreateMkStream(ctx, topic, group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

// claimPending takes over deliveries another consumer left unacknowledged.
func (t *StreamTransport) claimPending(ctx context.Context, topic, group, consumer string, handler func(ctx context.Context, payload []byte) bool) {
	msgs, _, err := t.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   topic,
		Group:    group,
		Consumer: consumer,
		MinIdle:  t.MinIdle,
		Start:    "0",
		Count:    16,
	}).Result()
	if err != nil {
		if ctx.Err() == nil {
			logrus.WithError(err).WithField("topic", topic).Debug("pending claim failed")
		}
		return
	}
	for _, msg := range msgs {
		t.deliver(ctx, topic, group, msg, handler)
	}
}

func (t *StreamTransport) deliver(ctx context.Context, topic, group string, msg redis.XMessage, handler func(ctx context.Context, payload []byte) bool) {
	body, _ := msg.Values["body"].(string)
	if handler(ctx, []byte(body)) {
		if err := t.client.XAck(ctx, topic, group, msg.ID).Err(); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"topic": topic, "message_id": msg.ID,
			}).Warn("failed to ack message")
		}
	}
}
