package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
)

// TopicPrefix namespaces every stream this service publishes or consumes.
const TopicPrefix = "task-center-"

// Logical topic names (without prefix).
const (
	TopicUserLogin        = "user-login"
	TopicGameLaunch       = "game-launch"
	TopicGamePlay         = "game-play"
	TopicMissionCompleted = "mission-completed"
)

const (
	maxRetryAttempts = 3
	retryBackoffBase = time.Second
)

// PublishError signals that a publish failed after exhausting its retry
// budget. Callers treat it as fatal for the enclosing transaction: a login,
// launch or play command whose event cannot be published must fail as a
// whole rather than leave a record without its event.
type PublishError struct {
	Topic    string
	Attempts int
	Err      error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publishing to %s failed after %d retries: %v", e.Topic, e.Attempts, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// EventPublisher serializes events and sends them through the transport.
// Publish retries with exponential backoff and jitter; PublishOnce is the
// best-effort variant for telemetry that may be lost.
type EventPublisher struct {
	transport Sender

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

func NewEventPublisher(transport Sender) *EventPublisher {
	return &EventPublisher{
		transport: transport,
		sleep:     time.Sleep,
	}
}

// Publish sends the event, retrying up to 3 times with exponential backoff
// (base 1s) and ±50% jitter. Returns a *PublishError once retries are
// exhausted. A serialization failure is returned immediately; malformed
// events cannot self-heal.
func (p *EventPublisher) Publish(ctx context.Context, topic string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("serializing event for %s: %w", topic, err)
	}
	fullTopic := TopicPrefix + topic

	var lastErr error
	for attempt := 0; attempt <= maxRetryAttempts; attempt++ {
		if attempt > 0 {
			logrus.WithFields(logrus.Fields{
				"topic":   fullTopic,
				"attempt": attempt,
				"cause":   lastErr,
			}).Warn("retrying event publish")
			p.sleep(backoffWithJitter(attempt))
		}
		if lastErr = p.send(ctx, fullTopic, payload); lastErr == nil {
			logrus.WithField("topic", fullTopic).Debug("event published")
			return nil
		}
	}

	logrus.WithFields(logrus.Fields{
		"topic": fullTopic,
		"cause": lastErr,
	}).Error("event publish failed, retry budget exhausted")
	return &PublishError{Topic: fullTopic, Attempts: maxRetryAttempts, Err: lastErr}
}

// PublishOnce sends the event with no retries.
func (p *EventPublisher) PublishOnce(ctx context.Context, topic string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("serializing event for %s: %w", topic, err)
	}
	return p.send(ctx, TopicPrefix+topic, payload)
}

func (p *EventPublisher) send(ctx context.Context, fullTopic string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.transport.Send(ctx, fullTopic, payload)
}

// backoffWithJitter returns base*2^(attempt-1) scaled by a random factor in
// [0.5, 1.5) to avoid retry storms.
func backoffWithJitter(attempt int) time.Duration {
	base := retryBackoffBase << (attempt - 1)
	factor := 0.5 + rand.Float64()
	return time.Duration(float64(base) * factor)
}

// The mission-relevant events always go through the retrying path; losing
// one silently would corrupt mission state.

func (p *EventPublisher) PublishLoginEvent(ctx context.Context, event interface{}) error {
	return p.Publish(ctx, TopicUserLogin, event)
}

func (p *EventPublisher) PublishGameLaunchEvent(ctx context.Context, event interface{}) error {
	return p.Publish(ctx, TopicGameLaunch, event)
}

func (p *EventPublisher) PublishGamePlayEvent(ctx context.Context, event interface{}) error {
	return p.Publish(ctx, TopicGamePlay, event)
}

func (p *EventPublisher) PublishMissionCompletedEvent(ctx context.Context, event interface{}) error {
	return p.Publish(ctx, TopicMissionCompleted, event)
}
