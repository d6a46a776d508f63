package workers

import (
	"context"
	"encoding/json"
	"fmt"

	"task-center/messaging"
	"task-center/models"

	"github.com/sirupsen/logrus"
)

const loginIdempotencyPrefix = "user_login_event:idempotency:"

// UserLoginEventConsumer processes the user-login topic.
type UserLoginEventConsumer struct {
	transport messaging.Consumer
	dedup     DedupStore
	missions  MissionUpdater
	group     string
	name      string
}

func NewUserLoginEventConsumer(transport messaging.Consumer, dedup DedupStore, missions MissionUpdater, group, name string) *UserLoginEventConsumer {
	return &UserLoginEventConsumer{transport: transport, dedup: dedup, missions: missions, group: group, name: name}
}

// Start blocks on the delivery loop until ctx is cancelled.
func (c *UserLoginEventConsumer) Start(ctx context.Context) error {
	return c.transport.Consume(ctx, messaging.TopicPrefix+messaging.TopicUserLogin, c.group, c.name, c.OnMessage)
}

// OnMessage handles one delivery. A malformed payload is logged and dropped;
// it cannot self-heal, so retrying it is pointless.
func (c *UserLoginEventConsumer) OnMessage(ctx context.Context, payload []byte) bool {
	var event models.UserLoginEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		logrus.WithError(err).WithField("payload", string(payload)).Error("malformed login event dropped")
		return true
	}

	// Key on user + calendar date: one login event per user per day matters.
	key := fmt.Sprintf("%s%d:%s", loginIdempotencyPrefix, event.UserID, event.LoginTime.UTC().Format("2006-01-02"))
	return dedupAndDispatch(ctx, c.dedup, c.missions, key, event.UserID, event.Username, "user login")
}
