package workers

import (
	"context"
	"encoding/json"
	"fmt"

	"task-center/messaging"
	"task-center/models"

	"github.com/sirupsen/logrus"
)

const launchIdempotencyPrefix = "game_launch_event:idempotency:"

// GameLaunchEventConsumer processes the game-launch topic.
type GameLaunchEventConsumer struct {
	transport messaging.Consumer
	dedup     DedupStore
	missions  MissionUpdater
	group     string
	name      string
}

func NewGameLaunchEventConsumer(transport messaging.Consumer, dedup DedupStore, missions MissionUpdater, group, name string) *GameLaunchEventConsumer {
	return &GameLaunchEventConsumer{transport: transport, dedup: dedup, missions: missions, group: group, name: name}
}

func (c *GameLaunchEventConsumer) Start(ctx context.Context) error {
	return c.transport.Consume(ctx, messaging.TopicPrefix+messaging.TopicGameLaunch, c.group, c.name, c.OnMessage)
}

func (c *GameLaunchEventConsumer) OnMessage(ctx context.Context, payload []byte) bool {
	var event models.GameLaunchEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		logrus.WithError(err).WithField("payload", string(payload)).Error("malformed launch event dropped")
		return true
	}

	// Only the first launch per (user, game) exists, so the pair identifies
	// the event.
	key := fmt.Sprintf("%s%d:%d", launchIdempotencyPrefix, event.UserID, event.GameID)
	return dedupAndDispatch(ctx, c.dedup, c.missions, key, event.UserID, event.Username, "game launch")
}
