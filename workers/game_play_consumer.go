package workers

import (
	"context"
	"encoding/json"
	"fmt"

	"task-center/messaging"
	"task-center/models"

	"github.com/sirupsen/logrus"
)

const playIdempotencyPrefix = "game_play_event:idempotency:"

// GamePlayEventConsumer processes the game-play topic.
type GamePlayEventConsumer struct {
	transport messaging.Consumer
	dedup     DedupStore
	missions  MissionUpdater
	group     string
	name      string
}

func NewGamePlayEventConsumer(transport messaging.Consumer, dedup DedupStore, missions MissionUpdater, group, name string) *GamePlayEventConsumer {
	return &GamePlayEventConsumer{transport: transport, dedup: dedup, missions: missions, group: group, name: name}
}

func (c *GamePlayEventConsumer) Start(ctx context.Context) error {
	return c.transport.Consume(ctx, messaging.TopicPrefix+messaging.TopicGamePlay, c.group, c.name, c.OnMessage)
}

func (c *GamePlayEventConsumer) OnMessage(ctx context.Context, payload []byte) bool {
	var event models.GamePlayEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		logrus.WithError(err).WithField("payload", string(payload)).Error("malformed play event dropped")
		return true
	}

	// Score and play time distinguish otherwise-identical plays of the same
	// game, so they belong in the key.
	key := fmt.Sprintf("%s%d:%d:%d:%d", playIdempotencyPrefix,
		event.UserID, event.GameID, event.Score, event.PlayTime.UTC().Unix())
	return dedupAndDispatch(ctx, c.dedup, c.missions, key, event.UserID, event.Username, "game play")
}
