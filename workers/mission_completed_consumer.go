package workers

import (
	"context"
	"encoding/json"

	"task-center/messaging"
	"task-center/models"

	"github.com/sirupsen/logrus"
)

// MissionCompletedEventConsumer records completions for audit. Reward
// distribution already happened in the mission engine before the event was
// published; this is the hook for notifications or downstream systems.
type MissionCompletedEventConsumer struct {
	transport messaging.Consumer
	group     string
	name      string
}

func NewMissionCompletedEventConsumer(transport messaging.Consumer, group, name string) *MissionCompletedEventConsumer {
	return &MissionCompletedEventConsumer{transport: transport, group: group, name: name}
}

func (c *MissionCompletedEventConsumer) Start(ctx context.Context) error {
	return c.transport.Consume(ctx, messaging.TopicPrefix+messaging.TopicMissionCompleted, c.group, c.name, c.OnMessage)
}

func (c *MissionCompletedEventConsumer) OnMessage(_ context.Context, payload []byte) bool {
	var event models.MissionCompletedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		logrus.WithError(err).WithField("payload", string(payload)).Error("malformed mission completed event dropped")
		return true
	}

	logrus.WithFields(logrus.Fields{
		"user_id":       event.UserID,
		"username":      event.Username,
		"mission_id":    event.MissionID,
		"mission_type":  event.MissionType,
		"reward_points": event.RewardPoints,
		"completed_at":  event.CompletedAt,
	}).Info("mission completed")
	return true
}
