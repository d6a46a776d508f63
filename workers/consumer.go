// Package workers holds the inbound event consumers. Each consumer owns one
// topic, deduplicates deliveries with a set-if-absent marker, and hands the
// first delivery of every event to the mission engine.
package workers

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// IdempotencyKeyTTL bounds how long a dedup marker is kept. Redeliveries of
// the same event inside this window are discarded.
const IdempotencyKeyTTL = 24 * time.Hour

// recomputeTimeout caps a single detached mission recomputation.
const recomputeTimeout = time.Minute

// DedupStore is the set-if-absent primitive backing the idempotency markers.
// Implemented by cache.RedisService.
type DedupStore interface {
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
}

// MissionUpdater is the mission engine entry point consumers dispatch to.
// Implemented by services.MissionService.
type MissionUpdater interface {
	UpdateMissionProgress(ctx context.Context, userID uint, username string) error
}

// dedupAndDispatch claims the idempotency key and, on first delivery,
// triggers the mission recomputation on a detached goroutine so the
// delivery loop is never blocked. The return value is the ack decision:
//   - first delivery or duplicate: true (done with this message)
//   - dedup store unavailable: false — fail closed, do not process, and let
//     the transport redeliver later.
func dedupAndDispatch(ctx context.Context, dedup DedupStore, missions MissionUpdater, key string, userID uint, username, eventName string) bool {
	isNew, err := dedup.SetIfAbsent(ctx, key, "processed", IdempotencyKeyTTL)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"event": eventName, "idempotency_key": key,
		}).Error("dedup store unavailable, leaving delivery unacknowledged")
		return false
	}
	if !isNew {
		logrus.WithFields(logrus.Fields{
			"event": eventName, "idempotency_key": key, "user_id": userID,
		}).Warn("duplicate event delivery discarded")
		return true
	}

	logrus.WithFields(logrus.Fields{
		"event": eventName, "user_id": userID, "username": username,
	}).Info("first event delivery, triggering mission update")

	go func() {
		rctx, cancel := context.WithTimeout(context.Background(), recomputeTimeout)
		defer cancel()
		if err := missions.UpdateMissionProgress(rctx, userID, username); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"event": eventName, "user_id": userID,
			}).Error("mission progress update failed")
		}
	}()
	return true
}
