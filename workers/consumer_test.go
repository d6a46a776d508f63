package workers

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"task-center/models"

	"github.com/stretchr/testify/require"
)

// fakeDedupStore implements set-if-absent over a plain map. Setting err
// simulates the backing store being unreachable.
type fakeDedupStore struct {
	mu   sync.Mutex
	keys map[string]string
	err  error
}

func newFakeDedupStore() *fakeDedupStore {
	return &fakeDedupStore{keys: make(map[string]string)}
}

func (f *fakeDedupStore) SetIfAbsent(_ context.Context, key, value string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if _, ok := f.keys[key]; ok {
		return false, nil
	}
	f.keys[key] = value
	return true, nil
}

type updateCall struct {
	userID   uint
	username string
}

// fakeMissionUpdater signals every invocation on a channel so tests can wait
// for the detached dispatch goroutine.
type fakeMissionUpdater struct {
	calls chan updateCall
}

func newFakeMissionUpdater() *fakeMissionUpdater {
	return &fakeMissionUpdater{calls: make(chan updateCall, 16)}
}

func (f *fakeMissionUpdater) UpdateMissionProgress(_ context.Context, userID uint, username string) error {
	f.calls <- updateCall{userID: userID, username: username}
	return nil
}

func (f *fakeMissionUpdater) waitForCall(t *testing.T) updateCall {
	t.Helper()
	select {
	case call := <-f.calls:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("mission update was not dispatched")
		return updateCall{}
	}
}

func (f *fakeMissionUpdater) requireNoCall(t *testing.T) {
	t.Helper()
	select {
	case call := <-f.calls:
		t.Fatalf("unexpected mission update for user %d", call.userID)
	case <-time.After(100 * time.Millisecond):
	}
}

func marshalEvent(t *testing.T, event interface{}) []byte {
	t.Helper()
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	return payload
}

func TestLoginConsumerDispatchesFirstDeliveryOnly(t *testing.T) {
	dedup := newFakeDedupStore()
	updater := newFakeMissionUpdater()
	consumer := NewUserLoginEventConsumer(nil, dedup, updater, "grp", "c1")

	payload := marshalEvent(t, models.UserLoginEvent{
		UserID:    42,
		Username:  "alice",
		LoginTime: time.Date(2026, 8, 29, 9, 30, 0, 0, time.UTC),
	})

	require.True(t, consumer.OnMessage(context.Background(), payload))
	call := updater.waitForCall(t)
	require.Equal(t, uint(42), call.userID)
	require.Equal(t, "alice", call.username)

	// Redeliveries are acknowledged but not reprocessed.
	for i := 0; i < 3; i++ {
		require.True(t, consumer.OnMessage(context.Background(), payload))
	}
	updater.requireNoCall(t)
}

func TestLoginConsumerKeysOnCalendarDay(t *testing.T) {
	dedup := newFakeDedupStore()
	updater := newFakeMissionUpdater()
	consumer := NewUserLoginEventConsumer(nil, dedup, updater, "grp", "c1")

	morning := models.UserLoginEvent{
		UserID: 42, Username: "alice",
		LoginTime: time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC),
	}
	evening := morning
	evening.LoginTime = time.Date(2026, 8, 29, 21, 0, 0, 0, time.UTC)
	nextDay := morning
	nextDay.LoginTime = time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)

	require.True(t, consumer.OnMessage(context.Background(), marshalEvent(t, morning)))
	updater.waitForCall(t)

	// Same user, same day: duplicate even though the timestamps differ.
	require.True(t, consumer.OnMessage(context.Background(), marshalEvent(t, evening)))
	updater.requireNoCall(t)

	require.True(t, consumer.OnMessage(context.Background(), marshalEvent(t, nextDay)))
	updater.waitForCall(t)
}

func TestLoginConsumerDropsMalformedPayload(t *testing.T) {
	dedup := newFakeDedupStore()
	updater := newFakeMissionUpdater()
	consumer := NewUserLoginEventConsumer(nil, dedup, updater, "grp", "c1")

	// Acked so the transport does not redeliver garbage forever.
	require.True(t, consumer.OnMessage(context.Background(), []byte("{not json")))
	updater.requireNoCall(t)
	require.Empty(t, dedup.keys)
}

func TestConsumerFailsClosedWhenDedupStoreDown(t *testing.T) {
	dedup := newFakeDedupStore()
	dedup.err = errors.New("connection refused")
	updater := newFakeMissionUpdater()
	consumer := NewUserLoginEventConsumer(nil, dedup, updater, "grp", "c1")

	payload := marshalEvent(t, models.UserLoginEvent{
		UserID: 42, Username: "alice", LoginTime: time.Now().UTC(),
	})

	// No ack and no processing: the delivery must come back later.
	require.False(t, consumer.OnMessage(context.Background(), payload))
	updater.requireNoCall(t)

	// Once the store recovers the same delivery goes through.
	dedup.err = nil
	require.True(t, consumer.OnMessage(context.Background(), payload))
	updater.waitForCall(t)
}

func TestLaunchConsumerDedupsPerUserAndGame(t *testing.T) {
	dedup := newFakeDedupStore()
	updater := newFakeMissionUpdater()
	consumer := NewGameLaunchEventConsumer(nil, dedup, updater, "grp", "c1")

	launch := models.GameLaunchEvent{
		UserID: 42, Username: "alice", GameID: 7, GameCode: "tetris",
		LaunchTime: time.Now().UTC(),
	}
	require.True(t, consumer.OnMessage(context.Background(), marshalEvent(t, launch)))
	updater.waitForCall(t)

	require.True(t, consumer.OnMessage(context.Background(), marshalEvent(t, launch)))
	updater.requireNoCall(t)

	otherGame := launch
	otherGame.GameID = 8
	otherGame.GameCode = "pong"
	require.True(t, consumer.OnMessage(context.Background(), marshalEvent(t, otherGame)))
	updater.waitForCall(t)
}

func TestPlayConsumerDistinguishesSessions(t *testing.T) {
	dedup := newFakeDedupStore()
	updater := newFakeMissionUpdater()
	consumer := NewGamePlayEventConsumer(nil, dedup, updater, "grp", "c1")

	play := models.GamePlayEvent{
		UserID: 42, Username: "alice", GameID: 7, GameCode: "tetris",
		Score: 500, PlayDuration: 120,
		PlayTime: time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC),
	}
	require.True(t, consumer.OnMessage(context.Background(), marshalEvent(t, play)))
	updater.waitForCall(t)

	require.True(t, consumer.OnMessage(context.Background(), marshalEvent(t, play)))
	updater.requireNoCall(t)

	// A later session of the same game is a distinct event.
	later := play
	later.PlayTime = play.PlayTime.Add(time.Hour)
	require.True(t, consumer.OnMessage(context.Background(), marshalEvent(t, later)))
	updater.waitForCall(t)
}

func TestMissionCompletedConsumerAlwaysAcks(t *testing.T) {
	consumer := NewMissionCompletedEventConsumer(nil, "grp", "c1")

	payload := marshalEvent(t, models.MissionCompletedEvent{
		UserID: 42, Username: "alice", MissionID: 3,
		MissionType: models.MissionLaunchGames, RewardPoints: 0,
		CompletedAt: time.Now().UTC(),
	})
	require.True(t, consumer.OnMessage(context.Background(), payload))
	require.True(t, consumer.OnMessage(context.Background(), []byte("{not json")))
}
