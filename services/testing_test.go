package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"task-center/cache"
	"task-center/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a per-test in-memory database. A single connection keeps
// the concurrent recompute goroutines from tripping over sqlite locking.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Game{},
		&models.LoginRecord{},
		&models.GameLaunchRecord{},
		&models.GamePlayRecord{},
		&models.Mission{},
	))
	return db
}

// fakeKV is an in-memory HashStore. Setting err simulates a cache backend
// failure on every operation.
type fakeKV struct {
	mu     sync.Mutex
	hashes map[string]map[string]string
	err    error
}

func newFakeKV() *fakeKV {
	return &fakeKV{hashes: make(map[string]map[string]string)}
}

func (f *fakeKV) Get(_ context.Context, cacheKey, fieldKey string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	val, ok := f.hashes[cacheKey][fieldKey]
	if !ok {
		return "", cache.ErrCacheMiss
	}
	return val, nil
}

func (f *fakeKV) GetAll(_ context.Context, cacheKey string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]string, len(f.hashes[cacheKey]))
	for k, v := range f.hashes[cacheKey] {
		out[k] = v
	}
	return out, nil
}

func (f *fakeKV) Put(_ context.Context, cacheKey, fieldKey, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.hashes[cacheKey] == nil {
		f.hashes[cacheKey] = make(map[string]string)
	}
	f.hashes[cacheKey][fieldKey] = value
	return nil
}

func (f *fakeKV) PutAll(_ context.Context, cacheKey string, items map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.hashes[cacheKey] == nil {
		f.hashes[cacheKey] = make(map[string]string)
	}
	for k, v := range items {
		f.hashes[cacheKey][k] = v
	}
	return nil
}

func (f *fakeKV) Remove(_ context.Context, cacheKey string, fieldKeys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, k := range fieldKeys {
		delete(f.hashes[cacheKey], k)
	}
	return nil
}

func (f *fakeKV) Delete(_ context.Context, cacheKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	delete(f.hashes, cacheKey)
	return nil
}

func (f *fakeKV) field(cacheKey, fieldKey string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	val, ok := f.hashes[cacheKey][fieldKey]
	return val, ok
}

// fakePublisher records published events per topic. Setting err makes every
// publish fail.
type fakePublisher struct {
	mu     sync.Mutex
	events map[string][]interface{}
	err    error
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{events: make(map[string][]interface{})}
}

func (f *fakePublisher) publish(topic string, event interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events[topic] = append(f.events[topic], event)
	return nil
}

func (f *fakePublisher) PublishLoginEvent(_ context.Context, event interface{}) error {
	return f.publish("user-login", event)
}

func (f *fakePublisher) PublishGameLaunchEvent(_ context.Context, event interface{}) error {
	return f.publish("game-launch", event)
}

func (f *fakePublisher) PublishGamePlayEvent(_ context.Context, event interface{}) error {
	return f.publish("game-play", event)
}

func (f *fakePublisher) PublishMissionCompletedEvent(_ context.Context, event interface{}) error {
	return f.publish("mission-completed", event)
}

func (f *fakePublisher) published(topic string) []interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]interface{}(nil), f.events[topic]...)
}

// fixedClock returns a deterministic now func.
func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
